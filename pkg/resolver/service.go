// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/canonical/access-service/internal/cache"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/storage"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
)

// ErrTenantNotFound is fatal to the request, not even the default
// tenant could be resolved.
var ErrTenantNotFound = errors.New("tenant not found")

// Method records which detection signal produced the resolved tenant.
// Advisory only, it never affects access decisions.
type Method string

const (
	MethodHeader    Method = "header"
	MethodSubdomain Method = "subdomain"
	MethodDomain    Method = "domain"
	MethodDefault   Method = "default"
)

// Signals are the request attributes tenant detection works from.
type Signals struct {
	// TenantID is the explicit override signal, it takes precedence
	// over host-based detection.
	TenantID string
	// Host is the request host, port included.
	Host string
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage         StorageInterface
	cache           *cache.Cache
	defaultTenantID string
	cacheTTL        time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	cache *cache.Cache,
	defaultTenantID string,
	cacheTTL time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:         storage,
		cache:           cache,
		defaultTenantID: defaultTenantID,
		cacheTTL:        cacheTTL,
		tracer:          tracer,
		monitor:         monitor,
		logger:          logger,
	}
}

// Resolve walks the detection ladder: explicit tenant ID, subdomain,
// full domain, then the default tenant. The first signal that matches
// a stored tenant wins.
func (s *Service) Resolve(ctx context.Context, signals Signals) (*types.Tenant, Method, error) {
	ctx, span := s.tracer.Start(ctx, "resolver.Service.Resolve")
	defer span.End()

	if signals.TenantID != "" {
		t, err := s.lookup(ctx, signals.TenantID, func(ctx context.Context) (*types.Tenant, error) {
			return s.storage.GetTenantByID(ctx, signals.TenantID)
		})
		if err == nil {
			return t, MethodHeader, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, "", err
		}
	}

	if host := stripPort(signals.Host); host != "" {
		if labels := strings.Split(host, "."); len(labels) > 2 {
			subdomain := labels[0]
			t, err := s.lookup(ctx, subdomain, func(ctx context.Context) (*types.Tenant, error) {
				return s.storage.GetTenantBySubdomain(ctx, subdomain)
			})
			if err == nil {
				return t, MethodSubdomain, nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, "", err
			}
		}

		t, err := s.lookup(ctx, host, func(ctx context.Context) (*types.Tenant, error) {
			return s.storage.GetTenantByDomain(ctx, host)
		})
		if err == nil {
			return t, MethodDomain, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, "", err
		}
	}

	t, err := s.lookup(ctx, s.defaultTenantID, func(ctx context.Context) (*types.Tenant, error) {
		return s.storage.GetTenantByID(ctx, s.defaultTenantID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Errorf("default tenant %q is missing", s.defaultTenantID)
			return nil, "", ErrTenantNotFound
		}
		return nil, "", err
	}

	return t, MethodDefault, nil
}

func (s *Service) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "resolver.Service.CreateTenant")
	defer span.End()

	created, err := s.storage.CreateTenant(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	return created, nil
}

// SetTenantStatus transitions the tenant's lifecycle status and drops
// any cached lookups so deactivation takes effect immediately.
func (s *Service) SetTenantStatus(ctx context.Context, id, status string) error {
	ctx, span := s.tracer.Start(ctx, "resolver.Service.SetTenantStatus")
	defer span.End()

	t, err := s.storage.GetTenantByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}

	if err := s.storage.SetTenantStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to set tenant status: %w", err)
	}

	s.cache.Invalidate(tenantCacheKey(t.ID))
	s.cache.Invalidate(tenantCacheKey(t.Domain))
	if t.Subdomain != "" {
		s.cache.Invalidate(tenantCacheKey(t.Subdomain))
	}

	return nil
}

func (s *Service) lookup(ctx context.Context, value string, fetch func(context.Context) (*types.Tenant, error)) (*types.Tenant, error) {
	return cache.Fetch(ctx, s.cache, tenantCacheKey(value), s.cacheTTL, fetch)
}

func tenantCacheKey(value string) string {
	return "tenant:" + value
}

func stripPort(host string) string {
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
