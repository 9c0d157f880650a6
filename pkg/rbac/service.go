// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/canonical/access-service/internal/cache"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
)

// Decision is the outcome of a permission check. Reason is set on
// denials and is meant for humans, not for branching.
type Decision struct {
	Allowed bool
	Reason  string
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	cache    *cache.Cache
	cacheTTL time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	cache *cache.Cache,
	cacheTTL time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		cache:    cache,
		cacheTTL: cacheTTL,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// VerifyAccess decides whether userID may perform action on resource
// within tenantID. Roles are ORed, one qualifying role is enough.
// Role assignments are always read fresh, they may change mid-session.
func (s *Service) VerifyAccess(ctx context.Context, userID, tenantID, resource, action string, evalCtx map[string]string) (Decision, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.VerifyAccess")
	defer span.End()

	assignments, err := s.storage.ListActiveRoleAssignmentsByUserID(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load role assignments: %w", err)
	}

	if len(assignments) == 0 {
		return Decision{Reason: "no roles assigned"}, nil
	}

	if !tenantAccessible(assignments, tenantID) {
		return Decision{Reason: fmt.Sprintf("no access to tenant %s", tenantID)}, nil
	}

	for _, a := range assignments {
		granted, err := s.hasPermission(ctx, a.Role, resource, action, evalCtx)
		if err != nil {
			return Decision{}, err
		}
		if granted {
			return Decision{Allowed: true}, nil
		}
	}

	return Decision{Reason: fmt.Sprintf("not permitted to %s on %s", action, resource)}, nil
}

// tenantAccessible holds when any assignment is GlobalAdmin or is
// scoped to the requested tenant.
func tenantAccessible(assignments []*types.RoleAssignment, tenantID string) bool {
	for _, a := range assignments {
		if a.Role == types.GlobalAdminRole || a.TenantID == tenantID {
			return true
		}
	}
	return false
}

func (s *Service) hasPermission(ctx context.Context, role, resource, action string, evalCtx map[string]string) (bool, error) {
	if role == types.GlobalAdminRole {
		return true, nil
	}

	now := time.Now()
	policies, err := cache.Fetch(ctx, s.cache, policyCacheKey(role), s.cacheTTL, func(ctx context.Context) ([]*types.Policy, error) {
		return s.storage.ListEffectivePoliciesByRole(ctx, role, now)
	})
	if err != nil {
		return false, fmt.Errorf("failed to load policies for role %s: %w", role, err)
	}

	for _, p := range policies {
		// A cached set can outlive a policy's validity window, the
		// window is re-checked on every evaluation.
		if !p.EffectiveAt(now) {
			continue
		}
		if p.Resource != resource && p.Resource != types.Wildcard {
			continue
		}
		if !actionAllowed(p.Actions, action) {
			continue
		}
		// Unsatisfied conditions skip the policy, evaluation moves on
		// to the next candidate rather than denying outright.
		if !conditionsSatisfied(p.Conditions, evalCtx) {
			continue
		}
		return true, nil
	}

	return false, nil
}

func actionAllowed(actions []string, action string) bool {
	for _, a := range actions {
		if a == action || a == types.Wildcard {
			return true
		}
	}
	return false
}

func conditionsSatisfied(conditions []types.Condition, evalCtx map[string]string) bool {
	for _, c := range conditions {
		switch c.Kind {
		case types.ConditionFieldEquals:
			if evalCtx[c.Field] != c.Value {
				return false
			}
		default:
			// Unknown predicate kinds never match.
			return false
		}
	}
	return true
}

func (s *Service) CreatePolicy(ctx context.Context, p *types.Policy) (*types.Policy, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.CreatePolicy")
	defer span.End()

	created, err := s.storage.CreatePolicy(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	s.cache.Invalidate(policyCacheKey(created.Role))
	return created, nil
}

func (s *Service) DeletePolicy(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.DeletePolicy")
	defer span.End()

	role, err := s.storage.DeletePolicy(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	s.cache.Invalidate(policyCacheKey(role))
	return nil
}

func (s *Service) AssignRole(ctx context.Context, a *types.RoleAssignment) (*types.RoleAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.AssignRole")
	defer span.End()

	assigned, err := s.storage.UpsertRoleAssignment(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	s.cache.Invalidate(policyCacheKey(assigned.Role))
	return assigned, nil
}

func (s *Service) RevokeRole(ctx context.Context, userID, tenantID string) error {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.RevokeRole")
	defer span.End()

	if err := s.storage.SetRoleAssignmentActive(ctx, userID, tenantID, false); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	return nil
}

// FlushPolicyCache drops every cached policy set. Safe fallback when
// the affected roles are not known.
func (s *Service) FlushPolicyCache() {
	s.cache.InvalidatePrefix("policies:")
}

func policyCacheKey(role string) string {
	return "policies:" + role
}
