// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
)

// ErrTenantRequired rejects audit queries without a tenant scope.
var ErrTenantRequired = errors.New("audit queries require a tenant")

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// QueryResult carries a page of audit entries newest-first, the total
// match count and the effective pagination parameters.
type QueryResult struct {
	Entries []*types.AuditEntry
	Total   uint64
	Limit   uint64
	Offset  uint64
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (s *Service) Query(ctx context.Context, filter types.AuditFilter) (*QueryResult, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Query")
	defer span.End()

	if filter.TenantID == "" {
		return nil, ErrTenantRequired
	}

	if filter.Limit == 0 {
		filter.Limit = defaultQueryLimit
	}
	if filter.Limit > maxQueryLimit {
		filter.Limit = maxQueryLimit
	}

	entries, err := s.storage.SearchAuditEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit entries: %w", err)
	}

	total, err := s.storage.CountAuditEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return &QueryResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
