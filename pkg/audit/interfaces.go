// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/canonical/access-service/internal/types"
)

type RecorderInterface interface {
	Record(e *types.AuditEntry)
	Shutdown(ctx context.Context) error
}

type ServiceInterface interface {
	Query(ctx context.Context, filter types.AuditFilter) (*QueryResult, error)
}

type StorageInterface interface {
	InsertAuditEntry(ctx context.Context, e *types.AuditEntry) error
	SearchAuditEntries(ctx context.Context, filter types.AuditFilter) ([]*types.AuditEntry, error)
	CountAuditEntries(ctx context.Context, filter types.AuditFilter) (uint64, error)
}
