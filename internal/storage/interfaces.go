// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/access-service/internal/types"
)

type StorageInterface interface {
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	GetTenantByDomain(ctx context.Context, domain string) (*types.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*types.Tenant, error)
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	SetTenantStatus(ctx context.Context, id, status string) error

	ListActiveRoleAssignmentsByUserID(ctx context.Context, userID string) ([]*types.RoleAssignment, error)
	UpsertRoleAssignment(ctx context.Context, a *types.RoleAssignment) (*types.RoleAssignment, error)
	SetRoleAssignmentActive(ctx context.Context, userID, tenantID string, active bool) error

	ListEffectivePoliciesByRole(ctx context.Context, role string, now time.Time) ([]*types.Policy, error)
	CreatePolicy(ctx context.Context, p *types.Policy) (*types.Policy, error)
	DeletePolicy(ctx context.Context, id string) (string, error)

	InsertAuditEntry(ctx context.Context, e *types.AuditEntry) error
	SearchAuditEntries(ctx context.Context, filter types.AuditFilter) ([]*types.AuditEntry, error)
	CountAuditEntries(ctx context.Context, filter types.AuditFilter) (uint64, error)
}
