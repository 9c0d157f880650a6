// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"time"

	"github.com/canonical/access-service/internal/types"
)

type ServiceInterface interface {
	VerifyAccess(ctx context.Context, userID, tenantID, resource, action string, evalCtx map[string]string) (Decision, error)

	CreatePolicy(ctx context.Context, p *types.Policy) (*types.Policy, error)
	DeletePolicy(ctx context.Context, id string) error
	AssignRole(ctx context.Context, a *types.RoleAssignment) (*types.RoleAssignment, error)
	RevokeRole(ctx context.Context, userID, tenantID string) error
	FlushPolicyCache()
}

type StorageInterface interface {
	ListActiveRoleAssignmentsByUserID(ctx context.Context, userID string) ([]*types.RoleAssignment, error)
	ListEffectivePoliciesByRole(ctx context.Context, role string, now time.Time) ([]*types.Policy, error)
	CreatePolicy(ctx context.Context, p *types.Policy) (*types.Policy, error)
	DeletePolicy(ctx context.Context, id string) (string, error)
	UpsertRoleAssignment(ctx context.Context, a *types.RoleAssignment) (*types.RoleAssignment, error)
	SetRoleAssignmentActive(ctx context.Context, userID, tenantID string, active bool) error
}
