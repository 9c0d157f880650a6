// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package e2e

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canonical/access-service/internal/types"
	"github.com/canonical/access-service/pkg/audit"
	"github.com/canonical/access-service/pkg/rbac"
	"github.com/canonical/access-service/pkg/resolver"
)

func TestTenantLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	svc := resolver.NewService(e.storage, e.cache, "hq", time.Minute, e.tracer, e.monitor, e.logger)

	if _, err := svc.CreateTenant(ctx, &types.Tenant{ID: "hq", Name: "HQ"}); err != nil {
		t.Fatalf("failed to create default tenant: %v", err)
	}

	acme, err := svc.CreateTenant(ctx, &types.Tenant{
		Name:      "Acme Shop",
		Domain:    "shop.acme.com",
		Subdomain: "acme",
		Locale:    "en_US",
		Currency:  "USD",
		Features:  map[string]bool{"loyalty": true},
	})
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}
	if acme.ID == "" || !acme.Active() {
		t.Fatalf("unexpected created tenant: %+v", acme)
	}

	testCases := []struct {
		name           string
		signals        resolver.Signals
		expectedID     string
		expectedMethod resolver.Method
	}{
		{"by explicit ID", resolver.Signals{TenantID: acme.ID}, acme.ID, resolver.MethodHeader},
		{"by subdomain", resolver.Signals{Host: "acme.platform.example.com"}, acme.ID, resolver.MethodSubdomain},
		{"by domain", resolver.Signals{Host: "shop.acme.com"}, acme.ID, resolver.MethodDomain},
		{"default fallback", resolver.Signals{Host: "unknown.example.org"}, "hq", resolver.MethodDefault},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tenant, method, err := svc.Resolve(ctx, tc.signals)
			if err != nil {
				t.Fatalf("resolution failed: %v", err)
			}
			if tenant.ID != tc.expectedID {
				t.Errorf("expected tenant %q, got %q", tc.expectedID, tenant.ID)
			}
			if method != tc.expectedMethod {
				t.Errorf("expected method %q, got %q", tc.expectedMethod, method)
			}
		})
	}

	// Deactivation stops alias resolution immediately, the default
	// takes over.
	if err := svc.SetTenantStatus(ctx, acme.ID, types.TenantStatusInactive); err != nil {
		t.Fatalf("failed to deactivate tenant: %v", err)
	}

	tenant, method, err := svc.Resolve(ctx, resolver.Signals{Host: "shop.acme.com"})
	if err != nil {
		t.Fatalf("resolution after deactivation failed: %v", err)
	}
	if tenant.ID != "hq" || method != resolver.MethodDefault {
		t.Errorf("expected fallback to hq, got %q via %q", tenant.ID, method)
	}
}

func TestAccessControlFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resolverSvc := resolver.NewService(e.storage, e.cache, "hq", time.Minute, e.tracer, e.monitor, e.logger)
	rbacSvc := rbac.NewService(e.storage, e.cache, time.Minute, e.tracer, e.monitor, e.logger)

	tenant, err := resolverSvc.CreateTenant(ctx, &types.Tenant{Name: "Acme Shop", Domain: "shop.acme.com"})
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	decision, err := rbacSvc.VerifyAccess(ctx, "alice", tenant.ID, "orders", "read", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed || decision.Reason != "no roles assigned" {
		t.Fatalf("expected denial for user without roles, got %+v", decision)
	}

	if _, err := rbacSvc.AssignRole(ctx, &types.RoleAssignment{UserID: "alice", TenantID: tenant.ID, Role: "Editor", Email: "alice@example.com"}); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	decision, err = rbacSvc.VerifyAccess(ctx, "alice", tenant.ID, "orders", "read", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected denial before any policy exists, got %+v", decision)
	}

	policy, err := rbacSvc.CreatePolicy(ctx, &types.Policy{Role: "Editor", Resource: "orders", Actions: []string{"read", "update"}})
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}

	decision, err = rbacSvc.VerifyAccess(ctx, "alice", tenant.ID, "orders", "read", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected access with policy in place, got %+v", decision)
	}

	decision, err = rbacSvc.VerifyAccess(ctx, "alice", tenant.ID, "orders", "delete", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected denial for uncovered action, got %+v", decision)
	}

	// Policy deletion takes effect without waiting for TTL expiry.
	if err := rbacSvc.DeletePolicy(ctx, policy.ID); err != nil {
		t.Fatalf("failed to delete policy: %v", err)
	}

	decision, err = rbacSvc.VerifyAccess(ctx, "alice", tenant.ID, "orders", "read", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected denial after policy deletion, got %+v", decision)
	}

	// Revocation is visible on the next check, assignments skip the
	// cache entirely.
	if _, err := rbacSvc.CreatePolicy(ctx, &types.Policy{Role: "Editor", Resource: "orders", Actions: []string{types.Wildcard}}); err != nil {
		t.Fatalf("failed to recreate policy: %v", err)
	}
	if err := rbacSvc.RevokeRole(ctx, "alice", tenant.ID); err != nil {
		t.Fatalf("failed to revoke role: %v", err)
	}

	decision, err = rbacSvc.VerifyAccess(ctx, "alice", tenant.ID, "orders", "read", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed || decision.Reason != "no roles assigned" {
		t.Fatalf("expected denial after revocation, got %+v", decision)
	}
}

func TestGlobalAdminCrossTenant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resolverSvc := resolver.NewService(e.storage, e.cache, "hq", time.Minute, e.tracer, e.monitor, e.logger)
	rbacSvc := rbac.NewService(e.storage, e.cache, time.Minute, e.tracer, e.monitor, e.logger)

	home, err := resolverSvc.CreateTenant(ctx, &types.Tenant{Name: "Home"})
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}
	other, err := resolverSvc.CreateTenant(ctx, &types.Tenant{Name: "Other"})
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	if _, err := rbacSvc.AssignRole(ctx, &types.RoleAssignment{UserID: "root", TenantID: home.ID, Role: types.GlobalAdminRole}); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	decision, err := rbacSvc.VerifyAccess(ctx, "root", other.ID, "tenants", "manage", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected global admin to reach foreign tenants, got %+v", decision)
	}
}

func TestAuditTrail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resolverSvc := resolver.NewService(e.storage, e.cache, "hq", time.Minute, e.tracer, e.monitor, e.logger)
	auditSvc := audit.NewService(e.storage, e.tracer, e.monitor, e.logger)
	recorder := audit.NewRecorder(e.storage, 64, e.tracer, e.monitor, e.logger)

	tenant, err := resolverSvc.CreateTenant(ctx, &types.Tenant{Name: "Acme Shop"})
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	for i, action := range []string{"order.create", "order.update", "order.cancel"} {
		recorder.Record(&types.AuditEntry{
			TenantID:  tenant.ID,
			UserID:    "alice",
			Action:    action,
			Resource:  "orders",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Metadata:  map[string]interface{}{"password": "hunter2", "step": i},
		})
	}
	recorder.Record(&types.AuditEntry{TenantID: tenant.ID, Action: "tenant.update", Resource: "tenants"})

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := recorder.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("failed to drain recorder: %v", err)
	}

	result, err := auditSvc.Query(ctx, types.AuditFilter{TenantID: tenant.ID})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if result.Total != 4 {
		t.Fatalf("expected 4 entries, got %d", result.Total)
	}

	// Newest first.
	for i := 1; i < len(result.Entries); i++ {
		if result.Entries[i].CreatedAt.After(result.Entries[i-1].CreatedAt) {
			t.Errorf("entries out of order at %d: %v after %v", i, result.Entries[i].CreatedAt, result.Entries[i-1].CreatedAt)
		}
	}

	// Sensitive metadata never reaches the store.
	for _, entry := range result.Entries {
		if v, ok := entry.Metadata["password"]; ok && v != audit.RedactionMarker {
			t.Errorf("unredacted password in stored entry: %v", v)
		}
	}

	result, err = auditSvc.Query(ctx, types.AuditFilter{TenantID: tenant.ID, Resource: "orders", Action: "order.update"})
	if err != nil {
		t.Fatalf("filtered query failed: %v", err)
	}
	if result.Total != 1 || result.Entries[0].Action != "order.update" {
		t.Errorf("unexpected filtered result: total=%d", result.Total)
	}

	if _, err := auditSvc.Query(ctx, types.AuditFilter{}); !errors.Is(err, audit.ErrTenantRequired) {
		t.Errorf("expected %v for tenant-less query, got %v", audit.ErrTenantRequired, err)
	}
}
