// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"context"

	"github.com/canonical/access-service/internal/types"
)

type tenantContextKey struct{}

type tenantContext struct {
	tenant *types.Tenant
	method Method
}

// WithTenant returns a new context carrying the resolved tenant and
// the detection method that produced it.
func WithTenant(ctx context.Context, tenant *types.Tenant, method Method) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantContext{tenant: tenant, method: method})
}

// TenantFromContext retrieves the resolved tenant from the context.
func TenantFromContext(ctx context.Context) (*types.Tenant, Method, bool) {
	tc, ok := ctx.Value(tenantContextKey{}).(tenantContext)
	if !ok {
		return nil, "", false
	}
	return tc.tenant, tc.method, true
}
