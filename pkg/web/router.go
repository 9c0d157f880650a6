// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/canonical/access-service/internal/identity"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/pkg/audit"
	"github.com/canonical/access-service/pkg/metrics"
	"github.com/canonical/access-service/pkg/rbac"
	"github.com/canonical/access-service/pkg/resolver"
	"github.com/canonical/access-service/pkg/status"
	"github.com/canonical/access-service/pkg/tenant"
)

func NewRouter(
	resolverMdw *resolver.Middleware,
	identityMdw *identity.Middleware,
	rbacMdw *rbac.Middleware,
	auditAPI *audit.API,
	tenantAPI *tenant.API,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	router.Use(
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
	)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	// Tenant scoped surface: identity and tenant context first, then
	// the per-route permission guard.
	router.Group(func(r chi.Router) {
		r.Use(identityMdw.HTTPMiddleware)
		r.Use(resolverMdw.ResolveTenant)
		r.Use(rbacMdw.RequirePermission("audit", "read"))

		auditAPI.RegisterEndpoints(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(identityMdw.HTTPMiddleware)
		r.Use(resolverMdw.ResolveTenant)
		r.Use(rbacMdw.RequirePermission("tenants", "manage"))

		tenantAPI.RegisterEndpoints(r)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(
		cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", resolver.TenantHeaderName, identity.HeaderName},
			MaxAge:         300,
		},
	)
}
