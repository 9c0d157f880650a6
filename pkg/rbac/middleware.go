// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/access-service/internal/identity"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/pkg/resolver"
)

type Middleware struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		service: service,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// denialResponse is the structured permission failure of the API. The
// 403 with resource and action distinguishes it from a 401 missing
// identity and from a 400 tenant resolution failure.
type denialResponse struct {
	Error    string `json:"error"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

// RequirePermission guards an endpoint with a permission check against
// the resolved tenant and the authenticated user.
func (m *Middleware) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "rbac.Middleware.RequirePermission")
			defer span.End()

			userID, err := identity.RequireUserID(ctx)
			if errors.Is(err, identity.ErrNoAuthContext) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "unauthenticated",
					"message": err.Error(),
				})
				return
			}

			tenant, _, ok := resolver.TenantFromContext(ctx)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "tenant_not_resolved",
					"message": "no tenant context for this request",
				})
				return
			}

			decision, err := m.service.VerifyAccess(ctx, userID, tenant.ID, resource, action, nil)
			if err != nil {
				m.logger.Errorf("permission check failed: %v", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "internal_error",
					"message": "permission check failed",
				})
				return
			}

			if !decision.Allowed {
				m.logger.Security().AccessDenied(userID, tenant.ID, resource, action, decision.Reason)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(denialResponse{
					Error:    "permission_denied",
					Resource: resource,
					Action:   action,
					Reason:   decision.Reason,
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
