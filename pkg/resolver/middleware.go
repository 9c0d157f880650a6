// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
)

// TenantHeaderName is the explicit tenant override signal. Absence is
// normal, detection falls through to the host.
const TenantHeaderName = "X-Tenant-Id"

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

// ResolveTenant resolves the request's tenant and stores it in the
// context. Resolution failure is fatal to the request.
func (m *Middleware) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "resolver.Middleware.ResolveTenant")
		defer span.End()

		signals := Signals{
			TenantID: r.Header.Get(TenantHeaderName),
			Host:     r.Host,
		}

		tenant, method, err := m.service.Resolve(ctx, signals)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				m.errorResponse(w, http.StatusBadRequest, "tenant_not_found", "no tenant could be resolved for this request")
				return
			}
			m.logger.Errorf("tenant resolution failed: %v", err)
			m.errorResponse(w, http.StatusInternalServerError, "internal_error", "tenant resolution failed")
			return
		}

		ctx = WithTenant(ctx, tenant, method)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
