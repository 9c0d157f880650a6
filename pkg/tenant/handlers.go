// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/access-service/internal/identity"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/storage"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
	"github.com/canonical/access-service/pkg/audit"
	"github.com/canonical/access-service/pkg/resolver"
)

type API struct {
	service  ServiceInterface
	recorder audit.RecorderInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, recorder audit.RecorderInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.recorder = recorder
	a.validate = validator.New()

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/v0/tenants", a.handleCreate)
	mux.Patch("/api/v0/tenants/{id}/status", a.handleSetStatus)
}

type createRequest struct {
	Name      string          `json:"name" validate:"required,max=255"`
	Domain    string          `json:"domain" validate:"omitempty,fqdn"`
	Subdomain string          `json:"subdomain" validate:"omitempty,hostname"`
	Locale    string          `json:"locale" validate:"omitempty,bcp47_language_tag"`
	Currency  string          `json:"currency" validate:"omitempty,iso4217"`
	Features  map[string]bool `json:"features"`
}

type tenantResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain,omitempty"`
	Subdomain string          `json:"subdomain,omitempty"`
	Locale    string          `json:"locale"`
	Currency  string          `json:"currency"`
	Features  map[string]bool `json:"features,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.handleCreate")
	defer span.End()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}

	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	created, err := a.service.CreateTenant(ctx, &types.Tenant{
		Name:      req.Name,
		Domain:    req.Domain,
		Subdomain: req.Subdomain,
		Locale:    req.Locale,
		Currency:  req.Currency,
		Features:  req.Features,
	})
	if err != nil {
		if storage.IsDuplicateKeyError(err) {
			a.writeError(w, http.StatusConflict, "conflict", "tenant domain or subdomain already in use")
			return
		}

		a.logger.Errorf("tenant creation failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal_error", "tenant creation failed")
		return
	}

	a.recordAudit(ctx, r, "tenant_created", created.ID, map[string]interface{}{
		"name":   created.Name,
		"domain": created.Domain,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tenantResponse{
		ID:        created.ID,
		Name:      created.Name,
		Domain:    created.Domain,
		Subdomain: created.Subdomain,
		Locale:    created.Locale,
		Currency:  created.Currency,
		Features:  created.Features,
		Status:    created.Status,
		CreatedAt: created.CreatedAt,
	})
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (a *API) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tenant.API.handleSetStatus")
	defer span.End()

	id := chi.URLParam(r, "id")

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}

	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := a.service.SetTenantStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.writeError(w, http.StatusNotFound, "not_found", "tenant not found")
			return
		}

		a.logger.Errorf("tenant status update failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal_error", "tenant status update failed")
		return
	}

	a.recordAudit(ctx, r, "tenant_status_changed", id, map[string]interface{}{
		"status": req.Status,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "status": req.Status})
}

// recordAudit enqueues the audit trail entry for a completed mutation.
// Best effort, runs after the storage write has succeeded.
func (a *API) recordAudit(ctx context.Context, r *http.Request, action, resourceID string, metadata map[string]interface{}) {
	tenant, _, ok := resolver.TenantFromContext(ctx)
	if !ok {
		return
	}

	userID, _ := identity.UserIDFromContext(ctx)

	a.recorder.Record(&types.AuditEntry{
		TenantID:   tenant.ID,
		UserID:     userID,
		Action:     action,
		Resource:   "tenant",
		ResourceID: resourceID,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
		Metadata:   metadata,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (a *API) writeError(w http.ResponseWriter, code int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
