// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
	"github.com/canonical/access-service/pkg/resolver"
)

type API struct {
	service  ServiceInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.validate = validator.New()

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/audit", a.handleList)
}

type listParams struct {
	UserID   string `validate:"omitempty,max=255"`
	Resource string `validate:"omitempty,max=255"`
	Action   string `validate:"omitempty,max=255"`
	Limit    uint64 `validate:"lte=500"`
	Offset   uint64
}

type entryResponse struct {
	ID         string                 `json:"id"`
	TenantID   string                 `json:"tenant_id"`
	UserID     string                 `json:"user_id,omitempty"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type listResponse struct {
	Data   []entryResponse `json:"data"`
	Count  uint64          `json:"count"`
	Limit  uint64          `json:"limit"`
	Offset uint64          `json:"offset"`
}

// handleList serves the audit query endpoint. The tenant scope always
// comes from the resolved request context, never from a query param.
func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "audit.API.handleList")
	defer span.End()

	tenant, _, ok := resolver.TenantFromContext(ctx)
	if !ok {
		a.badRequest(w, "no tenant context for this request")
		return
	}

	q := r.URL.Query()

	params := listParams{
		UserID:   q.Get("user_id"),
		Resource: q.Get("resource"),
		Action:   q.Get("action"),
	}

	var err error
	if params.Limit, err = parseUint(q.Get("limit")); err != nil {
		a.badRequest(w, "invalid limit")
		return
	}
	if params.Offset, err = parseUint(q.Get("offset")); err != nil {
		a.badRequest(w, "invalid offset")
		return
	}

	if err := a.validate.Struct(params); err != nil {
		a.badRequest(w, err.Error())
		return
	}

	filter := types.AuditFilter{
		TenantID: tenant.ID,
		UserID:   params.UserID,
		Resource: params.Resource,
		Action:   params.Action,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}

	if filter.From, err = parseTime(q.Get("from")); err != nil {
		a.badRequest(w, "invalid from timestamp, want RFC3339")
		return
	}
	if filter.To, err = parseTime(q.Get("to")); err != nil {
		a.badRequest(w, "invalid to timestamp, want RFC3339")
		return
	}

	result, err := a.service.Query(ctx, filter)
	if err != nil {
		a.logger.Errorf("audit query failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal_error", "message": "audit query failed"})
		return
	}

	data := make([]entryResponse, len(result.Entries))
	for i, e := range result.Entries {
		data[i] = entryResponse{
			ID:         e.ID,
			TenantID:   e.TenantID,
			UserID:     e.UserID,
			Action:     e.Action,
			Resource:   e.Resource,
			ResourceID: e.ResourceID,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(listResponse{
		Data:   data,
		Count:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	})
}

func (a *API) badRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_request", "message": message})
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
