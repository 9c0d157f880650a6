// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/access-service/internal/identity"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/types"
	"github.com/canonical/access-service/pkg/resolver"
)

func newTestMiddleware(t *testing.T, ctrl *gomock.Controller) (*Middleware, *MockServiceInterface, *MockLoggerInterface) {
	t.Helper()

	mockService := NewMockServiceInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	return NewMiddleware(mockService, mockTracer, mockMonitor, mockLogger), mockService, mockLogger
}

func guardedRequest(withUser, withTenant bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v0/audit", nil)
	ctx := req.Context()
	if withUser {
		ctx = identity.WithUserID(ctx, "user-1")
	}
	if withTenant {
		ctx = resolver.WithTenant(ctx, &types.Tenant{ID: "tenant-1", Status: types.TenantStatusActive}, resolver.MethodHeader)
	}
	return req.WithContext(ctx)
}

func TestMiddleware_RequirePermissionAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mdw, mockService, _ := newTestMiddleware(t, ctrl)

	mockService.EXPECT().VerifyAccess(gomock.Any(), "user-1", "tenant-1", "audit", "read", gomock.Nil()).Return(Decision{Allowed: true}, nil)

	nextCalled := false
	handler := mdw.RequirePermission("audit", "read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, guardedRequest(true, true))

	if !nextCalled {
		t.Error("expected next handler to run")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestMiddleware_RequirePermissionMissingIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mdw, _, _ := newTestMiddleware(t, ctrl)

	handler := mdw.RequirePermission("audit", "read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, guardedRequest(false, true))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != identity.ErrNoAuthContext.Error() {
		t.Errorf("expected message %q, got %q", identity.ErrNoAuthContext.Error(), body["message"])
	}
}

func TestMiddleware_RequirePermissionMissingTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mdw, _, _ := newTestMiddleware(t, ctrl)

	handler := mdw.RequirePermission("audit", "read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, guardedRequest(true, false))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "tenant_not_resolved" {
		t.Errorf("expected error code tenant_not_resolved, got %q", body["error"])
	}
}

func TestMiddleware_RequirePermissionDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mdw, mockService, mockLogger := newTestMiddleware(t, ctrl)

	mockService.EXPECT().VerifyAccess(gomock.Any(), "user-1", "tenant-1", "audit", "read", gomock.Nil()).Return(
		Decision{Reason: "no roles assigned"}, nil)
	mockLogger.EXPECT().Security().Return(logging.NewNoopLogger().Security())

	handler := mdw.RequirePermission("audit", "read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, guardedRequest(true, true))

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}

	var body denialResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "permission_denied" {
		t.Errorf("expected error code permission_denied, got %q", body.Error)
	}
	if body.Resource != "audit" || body.Action != "read" {
		t.Errorf("expected denied resource/action echoed back, got %+v", body)
	}
	if body.Reason != "no roles assigned" {
		t.Errorf("expected reason %q, got %q", "no roles assigned", body.Reason)
	}
}

func TestMiddleware_RequirePermissionCheckFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mdw, mockService, mockLogger := newTestMiddleware(t, ctrl)

	mockService.EXPECT().VerifyAccess(gomock.Any(), "user-1", "tenant-1", "audit", "read", gomock.Nil()).Return(
		Decision{}, errors.New("connection refused"))
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())

	handler := mdw.RequirePermission("audit", "read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, guardedRequest(true, true))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}
