// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/access-service/internal/cache"
	"github.com/canonical/access-service/internal/storage"
	"github.com/canonical/access-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package resolver -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package resolver -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package resolver -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package resolver -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func newTestService(t *testing.T, ctrl *gomock.Controller) (*Service, *MockStorageInterface, *MockLoggerInterface) {
	t.Helper()

	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	c := cache.New(time.Minute)
	t.Cleanup(c.Shutdown)

	return NewService(mockStorage, c, "hq", time.Minute, mockTracer, mockMonitor, mockLogger), mockStorage, mockLogger
}

func TestService_Resolve(t *testing.T) {
	headerTenant := &types.Tenant{ID: "tenant-1", Name: "Tenant 1", Status: types.TenantStatusActive}
	subdomainTenant := &types.Tenant{ID: "tenant-2", Name: "Tenant 2", Subdomain: "acme", Status: types.TenantStatusActive}
	domainTenant := &types.Tenant{ID: "tenant-3", Name: "Tenant 3", Domain: "shop.example.com", Status: types.TenantStatusActive}
	defaultTenant := &types.Tenant{ID: "hq", Name: "HQ", Status: types.TenantStatusActive}
	dbErr := errors.New("connection refused")

	testCases := []struct {
		name           string
		signals        Signals
		setupMocks     func(*MockStorageInterface, *MockLoggerInterface)
		expectedTenant *types.Tenant
		expectedMethod Method
		expectedErr    error
	}{
		{
			name:    "explicit tenant ID wins",
			signals: Signals{TenantID: "tenant-1", Host: "acme.shop.example.com"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(headerTenant, nil)
			},
			expectedTenant: headerTenant,
			expectedMethod: MethodHeader,
		},
		{
			name:    "unknown tenant ID falls through to subdomain",
			signals: Signals{TenantID: "ghost", Host: "acme.shop.example.com"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantByID(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().GetTenantBySubdomain(gomock.Any(), "acme").Return(subdomainTenant, nil)
			},
			expectedTenant: subdomainTenant,
			expectedMethod: MethodSubdomain,
		},
		{
			name:    "subdomain detection strips the port",
			signals: Signals{Host: "acme.shop.example.com:8443"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantBySubdomain(gomock.Any(), "acme").Return(subdomainTenant, nil)
			},
			expectedTenant: subdomainTenant,
			expectedMethod: MethodSubdomain,
		},
		{
			name:    "two label host skips subdomain detection",
			signals: Signals{Host: "example.com"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantByDomain(gomock.Any(), "example.com").Return(domainTenant, nil)
			},
			expectedTenant: domainTenant,
			expectedMethod: MethodDomain,
		},
		{
			name:    "unknown subdomain falls through to domain",
			signals: Signals{Host: "acme.shop.example.com"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantBySubdomain(gomock.Any(), "acme").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().GetTenantByDomain(gomock.Any(), "acme.shop.example.com").Return(domainTenant, nil)
			},
			expectedTenant: domainTenant,
			expectedMethod: MethodDomain,
		},
		{
			name:    "no signals fall back to the default tenant",
			signals: Signals{},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantByID(gomock.Any(), "hq").Return(defaultTenant, nil)
			},
			expectedTenant: defaultTenant,
			expectedMethod: MethodDefault,
		},
		{
			name:    "unknown host falls back to the default tenant",
			signals: Signals{Host: "other.example.com"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantBySubdomain(gomock.Any(), "other").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().GetTenantByDomain(gomock.Any(), "other.example.com").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().GetTenantByID(gomock.Any(), "hq").Return(defaultTenant, nil)
			},
			expectedTenant: defaultTenant,
			expectedMethod: MethodDefault,
		},
		{
			name:    "missing default tenant is fatal",
			signals: Signals{},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantByID(gomock.Any(), "hq").Return(nil, storage.ErrNotFound)
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedErr: ErrTenantNotFound,
		},
		{
			name:    "storage errors propagate instead of falling through",
			signals: Signals{TenantID: "tenant-1"},
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockStorage, mockLogger := newTestService(t, ctrl)
			tc.setupMocks(mockStorage, mockLogger)

			tenant, method, err := s.Resolve(context.Background(), tc.signals)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tenant.ID != tc.expectedTenant.ID {
				t.Errorf("expected tenant %q, got %q", tc.expectedTenant.ID, tenant.ID)
			}
			if method != tc.expectedMethod {
				t.Errorf("expected method %q, got %q", tc.expectedMethod, method)
			}
		})
	}
}

func TestService_ResolveUsesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage, _ := newTestService(t, ctrl)

	tenant := &types.Tenant{ID: "tenant-1", Name: "Tenant 1", Status: types.TenantStatusActive}
	mockStorage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(tenant, nil).Times(1)

	for i := 0; i < 3; i++ {
		got, _, err := s.Resolve(context.Background(), Signals{TenantID: "tenant-1"})
		if err != nil {
			t.Fatalf("resolve %d failed: %v", i, err)
		}
		if got.ID != tenant.ID {
			t.Errorf("resolve %d: expected tenant %q, got %q", i, tenant.ID, got.ID)
		}
	}
}

func TestService_SetTenantStatusInvalidatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage, _ := newTestService(t, ctrl)

	tenant := &types.Tenant{ID: "tenant-1", Domain: "shop.example.com", Subdomain: "acme", Status: types.TenantStatusActive}

	// Prime the cache, then expect a second storage hit after the
	// status change dropped the cached entry.
	gomock.InOrder(
		mockStorage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(tenant, nil),
		mockStorage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(tenant, nil),
		mockStorage.EXPECT().SetTenantStatus(gomock.Any(), "tenant-1", types.TenantStatusInactive).Return(nil),
		mockStorage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(tenant, nil),
	)

	if _, _, err := s.Resolve(context.Background(), Signals{TenantID: "tenant-1"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if err := s.SetTenantStatus(context.Background(), "tenant-1", types.TenantStatusInactive); err != nil {
		t.Fatalf("set tenant status failed: %v", err)
	}

	if _, _, err := s.Resolve(context.Background(), Signals{TenantID: "tenant-1"}); err != nil {
		t.Fatalf("resolve after invalidation failed: %v", err)
	}
}

func TestService_SetTenantStatusUnknownTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage, _ := newTestService(t, ctrl)

	mockStorage.EXPECT().GetTenantByID(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	err := s.SetTenantStatus(context.Background(), "ghost", types.TenantStatusInactive)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected %v, got %v", storage.ErrNotFound, err)
	}
}

func TestService_CreateTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage, _ := newTestService(t, ctrl)

	input := &types.Tenant{Name: "New Tenant", Domain: "new.example.com"}
	created := &types.Tenant{ID: "tenant-9", Name: "New Tenant", Domain: "new.example.com", Status: types.TenantStatusActive}

	mockStorage.EXPECT().CreateTenant(gomock.Any(), input).Return(created, nil)

	got, err := s.CreateTenant(context.Background(), input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected tenant %q, got %q", created.ID, got.ID)
	}
}

func TestStripPort(t *testing.T) {
	for host, expected := range map[string]string{
		"":                      "",
		"example.com":           "example.com",
		"example.com:8080":      "example.com",
		"acme.example.com:443":  "acme.example.com",
		"acme.shop.example.com": "acme.shop.example.com",
	} {
		if got := stripPort(host); got != expected {
			t.Errorf("stripPort(%q) = %q, expected %q", host, got, expected)
		}
	}
}
