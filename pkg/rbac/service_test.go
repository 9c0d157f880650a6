// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/access-service/internal/cache"
	"github.com/canonical/access-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package rbac -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package rbac -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package rbac -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package rbac -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func newTestService(t *testing.T, ctrl *gomock.Controller) (*Service, *MockStorageInterface) {
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

	return NewService(mockStorage, c, time.Minute, mockTracer, mockMonitor, mockLogger), mockStorage
}

func assignment(role, tenantID string) *types.RoleAssignment {
	return &types.RoleAssignment{UserID: "user-1", TenantID: tenantID, Role: role, IsActive: true}
}

func TestService_VerifyAccess(t *testing.T) {
	dbErr := errors.New("connection refused")

	testCases := []struct {
		name        string
		tenantID    string
		resource    string
		action      string
		evalCtx     map[string]string
		setupMocks  func(*MockStorageInterface)
		expected    Decision
		expectedErr error
	}{
		{
			name:     "no roles assigned",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "read",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(nil, nil)
			},
			expected: Decision{Reason: "no roles assigned"},
		},
		{
			name:     "no access to the requested tenant",
			tenantID: "tenant-2",
			resource: "orders",
			action:   "read",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
			},
			expected: Decision{Reason: "no access to tenant tenant-2"},
		},
		{
			name:     "global admin bypasses tenant scoping and policies",
			tenantID: "tenant-2",
			resource: "orders",
			action:   "delete",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment(types.GlobalAdminRole, "tenant-1")}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "exact resource and action match",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "read",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Viewer", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(
					[]*types.Policy{{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "wildcard resource matches any resource",
			tenantID: "tenant-1",
			resource: "invoices",
			action:   "read",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Auditor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Auditor", gomock.Any()).Return(
					[]*types.Policy{{Role: "Auditor", Resource: types.Wildcard, Actions: []string{"read"}}}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "wildcard action matches any action",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "delete",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
					[]*types.Policy{{Role: "Editor", Resource: "orders", Actions: []string{types.Wildcard}}}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "action not covered by any policy",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "delete",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Viewer", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(
					[]*types.Policy{{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}}, nil)
			},
			expected: Decision{Reason: "not permitted to delete on orders"},
		},
		{
			name:     "satisfied condition grants access",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "update",
			evalCtx:  map[string]string{"department": "sales"},
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
					[]*types.Policy{{
						Role:       "Editor",
						Resource:   "orders",
						Actions:    []string{"update"},
						Conditions: []types.Condition{{Kind: types.ConditionFieldEquals, Field: "department", Value: "sales"}},
					}}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "unsatisfied condition skips to the next policy",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "update",
			evalCtx:  map[string]string{"department": "support"},
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
					[]*types.Policy{
						{
							Role:       "Editor",
							Resource:   "orders",
							Actions:    []string{"update"},
							Conditions: []types.Condition{{Kind: types.ConditionFieldEquals, Field: "department", Value: "sales"}},
						},
						{Role: "Editor", Resource: "orders", Actions: []string{"update"}},
					}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "unsatisfied condition alone denies",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "update",
			evalCtx:  map[string]string{"department": "support"},
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
					[]*types.Policy{{
						Role:       "Editor",
						Resource:   "orders",
						Actions:    []string{"update"},
						Conditions: []types.Condition{{Kind: types.ConditionFieldEquals, Field: "department", Value: "sales"}},
					}}, nil)
			},
			expected: Decision{Reason: "not permitted to update on orders"},
		},
		{
			name:     "unknown condition kind never matches",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "update",
			evalCtx:  map[string]string{"department": "sales"},
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
					[]*types.Policy{{
						Role:       "Editor",
						Resource:   "orders",
						Actions:    []string{"update"},
						Conditions: []types.Condition{{Kind: "ip_in_range", Field: "ip", Value: "10.0.0.0/8"}},
					}}, nil)
			},
			expected: Decision{Reason: "not permitted to update on orders"},
		},
		{
			name:     "one qualifying role among several is enough",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "read",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{
						assignment("Billing", "tenant-1"),
						assignment("Viewer", "tenant-1"),
					}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Billing", gomock.Any()).Return(
					[]*types.Policy{{Role: "Billing", Resource: "invoices", Actions: []string{"read"}}}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(
					[]*types.Policy{{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}}, nil)
			},
			expected: Decision{Allowed: true},
		},
		{
			name:     "policy outside its validity window does not grant",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "update",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
					[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil)
				mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
					[]*types.Policy{{
						Role:          "Editor",
						Resource:      "orders",
						Actions:       []string{"update"},
						EffectiveFrom: time.Now().Add(time.Hour),
					}}, nil)
			},
			expected: Decision{Reason: "not permitted to update on orders"},
		},
		{
			name:     "assignment lookup failure propagates",
			tenantID: "tenant-1",
			resource: "orders",
			action:   "read",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, mockStorage := newTestService(t, ctrl)
			tc.setupMocks(mockStorage)

			decision, err := s.VerifyAccess(context.Background(), "user-1", tc.tenantID, tc.resource, tc.action, tc.evalCtx)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if decision != tc.expected {
				t.Errorf("expected decision %+v, got %+v", tc.expected, decision)
			}
		})
	}
}

func TestService_VerifyAccessCachesPolicies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	// Assignments are read fresh on every check, policies come from
	// the cache after the first load.
	mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
		[]*types.RoleAssignment{assignment("Viewer", "tenant-1")}, nil).Times(3)
	mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(
		[]*types.Policy{{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}}, nil).Times(1)

	for i := 0; i < 3; i++ {
		decision, err := s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "read", nil)
		if err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
		if !decision.Allowed {
			t.Errorf("check %d: expected allowed, got %+v", i, decision)
		}
	}
}

func TestService_VerifyAccessRechecksValidityOnCachedPolicies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	until := time.Now().Add(30 * time.Millisecond)
	mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
		[]*types.RoleAssignment{assignment("Editor", "tenant-1")}, nil).Times(2)
	mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
		[]*types.Policy{{Role: "Editor", Resource: "orders", Actions: []string{"update"}, EffectiveUntil: &until}}, nil).Times(1)

	decision, err := s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "update", nil)
	if err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected allowed within the validity window, got %+v", decision)
	}

	time.Sleep(50 * time.Millisecond)

	// The cached set still holds the policy, the expired window must
	// deny without a refetch.
	decision, err = s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "update", nil)
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if decision.Allowed {
		t.Error("expected denial after the validity window elapsed")
	}
}

func TestService_FlushPolicyCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(
		[]*types.RoleAssignment{
			assignment("Viewer", "tenant-1"),
			assignment("Editor", "tenant-1"),
		}, nil).Times(3)
	mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(
		[]*types.Policy{{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}}, nil).Times(2)
	mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Editor", gomock.Any()).Return(
		[]*types.Policy{{Role: "Editor", Resource: "products", Actions: []string{"update"}}}, nil).Times(2)

	// Two checks, one policy load per role.
	for i := 0; i < 2; i++ {
		if _, err := s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "delete", nil); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
	}

	s.FlushPolicyCache()

	// Every role's policy set is refetched after the flush.
	if _, err := s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "delete", nil); err != nil {
		t.Fatalf("check after flush failed: %v", err)
	}
}

func TestService_CreatePolicyInvalidatesRoleCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	viewerAssignments := []*types.RoleAssignment{assignment("Viewer", "tenant-1")}

	gomock.InOrder(
		mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(viewerAssignments, nil),
		mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(nil, nil),
		mockStorage.EXPECT().CreatePolicy(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *types.Policy) (*types.Policy, error) {
				created := *p
				created.ID = "policy-1"
				return &created, nil
			}),
		mockStorage.EXPECT().ListActiveRoleAssignmentsByUserID(gomock.Any(), "user-1").Return(viewerAssignments, nil),
		mockStorage.EXPECT().ListEffectivePoliciesByRole(gomock.Any(), "Viewer", gomock.Any()).Return(
			[]*types.Policy{{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}}, nil),
	)

	decision, err := s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "read", nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected denial before the policy exists")
	}

	if _, err := s.CreatePolicy(context.Background(), &types.Policy{Role: "Viewer", Resource: "orders", Actions: []string{"read"}}); err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	decision, err = s.VerifyAccess(context.Background(), "user-1", "tenant-1", "orders", "read", nil)
	if err != nil {
		t.Fatalf("check after create failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected access after policy creation, got %+v", decision)
	}
}

func TestService_DeletePolicyInvalidatesRoleCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	mockStorage.EXPECT().DeletePolicy(gomock.Any(), "policy-1").Return("Viewer", nil)

	if err := s.DeletePolicy(context.Background(), "policy-1"); err != nil {
		t.Fatalf("delete policy failed: %v", err)
	}
}

func TestService_AssignRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	input := &types.RoleAssignment{UserID: "user-1", TenantID: "tenant-1", Role: "Editor"}
	upserted := &types.RoleAssignment{ID: "assignment-1", UserID: "user-1", TenantID: "tenant-1", Role: "Editor", IsActive: true}

	mockStorage.EXPECT().UpsertRoleAssignment(gomock.Any(), input).Return(upserted, nil)

	got, err := s.AssignRole(context.Background(), input)
	if err != nil {
		t.Fatalf("assign role failed: %v", err)
	}
	if got.ID != upserted.ID {
		t.Errorf("expected assignment %q, got %q", upserted.ID, got.ID)
	}
}

func TestService_RevokeRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockStorage := newTestService(t, ctrl)

	mockStorage.EXPECT().SetRoleAssignmentActive(gomock.Any(), "user-1", "tenant-1", false).Return(nil)

	if err := s.RevokeRole(context.Background(), "user-1", "tenant-1"); err != nil {
		t.Fatalf("revoke role failed: %v", err)
	}
}
