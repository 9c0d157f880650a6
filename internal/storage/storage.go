// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/access-service/internal/db"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

const tenantColumns = "id, name, domain, subdomain, locale, currency, features, status, created_at, updated_at"

func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetTenantByID")
	defer span.End()

	return s.getTenant(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetTenantByDomain(ctx context.Context, domain string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetTenantByDomain")
	defer span.End()

	return s.getTenant(ctx, sq.Eq{"domain": domain, "status": types.TenantStatusActive})
}

func (s *Storage) GetTenantBySubdomain(ctx context.Context, subdomain string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetTenantBySubdomain")
	defer span.End()

	return s.getTenant(ctx, sq.Eq{"subdomain": subdomain, "status": types.TenantStatusActive})
}

func (s *Storage) getTenant(ctx context.Context, where sq.Eq) (*types.Tenant, error) {
	row := s.db.Statement(ctx).
		Select("id", "name", "domain", "subdomain", "locale", "currency", "features", "status", "created_at", "updated_at").
		From("tenants").
		Where(where).
		QueryRowContext(ctx)

	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return t, nil
}

func scanTenant(row sq.RowScanner) (*types.Tenant, error) {
	var (
		t         types.Tenant
		subdomain sql.NullString
		features  []byte
	)

	err := row.Scan(&t.ID, &t.Name, &t.Domain, &subdomain, &t.Locale, &t.Currency, &features, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Subdomain = subdomain.String
	if len(features) > 0 {
		if err := json.Unmarshal(features, &t.Features); err != nil {
			return nil, fmt.Errorf("failed to decode tenant features: %w", err)
		}
	}

	return &t, nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreateTenant")
	defer span.End()

	id := t.ID
	if id == "" {
		uid, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
		}
		id = uid.String()
	}

	status := t.Status
	if status == "" {
		status = types.TenantStatusActive
	}

	features, err := json.Marshal(t.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tenant features: %w", err)
	}

	var subdomain interface{}
	if t.Subdomain != "" {
		subdomain = t.Subdomain
	}

	row := s.db.Statement(ctx).
		Insert("tenants").
		Columns("id", "name", "domain", "subdomain", "locale", "currency", "features", "status").
		Values(id, t.Name, t.Domain, subdomain, t.Locale, t.Currency, features, status).
		Suffix("RETURNING " + tenantColumns).
		QueryRowContext(ctx)

	created, err := scanTenant(row)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return created, nil
}

// SetTenantStatus transitions a tenant between active and inactive.
// Tenants are never deleted, historical orders and audit entries keep
// referencing them.
func (s *Storage) SetTenantStatus(ctx context.Context, id, status string) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.SetTenantStatus")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("tenants").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update tenant status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) ListActiveRoleAssignmentsByUserID(ctx context.Context, userID string) ([]*types.RoleAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.ListActiveRoleAssignmentsByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "user_id", "tenant_id", "role", "email", "is_active", "created_at", "updated_at").
		From("role_assignments").
		Where(sq.Eq{"user_id": userID, "is_active": true}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*types.RoleAssignment
	for rows.Next() {
		var a types.RoleAssignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.TenantID, &a.Role, &a.Email, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return assignments, nil
}

// UpsertRoleAssignment inserts an assignment or, when one exists for
// the (user, tenant) pair, supersedes its role and reactivates it.
func (s *Storage) UpsertRoleAssignment(ctx context.Context, a *types.RoleAssignment) (*types.RoleAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.UpsertRoleAssignment")
	defer span.End()

	uid, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate assignment ID: %w", err)
	}

	var out types.RoleAssignment
	err = s.db.Statement(ctx).
		Insert("role_assignments").
		Columns("id", "user_id", "tenant_id", "role", "email", "is_active").
		Values(uid.String(), a.UserID, a.TenantID, a.Role, a.Email, true).
		Suffix(`ON CONFLICT (user_id, tenant_id) DO UPDATE
			SET role = EXCLUDED.role, email = EXCLUDED.email, is_active = true, updated_at = now()
			RETURNING id, user_id, tenant_id, role, email, is_active, created_at, updated_at`).
		QueryRowContext(ctx).
		Scan(&out.ID, &out.UserID, &out.TenantID, &out.Role, &out.Email, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to upsert role assignment: %w", err)
	}

	return &out, nil
}

func (s *Storage) SetRoleAssignmentActive(ctx context.Context, userID, tenantID string, active bool) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.SetRoleAssignmentActive")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("role_assignments").
		Set("is_active", active).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID, "tenant_id": tenantID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update role assignment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListEffectivePoliciesByRole returns the role's policies whose
// validity window covers now.
func (s *Storage) ListEffectivePoliciesByRole(ctx context.Context, role string, now time.Time) ([]*types.Policy, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.ListEffectivePoliciesByRole")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "role", "resource", "actions", "conditions", "effective_from", "effective_until").
		From("policies").
		Where(sq.Eq{"role": role}).
		Where(sq.LtOrEq{"effective_from": now}).
		Where(sq.Or{
			sq.Eq{"effective_until": nil},
			sq.Gt{"effective_until": now},
		}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*types.Policy
	for rows.Next() {
		var (
			p          types.Policy
			actions    []byte
			conditions []byte
			until      sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Role, &p.Resource, &actions, &conditions, &p.EffectiveFrom, &until); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}

		if err := json.Unmarshal(actions, &p.Actions); err != nil {
			return nil, fmt.Errorf("failed to decode policy actions: %w", err)
		}
		if p.Conditions, err = decodeConditions(conditions); err != nil {
			return nil, fmt.Errorf("failed to decode policy conditions: %w", err)
		}
		if until.Valid {
			p.EffectiveUntil = &until.Time
		}

		policies = append(policies, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return policies, nil
}

func (s *Storage) CreatePolicy(ctx context.Context, p *types.Policy) (*types.Policy, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreatePolicy")
	defer span.End()

	uid, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate policy ID: %w", err)
	}

	actions, err := json.Marshal(p.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy actions: %w", err)
	}

	conditions, err := encodeConditions(p.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy conditions: %w", err)
	}

	effectiveFrom := p.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now()
	}

	var until interface{}
	if p.EffectiveUntil != nil {
		until = *p.EffectiveUntil
	}

	created := *p
	created.ID = uid.String()
	created.EffectiveFrom = effectiveFrom

	_, err = s.db.Statement(ctx).
		Insert("policies").
		Columns("id", "role", "resource", "actions", "conditions", "effective_from", "effective_until").
		Values(uid.String(), p.Role, p.Resource, actions, conditions, effectiveFrom, until).
		ExecContext(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to insert policy: %w", err)
	}

	return &created, nil
}

// DeletePolicy removes a policy and returns the role it belonged to so
// callers can invalidate that role's cache entry.
func (s *Storage) DeletePolicy(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeletePolicy")
	defer span.End()

	var role string
	err := s.db.Statement(ctx).
		Delete("policies").
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING role").
		QueryRowContext(ctx).
		Scan(&role)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to delete policy: %w", err)
	}

	return role, nil
}

func (s *Storage) InsertAuditEntry(ctx context.Context, e *types.AuditEntry) error {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.InsertAuditEntry")
	defer span.End()

	uid, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate audit entry ID: %w", err)
	}

	var metadata interface{}
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
		metadata = b
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.Statement(ctx).
		Insert("audit_logs").
		Columns("id", "tenant_id", "user_id", "action", "resource", "resource_id", "ip_address", "user_agent", "metadata", "created_at").
		Values(uid.String(), e.TenantID, nullable(e.UserID), e.Action, e.Resource, nullable(e.ResourceID), nullable(e.IPAddress), nullable(e.UserAgent), metadata, createdAt).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

func (s *Storage) SearchAuditEntries(ctx context.Context, filter types.AuditFilter) ([]*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.SearchAuditEntries")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("id", "tenant_id", "user_id", "action", "resource", "resource_id", "ip_address", "user_agent", "metadata", "created_at").
		From("audit_logs")

	query = applyAuditFilter(query, filter).
		OrderBy("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*types.AuditEntry
	for rows.Next() {
		var (
			e          types.AuditEntry
			userID     sql.NullString
			resourceID sql.NullString
			ipAddress  sql.NullString
			userAgent  sql.NullString
			metadata   []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &userID, &e.Action, &e.Resource, &resourceID, &ipAddress, &userAgent, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		e.UserID = userID.String
		e.ResourceID = resourceID.String
		e.IPAddress = ipAddress.String
		e.UserAgent = userAgent.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

func (s *Storage) CountAuditEntries(ctx context.Context, filter types.AuditFilter) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CountAuditEntries")
	defer span.End()

	var count uint64
	err := applyAuditFilter(s.db.Statement(ctx).Select("COUNT(*)").From("audit_logs"), filter).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

func applyAuditFilter(query sq.SelectBuilder, filter types.AuditFilter) sq.SelectBuilder {
	query = query.Where(sq.Eq{"tenant_id": filter.TenantID})

	if filter.UserID != "" {
		query = query.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Resource != "" {
		query = query.Where(sq.Eq{"resource": filter.Resource})
	}
	if filter.Action != "" {
		query = query.Where(sq.Eq{"action": filter.Action})
	}
	if filter.From != nil {
		query = query.Where(sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(sq.LtOrEq{"created_at": *filter.To})
	}

	return query
}

// Conditions are stored as a flat JSON object of field to expected
// value, matching the administrative input format. They surface as
// tagged field_equals predicates.
func decodeConditions(raw []byte) ([]types.Condition, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var kv map[string]string
	if err := json.Unmarshal(raw, &kv); err != nil {
		return nil, err
	}

	conditions := make([]types.Condition, 0, len(kv))
	for field, value := range kv {
		conditions = append(conditions, types.Condition{
			Kind:  types.ConditionFieldEquals,
			Field: field,
			Value: value,
		})
	}

	sortConditions(conditions)
	return conditions, nil
}

func encodeConditions(conditions []types.Condition) (interface{}, error) {
	if len(conditions) == 0 {
		return nil, nil
	}

	kv := make(map[string]string, len(conditions))
	for _, c := range conditions {
		kv[c.Field] = c.Value
	}

	return json.Marshal(kv)
}

func sortConditions(conditions []types.Condition) {
	sort.Slice(conditions, func(i, j int) bool {
		return conditions[i].Field < conditions[j].Field
	})
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
