// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Wildcard matches any resource or action in a policy.
const Wildcard = "*"

// GlobalAdminRole carries an implicit cross-tenant grant.
const GlobalAdminRole = "GlobalAdmin"

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

type Tenant struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Domain    string          `db:"domain"`
	Subdomain string          `db:"subdomain"`
	Locale    string          `db:"locale"`
	Currency  string          `db:"currency"`
	Features  map[string]bool `db:"features"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}

// HasFeature reports whether a capability toggle is enabled for the
// tenant. Unknown features are off.
func (t *Tenant) HasFeature(name string) bool {
	return t.Features[name]
}

// RoleAssignment binds a user to a role within a tenant. Unique on
// (user, tenant): reassigning supersedes the role value.
type RoleAssignment struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TenantID  string    `db:"tenant_id"`
	Role      string    `db:"role"`
	Email     string    `db:"email"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	// ConditionFieldEquals requires the evaluation context to carry
	// the named field with exactly the given value.
	ConditionFieldEquals = "field_equals"
)

// Condition is a tagged predicate attached to a policy. All conditions
// on a policy must hold for the policy to match.
type Condition struct {
	Kind  string `json:"kind"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Policy grants a role a set of actions on a resource inside a
// validity window. Resource and actions may be the wildcard.
type Policy struct {
	ID             string      `db:"id"`
	Role           string      `db:"role"`
	Resource       string      `db:"resource"`
	Actions        []string    `db:"actions"`
	Conditions     []Condition `db:"conditions"`
	EffectiveFrom  time.Time   `db:"effective_from"`
	EffectiveUntil *time.Time  `db:"effective_until"`
}

// EffectiveAt reports whether the policy's validity window covers now.
func (p *Policy) EffectiveAt(now time.Time) bool {
	if now.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveUntil != nil && !now.Before(*p.EffectiveUntil) {
		return false
	}
	return true
}

// AuditEntry is an immutable record of a state-changing operation.
// UserID is empty for system actions.
type AuditEntry struct {
	ID         string                 `db:"id"`
	TenantID   string                 `db:"tenant_id"`
	UserID     string                 `db:"user_id"`
	Action     string                 `db:"action"`
	Resource   string                 `db:"resource"`
	ResourceID string                 `db:"resource_id"`
	IPAddress  string                 `db:"ip_address"`
	UserAgent  string                 `db:"user_agent"`
	Metadata   map[string]interface{} `db:"metadata"`
	CreatedAt  time.Time              `db:"created_at"`
}

// AuditFilter narrows an audit query. TenantID is mandatory.
type AuditFilter struct {
	TenantID string
	UserID   string
	Resource string
	Action   string
	From     *time.Time
	To       *time.Time
	Limit    uint64
	Offset   uint64
}
