// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	// DefaultTenantID is the headquarters tenant every request falls
	// back to when no detection signal matches.
	DefaultTenantID string `envconfig:"default_tenant_id" default:"hq"`

	TenantCacheTTL       time.Duration `envconfig:"tenant_cache_ttl" default:"5m"`
	PolicyCacheTTL       time.Duration `envconfig:"policy_cache_ttl" default:"5m"`
	CacheJanitorInterval time.Duration `envconfig:"cache_janitor_interval" default:"1m"`

	AuditQueueSize int `envconfig:"audit_queue_size" default:"1024"`
}
