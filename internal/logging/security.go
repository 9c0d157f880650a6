// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// SecurityLogger emits structured security events on a dedicated named
// logger so they can be routed and retained independently of
// application logs.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", "system.startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", "system.shutdown"))
}

func (s *SecurityLogger) AccessDenied(userID, tenantID, resource, action, reason string) {
	s.l.Warn("access denied",
		zap.String("event", "access.denied"),
		zap.String("user_id", userID),
		zap.String("tenant_id", tenantID),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.String("reason", reason),
	)
}

func (s *SecurityLogger) AuditWriteFailure(tenantID, action string, err error) {
	s.l.Error("audit write failure",
		zap.String("event", "audit.write_failure"),
		zap.String("tenant_id", tenantID),
		zap.String("action", action),
		zap.Error(err),
	)
}
