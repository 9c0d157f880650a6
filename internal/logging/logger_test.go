// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			l := NewLogger(level)
			if l.Security() == nil {
				t.Error("expected security logger to be initialised")
			}
		})
	}
}

func TestNewLoggerInvalidLevelFallsBack(t *testing.T) {
	l := NewLogger("not-a-level")
	if l == nil {
		t.Fatal("expected logger for invalid level")
	}
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Infof("dropped %s", "message")
	l.Security().SystemStartup()
	if err := l.Sync(); err != nil {
		t.Errorf("unexpected sync error: %v", err)
	}
}
