// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"errors"
)

// ErrNoAuthContext is returned when an operation requires a caller
// identity and none was injected upstream.
var ErrNoAuthContext = errors.New("no authenticated user in context")

// Private custom type to avoid collisions
type contextKey struct{}

var userContextKey = contextKey{}

// WithUserID returns a new context with the given user ID derived from the parent context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserIDFromContext retrieves the user ID from the context.
// Returns an empty string and false if the user ID is not present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userContextKey).(string)
	return id, ok && id != ""
}

// RequireUserID retrieves the user ID from the context, returning
// ErrNoAuthContext when none was injected upstream.
func RequireUserID(ctx context.Context) (string, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return "", ErrNoAuthContext
	}
	return id, nil
}
