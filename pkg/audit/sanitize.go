// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"strings"
)

// RedactionMarker replaces sensitive values in audit metadata.
const RedactionMarker = "[REDACTED]"

// sensitiveFields is the deny-list of metadata field names whose
// values never reach the audit store. Matching is by field name at any
// nesting depth, case-insensitive.
var sensitiveFields = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"passwordhash":  {},
	"old_password":  {},
	"new_password":  {},
	"secret":        {},
	"client_secret": {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"api_key":       {},
	"apikey":        {},
	"card_number":   {},
	"cardnumber":    {},
	"cvv":           {},
	"ssn":           {},
	"national_id":   {},
	"authorization": {},
}

// SanitizeMetadata returns a deep copy of meta with every sensitive
// field's value replaced by the redaction marker, at any depth.
func SanitizeMetadata(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}

	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if _, sensitive := sensitiveFields[strings.ToLower(k)]; sensitive {
			out[k] = RedactionMarker
			continue
		}
		out[k] = sanitizeValue(v)
	}

	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return SanitizeMetadata(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
