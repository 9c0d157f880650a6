// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonical/access-service/internal/identity"
	"github.com/canonical/access-service/pkg/resolver"
)

// auditCmd queries the audit trail over the HTTP API.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
	Long:  `Query audit entries for a tenant through the running service.`,
	RunE:  runAuditList,
}

func init() {
	auditCmd.Flags().String("audit-user", "", "Filter by acting user ID")
	auditCmd.Flags().String("resource", "", "Filter by resource kind")
	auditCmd.Flags().String("action", "", "Filter by action kind")
	auditCmd.Flags().Uint64("limit", 0, "Page size")
	auditCmd.Flags().Uint64("offset", 0, "Page offset")

	rootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	endpoint := strings.TrimSuffix(httpEndpoint, "/")
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "http://" + endpoint
	}

	query := url.Values{}
	for flag, param := range map[string]string{
		"audit-user": "user_id",
		"resource":   "resource",
		"action":     "action",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			query.Set(param, v)
		}
	}
	if v, _ := cmd.Flags().GetUint64("limit"); v > 0 {
		query.Set("limit", fmt.Sprintf("%d", v))
	}
	if v, _ := cmd.Flags().GetUint64("offset"); v > 0 {
		query.Set("offset", fmt.Sprintf("%d", v))
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint+"/api/v0/audit?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	if userID != "" {
		req.Header.Set(identity.HeaderName, userID)
	}
	if tenantID != "" {
		req.Header.Set(resolver.TenantHeaderName, tenantID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	cmd.Println(string(body))
	return nil
}
