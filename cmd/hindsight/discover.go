// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run relationship discovery for a tenant",
		Long:  "Classify every unanalyzed segment against the tenant's existing relationship graph and persist the discovered edges.",
		RunE:  runDiscover,
	}

	cmd.Flags().StringP("tenant", "t", "", "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tenantID, _ := cmd.Flags().GetString("tenant")

	report, err := a.engine.Run(cmd.Context(), tenantID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(),
		"processed=%d new_edges=%d grouped=%d singletons=%d failed=%d tokens=%d/%d\n",
		report.Processed, report.NewEdges, report.Grouped, report.Singletons,
		report.FailedClassifications, report.Usage.InputTokens, report.Usage.OutputTokens)
	return err
}
