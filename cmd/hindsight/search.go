// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge graph",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().StringP("tenant", "t", "", "tenant id (required)")
	cmd.Flags().Bool("json", false, "emit the full result as JSON")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tenantID, _ := cmd.Flags().GetString("tenant")
	query := strings.Join(args, " ")

	result, err := a.orchestrator.Search(cmd.Context(), query, tenantID)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := cmd.OutOrStdout()
	if result.Synopsis != "" {
		fmt.Fprintln(out, result.Synopsis)
		fmt.Fprintln(out)
	}
	for _, g := range result.Graphs {
		fmt.Fprintf(out, "%s %s\n", g.Source.Type, g.Source.Title)
		for _, n := range g.AncestryPath {
			fmt.Fprintf(out, "  via %s %s\n", n.Type, n.Title)
		}
		for _, rs := range g.RelatedSegments {
			fmt.Fprintf(out, "  %s %s %s\n", rs.Edge.Label, rs.Node.Type, rs.Node.Title)
		}
	}
	fmt.Fprintf(out, "\n%d nodes", len(result.Nodes))
	for kind, n := range result.Counts {
		fmt.Fprintf(out, " %s=%d", kind, n)
	}
	fmt.Fprintln(out)
	return nil
}
