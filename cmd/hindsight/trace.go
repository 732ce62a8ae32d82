// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hindsight-dev/hindsight/internal/store"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <type> <id>",
		Short: "Trace one entity's ancestry graph",
		Args:  cobra.ExactArgs(2),
		RunE:  runTrace,
	}

	cmd.Flags().StringP("tenant", "t", "", "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tenantID, _ := cmd.Flags().GetString("tenant")

	entityType, ok := store.ParseEntityType(args[0])
	if !ok {
		return fmt.Errorf("unknown entity type %q", args[0])
	}
	repo, ok := a.catalog.ByType(entityType)
	if !ok {
		return fmt.Errorf("unknown entity type %q", args[0])
	}
	entity, err := repo.Get(cmd.Context(), tenantID, args[1])
	if err != nil {
		return err
	}

	graphs, _, err := a.builder.Build(cmd.Context(), tenantID, []store.Entity{entity}, "")
	if err != nil {
		return err
	}
	if len(graphs) == 0 {
		return fmt.Errorf("%s %q not found", entityType, args[1])
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(graphs[0])
}
