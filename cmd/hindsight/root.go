// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root hindsight command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hindsight",
		Short:         "Hindsight, a conversation knowledge graph engine",
		Long:          "Hindsight indexes conversations into a tenant-scoped knowledge graph and answers questions by tracing each result back through its ancestry.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newSearchCmd(),
		newTraceCmd(),
		newDiscoverCmd(),
		newVersionCmd(),
	)

	return root
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// configPath resolves the config file to load: the --config flag if set,
// otherwise the first of ./hindsight.yaml and
// ~/.config/hindsight/hindsight.yaml that exists. Empty means defaults and
// environment only.
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	candidates := []string{"hindsight.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "hindsight", "hindsight.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
