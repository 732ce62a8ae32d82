// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hindsight-dev/hindsight/internal/config"
	"github.com/hindsight-dev/hindsight/internal/store/sqlite"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config and initialize the database",
		RunE:  runInit,
	}

	cmd.Flags().String("path", "", "write config to this path instead of the default location")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfgPath, _ := cmd.Flags().GetString("path")
	if cfgPath == "" {
		written := config.BootstrapConfig()
		if written == "" {
			existing, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "config already exists at %s\n", existing)
			cfgPath = existing
		} else {
			fmt.Fprintf(out, "wrote default config to %s\n", written)
			cfgPath = written
		}
	} else {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing config at %s", cfgPath)
		}
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
			return err
		}
		if err := os.WriteFile(cfgPath, config.DefaultConfigYAML, 0o600); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote default config to %s\n", cfgPath)
	}

	// Sanity-check the file round-trips as YAML before loading it.
	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config at %s is not valid YAML: %w", cfgPath, err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	st, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer st.Close()

	fmt.Fprintf(out, "initialized database at %s\n", cfg.Storage.Path)
	return nil
}
