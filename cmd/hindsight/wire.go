// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hindsight-dev/hindsight/internal/config"
	"github.com/hindsight-dev/hindsight/internal/discovery"
	"github.com/hindsight-dev/hindsight/internal/graph"
	"github.com/hindsight-dev/hindsight/internal/oracle"
	"github.com/hindsight-dev/hindsight/internal/oracle/anthropic"
	"github.com/hindsight-dev/hindsight/internal/oracle/openai"
	"github.com/hindsight-dev/hindsight/internal/search"
	"github.com/hindsight-dev/hindsight/internal/store"
	"github.com/hindsight-dev/hindsight/internal/store/sqlite"
)

// app bundles the wired subsystems a command needs. Close releases the
// store.
type app struct {
	cfg          *config.Config
	store        *sqlite.Store
	catalog      *store.Catalog
	suite        oracle.Suite
	resolver     *graph.Resolver
	builder      *graph.Builder
	engine       *discovery.Engine
	orchestrator *search.Orchestrator
	logger       *slog.Logger
}

// buildApp loads configuration and wires every subsystem behind it.
func buildApp(cmd *cobra.Command) (*app, error) {
	cfgPath := configPath(cmd)
	config.WarnInsecurePermissions(cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.Default()

	st, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	suite, err := buildOracle(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	catalog := st.Catalog()
	resolver := graph.NewResolver(catalog, st.Relationships(), logger)
	builder := graph.NewBuilder(resolver, catalog, st.Relationships(), suite, logger)
	engine := discovery.NewEngine(st.Segments(), st.Relationships(), suite, logger)
	orchestrator := search.NewOrchestrator(catalog, suite, suite, builder, cfg.Search.Limit, logger)

	return &app{
		cfg:          cfg,
		store:        st,
		catalog:      catalog,
		suite:        suite,
		resolver:     resolver,
		builder:      builder,
		engine:       engine,
		orchestrator: orchestrator,
		logger:       logger,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildOracle(cfg *config.Config) (oracle.Suite, error) {
	backend := cfg.OracleBackend()
	switch cfg.Oracle.Backend {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:        backend.APIKey,
			BaseURL:       backend.BaseURL,
			Model:         backend.Model,
			RelationTypes: cfg.Oracle.RelationTypes,
		})
	default:
		return openai.New(openai.Config{
			APIKey:        backend.APIKey,
			BaseURL:       backend.BaseURL,
			Model:         backend.Model,
			RelationTypes: cfg.Oracle.RelationTypes,
		})
	}
}
