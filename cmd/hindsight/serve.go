// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hindsight-dev/hindsight/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hindsight HTTP server",
		Long:  "Load configuration, open the store, and serve the search, ancestry, and discovery API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	listen := a.cfg.Server.Listen
	if flagListen, _ := cmd.Flags().GetString("listen"); flagListen != "" {
		listen = flagListen
	}

	srv, err := server.New(server.Config{
		ListenAddr:  listen,
		CORSOrigins: a.cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return err
	}
	srv.RegisterServices(&server.Services{
		Catalog:   a.catalog,
		Search:    a.orchestrator,
		Builder:   a.builder,
		Discovery: a.engine,
		Logger:    a.logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("hindsight listening", "addr", listen)
	return srv.Start(ctx)
}
