// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hindsight-dev/hindsight/internal/discovery"
	"github.com/hindsight-dev/hindsight/internal/graph"
	"github.com/hindsight-dev/hindsight/internal/search"
	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Services carries the domain dependencies the route handlers need.
type Services struct {
	Catalog   *store.Catalog
	Search    *search.Orchestrator
	Builder   *graph.Builder
	Discovery *discovery.Engine
	Logger    *slog.Logger
}

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search the knowledge graph",
		Tags:        []string{"search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "trace-ancestry",
		Method:      http.MethodGet,
		Path:        "/api/v1/ancestry/{type}/{id}",
		Summary:     "Trace one entity's ancestry graph",
		Tags:        []string{"ancestry"},
	}, s.handleTraceAncestry)

	huma.Register(s.api, huma.Operation{
		OperationID: "run-discovery",
		Method:      http.MethodPost,
		Path:        "/api/v1/discovery/run",
		Summary:     "Run relationship discovery for a tenant",
		Tags:        []string{"discovery"},
	}, s.handleRunDiscovery)
}

// --- Request/Response types for huma ---

type searchInput struct {
	Body struct {
		Query    string `json:"query" minLength:"1" doc:"Natural-language question"`
		TenantID string `json:"tenant_id" minLength:"1" doc:"Tenant scope"`
	}
}
type searchOutput struct {
	Body search.Result
}

type traceAncestryInput struct {
	Type     string `path:"type" doc:"Entity type, e.g. Segment or Task"`
	ID       string `path:"id" doc:"Entity id"`
	TenantID string `query:"tenant_id" required:"true" doc:"Tenant scope"`
}
type traceAncestryOutput struct {
	Body graph.HitGraph
}

type runDiscoveryInput struct {
	Body struct {
		TenantID string `json:"tenant_id" minLength:"1" doc:"Tenant scope"`
	}
}
type runDiscoveryOutput struct {
	Body discovery.Report
}

// --- Handlers ---

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	result, err := s.services.Search.Search(ctx, input.Body.Query, input.Body.TenantID)
	if err != nil {
		return nil, s.apiError(err, "search failed")
	}
	return &searchOutput{Body: *result}, nil
}

func (s *Server) handleTraceAncestry(ctx context.Context, input *traceAncestryInput) (*traceAncestryOutput, error) {
	entityType, ok := store.ParseEntityType(input.Type)
	if !ok {
		return nil, huma.Error400BadRequest(fmt.Sprintf("unknown entity type %q", input.Type))
	}

	repo, ok := s.services.Catalog.ByType(entityType)
	if !ok {
		return nil, huma.Error400BadRequest(fmt.Sprintf("unknown entity type %q", input.Type))
	}
	entity, err := repo.Get(ctx, input.TenantID, input.ID)
	if err != nil {
		if hserr.IsNotFound(err) {
			return nil, huma.Error404NotFound(fmt.Sprintf("%s %q not found", entityType, input.ID))
		}
		return nil, s.apiError(err, "loading entity")
	}

	graphs, _, err := s.services.Builder.Build(ctx, input.TenantID, []store.Entity{entity}, "")
	if err != nil {
		return nil, s.apiError(err, "building ancestry graph")
	}
	if len(graphs) == 0 {
		return nil, huma.Error404NotFound(fmt.Sprintf("%s %q not found", entityType, input.ID))
	}
	return &traceAncestryOutput{Body: graphs[0]}, nil
}

func (s *Server) handleRunDiscovery(ctx context.Context, input *runDiscoveryInput) (*runDiscoveryOutput, error) {
	report, err := s.services.Discovery.Run(ctx, input.Body.TenantID)
	if err != nil {
		return nil, s.apiError(err, "discovery run failed")
	}
	return &runDiscoveryOutput{Body: *report}, nil
}

// apiError maps a domain error onto a huma status error, logging anything
// that surfaces as a 5xx.
func (s *Server) apiError(err error, msg string) error {
	status := hserr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.services.Logger.Error(msg, "error", err)
		return huma.NewError(status, msg)
	}
	return huma.NewError(status, fmt.Sprintf("%s: %v", msg, err))
}
