// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

// Package search turns natural-language queries into ancestry-expanded
// result sets. The orchestrator plans via the planner oracle, fans out
// across entity repositories, expands every hit through the graph builder,
// and asks the summarizer for a closing synopsis.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hindsight-dev/hindsight/internal/graph"
	"github.com/hindsight-dev/hindsight/internal/oracle"
	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Result is the full search response.
type Result struct {
	Synopsis string `json:"synopsis,omitempty"`
	// Graphs holds one ancestry graph per hit.
	Graphs []graph.HitGraph `json:"graphs"`
	// Nodes is every distinct node appearing in the graphs: sources,
	// ancestors, and related segments.
	Nodes []graph.Node `json:"nodes"`
	// Counts groups the node set by lower-cased entity type.
	Counts map[string]int `json:"counts"`

	Usage oracle.Usage `json:"usage"`
}

// Orchestrator coordinates one search flow. It holds no per-query state
// and is safe for concurrent use.
type Orchestrator struct {
	catalog    *store.Catalog
	planner    oracle.Planner
	summarizer oracle.Summarizer
	builder    *graph.Builder
	logger     *slog.Logger
	limit      int
}

// NewOrchestrator creates an orchestrator. limit caps per-repository hits;
// zero means the store default.
func NewOrchestrator(catalog *store.Catalog, planner oracle.Planner, summarizer oracle.Summarizer, builder *graph.Builder, limit int, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		catalog:    catalog,
		planner:    planner,
		summarizer: summarizer,
		builder:    builder,
		logger:     logger,
		limit:      limit,
	}
}

// Search runs the full flow: plan, fetch, expand, aggregate, summarize.
// Planner and summarizer failures degrade (fallback plan, empty synopsis);
// store failures fail the search.
func (o *Orchestrator) Search(ctx context.Context, queryText, tenantID string) (*Result, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, hserr.New(hserr.CodeSearchExecuteFailure, "empty search query")
	}

	result := &Result{Counts: map[string]int{}}

	plan, usage := o.plan(ctx, queryText, tenantID)
	result.Usage = result.Usage.Add(usage)

	hits, err := o.fetchHits(ctx, tenantID, plan)
	if err != nil {
		return nil, err
	}

	graphs, buildUsage, err := o.builder.Build(ctx, tenantID, hits, queryText)
	if err != nil {
		return nil, hserr.Wrap(err, hserr.CodeSearchExecuteFailure, "expanding search hits")
	}
	result.Graphs = graphs
	result.Usage = result.Usage.Add(buildUsage)

	result.Nodes = flattenNodes(graphs)
	for _, n := range result.Nodes {
		result.Counts[strings.ToLower(n.Type)]++
	}

	if len(hits) > 0 && o.summarizer != nil {
		synopsis, u := o.synopsis(ctx, queryText, hits)
		result.Synopsis = synopsis
		result.Usage = result.Usage.Add(u)
	}
	return result, nil
}

// plan asks the planner oracle for a structured plan, falling back to a
// full-width keyword plan when the oracle fails. A search never dies on a
// planning failure.
func (o *Orchestrator) plan(ctx context.Context, queryText, tenantID string) (*oracle.QueryPlan, oracle.Usage) {
	plan, usage, err := o.planner.Plan(ctx, queryText, tenantID)
	if err != nil {
		o.logger.Warn("query planning failed, using fallback plan",
			"tenant_id", tenantID,
			"error", err)
		return fallbackPlan(queryText), usage
	}
	if len(o.planTypes(plan)) == 0 {
		o.logger.Warn("plan named no known entity types, using fallback plan",
			"tenant_id", tenantID,
			"planned_types", plan.EntityTypes)
		fb := fallbackPlan(queryText)
		fb.Keywords = plan.Keywords
		fb.TimeRange = plan.TimeRange
		return fb, usage
	}
	return plan, usage
}

func fallbackPlan(queryText string) *oracle.QueryPlan {
	types := store.AllEntityTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return &oracle.QueryPlan{EntityTypes: names, Keywords: queryText}
}

// planTypes resolves the plan's loose type names, dropping unknowns.
func (o *Orchestrator) planTypes(plan *oracle.QueryPlan) []store.EntityType {
	var out []store.EntityType
	seen := make(map[store.EntityType]bool)
	for _, name := range plan.EntityTypes {
		t, ok := store.ParseEntityType(name)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// fetchHits fans the plan out across repositories and merges hits, keyed by
// (type, id) so joins across types never duplicate an entity.
func (o *Orchestrator) fetchHits(ctx context.Context, tenantID string, plan *oracle.QueryPlan) ([]store.Entity, error) {
	q := store.SearchQuery{Keywords: plan.Keywords, Limit: o.limit}
	if plan.TimeRange != nil {
		q.TimeRange = &store.TimeRange{Start: plan.TimeRange.Start, End: plan.TimeRange.End}
	}

	var (
		hits []store.Entity
		seen = make(map[store.EntityRef]bool)
	)
	for _, t := range o.planTypes(plan) {
		repo, ok := o.catalog.ByType(t)
		if !ok {
			continue
		}
		found, err := repo.Search(ctx, tenantID, q)
		if err != nil {
			return nil, hserr.Wrapf(err, hserr.CodeSearchExecuteFailure, "searching %s entities", t)
		}
		for _, e := range found {
			if seen[e.Ref()] {
				continue
			}
			seen[e.Ref()] = true
			hits = append(hits, e)
		}
	}
	return hits, nil
}

// flattenNodes collects every node across the graphs, deduplicated by
// rendering id.
func flattenNodes(graphs []graph.HitGraph) []graph.Node {
	var (
		out  []graph.Node
		seen = make(map[string]bool)
	)
	add := func(n graph.Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	for _, g := range graphs {
		add(g.Source)
		for _, n := range g.AncestryPath {
			add(n)
		}
		for _, rs := range g.RelatedSegments {
			add(rs.Node)
		}
	}
	return out
}

// synopsis summarizes the raw hits, not the expanded ancestry, so the
// answer stays anchored to what actually matched. Failure degrades to an
// empty synopsis.
func (o *Orchestrator) synopsis(ctx context.Context, queryText string, hits []store.Entity) (string, oracle.Usage) {
	nodes := make([]oracle.NodeSummary, 0, len(hits))
	for _, h := range hits {
		r := h.Render()
		s := oracle.NodeSummary{
			Type:    string(h.Ref().Type),
			Title:   r.Title,
			Summary: r.Summary,
		}
		if !r.Date.IsZero() {
			s.Date = r.Date.Format("2006-01-02")
		}
		nodes = append(nodes, s)
	}

	text, usage, err := o.summarizer.Summarize(ctx, queryText, nodes)
	if err != nil {
		o.logger.Warn("search synopsis failed, returning empty",
			"error", err)
		return "", usage
	}
	return text, usage
}
