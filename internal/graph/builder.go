// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package graph

import (
	"context"
	"log/slog"

	"github.com/hindsight-dev/hindsight/internal/oracle"
	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Builder expands hit entities into per-hit ancestry graphs. A summarizer
// may be attached to enrich each graph with a narrative synopsis; synopsis
// failures never alter graph structure.
type Builder struct {
	resolver   *Resolver
	catalog    *store.Catalog
	rels       store.RelationshipStore
	summarizer oracle.Summarizer
	logger     *slog.Logger
}

// NewBuilder creates a builder. The summarizer is optional; pass nil to
// skip synopsis generation.
func NewBuilder(resolver *Resolver, catalog *store.Catalog, rels store.RelationshipStore, summarizer oracle.Summarizer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		resolver:   resolver,
		catalog:    catalog,
		rels:       rels,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Build produces one ancestry graph per resolvable hit. Hits that no longer
// resolve (deleted between search and expansion, or cross-tenant) are
// skipped rather than failing the batch. The contextText is only consulted
// by the synopsis step.
func (b *Builder) Build(ctx context.Context, tenantID string, hits []store.Entity, contextText string) ([]HitGraph, oracle.Usage, error) {
	var (
		graphs []HitGraph
		usage  oracle.Usage
	)

	for _, hit := range hits {
		path, err := b.resolver.Resolve(ctx, tenantID, hit.Ref())
		if err != nil {
			return nil, usage, err
		}
		if len(path) == 0 {
			b.logger.Warn("hit no longer resolves, skipping",
				"tenant_id", tenantID,
				"entity_type", hit.Ref().Type,
				"entity_id", hit.Ref().ID)
			continue
		}

		g, err := b.buildOne(ctx, tenantID, hit, path)
		if err != nil {
			return nil, usage, err
		}

		if b.summarizer != nil {
			synopsis, u := b.synopsis(ctx, contextText, g)
			g.Synopsis = synopsis
			usage = usage.Add(u)
		}
		graphs = append(graphs, *g)
	}
	return graphs, usage, nil
}

func (b *Builder) buildOne(ctx context.Context, tenantID string, hit store.Entity, path []store.Entity) (*HitGraph, error) {
	source := RenderNode(hit)
	g := &HitGraph{Source: source}

	// The path ends with the hit itself; everything before it is ancestry.
	ancestors := path[:len(path)-1]
	for _, a := range ancestors {
		g.AncestryPath = append(g.AncestryPath, RenderNode(a))
	}

	for i := 0; i+1 < len(g.AncestryPath); i++ {
		g.PathEdges = append(g.PathEdges, Edge{
			From:  g.AncestryPath[i].ID,
			To:    g.AncestryPath[i+1].ID,
			Label: EdgeLabelContains,
		})
	}
	if len(g.AncestryPath) > 0 {
		g.PathEdges = append(g.PathEdges, Edge{
			From:  g.AncestryPath[len(g.AncestryPath)-1].ID,
			To:    source.ID,
			Label: EdgeLabelContains,
		})
	}

	related, err := b.relatedSegments(ctx, tenantID, hit, ancestors)
	if err != nil {
		return nil, err
	}
	g.RelatedSegments = related
	return g, nil
}

// relatedSegments finds segments laterally connected to the hit's path.
// The path's segment set covers ancestor segments plus the hit itself when
// the hit is a segment or anchors to one.
func (b *Builder) relatedSegments(ctx context.Context, tenantID string, hit store.Entity, ancestors []store.Entity) ([]RelatedSegment, error) {
	inPath := make(map[string]bool)
	var segmentIDs []string
	add := func(id string) {
		if id == "" || inPath[id] {
			return
		}
		inPath[id] = true
		segmentIDs = append(segmentIDs, id)
	}

	for _, a := range ancestors {
		if a.Ref().Type == store.TypeSegment {
			add(a.Ref().ID)
		}
	}
	if hit.Ref().Type == store.TypeSegment {
		add(hit.Ref().ID)
	} else if parentRef, ok := hit.Parent(); ok && parentRef.Type == store.TypeSegment {
		add(parentRef.ID)
	}
	if len(segmentIDs) == 0 {
		return nil, nil
	}

	rels, err := b.rels.GetByEndpoints(ctx, tenantID, segmentIDs)
	if err != nil {
		return nil, hserr.Wrap(err, hserr.CodeGraphBuildFailure, "loading lateral edges for hit")
	}

	segRepo, ok := b.catalog.ByType(store.TypeSegment)
	if !ok {
		return nil, hserr.New(hserr.CodeGraphBuildFailure, "no segment repository registered")
	}

	var (
		out  []RelatedSegment
		seen = make(map[Edge]bool)
	)
	for _, rel := range rels {
		otherID := rel.TargetSegmentID
		if inPath[otherID] {
			otherID = rel.PointerSegmentID
		}
		if inPath[otherID] || otherID == "" {
			continue
		}

		other, err := segRepo.Get(ctx, tenantID, otherID)
		if err != nil {
			if hserr.IsNotFound(err) {
				b.logger.Warn("lateral edge references missing segment",
					"tenant_id", tenantID,
					"relationship_id", rel.ID,
					"segment_id", otherID)
				continue
			}
			return nil, hserr.Wrapf(err, hserr.CodeGraphBuildFailure, "fetching related segment %s", otherID)
		}

		// Edge direction reflects the stored row: pointer to target.
		edge := Edge{
			From:  NodeID(store.EntityRef{Type: store.TypeSegment, ID: rel.PointerSegmentID}),
			To:    NodeID(store.EntityRef{Type: store.TypeSegment, ID: rel.TargetSegmentID}),
			Label: rel.Label(),
		}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		out = append(out, RelatedSegment{Node: RenderNode(other), Edge: edge})
	}
	return out, nil
}

// synopsis asks the summarizer for a short narrative over the hit's path.
// Any failure degrades to an empty synopsis.
func (b *Builder) synopsis(ctx context.Context, contextText string, g *HitGraph) (string, oracle.Usage) {
	nodes := make([]oracle.NodeSummary, 0, 1+len(g.AncestryPath)+len(g.RelatedSegments))
	nodes = append(nodes, nodeSummary(g.Source))
	for _, n := range g.AncestryPath {
		nodes = append(nodes, nodeSummary(n))
	}
	for _, rs := range g.RelatedSegments {
		nodes = append(nodes, nodeSummary(rs.Node))
	}

	text, usage, err := b.summarizer.Summarize(ctx, contextText, nodes)
	if err != nil {
		b.logger.Warn("path synopsis failed, continuing without",
			"source_node", g.Source.ID,
			"error", err)
		return "", usage
	}
	return text, usage
}

func nodeSummary(n Node) oracle.NodeSummary {
	s := oracle.NodeSummary{
		Type:    n.Type,
		Title:   n.Title,
		Summary: n.Summary,
	}
	if n.Date != nil {
		s.Date = n.Date.Format("2006-01-02")
	}
	return s
}
