// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

// Package graph builds renderable ancestry graphs over the stored entity
// hierarchy. The resolver walks containment and lateral edges to produce a
// root-first path; the builder expands a set of hit nodes into per-hit
// subgraphs of ancestors, containment edges, and related segments.
package graph

import (
	"time"

	"github.com/hindsight-dev/hindsight/internal/store"
)

// EdgeLabelContains labels structural containment edges. Lateral edges use
// the relationship's stored type.
const EdgeLabelContains = "CONTAINS"

// Node is the renderable projection of one entity. Identity is the ID
// string, which encodes type and entity id, so nodes deduplicate across
// hits without comparing backing rows.
type Node struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Summary string         `json:"summary,omitempty"`
	Date    *time.Time     `json:"date,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`

	// Ref retains the backing entity reference for traversal. It is not
	// part of the rendered payload.
	Ref store.EntityRef `json:"-"`
}

// NodeID derives the rendering identity for an entity reference.
func NodeID(ref store.EntityRef) string {
	return "n" + string(ref.Type) + "_" + ref.ID
}

// RenderNode projects an entity into its node form.
func RenderNode(e store.Entity) Node {
	ref := e.Ref()
	r := e.Render()
	n := Node{
		ID:      NodeID(ref),
		Type:    string(ref.Type),
		Title:   r.Title,
		Summary: r.Summary,
		Attrs:   r.Attrs,
		Ref:     ref,
	}
	if !r.Date.IsZero() {
		d := r.Date
		n.Date = &d
	}
	return n
}

// Edge is one directed labeled edge in a rendered graph. From and To are
// node IDs.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// RelatedSegment pairs a laterally related segment node with the edge that
// connects it to the hit's path.
type RelatedSegment struct {
	Node Node `json:"node"`
	Edge Edge `json:"edge"`
}

// HitGraph is the per-hit expansion: the source node itself, its ancestors
// (root-first, source excluded), the containment edges along that path, and
// the segments laterally related to it.
type HitGraph struct {
	Source          Node             `json:"source_node"`
	AncestryPath    []Node           `json:"ancestry_path"`
	PathEdges       []Edge           `json:"path_edges"`
	RelatedSegments []RelatedSegment `json:"related_segments"`
	Synopsis        string           `json:"synopsis,omitempty"`
}
