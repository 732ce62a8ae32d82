// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/graph"
	"github.com/hindsight-dev/hindsight/internal/store"
	"github.com/hindsight-dev/hindsight/internal/store/sqlite"
)

func newBuilder(st *sqlite.Store, summarizer *fakeSummarizer) *graph.Builder {
	resolver := graph.NewResolver(st.Catalog(), st.Relationships(), nil)
	if summarizer == nil {
		return graph.NewBuilder(resolver, st.Catalog(), st.Relationships(), nil, nil)
	}
	return graph.NewBuilder(resolver, st.Catalog(), st.Relationships(), summarizer, nil)
}

func TestBuilder_TaskWithLateralSegment(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-task")
	seedConversation(t, st, "t1", "c1", "planning")
	seedConversation(t, st, "t1", "c2", "later call")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedSegment(t, st, "t1", "s2", "c2", "follow-up")
	seedTask(t, st, "t1", "tk1", "s1", "send spreadsheet")
	seedEdge(t, st, "t1", "s1", "s2", "FOLLOWS")

	b := newBuilder(st, nil)

	hit, err := st.Tasks().Get(ctx, "t1", "tk1")
	require.NoError(t, err)

	graphs, _, err := b.Build(ctx, "t1", []store.Entity{hit}, "")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	g := graphs[0]

	assert.Equal(t, "nTask_tk1", g.Source.ID)

	require.Len(t, g.AncestryPath, 2)
	assert.Equal(t, "nConversation_c1", g.AncestryPath[0].ID)
	assert.Equal(t, "nSegment_s1", g.AncestryPath[1].ID)

	require.Len(t, g.PathEdges, 2)
	assert.Equal(t, graph.Edge{From: "nConversation_c1", To: "nSegment_s1", Label: "CONTAINS"}, g.PathEdges[0])
	assert.Equal(t, graph.Edge{From: "nSegment_s1", To: "nTask_tk1", Label: "CONTAINS"}, g.PathEdges[1])

	require.Len(t, g.RelatedSegments, 1)
	assert.Equal(t, "nSegment_s2", g.RelatedSegments[0].Node.ID)
	assert.Equal(t, graph.Edge{From: "nSegment_s1", To: "nSegment_s2", Label: "FOLLOWS"}, g.RelatedSegments[0].Edge)
}

func TestBuilder_RootConversationHasBareGraph(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-root")
	seedConversation(t, st, "t1", "c1", "planning")

	b := newBuilder(st, nil)

	hit, err := st.Conversations().Get(ctx, "t1", "c1")
	require.NoError(t, err)

	graphs, _, err := b.Build(ctx, "t1", []store.Entity{hit}, "")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	g := graphs[0]

	assert.Empty(t, g.AncestryPath)
	assert.Empty(t, g.PathEdges)
	assert.Empty(t, g.RelatedSegments)
	assert.Equal(t, "nConversation_c1", g.Source.ID)
}

func TestBuilder_IncomingEdgeKeepsStoredDirection(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-incoming")
	seedConversation(t, st, "t1", "c1", "planning")
	seedConversation(t, st, "t1", "c2", "earlier")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedSegment(t, st, "t1", "s2", "c2", "cause")
	seedTask(t, st, "t1", "tk1", "s1", "send spreadsheet")
	// Edge points at s1; its pointer s2 already shows up in tk1's
	// ancestry, so it must not be double-reported as related.
	seedEdge(t, st, "t1", "s2", "s1", "CAUSED_BY")

	b := newBuilder(st, nil)

	hit, err := st.Tasks().Get(ctx, "t1", "tk1")
	require.NoError(t, err)

	graphs, _, err := b.Build(ctx, "t1", []store.Entity{hit}, "")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	g := graphs[0]

	var pathIDs []string
	for _, n := range g.AncestryPath {
		pathIDs = append(pathIDs, n.ID)
	}
	assert.Contains(t, pathIDs, "nSegment_s2")
	assert.Empty(t, g.RelatedSegments)
}

func TestBuilder_SegmentHitCollectsOwnEdges(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-segment")
	seedConversation(t, st, "t1", "c1", "planning")
	seedConversation(t, st, "t1", "c2", "later")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedSegment(t, st, "t1", "s2", "c2", "follow-up")
	seedEdge(t, st, "t1", "s1", "s2", "FOLLOWS")

	b := newBuilder(st, nil)

	hit, err := st.Segments().Get(ctx, "t1", "s1")
	require.NoError(t, err)

	graphs, _, err := b.Build(ctx, "t1", []store.Entity{hit}, "")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	g := graphs[0]

	require.Len(t, g.RelatedSegments, 1)
	assert.Equal(t, "nSegment_s2", g.RelatedSegments[0].Node.ID)
	assert.Equal(t, "FOLLOWS", g.RelatedSegments[0].Edge.Label)
}

func TestBuilder_SynopsisEnrichment(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-synopsis")
	seedConversation(t, st, "t1", "c1", "planning")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")

	summarizer := &fakeSummarizer{text: "it all started with the budget"}
	b := newBuilder(st, summarizer)

	hit, err := st.Segments().Get(ctx, "t1", "s1")
	require.NoError(t, err)

	graphs, usage, err := b.Build(ctx, "t1", []store.Entity{hit}, "where did this come from")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, "it all started with the budget", graphs[0].Synopsis)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, 10, usage.InputTokens)
}

func TestBuilder_SynopsisFailureLeavesGraphIntact(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-synopsis-fail")
	seedConversation(t, st, "t1", "c1", "planning")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")

	summarizer := &fakeSummarizer{err: errors.New("model unavailable")}
	b := newBuilder(st, summarizer)

	hit, err := st.Segments().Get(ctx, "t1", "s1")
	require.NoError(t, err)

	graphs, _, err := b.Build(ctx, "t1", []store.Entity{hit}, "query")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Empty(t, graphs[0].Synopsis)
	assert.Len(t, graphs[0].AncestryPath, 1)
}

func TestBuilder_SkipsUnresolvableHits(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "builder-skip")
	seedConversation(t, st, "t1", "c1", "planning")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")

	b := newBuilder(st, nil)

	hit, err := st.Segments().Get(ctx, "t1", "s1")
	require.NoError(t, err)
	ghost := &store.Segment{ID: "gone", TenantID: "t1", ConversationID: "c1"}

	graphs, _, err := b.Build(ctx, "t1", []store.Entity{ghost, hit}, "")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, "nSegment_s1", graphs[0].Source.ID)
}
