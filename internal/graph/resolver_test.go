// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/graph"
	"github.com/hindsight-dev/hindsight/internal/store"
)

func TestResolver_ContainmentChain(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-chain")
	seedConversation(t, st, "t1", "c1", "planning")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedTask(t, st, "t1", "tk1", "s1", "send spreadsheet")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeTask, ID: "tk1"})
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, "c1", path[0].Ref().ID)
	assert.Equal(t, "s1", path[1].Ref().ID)
	assert.Equal(t, "tk1", path[2].Ref().ID)
}

func TestResolver_MissingEntityYieldsEmptyPath(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-missing")
	seedConversation(t, st, "t1", "c1", "planning")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeSegment, ID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, path)

	// Tenant mismatch behaves exactly like not found.
	path, err = r.Resolve(ctx, "t2", store.EntityRef{Type: store.TypeConversation, ID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestResolver_RootHasSingletonPath(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-root")
	seedConversation(t, st, "t1", "c1", "planning")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeConversation, ID: "c1"})
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, "c1", path[0].Ref().ID)
}

func TestResolver_FollowsIncomingLateralEdges(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-lateral")
	seedConversation(t, st, "t1", "c1", "planning")
	seedConversation(t, st, "t1", "c2", "earlier call")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedSegment(t, st, "t1", "s2", "c2", "original request")
	// s2 points at s1, so s2 is part of s1's origin story.
	seedEdge(t, st, "t1", "s2", "s1", "PRECEDES")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeSegment, ID: "s1"})
	require.NoError(t, err)
	require.Len(t, path, 4)
	// The requested entity always terminates the path.
	assert.Equal(t, "s1", path[len(path)-1].Ref().ID)

	ids := make(map[string]bool)
	for _, e := range path {
		ids[e.Ref().ID] = true
	}
	assert.True(t, ids["c1"])
	assert.True(t, ids["s2"])
	assert.True(t, ids["c2"])
}

func TestResolver_OutgoingEdgesAreNotAncestry(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-outgoing")
	seedConversation(t, st, "t1", "c1", "planning")
	seedConversation(t, st, "t1", "c2", "later call")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedSegment(t, st, "t1", "s2", "c2", "follow-up")
	// s1 points at s2: s2 is downstream of s1, not an ancestor.
	seedEdge(t, st, "t1", "s1", "s2", "FOLLOWS")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeSegment, ID: "s1"})
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "c1", path[0].Ref().ID)
	assert.Equal(t, "s1", path[1].Ref().ID)
}

func TestResolver_TerminatesOnCycles(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-cycle")
	seedConversation(t, st, "t1", "c1", "planning")
	seedSegment(t, st, "t1", "s1", "c1", "one")
	seedSegment(t, st, "t1", "s2", "c1", "two")
	seedSegment(t, st, "t1", "s3", "c1", "three")
	seedEdge(t, st, "t1", "s1", "s2", "FOLLOWS")
	seedEdge(t, st, "t1", "s2", "s3", "FOLLOWS")
	seedEdge(t, st, "t1", "s3", "s1", "FOLLOWS")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeSegment, ID: "s1"})
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, e := range path {
		seen[e.Ref().ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "entity %s appears %d times", id, n)
	}
	assert.Equal(t, "s1", path[len(path)-1].Ref().ID)
	// The whole cycle is reachable through incoming edges.
	assert.Contains(t, seen, "s2")
	assert.Contains(t, seen, "s3")
}

func TestResolver_IgnoresOtherTenantEdges(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "resolver-tenant")
	seedConversation(t, st, "t1", "c1", "planning")
	seedSegment(t, st, "t1", "s1", "c1", "budget talk")
	seedConversation(t, st, "t2", "c9", "foreign")
	seedSegment(t, st, "t2", "s9a", "c9", "foreign a")
	seedSegment(t, st, "t2", "s9b", "c9", "foreign b")
	seedEdge(t, st, "t2", "s9a", "s9b", "FOLLOWS")

	r := graph.NewResolver(st.Catalog(), st.Relationships(), nil)

	path, err := r.Resolve(ctx, "t1", store.EntityRef{Type: store.TypeSegment, ID: "s1"})
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "c1", path[0].Ref().ID)
}
