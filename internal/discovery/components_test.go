// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/store"
)

func seg(id string) *store.Segment { return &store.Segment{ID: id, TenantID: "t1"} }

func edge(pointer, target string) *store.Relationship {
	return &store.Relationship{TenantID: "t1", PointerSegmentID: pointer, TargetSegmentID: target}
}

func memberIDs(c *component) []string {
	ids := make([]string, 0, len(c.members))
	for _, m := range c.members {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestComponents_SingletonsWithoutEdges(t *testing.T) {
	comps := components([]*store.Segment{seg("a"), seg("b"), seg("c")}, nil)
	require.Len(t, comps, 3)
	assert.Equal(t, []string{"a"}, memberIDs(comps[0]))
	assert.Equal(t, []string{"b"}, memberIDs(comps[1]))
	assert.Equal(t, []string{"c"}, memberIDs(comps[2]))
}

func TestComponents_EdgesAreUndirectedForGrouping(t *testing.T) {
	segments := []*store.Segment{seg("a"), seg("b"), seg("c"), seg("d")}
	rels := []*store.Relationship{edge("b", "a"), edge("c", "d")}

	comps := components(segments, rels)
	require.Len(t, comps, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, memberIDs(comps[0]))
	assert.ElementsMatch(t, []string{"c", "d"}, memberIDs(comps[1]))
}

func TestComponents_TransitiveChainFormsOneComponent(t *testing.T) {
	segments := []*store.Segment{seg("a"), seg("b"), seg("c")}
	rels := []*store.Relationship{edge("a", "b"), edge("c", "b")}

	comps := components(segments, rels)
	require.Len(t, comps, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, memberIDs(comps[0]))
}

func TestComponents_IgnoresEdgesOutsideSegmentSet(t *testing.T) {
	segments := []*store.Segment{seg("a")}
	rels := []*store.Relationship{edge("a", "ghost"), edge("a", "a")}

	comps := components(segments, rels)
	require.Len(t, comps, 1)
	assert.Equal(t, []string{"a"}, memberIDs(comps[0]))
}

func TestComponents_CycleTerminates(t *testing.T) {
	segments := []*store.Segment{seg("a"), seg("b"), seg("c")}
	rels := []*store.Relationship{edge("a", "b"), edge("b", "c"), edge("c", "a")}

	comps := components(segments, rels)
	require.Len(t, comps, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, memberIDs(comps[0]))
}
