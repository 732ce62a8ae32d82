// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package discovery

import "github.com/hindsight-dev/hindsight/internal/store"

// component is one connected group of analyzed segments. Members keep
// insertion order so classifier prompts stay reproducible across runs.
type component struct {
	members []*store.Segment
	ids     map[string]bool
}

func newComponent(members ...*store.Segment) *component {
	c := &component{ids: make(map[string]bool, len(members))}
	for _, m := range members {
		c.add(m)
	}
	return c
}

func (c *component) add(s *store.Segment) {
	if c.ids[s.ID] {
		return
	}
	c.ids[s.ID] = true
	c.members = append(c.members, s)
}

func (c *component) contains(id string) bool { return c.ids[id] }

// components groups analyzed segments into connected components, treating
// every relationship edge as undirected. Segments are visited in the given
// order, so component order follows segment creation order. Segments with
// no edges form singletons; edges touching segments outside the given set
// are ignored.
func components(segments []*store.Segment, rels []*store.Relationship) []*component {
	byID := make(map[string]*store.Segment, len(segments))
	for _, s := range segments {
		byID[s.ID] = s
	}

	adjacency := make(map[string][]string)
	for _, rel := range rels {
		p, t := rel.PointerSegmentID, rel.TargetSegmentID
		if byID[p] == nil || byID[t] == nil || p == t {
			continue
		}
		adjacency[p] = append(adjacency[p], t)
		adjacency[t] = append(adjacency[t], p)
	}

	visited := make(map[string]bool, len(segments))
	var out []*component
	for _, seed := range segments {
		if visited[seed.ID] {
			continue
		}
		c := newComponent()
		stack := []string{seed.ID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			visited[id] = true
			c.add(byID[id])
			stack = append(stack, adjacency[id]...)
		}
		out = append(out, c)
	}
	return out
}
