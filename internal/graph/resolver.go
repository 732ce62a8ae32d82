// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package graph

import (
	"context"
	"log/slog"

	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Resolver walks containment and lateral edges upward from an entity to
// produce its full ancestry path.
type Resolver struct {
	catalog *store.Catalog
	rels    store.RelationshipStore
	logger  *slog.Logger
}

// NewResolver creates a resolver over the given catalog and relationship
// store.
func NewResolver(catalog *store.Catalog, rels store.RelationshipStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, rels: rels, logger: logger}
}

// Resolve returns the root-first ancestry path terminating in the requested
// entity. A missing entity, or one belonging to another tenant, yields an
// empty path and no error; callers tell "not found" from "found, no
// ancestry" by the empty slice versus the one-element slice.
//
// The walk keeps a visited set keyed by (type, id), so it terminates on
// cyclic relationship graphs and runs in O(V+E) over the reachable
// subgraph. For segments the walk also follows lateral edges in which the
// segment is the target, pulling in the pointing segments as path context.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, ref store.EntityRef) ([]store.Entity, error) {
	seed, err := r.fetch(ctx, tenantID, ref)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, nil
	}

	visited := make(map[store.EntityRef]bool)
	stack := []store.Entity{seed}
	var path []store.Entity

	for len(stack) > 0 {
		entity := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[entity.Ref()] {
			continue
		}
		visited[entity.Ref()] = true
		path = append(path, entity)

		if seg, ok := entity.(*store.Segment); ok {
			pointers, err := r.pointingSegments(ctx, tenantID, seg.ID)
			if err != nil {
				return nil, err
			}
			stack = append(stack, pointers...)
		}

		// Parent goes on last so it pops before lateral context and the
		// containment chain stays contiguous in visitation order.
		if parentRef, ok := entity.Parent(); ok {
			parent, err := r.fetch(ctx, tenantID, parentRef)
			if err != nil {
				return nil, err
			}
			if parent == nil {
				r.logger.Warn("ancestry walk hit dangling parent reference",
					"tenant_id", tenantID,
					"entity_type", entity.Ref().Type,
					"entity_id", entity.Ref().ID,
					"parent_type", parentRef.Type,
					"parent_id", parentRef.ID)
				continue
			}
			stack = append(stack, parent)
		}
	}

	// Visitation ran leaf-to-root; the callers want root-first ending in
	// the requested entity.
	reverse(path)
	return path, nil
}

// fetch loads one entity, mapping "not found" to a nil entity.
func (r *Resolver) fetch(ctx context.Context, tenantID string, ref store.EntityRef) (store.Entity, error) {
	repo, ok := r.catalog.ByType(ref.Type)
	if !ok {
		return nil, hserr.New(hserr.CodeGraphResolveFailure, "no repository registered for entity type "+string(ref.Type))
	}
	entity, err := repo.Get(ctx, tenantID, ref.ID)
	if err != nil {
		if hserr.IsNotFound(err) {
			return nil, nil
		}
		return nil, hserr.Wrapf(err, hserr.CodeGraphResolveFailure, "resolving %s %s", ref.Type, ref.ID)
	}
	return entity, nil
}

// pointingSegments loads the segments that point at the given segment
// through lateral edges.
func (r *Resolver) pointingSegments(ctx context.Context, tenantID, segmentID string) ([]store.Entity, error) {
	rels, err := r.rels.GetByTargets(ctx, tenantID, []string{segmentID})
	if err != nil {
		return nil, hserr.Wrapf(err, hserr.CodeGraphResolveFailure, "loading lateral edges for segment %s", segmentID)
	}

	var out []store.Entity
	for _, rel := range rels {
		if rel.PointerSegmentID == segmentID {
			continue
		}
		pointer, err := r.fetch(ctx, tenantID, store.EntityRef{Type: store.TypeSegment, ID: rel.PointerSegmentID})
		if err != nil {
			return nil, err
		}
		if pointer == nil {
			r.logger.Warn("lateral edge references missing segment",
				"tenant_id", tenantID,
				"relationship_id", rel.ID,
				"pointer_segment_id", rel.PointerSegmentID)
			continue
		}
		out = append(out, pointer)
	}
	return out, nil
}

func reverse(entities []store.Entity) {
	for i, j := 0, len(entities)-1; i < j; i, j = i+1, j-1 {
		entities[i], entities[j] = entities[j], entities[i]
	}
}
