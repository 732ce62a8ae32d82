// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package store

import (
	"context"
	"time"
)

// TimeRange bounds a search to entities whose primary timestamp falls
// within [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// SearchQuery is the keyword+time filter applied by every repository search.
type SearchQuery struct {
	Keywords  string
	TimeRange *TimeRange
	Limit     int
}

// EntityRepository is the typed read/search surface for one entity kind.
// All operations are tenant-scoped; a lookup for an entity belonging to a
// different tenant behaves exactly like a missing entity.
type EntityRepository interface {
	Kind() EntityType
	Get(ctx context.Context, tenantID, id string) (Entity, error)
	GetByParent(ctx context.Context, tenantID, parentID string) ([]Entity, error)
	Search(ctx context.Context, tenantID string, q SearchQuery) ([]Entity, error)
}

// SegmentRepository extends EntityRepository with the segment-specific
// operations the discovery engine needs.
type SegmentRepository interface {
	EntityRepository

	GetSegment(ctx context.Context, tenantID, id string) (*Segment, error)
	// ListByAnalyzed returns segments filtered on the relationship_analyzed
	// flag, ordered by creation time then id for reproducible runs.
	ListByAnalyzed(ctx context.Context, tenantID string, analyzed bool) ([]*Segment, error)
	// MarkAnalyzed flips relationship_analyzed to true for the given
	// segments in one statement. The flag never reverts.
	MarkAnalyzed(ctx context.Context, tenantID string, ids []string) error
}

// RelationshipStore persists the lateral segment-to-segment edge set.
// Rows are append-only: no update or delete in normal operation.
type RelationshipStore interface {
	// BulkInsert persists edges after verifying both endpoints belong to
	// the edge's tenant. A cross-tenant edge is rejected with an
	// integrity-violation error, never silently dropped.
	BulkInsert(ctx context.Context, rels []*Relationship) error
	// GetByEndpoints returns edges touching any of the given segments on
	// either end.
	GetByEndpoints(ctx context.Context, tenantID string, segmentIDs []string) ([]*Relationship, error)
	// GetByTargets returns edges whose target is one of the given segments.
	GetByTargets(ctx context.Context, tenantID string, targetIDs []string) ([]*Relationship, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Relationship, error)
}

// Catalog indexes entity repositories by kind so traversal and search code
// stays agnostic of concrete entity types.
type Catalog struct {
	repos map[EntityType]EntityRepository
	order []EntityType
}

// NewCatalog builds a catalog from the given repositories. Registration
// order is preserved for deterministic fan-out.
func NewCatalog(repos ...EntityRepository) *Catalog {
	c := &Catalog{repos: make(map[EntityType]EntityRepository, len(repos))}
	for _, r := range repos {
		if _, ok := c.repos[r.Kind()]; ok {
			continue
		}
		c.repos[r.Kind()] = r
		c.order = append(c.order, r.Kind())
	}
	return c
}

// ByType returns the repository for a kind, if registered.
func (c *Catalog) ByType(t EntityType) (EntityRepository, bool) {
	r, ok := c.repos[t]
	return r, ok
}

// Types returns the registered kinds in registration order.
func (c *Catalog) Types() []EntityType {
	out := make([]EntityType, len(c.order))
	copy(out, c.order)
	return out
}
