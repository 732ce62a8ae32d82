// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Compile-time interface check.
var _ store.RelationshipStore = (*RelationshipStore)(nil)

// RelationshipStore implements store.RelationshipStore. Rows are
// append-only; there is no update or delete path.
type RelationshipStore struct {
	db *sql.DB
}

const relationshipCols = `id, tenant_id, pointer_segment_id, target_segment_id, type, created_at`

func scanRelationship(row scanner) (*store.Relationship, error) {
	var (
		r         store.Relationship
		createdAt string
	)
	if err := row.Scan(&r.ID, &r.TenantID, &r.PointerSegmentID, &r.TargetSegmentID, &r.Type, &createdAt); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

// BulkInsert persists edges in one transaction. Each edge's endpoints must
// be segments of the edge's tenant; a cross-tenant or dangling endpoint is
// an integrity violation and rolls back the whole batch.
func (s *RelationshipStore) BulkInsert(ctx context.Context, rels []*store.Relationship) error {
	if len(rels) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "beginning relationship transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const countQ = `SELECT COUNT(*) FROM segments WHERE tenant_id = ? AND id IN (?, ?)`
	const insertQ = `INSERT INTO relationships (` + relationshipCols + `) VALUES (?, ?, ?, ?, ?, ?)`

	for _, rel := range rels {
		if rel.TenantID == "" || rel.PointerSegmentID == "" || rel.TargetSegmentID == "" {
			return hserr.New(hserr.CodeStoreInvalidInput, "relationship missing tenant or endpoint",
				hserr.FieldTenantID(rel.TenantID))
		}

		var n int
		if err := tx.QueryRowContext(ctx, countQ, rel.TenantID, rel.PointerSegmentID, rel.TargetSegmentID).Scan(&n); err != nil {
			return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "verifying relationship endpoints: %w", err)
		}
		want := 2
		if rel.PointerSegmentID == rel.TargetSegmentID {
			want = 1
		}
		if n != want {
			return hserr.New(hserr.CodeStoreTenantMismatch, "relationship endpoint outside tenant",
				hserr.FieldTenantID(rel.TenantID),
				hserr.Field("pointer_segment_id", rel.PointerSegmentID),
				hserr.Field("target_segment_id", rel.TargetSegmentID))
		}

		id := rel.ID
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := rel.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := tx.ExecContext(ctx, insertQ,
			id, rel.TenantID, rel.PointerSegmentID, rel.TargetSegmentID, rel.Type, formatTime(createdAt),
		); err != nil {
			return hserr.Errorf(hserr.CodeStoreRelationshipWrite, "inserting relationship %s -> %s: %w",
				rel.PointerSegmentID, rel.TargetSegmentID, err)
		}
		rel.ID = id
		rel.CreatedAt = createdAt
	}

	if err := tx.Commit(); err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "committing %d relationships: %w", len(rels), err)
	}
	return nil
}

func (s *RelationshipStore) queryRelationships(ctx context.Context, q string, args []any) ([]*store.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "querying relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*store.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "scanning relationship: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "iterating relationships: %w", err)
	}
	return out, nil
}

// GetByEndpoints returns edges touching any of the given segments on either
// end, ordered by creation for deterministic graph assembly.
func (s *RelationshipStore) GetByEndpoints(ctx context.Context, tenantID string, segmentIDs []string) ([]*store.Relationship, error) {
	if len(segmentIDs) == 0 {
		return nil, nil
	}

	ph := placeholders(len(segmentIDs))
	q := `SELECT ` + relationshipCols + ` FROM relationships
WHERE tenant_id = ? AND (pointer_segment_id IN (` + ph + `) OR target_segment_id IN (` + ph + `))
ORDER BY created_at, id`

	args := make([]any, 0, 1+2*len(segmentIDs))
	args = append(args, tenantID)
	for _, id := range segmentIDs {
		args = append(args, id)
	}
	for _, id := range segmentIDs {
		args = append(args, id)
	}
	return s.queryRelationships(ctx, q, args)
}

// GetByTargets returns edges whose target is one of the given segments.
func (s *RelationshipStore) GetByTargets(ctx context.Context, tenantID string, targetIDs []string) ([]*store.Relationship, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}

	q := `SELECT ` + relationshipCols + ` FROM relationships
WHERE tenant_id = ? AND target_segment_id IN (` + placeholders(len(targetIDs)) + `)
ORDER BY created_at, id`

	args := make([]any, 0, 1+len(targetIDs))
	args = append(args, tenantID)
	for _, id := range targetIDs {
		args = append(args, id)
	}
	return s.queryRelationships(ctx, q, args)
}

func (s *RelationshipStore) ListByTenant(ctx context.Context, tenantID string) ([]*store.Relationship, error) {
	const q = `SELECT ` + relationshipCols + ` FROM relationships WHERE tenant_id = ? ORDER BY created_at, id`
	return s.queryRelationships(ctx, q, []any{tenantID})
}
