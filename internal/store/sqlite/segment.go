// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Compile-time interface check.
var _ store.SegmentRepository = (*SegmentRepo)(nil)

// SegmentRepo implements store.SegmentRepository.
type SegmentRepo struct {
	db *sql.DB
}

func (r *SegmentRepo) Kind() store.EntityType { return store.TypeSegment }

const segmentCols = `id, tenant_id, conversation_id, title, main_topic, subcategory, summary, hashtags, started_at, ended_at, created_at, relationship_analyzed`

func scanSegment(row interface{ Scan(...any) error }) (*store.Segment, error) {
	var (
		s                             store.Segment
		hashtags                      string
		startedAt, endedAt, createdAt string
		analyzed                      int
	)
	err := row.Scan(&s.ID, &s.TenantID, &s.ConversationID, &s.Title, &s.MainTopic, &s.Subcategory,
		&s.Summary, &hashtags, &startedAt, &endedAt, &createdAt, &analyzed)
	if err != nil {
		return nil, err
	}
	s.Hashtags = unmarshalStrings(hashtags)
	s.StartedAt = parseTime(startedAt)
	s.EndedAt = parseTime(endedAt)
	s.CreatedAt = parseTime(createdAt)
	s.RelationshipAnalyzed = analyzed != 0
	return &s, nil
}

// GetSegment returns the typed segment, or a coded not-found error.
func (r *SegmentRepo) GetSegment(ctx context.Context, tenantID, id string) (*store.Segment, error) {
	const q = `SELECT ` + segmentCols + ` FROM segments WHERE tenant_id = ? AND id = ?`

	s, err := scanSegment(r.db.QueryRowContext(ctx, q, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, hserr.New(hserr.CodeStoreEntityNotFound, "segment not found",
			hserr.FieldSegmentID(id), hserr.FieldTenantID(tenantID))
	}
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "getting segment %s: %w", id, err)
	}
	return s, nil
}

func (r *SegmentRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	return r.GetSegment(ctx, tenantID, id)
}

func (r *SegmentRepo) GetByParent(ctx context.Context, tenantID, parentID string) ([]store.Entity, error) {
	const q = `SELECT ` + segmentCols + ` FROM segments
WHERE tenant_id = ? AND conversation_id = ? ORDER BY started_at, id`

	rows, err := r.db.QueryContext(ctx, q, tenantID, parentID)
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "listing segments for conversation %s: %w", parentID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Entity
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "scanning segment: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "iterating segments: %w", err)
	}
	return out, nil
}

func (r *SegmentRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + segmentCols + ` FROM segments WHERE tenant_id = ?`
	args := []any{tenantID}

	if clause, a := likeClause(query.Keywords, "title", "main_topic", "subcategory", "summary", "hashtags"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	if clause, a := timeClause(query.TimeRange, "started_at"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	q += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, searchLimit(query))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "searching segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Entity
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "scanning segment: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "iterating segments: %w", err)
	}
	return out, nil
}

// ListByAnalyzed returns segments filtered on relationship_analyzed, in
// creation order so discovery runs are reproducible.
func (r *SegmentRepo) ListByAnalyzed(ctx context.Context, tenantID string, analyzed bool) ([]*store.Segment, error) {
	const q = `SELECT ` + segmentCols + ` FROM segments
WHERE tenant_id = ? AND relationship_analyzed = ? ORDER BY created_at, id`

	flag := 0
	if analyzed {
		flag = 1
	}
	rows, err := r.db.QueryContext(ctx, q, tenantID, flag)
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "listing segments by analyzed flag: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*store.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "scanning segment: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "iterating segments: %w", err)
	}
	return out, nil
}

// MarkAnalyzed flips relationship_analyzed for the given segments in one
// statement. Already-analyzed segments are left untouched; the flag is
// monotonic.
func (r *SegmentRepo) MarkAnalyzed(ctx context.Context, tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q := `UPDATE segments SET relationship_analyzed = 1 WHERE tenant_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := make([]any, 0, 1+len(ids))
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "marking %d segments analyzed: %w", len(ids), err)
	}
	return nil
}

// Create inserts a segment row. Used by ingestion and tests.
func (r *SegmentRepo) Create(ctx context.Context, s *store.Segment) error {
	const q = `INSERT INTO segments (` + segmentCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	analyzed := 0
	if s.RelationshipAnalyzed {
		analyzed = 1
	}
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.TenantID, s.ConversationID, s.Title, s.MainTopic, s.Subcategory, s.Summary,
		marshalJSON(s.Hashtags), formatTime(s.StartedAt), formatTime(s.EndedAt), formatTime(s.CreatedAt), analyzed,
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating segment %s: %w", s.ID, err)
	}
	return nil
}
