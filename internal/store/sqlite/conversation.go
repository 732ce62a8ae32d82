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
var _ store.EntityRepository = (*ConversationRepo)(nil)

// ConversationRepo implements store.EntityRepository for conversations.
type ConversationRepo struct {
	db *sql.DB
}

func (r *ConversationRepo) Kind() store.EntityType { return store.TypeConversation }

const conversationCols = `id, tenant_id, title, topics, summary, hashtags, started_at, ended_at, created_at`

func scanConversation(row interface{ Scan(...any) error }) (*store.Conversation, error) {
	var (
		c                             store.Conversation
		hashtags                      string
		startedAt, endedAt, createdAt string
	)
	if err := row.Scan(&c.ID, &c.TenantID, &c.Title, &c.Topics, &c.Summary, &hashtags, &startedAt, &endedAt, &createdAt); err != nil {
		return nil, err
	}
	c.Hashtags = unmarshalStrings(hashtags)
	c.StartedAt = parseTime(startedAt)
	c.EndedAt = parseTime(endedAt)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (r *ConversationRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	const q = `SELECT ` + conversationCols + ` FROM conversations WHERE tenant_id = ? AND id = ?`

	c, err := scanConversation(r.db.QueryRowContext(ctx, q, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, hserr.New(hserr.CodeStoreEntityNotFound, "conversation not found",
			hserr.FieldEntityID(id), hserr.FieldTenantID(tenantID))
	}
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "getting conversation %s: %w", id, err)
	}
	return c, nil
}

// GetByParent always returns an empty list: conversations have no parent.
func (r *ConversationRepo) GetByParent(_ context.Context, _, _ string) ([]store.Entity, error) {
	return nil, nil
}

func (r *ConversationRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + conversationCols + ` FROM conversations WHERE tenant_id = ?`
	args := []any{tenantID}

	if clause, a := likeClause(query.Keywords, "title", "topics", "summary"); clause != "" {
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
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "searching conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Entity
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "scanning conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "iterating conversations: %w", err)
	}
	return out, nil
}

// Create inserts a conversation row. Used by ingestion and tests.
func (r *ConversationRepo) Create(ctx context.Context, c *store.Conversation) error {
	const q = `INSERT INTO conversations (` + conversationCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.TenantID, c.Title, c.Topics, c.Summary,
		marshalJSON(c.Hashtags), formatTime(c.StartedAt), formatTime(c.EndedAt), formatTime(c.CreatedAt),
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating conversation %s: %w", c.ID, err)
	}
	return nil
}
