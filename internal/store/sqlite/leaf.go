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

// Compile-time interface checks.
var (
	_ store.EntityRepository = (*TaskRepo)(nil)
	_ store.EntityRepository = (*NoteRepo)(nil)
	_ store.EntityRepository = (*ScheduleRepo)(nil)
	_ store.EntityRepository = (*ReminderRepo)(nil)
	_ store.EntityRepository = (*LineRepo)(nil)
)

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface{ Scan(...any) error }

// queryEntities runs a leaf-table query and maps each row through scan.
func queryEntities(ctx context.Context, db *sql.DB, q string, args []any, scan func(scanner) (store.Entity, error)) ([]store.Entity, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "querying entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Entity
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "scanning entity row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "iterating entity rows: %w", err)
	}
	return out, nil
}

func notFoundOrFailure(err error, kind store.EntityType, id, tenantID string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return hserr.New(hserr.CodeStoreEntityNotFound, string(kind)+" not found",
			hserr.FieldEntityType(string(kind)), hserr.FieldEntityID(id), hserr.FieldTenantID(tenantID))
	}
	return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "getting %s %s: %w", kind, id, err)
}

// --- Tasks ---

// TaskRepo implements store.EntityRepository for tasks.
type TaskRepo struct {
	db *sql.DB
}

func (r *TaskRepo) Kind() store.EntityType { return store.TypeTask }

const taskCols = `id, tenant_id, segment_id, content, priority, category, done, valid_from, valid_to, source_indices, created_at`

func scanTask(row scanner) (store.Entity, error) {
	var (
		t                                      store.Task
		done                                   int
		validFrom, validTo, indices, createdAt string
	)
	err := row.Scan(&t.ID, &t.TenantID, &t.SegmentID, &t.Content, &t.Priority, &t.Category,
		&done, &validFrom, &validTo, &indices, &createdAt)
	if err != nil {
		return nil, err
	}
	t.Done = done != 0
	t.ValidFrom = parseTimePtr(validFrom)
	t.ValidTo = parseTimePtr(validTo)
	t.SourceIndices = unmarshalInts(indices)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func (r *TaskRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE tenant_id = ? AND id = ?`
	e, err := scanTask(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		return nil, notFoundOrFailure(err, store.TypeTask, id, tenantID)
	}
	return e, nil
}

func (r *TaskRepo) GetByParent(ctx context.Context, tenantID, parentID string) ([]store.Entity, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE tenant_id = ? AND segment_id = ? ORDER BY created_at, id`
	return queryEntities(ctx, r.db, q, []any{tenantID, parentID}, scanTask)
}

func (r *TaskRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE tenant_id = ?`
	args := []any{tenantID}
	if clause, a := likeClause(query.Keywords, "content", "category"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	if clause, a := timeClause(query.TimeRange, "created_at"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	q += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, searchLimit(query))
	return queryEntities(ctx, r.db, q, args, scanTask)
}

// Create inserts a task row. Used by ingestion and tests.
func (r *TaskRepo) Create(ctx context.Context, t *store.Task) error {
	const q = `INSERT INTO tasks (` + taskCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	done := 0
	if t.Done {
		done = 1
	}
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.TenantID, t.SegmentID, t.Content, t.Priority, t.Category, done,
		formatTimePtr(t.ValidFrom), formatTimePtr(t.ValidTo), marshalJSON(t.SourceIndices), formatTime(t.CreatedAt),
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating task %s: %w", t.ID, err)
	}
	return nil
}

// --- Notes ---

// NoteRepo implements store.EntityRepository for notes.
type NoteRepo struct {
	db *sql.DB
}

func (r *NoteRepo) Kind() store.EntityType { return store.TypeNote }

const noteCols = `id, tenant_id, segment_id, content, valid_from, valid_to, source_indices, created_at`

func scanNote(row scanner) (store.Entity, error) {
	var (
		n                                      store.Note
		validFrom, validTo, indices, createdAt string
	)
	err := row.Scan(&n.ID, &n.TenantID, &n.SegmentID, &n.Content, &validFrom, &validTo, &indices, &createdAt)
	if err != nil {
		return nil, err
	}
	n.ValidFrom = parseTimePtr(validFrom)
	n.ValidTo = parseTimePtr(validTo)
	n.SourceIndices = unmarshalInts(indices)
	n.CreatedAt = parseTime(createdAt)
	return &n, nil
}

func (r *NoteRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	const q = `SELECT ` + noteCols + ` FROM notes WHERE tenant_id = ? AND id = ?`
	e, err := scanNote(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		return nil, notFoundOrFailure(err, store.TypeNote, id, tenantID)
	}
	return e, nil
}

func (r *NoteRepo) GetByParent(ctx context.Context, tenantID, parentID string) ([]store.Entity, error) {
	const q = `SELECT ` + noteCols + ` FROM notes WHERE tenant_id = ? AND segment_id = ? ORDER BY created_at, id`
	return queryEntities(ctx, r.db, q, []any{tenantID, parentID}, scanNote)
}

func (r *NoteRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + noteCols + ` FROM notes WHERE tenant_id = ?`
	args := []any{tenantID}
	if clause, a := likeClause(query.Keywords, "content"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	if clause, a := timeClause(query.TimeRange, "created_at"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	q += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, searchLimit(query))
	return queryEntities(ctx, r.db, q, args, scanNote)
}

// Create inserts a note row. Used by ingestion and tests.
func (r *NoteRepo) Create(ctx context.Context, n *store.Note) error {
	const q = `INSERT INTO notes (` + noteCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		n.ID, n.TenantID, n.SegmentID, n.Content,
		formatTimePtr(n.ValidFrom), formatTimePtr(n.ValidTo), marshalJSON(n.SourceIndices), formatTime(n.CreatedAt),
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating note %s: %w", n.ID, err)
	}
	return nil
}

// --- Schedules ---

// ScheduleRepo implements store.EntityRepository for schedules.
type ScheduleRepo struct {
	db *sql.DB
}

func (r *ScheduleRepo) Kind() store.EntityType { return store.TypeSchedule }

const scheduleCols = `id, tenant_id, segment_id, content, location, scheduled_at, valid_from, valid_to, source_indices, created_at`

func scanSchedule(row scanner) (store.Entity, error) {
	var (
		s                                                   store.Schedule
		scheduledAt, validFrom, validTo, indices, createdAt string
	)
	err := row.Scan(&s.ID, &s.TenantID, &s.SegmentID, &s.Content, &s.Location,
		&scheduledAt, &validFrom, &validTo, &indices, &createdAt)
	if err != nil {
		return nil, err
	}
	s.ScheduledAt = parseTimePtr(scheduledAt)
	s.ValidFrom = parseTimePtr(validFrom)
	s.ValidTo = parseTimePtr(validTo)
	s.SourceIndices = unmarshalInts(indices)
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

func (r *ScheduleRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	const q = `SELECT ` + scheduleCols + ` FROM schedules WHERE tenant_id = ? AND id = ?`
	e, err := scanSchedule(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		return nil, notFoundOrFailure(err, store.TypeSchedule, id, tenantID)
	}
	return e, nil
}

func (r *ScheduleRepo) GetByParent(ctx context.Context, tenantID, parentID string) ([]store.Entity, error) {
	const q = `SELECT ` + scheduleCols + ` FROM schedules WHERE tenant_id = ? AND segment_id = ? ORDER BY created_at, id`
	return queryEntities(ctx, r.db, q, []any{tenantID, parentID}, scanSchedule)
}

func (r *ScheduleRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + scheduleCols + ` FROM schedules WHERE tenant_id = ?`
	args := []any{tenantID}
	if clause, a := likeClause(query.Keywords, "content", "location"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	if clause, a := timeClause(query.TimeRange, "scheduled_at"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	q += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, searchLimit(query))
	return queryEntities(ctx, r.db, q, args, scanSchedule)
}

// Create inserts a schedule row. Used by ingestion and tests.
func (r *ScheduleRepo) Create(ctx context.Context, s *store.Schedule) error {
	const q = `INSERT INTO schedules (` + scheduleCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.TenantID, s.SegmentID, s.Content, s.Location, formatTimePtr(s.ScheduledAt),
		formatTimePtr(s.ValidFrom), formatTimePtr(s.ValidTo), marshalJSON(s.SourceIndices), formatTime(s.CreatedAt),
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating schedule %s: %w", s.ID, err)
	}
	return nil
}

// --- Reminders ---

// ReminderRepo implements store.EntityRepository for reminders.
type ReminderRepo struct {
	db *sql.DB
}

func (r *ReminderRepo) Kind() store.EntityType { return store.TypeReminder }

const reminderCols = `id, tenant_id, segment_id, content, remind_at, valid_from, valid_to, source_indices, created_at`

func scanReminder(row scanner) (store.Entity, error) {
	var (
		rem                                              store.Reminder
		remindAt, validFrom, validTo, indices, createdAt string
	)
	err := row.Scan(&rem.ID, &rem.TenantID, &rem.SegmentID, &rem.Content,
		&remindAt, &validFrom, &validTo, &indices, &createdAt)
	if err != nil {
		return nil, err
	}
	rem.RemindAt = parseTimePtr(remindAt)
	rem.ValidFrom = parseTimePtr(validFrom)
	rem.ValidTo = parseTimePtr(validTo)
	rem.SourceIndices = unmarshalInts(indices)
	rem.CreatedAt = parseTime(createdAt)
	return &rem, nil
}

func (r *ReminderRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	const q = `SELECT ` + reminderCols + ` FROM reminders WHERE tenant_id = ? AND id = ?`
	e, err := scanReminder(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		return nil, notFoundOrFailure(err, store.TypeReminder, id, tenantID)
	}
	return e, nil
}

func (r *ReminderRepo) GetByParent(ctx context.Context, tenantID, parentID string) ([]store.Entity, error) {
	const q = `SELECT ` + reminderCols + ` FROM reminders WHERE tenant_id = ? AND segment_id = ? ORDER BY created_at, id`
	return queryEntities(ctx, r.db, q, []any{tenantID, parentID}, scanReminder)
}

func (r *ReminderRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + reminderCols + ` FROM reminders WHERE tenant_id = ?`
	args := []any{tenantID}
	if clause, a := likeClause(query.Keywords, "content"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	if clause, a := timeClause(query.TimeRange, "remind_at"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	q += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, searchLimit(query))
	return queryEntities(ctx, r.db, q, args, scanReminder)
}

// Create inserts a reminder row. Used by ingestion and tests.
func (r *ReminderRepo) Create(ctx context.Context, rem *store.Reminder) error {
	const q = `INSERT INTO reminders (` + reminderCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		rem.ID, rem.TenantID, rem.SegmentID, rem.Content, formatTimePtr(rem.RemindAt),
		formatTimePtr(rem.ValidFrom), formatTimePtr(rem.ValidTo), marshalJSON(rem.SourceIndices), formatTime(rem.CreatedAt),
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating reminder %s: %w", rem.ID, err)
	}
	return nil
}

// --- Lines ---

// LineRepo implements store.EntityRepository for transcript lines.
type LineRepo struct {
	db *sql.DB
}

func (r *LineRepo) Kind() store.EntityType { return store.TypeLine }

const lineCols = `id, tenant_id, segment_id, speaker, text, started_at, source_indices, created_at`

func scanLine(row scanner) (store.Entity, error) {
	var (
		l                             store.Line
		startedAt, indices, createdAt string
	)
	err := row.Scan(&l.ID, &l.TenantID, &l.SegmentID, &l.Speaker, &l.Text, &startedAt, &indices, &createdAt)
	if err != nil {
		return nil, err
	}
	l.StartedAt = parseTime(startedAt)
	l.SourceIndices = unmarshalInts(indices)
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

func (r *LineRepo) Get(ctx context.Context, tenantID, id string) (store.Entity, error) {
	const q = `SELECT ` + lineCols + ` FROM lines WHERE tenant_id = ? AND id = ?`
	e, err := scanLine(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		return nil, notFoundOrFailure(err, store.TypeLine, id, tenantID)
	}
	return e, nil
}

func (r *LineRepo) GetByParent(ctx context.Context, tenantID, parentID string) ([]store.Entity, error) {
	const q = `SELECT ` + lineCols + ` FROM lines WHERE tenant_id = ? AND segment_id = ? ORDER BY started_at, id`
	return queryEntities(ctx, r.db, q, []any{tenantID, parentID}, scanLine)
}

func (r *LineRepo) Search(ctx context.Context, tenantID string, query store.SearchQuery) ([]store.Entity, error) {
	q := `SELECT ` + lineCols + ` FROM lines WHERE tenant_id = ?`
	args := []any{tenantID}
	if clause, a := likeClause(query.Keywords, "text", "speaker"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	if clause, a := timeClause(query.TimeRange, "started_at"); clause != "" {
		q += ` AND ` + clause
		args = append(args, a...)
	}
	q += ` ORDER BY started_at, id LIMIT ?`
	args = append(args, searchLimit(query))
	return queryEntities(ctx, r.db, q, args, scanLine)
}

// Create inserts a line row. Used by ingestion and tests.
func (r *LineRepo) Create(ctx context.Context, l *store.Line) error {
	const q = `INSERT INTO lines (` + lineCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.TenantID, l.SegmentID, l.Speaker, l.Text,
		formatTime(l.StartedAt), marshalJSON(l.SourceIndices), formatTime(l.CreatedAt),
	)
	if err != nil {
		return hserr.Errorf(hserr.CodeStoreDatabaseFailure, "creating line %s: %w", l.ID, err)
	}
	return nil
}
