// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Store bundles every repository over a single SQLite database.
type Store struct {
	db *sql.DB

	conversations *ConversationRepo
	segments      *SegmentRepo
	tasks         *TaskRepo
	notes         *NoteRepo
	schedules     *ScheduleRepo
	reminders     *ReminderRepo
	lines         *LineRepo
	relationships *RelationshipStore
}

// Open opens (or creates) the SQLite database at dbPath and initialises
// every table.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, hserr.Errorf(hserr.CodeStoreDatabaseFailure, "migrating sqlite db: %w", err)
	}

	return &Store{
		db:            db,
		conversations: &ConversationRepo{db: db},
		segments:      &SegmentRepo{db: db},
		tasks:         &TaskRepo{db: db},
		notes:         &NoteRepo{db: db},
		schedules:     &ScheduleRepo{db: db},
		reminders:     &ReminderRepo{db: db},
		lines:         &LineRepo{db: db},
		relationships: &RelationshipStore{db: db},
	}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT NOT NULL,
	tenant_id  TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	topics     TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	hashtags   TEXT NOT NULL DEFAULT '[]',
	started_at TEXT NOT NULL DEFAULT '',
	ended_at   TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE TABLE IF NOT EXISTS segments (
	id              TEXT NOT NULL,
	tenant_id       TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	main_topic      TEXT NOT NULL DEFAULT '',
	subcategory     TEXT NOT NULL DEFAULT '',
	summary         TEXT NOT NULL DEFAULT '',
	hashtags        TEXT NOT NULL DEFAULT '[]',
	started_at      TEXT NOT NULL DEFAULT '',
	ended_at        TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	relationship_analyzed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_segments_conversation ON segments(tenant_id, conversation_id);
CREATE INDEX IF NOT EXISTS idx_segments_analyzed ON segments(tenant_id, relationship_analyzed, created_at);

CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT NOT NULL,
	tenant_id      TEXT NOT NULL,
	segment_id     TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	priority       TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	done           INTEGER NOT NULL DEFAULT 0,
	valid_from     TEXT NOT NULL DEFAULT '',
	valid_to       TEXT NOT NULL DEFAULT '',
	source_indices TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_segment ON tasks(tenant_id, segment_id);

CREATE TABLE IF NOT EXISTS notes (
	id             TEXT NOT NULL,
	tenant_id      TEXT NOT NULL,
	segment_id     TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	valid_from     TEXT NOT NULL DEFAULT '',
	valid_to       TEXT NOT NULL DEFAULT '',
	source_indices TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_notes_segment ON notes(tenant_id, segment_id);

CREATE TABLE IF NOT EXISTS schedules (
	id             TEXT NOT NULL,
	tenant_id      TEXT NOT NULL,
	segment_id     TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	scheduled_at   TEXT NOT NULL DEFAULT '',
	valid_from     TEXT NOT NULL DEFAULT '',
	valid_to       TEXT NOT NULL DEFAULT '',
	source_indices TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_schedules_segment ON schedules(tenant_id, segment_id);

CREATE TABLE IF NOT EXISTS reminders (
	id             TEXT NOT NULL,
	tenant_id      TEXT NOT NULL,
	segment_id     TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	remind_at      TEXT NOT NULL DEFAULT '',
	valid_from     TEXT NOT NULL DEFAULT '',
	valid_to       TEXT NOT NULL DEFAULT '',
	source_indices TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_reminders_segment ON reminders(tenant_id, segment_id);

CREATE TABLE IF NOT EXISTS lines (
	id             TEXT NOT NULL,
	tenant_id      TEXT NOT NULL,
	segment_id     TEXT NOT NULL DEFAULT '',
	speaker        TEXT NOT NULL DEFAULT '',
	text           TEXT NOT NULL DEFAULT '',
	started_at     TEXT NOT NULL DEFAULT '',
	source_indices TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_lines_segment ON lines(tenant_id, segment_id);

CREATE TABLE IF NOT EXISTS relationships (
	id                 TEXT PRIMARY KEY,
	tenant_id          TEXT NOT NULL,
	pointer_segment_id TEXT NOT NULL,
	target_segment_id  TEXT NOT NULL,
	type               TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relationships_pointer ON relationships(tenant_id, pointer_segment_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(tenant_id, target_segment_id);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Conversations() *ConversationRepo  { return s.conversations }
func (s *Store) Segments() *SegmentRepo            { return s.segments }
func (s *Store) Tasks() *TaskRepo                  { return s.tasks }
func (s *Store) Notes() *NoteRepo                  { return s.notes }
func (s *Store) Schedules() *ScheduleRepo          { return s.schedules }
func (s *Store) Reminders() *ReminderRepo          { return s.reminders }
func (s *Store) Lines() *LineRepo                  { return s.lines }
func (s *Store) Relationships() *RelationshipStore { return s.relationships }

// Catalog returns all entity repositories indexed by kind.
func (s *Store) Catalog() *store.Catalog {
	return store.NewCatalog(
		s.conversations,
		s.segments,
		s.tasks,
		s.notes,
		s.schedules,
		s.reminders,
		s.lines,
	)
}

// formatTime serialises a time for storage. Zero times store as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := parseTime(s)
	return &t
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalStrings(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func unmarshalInts(s string) []int {
	if s == "" || s == "[]" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// likeClause builds a "(col1 LIKE ? OR col2 LIKE ?)" filter over the given
// columns for a keyword search. Returns an empty clause for empty keywords.
func likeClause(keywords string, cols ...string) (string, []any) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return "", nil
	}
	pattern := "%" + keywords + "%"
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, col+" LIKE ?")
		args = append(args, pattern)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// timeClause builds a range filter over the given timestamp column.
func timeClause(tr *store.TimeRange, col string) (string, []any) {
	if tr == nil {
		return "", nil
	}
	var (
		parts []string
		args  []any
	)
	if !tr.Start.IsZero() {
		parts = append(parts, col+" >= ?")
		args = append(args, formatTime(tr.Start))
	}
	if !tr.End.IsZero() {
		parts = append(parts, col+" <= ?")
		args = append(args, formatTime(tr.End))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, " AND "), args
}

func searchLimit(q store.SearchQuery) int {
	if q.Limit <= 0 {
		return 100
	}
	return q.Limit
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	p := strings.Repeat("?,", n)
	return p[:len(p)-1]
}
