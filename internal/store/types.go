// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package store

import (
	"time"
)

// EntityType identifies one of the persisted entity kinds.
type EntityType string

const (
	TypeConversation EntityType = "Conversation"
	TypeSegment      EntityType = "Segment"
	TypeTask         EntityType = "Task"
	TypeNote         EntityType = "Note"
	TypeSchedule     EntityType = "Schedule"
	TypeReminder     EntityType = "Reminder"
	TypeLine         EntityType = "Line"
)

// AllEntityTypes lists every known entity type in display order. Used for
// fallback search plans and aggregate counts.
func AllEntityTypes() []EntityType {
	return []EntityType{
		TypeConversation,
		TypeSegment,
		TypeTask,
		TypeNote,
		TypeSchedule,
		TypeReminder,
		TypeLine,
	}
}

// ParseEntityType maps a loosely-cased type name (as returned by the planner
// oracle) to a known EntityType. Returns false for unknown names.
func ParseEntityType(name string) (EntityType, bool) {
	switch normalizeType(name) {
	case "conversation", "conversations":
		return TypeConversation, true
	case "segment", "segments":
		return TypeSegment, true
	case "task", "tasks":
		return TypeTask, true
	case "note", "notes":
		return TypeNote, true
	case "schedule", "schedules", "calendar":
		return TypeSchedule, true
	case "reminder", "reminders":
		return TypeReminder, true
	case "line", "lines":
		return TypeLine, true
	}
	return "", false
}

func normalizeType(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == ' ' || c == '\t' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// EntityRef uniquely identifies an entity within a tenant.
type EntityRef struct {
	Type EntityType
	ID   string
}

// Rendered is the common renderable projection shared by all entity kinds.
// The graph builder and search results consume entities only through this
// shape, so new kinds can be added without touching traversal code.
type Rendered struct {
	Title   string
	Summary string
	Date    time.Time
	Attrs   map[string]any
}

// Entity is the capability shared by every entity kind: identity, tenant
// scope, optional structural parent, and a renderable projection.
type Entity interface {
	Ref() EntityRef
	Tenant() string
	// Parent returns the structural containment parent, if any.
	Parent() (EntityRef, bool)
	Render() Rendered
}

// --- Conversation ---

// Conversation is the root container for one ingested recording.
type Conversation struct {
	ID        string
	TenantID  string
	Title     string
	Topics    string
	Summary   string
	Hashtags  []string
	StartedAt time.Time
	EndedAt   time.Time
	CreatedAt time.Time
}

func (c *Conversation) Ref() EntityRef { return EntityRef{Type: TypeConversation, ID: c.ID} }
func (c *Conversation) Tenant() string { return c.TenantID }

// Parent always reports none: conversations are roots.
func (c *Conversation) Parent() (EntityRef, bool) { return EntityRef{}, false }

func (c *Conversation) Render() Rendered {
	return Rendered{
		Title:   firstNonEmpty(c.Title, c.Summary, "Conversation "+c.ID),
		Summary: c.Summary,
		Date:    firstNonZero(c.StartedAt, c.CreatedAt),
		Attrs: map[string]any{
			"id":         c.ID,
			"topics":     c.Topics,
			"hashtags":   c.Hashtags,
			"started_at": c.StartedAt,
			"ended_at":   c.EndedAt,
		},
	}
}

// --- Segment ---

// Segment is a topic-coherent time slice of a Conversation. Segments are the
// only entity kind that carries lateral relationship edges.
type Segment struct {
	ID             string
	TenantID       string
	ConversationID string
	Title          string
	MainTopic      string
	Subcategory    string
	Summary        string
	Hashtags       []string
	StartedAt      time.Time
	EndedAt        time.Time
	CreatedAt      time.Time
	// RelationshipAnalyzed is monotonic: once the discovery engine has
	// offered the segment to the classifier it never reverts to false.
	RelationshipAnalyzed bool
}

func (s *Segment) Ref() EntityRef { return EntityRef{Type: TypeSegment, ID: s.ID} }
func (s *Segment) Tenant() string { return s.TenantID }

func (s *Segment) Parent() (EntityRef, bool) {
	if s.ConversationID == "" {
		return EntityRef{}, false
	}
	return EntityRef{Type: TypeConversation, ID: s.ConversationID}, true
}

func (s *Segment) Render() Rendered {
	return Rendered{
		Title:   firstNonEmpty(s.Title, s.Summary, "Segment "+s.ID),
		Summary: s.Summary,
		Date:    firstNonZero(s.StartedAt, s.CreatedAt),
		Attrs: map[string]any{
			"id":          s.ID,
			"main_topic":  s.MainTopic,
			"subcategory": s.Subcategory,
			"hashtags":    s.Hashtags,
			"started_at":  s.StartedAt,
			"ended_at":    s.EndedAt,
		},
	}
}

// --- Leaf entities ---

// Task is an actionable item extracted from a segment.
type Task struct {
	ID            string
	TenantID      string
	SegmentID     string // empty when unanchored
	Content       string
	Priority      string
	Category      string
	Done          bool
	ValidFrom     *time.Time
	ValidTo       *time.Time
	SourceIndices []int
	CreatedAt     time.Time
}

func (t *Task) Ref() EntityRef { return EntityRef{Type: TypeTask, ID: t.ID} }
func (t *Task) Tenant() string { return t.TenantID }

func (t *Task) Parent() (EntityRef, bool) {
	if t.SegmentID == "" {
		return EntityRef{}, false
	}
	return EntityRef{Type: TypeSegment, ID: t.SegmentID}, true
}

func (t *Task) Render() Rendered {
	return Rendered{
		Title:   firstNonEmpty(t.Content, "Task "+t.ID),
		Summary: t.Content,
		Date:    t.CreatedAt,
		Attrs: map[string]any{
			"id":             t.ID,
			"segment_id":     t.SegmentID,
			"priority":       t.Priority,
			"category":       t.Category,
			"done":           t.Done,
			"source_indices": t.SourceIndices,
		},
	}
}

// Note is a free-form observation extracted from a segment.
type Note struct {
	ID            string
	TenantID      string
	SegmentID     string
	Content       string
	ValidFrom     *time.Time
	ValidTo       *time.Time
	SourceIndices []int
	CreatedAt     time.Time
}

func (n *Note) Ref() EntityRef { return EntityRef{Type: TypeNote, ID: n.ID} }
func (n *Note) Tenant() string { return n.TenantID }

func (n *Note) Parent() (EntityRef, bool) {
	if n.SegmentID == "" {
		return EntityRef{}, false
	}
	return EntityRef{Type: TypeSegment, ID: n.SegmentID}, true
}

func (n *Note) Render() Rendered {
	return Rendered{
		Title:   firstNonEmpty(n.Content, "Note "+n.ID),
		Summary: n.Content,
		Date:    n.CreatedAt,
		Attrs: map[string]any{
			"id":             n.ID,
			"segment_id":     n.SegmentID,
			"source_indices": n.SourceIndices,
		},
	}
}

// Schedule is a calendar entry extracted from a segment.
type Schedule struct {
	ID            string
	TenantID      string
	SegmentID     string
	Content       string
	Location      string
	ScheduledAt   *time.Time
	ValidFrom     *time.Time
	ValidTo       *time.Time
	SourceIndices []int
	CreatedAt     time.Time
}

func (s *Schedule) Ref() EntityRef { return EntityRef{Type: TypeSchedule, ID: s.ID} }
func (s *Schedule) Tenant() string { return s.TenantID }

func (s *Schedule) Parent() (EntityRef, bool) {
	if s.SegmentID == "" {
		return EntityRef{}, false
	}
	return EntityRef{Type: TypeSegment, ID: s.SegmentID}, true
}

func (s *Schedule) Render() Rendered {
	date := s.CreatedAt
	if s.ScheduledAt != nil {
		date = *s.ScheduledAt
	}
	return Rendered{
		Title:   firstNonEmpty(s.Content, "Schedule "+s.ID),
		Summary: s.Content,
		Date:    date,
		Attrs: map[string]any{
			"id":             s.ID,
			"segment_id":     s.SegmentID,
			"location":       s.Location,
			"scheduled_at":   s.ScheduledAt,
			"source_indices": s.SourceIndices,
		},
	}
}

// Reminder is a time-triggered prompt extracted from a segment.
type Reminder struct {
	ID            string
	TenantID      string
	SegmentID     string
	Content       string
	RemindAt      *time.Time
	ValidFrom     *time.Time
	ValidTo       *time.Time
	SourceIndices []int
	CreatedAt     time.Time
}

func (r *Reminder) Ref() EntityRef { return EntityRef{Type: TypeReminder, ID: r.ID} }
func (r *Reminder) Tenant() string { return r.TenantID }

func (r *Reminder) Parent() (EntityRef, bool) {
	if r.SegmentID == "" {
		return EntityRef{}, false
	}
	return EntityRef{Type: TypeSegment, ID: r.SegmentID}, true
}

func (r *Reminder) Render() Rendered {
	date := r.CreatedAt
	if r.RemindAt != nil {
		date = *r.RemindAt
	}
	return Rendered{
		Title:   firstNonEmpty(r.Content, "Reminder "+r.ID),
		Summary: r.Content,
		Date:    date,
		Attrs: map[string]any{
			"id":             r.ID,
			"segment_id":     r.SegmentID,
			"remind_at":      r.RemindAt,
			"source_indices": r.SourceIndices,
		},
	}
}

// Line is a single transcript line. A line may be anchored to a segment or
// only by its audio timestamp.
type Line struct {
	ID            string
	TenantID      string
	SegmentID     string
	Speaker       string
	Text          string
	StartedAt     time.Time
	SourceIndices []int
	CreatedAt     time.Time
}

func (l *Line) Ref() EntityRef { return EntityRef{Type: TypeLine, ID: l.ID} }
func (l *Line) Tenant() string { return l.TenantID }

func (l *Line) Parent() (EntityRef, bool) {
	if l.SegmentID == "" {
		return EntityRef{}, false
	}
	return EntityRef{Type: TypeSegment, ID: l.SegmentID}, true
}

func (l *Line) Render() Rendered {
	title := l.Text
	if len(title) > 100 {
		title = title[:100] + "..."
	}
	return Rendered{
		Title:   firstNonEmpty(title, "Line "+l.ID),
		Summary: l.Text,
		Date:    firstNonZero(l.StartedAt, l.CreatedAt),
		Attrs: map[string]any{
			"id":             l.ID,
			"segment_id":     l.SegmentID,
			"speaker":        l.Speaker,
			"started_at":     l.StartedAt,
			"source_indices": l.SourceIndices,
		},
	}
}

// --- Relationship ---

// RelationTypeDefault labels lateral edges whose stored type is empty.
const RelationTypeDefault = "RELATED_TO"

// Relationship is a directed, typed edge between two segments of the same
// tenant. Rows are append-only.
type Relationship struct {
	ID               string
	TenantID         string
	PointerSegmentID string
	TargetSegmentID  string
	Type             string
	CreatedAt        time.Time
}

// Label returns the edge label, defaulting when the stored type is empty.
func (r *Relationship) Label() string {
	if r.Type == "" {
		return RelationTypeDefault
	}
	return r.Type
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...time.Time) time.Time {
	for _, v := range vals {
		if !v.IsZero() {
			return v
		}
	}
	return time.Time{}
}
