// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/store"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in   string
		want store.EntityType
		ok   bool
	}{
		{"Segment", store.TypeSegment, true},
		{"segments", store.TypeSegment, true},
		{"CONVERSATION", store.TypeConversation, true},
		{"task", store.TypeTask, true},
		{"calendar", store.TypeSchedule, true},
		{"Reminders", store.TypeReminder, true},
		{"line", store.TypeLine, true},
		{"widget", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := store.ParseEntityType(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestRenderFallbackTitles(t *testing.T) {
	c := &store.Conversation{ID: "c1", TenantID: "t1"}
	assert.Equal(t, "Conversation c1", c.Render().Title)

	s := &store.Segment{ID: "s1", TenantID: "t1", Summary: "fallback to summary"}
	assert.Equal(t, "fallback to summary", s.Render().Title)

	n := &store.Note{ID: "n1", TenantID: "t1"}
	assert.Equal(t, "Note n1", n.Render().Title)
}

func TestRenderDatePrecedence(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	created := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	s := &store.Segment{ID: "s1", StartedAt: started, CreatedAt: created}
	assert.Equal(t, started, s.Render().Date)

	s = &store.Segment{ID: "s1", CreatedAt: created}
	assert.Equal(t, created, s.Render().Date)

	remindAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	r := &store.Reminder{ID: "r1", RemindAt: &remindAt, CreatedAt: created}
	assert.Equal(t, remindAt, r.Render().Date)
}

func TestParentRefs(t *testing.T) {
	c := &store.Conversation{ID: "c1"}
	_, ok := c.Parent()
	assert.False(t, ok)

	s := &store.Segment{ID: "s1", ConversationID: "c1"}
	parent, ok := s.Parent()
	require.True(t, ok)
	assert.Equal(t, store.EntityRef{Type: store.TypeConversation, ID: "c1"}, parent)

	l := &store.Line{ID: "l1"}
	_, ok = l.Parent()
	assert.False(t, ok, "unanchored line has no parent")
}

func TestRelationshipLabel(t *testing.T) {
	rel := &store.Relationship{Type: "FOLLOWS"}
	assert.Equal(t, "FOLLOWS", rel.Label())

	rel = &store.Relationship{}
	assert.Equal(t, store.RelationTypeDefault, rel.Label())
}

func TestCatalogDeduplicatesAndKeepsOrder(t *testing.T) {
	c := store.NewCatalog()
	assert.Empty(t, c.Types())
	_, ok := c.ByType(store.TypeSegment)
	assert.False(t, ok)
}
