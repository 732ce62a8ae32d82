// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package oracle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"anonymous fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here is the plan:\n{\"a\":1}", `{"a":1}`},
		{"fence with prose", "Sure!\n```json\n{\"a\":1}\n```\nHope that helps.", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestDecodePlan(t *testing.T) {
	plan, err := DecodePlan(`{
		"entities": ["segment", "task"],
		"keywords": "budget",
		"time_range": {"start": "2026-03-01", "end": "2026-03-31T23:59:59Z"}
	}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"segment", "task"}, plan.EntityTypes)
	assert.Equal(t, "budget", plan.Keywords)
	require.NotNil(t, plan.TimeRange)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), plan.TimeRange.Start)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC), plan.TimeRange.End)
}

func TestDecodePlan_NullTimeRange(t *testing.T) {
	plan, err := DecodePlan(`{"entities": ["note"], "keywords": "groceries", "time_range": null}`)
	require.NoError(t, err)
	assert.Nil(t, plan.TimeRange)
}

func TestDecodePlan_RejectsGarbage(t *testing.T) {
	_, err := DecodePlan("the user wants tasks about budgets")
	require.Error(t, err)
}

func TestDecodeClassification(t *testing.T) {
	cls, err := DecodeClassification("```json\n" + `{
		"related_segments": [
			{"segment_id": "s1", "direction": "outgoing", "relationship_type": "FOLLOWS"},
			{"segment_id": "s2", "direction": "Incoming", "relationship_type": "CAUSED_BY"},
			{"segment_id": "", "direction": "outgoing", "relationship_type": "FOLLOWS"},
			{"segment_id": "s3", "direction": "sideways", "relationship_type": "FOLLOWS"}
		]
	}` + "\n```")
	require.NoError(t, err)

	// Entries with no id or a bad direction are dropped, not fatal.
	require.Len(t, cls.Related, 2)
	assert.Equal(t, Relation{MemberID: "s1", Direction: DirectionOutgoing, Type: "FOLLOWS"}, cls.Related[0])
	assert.Equal(t, Relation{MemberID: "s2", Direction: DirectionIncoming, Type: "CAUSED_BY"}, cls.Related[1])
}

func TestDecodeClassification_LegacySharedType(t *testing.T) {
	cls, err := DecodeClassification(`{
		"related_segments": [{"segment_id": "s1", "direction": "outgoing"}],
		"relationship_type": "RELATED_TO"
	}`)
	require.NoError(t, err)
	require.Len(t, cls.Related, 1)
	assert.Equal(t, "RELATED_TO", cls.Related[0].Type)
}

func TestDecodeClassification_EmptyList(t *testing.T) {
	cls, err := DecodeClassification(`{"related_segments": []}`)
	require.NoError(t, err)
	assert.Empty(t, cls.Related)
}

func TestPrompts_CarryTheirInputs(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	p := PlanPrompt("what happened with the budget", now)
	assert.Contains(t, p, "2026-08-29")
	assert.Contains(t, p, "what happened with the budget")

	cp := ClassifyPrompt(
		SegmentAttrs{ID: "s9", Title: "new segment"},
		[]SegmentAttrs{{ID: "s1", Title: "old segment"}},
		nil,
	)
	assert.Contains(t, cp, "s9")
	assert.Contains(t, cp, "s1")
	// Nil relation types fall back to the seed vocabulary.
	assert.Contains(t, cp, "FOLLOWS")

	sp := SummarizePrompt("who said what", []NodeSummary{{Type: "Segment", Title: "budget talk"}})
	assert.Contains(t, sp, "who said what")
	assert.Contains(t, sp, "budget talk")
}
