// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultRelationTypes is the seed vocabulary offered to the classifier
// when a deployment configures none.
func DefaultRelationTypes() []string {
	return []string{"FOLLOWS", "PRECEDES", "CAUSED_BY", "RELATED_TO"}
}

// PlanPrompt renders the planner instruction for a user query. Shared by
// every backend so plans stay comparable across providers.
func PlanPrompt(queryText string, now time.Time) string {
	return fmt.Sprintf(`You are a query planner for a personal conversation knowledge base.
Known entity types: conversation, segment, task, note, schedule, reminder, line.
Today is %s.

Translate the user question into a single JSON object:
{"entities": ["..."], "keywords": "...", "time_range": {"start": "...", "end": "..."}}

Rules:
- "entities": the entity types the user is asking about. Use every type when the question is generic.
- "keywords": the core search terms, or null when the question is purely temporal.
- "time_range": ISO 8601 start and end when the question names a period, otherwise null.
- Output the JSON object only, nothing else.

User question: %q`, now.Format("2006-01-02"), queryText)
}

// ClassifyPrompt renders the classifier instruction for a candidate segment
// against one component's members.
func ClassifyPrompt(candidate SegmentAttrs, members []SegmentAttrs, relationTypes []string) string {
	if len(relationTypes) == 0 {
		relationTypes = DefaultRelationTypes()
	}

	candidateJSON, _ := json.Marshal(segmentAttrsPayload(candidate))
	memberPayloads := make([]map[string]any, 0, len(members))
	for _, m := range members {
		memberPayloads = append(memberPayloads, segmentAttrsPayload(m))
	}
	membersJSON, _ := json.Marshal(memberPayloads)

	return fmt.Sprintf(`You group conversation segments that belong to the same ongoing thread of events.

Candidate segment:
%s

Existing group members:
%s

Decide which members, if any, the candidate is related to. Valid relationship types: %s.
Direction "outgoing" means the candidate points at the member; "incoming" means the member points at the candidate.

Respond with a single JSON object:
{"related_segments": [{"segment_id": "...", "direction": "outgoing|incoming", "relationship_type": "..."}]}

Use an empty list when nothing is related. Output the JSON object only.`,
		candidateJSON, membersJSON, strings.Join(relationTypes, ", "))
}

// SummarizePrompt renders the summarizer instruction over a node set.
func SummarizePrompt(contextText string, nodes []NodeSummary) string {
	nodesJSON, _ := json.MarshalIndent(nodes, "", "  ")
	return fmt.Sprintf(`Answer the user's question from the retrieved nodes below.
Focus on the key events and how they relate; keep it to at most three sentences
of plain prose. No JSON, no markup, no technical detail.

User question: %s

Retrieved nodes:
%s`, contextText, nodesJSON)
}

func segmentAttrsPayload(a SegmentAttrs) map[string]any {
	p := map[string]any{
		"segment_id": a.ID,
		"title":      a.Title,
		"summary":    a.Summary,
	}
	if a.MainTopic != "" {
		p["main_topic"] = a.MainTopic
	}
	if a.Subcategory != "" {
		p["subcategory"] = a.Subcategory
	}
	if len(a.Hashtags) > 0 {
		p["hashtags"] = a.Hashtags
	}
	if !a.StartedAt.IsZero() {
		p["started_at"] = a.StartedAt.Format(time.RFC3339)
	}
	if !a.EndedAt.IsZero() {
		p["ended_at"] = a.EndedAt.Format(time.RFC3339)
	}
	return p
}
