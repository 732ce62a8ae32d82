// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package oracle

import (
	"encoding/json"
	"strings"
	"time"

	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// ExtractJSON strips markdown code fences and surrounding prose from a model
// response, returning the first JSON object found. Models asked for raw JSON
// still wrap it in fences often enough that every backend needs this.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start > 0 {
		s = s[start:]
	}
	return s
}

type planPayload struct {
	Entities  []string          `json:"entities"`
	Keywords  string            `json:"keywords"`
	TimeRange *timeRangePayload `json:"time_range"`
}

type timeRangePayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DecodePlan parses a planner response into a QueryPlan.
func DecodePlan(raw string) (*QueryPlan, error) {
	var p planPayload
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &p); err != nil {
		return nil, hserr.Errorf(hserr.CodeOracleResponseInvalid, "decoding plan: %w", err)
	}

	plan := &QueryPlan{
		EntityTypes: p.Entities,
		Keywords:    p.Keywords,
	}
	if p.TimeRange != nil {
		start, okStart := parseOracleTime(p.TimeRange.Start)
		end, okEnd := parseOracleTime(p.TimeRange.End)
		if okStart || okEnd {
			plan.TimeRange = &TimeRange{Start: start, End: end}
		}
	}
	return plan, nil
}

type classificationPayload struct {
	Related []relatedPayload `json:"related_segments"`
	// Legacy shape: one relationship_type shared across all members.
	RelationshipType string `json:"relationship_type"`
}

type relatedPayload struct {
	SegmentID string `json:"segment_id"`
	Direction string `json:"direction"`
	Type      string `json:"relationship_type"`
}

// DecodeClassification parses a classifier response. Entries without a
// segment id or with an unknown direction are dropped rather than failing
// the whole response.
func DecodeClassification(raw string) (*Classification, error) {
	var p classificationPayload
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &p); err != nil {
		return nil, hserr.Errorf(hserr.CodeOracleResponseInvalid, "decoding classification: %w", err)
	}

	cls := &Classification{}
	for _, rel := range p.Related {
		if rel.SegmentID == "" {
			continue
		}
		dir := Direction(strings.ToLower(strings.TrimSpace(rel.Direction)))
		if dir != DirectionOutgoing && dir != DirectionIncoming {
			continue
		}
		relType := rel.Type
		if relType == "" {
			relType = p.RelationshipType
		}
		cls.Related = append(cls.Related, Relation{
			MemberID:  rel.SegmentID,
			Direction: dir,
			Type:      relType,
		})
	}
	return cls, nil
}

// parseOracleTime accepts RFC 3339 and the bare ISO form models commonly
// emit when no zone was requested.
func parseOracleTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
