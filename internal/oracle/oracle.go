// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

// Package oracle defines the narrow interfaces through which the graph core
// consults external decision services: query planning, relationship
// classification, and summarization. Prompt construction and model choice
// live entirely inside backend implementations; callers see inputs and
// outputs only, and every call reports its own token usage so no global
// counters are needed.
package oracle

import (
	"context"
	"time"
)

// Usage tracks token consumption for a single oracle call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// TimeRange bounds a planned query in time.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// QueryPlan is the structured plan a planner derives from a natural-language
// query. EntityTypes uses loose lower-case names; unknown names are ignored
// by the executor.
type QueryPlan struct {
	EntityTypes []string
	Keywords    string
	TimeRange   *TimeRange
}

// Planner turns a natural-language query into a structured plan.
type Planner interface {
	Plan(ctx context.Context, queryText, tenantID string) (*QueryPlan, Usage, error)
}

// SegmentAttrs carries the descriptive attributes of a segment offered to
// the classifier. It deliberately excludes tenant and storage detail.
type SegmentAttrs struct {
	ID          string
	Title       string
	MainTopic   string
	Subcategory string
	Summary     string
	Hashtags    []string
	StartedAt   time.Time
	EndedAt     time.Time
}

// Direction states which way a discovered relationship points relative to
// the candidate segment.
type Direction string

const (
	// DirectionOutgoing: the candidate points at the related member.
	DirectionOutgoing Direction = "outgoing"
	// DirectionIncoming: the related member points at the candidate.
	DirectionIncoming Direction = "incoming"
)

// Relation is one discovered edge between the candidate and a component
// member.
type Relation struct {
	MemberID  string
	Direction Direction
	Type      string
}

// Classification is the classifier's verdict for one (candidate, component)
// pair. An empty Related slice means no relationship was found.
type Classification struct {
	Related []Relation
}

// Classifier decides whether a candidate segment relates to any member of
// an existing component, and how.
type Classifier interface {
	Classify(ctx context.Context, candidate SegmentAttrs, members []SegmentAttrs) (*Classification, Usage, error)
}

// NodeSummary is the flattened node projection handed to the summarizer.
type NodeSummary struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Summarizer produces a short natural-language synopsis of a node set in
// the context of the text that produced it.
type Summarizer interface {
	Summarize(ctx context.Context, contextText string, nodes []NodeSummary) (string, Usage, error)
}

// Suite bundles the three oracle roles a deployment provides. Backends
// implement all three on one client.
type Suite interface {
	Planner
	Classifier
	Summarizer
}
