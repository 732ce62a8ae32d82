// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

// Package discovery incrementally classifies newly created segments into
// the existing relationship graph. A run is tenant-scoped and serialized
// per tenant; classification failures degrade to isolation instead of
// aborting the run.
package discovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hindsight-dev/hindsight/internal/oracle"
	"github.com/hindsight-dev/hindsight/internal/store"
	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Report summarizes one discovery run.
type Report struct {
	// Processed counts candidates examined and marked analyzed this run.
	Processed int `json:"processed"`
	// NewEdges counts relationship rows persisted this run.
	NewEdges int `json:"new_edges"`
	// Grouped counts candidates that joined an existing component.
	Grouped int `json:"grouped"`
	// Singletons counts candidates that opened a new component.
	Singletons int `json:"singletons"`
	// FailedClassifications counts (candidate, component) pairs whose
	// classifier call errored or returned garbage.
	FailedClassifications int `json:"failed_classifications"`

	Usage oracle.Usage `json:"usage"`
}

// Engine drives relationship discovery for one store.
type Engine struct {
	segments   store.SegmentRepository
	rels       store.RelationshipStore
	classifier oracle.Classifier
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a discovery engine.
func NewEngine(segments store.SegmentRepository, rels store.RelationshipStore, classifier oracle.Classifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		segments:   segments,
		rels:       rels,
		classifier: classifier,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (e *Engine) tenantLock(tenantID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[tenantID] = l
	}
	return l
}

// Run processes every unanalyzed segment of the tenant. Candidates are
// offered to existing components in order and join the first component the
// classifier relates them to; unmatched candidates open singleton
// components. All candidates examined this run are flipped to analyzed in
// one batch, matched or not. Concurrent runs for the same tenant are
// rejected with a conflict error.
func (e *Engine) Run(ctx context.Context, tenantID string) (*Report, error) {
	lock := e.tenantLock(tenantID)
	if !lock.TryLock() {
		return nil, hserr.New(hserr.CodeDiscoveryRunBusy, "discovery run already in progress for tenant",
			hserr.FieldTenantID(tenantID))
	}
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, hserr.Wrap(err, hserr.CodeDiscoveryRunCanceled, "discovery run canceled",
			hserr.FieldTenantID(tenantID))
	}

	analyzed, err := e.segments.ListByAnalyzed(ctx, tenantID, true)
	if err != nil {
		return nil, hserr.Wrap(err, hserr.CodeDiscoveryRunFailure, "loading analyzed segments")
	}
	existing, err := e.rels.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, hserr.Wrap(err, hserr.CodeDiscoveryRunFailure, "loading relationships")
	}
	comps := components(analyzed, existing)

	candidates, err := e.segments.ListByAnalyzed(ctx, tenantID, false)
	if err != nil {
		return nil, hserr.Wrap(err, hserr.CodeDiscoveryRunFailure, "loading candidate segments")
	}

	report := &Report{}
	var processedIDs []string

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			if markErr := e.markProcessed(tenantID, processedIDs); markErr != nil {
				return nil, markErr
			}
			return nil, hserr.Wrap(err, hserr.CodeDiscoveryRunCanceled, "discovery run canceled",
				hserr.FieldTenantID(tenantID))
		}

		matched, err := e.classifyCandidate(ctx, tenantID, candidate, comps, report)
		if err != nil {
			return nil, err
		}
		if matched {
			report.Grouped++
		} else {
			comps = append(comps, newComponent(candidate))
			report.Singletons++
		}

		report.Processed++
		processedIDs = append(processedIDs, candidate.ID)
	}

	if err := e.markProcessed(tenantID, processedIDs); err != nil {
		return nil, err
	}

	e.logger.Info("discovery run complete",
		"tenant_id", tenantID,
		"processed", report.Processed,
		"new_edges", report.NewEdges,
		"grouped", report.Grouped,
		"singletons", report.Singletons,
		"failed_classifications", report.FailedClassifications,
		"input_tokens", report.Usage.InputTokens,
		"output_tokens", report.Usage.OutputTokens)
	return report, nil
}

// classifyCandidate scans components in order and persists edges for the
// first component the classifier relates the candidate to. Returns whether
// the candidate joined a component.
func (e *Engine) classifyCandidate(ctx context.Context, tenantID string, candidate *store.Segment, comps []*component, report *Report) (bool, error) {
	candidateAttrs := segmentAttrs(candidate)

	for _, comp := range comps {
		memberAttrs := make([]oracle.SegmentAttrs, 0, len(comp.members))
		for _, m := range comp.members {
			memberAttrs = append(memberAttrs, segmentAttrs(m))
		}

		cls, usage, err := e.classifier.Classify(ctx, candidateAttrs, memberAttrs)
		report.Usage = report.Usage.Add(usage)
		if err != nil {
			report.FailedClassifications++
			e.logger.Warn("classification failed, treating as unrelated",
				"tenant_id", tenantID,
				"segment_id", candidate.ID,
				"error", err)
			continue
		}

		rels := e.buildEdges(tenantID, candidate, comp, cls)
		if len(rels) == 0 {
			continue
		}

		// Re-read the flag before writing: another process may have
		// analyzed this segment while the classifier was running.
		fresh, err := e.segments.GetSegment(ctx, tenantID, candidate.ID)
		if err != nil {
			return false, hserr.Wrapf(err, hserr.CodeDiscoveryRunFailure,
				"re-checking segment %s before persist", candidate.ID)
		}
		if fresh.RelationshipAnalyzed {
			e.logger.Info("segment analyzed concurrently, skipping edge persist",
				"tenant_id", tenantID,
				"segment_id", candidate.ID)
			return true, nil
		}

		if err := e.rels.BulkInsert(ctx, rels); err != nil {
			return false, hserr.Wrapf(err, hserr.CodeDiscoveryRunFailure,
				"persisting discovered edges for segment %s", candidate.ID)
		}
		report.NewEdges += len(rels)
		comp.add(candidate)
		return true, nil
	}
	return false, nil
}

// buildEdges converts a classification into relationship rows, assigning
// pointer and target from the stated direction. Relations naming a segment
// outside the component are dropped.
func (e *Engine) buildEdges(tenantID string, candidate *store.Segment, comp *component, cls *oracle.Classification) []*store.Relationship {
	var out []*store.Relationship
	for _, rel := range cls.Related {
		if rel.MemberID == candidate.ID || !comp.contains(rel.MemberID) {
			e.logger.Warn("classifier named a segment outside the component, dropping",
				"tenant_id", tenantID,
				"segment_id", candidate.ID,
				"member_id", rel.MemberID)
			continue
		}

		row := &store.Relationship{
			TenantID: tenantID,
			Type:     rel.Type,
		}
		switch rel.Direction {
		case oracle.DirectionOutgoing:
			row.PointerSegmentID = candidate.ID
			row.TargetSegmentID = rel.MemberID
		case oracle.DirectionIncoming:
			row.PointerSegmentID = rel.MemberID
			row.TargetSegmentID = candidate.ID
		default:
			continue
		}
		out = append(out, row)
	}
	return out
}

// markProcessed flips the analyzed flag for the run's candidates in one
// statement. Uses a background context so a canceled run still records the
// work it finished.
func (e *Engine) markProcessed(tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := e.segments.MarkAnalyzed(context.Background(), tenantID, ids); err != nil {
		return hserr.Wrap(err, hserr.CodeDiscoveryRunFailure, "marking segments analyzed")
	}
	return nil
}

func segmentAttrs(s *store.Segment) oracle.SegmentAttrs {
	return oracle.SegmentAttrs{
		ID:          s.ID,
		Title:       s.Title,
		MainTopic:   s.MainTopic,
		Subcategory: s.Subcategory,
		Summary:     s.Summary,
		Hashtags:    s.Hashtags,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
	}
}
