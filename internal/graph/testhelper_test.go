// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package graph_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/oracle"
	"github.com/hindsight-dev/hindsight/internal/store"
	"github.com/hindsight-dev/hindsight/internal/store/sqlite"
)

func openStore(t *testing.T, name string) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), name+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedConversation(t *testing.T, st *sqlite.Store, tenantID, id, title string) {
	t.Helper()
	require.NoError(t, st.Conversations().Create(context.Background(), &store.Conversation{
		ID: id, TenantID: tenantID, Title: title,
		StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	}))
}

func seedSegment(t *testing.T, st *sqlite.Store, tenantID, id, conversationID, title string) {
	t.Helper()
	require.NoError(t, st.Segments().Create(context.Background(), &store.Segment{
		ID: id, TenantID: tenantID, ConversationID: conversationID,
		Title: title, Summary: title + " summary",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	}))
}

func seedTask(t *testing.T, st *sqlite.Store, tenantID, id, segmentID, content string) {
	t.Helper()
	require.NoError(t, st.Tasks().Create(context.Background(), &store.Task{
		ID: id, TenantID: tenantID, SegmentID: segmentID,
		Content: content, CreatedAt: time.Now(),
	}))
}

func seedEdge(t *testing.T, st *sqlite.Store, tenantID, pointer, target, relType string) {
	t.Helper()
	require.NoError(t, st.Relationships().BulkInsert(context.Background(), []*store.Relationship{
		{TenantID: tenantID, PointerSegmentID: pointer, TargetSegmentID: target, Type: relType},
	}))
}

// fakeSummarizer returns a canned synopsis, or an error when told to fail.
type fakeSummarizer struct {
	text  string
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, _ []oracle.NodeSummary) (string, oracle.Usage, error) {
	f.calls++
	if f.err != nil {
		return "", oracle.Usage{InputTokens: 5}, f.err
	}
	return f.text, oracle.Usage{InputTokens: 10, OutputTokens: 4}, nil
}
