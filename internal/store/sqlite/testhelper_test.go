// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/store"
	"github.com/hindsight-dev/hindsight/internal/store/sqlite"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "hindsight-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

// openStore opens a fresh store on a temp database.
func openStore(t *testing.T, name string) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(testDBPath(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedConversation(t *testing.T, st *sqlite.Store, tenantID, id, title string) {
	t.Helper()
	err := st.Conversations().Create(context.Background(), &store.Conversation{
		ID:        id,
		TenantID:  tenantID,
		Title:     title,
		StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func seedSegment(t *testing.T, st *sqlite.Store, tenantID, id, conversationID, title string) {
	t.Helper()
	err := st.Segments().Create(context.Background(), &store.Segment{
		ID:             id,
		TenantID:       tenantID,
		ConversationID: conversationID,
		Title:          title,
		Summary:        title + " summary",
		StartedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		CreatedAt:      time.Now(),
	})
	require.NoError(t, err)
}
