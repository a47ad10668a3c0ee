package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/xrayboard/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEventSaveAndRecent(t *testing.T) {
	store := NewEventStorage(newTestDB(t))

	first := &model.Event{Type: "USER", Severity: "INFO", Message: "client added: alice"}
	require.NoError(t, store.Save(first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())

	second := &model.Event{
		Type: "SERVICE", Severity: "WARN", Message: "restart failed",
		Detail:    "exit status 1",
		Timestamp: first.Timestamp.Add(time.Second),
	}
	require.NoError(t, store.Save(second))

	events, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "restart failed", events[0].Message)
	assert.Equal(t, "exit status 1", events[0].Detail)
	assert.Equal(t, "client added: alice", events[1].Message)
}

func TestEventRecentLimit(t *testing.T) {
	store := NewEventStorage(newTestDB(t))
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(&model.Event{
			Type: "USER", Severity: "INFO", Message: "e",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := store.Recent(3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestEventPrune(t *testing.T) {
	store := NewEventStorage(newTestDB(t))
	require.NoError(t, store.Save(&model.Event{
		Type: "USER", Severity: "INFO", Message: "old",
		Timestamp: time.Now().UTC().Add(-48 * time.Hour),
	}))
	require.NoError(t, store.Save(&model.Event{
		Type: "USER", Severity: "INFO", Message: "new",
	}))

	pruned, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	events, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Message)
}
