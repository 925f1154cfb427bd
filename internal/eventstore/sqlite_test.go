package eventstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	humanrail "github.com/prime001/humanrail-sdk"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func event(id, taskID string, status humanrail.TaskStatus) *humanrail.WebhookEvent {
	return &humanrail.WebhookEvent{
		ID:        id,
		Type:      humanrail.WebhookEventTaskPosted,
		CreatedAt: "2026-08-30T12:00:00Z",
		Data:      humanrail.Task{ID: taskID, Status: status},
	}
}

func TestInsertEvent_Dedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ev := event("evt_001", "tsk_001", humanrail.TaskStatusPosted)

	inserted, err := s.InsertEvent(ctx, ev, []byte(`{"id":"evt_001"}`))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertEvent(ctx, ev, []byte(`{"id":"evt_001"}`))
	require.NoError(t, err)
	assert.False(t, inserted, "redelivery of the same event ID must be a no-op")
}

func TestInsertEvent_DistinctIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.InsertEvent(ctx, event("evt_001", "tsk_001", humanrail.TaskStatusPosted), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertEvent(ctx, event("evt_002", "tsk_001", humanrail.TaskStatusAssigned), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestUpsertTask_TracksTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTask(ctx, &humanrail.Task{ID: "tsk_001", Status: humanrail.TaskStatusPosted}))
	require.NoError(t, s.UpsertTask(ctx, &humanrail.Task{ID: "tsk_002", Status: humanrail.TaskStatusAssigned}))
	require.NoError(t, s.UpsertTask(ctx, &humanrail.Task{ID: "tsk_003", Status: humanrail.TaskStatusVerified}))

	ids, err := s.ListNonTerminal(ctx, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tsk_001", "tsk_002"}, ids)

	// Terminal transition removes the task from the reconcile set.
	require.NoError(t, s.UpsertTask(ctx, &humanrail.Task{ID: "tsk_001", Status: humanrail.TaskStatusFailed}))

	ids, err = s.ListNonTerminal(ctx, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tsk_002"}, ids)
}

func TestListNonTerminal_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"tsk_001", "tsk_002", "tsk_003"} {
		require.NoError(t, s.UpsertTask(ctx, &humanrail.Task{ID: id, Status: humanrail.TaskStatusPosted}))
	}

	ids, err := s.ListNonTerminal(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTask(ctx, &humanrail.Task{ID: "tsk_001", Status: humanrail.TaskStatusPosted}))
	require.NoError(t, s.DeleteTask(ctx, "tsk_001"))

	ids, err := s.ListNonTerminal(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Deleting an unknown task is not an error.
	assert.NoError(t, s.DeleteTask(ctx, "tsk_missing"))
}

func TestOpenSQLite_CreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "events.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", "")
	assert.ErrorContains(t, err, "unknown store driver")
}
