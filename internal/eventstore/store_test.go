package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

const testBuildID = "build-123"

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndBuild(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, Event{BuildID: testBuildID, Type: TypePageBuilt, Slug: "a", Payload: []byte(`{"slug":"a"}`)}))
	require.NoError(t, store.Append(ctx, Event{BuildID: "other", Type: TypeBuildStarted, Payload: []byte(`{}`)}))

	events, err := store.Build(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Positive(t, e.ID)
	assert.Equal(t, testBuildID, e.BuildID)
	assert.Equal(t, TypePageBuilt, e.Type)
	assert.Equal(t, "a", e.Slug)
	assert.JSONEq(t, `{"slug":"a"}`, string(e.Payload))
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)
}

func TestSQLiteStore_BuildLevelEventsHaveNoSlug(t *testing.T) {
	store := newMemoryStore(t)
	require.NoError(t, store.Append(t.Context(), Event{BuildID: testBuildID, Type: TypeBuildStarted, Payload: []byte(`{}`)}))

	events, err := store.Build(t.Context(), testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Slug)
}

func TestSQLiteStore_Since(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, Event{BuildID: "b1", Type: "E", Payload: []byte(`{}`)}))
	require.NoError(t, store.Append(ctx, Event{BuildID: "b2", Type: "E", Payload: []byte(`{}`)}))

	events, err := store.Since(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.Since(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteStore_PageHistoryNewestFirst(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, store.Append(ctx, Event{BuildID: id, Type: TypePageBuilt, Slug: "a", Payload: []byte(`{}`)}))
		require.NoError(t, store.Append(ctx, Event{BuildID: id, Type: TypePageBuilt, Slug: "b", Payload: []byte(`{}`)}))
	}

	events, err := store.PageHistory(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "b3", events[0].BuildID)
	assert.Equal(t, "b2", events[1].BuildID)

	events, err = store.PageHistory(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), Event{BuildID: testBuildID, Type: "E", Payload: []byte(`{}`)}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.Build(t.Context(), testBuildID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestNewSQLiteStore_BadPath(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "ledger.db"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}
