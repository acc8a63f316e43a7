package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyToken, "first"))
	value, ok, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", value)

	// Last write wins.
	require.NoError(t, store.Set(ctx, KeyToken, "second"))
	value, _, err = store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	require.NoError(t, store.Delete(ctx, KeyToken))
	_, ok, err = store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, store.Delete(ctx, KeyToken))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyUser, `{"id":"1"}`))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, ok, err := second.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"id":"1"}`, value)
}

func TestFileStoreKeySanitized(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "../escape", "value"))
	value, ok, err := store.Get(ctx, "../escape")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", value)
}
