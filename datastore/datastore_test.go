package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "files"), 2, nil)
	require.NoError(t, err)
	sqlite, err := NewSQLite(filepath.Join(dir, "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"file":   file,
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Load(ctx, "smart_memory")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Save(ctx, "smart_memory", []byte(`{"a":1}`)))
			require.NoError(t, b.Save(ctx, "smart_memory", []byte(`{"a":2}`)))
			got, err := b.Load(ctx, "smart_memory")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))

			require.NoError(t, b.Delete(ctx, "smart_memory"))
			_, err = b.Load(ctx, "smart_memory")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendList(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Save(ctx, "conversations/2", []byte(`{}`)))
			require.NoError(t, b.Save(ctx, "conversations/1", []byte(`{}`)))
			require.NoError(t, b.Save(ctx, "knowledge_base", []byte(`{}`)))

			names, err := b.List(ctx, "conversations/")
			require.NoError(t, err)
			assert.Equal(t, []string{"conversations/1", "conversations/2"}, names)

			all, err := b.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range []string{"", "../escape", "/abs"} {
				assert.Error(t, b.Save(ctx, bad, []byte(`{}`)), bad)
			}
		})
	}
}

func TestFileStoreBackupsAreRotated(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, 1, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "profiles", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "profiles", []byte(`{"v":2}`)))
	require.NoError(t, s.Save(ctx, "profiles", []byte(`{"v":3}`)))

	matches, err := filepath.Glob(filepath.Join(dir, "profiles.json.backup.*"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 1)

	_, err = os.Stat(filepath.Join(dir, "profiles.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, 3, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "triggers", []byte(`{}`)))
	require.NoError(t, s.Save(ctx, "triggers", []byte(`{}`)))

	matches, _ := filepath.Glob(filepath.Join(dir, "triggers.json.backup.*"))
	assert.Empty(t, matches)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(KindMemory, dir, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, b)

	b, err = Open(KindFile, dir, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, b)

	_, err = Open("redis", dir, 0, nil)
	assert.Error(t, err)
}
