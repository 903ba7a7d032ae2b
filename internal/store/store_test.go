package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/foodforthought/internal/db"
)

// exerciseKV runs the shared contract against any implementation.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "streak", "3"))
	v, ok, err := kv.Get(ctx, "streak")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	require.NoError(t, kv.Set(ctx, "streak", "4"))
	v, _, _ = kv.Get(ctx, "streak")
	assert.Equal(t, "4", v)

	require.NoError(t, kv.Delete(ctx, "streak"))
	_, ok, err = kv.Get(ctx, "streak")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Delete(ctx, "never-set"))
}

func exerciseNamespaces(t *testing.T, n Namespaced) {
	t.Helper()
	ctx := context.Background()

	a, b := n.For("player-a"), n.For("player-b")
	require.NoError(t, a.Set(ctx, "k", "a"))
	require.NoError(t, b.Set(ctx, "k", "b"))

	v, _, _ := a.Get(ctx, "k")
	assert.Equal(t, "a", v)
	v, _, _ = b.Get(ctx, "k")
	assert.Equal(t, "b", v)
	_, ok, _ := n.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())

	m := NewMemory()
	exerciseNamespaces(t, m)
	assert.Equal(t, 2, m.Len())
}

func TestSQL(t *testing.T) {
	conn, err := db.OpenTest(context.Background(), t.Name())
	require.NoError(t, err)
	defer conn.Close()

	s := NewSQL(conn)
	exerciseKV(t, s)
	exerciseNamespaces(t, s)
}

func TestSQLPrune(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenTest(ctx, t.Name())
	require.NoError(t, err)
	defer conn.Close()

	s := NewSQL(conn)
	require.NoError(t, s.Set(ctx, "old", "1"))

	n, err := s.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "fft.json")
	f, err := OpenFile(path)
	require.NoError(t, err)
	exerciseKV(t, f)

	ctx := context.Background()
	require.NoError(t, f.Set(ctx, "lastPlayedDate", "2025-03-01"))

	// a second handle sees what the first wrote
	g, err := OpenFile(path)
	require.NoError(t, err)
	v, ok, err := g.Get(ctx, "lastPlayedDate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-01", v)
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fft.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := OpenFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	f, err := OpenFile(path)
	require.NoError(t, err)
	_, ok, _ := f.Get(context.Background(), "x")
	assert.False(t, ok)
}
