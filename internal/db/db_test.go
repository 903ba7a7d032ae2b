package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenTest(ctx, t.Name())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(1) FROM _migrations`))
	assert.Equal(t, 4, n)

	for _, table := range []string{"dishes", "players", "daily_results", "kv"} {
		var c int
		require.NoError(t, db.Get(&c, `SELECT COUNT(1) FROM `+table), table)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, path)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.Error(t, err)
}

func TestWithParams(t *testing.T) {
	assert.Equal(t, "a.db?x=1", withParams("a.db", "x=1"))
	assert.Equal(t, "file:a?mode=memory&x=1", withParams("file:a?mode=memory", "x=1"))
}
