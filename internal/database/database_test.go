package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Contains(t, sqliteDSN("appeals.db"), "_pragma=foreign_keys(1)")
	assert.Contains(t, sqliteDSN("appeals.db"), "_time_format=sqlite")
	assert.Equal(t, "file.db?mode=ro", sqliteDSN("file.db?mode=ro"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	assert.Error(t, err)
}

func TestMigrateUpIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "appeals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, MigrateUp(ctx, db, DriverSQLite, zerolog.Nop()))
	require.NoError(t, MigrateUp(ctx, db, DriverSQLite, zerolog.Nop()))

	for _, table := range []string{"tickets", "active_index", "pending_forwards"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.Error(t, MigrateUp(ctx, db, "mysql", zerolog.Nop()))
}
