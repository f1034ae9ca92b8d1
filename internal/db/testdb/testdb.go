// Package testdb provides in-memory databases for tests.
package testdb

import (
	"database/sql"
	"testing"

	"github.com/ferrianes/foodmarket-backend/internal/db"
	"github.com/ferrianes/foodmarket-backend/internal/db/migrate"
	"github.com/ferrianes/foodmarket-backend/migrations"
	"github.com/stretchr/testify/require"
)

// Open returns an in-memory database with the current schema. It is closed
// when the test finishes.
//
// The database lives in a single connection, so it can be passed as both
// the write and the read pool.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB := OpenEmpty(t)

	_, err := migrate.RunFS(t.Context(), sqlDB, migrations.FS, migrate.Metadata{AppVersion: "test"})
	require.NoError(t, err, "failed to migrate test database")

	return sqlDB
}

// OpenEmpty is like Open, but without any migrations applied.
func OpenEmpty(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := db.OpenSQLite(":memory:", true)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return sqlDB
}
