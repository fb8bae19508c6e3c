// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/database"
)

type TestDBOption func(*options)

type options struct {
	migrate bool
}

// WithAutoMigrate creates the StudyHub schema in the new database.
func WithAutoMigrate() TestDBOption {
	return func(o *options) { o.migrate = true }
}

// MustOpenTestDB opens a private in-memory SQLite database that lives until
// the test finishes. The random name keeps parallel tests from sharing state
// through the shared cache.
func MustOpenTestDB(t testing.TB, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:studyhub-%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if o.migrate {
		require.NoError(t, database.Migrate(db))
	}
	return db
}

// MustCreate inserts each row, failing the test on the first error.
func MustCreate(t testing.TB, db *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error, "insert %T", row)
	}
}
