// Package testutil provides a throwaway database for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bus_tracker/internal/store"
)

// OpenDB returns a migrated in-memory SQLite database with foreign keys
// enforced. Each call gets its own database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, store.New(db).Migrate(context.Background()))
	return db
}

// OpenStore is OpenDB wrapped in a Store.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(OpenDB(t))
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
