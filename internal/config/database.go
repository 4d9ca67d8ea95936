package config

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bus_tracker/internal/logger"
	"bus_tracker/internal/store"
)

// Dialector picks the database/sql driver behind the postgres dialector:
// pgx by default, lib/pq when DB_DRIVER=pq.
func Dialector(s Settings) gorm.Dialector {
	if s.DBDriver == "pq" {
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: s.DSN()})
	}
	return postgres.Open(s.DSN())
}

// OpenDB connects to the database and migrates the schema.
func OpenDB(ctx context.Context, s Settings) (*gorm.DB, error) {
	db, err := gorm.Open(Dialector(s), &gorm.Config{
		Logger:         logger.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := store.New(db).Migrate(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
