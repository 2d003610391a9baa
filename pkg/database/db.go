package database

import (
	"fmt"

	"bonded.app/memories/internal/entity"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the postgres database described by dsn.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	return open(postgres.Open(dsn), debug)
}

// OpenSQLite opens a sqlite database, ":memory:" included. Used by tests and local runs.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := open(sqlite.Open(path), false)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every new connection would get its own empty in-memory database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entity.All()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	zap.L().Info("database migrated", zap.Int("models", len(entity.All())))
	return nil
}
