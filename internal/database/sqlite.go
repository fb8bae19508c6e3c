package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sharedMemoryDSN = "file::memory:?cache=shared&_foreign_keys=1"

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, inMemory, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection serialises writers; sqlite would otherwise answer
	// concurrent invitation accepts with "database is locked".
	sqlDB.SetMaxOpenConns(1)
	if inMemory {
		// Closing the last connection discards an in-memory database.
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return db, nil
}

// sqliteDSN resolves the connection string and whether it names an
// in-memory database. A file path gets WAL mode and a busy timeout, and its
// directory is created if missing.
func sqliteDSN(cfg Config) (string, bool, error) {
	if cfg.DSN != "" {
		return cfg.DSN, strings.Contains(cfg.DSN, "mode=memory") || strings.Contains(cfg.DSN, ":memory:"), nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return sharedMemoryDSN, true, nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", false, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}
	return "file:" + filepath.ToSlash(path) + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", false, nil
}
