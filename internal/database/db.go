package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // SQLite database path when Driver == sqlite
	DSN      string // Optional DSN override
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	var (
		db  *gorm.DB
		err error
	)

	switch driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres", "postgresql":
		db, err = openPostgres(cfg)
	case "mysql":
		db, err = openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := applyPool(db, driver, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema, used during application start-up.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// applyPool tunes the connection pool. sqlite keeps the single connection
// and lifetime chosen by openSQLite, so only MaxIdleConns applies to it.
func applyPool(db *gorm.DB, driver string, cfg Config) error {
	if driver == "sqlite" {
		cfg.MaxOpenConns = 0
		cfg.ConnMaxLifetime = 0
	}
	if cfg.MaxOpenConns <= 0 && cfg.MaxIdleConns <= 0 && cfg.ConnMaxLifetime <= 0 {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}
