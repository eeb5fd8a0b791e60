// Package localdb provides a SQLite implementation of the db.Store contract
// for local development and tests. It uses a pure Go driver, so no cgo or
// running database server is needed.
package localdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/justestif/skate-sessions/internal/db"
)

// DB wraps a gorm connection to a SQLite file.
type DB struct {
	gorm *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	// SQLite has a single writer; one connection also keeps the foreign_keys
	// pragma in effect for every statement.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &DB{gorm: gdb}, nil
}

// Migrate creates or updates the schema.
func (d *DB) Migrate(ctx context.Context) error {
	err := d.gorm.WithContext(ctx).AutoMigrate(
		&trickRow{},
		&sessionRow{},
		&sessionTrickRow{},
		&userSessionRow{},
	)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Sessions returns the session repository.
func (d *DB) Sessions() db.SessionRepo {
	return &sessionRepo{gorm: d.gorm}
}

// SessionTricks returns the session trick repository.
func (d *DB) SessionTricks() db.SessionTrickRepo {
	return &sessionTrickRepo{gorm: d.gorm}
}

// Tricks returns the trick catalog repository.
func (d *DB) Tricks() db.TrickRepo {
	return &trickRepo{gorm: d.gorm}
}

// UserSessions returns the login session repository.
func (d *DB) UserSessions() db.UserSessionRepo {
	return &userSessionRepo{gorm: d.gorm}
}

var _ db.Store = (*DB)(nil)
