// Package storage provides SQLite persistence for xrayboard.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection.
type DB struct {
	*sql.DB
	mu sync.RWMutex
}

var (
	instance *DB
	once     sync.Once
)

// GetDB returns the singleton database instance.
func GetDB() *DB {
	return instance
}

// Initialize creates and initializes the singleton database under dataDir.
func Initialize(dataDir string) (*DB, error) {
	var initErr error
	once.Do(func() {
		instance, initErr = Open(filepath.Join(dataDir, "xrayboard.db"))
	})
	return instance, initErr
}

// Open opens a database at an explicit path, outside the singleton.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	wrapped := &DB{DB: db}
	if err := wrapped.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return wrapped, nil
}

func (db *DB) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			detail TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}
