// Package storage provides the backing stores for catalog content: a
// SQLite store for durable single-node deployments and a Redis store for
// cache-style deployments. Both are keyed by the full content name and
// support enumeration by content type.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite holds the SQLite database connection used by SQLiteStore.
type SQLite struct {
	DB     *sql.DB
	Path   string
	Logger *zap.SugaredLogger
}

// NewSQLite opens (creating if needed) the catalog database at dbPath and
// applies the connection pragmas. ":memory:" is accepted for tests.
func NewSQLite(dbPath string, logger *zap.SugaredLogger) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite allows a single writer, and an in-memory database exists per
	// connection, so the pool must stay at one connection.
	db.SetMaxOpenConns(1)

	if err := configureConnection(db, dbPath); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{DB: db, Path: dbPath, Logger: logger}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof("SQLite catalog store ready at %s", dbPath)
	return s, nil
}

// configureConnection enables WAL mode and a busy timeout. SQLite allows a
// single writer; WAL keeps readers concurrent with it.
func configureConnection(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// In-memory databases report "memory" journal mode, not "wal".
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to query journal mode: %w", err)
	}
	if dbPath != ":memory:" && journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled (got: %s)", journalMode)
	}
	return nil
}

// createTables creates the catalog schema if it does not exist.
func (s *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS catalog_assets (
		name TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_catalog_assets_type ON catalog_assets(type);
	`
	if _, err := s.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.DB.Close()
}
