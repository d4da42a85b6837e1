package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vigil/core"
	"vigil/metrics"
)

// SQLiteStore persists catalog content in SQLite, one row per item keyed
// by the full name. Content is stored as compact JSON.
type SQLiteStore struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteStore creates a catalog store over an open SQLite handle.
func NewSQLiteStore(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteStore {
	return &SQLiteStore{sqlite: sqlite, logger: logger}
}

// Get retrieves the document stored under name, or ErrNotFound.
func (s *SQLiteStore) Get(name core.Name) (*core.Document, error) {
	var content string
	err := s.sqlite.DB.QueryRow(
		`SELECT content FROM catalog_assets WHERE name = ?`, name.String(),
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("sqlite", "get").Inc()
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	doc, err := core.DocumentFromJSON([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("stored content for '%s' is corrupt: %w", name, err)
	}
	return doc, nil
}

// Add inserts a new document under name, or ErrAlreadyExists.
func (s *SQLiteStore) Add(name core.Name, doc *core.Document) error {
	content, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize content: %w", err)
	}
	_, err = s.sqlite.DB.Exec(
		`INSERT INTO catalog_assets (name, type, content) VALUES (?, ?, ?)`,
		name.String(), name.Part(0), string(content),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		metrics.StoreErrors.WithLabelValues("sqlite", "add").Inc()
		return fmt.Errorf("failed to insert content: %w", err)
	}
	return nil
}

// Update replaces the document under name, or ErrNotFound.
func (s *SQLiteStore) Update(name core.Name, doc *core.Document) error {
	content, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize content: %w", err)
	}
	result, err := s.sqlite.DB.Exec(
		`UPDATE catalog_assets SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		string(content), name.String(),
	)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("sqlite", "update").Inc()
		return fmt.Errorf("failed to update content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Delete removes the document under name, or ErrNotFound.
func (s *SQLiteStore) Delete(name core.Name) error {
	result, err := s.sqlite.DB.Exec(
		`DELETE FROM catalog_assets WHERE name = ?`, name.String(),
	)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("sqlite", "delete").Inc()
		return fmt.Errorf("failed to delete content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List enumerates every item name under a content type, sorted by name.
func (s *SQLiteStore) List(t core.Type) ([]core.Name, error) {
	rows, err := s.sqlite.DB.Query(
		`SELECT name FROM catalog_assets WHERE type = ? ORDER BY name`, t.String(),
	)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("sqlite", "list").Inc()
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer rows.Close()

	var names []core.Name
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		name, err := core.NewName(raw)
		if err != nil {
			s.logger.Warnf("sqlite store: skipping malformed stored name %q: %v", raw, err)
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate names: %w", err)
	}
	return names, nil
}

// isUniqueViolation reports whether err is a primary-key collision.
// modernc.org/sqlite surfaces SQLITE_CONSTRAINT in the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
