// Package sqlite stores map documents in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"treasuremap/internal/infra/persistence/sqldoc"
)

// DefaultPath is used when no file is configured.
const DefaultPath = "treasuremap.db"

// Store is a sqldoc store bound to a SQLite file.
type Store struct {
	*sqldoc.Store
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	doc, err := sqldoc.Open(ctx, db, sqldoc.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: doc, path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
