package core

import (
	"context"

	"treasuremap/internal/infra/persistence/sqlite"
)

// NewSQLiteStore opens the SQLite map store at path (empty for the default file).
func NewSQLiteStore(ctx context.Context, path string) (*sqlite.Store, error) {
	return sqlite.NewStore(ctx, path)
}
