package core

import (
	"context"

	"treasuremap/internal/infra/persistence/postgres"
)

// NewPostgresStore connects the Postgres map store using dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*postgres.Store, error) {
	return postgres.NewStore(ctx, dsn)
}
