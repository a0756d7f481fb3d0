package core

import (
	"context"
	"fmt"
	"os"

	"treasuremap/internal/infra/persistence/memory"
	"treasuremap/pkg/domain"
)

// StorageDriver identifies a concrete map store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenMapStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	TREASUREMAP_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	TREASUREMAP_SQLITE_PATH: path to sqlite file (default ./treasuremap.db)
//	TREASUREMAP_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenMapStore(ctx context.Context) (domain.MapStore, error) {
	driver := os.Getenv("TREASUREMAP_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return NewSQLiteStore(ctx, os.Getenv("TREASUREMAP_SQLITE_PATH"))
	case StoragePostgres:
		return NewPostgresStore(ctx, os.Getenv("TREASUREMAP_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
