// Package blob re-exports the archive store abstraction and selects a backend
// from the environment.
package blob

import (
	"context"
	"fmt"
	"os"

	"treasuremap/internal/blob/core"
	"treasuremap/internal/infra/blob/fs"
	"treasuremap/internal/infra/blob/memory"
	"treasuremap/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures share link generation.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for archive storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
)

// NewMemory returns an in-memory archive store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a directory-backed archive store.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// Open selects an archive store using environment variables.
//
//	TREASUREMAP_BLOB_DRIVER: fs|s3|memory (default fs)
//	TREASUREMAP_BLOB_FS_ROOT: directory when driver=fs (default ./archives)
//	(S3 specific variables are documented in internal/infra/blob/s3)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("TREASUREMAP_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(os.Getenv("TREASUREMAP_BLOB_FS_ROOT"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
