package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("TREASUREMAP_BLOB_DRIVER", "memory")
	s, err := Open(ctx)
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("memory: %v %v", s, err)
	}

	t.Setenv("TREASUREMAP_BLOB_DRIVER", "")
	t.Setenv("TREASUREMAP_BLOB_FS_ROOT", t.TempDir())
	s, err = Open(ctx)
	if err != nil || s.Driver() != DriverFilesystem {
		t.Fatalf("default fs: %v %v", s, err)
	}

	t.Setenv("TREASUREMAP_BLOB_DRIVER", "s3")
	t.Setenv("TREASUREMAP_BLOB_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("s3 without bucket should fail")
	}

	t.Setenv("TREASUREMAP_BLOB_DRIVER", "ftp")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

func TestConstructors(t *testing.T) {
	if NewMemory().Driver() != DriverMemory {
		t.Fatalf("memory driver")
	}
	fs, err := NewFilesystem(t.TempDir())
	if err != nil || fs.Driver() != DriverFilesystem {
		t.Fatalf("filesystem: %v", err)
	}
}
