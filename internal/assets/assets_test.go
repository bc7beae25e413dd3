package assets

import (
	"context"
	"testing"
)

func TestOpenSelectsDriverFromEnvironment(t *testing.T) {
	ctx := context.Background()

	t.Setenv("DIAGRAMCORE_ASSET_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	t.Setenv("DIAGRAMCORE_ASSET_DRIVER", "fs")
	t.Setenv("DIAGRAMCORE_ASSET_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	t.Setenv("DIAGRAMCORE_ASSET_DRIVER", "carrier-pigeon")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("DIAGRAMCORE_ASSET_DRIVER", "s3")
	t.Setenv("DIAGRAMCORE_ASSET_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error when bucket is unset")
	}
}
