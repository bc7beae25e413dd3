package assets

import (
	"context"
	"fmt"
	"os"

	s3store "diagramcore/internal/infra/assets/s3"
)

// Open selects an asset Store implementation using environment variables.
//
//	DIAGRAMCORE_ASSET_DRIVER: fs|s3|memory (default fs)
//	DIAGRAMCORE_ASSET_FS_ROOT: directory root when driver=fs (default ./assetdata)
//	(S3 specific variables documented in the s3 driver)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("DIAGRAMCORE_ASSET_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("DIAGRAMCORE_ASSET_FS_ROOT"))
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown asset driver %s", driver)
	}
}
