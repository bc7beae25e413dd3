// Package assets re-exports the asset storage contract and constructs the
// configured backend for icon payloads.
package assets

import (
	"context"

	"diagramcore/internal/assets/core"
	fsstore "diagramcore/internal/infra/assets/fs"
	memorystore "diagramcore/internal/infra/assets/memory"
	s3store "diagramcore/internal/infra/assets/s3"
)

type (
	// Driver identifies an asset backend driver.
	Driver = core.Driver
	// PutOptions configures an asset write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored asset metadata.
	Info = core.Info
	// Store is the interface for asset storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// NewMemory returns an in-memory asset Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem returns a filesystem-backed asset Store rooted at root.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// S3Config configures the S3 asset backend.
type S3Config = s3store.Config

// NewS3 returns an S3-backed asset Store from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3store.New(ctx, cfg) }
