// Package core defines the storage contract for icon asset payloads.
// Scene icons reference their artwork (SVG, PNG) by AssetKey; stores keep
// the payloads themselves out of the scene document.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete asset storage backend.
type Driver string

const (
	// DriverFilesystem stores assets under a local directory root.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverS3 stores assets in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps assets in process memory.
	DriverMemory Driver = "memory" // tests
)

// PutOptions carries optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, e.g. image/svg+xml
	Metadata    map[string]string // small flat key-value user metadata
}

// SignedURLOptions configures URL pre-signing.
type SignedURLOptions struct {
	Method  string        // GET|PUT (only GET is implemented)
	Expiry  time.Duration // default 15m
	Headers map[string]string
}

// Info describes a stored asset.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the asset storage contract. Writes are create-only: a second Put
// for an existing key fails instead of silently replacing published artwork.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned when a driver lacks an optional capability.
var ErrUnsupported = errors.New("assetstore: unsupported operation")
