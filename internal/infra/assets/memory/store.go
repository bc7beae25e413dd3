// Package memory implements an in-memory asset Store for tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"diagramcore/internal/assets/core"
)

type entry struct {
	info core.Info
	data []byte
}

// Store keeps assets in process memory. Everything is copied on the way in
// and out so callers can never alias stored state.
type Store struct {
	mu     sync.RWMutex
	assets map[string]entry
}

// New returns an empty in-memory asset store.
func New() *Store {
	return &Store{assets: make(map[string]entry)}
}

// Driver returns the asset driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores a new asset; it fails if key already exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[key]; exists {
		return core.Info{}, fmt.Errorf("asset %s already exists", key)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	now := time.Now().UTC()
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		Metadata:     cloneMetadata(opts.Metadata),
		CreatedAt:    now,
		LastModified: now,
	}
	s.assets[key] = entry{info: info, data: data}
	return info, nil
}

// Get returns asset metadata and a reader over a copy of its content.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	s.mu.RLock()
	e, ok := s.assets[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, nil, fmt.Errorf("asset %s not found", key)
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return copyInfo(e.info), io.NopCloser(bytes.NewReader(data)), nil
}

// Head returns asset metadata only.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	s.mu.RLock()
	e, ok := s.assets[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, fmt.Errorf("asset %s not found", key)
	}
	return copyInfo(e.info), nil
}

// Delete removes the asset, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[key]
	delete(s.assets, key)
	return ok, nil
}

// List returns all assets whose key starts with prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Info, 0, len(s.assets))
	for key, e := range s.assets {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			out = append(out, copyInfo(e.info))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL is unsupported for the memory driver.
func (s *Store) PresignURL(_ context.Context, _ string, _ core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}

func copyInfo(info core.Info) core.Info {
	info.Metadata = cloneMetadata(info.Metadata)
	return info
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}
