// Package memory provides an archive that keeps the last saved scene in
// process memory. Used by tests and ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"diagramcore/pkg/scene"
)

// Store holds one scene snapshot behind a mutex.
type Store struct {
	mu    sync.Mutex
	scene scene.Scene
	saved bool
}

// NewStore constructs an empty in-memory archive.
func NewStore() *Store { return &Store{} }

// Save replaces the held snapshot with a deep copy of sc.
func (s *Store) Save(_ context.Context, sc scene.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = sc.Clone()
	s.saved = true
	return nil
}

// Load returns a deep copy of the held snapshot, or false when nothing has
// been saved.
func (s *Store) Load(_ context.Context) (scene.Scene, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return scene.Scene{}, false, nil
	}
	return s.scene.Clone(), true, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
