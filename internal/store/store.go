// Package store implements the scene consistency engine: copy-on-write
// mutation actions over a published immutable snapshot, referential cascades,
// derived-geometry recomputation, and selector-based subscriptions.
package store

import (
	"context"
	"fmt"
	"sync"

	"diagramcore/pkg/scene"

	"github.com/google/uuid"
)

// Collaborators are the external pure functions the engine consumes. All
// three are required.
type Collaborators struct {
	Router   scene.PathRouter
	Measurer scene.TextMeasurer
	Codec    scene.DocumentCodec
}

func (c Collaborators) validate() error {
	if c.Router == nil {
		return fmt.Errorf("store: nil path router")
	}
	if c.Measurer == nil {
		return fmt.Errorf("store: nil text measurer")
	}
	if c.Codec == nil {
		return fmt.Errorf("store: nil document codec")
	}
	return nil
}

// Store owns the single published scene of one editing session. Every action
// builds the next snapshot by structural sharing (untouched sequences are
// reused by reference, only the touched sequence is reallocated), swaps it in
// atomically, and notifies subscribers whose projection changed. Published
// snapshots are immutable; readers must never write through them.
//
// One store is constructed per session and passed explicitly to consumers.
// There is no process-wide instance. The store is safe for concurrent use;
// each action runs to completion, cascades included, before it returns.
type Store struct {
	mu      sync.RWMutex
	scene   scene.Scene
	version uint64

	// id-indexed lookup tables per sequence, rebuilt at publish time.
	icons      map[string]int
	nodes      map[string]int
	connectors map[string]int
	textBoxes  map[string]int
	rectangles map[string]int

	subs   []*subscription
	subSeq uint64

	router   scene.PathRouter
	measurer scene.TextMeasurer
	codec    scene.DocumentCodec

	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	newID   func() string
}

// New constructs a store with an empty published scene. It fails when any
// collaborator is missing.
func New(c Collaborators, opts ...Option) (*Store, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	s := &Store{
		router:   c.Router,
		measurer: c.Measurer,
		codec:    c.Codec,
		logger:   noopLogger{},
		clock:    systemClock{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		audit:    noopAudit{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reindexLocked()
	return s, nil
}

// Scene returns the currently published snapshot. The returned value and
// everything reachable from it must be treated as read-only.
func (s *Store) Scene() scene.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene
}

// Version returns the monotonic publish counter. It starts at zero and
// increments once per successful action.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ImportScene replaces the published scene with a deep copy of sc, bypassing
// validation. It is the restore path for archived snapshots and behaves as a
// publish: the version advances and subscribers are notified.
func (s *Store) ImportScene(sc scene.Scene) {
	s.mu.Lock()
	notify := s.publishLocked(sc.Clone())
	s.mu.Unlock()
	notify()
}

// publishLocked swaps in the next snapshot, rebuilds the id indexes, and
// collects the subscriber notifications that the publish triggers. The
// returned closure runs them and must be invoked after the store lock is
// released.
func (s *Store) publishLocked(next scene.Scene) func() {
	s.scene = next
	s.version++
	s.reindexLocked()
	var fire []func()
	for _, sub := range s.subs {
		if f := sub.eval(next); f != nil {
			fire = append(fire, f)
		}
	}
	return func() {
		for _, f := range fire {
			f()
		}
	}
}

func (s *Store) reindexLocked() {
	s.icons = indexByID(s.scene.Icons, func(e scene.Icon) string { return e.ID })
	s.nodes = indexByID(s.scene.Nodes, func(e scene.Node) string { return e.ID })
	s.connectors = indexByID(s.scene.Connectors, func(e scene.Connector) string { return e.ID })
	s.textBoxes = indexByID(s.scene.TextBoxes, func(e scene.TextBox) string { return e.ID })
	s.rectangles = indexByID(s.scene.Rectangles, func(e scene.Rectangle) string { return e.ID })
}

func indexByID[T any](seq []T, id func(T) string) map[string]int {
	m := make(map[string]int, len(seq))
	for i, v := range seq {
		m[id(v)] = i
	}
	return m
}

// appendEntity returns a fresh sequence with v appended; prev is shared with
// the prior snapshot and is never grown in place.
func appendEntity[T any](prev []T, v T) []T {
	out := make([]T, len(prev)+1)
	copy(out, prev)
	out[len(prev)] = v
	return out
}

func replaceEntity[T any](prev []T, idx int, v T) []T {
	out := make([]T, len(prev))
	copy(out, prev)
	out[idx] = v
	return out
}

func removeEntity[T any](prev []T, idx int) []T {
	out := make([]T, 0, len(prev)-1)
	out = append(out, prev[:idx]...)
	return append(out, prev[idx+1:]...)
}

// apply executes one action. The mutate closure runs under the store lock and
// returns the id of the touched entity plus the notification closure from
// publishLocked, or an error that aborts the action before anything is
// published. The attempt is traced, measured, audited, and debug-logged under
// op regardless of outcome.
func (s *Store) apply(ctx context.Context, op string, mutate func() (string, func(), error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()

	s.mu.Lock()
	entityID, notify, err := mutate()
	version := s.version
	s.mu.Unlock()

	if err == nil && notify != nil {
		notify()
	}

	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.recordAudit(ctx, op, entityID, err, duration)
	if err != nil {
		s.logger.Debug("store action failed", "op", op, "entity_id", entityID, "error", err)
		return err
	}
	s.logger.Debug("store action applied", "op", op, "entity_id", entityID, "version", version)
	return nil
}
