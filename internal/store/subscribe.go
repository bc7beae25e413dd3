package store

import (
	"reflect"

	"diagramcore/pkg/scene"
)

// CancelFunc removes a subscription. Safe to call more than once.
type CancelFunc func()

// subscription is one registered (selector, equality, lastValue) tuple. eval
// runs under the store lock against the freshly published scene and returns
// the handler invocation to run after the lock is released, or nil when the
// projection did not change.
type subscription struct {
	id   uint64
	eval func(scene.Scene) func()
}

// Subscribe registers a projection of the published scene and returns its
// current value. After every publish the selector is re-evaluated against the
// new snapshot and handler is invoked, synchronously and outside the store
// lock, only when the projection changed under the equality function.
//
// A nil equal uses == for comparable projection types and always-notify for
// non-comparable ones, so selectors that build fresh slices or maps fire on
// every publish unless the caller supplies a deeper equality. Failed actions
// publish nothing and therefore notify nobody.
func Subscribe[T any](s *Store, selector func(scene.Scene) T, equal func(T, T) bool, handler func(T)) (T, CancelFunc) {
	if equal == nil {
		equal = defaultEqual[T]
	}

	s.mu.Lock()
	last := selector(s.scene)
	s.subSeq++
	id := s.subSeq
	sub := &subscription{id: id}
	sub.eval = func(next scene.Scene) func() {
		value := selector(next)
		if equal(last, value) {
			return nil
		}
		last = value
		if handler == nil {
			return nil
		}
		return func() { handler(value) }
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		for i, candidate := range s.subs {
			if candidate.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}
	return last, cancel
}

// defaultEqual compares with == when the dynamic values are comparable and
// reports unequal otherwise, mirroring reference equality on freshly
// allocated projections.
func defaultEqual[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if !reflect.TypeOf(av).Comparable() || !reflect.TypeOf(bv).Comparable() {
		return false
	}
	return av == bv
}
