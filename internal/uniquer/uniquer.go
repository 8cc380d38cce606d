// Package uniquer implements the hash-consing engine behind all uniqued IR
// entities. Given a key, Get returns the single canonical storage object for
// that key, constructing it on first request. Storage objects are
// referentially stable for the lifetime of the uniquer; nothing is ever moved
// or freed individually.
package uniquer

import (
	"fmt"
	"sync"

	"lattice/internal/typeid"
)

// Uniquer owns one storage collection per registered kind. Parametric kinds
// unique structurally via caller-supplied hash and equality; singleton kinds
// hold exactly one instance constructed at registration time.
type Uniquer struct {
	mu sync.Mutex // guards kind registration only

	// Taken only when threadSafe is set. Toggling must not race with
	// in-flight Get calls; that is the caller's contract.
	threadSafe bool

	parametric map[typeid.ID]*parametricKind
	singletons map[typeid.ID]any
}

type parametricKind struct {
	mu      sync.RWMutex
	buckets map[uint64][]any
}

// New constructs an empty, thread-safe uniquer.
func New() *Uniquer {
	return &Uniquer{
		threadSafe: true,
		parametric: make(map[typeid.ID]*parametricKind),
		singletons: make(map[typeid.ID]any),
	}
}

// DisableMultithreading toggles whether Get takes the internal locks. Must
// not be called concurrently with Get.
func (u *Uniquer) DisableMultithreading(disable bool) {
	u.threadSafe = !disable
}

// RegisterParametricKind prepares storage for a parametric kind. Must be
// called once per kind before any Get for it; double registration panics.
func (u *Uniquer) RegisterParametricKind(kind typeid.ID) {
	if !kind.Valid() {
		panic("uniquer: registering an invalid kind")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.parametric[kind]; ok {
		panic(fmt.Sprintf("uniquer: parametric kind %s registered twice", kind))
	}
	u.parametric[kind] = &parametricKind{buckets: make(map[uint64][]any, 8)}
}

// RegisterSingletonKind constructs and stores the unique instance for a
// non-parametric kind. Double registration panics.
func (u *Uniquer) RegisterSingletonKind(kind typeid.ID, create func() any) {
	if !kind.Valid() {
		panic("uniquer: registering an invalid kind")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.singletons[kind]; ok {
		panic(fmt.Sprintf("uniquer: singleton kind %s registered twice", kind))
	}
	u.singletons[kind] = create()
}

// HasKind reports whether the kind has been registered, parametric or
// singleton.
func (u *Uniquer) HasKind(kind typeid.ID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.parametric[kind]; ok {
		return true
	}
	_, ok := u.singletons[kind]
	return ok
}

// GetSingleton returns the unique instance of a singleton kind. Requesting an
// unregistered kind is a programming error and panics.
func (u *Uniquer) GetSingleton(kind typeid.ID) any {
	inst, ok := u.singletons[kind]
	if !ok {
		panic(fmt.Sprintf("uniquer: singleton kind %s was never registered", kind))
	}
	return inst
}

// Get returns the canonical storage for the key described by (hash, isEqual),
// constructing it via create on first request. The hash and equality must be
// pure and mutually consistent; violating that corrupts the collection with
// no runtime check. Requesting an unregistered kind panics.
//
// The write lock is taken only on the insert path; lookups of existing
// storage run under a read lock (read-mostly workload assumption).
func (u *Uniquer) Get(kind typeid.ID, hash uint64, isEqual func(any) bool, create func() any) any {
	coll, ok := u.parametric[kind]
	if !ok {
		panic(fmt.Sprintf("uniquer: parametric kind %s was never registered", kind))
	}

	if u.threadSafe {
		coll.mu.RLock()
		if st := lookup(coll.buckets[hash], isEqual); st != nil {
			coll.mu.RUnlock()
			return st
		}
		coll.mu.RUnlock()

		coll.mu.Lock()
		defer coll.mu.Unlock()
		// Re-probe: another goroutine may have inserted between the locks.
		if st := lookup(coll.buckets[hash], isEqual); st != nil {
			return st
		}
		st := create()
		coll.buckets[hash] = append(coll.buckets[hash], st)
		return st
	}

	if st := lookup(coll.buckets[hash], isEqual); st != nil {
		return st
	}
	st := create()
	coll.buckets[hash] = append(coll.buckets[hash], st)
	return st
}

func lookup(bucket []any, isEqual func(any) bool) any {
	for _, st := range bucket {
		if isEqual(st) {
			return st
		}
	}
	return nil
}
