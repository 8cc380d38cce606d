package typeid

import (
	"fmt"
	"reflect"
	"sync"
)

// ID is a process-wide unique identifier for a kind of IR entity. It wraps a
// pointer to an immortal storage cell, so equality and hashing reduce to
// pointer comparison. The zero ID is invalid.
type ID struct {
	cell *cell
}

type cell struct {
	name string
}

// Valid reports whether the ID refers to a registered kind.
func (id ID) Valid() bool {
	return id.cell != nil
}

// Name returns the name the ID was registered under. Dynamic IDs issued by an
// Allocator have a synthetic name.
func (id ID) Name() string {
	if id.cell == nil {
		return "<invalid>"
	}
	return id.cell.name
}

func (id ID) String() string {
	return id.Name()
}

var global struct {
	mu     sync.Mutex
	byType map[reflect.Type]ID
	byName map[string]ID
}

// Of returns the canonical ID for the Go type T. Repeated calls with the same
// T always return the same ID, across all packages in the process.
func Of[T any]() ID {
	rt := reflect.TypeOf((*T)(nil)).Elem()

	global.mu.Lock()
	defer global.mu.Unlock()
	if global.byType == nil {
		global.byType = make(map[reflect.Type]ID, 64)
	}
	if id, ok := global.byType[rt]; ok {
		return id
	}
	id := ID{cell: &cell{name: rt.String()}}
	global.byType[rt] = id
	return id
}

// FromName returns the canonical ID for the given name, creating it on first
// use. This is the fallback path for kinds that have no dedicated Go type;
// the caller is responsible for the name being globally unique. Panics on an
// empty name, since nothing can be uniqued against it.
func FromName(name string) ID {
	if name == "" {
		panic("typeid: FromName called with an empty name")
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if global.byName == nil {
		global.byName = make(map[string]ID, 16)
	}
	if id, ok := global.byName[name]; ok {
		return id
	}
	id := ID{cell: &cell{name: name}}
	global.byName[name] = id
	return id
}

// Allocator issues fresh IDs for fully dynamic, runtime-defined kinds.
//
// IDs obtained from an allocator are only as long-lived as the allocator
// itself: once it is discarded, comparing its IDs against later-issued ones is
// meaningless. This is a documented lifetime hazard, not a checked condition.
type Allocator struct {
	mu    sync.Mutex
	cells []*cell
}

// Allocate returns a new ID distinct from every other ID in the process.
func (a *Allocator) Allocate() ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := &cell{name: fmt.Sprintf("<dynamic #%d>", len(a.cells))}
	a.cells = append(a.cells, c)
	return ID{cell: c}
}
