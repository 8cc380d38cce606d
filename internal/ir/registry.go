package ir

import (
	"fmt"
	"sort"

	"lattice/internal/typeid"
)

// DialectInit populates a freshly created dialect: it registers the
// dialect's types, attributes and operations and may declare promised
// interfaces. It must not retain the dialect beyond the call.
type DialectInit func(*Dialect)

// DialectRegistry maps dialect namespaces to the constructor of the matching
// dialect. It holds dialects "available" for lazy loading; nothing is
// constructed until a context asks for it.
type DialectRegistry struct {
	entries    map[string]registryEntry
	extensions []*DialectExtension
}

type registryEntry struct {
	id   typeid.ID
	init DialectInit
}

// Insert makes a dialect available under the namespace. Re-inserting the
// same (namespace, id) pair is a no-op; claiming an occupied namespace with
// a different id is fatal.
func (r *DialectRegistry) Insert(namespace string, id typeid.ID, init DialectInit) {
	if namespace == "" {
		panic("ir: registering a dialect with an empty namespace")
	}
	if r.entries == nil {
		r.entries = make(map[string]registryEntry)
	}
	if existing, ok := r.entries[namespace]; ok {
		if existing.id != id {
			panic(fmt.Sprintf("ir: dialect namespace %q registered twice with different kind IDs", namespace))
		}
		return
	}
	r.entries[namespace] = registryEntry{id: id, init: init}
}

// DialectNames returns the available namespaces, sorted.
func (r *DialectRegistry) DialectNames() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *DialectRegistry) lookup(namespace string) (registryEntry, bool) {
	e, ok := r.entries[namespace]
	return e, ok
}

// AddExtension attaches an extension to the registry. The extension's apply
// function runs once all required dialects are loaded into a context; with
// no required dialects it runs for every loaded dialect independently.
func (r *DialectRegistry) AddExtension(ext *DialectExtension) {
	r.extensions = append(r.extensions, ext)
}

// isSubsetOf reports whether every entry and extension of r is already
// present in other.
func (r *DialectRegistry) isSubsetOf(other *DialectRegistry) bool {
	for name, e := range r.entries {
		oe, ok := other.entries[name]
		if !ok || oe.id != e.id {
			return false
		}
	}
	for _, ext := range r.extensions {
		found := false
		for _, oext := range other.extensions {
			if ext == oext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// appendTo merges this registry into other.
func (r *DialectRegistry) appendTo(other *DialectRegistry) {
	for name, e := range r.entries {
		other.Insert(name, e.id, e.init)
	}
	for _, ext := range r.extensions {
		dup := false
		for _, oext := range other.extensions {
			if ext == oext {
				dup = true
				break
			}
		}
		if !dup {
			other.extensions = append(other.extensions, ext)
		}
	}
}

// DialectExtension attaches additional behavior (interface implementations,
// promised-interface resolutions, extra operations) to dialects after they
// load, without forcing the implementation to link into the dialect itself.
type DialectExtension struct {
	required []string
	apply    func(*Context, []*Dialect)
}

// NewDialectExtension builds an extension anchored on the given namespaces.
// The dialects passed to apply follow the order of required.
func NewDialectExtension(required []string, apply func(*Context, []*Dialect)) *DialectExtension {
	return &DialectExtension{required: required, apply: apply}
}

// RequiredDialects returns the namespaces this extension waits for.
func (e *DialectExtension) RequiredDialects() []string {
	return e.required
}
