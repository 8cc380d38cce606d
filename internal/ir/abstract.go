package ir

import (
	"fmt"

	"lattice/internal/typeid"
)

// AbstractType is the per-kind descriptor shared by every instance of a type
// kind in one context. It carries the dispatch state that does not depend on
// the instance's parameters.
type AbstractType struct {
	ctx     *Context
	dialect *Dialect

	name      string
	id        typeid.ID
	singleton bool

	interfaces map[typeid.ID]any
	traits     map[typeid.ID]bool

	// print renders the instance's parameter payload. Nil falls back to the
	// generic form.
	print func(data any) string
}

// NewAbstractType builds a descriptor for a parametric type kind. The name is
// the bare kind name; the dialect prefix is added at registration.
func NewAbstractType(name string, id typeid.ID) *AbstractType {
	return &AbstractType{
		name:       name,
		id:         id,
		interfaces: make(map[typeid.ID]any),
		traits:     make(map[typeid.ID]bool),
	}
}

// NewAbstractSingletonType builds a descriptor for a type kind with no
// parameters. Singleton kinds have exactly one instance per context.
func NewAbstractSingletonType(name string, id typeid.ID) *AbstractType {
	ab := NewAbstractType(name, id)
	ab.singleton = true
	return ab
}

// Name returns the full name, "dialect.typename".
func (ab *AbstractType) Name() string { return ab.name }

// ID returns the kind identifier.
func (ab *AbstractType) ID() typeid.ID { return ab.id }

// Dialect returns the defining dialect.
func (ab *AbstractType) Dialect() *Dialect { return ab.dialect }

// WithTrait marks the kind as carrying the trait. Chainable before
// registration.
func (ab *AbstractType) WithTrait(tr typeid.ID) *AbstractType {
	ab.traits[tr] = true
	return ab
}

// WithInterface attaches an interface implementation before registration.
func (ab *AbstractType) WithInterface(id typeid.ID, iface any) *AbstractType {
	ab.interfaces[id] = iface
	return ab
}

// WithPrinter installs the parameter printer.
func (ab *AbstractType) WithPrinter(print func(data any) string) *AbstractType {
	ab.print = print
	return ab
}

// HasTrait reports whether the kind carries the trait.
func (ab *AbstractType) HasTrait(tr typeid.ID) bool { return ab.traits[tr] }

// Interface returns the implementation registered under id. Fatal if the
// interface was promised for this kind but never attached; nil if it was
// never declared at all.
func (ab *AbstractType) Interface(id typeid.ID) any {
	if iface, ok := ab.interfaces[id]; ok {
		return iface
	}
	if ab.dialect != nil {
		ab.dialect.checkPromise(ab.id, id, "type "+ab.name)
	}
	return nil
}

// HasInterface reports whether an implementation is attached (promises do
// not count).
func (ab *AbstractType) HasInterface(id typeid.ID) bool {
	_, ok := ab.interfaces[id]
	return ok
}

// AttachInterface adds an implementation after registration, resolving a
// matching promise. Double attachment is fatal.
func (ab *AbstractType) AttachInterface(id typeid.ID, iface any) {
	if _, ok := ab.interfaces[id]; ok {
		panic(fmt.Sprintf("ir: interface %s attached twice to type %q", id, ab.name))
	}
	ab.interfaces[id] = iface
	if ab.dialect != nil {
		ab.dialect.resolvePromise(ab.id, id)
	}
}

// AbstractAttribute is the per-kind descriptor for attribute kinds,
// structured like AbstractType.
type AbstractAttribute struct {
	ctx     *Context
	dialect *Dialect

	name      string
	id        typeid.ID
	singleton bool

	interfaces map[typeid.ID]any
	traits     map[typeid.ID]bool

	print func(data any) string
}

// NewAbstractAttribute builds a descriptor for a parametric attribute kind.
func NewAbstractAttribute(name string, id typeid.ID) *AbstractAttribute {
	return &AbstractAttribute{
		name:       name,
		id:         id,
		interfaces: make(map[typeid.ID]any),
		traits:     make(map[typeid.ID]bool),
	}
}

// NewAbstractSingletonAttribute builds a descriptor for a parameterless
// attribute kind.
func NewAbstractSingletonAttribute(name string, id typeid.ID) *AbstractAttribute {
	ab := NewAbstractAttribute(name, id)
	ab.singleton = true
	return ab
}

// Name returns the full name, "dialect.attrname".
func (ab *AbstractAttribute) Name() string { return ab.name }

// ID returns the kind identifier.
func (ab *AbstractAttribute) ID() typeid.ID { return ab.id }

// Dialect returns the defining dialect.
func (ab *AbstractAttribute) Dialect() *Dialect { return ab.dialect }

// WithTrait marks the kind as carrying the trait.
func (ab *AbstractAttribute) WithTrait(tr typeid.ID) *AbstractAttribute {
	ab.traits[tr] = true
	return ab
}

// WithInterface attaches an interface implementation before registration.
func (ab *AbstractAttribute) WithInterface(id typeid.ID, iface any) *AbstractAttribute {
	ab.interfaces[id] = iface
	return ab
}

// WithPrinter installs the parameter printer.
func (ab *AbstractAttribute) WithPrinter(print func(data any) string) *AbstractAttribute {
	ab.print = print
	return ab
}

// HasTrait reports whether the kind carries the trait.
func (ab *AbstractAttribute) HasTrait(tr typeid.ID) bool { return ab.traits[tr] }

// Interface returns the implementation registered under id, with the same
// promise semantics as AbstractType.Interface.
func (ab *AbstractAttribute) Interface(id typeid.ID) any {
	if iface, ok := ab.interfaces[id]; ok {
		return iface
	}
	if ab.dialect != nil {
		ab.dialect.checkPromise(ab.id, id, "attribute "+ab.name)
	}
	return nil
}

// HasInterface reports whether an implementation is attached.
func (ab *AbstractAttribute) HasInterface(id typeid.ID) bool {
	_, ok := ab.interfaces[id]
	return ok
}

// AttachInterface adds an implementation after registration, resolving a
// matching promise.
func (ab *AbstractAttribute) AttachInterface(id typeid.ID, iface any) {
	if _, ok := ab.interfaces[id]; ok {
		panic(fmt.Sprintf("ir: interface %s attached twice to attribute %q", id, ab.name))
	}
	ab.interfaces[id] = iface
	if ab.dialect != nil {
		ab.dialect.resolvePromise(ab.id, id)
	}
}
