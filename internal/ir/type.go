package ir

import "lattice/internal/typeid"

// typeStorage is the canonical, context-owned storage of one type instance.
// Instances are created only through the context's type uniquer, so pointer
// equality of storages is value equality of types.
type typeStorage struct {
	abstract *AbstractType
	serial   uint64
	data     any
}

// Type is a value-semantics handle to uniqued type storage. The zero Type is
// the null type.
type Type struct {
	storage *typeStorage
}

// IsNil reports whether this is the null type.
func (t Type) IsNil() bool { return t.storage == nil }

// Context returns the context that owns the type.
func (t Type) Context() *Context { return t.storage.abstract.ctx }

// ID returns the kind identifier.
func (t Type) ID() typeid.ID { return t.storage.abstract.id }

// Abstract returns the kind descriptor.
func (t Type) Abstract() *AbstractType { return t.storage.abstract }

// Dialect returns the defining dialect.
func (t Type) Dialect() *Dialect { return t.storage.abstract.dialect }

// Data returns the kind-specific parameter payload, nil for singletons.
func (t Type) Data() any { return t.storage.data }

// serial is a context-unique stamp assigned at storage creation. Composite
// keys hash it instead of the storage address.
func (t Type) serial() uint64 {
	if t.storage == nil {
		return 0
	}
	return t.storage.serial
}

// Is reports whether the type is an instance of the given kind.
func (t Type) Is(id typeid.ID) bool {
	return t.storage != nil && t.storage.abstract.id == id
}

// HasTrait reports whether the type's kind carries the trait.
func (t Type) HasTrait(tr typeid.ID) bool { return t.storage.abstract.HasTrait(tr) }

// Interface resolves an interface on the type's kind, honoring promises.
func (t Type) Interface(id typeid.ID) any { return t.storage.abstract.Interface(id) }

func (t Type) String() string {
	if t.storage == nil {
		return "<<NULL TYPE>>"
	}
	ab := t.storage.abstract
	if ab.print != nil {
		return ab.print(t.storage.data)
	}
	return "!" + ab.name
}

// getUniquedType returns the canonical instance of a parametric type kind,
// constructing and interning the storage on first use. eq and mk see only the
// kind's payload.
func getUniquedType(c *Context, id typeid.ID, hash uint64, eq func(data any) bool, mk func() any) Type {
	ab := c.lookupAbstractType(id)
	st := c.typeUniquer.Get(id, hash, func(existing any) bool {
		return eq(existing.(*typeStorage).data)
	}, func() any {
		return &typeStorage{abstract: ab, serial: c.nextSerial(), data: mk()}
	}).(*typeStorage)
	return Type{storage: st}
}

// getSingletonType returns the unique instance of a parameterless type kind.
func getSingletonType(c *Context, id typeid.ID) Type {
	c.lookupAbstractType(id)
	return Type{storage: c.typeUniquer.GetSingleton(id).(*typeStorage)}
}
