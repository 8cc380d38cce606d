package ir

import (
	"sort"

	"lattice/internal/typeid"
)

// attrStorage is the canonical storage of one attribute instance, interned
// exactly like typeStorage.
type attrStorage struct {
	abstract *AbstractAttribute
	serial   uint64
	data     any
}

// Attribute is a value-semantics handle to uniqued attribute storage. The
// zero Attribute is the null attribute.
type Attribute struct {
	storage *attrStorage
}

// IsNil reports whether this is the null attribute.
func (a Attribute) IsNil() bool { return a.storage == nil }

// Context returns the context that owns the attribute.
func (a Attribute) Context() *Context { return a.storage.abstract.ctx }

// ID returns the kind identifier.
func (a Attribute) ID() typeid.ID { return a.storage.abstract.id }

// Abstract returns the kind descriptor.
func (a Attribute) Abstract() *AbstractAttribute { return a.storage.abstract }

// Dialect returns the defining dialect.
func (a Attribute) Dialect() *Dialect { return a.storage.abstract.dialect }

// Data returns the kind-specific payload, nil for singletons.
func (a Attribute) Data() any { return a.storage.data }

func (a Attribute) serial() uint64 {
	if a.storage == nil {
		return 0
	}
	return a.storage.serial
}

// Is reports whether the attribute is an instance of the given kind.
func (a Attribute) Is(id typeid.ID) bool {
	return a.storage != nil && a.storage.abstract.id == id
}

// HasTrait reports whether the attribute's kind carries the trait.
func (a Attribute) HasTrait(tr typeid.ID) bool { return a.storage.abstract.HasTrait(tr) }

// Interface resolves an interface on the attribute's kind, honoring
// promises.
func (a Attribute) Interface(id typeid.ID) any { return a.storage.abstract.Interface(id) }

func (a Attribute) String() string {
	if a.storage == nil {
		return "<<NULL ATTRIBUTE>>"
	}
	ab := a.storage.abstract
	if ab.print != nil {
		return ab.print(a.storage.data)
	}
	return "#" + ab.name
}

// getUniquedAttr returns the canonical instance of a parametric attribute
// kind.
func getUniquedAttr(c *Context, id typeid.ID, hash uint64, eq func(data any) bool, mk func() any) Attribute {
	ab := c.lookupAbstractAttribute(id)
	st := c.attrUniquer.Get(id, hash, func(existing any) bool {
		return eq(existing.(*attrStorage).data)
	}, func() any {
		return &attrStorage{abstract: ab, serial: c.nextSerial(), data: mk()}
	}).(*attrStorage)
	return Attribute{storage: st}
}

// getSingletonAttr returns the unique instance of a parameterless attribute
// kind.
func getSingletonAttr(c *Context, id typeid.ID) Attribute {
	c.lookupAbstractAttribute(id)
	return Attribute{storage: c.attrUniquer.GetSingleton(id).(*attrStorage)}
}

// NamedAttribute pairs an attribute with its StringAttr name.
type NamedAttribute struct {
	Name  StringAttr
	Value Attribute
}

// NamedAttrList is a builder for attribute dictionaries. It keeps entries in
// insertion order and sorts only when converted to a DictionaryAttr.
type NamedAttrList struct {
	attrs []NamedAttribute
}

// Len returns the number of entries.
func (l *NamedAttrList) Len() int { return len(l.attrs) }

// Get returns the value bound to name, or the null attribute.
func (l *NamedAttrList) Get(name string) Attribute {
	for _, na := range l.attrs {
		if na.Name.Value() == name {
			return na.Value
		}
	}
	return Attribute{}
}

// Set binds name to value, replacing an existing binding.
func (l *NamedAttrList) Set(name StringAttr, value Attribute) {
	for i, na := range l.attrs {
		if na.Name.Value() == name.Value() {
			l.attrs[i].Value = value
			return
		}
	}
	l.attrs = append(l.attrs, NamedAttribute{Name: name, Value: value})
}

// Erase removes the binding for name, reporting whether it existed.
func (l *NamedAttrList) Erase(name string) bool {
	for i, na := range l.attrs {
		if na.Name.Value() == name {
			l.attrs = append(l.attrs[:i], l.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds an entry without checking for duplicates.
func (l *NamedAttrList) Append(name StringAttr, value Attribute) {
	l.attrs = append(l.attrs, NamedAttribute{Name: name, Value: value})
}

// Attrs returns the entries in insertion order. The slice is shared, not a
// copy.
func (l *NamedAttrList) Attrs() []NamedAttribute { return l.attrs }

// sortedCopy returns the entries sorted by name, deduplicated keep-last.
func (l *NamedAttrList) sortedCopy() []NamedAttribute {
	out := make([]NamedAttribute, len(l.attrs))
	copy(out, l.attrs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name.Value() < out[j].Name.Value()
	})
	dedup := out[:0]
	for i, na := range out {
		if i+1 < len(out) && out[i+1].Name.Value() == na.Name.Value() {
			continue
		}
		dedup = append(dedup, na)
	}
	return dedup
}
