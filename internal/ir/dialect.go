package ir

import (
	"fmt"
	"sort"
	"strings"

	"lattice/internal/typeid"
)

// Dialect is a loaded namespace of types, attributes and operations. A
// dialect instance belongs to exactly one context and is created only through
// the context's dialect-loading chokepoint.
type Dialect struct {
	ctx       *Context
	namespace string
	id        typeid.ID

	allowsUnknownOperations bool
	allowsUnknownTypes      bool

	// Dialect-level interfaces, keyed by the interface kind.
	interfaces map[typeid.ID]any

	// Interfaces promised to be attached later, typically by a registry
	// extension. Key is (entity kind, interface kind); the dialect's own id
	// is used as the entity for dialect-level promises.
	promised map[promiseKey]bool
}

type promiseKey struct {
	entity typeid.ID
	iface  typeid.ID
}

func newDialect(ctx *Context, namespace string, id typeid.ID) *Dialect {
	return &Dialect{
		ctx:        ctx,
		namespace:  namespace,
		id:         id,
		interfaces: make(map[typeid.ID]any),
		promised:   make(map[promiseKey]bool),
	}
}

// Context returns the owning context.
func (d *Dialect) Context() *Context { return d.ctx }

// Namespace returns the dialect's namespace prefix.
func (d *Dialect) Namespace() string { return d.namespace }

// ID returns the kind identifier the dialect was registered with.
func (d *Dialect) ID() typeid.ID { return d.id }

// AllowsUnknownOperations reports whether operations with this dialect's
// prefix may exist without being registered.
func (d *Dialect) AllowsUnknownOperations() bool { return d.allowsUnknownOperations }

// AllowUnknownOperations opts the dialect into hosting unregistered
// operations.
func (d *Dialect) AllowUnknownOperations() { d.allowsUnknownOperations = true }

// AllowsUnknownTypes reports whether types with this dialect's prefix may
// exist without being registered.
func (d *Dialect) AllowsUnknownTypes() bool { return d.allowsUnknownTypes }

// AllowUnknownTypes opts the dialect into hosting unregistered types.
func (d *Dialect) AllowUnknownTypes() { d.allowsUnknownTypes = true }

// qualify checks that name carries the dialect's prefix, tolerating the
// builtin dialect's bare names.
func (d *Dialect) qualify(name string) string {
	if strings.Contains(name, ".") {
		if !strings.HasPrefix(name, d.namespace+".") {
			panic(fmt.Sprintf("ir: name %q registered on dialect %q", name, d.namespace))
		}
		return name
	}
	return d.namespace + "." + name
}

// AddType registers a parametric or singleton type kind on the dialect. The
// kind becomes constructible in the owning context; registering the same kind
// or name twice is fatal.
func (d *Dialect) AddType(ab *AbstractType) {
	c := d.ctx
	c.assertSafeToMutate("registering type " + ab.name)
	ab.dialect = d
	ab.ctx = c
	ab.name = d.qualify(ab.name)
	if !ab.id.Valid() {
		panic(fmt.Sprintf("ir: type %q registered without a kind ID", ab.name))
	}
	if _, ok := c.registeredTypes[ab.id]; ok {
		panic(fmt.Sprintf("ir: type kind %s registered twice", ab.id))
	}
	if _, ok := c.nameToType[ab.name]; ok {
		panic(fmt.Sprintf("ir: type name %q registered twice", ab.name))
	}
	c.registeredTypes[ab.id] = ab
	c.nameToType[ab.name] = ab
	if ab.singleton {
		c.typeUniquer.RegisterSingletonKind(ab.id, func() any {
			return &typeStorage{abstract: ab, serial: c.nextSerial()}
		})
	} else {
		c.typeUniquer.RegisterParametricKind(ab.id)
	}
}

// AddAttribute registers an attribute kind on the dialect. Same rules as
// AddType.
func (d *Dialect) AddAttribute(ab *AbstractAttribute) {
	c := d.ctx
	c.assertSafeToMutate("registering attribute " + ab.name)
	ab.dialect = d
	ab.ctx = c
	ab.name = d.qualify(ab.name)
	if !ab.id.Valid() {
		panic(fmt.Sprintf("ir: attribute %q registered without a kind ID", ab.name))
	}
	if _, ok := c.registeredAttributes[ab.id]; ok {
		panic(fmt.Sprintf("ir: attribute kind %s registered twice", ab.id))
	}
	if _, ok := c.nameToAttribute[ab.name]; ok {
		panic(fmt.Sprintf("ir: attribute name %q registered twice", ab.name))
	}
	c.registeredAttributes[ab.id] = ab
	c.nameToAttribute[ab.name] = ab
	if ab.singleton {
		c.attrUniquer.RegisterSingletonKind(ab.id, func() any {
			return &attrStorage{abstract: ab, serial: c.nextSerial()}
		})
	} else {
		c.attrUniquer.RegisterParametricKind(ab.id)
	}
}

// AddOperation registers an operation kind on the dialect, making the name
// resolvable to a RegisteredOperationName everywhere in the context.
// Registering the same name twice is fatal.
func (d *Dialect) AddOperation(reg OpRegistration) {
	c := d.ctx
	name := d.qualify(reg.Name)
	c.assertSafeToMutate("registering operation " + name)
	if !reg.ID.Valid() {
		panic(fmt.Sprintf("ir: operation %q registered without a kind ID", name))
	}
	if _, ok := c.registeredOperationsByName[name]; ok {
		panic(fmt.Sprintf("ir: operation %q registered twice", name))
	}
	if _, ok := c.registeredOperations[reg.ID]; ok {
		panic(fmt.Sprintf("ir: operation kind %s registered twice", reg.ID))
	}
	if reg.Hooks.PropertiesSize < 0 || reg.Hooks.PropertiesSize > propertiesCapacity {
		panic(fmt.Sprintf("ir: operation %q declares a properties size of %d bytes, outside [0, %d]",
			name, reg.Hooks.PropertiesSize, propertiesCapacity))
	}

	impl := &opNameImpl{
		name:       name,
		dialect:    d,
		id:         reg.ID,
		registered: true,
		hooks:      reg.Hooks,
		traits:     make(map[typeid.ID]bool, len(reg.Traits)),
		interfaces: make(map[typeid.ID]any, len(reg.Interfaces)),
	}
	for _, tr := range reg.Traits {
		impl.traits[tr] = true
	}
	for id, iface := range reg.Interfaces {
		impl.interfaces[id] = iface
	}

	// An unregistered placeholder may already exist for this name; later
	// lookups through either table must observe the registered form, so the
	// shared-name table is updated in place.
	c.opNameMu.Lock()
	c.operations[name] = impl
	c.opNameMu.Unlock()

	rn := RegisteredOperationName{OperationName{impl: impl}}
	c.registeredOperations[reg.ID] = rn
	c.registeredOperationsByName[name] = rn
	idx := sort.Search(len(c.sortedRegisteredOperations), func(i int) bool {
		return c.sortedRegisteredOperations[i].Name() >= name
	})
	c.sortedRegisteredOperations = append(c.sortedRegisteredOperations, RegisteredOperationName{})
	copy(c.sortedRegisteredOperations[idx+1:], c.sortedRegisteredOperations[idx:])
	c.sortedRegisteredOperations[idx] = rn
}

// AddInterface attaches a dialect-level interface, resolving any outstanding
// promise for it.
func (d *Dialect) AddInterface(id typeid.ID, iface any) {
	if _, ok := d.interfaces[id]; ok {
		panic(fmt.Sprintf("ir: interface %s attached twice to dialect %q", id, d.namespace))
	}
	d.interfaces[id] = iface
	delete(d.promised, promiseKey{entity: d.id, iface: id})
}

// Interface returns the dialect-level interface registered under id. A
// promised but still unresolved interface is fatal; a never-declared one
// returns nil.
func (d *Dialect) Interface(id typeid.ID) any {
	if iface, ok := d.interfaces[id]; ok {
		return iface
	}
	d.checkPromise(d.id, id, "dialect "+d.namespace)
	return nil
}

// DeclarePromisedInterface records that the interface will be attached to the
// given entity kind later, usually from a registry extension. Until the
// attachment happens, querying the interface is fatal instead of silently
// returning nil.
func (d *Dialect) DeclarePromisedInterface(entity, iface typeid.ID) {
	d.promised[promiseKey{entity: entity, iface: iface}] = true
}

// hasPromise reports whether an unresolved promise exists for the pair.
func (d *Dialect) hasPromise(entity, iface typeid.ID) bool {
	return d.promised[promiseKey{entity: entity, iface: iface}]
}

func (d *Dialect) resolvePromise(entity, iface typeid.ID) {
	delete(d.promised, promiseKey{entity: entity, iface: iface})
}

func (d *Dialect) checkPromise(entity, iface typeid.ID, what string) {
	if d.hasPromise(entity, iface) {
		panic(fmt.Sprintf("ir: interface %s was promised for %s but never attached; "+
			"the promising extension was not applied", iface, what))
	}
}
