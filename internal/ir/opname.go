package ir

import (
	"strings"

	"lattice/internal/typeid"
)

// opNameImpl is the context-owned record behind an operation name. One
// instance exists per name per context; registered names are created through
// Dialect.AddOperation, unregistered ones lazily on first lookup.
type opNameImpl struct {
	name       string
	dialect    *Dialect
	id         typeid.ID
	registered bool
	hooks      OpHooks
	traits     map[typeid.ID]bool
	interfaces map[typeid.ID]any
}

// OpHooks bundles the per-kind callbacks of a registered operation. All
// fields are optional except where noted on the caller.
type OpHooks struct {
	// Verify checks kind-specific invariants after the structural verifier
	// passes. VerifyRegions runs after the operation's regions verified.
	Verify        func(*Operation) error
	VerifyRegions func(*Operation) error

	// Fold attempts to compute the operation's results from constant
	// operands. operands[i] is the constant behind operand i or the null
	// attribute. Returning ok=false means the fold did not apply; that is
	// normal control flow, not an error.
	Fold func(op *Operation, operands []Attribute) ([]OpFoldResult, bool)

	// Print renders the operation body after the standard prefix. Nil uses
	// the generic form.
	Print func(op *Operation) string

	// PropertiesSize is the byte size of the inline properties blob,
	// in [0, 2048]. Sizes are rounded up to a multiple of 8.
	PropertiesSize int

	// InitProperties fills a freshly allocated blob with the kind's default
	// state.
	InitProperties func(blob []byte)

	// SetPropertiesFromAttr decodes a generic attribute into the blob. It is
	// the only creation-time hook that can fail.
	SetPropertiesFromAttr func(c *Context, blob []byte, attr Attribute) error

	// GetPropertiesAsAttr encodes the blob as a generic attribute.
	GetPropertiesAsAttr func(c *Context, blob []byte) Attribute

	// HashProperties and CompareProperties define blob identity for
	// equivalence checks. Nil falls back to byte comparison.
	HashProperties    func(blob []byte) uint64
	CompareProperties func(a, b []byte) bool

	// CopyProperties transfers the blob into a clone. Nil falls back to a
	// plain byte copy; kinds whose blob holds shared references supply this.
	CopyProperties func(dst, src []byte)
}

// OpRegistration describes one operation kind for Dialect.AddOperation. Name
// is the bare suffix; the dialect prefix is added at registration.
type OpRegistration struct {
	Name       string
	ID         typeid.ID
	Hooks      OpHooks
	Traits     []typeid.ID
	Interfaces map[typeid.ID]any
}

// OperationName identifies an operation kind by name, registered or not. The
// zero value is invalid.
type OperationName struct {
	impl *opNameImpl
}

// GetOperationName returns the context's record for name, creating an
// unregistered record on first use. Registered names resolve without taking
// the name lock.
func GetOperationName(c *Context, name string) OperationName {
	if rn, ok := c.registeredOperationsByName[name]; ok {
		return rn.OperationName
	}

	c.opNameMu.RLock()
	impl := c.operations[name]
	c.opNameMu.RUnlock()
	if impl != nil {
		return OperationName{impl: impl}
	}

	c.opNameMu.Lock()
	defer c.opNameMu.Unlock()
	if impl = c.operations[name]; impl == nil {
		impl = &opNameImpl{
			name:    name,
			dialect: c.loadedDialects[dialectNamespaceOf(name)],
		}
		c.operations[name] = impl
	}
	return OperationName{impl: impl}
}

func dialectNamespaceOf(name string) string {
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		return name[:idx]
	}
	return ""
}

// Valid reports whether the name is non-zero.
func (n OperationName) Valid() bool { return n.impl != nil }

// Name returns the full operation name.
func (n OperationName) Name() string { return n.impl.name }

// Dialect returns the loaded dialect owning the name's prefix, or nil.
func (n OperationName) Dialect() *Dialect { return n.impl.dialect }

// DialectNamespace returns the prefix before the first dot.
func (n OperationName) DialectNamespace() string { return dialectNamespaceOf(n.impl.name) }

// IsRegistered reports whether the name is backed by a registered kind.
func (n OperationName) IsRegistered() bool { return n.impl.registered }

// Registered returns the registered form, ok=false for unregistered names.
func (n OperationName) Registered() (RegisteredOperationName, bool) {
	if !n.impl.registered {
		return RegisteredOperationName{}, false
	}
	return RegisteredOperationName{n}, true
}

// ID returns the kind identifier; invalid for unregistered names.
func (n OperationName) ID() typeid.ID { return n.impl.id }

// HasTrait reports whether the kind carries the trait. Unregistered names
// carry no traits.
func (n OperationName) HasTrait(tr typeid.ID) bool { return n.impl.traits[tr] }

// Interface resolves an interface on the kind, honoring dialect promises.
func (n OperationName) Interface(id typeid.ID) any {
	if iface, ok := n.impl.interfaces[id]; ok {
		return iface
	}
	if n.impl.dialect != nil && n.impl.id.Valid() {
		n.impl.dialect.checkPromise(n.impl.id, id, "operation "+n.impl.name)
	}
	return nil
}

// HasInterface reports whether an implementation is attached.
func (n OperationName) HasInterface(id typeid.ID) bool {
	_, ok := n.impl.interfaces[id]
	return ok
}

// AttachInterface adds an implementation after registration, resolving a
// matching dialect promise.
func (n OperationName) AttachInterface(id typeid.ID, iface any) {
	if n.impl.interfaces == nil {
		n.impl.interfaces = make(map[typeid.ID]any)
	}
	n.impl.interfaces[id] = iface
	if n.impl.dialect != nil {
		n.impl.dialect.resolvePromise(n.impl.id, id)
	}
}

func (n OperationName) String() string { return n.impl.name }

// RegisteredOperationName is an OperationName known to be registered. It
// grants access to the kind's hooks.
type RegisteredOperationName struct {
	OperationName
}

// Hooks returns the kind's callbacks.
func (n RegisteredOperationName) Hooks() *OpHooks { return &n.impl.hooks }

// LookupRegisteredOperation resolves a name to its registered form.
func LookupRegisteredOperation(c *Context, name string) (RegisteredOperationName, bool) {
	rn, ok := c.registeredOperationsByName[name]
	return rn, ok
}

// RegisteredOperationByID resolves a kind ID to its registered name.
func RegisteredOperationByID(c *Context, id typeid.ID) (RegisteredOperationName, bool) {
	rn, ok := c.registeredOperations[id]
	return rn, ok
}

// RegisteredOperations returns all registered names sorted by name. The
// slice is shared; callers must not mutate it.
func RegisteredOperations(c *Context) []RegisteredOperationName {
	return c.sortedRegisteredOperations
}
