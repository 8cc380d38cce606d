package ir

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"lattice/internal/diag"
	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

// threadingGloballyDisabled force-disables multithreading for every context
// in the process, overriding any later EnableMultithreading request. It is a
// debugging escape hatch wired to the CLI's --disable-threading flag.
var threadingGloballyDisabled atomic.Bool

// DisableThreadingGlobally turns multithreading off for all contexts created
// afterwards and makes per-context re-enabling a no-op.
func DisableThreadingGlobally() {
	threadingGloballyDisabled.Store(true)
}

func isThreadingGloballyDisabled() bool {
	return threadingGloballyDisabled.Load()
}

// Context owns all uniqued IR entities and the registries that describe
// them. See the package documentation for the ownership and concurrency
// model.
type Context struct {
	diagEngine diag.Engine

	// Configuration flags. Mutations are guarded by assertSafeToMutate.
	allowUnregisteredDialects   bool
	threadingEnabled            bool
	printOpOnDiagnostic         bool
	printStackTraceOnDiagnostic bool

	// Tracks whether we are currently inside a caller-declared multithreaded
	// execution phase. Registration mutations panic while this is nonzero.
	multiThreadedExecution atomic.Int32

	threadPool      *ThreadPool
	ownedThreadPool bool

	// Loaded dialects by namespace. A nil entry marks a dialect that is
	// currently mid-load, which lets reentrant loads be rejected loudly.
	loadedDialects  map[string]*Dialect
	dialectRegistry DialectRegistry
	appliedExts     map[*DialectExtension]bool

	// Operation name tables. registeredOperationsByName is written only
	// during registration phases (enforced by assertSafeToMutate), so the
	// lock-free read in GetOperationName is safe once parallel execution
	// begins. The unregistered-name table is guarded by opNameMu.
	opNameMu                   sync.RWMutex
	operations                 map[string]*opNameImpl
	registeredOperations       map[typeid.ID]RegisteredOperationName
	registeredOperationsByName map[string]RegisteredOperationName
	sortedRegisteredOperations []RegisteredOperationName

	// Per-kind dispatch tables.
	registeredTypes      map[typeid.ID]*AbstractType
	nameToType           map[string]*AbstractType
	registeredAttributes map[typeid.ID]*AbstractAttribute
	nameToAttribute      map[string]*AbstractAttribute

	typeUniquer   *uniquer.Uniquer
	attrUniquer   *uniquer.Uniquer
	affineUniquer *uniquer.Uniquer

	// String attributes that reference a dialect which has not loaded yet,
	// keyed by namespace. Guarded by its own mutex, distinct from the main
	// registration path, to avoid lock ordering issues during dialect load.
	pendingStrAttrMu           sync.Mutex
	dialectReferencingStrAttrs map[string][]*stringAttrData

	serialCounter atomic.Uint64

	cached cachedInstances
}

// cachedInstances are constructed once per context so the hottest entities
// never take the uniquer round-trip.
type cachedInstances struct {
	i1, i8, i16, i32, i64, i128 IntegerType
	indexTy                     IndexType
	noneTy                      NoneType
	bf16, f16, f32, f64         FloatType

	trueAttr, falseAttr BoolAttr
	unitAttr            UnitAttr
	emptyDict           DictionaryAttr
	emptyString         StringAttr
	unknownLoc          Location
}

// ContextOption configures NewContext.
type ContextOption func(*contextConfig)

type contextConfig struct {
	registry         *DialectRegistry
	disableThreading bool
}

// WithRegistry pre-populates the context's available-dialect registry.
func WithRegistry(reg *DialectRegistry) ContextOption {
	return func(c *contextConfig) { c.registry = reg }
}

// WithoutThreading creates the context with multithreading disabled.
func WithoutThreading() ContextOption {
	return func(c *contextConfig) { c.disableThreading = true }
}

// NewContext creates a context with the builtin dialect pre-loaded and the
// common type/attribute singletons cached.
func NewContext(opts ...ContextOption) *Context {
	var cfg contextConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Context{
		threadingEnabled:           !cfg.disableThreading && !isThreadingGloballyDisabled(),
		printOpOnDiagnostic:        true,
		loadedDialects:             make(map[string]*Dialect),
		appliedExts:                make(map[*DialectExtension]bool),
		operations:                 make(map[string]*opNameImpl),
		registeredOperations:       make(map[typeid.ID]RegisteredOperationName),
		registeredOperationsByName: make(map[string]RegisteredOperationName),
		registeredTypes:            make(map[typeid.ID]*AbstractType),
		nameToType:                 make(map[string]*AbstractType),
		registeredAttributes:       make(map[typeid.ID]*AbstractAttribute),
		nameToAttribute:            make(map[string]*AbstractAttribute),
		typeUniquer:                uniquer.New(),
		attrUniquer:                uniquer.New(),
		affineUniquer:              uniquer.New(),
		dialectReferencingStrAttrs: make(map[string][]*stringAttrData),
	}
	if !c.threadingEnabled {
		c.typeUniquer.DisableMultithreading(true)
		c.attrUniquer.DisableMultithreading(true)
		c.affineUniquer.DisableMultithreading(true)
	} else {
		c.threadPool = newThreadPool()
		c.ownedThreadPool = true
	}

	if cfg.registry != nil {
		cfg.registry.appendTo(&c.dialectRegistry)
	}

	// The builtin dialect is always pre-loaded; everything else is lazy.
	loadBuiltinDialect(c)
	c.initCachedInstances()
	registerAffineKinds(c.affineUniquer)
	return c
}

func (c *Context) nextSerial() uint64 {
	return c.serialCounter.Add(1)
}

// Diagnostics returns the diagnostic engine for this context.
func (c *Context) Diagnostics() *diag.Engine {
	return &c.diagEngine
}

// assertSafeToMutate panics if the context is inside a multithreaded
// execution phase. Enforced in every build: a mutation racing parallel
// readers corrupts the registry.
func (c *Context) assertSafeToMutate(what string) {
	if c.multiThreadedExecution.Load() != 0 {
		panic(fmt.Sprintf("ir: %s while in a multithreaded execution phase "+
			"(this can indicate a missing dependent dialect declaration)", what))
	}
}

// EnterMultiThreadedExecution marks the start of a phase where multiple
// goroutines traverse IR owned by this context. Registration mutations panic
// until the matching ExitMultiThreadedExecution.
func (c *Context) EnterMultiThreadedExecution() {
	c.multiThreadedExecution.Add(1)
}

// ExitMultiThreadedExecution closes the bracket opened by
// EnterMultiThreadedExecution.
func (c *Context) ExitMultiThreadedExecution() {
	if c.multiThreadedExecution.Add(-1) < 0 {
		panic("ir: ExitMultiThreadedExecution without a matching Enter")
	}
}

// IsMultithreadingEnabled reports whether this context may use threads.
func (c *Context) IsMultithreadingEnabled() bool {
	return c.threadingEnabled
}

// DisableMultithreading toggles threading support. The owned thread pool is
// torn down when disabling and recreated when re-enabling, and the uniquers'
// locking mode follows the flag. The global override takes precedence over
// any request made here.
func (c *Context) DisableMultithreading(disable bool) {
	if isThreadingGloballyDisabled() && !disable {
		return
	}
	c.assertSafeToMutate("changing the disable-threading configuration")

	c.threadingEnabled = !disable
	c.typeUniquer.DisableMultithreading(disable)
	c.attrUniquer.DisableMultithreading(disable)
	c.affineUniquer.DisableMultithreading(disable)

	if disable {
		if c.ownedThreadPool {
			c.threadPool = nil
			c.ownedThreadPool = false
		}
	} else if c.threadPool == nil {
		c.threadPool = newThreadPool()
		c.ownedThreadPool = true
	}
}

// SetThreadPool adopts an externally owned pool and re-enables
// multithreading. Requires multithreading to be currently disabled.
func (c *Context) SetThreadPool(pool *ThreadPool) {
	if c.threadingEnabled {
		panic("ir: SetThreadPool requires multithreading to be disabled first")
	}
	c.threadPool = pool
	c.ownedThreadPool = false
	c.DisableMultithreading(false)
}

// ThreadPool returns the active pool. Panics if multithreading is disabled.
func (c *Context) ThreadPool() *ThreadPool {
	if !c.threadingEnabled || c.threadPool == nil {
		panic("ir: ThreadPool requested while multithreading is disabled")
	}
	return c.threadPool
}

// NumThreads returns the pool's concurrency, or 1 when threading is off.
func (c *Context) NumThreads() int {
	if c.threadingEnabled && c.threadPool != nil {
		return c.threadPool.MaxConcurrency()
	}
	return 1
}

// AllowsUnregisteredDialects reports whether operations of unknown dialects
// may be created in this context.
func (c *Context) AllowsUnregisteredDialects() bool {
	return c.allowUnregisteredDialects
}

// AllowUnregisteredDialects toggles creation of operations in namespaces no
// loaded dialect claims. In most pipelines leaving this off catches
// misconfiguration early.
func (c *Context) AllowUnregisteredDialects(allow bool) {
	c.assertSafeToMutate("changing the allow-unregistered-dialects configuration")
	c.allowUnregisteredDialects = allow
}

// ShouldPrintOpOnDiagnostic reports whether the offending operation is
// attached as a note to diagnostics emitted via the Operation emit methods.
func (c *Context) ShouldPrintOpOnDiagnostic() bool {
	return c.printOpOnDiagnostic
}

// PrintOpOnDiagnostic toggles attaching the operation to its diagnostics.
func (c *Context) PrintOpOnDiagnostic(enable bool) {
	c.assertSafeToMutate("changing the print-op-on-diagnostic configuration")
	c.printOpOnDiagnostic = enable
}

// ShouldPrintStackTraceOnDiagnostic reports whether a stack trace is
// attached to emitted diagnostics.
func (c *Context) ShouldPrintStackTraceOnDiagnostic() bool {
	return c.printStackTraceOnDiagnostic
}

// PrintStackTraceOnDiagnostic toggles attaching stack traces to diagnostics.
func (c *Context) PrintStackTraceOnDiagnostic(enable bool) {
	c.assertSafeToMutate("changing the print-stacktrace-on-diagnostic configuration")
	c.printStackTraceOnDiagnostic = enable
}

// RegistryHash combines the registry's entity counts into a coarse change
// indicator. Two registries with equal counts but different members collide;
// that is acceptable for its cache-invalidation use, it is not a content
// hash.
func (c *Context) RegistryHash() uint64 {
	return uniquer.HashWords(
		uint64(len(c.loadedDialects)),
		uint64(len(c.registeredAttributes)),
		uint64(len(c.registeredOperations)),
		uint64(len(c.registeredTypes)),
	)
}

// LoadedDialects returns the loaded dialects sorted by namespace.
func (c *Context) LoadedDialects() []*Dialect {
	result := make([]*Dialect, 0, len(c.loadedDialects))
	for _, d := range c.loadedDialects {
		if d != nil {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Namespace() < result[j].Namespace()
	})
	return result
}

// AvailableDialects returns the namespaces registered as loadable, whether
// or not they are loaded yet.
func (c *Context) AvailableDialects() []string {
	return c.dialectRegistry.DialectNames()
}

// LoadedDialect returns the dialect loaded under the namespace, or nil.
func (c *Context) LoadedDialect(namespace string) *Dialect {
	return c.loadedDialects[namespace]
}

// IsDialectLoading reports whether the namespace is currently mid-load.
func (c *Context) IsDialectLoading(namespace string) bool {
	d, ok := c.loadedDialects[namespace]
	return ok && d == nil
}

// GetOrLoadDialect loads the dialect registered under the namespace, or
// returns nil if the registry has no allocator for it.
func (c *Context) GetOrLoadDialect(namespace string) *Dialect {
	if d := c.loadedDialects[namespace]; d != nil {
		return d
	}
	entry, ok := c.dialectRegistry.lookup(namespace)
	if !ok {
		return nil
	}
	return c.GetOrLoadDialectWith(namespace, entry.id, entry.init)
}

// GetOrLoadDialectWith is the single chokepoint for dialect loading. On the
// first call for a namespace it inserts a "currently loading" placeholder,
// runs init (which may recursively load dependency dialects), backpatches
// string attributes that were waiting for this namespace, and applies any
// registry extensions whose requirements are now satisfied. Repeat calls
// return the cached dialect, panicking if the TypeID does not match what the
// namespace was first registered with.
func (c *Context) GetOrLoadDialectWith(namespace string, id typeid.ID, init DialectInit) *Dialect {
	if d, loading := c.loadedDialects[namespace]; loading {
		if d == nil {
			panic(fmt.Sprintf("ir: loading dialect %q while the same dialect is mid-load; "+
				"declare it as a dependency instead of loading reentrantly", namespace))
		}
		if d.id != id {
			panic(fmt.Sprintf("ir: a dialect with namespace %q has already been registered "+
				"with a different kind ID", namespace))
		}
		return d
	}

	c.assertSafeToMutate("loading dialect " + namespace)
	c.loadedDialects[namespace] = nil // mark as currently loading

	d := newDialect(c, namespace, id)
	if init != nil {
		init(d)
	}
	c.loadedDialects[namespace] = d

	// Backpatch identifiers created before this dialect existed.
	c.pendingStrAttrMu.Lock()
	pending := c.dialectReferencingStrAttrs[namespace]
	delete(c.dialectReferencingStrAttrs, namespace)
	c.pendingStrAttrMu.Unlock()
	for _, st := range pending {
		st.referencedDialect = d
	}

	c.applyExtensionsFor(d)
	return d
}

// LoadAllAvailableDialects eagerly loads everything the registry knows.
func (c *Context) LoadAllAvailableDialects() {
	for _, namespace := range c.AvailableDialects() {
		c.GetOrLoadDialect(namespace)
	}
}

// AppendDialectRegistry merges an available-dialect registry into this
// context's. A no-op if the incoming registry is already a structural
// subset, which avoids redundant extension re-application.
func (c *Context) AppendDialectRegistry(reg *DialectRegistry) {
	if reg.isSubsetOf(&c.dialectRegistry) {
		return
	}
	c.assertSafeToMutate("appending to the dialect registry")
	reg.appendTo(&c.dialectRegistry)

	// Newly available extensions may already be satisfiable.
	for _, d := range c.LoadedDialects() {
		c.applyExtensionsFor(d)
	}
}

func (c *Context) applyExtensionsFor(justLoaded *Dialect) {
	for _, ext := range c.dialectRegistry.extensions {
		if len(ext.required) == 0 {
			// Anchorless extensions run once per loaded dialect.
			ext.apply(c, []*Dialect{justLoaded})
			continue
		}
		if c.appliedExts[ext] {
			continue
		}
		dialects := make([]*Dialect, 0, len(ext.required))
		satisfied := true
		for _, name := range ext.required {
			d := c.loadedDialects[name]
			if d == nil {
				satisfied = false
				break
			}
			dialects = append(dialects, d)
		}
		if satisfied {
			c.appliedExts[ext] = true
			ext.apply(c, dialects)
		}
	}
}

// lookupAbstractType resolves a registered type kind; missing registration
// is a build misconfiguration and fatal.
func (c *Context) lookupAbstractType(id typeid.ID) *AbstractType {
	ab := c.registeredTypes[id]
	if ab == nil {
		panic(fmt.Sprintf("ir: trying to create a type (%s) that was not registered in this context", id))
	}
	return ab
}

// lookupAbstractAttribute resolves a registered attribute kind; missing
// registration is fatal.
func (c *Context) lookupAbstractAttribute(id typeid.ID) *AbstractAttribute {
	ab := c.registeredAttributes[id]
	if ab == nil {
		panic(fmt.Sprintf("ir: trying to create an attribute (%s) that was not registered in this context", id))
	}
	return ab
}

// AbstractTypeByName returns the descriptor registered under the full name
// ("dialect.typename"), or nil.
func (c *Context) AbstractTypeByName(name string) *AbstractType {
	return c.nameToType[name]
}

// AbstractAttributeByName returns the descriptor registered under the full
// name, or nil.
func (c *Context) AbstractAttributeByName(name string) *AbstractAttribute {
	return c.nameToAttribute[name]
}
