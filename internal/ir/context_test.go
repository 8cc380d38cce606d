package ir

import (
	"strings"
	"testing"

	"lattice/internal/typeid"
)

type testDialectKind struct{}
type otherDialectKind struct{}

var testDialectID = typeid.Of[testDialectKind]()
var otherDialectID = typeid.Of[otherDialectKind]()

func TestBuiltinDialectPreloaded(t *testing.T) {
	c := NewContext()
	d := c.LoadedDialect("builtin")
	if d == nil {
		t.Fatalf("builtin dialect not loaded")
	}
	if d.Namespace() != "builtin" {
		t.Fatalf("namespace = %q", d.Namespace())
	}
	if _, ok := LookupRegisteredOperation(c, "builtin.module"); !ok {
		t.Fatalf("builtin.module not registered")
	}
}

func TestDialectLoadIdempotent(t *testing.T) {
	c := NewContext()
	inits := 0
	init := func(*Dialect) { inits++ }

	d1 := c.GetOrLoadDialectWith("test", testDialectID, init)
	d2 := c.GetOrLoadDialectWith("test", testDialectID, init)
	if d1 == nil || d1 != d2 {
		t.Fatalf("expected the same dialect instance, got %p and %p", d1, d2)
	}
	if inits != 1 {
		t.Fatalf("init ran %d times", inits)
	}
}

func TestDialectKindConflictPanics(t *testing.T) {
	c := NewContext()
	c.GetOrLoadDialectWith("test", testDialectID, nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on conflicting dialect kind")
		}
	}()
	c.GetOrLoadDialectWith("test", otherDialectID, nil)
}

func TestReentrantDialectLoadPanics(t *testing.T) {
	c := NewContext()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on reentrant load")
		} else if !strings.Contains(r.(string), "mid-load") {
			t.Fatalf("unexpected panic message: %v", r)
		}
	}()
	c.GetOrLoadDialectWith("test", testDialectID, func(d *Dialect) {
		c.GetOrLoadDialectWith("test", testDialectID, nil)
	})
}

func TestLazyLoadingThroughRegistry(t *testing.T) {
	var reg DialectRegistry
	loaded := false
	reg.Insert("test", testDialectID, func(*Dialect) { loaded = true })

	c := NewContext(WithRegistry(&reg))
	if loaded {
		t.Fatalf("dialect loaded eagerly")
	}
	if c.LoadedDialect("test") != nil {
		t.Fatalf("dialect reported loaded before use")
	}
	if got := c.AvailableDialects(); len(got) != 2 || got[0] != "builtin" || got[1] != "test" {
		t.Fatalf("available = %v", got)
	}

	d := c.GetOrLoadDialect("test")
	if d == nil || !loaded {
		t.Fatalf("dialect did not load on demand")
	}
	if c.GetOrLoadDialect("nosuch") != nil {
		t.Fatalf("unknown namespace should resolve to nil")
	}
}

func TestRegistryHashTracksLoading(t *testing.T) {
	var reg DialectRegistry
	reg.Insert("test", testDialectID, nil)
	c := NewContext(WithRegistry(&reg))

	before := c.RegistryHash()
	if c.RegistryHash() != before {
		t.Fatalf("hash not stable")
	}
	c.GetOrLoadDialect("test")
	if c.RegistryHash() == before {
		t.Fatalf("hash did not change after a dialect load")
	}
}

func TestStringAttrDialectBackpatch(t *testing.T) {
	c := NewContext()

	attr := GetStringAttr(c, "test.some_name")
	if attr.ReferencedDialect() != nil {
		t.Fatalf("dialect resolved before loading")
	}

	d := c.GetOrLoadDialectWith("test", testDialectID, nil)
	if attr.ReferencedDialect() != d {
		t.Fatalf("referenced dialect not backpatched")
	}

	// Created after the load, the reference resolves immediately.
	attr2 := GetStringAttr(c, "test.other")
	if attr2.ReferencedDialect() != d {
		t.Fatalf("reference not resolved at creation")
	}
}

func TestExtensionWithRequiredDialects(t *testing.T) {
	var reg DialectRegistry
	reg.Insert("test", testDialectID, nil)
	reg.Insert("other", otherDialectID, nil)

	applied := 0
	reg.AddExtension(NewDialectExtension([]string{"test", "other"}, func(c *Context, ds []*Dialect) {
		applied++
		if len(ds) != 2 || ds[0].Namespace() != "test" || ds[1].Namespace() != "other" {
			t.Fatalf("unexpected dialects: %v", ds)
		}
	}))

	c := NewContext(WithRegistry(&reg))
	c.GetOrLoadDialect("test")
	if applied != 0 {
		t.Fatalf("extension ran before requirements were met")
	}
	c.GetOrLoadDialect("other")
	if applied != 1 {
		t.Fatalf("extension ran %d times", applied)
	}
	// Loading more dialects must not re-run a satisfied extension.
	c.GetOrLoadDialectWith("third", typeid.FromName("third-dialect"), nil)
	if applied != 1 {
		t.Fatalf("satisfied extension re-ran")
	}
}

func TestAppendDialectRegistrySubsetNoop(t *testing.T) {
	var reg DialectRegistry
	reg.Insert("test", testDialectID, nil)
	c := NewContext(WithRegistry(&reg))

	before := len(c.AvailableDialects())
	c.AppendDialectRegistry(&reg)
	if len(c.AvailableDialects()) != before {
		t.Fatalf("subset append changed the registry")
	}

	var more DialectRegistry
	more.Insert("other", otherDialectID, nil)
	c.AppendDialectRegistry(&more)
	if c.GetOrLoadDialect("other") == nil {
		t.Fatalf("appended dialect not loadable")
	}
}

func TestMultithreadedExecutionGuard(t *testing.T) {
	c := NewContext()
	c.EnterMultiThreadedExecution()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic on mutation during multithreaded execution")
			}
		}()
		c.GetOrLoadDialectWith("test", testDialectID, nil)
	}()
	c.ExitMultiThreadedExecution()

	// After exiting, mutation works again.
	if c.GetOrLoadDialectWith("test", testDialectID, nil) == nil {
		t.Fatalf("load failed after exiting the phase")
	}
}

func TestThreadingConfiguration(t *testing.T) {
	c := NewContext()
	if !c.IsMultithreadingEnabled() {
		t.Fatalf("threading disabled by default")
	}
	if c.NumThreads() < 1 {
		t.Fatalf("NumThreads = %d", c.NumThreads())
	}

	c.DisableMultithreading(true)
	if c.IsMultithreadingEnabled() || c.NumThreads() != 1 {
		t.Fatalf("disable did not take effect")
	}

	pool := NewThreadPool(2)
	c.SetThreadPool(pool)
	if !c.IsMultithreadingEnabled() || c.NumThreads() != 2 {
		t.Fatalf("external pool not adopted")
	}
	if c.ThreadPool() != pool {
		t.Fatalf("ThreadPool returned a different pool")
	}
}

func TestWithoutThreadingOption(t *testing.T) {
	c := NewContext(WithoutThreading())
	if c.IsMultithreadingEnabled() {
		t.Fatalf("threading enabled despite option")
	}
	if c.NumThreads() != 1 {
		t.Fatalf("NumThreads = %d", c.NumThreads())
	}
}

func TestLoadedDialectsSorted(t *testing.T) {
	c := NewContext()
	c.GetOrLoadDialectWith("zeta", testDialectID, nil)
	c.GetOrLoadDialectWith("alpha", otherDialectID, nil)

	names := make([]string, 0)
	for _, d := range c.LoadedDialects() {
		names = append(names, d.Namespace())
	}
	if len(names) != 3 || names[0] != "alpha" || names[1] != "builtin" || names[2] != "zeta" {
		t.Fatalf("loaded = %v", names)
	}
}

func TestPromisedInterface(t *testing.T) {
	ifaceID := typeid.FromName("test-interface")
	c := NewContext()
	d := c.GetOrLoadDialectWith("test", testDialectID, func(d *Dialect) {
		d.DeclarePromisedInterface(testDialectID, ifaceID)
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic on unresolved promised interface")
			}
		}()
		d.Interface(ifaceID)
	}()

	d.AddInterface(ifaceID, "impl")
	if got := d.Interface(ifaceID); got != "impl" {
		t.Fatalf("Interface = %v", got)
	}
}
