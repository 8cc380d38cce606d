package diag

import (
	"strings"
	"testing"
)

type fakeLoc string

func (l fakeLoc) String() string { return string(l) }

func TestHandlerOrderAndConsumption(t *testing.T) {
	var e Engine
	var order []string

	e.RegisterHandler(func(d Diagnostic) bool {
		order = append(order, "first")
		return false
	})
	e.RegisterHandler(func(d Diagnostic) bool {
		order = append(order, "second")
		return true
	})
	e.RegisterHandler(func(d Diagnostic) bool {
		order = append(order, "third")
		return true
	})

	e.Emit(SevError, fakeLoc("loc"), "boom").Done()

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected handler order: %v", order)
	}
}

func TestUnregisterHandler(t *testing.T) {
	var e Engine
	calls := 0
	id := e.RegisterHandler(func(Diagnostic) bool {
		calls++
		return true
	})
	e.UnregisterHandler(id)
	e.SetFallback(&strings.Builder{})
	e.Emit(SevWarning, nil, "ignored").Done()
	if calls != 0 {
		t.Fatalf("unregistered handler was still invoked")
	}
}

func TestFallbackWriter(t *testing.T) {
	var e Engine
	var sb strings.Builder
	e.SetFallback(&sb)

	e.Emit(SevError, fakeLoc("demo.ir:3"), "bad operand").
		WithNote(nil, "operand defined here").
		Done()

	out := sb.String()
	for _, want := range []string{"demo.ir:3", "error", "bad operand", "note: operand defined here"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fallback output %q missing %q", out, want)
		}
	}
}

func TestDoneIsIdempotent(t *testing.T) {
	var e Engine
	count := 0
	e.RegisterHandler(func(Diagnostic) bool {
		count++
		return true
	})
	f := e.Emit(SevRemark, nil, "once")
	f.Done()
	f.Done()
	if count != 1 {
		t.Fatalf("Done reported %d times, want 1", count)
	}
}
