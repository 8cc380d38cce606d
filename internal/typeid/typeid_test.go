package typeid

import "testing"

type kindA struct{}
type kindB struct{}

func TestOfIsCanonical(t *testing.T) {
	a1 := Of[kindA]()
	a2 := Of[kindA]()
	if a1 != a2 {
		t.Fatalf("Of[kindA] returned two distinct IDs")
	}
	if a1 == Of[kindB]() {
		t.Fatalf("distinct types must have distinct IDs")
	}
}

func TestZeroIDInvalid(t *testing.T) {
	var id ID
	if id.Valid() {
		t.Fatalf("zero ID should be invalid")
	}
	if id.Name() != "<invalid>" {
		t.Fatalf("unexpected name for zero ID: %q", id.Name())
	}
}

func TestFromName(t *testing.T) {
	n1 := FromName("custom.kind")
	n2 := FromName("custom.kind")
	if n1 != n2 {
		t.Fatalf("FromName should return a canonical ID per name")
	}
	if n1 == FromName("custom.other") {
		t.Fatalf("different names must map to different IDs")
	}
	if n1.Name() != "custom.kind" {
		t.Fatalf("Name() = %q, want custom.kind", n1.Name())
	}
}

func TestFromNameEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for empty name")
		}
	}()
	FromName("")
}

func TestAllocatorIssuesDistinctIDs(t *testing.T) {
	var alloc Allocator
	seen := make(map[ID]struct{})
	for i := 0; i < 100; i++ {
		id := alloc.Allocate()
		if _, dup := seen[id]; dup {
			t.Fatalf("allocator issued a duplicate ID")
		}
		seen[id] = struct{}{}
	}
	if alloc.Allocate() == Of[kindA]() {
		t.Fatalf("dynamic ID collided with a static one")
	}
}
