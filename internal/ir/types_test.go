package ir

import "testing"

func TestIntegerTypeUniquing(t *testing.T) {
	c := NewContext()
	a := GetIntegerType(c, 32)
	b := GetIntegerType(c, 32)
	if a != b {
		t.Fatalf("two i32 handles differ")
	}
	if a == GetIntegerType(c, 64) {
		t.Fatalf("i32 and i64 unified")
	}
	if a.Width() != 32 || !a.IsSignless() {
		t.Fatalf("width=%d signedness=%v", a.Width(), a.Signedness())
	}
	if a.String() != "i32" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestIntegerTypeSignedness(t *testing.T) {
	c := NewContext()
	s := GetIntegerTypeWithSignedness(c, 16, Signed)
	u := GetIntegerTypeWithSignedness(c, 16, Unsigned)
	n := GetIntegerType(c, 16)
	if s == u || s == n || u == n {
		t.Fatalf("signedness variants unified")
	}
	if s.String() != "si16" || u.String() != "ui16" {
		t.Fatalf("printed %q and %q", s, u)
	}
	if got := GetIntegerTypeWithSignedness(c, 16, Signless); got != n {
		t.Fatalf("signless path bypassed the cache")
	}
}

func TestIntegerTypeWidthBounds(t *testing.T) {
	c := NewContext()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on zero width")
		}
	}()
	GetIntegerType(c, 0)
}

func TestTypesIndependentAcrossContexts(t *testing.T) {
	c1 := NewContext()
	c2 := NewContext()
	if GetIntegerType(c1, 32) == GetIntegerType(c2, 32) {
		t.Fatalf("types shared across contexts")
	}
}

func TestSingletonTypes(t *testing.T) {
	c := NewContext()
	if GetIndexType(c) != GetIndexType(c) {
		t.Fatalf("index type not a singleton")
	}
	if GetNoneType(c).String() != "none" {
		t.Fatalf("none printed %q", GetNoneType(c))
	}
	if GetIndexType(c).String() != "index" {
		t.Fatalf("index printed %q", GetIndexType(c))
	}
}

func TestFloatTypes(t *testing.T) {
	c := NewContext()
	if GetFloatType(c, F32) != GetFloatType(c, F32) {
		t.Fatalf("f32 not uniqued")
	}
	if GetFloatType(c, BF16) == GetFloatType(c, F16) {
		t.Fatalf("bf16 and f16 unified")
	}
	if BF16.Width() != 16 || F64.Width() != 64 {
		t.Fatalf("widths wrong")
	}
	if GetFloatType(c, F64).String() != "f64" {
		t.Fatalf("f64 printed %q", GetFloatType(c, F64))
	}
}

func TestFunctionType(t *testing.T) {
	c := NewContext()
	i32 := GetIntegerType(c, 32).Type
	i64 := GetIntegerType(c, 64).Type

	ft1 := GetFunctionType(c, []Type{i32, i32}, []Type{i64})
	ft2 := GetFunctionType(c, []Type{i32, i32}, []Type{i64})
	if ft1 != ft2 {
		t.Fatalf("equal signatures not uniqued")
	}
	if ft1 == GetFunctionType(c, []Type{i32}, []Type{i64}) {
		t.Fatalf("different signatures unified")
	}
	if got := ft1.String(); got != "(i32, i32) -> i64" {
		t.Fatalf("String = %q", got)
	}
}

func TestStringAttrUniquing(t *testing.T) {
	c := NewContext()
	a := GetStringAttr(c, "hello")
	b := GetStringAttr(c, "hello")
	if a != b {
		t.Fatalf("equal strings not uniqued")
	}
	if a.Value() != "hello" {
		t.Fatalf("Value = %q", a.Value())
	}
	if GetStringAttr(c, "") != GetStringAttr(c, "") {
		t.Fatalf("empty string not cached")
	}
}

func TestBoolAndUnitAttrsCached(t *testing.T) {
	c := NewContext()
	if GetBoolAttr(c, true) != GetBoolAttr(c, true) {
		t.Fatalf("true not cached")
	}
	if GetBoolAttr(c, true) == GetBoolAttr(c, false) {
		t.Fatalf("true and false unified")
	}
	if GetUnitAttr(c) != GetUnitAttr(c) {
		t.Fatalf("unit not a singleton")
	}
}

func TestIntegerAttr(t *testing.T) {
	c := NewContext()
	i32 := GetIntegerType(c, 32).Type
	a := GetIntegerAttr(c, i32, 42)
	if a != GetIntegerAttr(c, i32, 42) {
		t.Fatalf("equal integer attrs not uniqued")
	}
	if a == GetIntegerAttr(c, i32, 43) {
		t.Fatalf("different values unified")
	}
	if a == GetIntegerAttr(c, GetIntegerType(c, 64).Type, 42) {
		t.Fatalf("different types unified")
	}
	if a.Value() != 42 || a.Type() != i32 {
		t.Fatalf("value=%d type=%v", a.Value(), a.Type())
	}
}

func TestDictionaryAttrSortedAndDeduped(t *testing.T) {
	c := NewContext()
	i32 := GetIntegerType(c, 32).Type

	var list NamedAttrList
	list.Append(GetStringAttr(c, "b"), GetIntegerAttr(c, i32, 2).Attribute)
	list.Append(GetStringAttr(c, "a"), GetIntegerAttr(c, i32, 1).Attribute)
	list.Append(GetStringAttr(c, "b"), GetIntegerAttr(c, i32, 3).Attribute)

	dict := GetDictionaryAttr(c, &list)
	if dict.Len() != 2 {
		t.Fatalf("Len = %d", dict.Len())
	}
	entries := dict.Entries()
	if entries[0].Name.Value() != "a" || entries[1].Name.Value() != "b" {
		t.Fatalf("entries not sorted: %v", entries)
	}
	// Duplicate names keep the last binding.
	if got := (IntegerAttr{dict.Get("b")}).Value(); got != 3 {
		t.Fatalf("b = %d", got)
	}
	if !dict.Get("missing").IsNil() {
		t.Fatalf("missing name resolved")
	}

	// Insertion order does not matter for identity.
	var list2 NamedAttrList
	list2.Append(GetStringAttr(c, "a"), GetIntegerAttr(c, i32, 1).Attribute)
	list2.Append(GetStringAttr(c, "b"), GetIntegerAttr(c, i32, 3).Attribute)
	if dict != GetDictionaryAttr(c, &list2) {
		t.Fatalf("equal dictionaries not uniqued")
	}

	var empty NamedAttrList
	if GetDictionaryAttr(c, &empty) != GetDictionaryAttr(c, &empty) {
		t.Fatalf("empty dictionary not cached")
	}
}

func TestArrayAttr(t *testing.T) {
	c := NewContext()
	els := []Attribute{GetBoolAttr(c, true).Attribute, GetStringAttr(c, "x").Attribute}
	a := GetArrayAttr(c, els)
	if a != GetArrayAttr(c, els) {
		t.Fatalf("equal arrays not uniqued")
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d", a.Len())
	}
	if a == GetArrayAttr(c, els[:1]) {
		t.Fatalf("different arrays unified")
	}
}

func TestDistinctAttr(t *testing.T) {
	c := NewContext()
	ref := GetStringAttr(c, "payload").Attribute
	d1 := NewDistinctAttr(c, ref)
	d2 := NewDistinctAttr(c, ref)
	if d1 == d2 {
		t.Fatalf("distinct attributes unified")
	}
	if d1.Referenced() != ref || d2.Referenced() != ref {
		t.Fatalf("referenced payload lost")
	}
}

func TestTypeAttr(t *testing.T) {
	c := NewContext()
	i32 := GetIntegerType(c, 32).Type
	a := GetTypeAttr(c, i32)
	if a != GetTypeAttr(c, i32) {
		t.Fatalf("type attr not uniqued")
	}
	if a.Value() != i32 {
		t.Fatalf("Value = %v", a.Value())
	}
}

func TestLocations(t *testing.T) {
	c := NewContext()
	if GetUnknownLoc(c) != GetUnknownLoc(c) {
		t.Fatalf("unknown loc not a singleton")
	}

	file := GetStringAttr(c, "main.go")
	l1 := GetFileLineColLoc(c, file, 10, 4)
	if l1 != GetFileLineColLoc(c, file, 10, 4) {
		t.Fatalf("file locations not uniqued")
	}
	if got := l1.String(); got != "main.go:10:4" {
		t.Fatalf("String = %q", got)
	}

	named := GetNameLoc(c, GetStringAttr(c, "x"), l1)
	if named.String() != `"x"(main.go:10:4)` {
		t.Fatalf("named loc printed %q", named)
	}
}

func TestFusedLocFlattening(t *testing.T) {
	c := NewContext()
	file := GetStringAttr(c, "a.go")
	l1 := GetFileLineColLoc(c, file, 1, 1)
	l2 := GetFileLineColLoc(c, file, 2, 1)

	// Single unique member with no metadata collapses to the member.
	if got := GetFusedLoc(c, []Location{l1, l1}, Attribute{}); got != l1 {
		t.Fatalf("duplicate fusion did not collapse: %v", got)
	}
	if got := GetFusedLoc(c, nil, Attribute{}); got != GetUnknownLoc(c) {
		t.Fatalf("empty fusion = %v", got)
	}

	fused := GetFusedLoc(c, []Location{l1, l2}, Attribute{})
	if fused != GetFusedLoc(c, []Location{l1, l2}, Attribute{}) {
		t.Fatalf("equal fusions not uniqued")
	}
	// Nested fusion with matching metadata flattens.
	outer := GetFusedLoc(c, []Location{fused, l1}, Attribute{})
	if len(outer.Locations()) != 2 {
		t.Fatalf("nested fusion not flattened: %v", outer)
	}
}
