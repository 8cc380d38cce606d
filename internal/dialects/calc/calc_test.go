package calc

import (
	"strings"
	"testing"

	"lattice/internal/ir"
)

func newContext(t *testing.T) *ir.Context {
	t.Helper()
	c := ir.NewContext()
	Load(c)
	return c
}

func TestLoadIdempotent(t *testing.T) {
	c := newContext(t)
	if Load(c) != c.LoadedDialect(Namespace) {
		t.Fatalf("second load returned a different dialect")
	}
	for _, name := range []string{"calc.constant", "calc.add", "calc.mul"} {
		if _, ok := ir.LookupRegisteredOperation(c, name); !ok {
			t.Fatalf("%s not registered", name)
		}
	}
}

func TestConstantRoundTrip(t *testing.T) {
	c := newContext(t)
	for _, v := range []int64{0, 1, -1, 4096, -88, 1 << 40} {
		op, err := NewConstant(c, ir.GetUnknownLoc(c), v)
		if err != nil {
			t.Fatalf("NewConstant(%d): %v", v, err)
		}
		got, err := ConstantValue(op)
		if err != nil || got != v {
			t.Fatalf("ConstantValue = %d, %v; want %d", got, err, v)
		}
		if err := ir.Verify(op); err != nil {
			t.Fatalf("constant %d does not verify: %v", v, err)
		}
	}
}

func TestConstantPropertiesAttr(t *testing.T) {
	c := newContext(t)
	op, err := NewConstant(c, ir.GetUnknownLoc(c), 7)
	if err != nil {
		t.Fatalf("NewConstant: %v", err)
	}
	attr := op.GetPropertiesAsAttr()
	if !attr.Is(ir.IntegerAttrID) {
		t.Fatalf("properties attr = %v", attr)
	}
	if got := (ir.IntegerAttr{Attribute: attr}).Value(); got != 7 {
		t.Fatalf("decoded %d", got)
	}

	// The attr round-trips through SetPropertiesFromAttr.
	i64 := ir.GetIntegerType(c, 64).Type
	if err := op.SetPropertiesFromAttr(ir.GetIntegerAttr(c, i64, 9).Attribute); err != nil {
		t.Fatalf("SetPropertiesFromAttr: %v", err)
	}
	if got, _ := ConstantValue(op); got != 9 {
		t.Fatalf("value after set = %d", got)
	}
}

func TestConstantRejectsWrongAttrKind(t *testing.T) {
	c := newContext(t)
	state := ir.NewOperationState(ir.GetUnknownLoc(c), "calc.constant")
	state.AddResults(ir.GetIntegerType(c, 64).Type)
	state.SetPropertiesAttr(ir.GetStringAttr(c, "nope").Attribute)
	if _, err := ir.Create(c, state); err == nil {
		t.Fatalf("expected a properties decoding error")
	}
}

func TestPropertiesEquivalence(t *testing.T) {
	c := newContext(t)
	a, _ := NewConstant(c, ir.GetUnknownLoc(c), 5)
	b, _ := NewConstant(c, ir.GetUnknownLoc(c), 5)
	other, _ := NewConstant(c, ir.GetUnknownLoc(c), 6)

	if !a.ComparePropertiesEqual(b) {
		t.Fatalf("equal constants compare unequal")
	}
	if a.ComparePropertiesEqual(other) {
		t.Fatalf("different constants compare equal")
	}
	if a.HashProperties() != b.HashProperties() {
		t.Fatalf("equal constants hash differently")
	}
}

func TestAddFold(t *testing.T) {
	c := newContext(t)
	loc := ir.GetUnknownLoc(c)
	lhs, _ := NewConstant(c, loc, 2)
	rhs, _ := NewConstant(c, loc, 3)
	add, err := NewAdd(c, loc, lhs.Result(0), rhs.Result(0))
	if err != nil {
		t.Fatalf("NewAdd: %v", err)
	}
	if err := ir.Verify(add); err != nil {
		t.Fatalf("add does not verify: %v", err)
	}

	i64 := ir.GetIntegerType(c, 64).Type
	operands := []ir.Attribute{
		ir.GetIntegerAttr(c, i64, 2).Attribute,
		ir.GetIntegerAttr(c, i64, 3).Attribute,
	}
	results, ok := add.Fold(operands)
	if !ok || len(results) != 1 || !results[0].IsAttr() {
		t.Fatalf("fold failed: ok=%v results=%v", ok, results)
	}
	if got := (ir.IntegerAttr{Attribute: results[0].Attr()}).Value(); got != 5 {
		t.Fatalf("2+3 folded to %d", got)
	}
}

func TestFoldIdentity(t *testing.T) {
	c := newContext(t)
	loc := ir.GetUnknownLoc(c)
	x, _ := NewConstant(c, loc, 11)
	zero, _ := NewConstant(c, loc, 0)
	add, _ := NewAdd(c, loc, x.Result(0), zero.Result(0))

	i64 := ir.GetIntegerType(c, 64).Type
	operands := []ir.Attribute{{}, ir.GetIntegerAttr(c, i64, 0).Attribute}
	results, ok := add.Fold(operands)
	if !ok || len(results) != 1 || results[0].IsAttr() {
		t.Fatalf("identity fold failed: ok=%v results=%v", ok, results)
	}
	if results[0].Value() != ir.Value(x.Result(0)) {
		t.Fatalf("identity fold returned the wrong value")
	}

	one, _ := NewConstant(c, loc, 1)
	mul, _ := NewMul(c, loc, one.Result(0), x.Result(0))
	results, ok = mul.Fold([]ir.Attribute{ir.GetIntegerAttr(c, i64, 1).Attribute, {}})
	if !ok || results[0].Value() != ir.Value(x.Result(0)) {
		t.Fatalf("1*x fold failed")
	}
}

func TestFoldDeclinesUnknownOperands(t *testing.T) {
	c := newContext(t)
	loc := ir.GetUnknownLoc(c)
	a, _ := NewConstant(c, loc, 2)
	b, _ := NewConstant(c, loc, 3)
	add, _ := NewAdd(c, loc, a.Result(0), b.Result(0))

	if _, ok := add.Fold(nil); ok {
		t.Fatalf("fold applied with no known operands")
	}
}

func TestBinaryVerify(t *testing.T) {
	c := newContext(t)
	loc := ir.GetUnknownLoc(c)
	x, _ := NewConstant(c, loc, 1)

	state := ir.NewOperationState(loc, "calc.add")
	state.AddOperands(x.Result(0), x.Result(0))
	state.AddResults(ir.GetIntegerType(c, 32).Type)
	bad := ir.MustCreate(c, state)
	err := ir.Verify(bad)
	if err == nil || !strings.Contains(err.Error(), "does not match result type") {
		t.Fatalf("Verify = %v", err)
	}
}

func TestCustomPrinting(t *testing.T) {
	c := newContext(t)
	op, _ := NewConstant(c, ir.GetUnknownLoc(c), 12)
	if got := op.String(); got != "%0 = calc.constant 12 : i64" {
		t.Fatalf("printed %q", got)
	}
}
