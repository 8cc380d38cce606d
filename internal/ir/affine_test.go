package ir

import "testing"

func TestAffineExprUniquing(t *testing.T) {
	c := NewContext()
	d0 := GetAffineDimExpr(c, 0)
	if d0 != GetAffineDimExpr(c, 0) {
		t.Fatalf("dim exprs not uniqued")
	}
	if d0 == GetAffineDimExpr(c, 1) {
		t.Fatalf("different dims unified")
	}
	if d0 == GetAffineSymbolExpr(c, 0) {
		t.Fatalf("dim and symbol unified")
	}

	sum := d0.Add(GetAffineConstantExpr(c, 4))
	if sum != d0.Add(GetAffineConstantExpr(c, 4)) {
		t.Fatalf("binary exprs not uniqued")
	}
	if sum.String() != "(d0 + 4)" {
		t.Fatalf("String = %q", sum.String())
	}
}

func TestAffineConstantFolding(t *testing.T) {
	c := NewContext()
	two := GetAffineConstantExpr(c, 2)
	three := GetAffineConstantExpr(c, 3)

	if got := two.Add(three); !got.IsConstant() || got.Value() != 5 {
		t.Fatalf("2+3 = %v", got)
	}
	if got := two.Mul(three); got.Value() != 6 {
		t.Fatalf("2*3 = %v", got)
	}
	// Floor and ceil division round toward the matching infinity.
	neg := GetAffineConstantExpr(c, -7)
	if got := neg.FloorDiv(two); got.Value() != -4 {
		t.Fatalf("-7 floordiv 2 = %v", got)
	}
	if got := GetAffineConstantExpr(c, 7).CeilDiv(two); got.Value() != 4 {
		t.Fatalf("7 ceildiv 2 = %v", got)
	}
	// Modulo is always non-negative for positive divisors.
	if got := neg.Mod(three); got.Value() != 2 {
		t.Fatalf("-7 mod 3 = %v", got)
	}
}

func TestAffineEvaluate(t *testing.T) {
	c := NewContext()
	// d0 * 2 + s0
	expr := GetAffineDimExpr(c, 0).Mul(GetAffineConstantExpr(c, 2)).Add(GetAffineSymbolExpr(c, 0))

	v, err := expr.Evaluate([]int64{10}, []int64{3})
	if err != nil || v != 23 {
		t.Fatalf("Evaluate = %d, %v", v, err)
	}
	if _, err := expr.Evaluate(nil, []int64{3}); err == nil {
		t.Fatalf("missing dim not reported")
	}
}

func TestAffineMap(t *testing.T) {
	c := NewContext()
	d0 := GetAffineDimExpr(c, 0)
	d1 := GetAffineDimExpr(c, 1)

	m := GetAffineMap(c, 2, 0, []AffineExpr{d1, d0})
	if m != GetAffineMap(c, 2, 0, []AffineExpr{d1, d0}) {
		t.Fatalf("maps not uniqued")
	}
	if m == GetAffineMap(c, 2, 0, []AffineExpr{d0, d1}) {
		t.Fatalf("different result orders unified")
	}
	if m.String() != "(d0, d1) -> (d1, d0)" {
		t.Fatalf("String = %q", m.String())
	}

	out, err := m.Evaluate([]int64{7, 9}, nil)
	if err != nil || out[0] != 9 || out[1] != 7 {
		t.Fatalf("Evaluate = %v, %v", out, err)
	}
	if _, err := m.Evaluate([]int64{7}, nil); err == nil {
		t.Fatalf("arity mismatch not reported")
	}
}

func TestIntegerSet(t *testing.T) {
	c := NewContext()
	d0 := GetAffineDimExpr(c, 0)
	ten := GetAffineConstantExpr(c, 10)

	// d0 >= 0 and 10 - d0 >= 0, the interval [0, 10].
	upper := ten.Add(d0.Mul(GetAffineConstantExpr(c, -1)))
	set := GetIntegerSet(c, 1, 0, []AffineExpr{d0, upper}, []bool{false, false})
	if set != GetIntegerSet(c, 1, 0, []AffineExpr{d0, upper}, []bool{false, false}) {
		t.Fatalf("sets not uniqued")
	}

	for _, tc := range []struct {
		v    int64
		want bool
	}{{0, true}, {10, true}, {5, true}, {-1, false}, {11, false}} {
		got, err := set.Contains([]int64{tc.v}, nil)
		if err != nil || got != tc.want {
			t.Fatalf("Contains(%d) = %v, %v", tc.v, got, err)
		}
	}

	empty := GetEmptyIntegerSet(c, 1, 0)
	if got, _ := empty.Contains([]int64{0}, nil); got {
		t.Fatalf("empty set contains a point")
	}
	if empty != GetEmptyIntegerSet(c, 1, 0) {
		t.Fatalf("empty set not uniqued")
	}
}
