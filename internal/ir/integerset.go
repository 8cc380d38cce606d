package ir

import (
	"fmt"
	"strings"

	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

type integerSetKind struct{}

var IntegerSetID = typeid.Of[integerSetKind]()

type integerSetStorage struct {
	ctx         *Context
	serial      uint64
	numDims     int
	numSyms     int
	constraints []AffineExpr
	// eqFlags[i] selects constraint i's comparison: true for == 0, false
	// for >= 0.
	eqFlags []bool
}

// IntegerSet is a uniqued conjunction of affine constraints over dims and
// symbols.
type IntegerSet struct {
	storage *integerSetStorage
}

// GetIntegerSet returns the uniqued set. constraints and eqFlags must have
// the same length; both slices are copied.
func GetIntegerSet(c *Context, numDims, numSyms int, constraints []AffineExpr, eqFlags []bool) IntegerSet {
	if len(constraints) != len(eqFlags) {
		panic("ir: integer set constraint and flag counts differ")
	}
	var k uniquer.Key
	k.Int64(int64(numDims)).Int64(int64(numSyms)).Uint64(uint64(len(constraints)))
	for i, e := range constraints {
		k.Uint64(e.serial()).Bool(eqFlags[i])
	}
	hash := k.Hash()
	st := c.affineUniquer.Get(IntegerSetID, hash, func(existing any) bool {
		s := existing.(*integerSetStorage)
		if s.numDims != numDims || s.numSyms != numSyms || len(s.constraints) != len(constraints) {
			return false
		}
		for i := range constraints {
			if s.constraints[i] != constraints[i] || s.eqFlags[i] != eqFlags[i] {
				return false
			}
		}
		return true
	}, func() any {
		return &integerSetStorage{
			ctx: c, serial: c.nextSerial(),
			numDims: numDims, numSyms: numSyms,
			constraints: append([]AffineExpr(nil), constraints...),
			eqFlags:     append([]bool(nil), eqFlags...),
		}
	}).(*integerSetStorage)
	return IntegerSet{storage: st}
}

// GetEmptyIntegerSet returns the canonical unsatisfiable set, 1 == 0.
func GetEmptyIntegerSet(c *Context, numDims, numSyms int) IntegerSet {
	one := GetAffineConstantExpr(c, 1)
	return GetIntegerSet(c, numDims, numSyms, []AffineExpr{one}, []bool{true})
}

// IsNil reports whether this is the null set.
func (s IntegerSet) IsNil() bool { return s.storage == nil }

// Context returns the owning context.
func (s IntegerSet) Context() *Context { return s.storage.ctx }

// NumDims returns the dimension count.
func (s IntegerSet) NumDims() int { return s.storage.numDims }

// NumSymbols returns the symbol count.
func (s IntegerSet) NumSymbols() int { return s.storage.numSyms }

// NumConstraints returns the constraint count.
func (s IntegerSet) NumConstraints() int { return len(s.storage.constraints) }

// Constraint returns the i-th constraint expression.
func (s IntegerSet) Constraint(i int) AffineExpr { return s.storage.constraints[i] }

// IsEq reports whether constraint i is an equality.
func (s IntegerSet) IsEq(i int) bool { return s.storage.eqFlags[i] }

// Contains evaluates every constraint at the point.
func (s IntegerSet) Contains(dims, syms []int64) (bool, error) {
	if len(dims) != s.NumDims() || len(syms) != s.NumSymbols() {
		return false, fmt.Errorf("integer set expects %d dims and %d symbols, got %d and %d",
			s.NumDims(), s.NumSymbols(), len(dims), len(syms))
	}
	for i, e := range s.storage.constraints {
		v, err := e.Evaluate(dims, syms)
		if err != nil {
			return false, err
		}
		if s.storage.eqFlags[i] {
			if v != 0 {
				return false, nil
			}
		} else if v < 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s IntegerSet) String() string {
	if s.storage == nil {
		return "<<NULL INTEGER SET>>"
	}
	var b strings.Builder
	writeAffineHeader(&b, s.storage.numDims, s.storage.numSyms)
	b.WriteString(" : (")
	for i, e := range s.storage.constraints {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
		if s.storage.eqFlags[i] {
			b.WriteString(" == 0")
		} else {
			b.WriteString(" >= 0")
		}
	}
	b.WriteByte(')')
	return b.String()
}
