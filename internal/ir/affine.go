package ir

import (
	"fmt"
	"strings"

	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

type (
	affineExprKind struct{}
	affineMapKind  struct{}
)

var (
	AffineExprID = typeid.Of[affineExprKind]()
	AffineMapID  = typeid.Of[affineMapKind]()
)

// registerAffineKinds primes the context's dedicated affine uniquer. Affine
// entities are uniqued but are not attributes, so they live outside the
// attribute tables.
func registerAffineKinds(u *uniquer.Uniquer) {
	u.RegisterParametricKind(AffineExprID)
	u.RegisterParametricKind(AffineMapID)
	u.RegisterParametricKind(IntegerSetID)
}

// AffineExprKind discriminates the expression node kinds.
type AffineExprKind uint8

const (
	AffineDim AffineExprKind = iota
	AffineSymbol
	AffineConstant
	AffineAdd
	AffineMul
	AffineMod
	AffineFloorDiv
	AffineCeilDiv
)

func (k AffineExprKind) String() string {
	switch k {
	case AffineDim:
		return "dim"
	case AffineSymbol:
		return "symbol"
	case AffineConstant:
		return "constant"
	case AffineAdd:
		return "+"
	case AffineMul:
		return "*"
	case AffineMod:
		return "mod"
	case AffineFloorDiv:
		return "floordiv"
	case AffineCeilDiv:
		return "ceildiv"
	}
	return fmt.Sprintf("AffineExprKind(%d)", uint8(k))
}

type affineExprStorage struct {
	ctx    *Context
	serial uint64
	kind   AffineExprKind

	// position for dim/symbol, value for constant.
	position int
	value    int64

	lhs, rhs AffineExpr
}

// AffineExpr is a uniqued affine expression tree node. The zero value is
// the null expression.
type AffineExpr struct {
	storage *affineExprStorage
}

// IsNil reports whether this is the null expression.
func (e AffineExpr) IsNil() bool { return e.storage == nil }

// Context returns the owning context.
func (e AffineExpr) Context() *Context { return e.storage.ctx }

// Kind returns the node kind.
func (e AffineExpr) Kind() AffineExprKind { return e.storage.kind }

func (e AffineExpr) serial() uint64 {
	if e.storage == nil {
		return 0
	}
	return e.storage.serial
}

// Position returns the dim or symbol position.
func (e AffineExpr) Position() int { return e.storage.position }

// Value returns the constant value.
func (e AffineExpr) Value() int64 { return e.storage.value }

// LHS returns the left operand of a binary node.
func (e AffineExpr) LHS() AffineExpr { return e.storage.lhs }

// RHS returns the right operand of a binary node.
func (e AffineExpr) RHS() AffineExpr { return e.storage.rhs }

// IsConstant reports a constant node.
func (e AffineExpr) IsConstant() bool { return e.storage.kind == AffineConstant }

func getAffineExpr(c *Context, kind AffineExprKind, position int, value int64, lhs, rhs AffineExpr) AffineExpr {
	var k uniquer.Key
	hash := k.Uint64(uint64(kind)).Int64(int64(position)).Int64(value).
		Uint64(lhs.serial()).Uint64(rhs.serial()).Hash()
	st := c.affineUniquer.Get(AffineExprID, hash, func(existing any) bool {
		s := existing.(*affineExprStorage)
		return s.kind == kind && s.position == position && s.value == value &&
			s.lhs == lhs && s.rhs == rhs
	}, func() any {
		return &affineExprStorage{
			ctx: c, serial: c.nextSerial(),
			kind: kind, position: position, value: value, lhs: lhs, rhs: rhs,
		}
	}).(*affineExprStorage)
	return AffineExpr{storage: st}
}

// GetAffineDimExpr returns the uniqued dimension expression d<position>.
func GetAffineDimExpr(c *Context, position int) AffineExpr {
	return getAffineExpr(c, AffineDim, position, 0, AffineExpr{}, AffineExpr{})
}

// GetAffineSymbolExpr returns the uniqued symbol expression s<position>.
func GetAffineSymbolExpr(c *Context, position int) AffineExpr {
	return getAffineExpr(c, AffineSymbol, position, 0, AffineExpr{}, AffineExpr{})
}

// GetAffineConstantExpr returns the uniqued constant expression.
func GetAffineConstantExpr(c *Context, value int64) AffineExpr {
	return getAffineExpr(c, AffineConstant, 0, value, AffineExpr{}, AffineExpr{})
}

// GetAffineBinaryExpr returns the uniqued binary expression, folding when
// both operands are constants.
func GetAffineBinaryExpr(c *Context, kind AffineExprKind, lhs, rhs AffineExpr) AffineExpr {
	if lhs.IsConstant() && rhs.IsConstant() {
		if v, ok := foldAffineBinary(kind, lhs.Value(), rhs.Value()); ok {
			return GetAffineConstantExpr(c, v)
		}
	}
	return getAffineExpr(c, kind, 0, 0, lhs, rhs)
}

func foldAffineBinary(kind AffineExprKind, l, r int64) (int64, bool) {
	switch kind {
	case AffineAdd:
		return l + r, true
	case AffineMul:
		return l * r, true
	case AffineMod:
		if r <= 0 {
			return 0, false
		}
		m := l % r
		if m < 0 {
			m += r
		}
		return m, true
	case AffineFloorDiv:
		if r == 0 {
			return 0, false
		}
		q := l / r
		if (l%r != 0) && ((l < 0) != (r < 0)) {
			q--
		}
		return q, true
	case AffineCeilDiv:
		if r == 0 {
			return 0, false
		}
		q := l / r
		if (l%r != 0) && ((l < 0) == (r < 0)) {
			q++
		}
		return q, true
	}
	return 0, false
}

// Add returns e + other.
func (e AffineExpr) Add(other AffineExpr) AffineExpr {
	return GetAffineBinaryExpr(e.Context(), AffineAdd, e, other)
}

// Mul returns e * other.
func (e AffineExpr) Mul(other AffineExpr) AffineExpr {
	return GetAffineBinaryExpr(e.Context(), AffineMul, e, other)
}

// Mod returns e mod other.
func (e AffineExpr) Mod(other AffineExpr) AffineExpr {
	return GetAffineBinaryExpr(e.Context(), AffineMod, e, other)
}

// FloorDiv returns e floordiv other.
func (e AffineExpr) FloorDiv(other AffineExpr) AffineExpr {
	return GetAffineBinaryExpr(e.Context(), AffineFloorDiv, e, other)
}

// CeilDiv returns e ceildiv other.
func (e AffineExpr) CeilDiv(other AffineExpr) AffineExpr {
	return GetAffineBinaryExpr(e.Context(), AffineCeilDiv, e, other)
}

// Evaluate computes the expression given dim and symbol bindings.
func (e AffineExpr) Evaluate(dims, syms []int64) (int64, error) {
	switch e.Kind() {
	case AffineDim:
		if e.Position() >= len(dims) {
			return 0, fmt.Errorf("dim %d out of range", e.Position())
		}
		return dims[e.Position()], nil
	case AffineSymbol:
		if e.Position() >= len(syms) {
			return 0, fmt.Errorf("symbol %d out of range", e.Position())
		}
		return syms[e.Position()], nil
	case AffineConstant:
		return e.Value(), nil
	}
	l, err := e.LHS().Evaluate(dims, syms)
	if err != nil {
		return 0, err
	}
	r, err := e.RHS().Evaluate(dims, syms)
	if err != nil {
		return 0, err
	}
	v, ok := foldAffineBinary(e.Kind(), l, r)
	if !ok {
		return 0, fmt.Errorf("division or modulo by a non-positive constant")
	}
	return v, nil
}

func (e AffineExpr) String() string {
	if e.storage == nil {
		return "<<NULL AFFINE EXPR>>"
	}
	switch e.Kind() {
	case AffineDim:
		return fmt.Sprintf("d%d", e.Position())
	case AffineSymbol:
		return fmt.Sprintf("s%d", e.Position())
	case AffineConstant:
		return fmt.Sprintf("%d", e.Value())
	}
	return fmt.Sprintf("(%s %s %s)", e.LHS(), e.Kind(), e.RHS())
}

type affineMapStorage struct {
	ctx     *Context
	serial  uint64
	numDims int
	numSyms int
	results []AffineExpr
}

// AffineMap is a uniqued list of affine expressions over a fixed dim and
// symbol count.
type AffineMap struct {
	storage *affineMapStorage
}

// GetAffineMap returns the uniqued map. The results slice is copied.
func GetAffineMap(c *Context, numDims, numSyms int, results []AffineExpr) AffineMap {
	var k uniquer.Key
	k.Int64(int64(numDims)).Int64(int64(numSyms)).Uint64(uint64(len(results)))
	for _, e := range results {
		k.Uint64(e.serial())
	}
	hash := k.Hash()
	st := c.affineUniquer.Get(AffineMapID, hash, func(existing any) bool {
		s := existing.(*affineMapStorage)
		if s.numDims != numDims || s.numSyms != numSyms || len(s.results) != len(results) {
			return false
		}
		for i := range results {
			if s.results[i] != results[i] {
				return false
			}
		}
		return true
	}, func() any {
		return &affineMapStorage{
			ctx: c, serial: c.nextSerial(),
			numDims: numDims, numSyms: numSyms,
			results: append([]AffineExpr(nil), results...),
		}
	}).(*affineMapStorage)
	return AffineMap{storage: st}
}

// IsNil reports whether this is the null map.
func (m AffineMap) IsNil() bool { return m.storage == nil }

// Context returns the owning context.
func (m AffineMap) Context() *Context { return m.storage.ctx }

// NumDims returns the dimension count.
func (m AffineMap) NumDims() int { return m.storage.numDims }

// NumSymbols returns the symbol count.
func (m AffineMap) NumSymbols() int { return m.storage.numSyms }

// NumResults returns the result expression count.
func (m AffineMap) NumResults() int { return len(m.storage.results) }

// Result returns the i-th result expression.
func (m AffineMap) Result(i int) AffineExpr { return m.storage.results[i] }

// Results returns the canonical result slice; callers must not mutate it.
func (m AffineMap) Results() []AffineExpr { return m.storage.results }

// Evaluate applies the map to concrete dim and symbol values.
func (m AffineMap) Evaluate(dims, syms []int64) ([]int64, error) {
	if len(dims) != m.NumDims() || len(syms) != m.NumSymbols() {
		return nil, fmt.Errorf("affine map expects %d dims and %d symbols, got %d and %d",
			m.NumDims(), m.NumSymbols(), len(dims), len(syms))
	}
	out := make([]int64, m.NumResults())
	for i, e := range m.storage.results {
		v, err := e.Evaluate(dims, syms)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m AffineMap) String() string {
	if m.storage == nil {
		return "<<NULL AFFINE MAP>>"
	}
	var b strings.Builder
	writeAffineHeader(&b, m.storage.numDims, m.storage.numSyms)
	b.WriteString(" -> (")
	for i, e := range m.storage.results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(')')
	return b.String()
}

func writeAffineHeader(b *strings.Builder, numDims, numSyms int) {
	b.WriteByte('(')
	for i := 0; i < numDims; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "d%d", i)
	}
	b.WriteByte(')')
	if numSyms > 0 {
		b.WriteByte('[')
		for i := 0; i < numSyms; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "s%d", i)
		}
		b.WriteByte(']')
	}
}
