package ir

import (
	"fmt"
	"strings"

	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

// Kind markers for the builtin type zoo. The typeid package keys kinds off
// these empty structs.
type (
	integerTypeKind  struct{}
	floatTypeKind    struct{}
	indexTypeKind    struct{}
	noneTypeKind     struct{}
	functionTypeKind struct{}
)

var (
	IntegerTypeID  = typeid.Of[integerTypeKind]()
	FloatTypeID    = typeid.Of[floatTypeKind]()
	IndexTypeID    = typeid.Of[indexTypeKind]()
	NoneTypeID     = typeid.Of[noneTypeKind]()
	FunctionTypeID = typeid.Of[functionTypeKind]()
)

// Signedness distinguishes the three integer flavors.
type Signedness uint8

const (
	Signless Signedness = iota
	Signed
	Unsigned
)

func (s Signedness) String() string {
	switch s {
	case Signless:
		return "signless"
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	}
	return fmt.Sprintf("Signedness(%d)", uint8(s))
}

// maxIntegerWidth bounds integer bit widths, matching the widest arithmetic
// the fold hooks support.
const maxIntegerWidth = 1 << 24

type integerTypeData struct {
	width      uint32
	signedness Signedness
}

// IntegerType is an arbitrary-width integer type.
type IntegerType struct {
	Type
}

// GetIntegerType returns the uniqued signless integer type of the width.
// Widths outside [1, maxIntegerWidth] are fatal.
func GetIntegerType(c *Context, width uint32) IntegerType {
	switch width {
	case 1:
		return c.cached.i1
	case 8:
		return c.cached.i8
	case 16:
		return c.cached.i16
	case 32:
		return c.cached.i32
	case 64:
		return c.cached.i64
	case 128:
		return c.cached.i128
	}
	return getIntegerTypeUncached(c, width, Signless)
}

// GetIntegerTypeWithSignedness returns the uniqued integer type of the width
// and signedness.
func GetIntegerTypeWithSignedness(c *Context, width uint32, signedness Signedness) IntegerType {
	if signedness == Signless {
		return GetIntegerType(c, width)
	}
	return getIntegerTypeUncached(c, width, signedness)
}

func getIntegerTypeUncached(c *Context, width uint32, signedness Signedness) IntegerType {
	if width == 0 || width > maxIntegerWidth {
		panic(fmt.Sprintf("ir: integer type width %d outside [1, %d]", width, maxIntegerWidth))
	}
	var k uniquer.Key
	hash := k.Uint64(uint64(width)).Uint64(uint64(signedness)).Hash()
	t := getUniquedType(c, IntegerTypeID, hash, func(data any) bool {
		d := data.(*integerTypeData)
		return d.width == width && d.signedness == signedness
	}, func() any {
		return &integerTypeData{width: width, signedness: signedness}
	})
	return IntegerType{t}
}

// Width returns the bit width.
func (t IntegerType) Width() uint32 { return t.Data().(*integerTypeData).width }

// Signedness returns the integer flavor.
func (t IntegerType) Signedness() Signedness { return t.Data().(*integerTypeData).signedness }

// IsSignless reports a signless integer.
func (t IntegerType) IsSignless() bool { return t.Signedness() == Signless }

// FloatKind selects one of the supported floating point formats.
type FloatKind uint8

const (
	BF16 FloatKind = iota
	F16
	F32
	F64
)

// Width returns the format's bit width.
func (k FloatKind) Width() uint32 {
	switch k {
	case BF16, F16:
		return 16
	case F32:
		return 32
	case F64:
		return 64
	}
	panic(fmt.Sprintf("ir: unknown float kind %d", uint8(k)))
}

func (k FloatKind) String() string {
	switch k {
	case BF16:
		return "bf16"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	}
	return fmt.Sprintf("FloatKind(%d)", uint8(k))
}

type floatTypeData struct {
	kind FloatKind
}

// FloatType is one of the fixed floating point formats.
type FloatType struct {
	Type
}

// GetFloatType returns the uniqued float type of the format.
func GetFloatType(c *Context, kind FloatKind) FloatType {
	switch kind {
	case BF16:
		return c.cached.bf16
	case F16:
		return c.cached.f16
	case F32:
		return c.cached.f32
	case F64:
		return c.cached.f64
	}
	panic(fmt.Sprintf("ir: unknown float kind %d", uint8(kind)))
}

func getFloatTypeUncached(c *Context, kind FloatKind) FloatType {
	var k uniquer.Key
	hash := k.Uint64(uint64(kind)).Hash()
	t := getUniquedType(c, FloatTypeID, hash, func(data any) bool {
		return data.(*floatTypeData).kind == kind
	}, func() any {
		return &floatTypeData{kind: kind}
	})
	return FloatType{t}
}

// Kind returns the floating point format.
func (t FloatType) Kind() FloatKind { return t.Data().(*floatTypeData).kind }

// IndexType is the platform-sized index type.
type IndexType struct {
	Type
}

// GetIndexType returns the context's index type.
func GetIndexType(c *Context) IndexType { return c.cached.indexTy }

// NoneType is the unit type.
type NoneType struct {
	Type
}

// GetNoneType returns the context's none type.
func GetNoneType(c *Context) NoneType { return c.cached.noneTy }

type functionTypeData struct {
	inputs  []Type
	results []Type
}

// FunctionType pairs input and result type lists.
type FunctionType struct {
	Type
}

// GetFunctionType returns the uniqued function type with the given
// signature. The slices are copied.
func GetFunctionType(c *Context, inputs, results []Type) FunctionType {
	var k uniquer.Key
	k.Uint64(uint64(len(inputs)))
	for _, t := range inputs {
		k.Uint64(t.serial())
	}
	k.Uint64(uint64(len(results)))
	for _, t := range results {
		k.Uint64(t.serial())
	}
	hash := k.Hash()
	t := getUniquedType(c, FunctionTypeID, hash, func(data any) bool {
		d := data.(*functionTypeData)
		return typesEqual(d.inputs, inputs) && typesEqual(d.results, results)
	}, func() any {
		return &functionTypeData{
			inputs:  append([]Type(nil), inputs...),
			results: append([]Type(nil), results...),
		}
	})
	return FunctionType{t}
}

// Inputs returns the input types. The slice is canonical storage; callers
// must not mutate it.
func (t FunctionType) Inputs() []Type { return t.Data().(*functionTypeData).inputs }

// Results returns the result types, same sharing rules as Inputs.
func (t FunctionType) Results() []Type { return t.Data().(*functionTypeData).results }

func typesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func printIntegerType(data any) string {
	d := data.(*integerTypeData)
	var prefix string
	switch d.signedness {
	case Signed:
		prefix = "si"
	case Unsigned:
		prefix = "ui"
	default:
		prefix = "i"
	}
	return fmt.Sprintf("%s%d", prefix, d.width)
}

func printFunctionType(data any) string {
	d := data.(*functionTypeData)
	var b strings.Builder
	b.WriteByte('(')
	for i, t := range d.inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(") -> ")
	if len(d.results) == 1 {
		b.WriteString(d.results[0].String())
		return b.String()
	}
	b.WriteByte('(')
	for i, t := range d.results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}
