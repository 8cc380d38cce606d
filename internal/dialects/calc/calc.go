// Package calc is a small arithmetic dialect: integer constants, addition
// and multiplication over i64. It doubles as the reference client of the
// core's registration, properties and folding machinery.
package calc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"lattice/internal/ir"
	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

type (
	dialectKind    struct{}
	constantOpKind struct{}
	addOpKind      struct{}
	mulOpKind      struct{}
)

var (
	DialectID    = typeid.Of[dialectKind]()
	ConstantOpID = typeid.Of[constantOpKind]()
	AddOpID      = typeid.Of[addOpKind]()
	MulOpID      = typeid.Of[mulOpKind]()
)

// Namespace is the dialect's operation prefix.
const Namespace = "calc"

// Register makes the dialect available for lazy loading.
func Register(reg *ir.DialectRegistry) {
	reg.Insert(Namespace, DialectID, initDialect)
}

// Load forces the dialect into the context and returns it.
func Load(c *ir.Context) *ir.Dialect {
	return c.GetOrLoadDialectWith(Namespace, DialectID, initDialect)
}

func initDialect(d *ir.Dialect) {
	d.AddOperation(ir.OpRegistration{
		Name:   "constant",
		ID:     ConstantOpID,
		Traits: []typeid.ID{ir.TraitConstantLike},
		Hooks: ir.OpHooks{
			Verify:                verifyConstant,
			Fold:                  foldConstant,
			PropertiesSize:        constantPropsSize,
			SetPropertiesFromAttr: setConstantProps,
			GetPropertiesAsAttr:   getConstantProps,
			HashProperties:        hashConstantProps,
			CompareProperties:     compareConstantProps,
			Print:                 printConstant,
		},
	})
	d.AddOperation(ir.OpRegistration{
		Name:   "add",
		ID:     AddOpID,
		Traits: []typeid.ID{ir.TraitCommutative},
		Hooks: ir.OpHooks{
			Verify: verifyBinary,
			Fold:   foldBinary(func(a, b int64) int64 { return a + b }, 0),
		},
	})
	d.AddOperation(ir.OpRegistration{
		Name:   "mul",
		ID:     MulOpID,
		Traits: []typeid.ID{ir.TraitCommutative},
		Hooks: ir.OpHooks{
			Verify: verifyBinary,
			Fold:   foldBinary(func(a, b int64) int64 { return a * b }, 1),
		},
	})
}

// Constant properties blob: one length byte followed by the msgpack
// encoding of the int64 value.
const constantPropsSize = 16

func encodeConstant(blob []byte, value int64) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	if len(payload) >= len(blob) {
		return fmt.Errorf("constant payload of %d bytes exceeds the blob", len(payload))
	}
	blob[0] = byte(len(payload))
	copy(blob[1:], payload)
	return nil
}

func decodeConstant(blob []byte) (int64, error) {
	n := int(blob[0])
	if n == 0 || n >= len(blob) {
		return 0, fmt.Errorf("malformed constant payload length %d", n)
	}
	var value int64
	if err := msgpack.Unmarshal(blob[1:1+n], &value); err != nil {
		return 0, err
	}
	return value, nil
}

func setConstantProps(c *ir.Context, blob []byte, attr ir.Attribute) error {
	if !attr.Is(ir.IntegerAttrID) {
		return fmt.Errorf("calc.constant expects an integer attribute, got %s", attr)
	}
	return encodeConstant(blob, ir.IntegerAttr{Attribute: attr}.Value())
}

func getConstantProps(c *ir.Context, blob []byte) ir.Attribute {
	value, err := decodeConstant(blob)
	if err != nil {
		return ir.Attribute{}
	}
	return ir.GetIntegerAttr(c, ir.GetIntegerType(c, 64).Type, value).Attribute
}

func hashConstantProps(blob []byte) uint64 {
	value, err := decodeConstant(blob)
	if err != nil {
		var k uniquer.Key
		return k.Bytes(blob).Hash()
	}
	return uniquer.HashWords(uint64(value))
}

func compareConstantProps(a, b []byte) bool {
	av, aerr := decodeConstant(a)
	bv, berr := decodeConstant(b)
	return aerr == nil && berr == nil && av == bv
}

func printConstant(op *ir.Operation) string {
	value, err := decodeConstant(op.Properties())
	if err != nil {
		return "calc.constant <malformed>"
	}
	return fmt.Sprintf("calc.constant %d : %s", value, op.Result(0).Type())
}

func verifyConstant(op *ir.Operation) error {
	if op.NumOperands() != 0 || op.NumResults() != 1 {
		return fmt.Errorf("expects zero operands and one result")
	}
	if !op.Result(0).Type().Is(ir.IntegerTypeID) {
		return fmt.Errorf("expects an integer result, got %s", op.Result(0).Type())
	}
	if _, err := decodeConstant(op.Properties()); err != nil {
		return fmt.Errorf("malformed value: %w", err)
	}
	return nil
}

func verifyBinary(op *ir.Operation) error {
	if op.NumOperands() != 2 || op.NumResults() != 1 {
		return fmt.Errorf("expects two operands and one result")
	}
	rt := op.Result(0).Type()
	for i := 0; i < 2; i++ {
		if op.Operand(i).Type() != rt {
			return fmt.Errorf("operand %d type %s does not match result type %s",
				i, op.Operand(i).Type(), rt)
		}
	}
	return nil
}

func foldConstant(op *ir.Operation, _ []ir.Attribute) ([]ir.OpFoldResult, bool) {
	attr := op.GetPropertiesAsAttr()
	if attr.IsNil() {
		return nil, false
	}
	return []ir.OpFoldResult{ir.FoldAttr(attr)}, true
}

// foldBinary folds when both operands are known integer constants, and
// rewrites  x op identity  to x.
func foldBinary(apply func(a, b int64) int64, identity int64) func(*ir.Operation, []ir.Attribute) ([]ir.OpFoldResult, bool) {
	return func(op *ir.Operation, operands []ir.Attribute) ([]ir.OpFoldResult, bool) {
		lhs, lok := asInt(operands[0])
		rhs, rok := asInt(operands[1])
		switch {
		case lok && rok:
			c := op.Context()
			result := ir.GetIntegerAttr(c, op.Result(0).Type(), apply(lhs, rhs))
			return []ir.OpFoldResult{ir.FoldAttr(result.Attribute)}, true
		case rok && rhs == identity:
			return []ir.OpFoldResult{ir.FoldValue(op.Operand(0))}, true
		case lok && lhs == identity:
			return []ir.OpFoldResult{ir.FoldValue(op.Operand(1))}, true
		}
		return nil, false
	}
}

func asInt(a ir.Attribute) (int64, bool) {
	if a.IsNil() || !a.Is(ir.IntegerAttrID) {
		return 0, false
	}
	return ir.IntegerAttr{Attribute: a}.Value(), true
}

// NewConstant builds a calc.constant producing value as i64.
func NewConstant(c *ir.Context, loc ir.Location, value int64) (*ir.Operation, error) {
	i64 := ir.GetIntegerType(c, 64).Type
	state := ir.NewOperationState(loc, Namespace+".constant")
	state.AddResults(i64)
	state.SetPropertiesAttr(ir.GetIntegerAttr(c, i64, value).Attribute)
	return ir.Create(c, state)
}

// NewAdd builds a calc.add of the two values.
func NewAdd(c *ir.Context, loc ir.Location, lhs, rhs ir.Value) (*ir.Operation, error) {
	return newBinary(c, loc, "add", lhs, rhs)
}

// NewMul builds a calc.mul of the two values.
func NewMul(c *ir.Context, loc ir.Location, lhs, rhs ir.Value) (*ir.Operation, error) {
	return newBinary(c, loc, "mul", lhs, rhs)
}

func newBinary(c *ir.Context, loc ir.Location, name string, lhs, rhs ir.Value) (*ir.Operation, error) {
	state := ir.NewOperationState(loc, Namespace+"."+name)
	state.AddOperands(lhs, rhs)
	state.AddResults(lhs.Type())
	return ir.Create(c, state)
}

// ConstantValue extracts the value of a calc.constant.
func ConstantValue(op *ir.Operation) (int64, error) {
	if op.Name().ID() != ConstantOpID {
		return 0, fmt.Errorf("%s is not a calc.constant", op.Name().Name())
	}
	return decodeConstant(op.Properties())
}
