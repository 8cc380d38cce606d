package ir

import (
	"fmt"

	"lattice/internal/typeid"
)

type builtinDialectKind struct{}

// BuiltinDialectID identifies the always-loaded builtin dialect.
var BuiltinDialectID = typeid.Of[builtinDialectKind]()

type moduleOpKind struct{}

// ModuleOpID identifies builtin.module, the conventional top-level container
// operation.
var ModuleOpID = typeid.Of[moduleOpKind]()

// loadBuiltinDialect registers the builtin types, attributes, locations and
// the module operation. It runs once from NewContext, before anything else
// can touch the context. The builtin dialect also goes into the available
// registry so AvailableDialects lists it like any other namespace.
func loadBuiltinDialect(c *Context) {
	c.dialectRegistry.Insert("builtin", BuiltinDialectID, nil)
	c.GetOrLoadDialectWith("builtin", BuiltinDialectID, func(d *Dialect) {
		d.AddType(NewAbstractType("integer", IntegerTypeID).WithPrinter(printIntegerType))
		d.AddType(NewAbstractType("float", FloatTypeID).WithPrinter(func(data any) string {
			return data.(*floatTypeData).kind.String()
		}))
		d.AddType(NewAbstractSingletonType("index", IndexTypeID).WithPrinter(func(any) string {
			return "index"
		}))
		d.AddType(NewAbstractSingletonType("none", NoneTypeID).WithPrinter(func(any) string {
			return "none"
		}))
		d.AddType(NewAbstractType("function", FunctionTypeID).WithPrinter(printFunctionType))

		d.AddAttribute(NewAbstractAttribute("string", StringAttrID).WithPrinter(printStringAttr))
		d.AddAttribute(NewAbstractAttribute("integer", IntegerAttrID).WithPrinter(printIntegerAttr))
		d.AddAttribute(NewAbstractAttribute("float", FloatAttrID).WithPrinter(printFloatAttr))
		d.AddAttribute(NewAbstractAttribute("bool", BoolAttrID).WithPrinter(printBoolAttr))
		d.AddAttribute(NewAbstractSingletonAttribute("unit", UnitAttrID).WithPrinter(func(any) string {
			return "unit"
		}))
		d.AddAttribute(NewAbstractAttribute("array", ArrayAttrID).WithPrinter(printArrayAttr))
		d.AddAttribute(NewAbstractAttribute("dictionary", DictionaryAttrID).WithPrinter(printDictionaryAttr))
		d.AddAttribute(NewAbstractAttribute("type", TypeAttrID).WithPrinter(printTypeAttr))
		d.AddAttribute(NewAbstractAttribute("distinct", DistinctAttrID).WithPrinter(printDistinctAttr))

		d.AddAttribute(NewAbstractSingletonAttribute("unknown_loc", UnknownLocID).WithPrinter(func(any) string {
			return "loc(unknown)"
		}))
		d.AddAttribute(NewAbstractAttribute("file_line_col_loc", FileLineColLocID).WithPrinter(printFileLineColLoc))
		d.AddAttribute(NewAbstractAttribute("name_loc", NameLocID).WithPrinter(printNameLoc))
		d.AddAttribute(NewAbstractAttribute("fused_loc", FusedLocID).WithPrinter(printFusedLoc))

		d.AddOperation(OpRegistration{
			Name: "module",
			ID:   ModuleOpID,
			Traits: []typeid.ID{
				TraitIsolatedFromAbove,
				TraitSingleBlock,
				TraitNoTerminator,
			},
			Hooks: OpHooks{
				Verify: verifyModuleOp,
			},
		})
	})
}

func verifyModuleOp(op *Operation) error {
	if op.NumRegions() != 1 {
		return fmt.Errorf("expects one region, found %d", op.NumRegions())
	}
	if op.NumResults() != 0 || op.NumOperands() != 0 {
		return fmt.Errorf("expects zero operands and results")
	}
	return nil
}

// CreateModuleOp builds an empty builtin.module with a single entry block.
func CreateModuleOp(c *Context, loc Location) *Operation {
	state := NewOperationState(loc, "builtin.module")
	region := state.AddRegion()
	op, err := Create(c, state)
	if err != nil {
		panic("ir: building builtin.module: " + err.Error())
	}
	region.PushBack(NewBlock())
	return op
}

// initCachedInstances populates the per-context singleton cache. It runs
// after loadBuiltinDialect, before the context escapes NewContext.
func (c *Context) initCachedInstances() {
	c.cached.i1 = getIntegerTypeUncached(c, 1, Signless)
	c.cached.i8 = getIntegerTypeUncached(c, 8, Signless)
	c.cached.i16 = getIntegerTypeUncached(c, 16, Signless)
	c.cached.i32 = getIntegerTypeUncached(c, 32, Signless)
	c.cached.i64 = getIntegerTypeUncached(c, 64, Signless)
	c.cached.i128 = getIntegerTypeUncached(c, 128, Signless)
	c.cached.indexTy = IndexType{getSingletonType(c, IndexTypeID)}
	c.cached.noneTy = NoneType{getSingletonType(c, NoneTypeID)}
	c.cached.bf16 = getFloatTypeUncached(c, BF16)
	c.cached.f16 = getFloatTypeUncached(c, F16)
	c.cached.f32 = getFloatTypeUncached(c, F32)
	c.cached.f64 = getFloatTypeUncached(c, F64)

	c.cached.trueAttr = getBoolAttrUncached(c, true)
	c.cached.falseAttr = getBoolAttrUncached(c, false)
	c.cached.unitAttr = UnitAttr{getSingletonAttr(c, UnitAttrID)}
	c.cached.emptyDict = getDictionaryAttr(c, nil)
	c.cached.emptyString = GetStringAttr(c, "")
	c.cached.unknownLoc = Location{getSingletonAttr(c, UnknownLocID)}
}
