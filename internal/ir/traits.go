package ir

import "lattice/internal/typeid"

// Operation traits are declarative markers checked structurally by the
// verifier and queried by transforms. A trait is identified by a kind ID so
// dialects can define their own.
type (
	traitIsolatedFromAbove struct{}
	traitSingleBlock       struct{}
	traitNoTerminator      struct{}
	traitTerminator        struct{}
	traitCommutative       struct{}
	traitConstantLike      struct{}
)

var (
	// TraitIsolatedFromAbove marks operations whose regions may not
	// reference values defined outside the operation.
	TraitIsolatedFromAbove = typeid.Of[traitIsolatedFromAbove]()

	// TraitSingleBlock marks operations whose regions hold at most one
	// block.
	TraitSingleBlock = typeid.Of[traitSingleBlock]()

	// TraitNoTerminator exempts an operation's blocks from the terminator
	// requirement.
	TraitNoTerminator = typeid.Of[traitNoTerminator]()

	// TraitTerminator marks operations that must appear last in a block.
	TraitTerminator = typeid.Of[traitTerminator]()

	// TraitCommutative marks operations whose operands may be reordered.
	TraitCommutative = typeid.Of[traitCommutative]()

	// TraitConstantLike marks operations that materialize a constant value.
	TraitConstantLike = typeid.Of[traitConstantLike]()
)
