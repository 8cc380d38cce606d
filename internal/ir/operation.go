package ir

import (
	"bytes"
	"fmt"

	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

const (
	// maxInlineResults is the number of result slots stored directly in the
	// Operation; larger result counts spill to a separately allocated slice.
	maxInlineResults = 5

	// propertiesCapacity bounds the inline properties blob, in bytes. Blob
	// sizes are quantized to 8-byte units and stored divided by 8.
	propertiesCapacity = 2048

	// orderStride is the gap left between consecutive order indices so
	// insertions between neighbors usually avoid renumbering the block.
	orderStride = 5

	invalidOrderIdx = ^uint32(0)
)

// Operation is one IR node: a named instruction with typed results, operand
// uses, successor references, nested regions, an attribute dictionary and an
// optional inline properties blob. Result, successor and region counts are
// fixed at creation; operands may be replaced wholesale.
type Operation struct {
	ctx  *Context
	name OperationName
	loc  Location

	block      *Block
	prev, next *Operation
	orderIndex uint32

	numResults int
	resInline  [maxInlineResults]OpResult
	resOut     []OpResult

	operands   []OpOperand
	successors []BlockOperand
	regions    []*Region

	attrs DictionaryAttr

	// properties holds propSizeDiv8*8 bytes of kind-owned inline state. The
	// divided size goes up to 256 at full capacity, so a byte is too narrow.
	propSizeDiv8 uint16
	properties   []byte
}

// Context returns the owning context.
func (op *Operation) Context() *Context { return op.ctx }

// Name returns the operation's name record.
func (op *Operation) Name() OperationName { return op.name }

// RegisteredInfo returns the registered form of the name, ok=false for
// unregistered operations.
func (op *Operation) RegisteredInfo() (RegisteredOperationName, bool) {
	return op.name.Registered()
}

// IsRegistered reports whether the operation's kind is registered.
func (op *Operation) IsRegistered() bool { return op.name.IsRegistered() }

// Dialect returns the loaded dialect owning the operation's prefix, or nil.
func (op *Operation) Dialect() *Dialect { return op.name.Dialect() }

// Loc returns the operation's location.
func (op *Operation) Loc() Location { return op.loc }

// SetLoc updates the operation's location.
func (op *Operation) SetLoc(loc Location) { op.loc = loc }

// Block returns the containing block, nil while detached.
func (op *Operation) Block() *Block { return op.block }

// ParentRegion returns the region of the containing block, nil while
// detached.
func (op *Operation) ParentRegion() *Region {
	if op.block == nil {
		return nil
	}
	return op.block.Parent()
}

// ParentOp returns the operation owning the containing region, nil at the
// top level.
func (op *Operation) ParentOp() *Operation {
	if r := op.ParentRegion(); r != nil {
		return r.Owner()
	}
	return nil
}

// IsProperAncestor reports whether op strictly contains other.
func (op *Operation) IsProperAncestor(other *Operation) bool {
	for other = other.ParentOp(); other != nil; other = other.ParentOp() {
		if other == op {
			return true
		}
	}
	return false
}

// IsAncestor reports whether op contains other, counting op itself.
func (op *Operation) IsAncestor(other *Operation) bool {
	return op == other || op.IsProperAncestor(other)
}

// NumResults returns the result count.
func (op *Operation) NumResults() int { return op.numResults }

// Result returns the i-th result. The pointer stays valid for the
// operation's lifetime.
func (op *Operation) Result(i int) *OpResult {
	if i < maxInlineResults {
		return &op.resInline[i]
	}
	return &op.resOut[i-maxInlineResults]
}

// Results returns the results as values.
func (op *Operation) Results() []Value {
	out := make([]Value, op.numResults)
	for i := range out {
		out[i] = op.Result(i)
	}
	return out
}

// ResultTypes returns the result types in order.
func (op *Operation) ResultTypes() []Type {
	out := make([]Type, op.numResults)
	for i := range out {
		out[i] = op.Result(i).Type()
	}
	return out
}

// NumOperands returns the operand count.
func (op *Operation) NumOperands() int { return len(op.operands) }

// Operand returns the i-th operand value.
func (op *Operation) Operand(i int) Value { return op.operands[i].value }

// OpOperandAt returns the i-th operand use. Valid until the operand list is
// replaced.
func (op *Operation) OpOperandAt(i int) *OpOperand { return &op.operands[i] }

// Operands returns the operand values in order.
func (op *Operation) Operands() []Value {
	out := make([]Value, len(op.operands))
	for i := range op.operands {
		out[i] = op.operands[i].value
	}
	return out
}

// SetOperand repoints the i-th operand.
func (op *Operation) SetOperand(i int, v Value) { op.operands[i].Set(v) }

// SetOperands replaces the whole operand list. Existing OpOperand pointers
// into this operation are invalidated.
func (op *Operation) SetOperands(values []Value) {
	for i := range op.operands {
		op.operands[i].unlink()
	}
	op.operands = make([]OpOperand, len(values))
	for i, v := range values {
		o := &op.operands[i]
		o.owner = op
		o.index = i
		o.value = v
		if v != nil {
			o.link(v)
		}
	}
}

// EraseOperand removes the i-th operand, shifting the rest down.
func (op *Operation) EraseOperand(i int) {
	values := op.Operands()
	op.SetOperands(append(values[:i], values[i+1:]...))
}

// NumSuccessors returns the successor count.
func (op *Operation) NumSuccessors() int { return len(op.successors) }

// Successor returns the i-th successor block.
func (op *Operation) Successor(i int) *Block { return op.successors[i].block }

// SetSuccessor repoints the i-th successor.
func (op *Operation) SetSuccessor(i int, b *Block) { op.successors[i].Set(b) }

// BlockOperandAt returns the i-th successor use.
func (op *Operation) BlockOperandAt(i int) *BlockOperand { return &op.successors[i] }

// NumRegions returns the region count.
func (op *Operation) NumRegions() int { return len(op.regions) }

// Region returns the i-th region.
func (op *Operation) Region(i int) *Region { return op.regions[i] }

// Regions returns the regions in order; callers must not mutate the slice.
func (op *Operation) Regions() []*Region { return op.regions }

// Attrs returns the discardable attribute dictionary.
func (op *Operation) Attrs() DictionaryAttr { return op.attrs }

// SetAttrs replaces the discardable attribute dictionary.
func (op *Operation) SetAttrs(attrs DictionaryAttr) { op.attrs = attrs }

// Attr returns the attribute bound to name. Registered kinds with a
// properties encoding expose their inherent attributes here too.
func (op *Operation) Attr(name string) Attribute {
	if rn, ok := op.name.Registered(); ok {
		hooks := rn.Hooks()
		if hooks.GetPropertiesAsAttr != nil {
			if dict, ok := asDictionary(hooks.GetPropertiesAsAttr(op.ctx, op.properties)); ok {
				if a := dict.Get(name); !a.IsNil() {
					return a
				}
			}
		}
	}
	if op.attrs.IsNil() {
		return Attribute{}
	}
	return op.attrs.Get(name)
}

// HasAttr reports whether name is bound.
func (op *Operation) HasAttr(name string) bool { return !op.Attr(name).IsNil() }

// SetAttr binds a discardable attribute under name.
func (op *Operation) SetAttr(name string, value Attribute) {
	var list NamedAttrList
	if !op.attrs.IsNil() {
		for _, na := range op.attrs.Entries() {
			list.Append(na.Name, na.Value)
		}
	}
	list.Set(GetStringAttr(op.ctx, name), value)
	op.attrs = GetDictionaryAttr(op.ctx, &list)
}

// RemoveAttr unbinds name, returning the previous value or the null
// attribute.
func (op *Operation) RemoveAttr(name string) Attribute {
	if op.attrs.IsNil() {
		return Attribute{}
	}
	prev := op.attrs.Get(name)
	if prev.IsNil() {
		return prev
	}
	var list NamedAttrList
	for _, na := range op.attrs.Entries() {
		if na.Name.Value() != name {
			list.Append(na.Name, na.Value)
		}
	}
	op.attrs = GetDictionaryAttr(op.ctx, &list)
	return prev
}

func asDictionary(a Attribute) (DictionaryAttr, bool) {
	if a.Is(DictionaryAttrID) {
		return DictionaryAttr{a}, true
	}
	return DictionaryAttr{}, false
}

// Properties returns the inline properties blob, nil for kinds without one.
// The blob is owned by the operation.
func (op *Operation) Properties() []byte { return op.properties }

// PropertiesStorageSize returns the blob size in bytes.
func (op *Operation) PropertiesStorageSize() int { return int(op.propSizeDiv8) * 8 }

// GetPropertiesAsAttr encodes the blob through the kind's hook, or returns
// the null attribute when the kind has no encoding.
func (op *Operation) GetPropertiesAsAttr() Attribute {
	if rn, ok := op.name.Registered(); ok {
		if h := rn.Hooks().GetPropertiesAsAttr; h != nil {
			return h(op.ctx, op.properties)
		}
	}
	return Attribute{}
}

// SetPropertiesFromAttr decodes attr into the blob through the kind's hook.
func (op *Operation) SetPropertiesFromAttr(attr Attribute) error {
	rn, ok := op.name.Registered()
	if !ok || rn.Hooks().SetPropertiesFromAttr == nil {
		return fmt.Errorf("operation %q has no properties decoding", op.name.Name())
	}
	return rn.Hooks().SetPropertiesFromAttr(op.ctx, op.properties, attr)
}

// HashProperties folds the blob into a hash using the kind's hook, falling
// back to hashing the raw bytes.
func (op *Operation) HashProperties() uint64 {
	if rn, ok := op.name.Registered(); ok {
		if h := rn.Hooks().HashProperties; h != nil {
			return h(op.properties)
		}
	}
	var k uniquer.Key
	return k.Bytes(op.properties).Hash()
}

// ComparePropertiesEqual compares this operation's blob to other's, using
// the kind's hook when both share a kind that defines one.
func (op *Operation) ComparePropertiesEqual(other *Operation) bool {
	if op.name != other.name {
		return false
	}
	if rn, ok := op.name.Registered(); ok {
		if cmp := rn.Hooks().CompareProperties; cmp != nil {
			return cmp(op.properties, other.properties)
		}
	}
	return bytes.Equal(op.properties, other.properties)
}

// HasTrait reports whether the operation's kind carries the trait.
func (op *Operation) HasTrait(tr typeid.ID) bool { return op.name.HasTrait(tr) }

// NextOp returns the operation after this one in its block.
func (op *Operation) NextOp() *Operation { return op.next }

// PrevOp returns the operation before this one in its block.
func (op *Operation) PrevOp() *Operation { return op.prev }

// IsBeforeInBlock reports whether op appears before other in their shared
// block. Both must be in the same block. Ordering is answered from cached
// order indices, renumbering the block only when the cache is invalid.
func (op *Operation) IsBeforeInBlock(other *Operation) bool {
	if op.block == nil || op.block != other.block {
		panic("ir: IsBeforeInBlock requires both operations in the same block")
	}
	if op == other {
		return false
	}
	if op.orderIndex == invalidOrderIdx || other.orderIndex == invalidOrderIdx ||
		!op.block.opOrderValid {
		op.block.recomputeOpOrder()
	}
	return op.orderIndex < other.orderIndex
}

// updateOrderIfNecessary assigns an order index based on the neighbors,
// invalidating the block's order cache when no gap is left.
func (op *Operation) updateOrderIfNecessary() {
	if op.block == nil || !op.block.opOrderValid {
		return
	}
	switch {
	case op.prev == nil && op.next == nil:
		op.orderIndex = 0
	case op.prev == nil:
		next := op.next.orderIndex
		if next == invalidOrderIdx || next < orderStride {
			op.block.invalidateOpOrder()
			return
		}
		op.orderIndex = next - orderStride
	case op.next == nil:
		prev := op.prev.orderIndex
		if prev == invalidOrderIdx || prev > invalidOrderIdx-1-orderStride {
			op.block.invalidateOpOrder()
			return
		}
		op.orderIndex = prev + orderStride
	default:
		lo, hi := op.prev.orderIndex, op.next.orderIndex
		if lo == invalidOrderIdx || hi == invalidOrderIdx || hi-lo <= 1 {
			op.block.invalidateOpOrder()
			return
		}
		op.orderIndex = lo + (hi-lo)/2
	}
}

// Remove unlinks the operation from its block without destroying it.
func (op *Operation) Remove() {
	if op.block != nil {
		op.block.removeOp(op)
	}
}

// MoveBefore unlinks the operation and reinserts it before existing.
func (op *Operation) MoveBefore(existing *Operation) {
	op.Remove()
	existing.block.insertBefore(op, existing)
}

// MoveAfter unlinks the operation and reinserts it after existing.
func (op *Operation) MoveAfter(existing *Operation) {
	op.Remove()
	existing.block.insertAfter(op, existing)
}

// Erase removes the operation from its block and destroys it. None of its
// results may have remaining uses.
func (op *Operation) Erase() {
	op.Remove()
	op.Destroy()
}

// Destroy releases the operation and everything it contains. The operation
// must be detached and its results unused.
func (op *Operation) Destroy() {
	for i := 0; i < op.numResults; i++ {
		if !UseEmpty(op.Result(i)) {
			panic(fmt.Sprintf("ir: destroying %q while result %d still has uses", op.name.Name(), i))
		}
	}
	op.DropAllReferences()
	for _, r := range op.regions {
		for b := r.First(); b != nil; {
			next := b.next
			r.removeBlock(b)
			b.Destroy()
			b = next
		}
	}
}

// DropAllReferences drops this operation's operand and successor uses, and
// recursively those of every nested operation. Afterwards nothing outside
// the operation is referenced by it.
func (op *Operation) DropAllReferences() {
	for i := range op.operands {
		op.operands[i].unlink()
		op.operands[i].value = nil
	}
	for i := range op.successors {
		op.successors[i].unlink()
		op.successors[i].block = nil
	}
	for _, r := range op.regions {
		for b := r.First(); b != nil; b = b.next {
			b.dropAllReferences()
		}
	}
}
