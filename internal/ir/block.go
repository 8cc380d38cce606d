package ir

// Block is an ordered list of operations plus the arguments flowing into it.
// Blocks live inside a region's doubly linked list.
type Block struct {
	parent     *Region
	prev, next *Block

	firstOp, lastOp *Operation
	numOps          int

	// opOrderValid guards the cached order indices on the contained
	// operations. Cleared when an insertion finds no index gap; recomputed
	// lazily by the next ordering query.
	opOrderValid bool

	args []*BlockArgument

	// Head of the predecessor use list, the BlockOperands of terminators
	// naming this block as a successor.
	firstUse *BlockOperand
}

// NewBlock creates a detached empty block.
func NewBlock() *Block {
	return &Block{opOrderValid: true}
}

// Parent returns the owning region, nil while detached.
func (b *Block) Parent() *Region { return b.parent }

// ParentOp returns the operation owning the region, nil while detached.
func (b *Block) ParentOp() *Operation {
	if b.parent == nil {
		return nil
	}
	return b.parent.Owner()
}

// NextBlock returns the block after this one in its region.
func (b *Block) NextBlock() *Block { return b.next }

// PrevBlock returns the block before this one in its region.
func (b *Block) PrevBlock() *Block { return b.prev }

// IsEntryBlock reports whether this is the region's first block.
func (b *Block) IsEntryBlock() bool { return b.parent != nil && b.parent.first == b }

// Empty reports whether the block holds no operations.
func (b *Block) Empty() bool { return b.firstOp == nil }

// NumOps returns the operation count.
func (b *Block) NumOps() int { return b.numOps }

// First returns the first operation, nil when empty.
func (b *Block) First() *Operation { return b.firstOp }

// Last returns the last operation, nil when empty.
func (b *Block) Last() *Operation { return b.lastOp }

// Ops collects the operations into a slice, a stable snapshot for mutation
// during iteration.
func (b *Block) Ops() []*Operation {
	ops := make([]*Operation, 0, b.numOps)
	for op := b.firstOp; op != nil; op = op.next {
		ops = append(ops, op)
	}
	return ops
}

// Terminator returns the last operation if its kind is a terminator, else
// nil.
func (b *Block) Terminator() *Operation {
	if b.lastOp != nil && b.lastOp.HasTrait(TraitTerminator) {
		return b.lastOp
	}
	return nil
}

// PushBack appends a detached operation.
func (b *Block) PushBack(op *Operation) {
	if op.block != nil {
		panic("ir: inserting an operation that is already in a block")
	}
	op.block = b
	op.prev = b.lastOp
	op.next = nil
	if b.lastOp != nil {
		b.lastOp.next = op
	} else {
		b.firstOp = op
	}
	b.lastOp = op
	b.numOps++
	op.updateOrderIfNecessary()
}

// PushFront prepends a detached operation.
func (b *Block) PushFront(op *Operation) {
	if op.block != nil {
		panic("ir: inserting an operation that is already in a block")
	}
	op.block = b
	op.next = b.firstOp
	op.prev = nil
	if b.firstOp != nil {
		b.firstOp.prev = op
	} else {
		b.lastOp = op
	}
	b.firstOp = op
	b.numOps++
	op.updateOrderIfNecessary()
}

func (b *Block) insertBefore(op, existing *Operation) {
	if op.block != nil {
		panic("ir: inserting an operation that is already in a block")
	}
	op.block = b
	op.next = existing
	op.prev = existing.prev
	if existing.prev != nil {
		existing.prev.next = op
	} else {
		b.firstOp = op
	}
	existing.prev = op
	b.numOps++
	op.updateOrderIfNecessary()
}

func (b *Block) insertAfter(op, existing *Operation) {
	if op.block != nil {
		panic("ir: inserting an operation that is already in a block")
	}
	op.block = b
	op.prev = existing
	op.next = existing.next
	if existing.next != nil {
		existing.next.prev = op
	} else {
		b.lastOp = op
	}
	existing.next = op
	b.numOps++
	op.updateOrderIfNecessary()
}

func (b *Block) removeOp(op *Operation) {
	if op.block != b {
		panic("ir: removing an operation from a block it is not in")
	}
	if op.prev != nil {
		op.prev.next = op.next
	} else {
		b.firstOp = op.next
	}
	if op.next != nil {
		op.next.prev = op.prev
	} else {
		b.lastOp = op.prev
	}
	op.prev, op.next = nil, nil
	op.block = nil
	op.orderIndex = invalidOrderIdx
	b.numOps--
}

func (b *Block) invalidateOpOrder() { b.opOrderValid = false }

// recomputeOpOrder renumbers every operation with orderStride-spaced
// indices.
func (b *Block) recomputeOpOrder() {
	idx := uint32(0)
	for op := b.firstOp; op != nil; op = op.next {
		op.orderIndex = idx
		idx += orderStride
	}
	b.opOrderValid = true
}

// NumArgs returns the argument count.
func (b *Block) NumArgs() int { return len(b.args) }

// Arg returns the i-th argument.
func (b *Block) Arg(i int) *BlockArgument { return b.args[i] }

// Args returns the arguments; callers must not mutate the slice.
func (b *Block) Args() []*BlockArgument { return b.args }

// ArgTypes returns the argument types in order.
func (b *Block) ArgTypes() []Type {
	out := make([]Type, len(b.args))
	for i, a := range b.args {
		out[i] = a.typ
	}
	return out
}

// AddArg appends a new argument of the type.
func (b *Block) AddArg(t Type, loc Location) *BlockArgument {
	arg := &BlockArgument{owner: b, index: len(b.args), loc: loc}
	arg.typ = t
	b.args = append(b.args, arg)
	return arg
}

// AddArgs appends one argument per type, all at loc.
func (b *Block) AddArgs(types []Type, loc Location) []*BlockArgument {
	out := make([]*BlockArgument, len(types))
	for i, t := range types {
		out[i] = b.AddArg(t, loc)
	}
	return out
}

// EraseArg removes the i-th argument, which must be unused, and renumbers
// the rest.
func (b *Block) EraseArg(i int) {
	if !UseEmpty(b.args[i]) {
		panic("ir: erasing a block argument that still has uses")
	}
	b.args = append(b.args[:i], b.args[i+1:]...)
	for j := i; j < len(b.args); j++ {
		b.args[j].index = j
	}
}

// HasPredecessors reports whether any terminator names this block as a
// successor.
func (b *Block) HasPredecessors() bool { return b.firstUse != nil }

// Predecessors collects the distinct blocks branching here.
func (b *Block) Predecessors() []*Block {
	var preds []*Block
	seen := make(map[*Block]bool)
	for use := b.firstUse; use != nil; use = use.next {
		p := use.owner.Block()
		if p != nil && !seen[p] {
			seen[p] = true
			preds = append(preds, p)
		}
	}
	return preds
}

// SinglePredecessor returns the unique predecessor block, or nil when there
// are zero or several.
func (b *Block) SinglePredecessor() *Block {
	preds := b.Predecessors()
	if len(preds) == 1 {
		return preds[0]
	}
	return nil
}

// Remove unlinks the block from its region without destroying it.
func (b *Block) Remove() {
	if b.parent != nil {
		b.parent.removeBlock(b)
	}
}

// Erase removes the block from its region and destroys it. The block must
// have no predecessors.
func (b *Block) Erase() {
	if b.HasPredecessors() {
		panic("ir: erasing a block that still has predecessors")
	}
	b.Remove()
	b.Destroy()
}

// Destroy destroys every contained operation. The block must be detached.
func (b *Block) Destroy() {
	b.dropAllReferences()
	for op := b.firstOp; op != nil; {
		next := op.next
		b.removeOp(op)
		op.Destroy()
		op = next
	}
}

// dropAllReferences drops the references held by every contained operation.
func (b *Block) dropAllReferences() {
	for op := b.firstOp; op != nil; op = op.next {
		op.DropAllReferences()
	}
}
