package ir

// Value is an SSA value, either the result of an operation or a block
// argument. Values are pointers into their owner's storage, so handle
// equality is identity.
type Value interface {
	// Type returns the value's type.
	Type() Type
	// SetType mutates the value's type in place.
	SetType(Type)
	// DefiningOp returns the producing operation, nil for block arguments.
	DefiningOp() *Operation
	// ParentBlock returns the block the value is defined in, nil for results
	// of detached operations.
	ParentBlock() *Block
	// Loc returns the value's source location.
	Loc() Location

	impl() *valueImpl
}

// valueImpl is the state shared by both value kinds, including the head of
// the intrusive use list.
type valueImpl struct {
	typ      Type
	firstUse *OpOperand
}

// FirstUse returns the head of the value's use list, nil when unused.
func FirstUse(v Value) *OpOperand { return v.impl().firstUse }

// UseEmpty reports whether the value has no uses.
func UseEmpty(v Value) bool { return v.impl().firstUse == nil }

// HasOneUse reports whether the value has exactly one use.
func HasOneUse(v Value) bool {
	first := v.impl().firstUse
	return first != nil && first.next == nil
}

// Uses collects the value's uses into a slice. The snapshot stays valid
// while iterating even if the caller rewrites uses.
func Uses(v Value) []*OpOperand {
	var uses []*OpOperand
	for use := v.impl().firstUse; use != nil; use = use.next {
		uses = append(uses, use)
	}
	return uses
}

// Users collects the distinct operations using the value, in use order.
func Users(v Value) []*Operation {
	var users []*Operation
	seen := make(map[*Operation]bool)
	for use := v.impl().firstUse; use != nil; use = use.next {
		if !seen[use.owner] {
			seen[use.owner] = true
			users = append(users, use.owner)
		}
	}
	return users
}

// ReplaceAllUsesWith rewires every use of old to point at new. old is left
// without uses.
func ReplaceAllUsesWith(old, new Value) {
	if old == new {
		return
	}
	for use := old.impl().firstUse; use != nil; {
		next := use.next
		use.Set(new)
		use = next
	}
}

// IsUsedOutsideOfBlock reports whether any use of v lives in a block other
// than b.
func IsUsedOutsideOfBlock(v Value, b *Block) bool {
	for use := v.impl().firstUse; use != nil; use = use.next {
		if use.owner.Block() != b {
			return true
		}
	}
	return false
}

// ReplaceUsesWithIf rewires the uses of old for which shouldReplace returns
// true.
func ReplaceUsesWithIf(old, new Value, shouldReplace func(*OpOperand) bool) {
	for use := old.impl().firstUse; use != nil; {
		next := use.next
		if shouldReplace(use) {
			use.Set(new)
		}
		use = next
	}
}

// OpResult is a result value of an operation. Results live inside the
// operation's storage; their addresses are stable for the operation's
// lifetime.
type OpResult struct {
	valueImpl
	owner *Operation
	index int
}

func (r *OpResult) impl() *valueImpl { return &r.valueImpl }

// Type returns the result's type.
func (r *OpResult) Type() Type { return r.typ }

// SetType mutates the result's type.
func (r *OpResult) SetType(t Type) { r.typ = t }

// Owner returns the defining operation.
func (r *OpResult) Owner() *Operation { return r.owner }

// Index returns the result's position.
func (r *OpResult) Index() int { return r.index }

// DefiningOp returns the defining operation.
func (r *OpResult) DefiningOp() *Operation { return r.owner }

// ParentBlock returns the block holding the defining operation.
func (r *OpResult) ParentBlock() *Block { return r.owner.Block() }

// Loc returns the defining operation's location.
func (r *OpResult) Loc() Location { return r.owner.Loc() }

// BlockArgument is a value introduced at a block's entry.
type BlockArgument struct {
	valueImpl
	owner *Block
	index int
	loc   Location
}

func (a *BlockArgument) impl() *valueImpl { return &a.valueImpl }

// Type returns the argument's type.
func (a *BlockArgument) Type() Type { return a.typ }

// SetType mutates the argument's type.
func (a *BlockArgument) SetType(t Type) { a.typ = t }

// Owner returns the block introducing the argument.
func (a *BlockArgument) Owner() *Block { return a.owner }

// Index returns the argument's position.
func (a *BlockArgument) Index() int { return a.index }

// DefiningOp returns nil; block arguments have no defining operation.
func (a *BlockArgument) DefiningOp() *Operation { return nil }

// ParentBlock returns the owning block.
func (a *BlockArgument) ParentBlock() *Block { return a.owner }

// Loc returns the argument's location.
func (a *BlockArgument) Loc() Location { return a.loc }

// SetLoc updates the argument's location.
func (a *BlockArgument) SetLoc(loc Location) { a.loc = loc }

// OpOperand is one use of a value by an operation. Operands form the nodes
// of the used value's intrusive use list; prevNext points at the link that
// points at this node, making removal O(1).
type OpOperand struct {
	owner *Operation
	index int
	value Value

	next     *OpOperand
	prevNext **OpOperand
}

// Owner returns the using operation.
func (o *OpOperand) Owner() *Operation { return o.owner }

// Index returns the operand's position in the owner.
func (o *OpOperand) Index() int { return o.index }

// Get returns the used value.
func (o *OpOperand) Get() Value { return o.value }

// NextUse returns the next use of the same value.
func (o *OpOperand) NextUse() *OpOperand { return o.next }

// Set repoints the operand at a new value, maintaining both use lists.
func (o *OpOperand) Set(v Value) {
	if o.value == v {
		return
	}
	o.unlink()
	o.value = v
	if v != nil {
		o.link(v)
	}
}

func (o *OpOperand) link(v Value) {
	head := &v.impl().firstUse
	o.next = *head
	if o.next != nil {
		o.next.prevNext = &o.next
	}
	*head = o
	o.prevNext = head
}

func (o *OpOperand) unlink() {
	if o.prevNext == nil {
		return
	}
	*o.prevNext = o.next
	if o.next != nil {
		o.next.prevNext = o.prevNext
	}
	o.next = nil
	o.prevNext = nil
}

// BlockOperand is one reference to a successor block by a terminator. It
// mirrors OpOperand for the block's predecessor list.
type BlockOperand struct {
	owner *Operation
	index int
	block *Block

	next     *BlockOperand
	prevNext **BlockOperand
}

// Owner returns the referencing operation.
func (o *BlockOperand) Owner() *Operation { return o.owner }

// Index returns the successor slot.
func (o *BlockOperand) Index() int { return o.index }

// Get returns the referenced block.
func (o *BlockOperand) Get() *Block { return o.block }

// Set repoints the reference at a new block.
func (o *BlockOperand) Set(b *Block) {
	if o.block == b {
		return
	}
	o.unlink()
	o.block = b
	if b != nil {
		o.linkTo(b)
	}
}

func (o *BlockOperand) linkTo(b *Block) {
	head := &b.firstUse
	o.next = *head
	if o.next != nil {
		o.next.prevNext = &o.next
	}
	*head = o
	o.prevNext = head
}

func (o *BlockOperand) unlink() {
	if o.prevNext == nil {
		return
	}
	*o.prevNext = o.next
	if o.next != nil {
		o.next.prevNext = o.prevNext
	}
	o.next = nil
	o.prevNext = nil
}
