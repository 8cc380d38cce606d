package ir

// WalkResult steers a traversal from inside the callback.
type WalkResult int

const (
	// WalkAdvance continues normally.
	WalkAdvance WalkResult = iota
	// WalkSkip continues without descending into the current operation.
	WalkSkip
	// WalkInterrupt aborts the whole traversal.
	WalkInterrupt
)

// Walk visits op and every nested operation pre-order. The callback's
// result steers the traversal; Walk returns WalkInterrupt if the callback
// interrupted, else WalkAdvance. Operations are snapshotted per block, so
// the callback may erase the operation it is given.
func (op *Operation) Walk(fn func(*Operation) WalkResult) WalkResult {
	switch fn(op) {
	case WalkInterrupt:
		return WalkInterrupt
	case WalkSkip:
		return WalkAdvance
	}
	for _, r := range op.regions {
		if r.walk(fn) == WalkInterrupt {
			return WalkInterrupt
		}
	}
	return WalkAdvance
}

// Walk visits every operation in the block pre-order.
func (b *Block) Walk(fn func(*Operation) WalkResult) WalkResult {
	for _, op := range b.Ops() {
		if op.Walk(fn) == WalkInterrupt {
			return WalkInterrupt
		}
	}
	return WalkAdvance
}

func (r *Region) walk(fn func(*Operation) WalkResult) WalkResult {
	for _, b := range r.Blocks() {
		if b.Walk(fn) == WalkInterrupt {
			return WalkInterrupt
		}
	}
	return WalkAdvance
}

// Walk visits every operation in the region pre-order.
func (r *Region) Walk(fn func(*Operation) WalkResult) WalkResult {
	return r.walk(fn)
}

// WalkPostOrder visits every operation nested in op and then op itself.
// WalkSkip has no effect post-order; nested operations are already visited
// by the time the callback sees their ancestor.
func (op *Operation) WalkPostOrder(fn func(*Operation) WalkResult) WalkResult {
	for _, r := range op.regions {
		if r.walkPostOrder(fn) == WalkInterrupt {
			return WalkInterrupt
		}
	}
	if fn(op) == WalkInterrupt {
		return WalkInterrupt
	}
	return WalkAdvance
}

// WalkPostOrder visits every operation in the block post-order.
func (b *Block) WalkPostOrder(fn func(*Operation) WalkResult) WalkResult {
	for _, op := range b.Ops() {
		if op.WalkPostOrder(fn) == WalkInterrupt {
			return WalkInterrupt
		}
	}
	return WalkAdvance
}

func (r *Region) walkPostOrder(fn func(*Operation) WalkResult) WalkResult {
	for _, b := range r.Blocks() {
		if b.WalkPostOrder(fn) == WalkInterrupt {
			return WalkInterrupt
		}
	}
	return WalkAdvance
}
