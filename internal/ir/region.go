package ir

// Region is an ordered list of blocks owned by an operation. Regions are
// created with their operation and never change owner.
type Region struct {
	owner       *Operation
	first, last *Block
	numBlocks   int
}

// Owner returns the operation holding the region.
func (r *Region) Owner() *Operation { return r.owner }

// Context returns the owning context, nil while the region is still a
// creation-state placeholder.
func (r *Region) Context() *Context {
	if r.owner == nil {
		return nil
	}
	return r.owner.ctx
}

// Empty reports whether the region has no blocks.
func (r *Region) Empty() bool { return r.first == nil }

// NumBlocks returns the block count.
func (r *Region) NumBlocks() int { return r.numBlocks }

// First returns the entry block, nil when empty.
func (r *Region) First() *Block { return r.first }

// Last returns the last block, nil when empty.
func (r *Region) Last() *Block { return r.last }

// Blocks collects the blocks into a slice.
func (r *Region) Blocks() []*Block {
	blocks := make([]*Block, 0, r.numBlocks)
	for b := r.first; b != nil; b = b.next {
		blocks = append(blocks, b)
	}
	return blocks
}

// PushBack appends a detached block.
func (r *Region) PushBack(b *Block) {
	if b.parent != nil {
		panic("ir: inserting a block that is already in a region")
	}
	b.parent = r
	b.prev = r.last
	b.next = nil
	if r.last != nil {
		r.last.next = b
	} else {
		r.first = b
	}
	r.last = b
	r.numBlocks++
}

// PushFront prepends a detached block.
func (r *Region) PushFront(b *Block) {
	if b.parent != nil {
		panic("ir: inserting a block that is already in a region")
	}
	b.parent = r
	b.next = r.first
	b.prev = nil
	if r.first != nil {
		r.first.prev = b
	} else {
		r.last = b
	}
	r.first = b
	r.numBlocks++
}

// InsertAfter inserts a detached block after existing.
func (r *Region) InsertAfter(b, existing *Block) {
	if b.parent != nil {
		panic("ir: inserting a block that is already in a region")
	}
	b.parent = r
	b.prev = existing
	b.next = existing.next
	if existing.next != nil {
		existing.next.prev = b
	} else {
		r.last = b
	}
	existing.next = b
	r.numBlocks++
}

func (r *Region) removeBlock(b *Block) {
	if b.parent != r {
		panic("ir: removing a block from a region it is not in")
	}
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		r.first = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		r.last = b.prev
	}
	b.prev, b.next = nil, nil
	b.parent = nil
	r.numBlocks--
}

// TakeBody moves every block out of other into this region, which must be
// empty.
func (r *Region) TakeBody(other *Region) {
	if !r.Empty() {
		panic("ir: TakeBody into a non-empty region")
	}
	for b := other.first; b != nil; {
		next := b.next
		other.removeBlock(b)
		r.PushBack(b)
		b = next
	}
}

// IsAncestor reports whether this region contains other, counting itself.
func (r *Region) IsAncestor(other *Region) bool {
	for other != nil {
		if other == r {
			return true
		}
		owner := other.Owner()
		if owner == nil {
			return false
		}
		other = owner.ParentRegion()
	}
	return false
}
