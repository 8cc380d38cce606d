package ir

// IRMapping remembers the correspondence between original and cloned
// entities. Lookups fall back to the original when no mapping exists, so
// values defined outside the cloned scope flow through unchanged.
type IRMapping struct {
	values map[Value]Value
	blocks map[*Block]*Block
	ops    map[*Operation]*Operation
}

// MapValue records new as the clone of old.
func (m *IRMapping) MapValue(old, new Value) {
	if m.values == nil {
		m.values = make(map[Value]Value)
	}
	m.values[old] = new
}

// MapBlock records new as the clone of old.
func (m *IRMapping) MapBlock(old, new *Block) {
	if m.blocks == nil {
		m.blocks = make(map[*Block]*Block)
	}
	m.blocks[old] = new
}

// MapOp records new as the clone of old.
func (m *IRMapping) MapOp(old, new *Operation) {
	if m.ops == nil {
		m.ops = make(map[*Operation]*Operation)
	}
	m.ops[old] = new
}

// LookupValue returns the clone of v, or v itself when unmapped.
func (m *IRMapping) LookupValue(v Value) Value {
	if mapped, ok := m.values[v]; ok {
		return mapped
	}
	return v
}

// LookupBlock returns the clone of b, or b itself when unmapped.
func (m *IRMapping) LookupBlock(b *Block) *Block {
	if mapped, ok := m.blocks[b]; ok {
		return mapped
	}
	return b
}

// LookupOp returns the clone of op, or nil when unmapped.
func (m *IRMapping) LookupOp(op *Operation) *Operation { return m.ops[op] }

// Contains reports whether a mapping for v exists.
func (m *IRMapping) Contains(v Value) bool {
	_, ok := m.values[v]
	return ok
}

// CloneOptions selects how much of an operation a clone copies. The zero
// value copies nothing optional; CloneAll copies everything.
type CloneOptions struct {
	// Regions clones the nested regions recursively.
	Regions bool
	// Operands wires the clone's operands to the mapped originals. Without
	// it the clone has zero operands.
	Operands bool
}

// CloneAll copies regions and operands.
var CloneAll = CloneOptions{Regions: true, Operands: true}

// Clone deep-copies the operation with a fresh mapping.
func (op *Operation) Clone() *Operation {
	var mapping IRMapping
	return op.CloneInto(&mapping, CloneAll)
}

// CloneWithoutRegions copies the operation but leaves its regions empty.
func (op *Operation) CloneWithoutRegions() *Operation {
	var mapping IRMapping
	return op.CloneInto(&mapping, CloneOptions{Operands: true})
}

// CloneInto copies the operation per opts, recording every produced entity
// in mapping. The clone is detached; results of the original map to results
// of the clone.
func (op *Operation) CloneInto(mapping *IRMapping, opts CloneOptions) *Operation {
	state := NewOperationState(op.loc, op.name.Name())
	state.AddResults(op.ResultTypes()...)
	if opts.Operands {
		for i := range op.operands {
			state.AddOperands(mapping.LookupValue(op.operands[i].value))
		}
	}
	for i := range op.successors {
		state.AddSuccessors(mapping.LookupBlock(op.successors[i].block))
	}
	if !op.attrs.IsNil() {
		for _, na := range op.attrs.Entries() {
			state.AddAttribute(na.Name, na.Value)
		}
	}
	for range op.regions {
		state.AddRegion()
	}

	clone := MustCreate(op.ctx, state)

	if len(op.properties) > 0 {
		if rn, ok := op.name.Registered(); ok && rn.Hooks().CopyProperties != nil {
			rn.Hooks().CopyProperties(clone.properties, op.properties)
		} else {
			copy(clone.properties, op.properties)
		}
	}

	for i := 0; i < op.numResults; i++ {
		mapping.MapValue(op.Result(i), clone.Result(i))
	}
	mapping.MapOp(op, clone)

	if opts.Regions {
		for i, src := range op.regions {
			src.CloneInto(clone.regions[i], mapping)
		}
	}
	return clone
}

// CloneInto copies this region's blocks into dst, which must be empty.
// Blocks and arguments are created first so branches and uses can refer to
// clones regardless of order.
func (r *Region) CloneInto(dst *Region, mapping *IRMapping) {
	for b := r.first; b != nil; b = b.next {
		nb := NewBlock()
		for _, arg := range b.args {
			mapping.MapValue(arg, nb.AddArg(arg.typ, arg.loc))
		}
		mapping.MapBlock(b, nb)
		dst.PushBack(nb)
	}
	for b := r.first; b != nil; b = b.next {
		nb := mapping.LookupBlock(b)
		for op := b.firstOp; op != nil; op = op.next {
			nb.PushBack(op.CloneInto(mapping, CloneAll))
		}
	}
}
