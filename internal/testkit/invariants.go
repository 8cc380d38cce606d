package testkit

import (
	"fmt"

	"lattice/internal/ir"
)

// CheckStructure runs the structural invariants on an operation tree:
// 1) block membership and sibling links agree in both directions
// 2) ordering queries are consistent with list position
// 3) every operand appears exactly once on its value's use list
// 4) region and block back-pointers name the entities that hold them
// It complements ir.Verify, which checks semantic rules; this checks the
// bookkeeping the semantic rules rely on.
func CheckStructure(op *ir.Operation) error {
	if op == nil {
		return fmt.Errorf("nil operation")
	}
	var err error
	op.Walk(func(inner *ir.Operation) ir.WalkResult {
		if e := checkOp(inner); e != nil {
			err = e
			return ir.WalkInterrupt
		}
		return ir.WalkAdvance
	})
	return err
}

func checkOp(op *ir.Operation) error {
	for i := 0; i < op.NumOperands(); i++ {
		use := op.OpOperandAt(i)
		if use.Owner() != op || use.Index() != i {
			return fmt.Errorf("%s: operand %d back-pointer wrong", op.Name(), i)
		}
		v := use.Get()
		if v == nil {
			continue
		}
		found := 0
		for _, u := range ir.Uses(v) {
			if u == use {
				found++
			}
		}
		if found != 1 {
			return fmt.Errorf("%s: operand %d appears %d times on the use list", op.Name(), i, found)
		}
	}

	for i := 0; i < op.NumResults(); i++ {
		r := op.Result(i)
		if r.Owner() != op || r.Index() != i {
			return fmt.Errorf("%s: result %d back-pointer wrong", op.Name(), i)
		}
		for _, u := range ir.Uses(r) {
			if u.Get() != ir.Value(r) {
				return fmt.Errorf("%s: use list of result %d holds a foreign value", op.Name(), i)
			}
		}
	}

	for i, region := range op.Regions() {
		if region.Owner() != op {
			return fmt.Errorf("%s: region %d owner wrong", op.Name(), i)
		}
		if err := checkRegion(region); err != nil {
			return fmt.Errorf("%s: region %d: %w", op.Name(), i, err)
		}
	}
	return nil
}

func checkRegion(region *ir.Region) error {
	count := 0
	var prev *ir.Block
	for b := region.First(); b != nil; b = b.NextBlock() {
		count++
		if b.Parent() != region {
			return fmt.Errorf("block %d parent wrong", count-1)
		}
		if b.PrevBlock() != prev {
			return fmt.Errorf("block %d prev link wrong", count-1)
		}
		if err := checkBlock(b); err != nil {
			return fmt.Errorf("block %d: %w", count-1, err)
		}
		prev = b
	}
	if count != region.NumBlocks() || region.Last() != prev {
		return fmt.Errorf("region block count or tail link wrong")
	}
	return nil
}

func checkBlock(b *ir.Block) error {
	for i, arg := range b.Args() {
		if arg.Owner() != b || arg.Index() != i {
			return fmt.Errorf("argument %d back-pointer wrong", i)
		}
	}

	count := 0
	var prev *ir.Operation
	for op := b.First(); op != nil; op = op.NextOp() {
		count++
		if op.Block() != b {
			return fmt.Errorf("op %d block pointer wrong", count-1)
		}
		if op.PrevOp() != prev {
			return fmt.Errorf("op %d prev link wrong", count-1)
		}
		if prev != nil && !prev.IsBeforeInBlock(op) {
			return fmt.Errorf("op %d ordering disagrees with list position", count-1)
		}
		prev = op
	}
	if count != b.NumOps() || b.Last() != prev {
		return fmt.Errorf("block op count or tail link wrong")
	}
	return nil
}
