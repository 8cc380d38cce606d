package ir

import (
	"errors"
	"fmt"
)

// Verify checks the operation and everything nested in it against the
// structural rules and the kinds' own verifiers. All violations found are
// reported together.
func Verify(op *Operation) error {
	var errs []error
	verifyOp(op, &errs)
	return errors.Join(errs...)
}

func verifyOp(op *Operation, errs *[]error) {
	fail := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		*errs = append(*errs, fmt.Errorf("%s: '%s' %s", op.loc, op.name.Name(), msg))
	}

	if !op.IsRegistered() {
		d := op.name.Dialect()
		if !op.ctx.AllowsUnregisteredDialects() && (d == nil || !d.AllowsUnknownOperations()) {
			fail("is unregistered in a context that does not allow unregistered operations")
		}
	}

	for i := range op.operands {
		if op.operands[i].value == nil {
			fail("has a null operand at index %d", i)
		}
	}
	for i := range op.successors {
		if op.successors[i].block == nil {
			fail("has a null successor at index %d", i)
		}
	}
	if len(op.successors) > 0 && op.IsRegistered() && !op.HasTrait(TraitTerminator) {
		fail("has successors but is not a terminator")
	}

	if op.HasTrait(TraitSingleBlock) {
		for i, r := range op.regions {
			if r.NumBlocks() > 1 {
				fail("expects region #%d to have at most one block", i)
			}
		}
	}

	hooks := opHooks(op)
	if hooks != nil && hooks.Verify != nil {
		if err := hooks.Verify(op); err != nil {
			fail("%s", err)
		}
	}

	for _, r := range op.regions {
		verifyRegion(op, r, errs)
	}

	if hooks != nil && hooks.VerifyRegions != nil {
		if err := hooks.VerifyRegions(op); err != nil {
			fail("%s", err)
		}
	}
}

func verifyRegion(op *Operation, r *Region, errs *[]error) {
	needTerminator := op.IsRegistered() && !op.HasTrait(TraitNoTerminator)
	for b := r.First(); b != nil; b = b.NextBlock() {
		if needTerminator {
			if b.Empty() || !b.Last().HasTrait(TraitTerminator) {
				*errs = append(*errs, fmt.Errorf(
					"%s: block in '%s' must end with a terminator operation", op.loc, op.name.Name()))
			}
		}
		for inner := b.First(); inner != nil; inner = inner.NextOp() {
			verifyOp(inner, errs)
		}
	}
	if op.HasTrait(TraitIsolatedFromAbove) {
		verifyIsolation(op, r, errs)
	}
}

// verifyIsolation checks that no operation inside r uses a value defined
// outside op.
func verifyIsolation(op *Operation, r *Region, errs *[]error) {
	r.Walk(func(inner *Operation) WalkResult {
		for i := range inner.operands {
			v := inner.operands[i].value
			if v == nil {
				continue
			}
			defBlock := v.ParentBlock()
			if defBlock == nil {
				continue
			}
			defOp := defBlock.ParentOp()
			if defOp == nil || !op.IsAncestor(defOp) {
				*errs = append(*errs, fmt.Errorf(
					"%s: '%s' uses a value defined outside its isolated parent '%s'",
					inner.loc, inner.name.Name(), op.name.Name()))
			}
		}
		return WalkAdvance
	})
}

func opHooks(op *Operation) *OpHooks {
	if rn, ok := op.name.Registered(); ok {
		return rn.Hooks()
	}
	return nil
}
