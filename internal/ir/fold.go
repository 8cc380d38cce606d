package ir

// OpFoldResult is either an existing value or a constant attribute standing
// in for one result of a folded operation.
type OpFoldResult struct {
	attr  Attribute
	value Value
}

// FoldAttr wraps a constant attribute as a fold result.
func FoldAttr(a Attribute) OpFoldResult { return OpFoldResult{attr: a} }

// FoldValue wraps an existing value as a fold result.
func FoldValue(v Value) OpFoldResult { return OpFoldResult{value: v} }

// IsAttr reports whether the result is a constant attribute.
func (r OpFoldResult) IsAttr() bool { return !r.attr.IsNil() }

// Attr returns the constant attribute, null when the result is a value.
func (r OpFoldResult) Attr() Attribute { return r.attr }

// Value returns the value, nil when the result is an attribute.
func (r OpFoldResult) Value() Value { return r.value }

// Fold asks the operation's kind to compute its results from the given
// constant operands. operands[i] is the constant behind operand i or the
// null attribute; nil is accepted for all-unknown. ok=false means the fold
// did not apply, which is ordinary control flow, not a failure.
//
// An in-place fold returns ok=true with no results: the operation mutated
// itself and still stands. Otherwise the returned results, one per
// operation result, replace the operation.
func (op *Operation) Fold(operands []Attribute) ([]OpFoldResult, bool) {
	rn, ok := op.name.Registered()
	if !ok || rn.Hooks().Fold == nil {
		return nil, false
	}
	if operands == nil {
		operands = make([]Attribute, len(op.operands))
	}
	results, ok := rn.Hooks().Fold(op, operands)
	if !ok {
		return nil, false
	}
	if len(results) != 0 && len(results) != op.numResults {
		panic("ir: fold produced a result count different from the operation's")
	}
	return results, true
}
