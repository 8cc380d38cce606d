package ir

import "fmt"

// OperationState accumulates the ingredients of an operation for Create. A
// state is single-use.
type OperationState struct {
	Loc  Location
	name string

	operands    []Value
	resultTypes []Type
	attributes  NamedAttrList
	successors  []*Block
	regions     []*Region

	propertiesAttr Attribute
}

// NewOperationState starts a state for the full operation name.
func NewOperationState(loc Location, name string) *OperationState {
	return &OperationState{Loc: loc, name: name}
}

// Name returns the operation name the state was created with.
func (s *OperationState) Name() string { return s.name }

// AddOperands appends operand values.
func (s *OperationState) AddOperands(values ...Value) *OperationState {
	s.operands = append(s.operands, values...)
	return s
}

// AddResults appends result types.
func (s *OperationState) AddResults(types ...Type) *OperationState {
	s.resultTypes = append(s.resultTypes, types...)
	return s
}

// AddAttribute binds a discardable attribute. The context is taken from the
// location, so the name is kept raw until Create.
func (s *OperationState) AddAttribute(name StringAttr, value Attribute) *OperationState {
	s.attributes.Set(name, value)
	return s
}

// AddSuccessors appends successor blocks.
func (s *OperationState) AddSuccessors(blocks ...*Block) *OperationState {
	s.successors = append(s.successors, blocks...)
	return s
}

// AddRegion appends an empty region and returns it. The returned region
// becomes the operation's region once Create runs; blocks may be added to it
// before or after.
func (s *OperationState) AddRegion() *Region {
	r := &Region{}
	s.regions = append(s.regions, r)
	return r
}

// SetPropertiesAttr supplies a generic attribute to decode into the new
// operation's properties blob.
func (s *OperationState) SetPropertiesAttr(attr Attribute) *OperationState {
	s.propertiesAttr = attr
	return s
}

// Create materializes the operation described by state. The result,
// successor and region counts are fixed from here on. The only recoverable
// failure is decoding the properties attribute; structural misuse, such as
// an unregistered name in a context that forbids them, is fatal.
func Create(c *Context, state *OperationState) (*Operation, error) {
	name := GetOperationName(c, state.name)
	if !name.IsRegistered() {
		d := name.Dialect()
		allowed := c.AllowsUnregisteredDialects() || (d != nil && d.AllowsUnknownOperations())
		if !allowed {
			panic(fmt.Sprintf("ir: creating unregistered operation %q; the context does not "+
				"allow unregistered dialects", state.name))
		}
	}

	op := &Operation{
		ctx:        c,
		name:       name,
		loc:        state.Loc,
		orderIndex: invalidOrderIdx,
	}
	if op.loc.IsNil() {
		op.loc = GetUnknownLoc(c)
	}

	op.numResults = len(state.resultTypes)
	if op.numResults > maxInlineResults {
		op.resOut = make([]OpResult, op.numResults-maxInlineResults)
	}
	for i, t := range state.resultTypes {
		r := op.Result(i)
		r.owner = op
		r.index = i
		r.typ = t
	}

	op.SetOperands(state.operands)

	op.successors = make([]BlockOperand, len(state.successors))
	for i, b := range state.successors {
		so := &op.successors[i]
		so.owner = op
		so.index = i
		so.block = b
		if b != nil {
			so.linkTo(b)
		}
	}

	op.regions = state.regions
	for _, r := range op.regions {
		if r.owner != nil {
			panic("ir: a creation-state region was attached twice")
		}
		r.owner = op
	}

	op.attrs = GetDictionaryAttr(c, &state.attributes)

	if rn, ok := name.Registered(); ok {
		hooks := rn.Hooks()
		if hooks.PropertiesSize > 0 {
			size := (hooks.PropertiesSize + 7) / 8
			op.propSizeDiv8 = uint16(size)
			op.properties = make([]byte, size*8)
			if hooks.InitProperties != nil {
				hooks.InitProperties(op.properties)
			}
		}
		if !state.propertiesAttr.IsNil() {
			if err := op.SetPropertiesFromAttr(state.propertiesAttr); err != nil {
				op.DropAllReferences()
				return nil, fmt.Errorf("creating %q: %w", state.name, err)
			}
		}
	} else if !state.propertiesAttr.IsNil() {
		op.DropAllReferences()
		return nil, fmt.Errorf("creating %q: properties supplied for an unregistered operation", state.name)
	}

	return op, nil
}

// MustCreate is Create for callers that treat a properties decoding failure
// as a bug.
func MustCreate(c *Context, state *OperationState) *Operation {
	op, err := Create(c, state)
	if err != nil {
		panic("ir: " + err.Error())
	}
	return op
}
