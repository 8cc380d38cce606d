package ir

import (
	"strings"
	"testing"

	"lattice/internal/typeid"
)

func testContext(t *testing.T) *Context {
	t.Helper()
	c := NewContext()
	c.AllowUnregisteredDialects(true)
	return c
}

func buildOp(t *testing.T, c *Context, name string, operands []Value, results []Type) *Operation {
	t.Helper()
	state := NewOperationState(GetUnknownLoc(c), name)
	state.AddOperands(operands...)
	state.AddResults(results...)
	op, err := Create(c, state)
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return op
}

func TestCreateUnregisteredRequiresOptIn(t *testing.T) {
	c := NewContext()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic creating an unregistered operation")
		}
	}()
	MustCreate(c, NewOperationState(GetUnknownLoc(c), "test.op"))
}

func TestResultStorageInlineAndSpilled(t *testing.T) {
	c := testContext(t)
	i32 := GetIntegerType(c, 32).Type

	types := make([]Type, 7)
	for i := range types {
		types[i] = i32
	}
	op := buildOp(t, c, "test.many", nil, types)
	if op.NumResults() != 7 {
		t.Fatalf("NumResults = %d", op.NumResults())
	}

	ptrs := make([]*OpResult, 7)
	for i := range ptrs {
		ptrs[i] = op.Result(i)
		if ptrs[i].Owner() != op || ptrs[i].Index() != i {
			t.Fatalf("result %d owner/index wrong", i)
		}
	}
	// Addresses are stable for the operation's lifetime.
	for i := range ptrs {
		if op.Result(i) != ptrs[i] {
			t.Fatalf("result %d address changed", i)
		}
	}
	if &op.resInline[0] != op.Result(0) || &op.resOut[0] != op.Result(maxInlineResults) {
		t.Fatalf("inline/spill split wrong")
	}
}

func TestUseListMaintenance(t *testing.T) {
	c := testContext(t)
	i32 := GetIntegerType(c, 32).Type

	def := buildOp(t, c, "test.def", nil, []Type{i32})
	v := def.Result(0)
	if !UseEmpty(v) {
		t.Fatalf("fresh result has uses")
	}

	use1 := buildOp(t, c, "test.use", []Value{v, v}, nil)
	use2 := buildOp(t, c, "test.use", []Value{v}, nil)

	if UseEmpty(v) || HasOneUse(v) {
		t.Fatalf("use list wrong after two users")
	}
	if got := len(Uses(v)); got != 3 {
		t.Fatalf("len(Uses) = %d", got)
	}
	users := Users(v)
	if len(users) != 2 {
		t.Fatalf("len(Users) = %d", len(users))
	}

	use1.SetOperand(0, nil)
	use1.SetOperand(1, nil)
	use2.SetOperand(0, nil)
	if !UseEmpty(v) {
		t.Fatalf("uses remain after clearing operands")
	}
}

func TestReplaceAllUsesWith(t *testing.T) {
	c := testContext(t)
	i32 := GetIntegerType(c, 32).Type

	a := buildOp(t, c, "test.a", nil, []Type{i32})
	b := buildOp(t, c, "test.b", nil, []Type{i32})
	user := buildOp(t, c, "test.use", []Value{a.Result(0), a.Result(0)}, nil)

	ReplaceAllUsesWith(a.Result(0), b.Result(0))
	if !UseEmpty(a.Result(0)) {
		t.Fatalf("old value still used")
	}
	if user.Operand(0) != Value(b.Result(0)) || user.Operand(1) != Value(b.Result(0)) {
		t.Fatalf("operands not rewired")
	}
	if len(Uses(b.Result(0))) != 2 {
		t.Fatalf("new value use count = %d", len(Uses(b.Result(0))))
	}
}

func TestBlockOrderQueries(t *testing.T) {
	c := testContext(t)
	b := NewBlock()

	ops := make([]*Operation, 4)
	for i := range ops {
		ops[i] = buildOp(t, c, "test.op", nil, nil)
		b.PushBack(ops[i])
	}
	for i := 0; i < len(ops); i++ {
		for j := i + 1; j < len(ops); j++ {
			if !ops[i].IsBeforeInBlock(ops[j]) || ops[j].IsBeforeInBlock(ops[i]) {
				t.Fatalf("order wrong between %d and %d", i, j)
			}
		}
	}

	// Inserting between neighbors keeps the answers consistent.
	mid := buildOp(t, c, "test.mid", nil, nil)
	b.insertAfter(mid, ops[1])
	if !ops[1].IsBeforeInBlock(mid) || !mid.IsBeforeInBlock(ops[2]) {
		t.Fatalf("inserted op misordered")
	}

	// Front insertion repeatedly forces the order cache to rebuild.
	for i := 0; i < 10; i++ {
		front := buildOp(t, c, "test.front", nil, nil)
		b.PushFront(front)
		if !front.IsBeforeInBlock(ops[0]) {
			t.Fatalf("front insertion %d misordered", i)
		}
	}
}

func TestMoveAndRemove(t *testing.T) {
	c := testContext(t)
	b := NewBlock()
	op1 := buildOp(t, c, "test.one", nil, nil)
	op2 := buildOp(t, c, "test.two", nil, nil)
	b.PushBack(op1)
	b.PushBack(op2)

	op2.MoveBefore(op1)
	if b.First() != op2 || b.Last() != op1 {
		t.Fatalf("move did not reorder")
	}
	if !op2.IsBeforeInBlock(op1) {
		t.Fatalf("order stale after move")
	}

	op2.Remove()
	if op2.Block() != nil || b.NumOps() != 1 {
		t.Fatalf("remove did not detach")
	}
	op2.Destroy()
}

func TestEraseWithUsesPanics(t *testing.T) {
	c := testContext(t)
	i32 := GetIntegerType(c, 32).Type
	def := buildOp(t, c, "test.def", nil, []Type{i32})
	buildOp(t, c, "test.use", []Value{def.Result(0)}, nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic destroying a used operation")
		}
	}()
	def.Destroy()
}

func TestBlockArguments(t *testing.T) {
	c := testContext(t)
	i32 := GetIntegerType(c, 32).Type
	b := NewBlock()

	arg := b.AddArg(i32, GetUnknownLoc(c))
	if arg.Owner() != b || arg.Index() != 0 || arg.Type() != i32 {
		t.Fatalf("argument state wrong")
	}
	if arg.DefiningOp() != nil {
		t.Fatalf("block argument has a defining op")
	}

	use := buildOp(t, c, "test.use", []Value{arg}, nil)
	if len(Uses(arg)) != 1 {
		t.Fatalf("argument use not tracked")
	}
	use.SetOperand(0, nil)

	b.AddArg(i32, GetUnknownLoc(c))
	b.EraseArg(0)
	if b.NumArgs() != 1 || b.Arg(0).Index() != 0 {
		t.Fatalf("erase did not renumber")
	}
}

func TestSuccessorsAndPredecessors(t *testing.T) {
	c := testContext(t)
	target := NewBlock()
	other := NewBlock()

	state := NewOperationState(GetUnknownLoc(c), "test.br")
	state.AddSuccessors(target, other)
	br := MustCreate(c, state)
	src := NewBlock()
	src.PushBack(br)

	if br.NumSuccessors() != 2 || br.Successor(0) != target {
		t.Fatalf("successors wrong")
	}
	if !target.HasPredecessors() || target.SinglePredecessor() != src {
		t.Fatalf("predecessor tracking wrong")
	}

	br.SetSuccessor(0, other)
	if target.HasPredecessors() {
		t.Fatalf("old successor still referenced")
	}
	if len(other.Predecessors()) != 1 {
		t.Fatalf("predecessors deduplication wrong")
	}
}

func TestDiscardableAttrs(t *testing.T) {
	c := testContext(t)
	op := buildOp(t, c, "test.op", nil, nil)

	op.SetAttr("flag", GetUnitAttr(c).Attribute)
	if !op.HasAttr("flag") {
		t.Fatalf("attr not set")
	}
	op.SetAttr("count", GetIntegerAttr(c, GetIntegerType(c, 64).Type, 3).Attribute)
	if op.Attrs().Len() != 2 {
		t.Fatalf("Attrs().Len() = %d", op.Attrs().Len())
	}

	prev := op.RemoveAttr("flag")
	if prev.IsNil() || op.HasAttr("flag") {
		t.Fatalf("remove failed")
	}
	if !op.RemoveAttr("flag").IsNil() {
		t.Fatalf("double remove returned a value")
	}
}

func TestWalkOrderAndControl(t *testing.T) {
	c := NewContext()
	module := CreateModuleOp(c, GetUnknownLoc(c))
	defer module.Destroy()
	c.AllowUnregisteredDialects(true)

	body := module.Region(0).First()
	outerState := NewOperationState(GetUnknownLoc(c), "test.outer")
	outerRegion := outerState.AddRegion()
	outer := MustCreate(c, outerState)
	inner := NewBlock()
	outerRegion.PushBack(inner)
	innerOp := buildOp(t, c, "test.inner", nil, nil)
	inner.PushBack(innerOp)
	body.PushBack(outer)
	body.PushBack(buildOp(t, c, "test.sibling", nil, nil))

	var names []string
	module.Walk(func(op *Operation) WalkResult {
		names = append(names, op.Name().Name())
		return WalkAdvance
	})
	want := "builtin.module test.outer test.inner test.sibling"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("walk order = %q, want %q", got, want)
	}

	names = nil
	module.Walk(func(op *Operation) WalkResult {
		names = append(names, op.Name().Name())
		if op.Name().Name() == "test.outer" {
			return WalkSkip
		}
		return WalkAdvance
	})
	if got := strings.Join(names, " "); got != "builtin.module test.outer test.sibling" {
		t.Fatalf("skip walk = %q", got)
	}

	count := 0
	result := module.Walk(func(op *Operation) WalkResult {
		count++
		if op.Name().Name() == "test.inner" {
			return WalkInterrupt
		}
		return WalkAdvance
	})
	if result != WalkInterrupt || count != 3 {
		t.Fatalf("interrupt walk: result=%v count=%d", result, count)
	}

	names = nil
	module.WalkPostOrder(func(op *Operation) WalkResult {
		names = append(names, op.Name().Name())
		return WalkAdvance
	})
	want = "test.inner test.outer test.sibling builtin.module"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("post-order walk = %q, want %q", got, want)
	}
}

func TestIsUsedOutsideOfBlock(t *testing.T) {
	c := NewContext()
	c.AllowUnregisteredDialects(true)
	i32 := GetIntegerType(c, 32).Type

	b1 := NewBlock()
	b2 := NewBlock()
	def := buildOp(t, c, "test.def", nil, []Type{i32})
	b1.PushBack(def)

	localUse := buildOp(t, c, "test.use", []Value{def.Result(0)}, nil)
	b1.PushBack(localUse)
	if IsUsedOutsideOfBlock(def.Result(0), b1) {
		t.Fatalf("value with only local uses reported as escaping")
	}

	remoteUse := buildOp(t, c, "test.use", []Value{def.Result(0)}, nil)
	b2.PushBack(remoteUse)
	if !IsUsedOutsideOfBlock(def.Result(0), b1) {
		t.Fatalf("cross-block use not reported")
	}

	remoteUse.Erase()
	localUse.Erase()
	b2.Destroy()
	b1.Destroy()
}

func TestCloneDeepCopies(t *testing.T) {
	c := NewContext()
	c.AllowUnregisteredDialects(true)
	i32 := GetIntegerType(c, 32).Type

	outerState := NewOperationState(GetUnknownLoc(c), "test.outer")
	outerState.AddResults(i32)
	region := outerState.AddRegion()
	outer := MustCreate(c, outerState)

	b := NewBlock()
	arg := b.AddArg(i32, GetUnknownLoc(c))
	region.PushBack(b)
	inner := buildOp(t, c, "test.inner", []Value{arg}, []Type{i32})
	b.PushBack(inner)
	second := buildOp(t, c, "test.second", []Value{inner.Result(0)}, nil)
	b.PushBack(second)

	var mapping IRMapping
	clone := outer.CloneInto(&mapping, CloneAll)

	if clone == outer || clone.NumRegions() != 1 {
		t.Fatalf("clone structure wrong")
	}
	cb := clone.Region(0).First()
	if cb == b || cb.NumArgs() != 1 || cb.NumOps() != 2 {
		t.Fatalf("cloned block wrong")
	}
	// Uses inside the clone point at cloned values, not the originals.
	ci := cb.First()
	if ci.Operand(0) != Value(cb.Arg(0)) {
		t.Fatalf("cloned operand still uses the original argument")
	}
	cs := ci.NextOp()
	if cs.Operand(0) != Value(ci.Result(0)) {
		t.Fatalf("cloned chain broken")
	}
	if mapping.LookupOp(inner) != ci {
		t.Fatalf("mapping does not cover nested ops")
	}

	// CloneWithoutRegions leaves the region empty.
	bare := outer.CloneWithoutRegions()
	if bare.NumRegions() != 1 || !bare.Region(0).Empty() {
		t.Fatalf("region cloned despite options")
	}
}

func TestVerifyModule(t *testing.T) {
	c := NewContext()
	module := CreateModuleOp(c, GetUnknownLoc(c))
	defer module.Destroy()
	if err := Verify(module); err != nil {
		t.Fatalf("empty module does not verify: %v", err)
	}

	c.AllowUnregisteredDialects(true)
	op := MustCreate(c, NewOperationState(GetUnknownLoc(c), "test.op"))
	module.Region(0).First().PushBack(op)
	if err := Verify(module); err != nil {
		t.Fatalf("module with unregistered op does not verify: %v", err)
	}
}

func TestVerifyRejectsUnregisteredWhenDisallowed(t *testing.T) {
	c := NewContext()
	c.AllowUnregisteredDialects(true)
	module := CreateModuleOp(c, GetUnknownLoc(c))
	defer module.Destroy()
	module.Region(0).First().PushBack(MustCreate(c, NewOperationState(GetUnknownLoc(c), "test.op")))

	c.AllowUnregisteredDialects(false)
	err := Verify(module)
	if err == nil || !strings.Contains(err.Error(), "unregistered") {
		t.Fatalf("Verify = %v", err)
	}
}

func TestGenericPrinting(t *testing.T) {
	c := testContext(t)
	i32 := GetIntegerType(c, 32).Type

	def := buildOp(t, c, "test.def", nil, []Type{i32})
	use := buildOp(t, c, "test.use", []Value{def.Result(0)}, nil)

	if got := def.String(); got != `%0 = "test.def"() : () -> (i32)` {
		t.Fatalf("def printed %q", got)
	}
	if got := use.String(); !strings.Contains(got, `"test.use"(%0)`) {
		t.Fatalf("use printed %q", got)
	}
}

func TestPropertiesBlobAtCapacity(t *testing.T) {
	c := NewContext()
	c.GetOrLoadDialectWith("blob", typeid.FromName("blob-dialect"), func(d *Dialect) {
		d.AddOperation(OpRegistration{
			Name:  "max",
			ID:    typeid.FromName("blob.max"),
			Hooks: OpHooks{PropertiesSize: 2048},
		})
		d.AddOperation(OpRegistration{
			Name:  "odd",
			ID:    typeid.FromName("blob.odd"),
			Hooks: OpHooks{PropertiesSize: 12},
		})
	})

	op := MustCreate(c, NewOperationState(GetUnknownLoc(c), "blob.max"))
	defer op.Destroy()
	if got := op.PropertiesStorageSize(); got != 2048 {
		t.Fatalf("PropertiesStorageSize = %d, want 2048", got)
	}
	if len(op.Properties()) != 2048 {
		t.Fatalf("blob length = %d", len(op.Properties()))
	}

	odd := MustCreate(c, NewOperationState(GetUnknownLoc(c), "blob.odd"))
	defer odd.Destroy()
	if got := odd.PropertiesStorageSize(); got != 16 {
		t.Fatalf("rounded size = %d, want 16", got)
	}
}

func TestClonePropertiesUsesCopyHook(t *testing.T) {
	c := NewContext()
	copies := 0
	c.GetOrLoadDialectWith("tag", typeid.FromName("tag-dialect"), func(d *Dialect) {
		d.AddOperation(OpRegistration{
			Name: "op",
			ID:   typeid.FromName("tag.op"),
			Hooks: OpHooks{
				PropertiesSize: 8,
				InitProperties: func(b []byte) { b[0] = 7 },
				CopyProperties: func(dst, src []byte) {
					copies++
					copy(dst, src)
				},
			},
		})
	})

	op := MustCreate(c, NewOperationState(GetUnknownLoc(c), "tag.op"))
	defer op.Destroy()
	op.Properties()[1] = 42

	clone := op.Clone()
	defer clone.Destroy()
	if copies != 1 {
		t.Fatalf("copy hook ran %d times", copies)
	}
	if b := clone.Properties(); b[0] != 7 || b[1] != 42 {
		t.Fatalf("clone blob = %v", b[:2])
	}
}

func TestOperationNameTables(t *testing.T) {
	c := testContext(t)
	n1 := GetOperationName(c, "test.op")
	n2 := GetOperationName(c, "test.op")
	if n1 != n2 {
		t.Fatalf("names not uniqued")
	}
	if n1.IsRegistered() {
		t.Fatalf("unregistered name reports registered")
	}
	if n1.DialectNamespace() != "test" {
		t.Fatalf("namespace = %q", n1.DialectNamespace())
	}
	if _, ok := n1.Registered(); ok {
		t.Fatalf("Registered() succeeded for an unregistered name")
	}

	rn, ok := LookupRegisteredOperation(c, "builtin.module")
	if !ok || !rn.HasTrait(TraitIsolatedFromAbove) {
		t.Fatalf("builtin.module registration wrong")
	}
	if GetOperationName(c, "builtin.module") != rn.OperationName {
		t.Fatalf("registered fast path returned a different name")
	}
}
