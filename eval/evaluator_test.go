package eval

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/interp"
	"github.com/chazu/bceval/pkg/value"
)

// countingLookup is a ClassLookup over fixed classes that counts calls.
type countingLookup struct {
	classes  map[string]*bytecode.Class
	calls    int
	revision uint64
}

func (l *countingLookup) FindClass(name string, _ bool) (*bytecode.Class, bool) {
	l.calls++
	c, ok := l.classes[name]
	return c, ok
}

func (l *countingLookup) Revision() uint64 { return l.revision }

func lookupOf(classes ...*bytecode.Class) *countingLookup {
	l := &countingLookup{classes: make(map[string]*bytecode.Class)}
	for _, c := range classes {
		l.classes[c.Name] = c
	}
	return l
}

func class(name string, methods ...*bytecode.Method) *bytecode.Class {
	return &bytecode.Class{Name: name, Super: "java/lang/Object", Access: bytecode.AccPublic, Methods: methods}
}

func staticMethod(name, desc, src string) *bytecode.Method {
	return &bytecode.Method{
		Name:         name,
		Desc:         desc,
		Access:       bytecode.AccPublic | bytecode.AccStatic,
		MaxLocals:    8,
		MaxStack:     8,
		Instructions: bytecode.MustAssemble(src),
	}
}

func newEvaluator(l ClassLookup, steps int) *Evaluator {
	return New(l, Options{MaxSteps: steps, Feasibility: NewFeasibilityCache()})
}

func expectYield(t *testing.T, res Result) value.Value {
	t.Helper()
	y, ok := res.(*Yield)
	if !ok {
		t.Fatalf("Expected yield, got %s", res)
	}
	return y.Value
}

func expectFailure(t *testing.T, res Result, fragment string) {
	t.Helper()
	f, ok := res.(*Failure)
	if !ok {
		t.Fatalf("Expected failure, got %s", res)
	}
	if !strings.Contains(f.Error(), fragment) {
		t.Errorf("Expected failure mentioning %q, got %q", fragment, f.Error())
	}
}

func expectKnownInt(t *testing.T, v value.Value, want int32) {
	t.Helper()
	i, ok := v.(*value.Int)
	if !ok || !i.Known() {
		t.Fatalf("Expected known int %d, got %s", want, v)
	}
	if i.Value() != want {
		t.Errorf("Expected %d, got %d", want, i.Value())
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	c := class("demo/Calc", staticMethod("calc", "()I", `
		iconst_2
		iconst_3
		iconst_4
		imul
		iadd
		ireturn
	`))
	ev := newEvaluator(lookupOf(c), 100)

	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Calc", "calc", "()I", nil, nil)), 2+3*4)
	if ev.Budget().Spent() != 6 {
		t.Errorf("Expected 6 steps spent, got %d", ev.Budget().Spent())
	}
}

func TestEvaluateArguments(t *testing.T) {
	c := class("demo/Args",
		staticMethod("add", "(II)I", "iload 0\niload 1\niadd\nireturn"),
		staticMethod("widen", "(JI)J", "lload 0\niload 2\ni2l\nladd\nlreturn"),
	)
	ev := newEvaluator(lookupOf(c), 100)

	res := ev.Evaluate("demo/Args", "add", "(II)I", nil, []value.Value{value.NewInt(40), value.NewByte(2)})
	expectKnownInt(t, expectYield(t, res), 42)

	res = ev.Evaluate("demo/Args", "widen", "(JI)J", nil, []value.Value{value.NewLong(40), value.NewInt(2)})
	l, ok := expectYield(t, res).(*value.Long)
	if !ok || !l.Known() || l.Value() != 42 {
		t.Errorf("Expected 42L, got %s", expectYield(t, res))
	}
}

func TestEvaluateArgumentValidation(t *testing.T) {
	c := class("demo/Args",
		staticMethod("add", "(II)I", "iload 0\niload 1\niadd\nireturn"),
		staticMethod("touch", "()V", "return"),
	)
	ev := newEvaluator(lookupOf(c), 100)

	expectFailure(t, ev.Evaluate("demo/Args", "add", "(II)I", nil, []value.Value{value.NewInt(1)}), "expected 2 arguments")
	expectFailure(t, ev.Evaluate("demo/Args", "add", "(II)I", nil, []value.Value{value.NewInt(1), value.NewLong(1)}), "argument 1")
	expectFailure(t, ev.Evaluate("demo/Args", "touch", "()V", nil, nil), "must yield a value")
	expectFailure(t, ev.Evaluate("demo/Missing", "add", "(II)I", nil, nil), "not found")
	expectFailure(t, ev.Evaluate("demo/Args", "sub", "(II)I", nil, nil), "not found")
}

func TestUnsupportedInstructionsAreInfeasible(t *testing.T) {
	c := class("demo/Legacy",
		staticMethod("sub", "()I", "jsr L1\nL1:\niconst_0\nireturn"),
		staticMethod("indy", "()I", "invokedynamic make ()I\nireturn"),
		staticMethod("boom", "()I", "aconst_null\nathrow"),
	)
	ev := newEvaluator(lookupOf(c), 100)

	for _, name := range []string{"sub", "indy", "boom"} {
		if ev.CanEvaluate("demo/Legacy", name, "()I") {
			t.Errorf("Expected %s to be infeasible", name)
		}
		expectFailure(t, ev.Evaluate("demo/Legacy", name, "()I", nil, nil), "not supported")
	}
	if ev.Budget().Spent() != 0 {
		t.Errorf("Expected no steps spent on infeasible methods, got %d", ev.Budget().Spent())
	}
}

func TestReceiverLoadIsInfeasible(t *testing.T) {
	m := &bytecode.Method{
		Name: "self", Desc: "()Ljava/lang/Object;", Access: bytecode.AccPublic,
		MaxLocals: 1, MaxStack: 1, Instructions: bytecode.MustAssemble("aload 0\nareturn"),
	}
	ev := newEvaluator(lookupOf(class("demo/Self", m)), 100)
	if ev.CanEvaluate("demo/Self", "self", "()Ljava/lang/Object;") {
		t.Error("Expected aload 0 in an instance method to be infeasible")
	}
}

func TestUnknownBranchFails(t *testing.T) {
	c := class("demo/Branch", staticMethod("pick", "(I)I", `
		iload 0
		ifeq ZERO
		iconst_1
		ireturn
	ZERO:
		iconst_0
		ireturn
	`))
	ev := newEvaluator(lookupOf(c), 100)

	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Branch", "pick", "(I)I", nil, []value.Value{value.NewInt(0)})), 0)
	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Branch", "pick", "(I)I", nil, []value.Value{value.NewInt(5)})), 1)

	res := ev.Evaluate("demo/Branch", "pick", "(I)I", nil, []value.Value{value.UnknownInt(bytecode.IntType)})
	expectFailure(t, res, "ifeq ZERO")
}

func TestSwitches(t *testing.T) {
	c := class("demo/Switch",
		staticMethod("table", "(I)I", `
			iload 0
			tableswitch 0 2 L0 L1 L2 default LD
		L0:
			bipush 10
			ireturn
		L1:
			bipush 11
			ireturn
		L2:
			bipush 12
			ireturn
		LD:
			iconst_m1
			ireturn
		`),
		staticMethod("lookup", "(I)I", `
			iload 0
			lookupswitch 5:FIVE 100:HUNDRED default:OTHER
		FIVE:
			iconst_5
			ireturn
		HUNDRED:
			bipush 100
			ireturn
		OTHER:
			iconst_0
			ireturn
		`),
	)
	ev := newEvaluator(lookupOf(c), 1000)

	tests := []struct {
		name string
		arg  int32
		want int32
	}{
		{"table", 1, 11},
		{"table", 2, 12},
		{"table", 7, -1},
		{"table", -3, -1},
		{"lookup", 5, 5},
		{"lookup", 100, 100},
		{"lookup", 6, 0},
	}
	for _, tt := range tests {
		res := ev.Evaluate("demo/Switch", tt.name, "(I)I", nil, []value.Value{value.NewInt(tt.arg)})
		expectKnownInt(t, expectYield(t, res), tt.want)
	}

	res := ev.Evaluate("demo/Switch", "table", "(I)I", nil, []value.Value{value.UnknownInt(bytecode.IntType)})
	expectFailure(t, res, "tableswitch")

	res = ev.Evaluate("demo/Switch", "lookup", "(I)I", nil, []value.Value{value.UnknownInt(bytecode.IntType)})
	expectFailure(t, res, "lookupswitch")
}

func TestTableSwitchFullRange(t *testing.T) {
	// A table spanning the whole int range with fewer labels than cases.
	wide := &bytecode.Method{
		Name: "wide", Desc: "(I)I", Access: bytecode.AccStatic, MaxLocals: 1, MaxStack: 1,
		Instructions: bytecode.MustInsnList(
			bytecode.VarInsn(bytecode.OpIload, 0),
			bytecode.TableSwitch(math.MinInt32, math.MaxInt32, "LD", "L0", "L1"),
			bytecode.Label("L0"),
			bytecode.IntInsn(bytecode.OpBipush, 10),
			bytecode.Op(bytecode.OpIreturn),
			bytecode.Label("L1"),
			bytecode.IntInsn(bytecode.OpBipush, 11),
			bytecode.Op(bytecode.OpIreturn),
			bytecode.Label("LD"),
			bytecode.Op(bytecode.OpIconstM1),
			bytecode.Op(bytecode.OpIreturn),
		),
	}
	ev := newEvaluator(lookupOf(class("demo/Switch", wide)), 100)

	tests := []struct {
		arg  int32
		want int32
	}{
		{math.MinInt32, 10},
		{math.MinInt32 + 1, 11},
		{0, -1},
		{math.MaxInt32, -1},
	}
	for _, tt := range tests {
		res := ev.Evaluate("demo/Switch", "wide", "(I)I", nil, []value.Value{value.NewInt(tt.arg)})
		expectKnownInt(t, expectYield(t, res), tt.want)
	}
}

func TestCanEvaluateIsMemoized(t *testing.T) {
	l := lookupOf(class("demo/Calc", staticMethod("calc", "()I", "iconst_1\nireturn")))
	ev := newEvaluator(l, 100)

	if !ev.CanEvaluate("demo/Calc", "calc", "()I") {
		t.Fatal("Expected calc to be feasible")
	}
	if !ev.CanEvaluate("demo/Calc", "calc", "()I") {
		t.Fatal("Expected the repeated verdict to match")
	}
	if l.calls != 1 {
		t.Errorf("Expected 1 lookup call, got %d", l.calls)
	}

	l.revision++
	if !ev.CanEvaluate("demo/Calc", "calc", "()I") {
		t.Fatal("Expected calc to stay feasible after a revision change")
	}
	if l.calls != 2 {
		t.Errorf("Expected a new revision to walk again, got %d lookup calls", l.calls)
	}

	if ev.CanEvaluate("demo/Missing", "calc", "()I") {
		t.Error("Expected a missing class to be infeasible")
	}
}

func TestCanEvaluateMethodSharesVerdicts(t *testing.T) {
	good := staticMethod("good", "()I", "iconst_1\nireturn")
	bad := staticMethod("bad", "()I", "invokedynamic roll ()I\nireturn")
	l := lookupOf(class("demo/Calc", good, bad))
	ev := newEvaluator(l, 100)

	if !ev.CanEvaluateMethod("demo/Calc", good) {
		t.Error("Expected good to be feasible")
	}
	if ev.CanEvaluateMethod("demo/Calc", bad) {
		t.Error("Expected bad to be infeasible")
	}
	if !ev.CanEvaluate("demo/Calc", "good", "()I") || ev.CanEvaluate("demo/Calc", "bad", "()I") {
		t.Error("Expected CanEvaluate to reuse the recorded verdicts")
	}
	if l.calls != 0 {
		t.Errorf("Expected cached verdicts to skip the lookup, got %d calls", l.calls)
	}
}

func TestStringBuilderRoundTrip(t *testing.T) {
	c := class("demo/Text", staticMethod("build", "()Ljava/lang/String;", `
		new java/lang/StringBuilder
		dup
		ldc "ab"
		invokespecial java/lang/StringBuilder.<init> (Ljava/lang/String;)V
		bipush 42
		invokevirtual java/lang/StringBuilder.append (I)Ljava/lang/StringBuilder;
		ldc "!"
		invokevirtual java/lang/StringBuilder.append (Ljava/lang/String;)Ljava/lang/StringBuilder;
		invokevirtual java/lang/StringBuilder.toString ()Ljava/lang/String;
		areturn
	`))
	ev := newEvaluator(lookupOf(c), 100)

	var direct strings.Builder
	direct.WriteString("ab")
	direct.WriteString("42")
	direct.WriteString("!")

	v := expectYield(t, ev.Evaluate("demo/Text", "build", "()Ljava/lang/String;", nil, nil))
	s, ok := v.(*value.String)
	if !ok || !s.Known() {
		t.Fatalf("Expected a known string, got %s", v)
	}
	if s.Value() != direct.String() {
		t.Errorf("Expected %q, got %q", direct.String(), s.Value())
	}
}

func TestStaticFactoryAndHandler(t *testing.T) {
	c := class("demo/Box", staticMethod("unbox", "()I", `
		bipush 9
		invokestatic java/lang/Integer.valueOf (I)Ljava/lang/Integer;
		invokevirtual java/lang/Integer.intValue ()I
		ireturn
	`), staticMethod("boxed", "()Ljava/lang/Integer;", `
		bipush 9
		invokestatic java/lang/Integer.valueOf (I)Ljava/lang/Integer;
		areturn
	`))
	ev := newEvaluator(lookupOf(c), 100)

	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Box", "unbox", "()I", nil, nil)), 9)

	v := expectYield(t, ev.Evaluate("demo/Box", "boxed", "()Ljava/lang/Integer;", nil, nil))
	b, ok := v.(*value.Boxed)
	if !ok {
		t.Fatalf("Expected an unmapped boxed value, got %s", v)
	}
	expectKnownInt(t, b.Unbox(), 9)
}

func TestReferenceComparison(t *testing.T) {
	c := class("demo/Ref", staticMethod("same", "()I", `
		new java/lang/StringBuilder
		astore 0
		aload 0
		aload 0
		if_acmpeq SAME
		iconst_0
		ireturn
	SAME:
		new java/lang/StringBuilder
		aload 0
		if_acmpne DIFFERENT
		iconst_0
		ireturn
	DIFFERENT:
		iconst_1
		ireturn
	`))
	ev := newEvaluator(lookupOf(c), 100)
	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Ref", "same", "()I", nil, nil)), 1)
}

func TestRecursiveEvaluation(t *testing.T) {
	c := class("demo/Fact", staticMethod("fact", "(I)I", `
		iload 0
		ifgt RECURSE
		iconst_1
		ireturn
	RECURSE:
		iload 0
		iload 0
		iconst_1
		isub
		invokestatic demo/Fact.fact (I)I
		imul
		ireturn
	`))
	ev := newEvaluator(lookupOf(c), 1000)
	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Fact", "fact", "(I)I", nil, []value.Value{value.NewInt(5)})), 120)
}

func TestSharedBudget(t *testing.T) {
	callee := class("demo/B", staticMethod("five", "()I", "iconst_2\niconst_3\niadd\nireturn"))
	caller := class("demo/A", staticMethod("outer", "()I", "invokestatic demo/B.five ()I\nireturn"))
	l := lookupOf(caller, callee)

	alone := newEvaluator(l, 5)
	expectKnownInt(t, expectYield(t, alone.Evaluate("demo/B", "five", "()I", nil, nil)), 5)

	shared := newEvaluator(l, 5)
	expectFailure(t, shared.Evaluate("demo/A", "outer", "()I", nil, nil), "5 steps")
	if shared.Budget().Remaining() != 0 {
		t.Errorf("Expected the budget to be spent, got %d remaining", shared.Budget().Remaining())
	}

	shared.Budget().Reset()
	expectFailure(t, shared.Evaluate("demo/A", "outer", "()I", nil, nil), "5 steps")

	enough := newEvaluator(l, 6)
	expectKnownInt(t, expectYield(t, enough.Evaluate("demo/A", "outer", "()I", nil, nil)), 5)
}

func TestCalleeFailureFallsBack(t *testing.T) {
	callee := class("demo/B", staticMethod("dyn", "()I", "invokedynamic make ()I\nireturn"))
	caller := class("demo/A", staticMethod("outer", "()I", "invokestatic demo/B.dyn ()I\nireturn"))
	ev := newEvaluator(lookupOf(caller, callee), 100)

	v := expectYield(t, ev.Evaluate("demo/A", "outer", "()I", nil, nil))
	if v.Kind() != value.KindInt || v.Known() {
		t.Errorf("Expected an unknown int from the fallback, got %s", v)
	}
}

func TestBlockVersusMethod(t *testing.T) {
	src := "iconst_2\niconst_3\niadd"
	c := class("demo/Frag", staticMethod("frag", "()I", src))
	ev := newEvaluator(lookupOf(c), 100)

	res := ev.EvaluateBlock(bytecode.MustAssemble(src), interp.NewFrame(1, 4), bytecode.AccStatic)
	expectKnownInt(t, expectYield(t, res), 5)

	expectFailure(t, ev.Evaluate("demo/Frag", "frag", "()I", nil, nil), "fell through")
}

func TestBlockUsesOriginFrame(t *testing.T) {
	ev := newEvaluator(lookupOf(), 100)
	origin := interp.NewFrame(2, 4)
	if err := origin.SetLocal(1, value.NewInt(20)); err != nil {
		t.Fatal(err)
	}

	res := ev.EvaluateBlock(bytecode.MustAssemble("iload 1\niload 1\niadd"), origin, bytecode.AccStatic)
	expectKnownInt(t, expectYield(t, res), 40)

	if v, _ := origin.Local(1); v.(*value.Int).Value() != 20 {
		t.Errorf("Expected the origin frame to be untouched, got %s", v)
	}

	expectFailure(t, ev.EvaluateBlock(bytecode.MustAssemble("nop"), origin, bytecode.AccStatic), "empty stack")
	if ev.CanEvaluateBlock(bytecode.MustAssemble("aload 0"), origin, bytecode.AccPublic) {
		t.Error("Expected aload 0 in an instance block to be infeasible")
	}
}

func TestFieldCacheResetThroughEvaluation(t *testing.T) {
	c := class("demo/Holder",
		staticMethod("store", "()I", `
			bipush 7
			putstatic demo/Holder.count I
			getstatic demo/Holder.count I
			ireturn
		`),
		staticMethod("load", "()I", "getstatic demo/Holder.count I\nireturn"),
	)
	ev := newEvaluator(lookupOf(c), 100)

	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Holder", "store", "()I", nil, nil)), 7)
	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Holder", "load", "()I", nil, nil)), 7)

	ev.Fields().Reset()
	v := expectYield(t, ev.Evaluate("demo/Holder", "load", "()I", nil, nil))
	if v.Known() {
		t.Errorf("Expected an unknown field after reset, got %s", v)
	}
}

func TestConstantStaticField(t *testing.T) {
	c := class("demo/Consts", staticMethod("answer", "()I", "getstatic demo/Consts.ANSWER I\nireturn"))
	cst := bytecode.IntConst(42)
	c.Fields = []*bytecode.Field{{Name: "ANSWER", Desc: "I", Access: bytecode.AccStatic | bytecode.AccFinal, Value: &cst}}
	ev := newEvaluator(lookupOf(c), 100)

	expectKnownInt(t, expectYield(t, ev.Evaluate("demo/Consts", "answer", "()I", nil, nil)), 42)
}
