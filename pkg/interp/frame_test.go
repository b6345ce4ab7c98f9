package interp

import (
	"errors"
	"testing"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

// run executes straight-line assembler source on f.
func run(t *testing.T, f *Frame, src string) {
	t.Helper()
	basic := NewBasic()
	for _, insn := range bytecode.MustAssemble(src).Insns() {
		if err := f.Execute(insn, basic); err != nil {
			t.Fatalf("Execute %s failed: %v", bytecode.FormatInsn(insn), err)
		}
	}
}

func top(t *testing.T, f *Frame) value.Value {
	t.Helper()
	v, err := f.Peek()
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	return v
}

func expectInt(t *testing.T, v value.Value, want int32) {
	t.Helper()
	i, ok := v.(*value.Int)
	if !ok || !i.Known() {
		t.Fatalf("Expected known int %d, got %s", want, v)
	}
	if i.Value() != want {
		t.Errorf("Expected %d, got %d", want, i.Value())
	}
}

func TestNewFrameLocalsEmpty(t *testing.T) {
	f := NewFrame(3, 2)
	if f.Locals() != 3 {
		t.Fatalf("Expected 3 locals, got %d", f.Locals())
	}
	for i := 0; i < 3; i++ {
		v, _ := f.Local(i)
		if v != value.Empty {
			t.Errorf("Local %d: expected empty, got %s", i, v)
		}
	}
	if _, err := f.Local(3); !errors.Is(err, ErrBadLocal) {
		t.Errorf("Expected ErrBadLocal, got %v", err)
	}
}

func TestFrameWideLocals(t *testing.T) {
	f := NewFrame(3, 2)
	if err := f.SetLocal(0, value.NewLong(5)); err != nil {
		t.Fatalf("SetLocal failed: %v", err)
	}
	if v, _ := f.Local(1); v != value.Empty {
		t.Errorf("Expected second slot of long to be empty, got %s", v)
	}

	// Overwriting the upper half invalidates the long.
	if err := f.SetLocal(1, value.NewInt(3)); err != nil {
		t.Fatalf("SetLocal failed: %v", err)
	}
	if v, _ := f.Local(0); v != value.Empty {
		t.Errorf("Expected long to be invalidated, got %s", v)
	}

	if err := f.SetLocal(2, value.NewDouble(1)); !errors.Is(err, ErrBadLocal) {
		t.Errorf("Expected ErrBadLocal for double in last slot, got %v", err)
	}
}

func TestFrameStackBounds(t *testing.T) {
	f := NewFrame(0, 1)
	if err := f.Push(value.NewInt(1)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := f.Push(value.NewInt(2)); !errors.Is(err, ErrStackOverflow) {
		t.Errorf("Expected ErrStackOverflow, got %v", err)
	}
	if _, err := f.Pop(); err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if _, err := f.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Expected ErrStackUnderflow, got %v", err)
	}
}

func TestFrameCopyIsIndependent(t *testing.T) {
	f := NewFrame(1, 2)
	f.SetReturn(bytecode.IntType)
	_ = f.Push(value.NewInt(1))

	c := f.Copy()
	_ = c.Push(value.NewInt(2))
	_ = c.SetLocal(0, value.NewInt(9))

	if f.StackSize() != 1 {
		t.Errorf("Expected original stack size 1, got %d", f.StackSize())
	}
	if v, _ := f.Local(0); v != value.Empty {
		t.Errorf("Expected original local untouched, got %s", v)
	}
	if c.ReturnType() != bytecode.IntType {
		t.Errorf("Expected copied return type I, got %s", c.ReturnType())
	}
}

func TestExecuteArithmetic(t *testing.T) {
	f := NewFrame(1, 4)
	run(t, f, `
		iconst_2
		iconst_3
		iadd
		bipush 4
		imul
		istore 0
		iinc 0 -6
		iload 0
	`)
	expectInt(t, top(t, f), 14)
}

func TestExecuteLongDup2(t *testing.T) {
	f := NewFrame(0, 4)
	run(t, f, `
		ldc 21L
		dup2
		ladd
	`)
	l, ok := top(t, f).(*value.Long)
	if !ok || l.Value() != 42 {
		t.Errorf("Expected 42L, got %s", top(t, f))
	}
	if f.StackSize() != 1 {
		t.Errorf("Expected one stack entry for a long, got %d", f.StackSize())
	}
}

func TestExecuteSwapAndDupX1(t *testing.T) {
	f := NewFrame(0, 4)
	run(t, f, `
		iconst_1
		iconst_2
		swap
	`)
	expectInt(t, f.Stack(0), 2)
	expectInt(t, f.Stack(1), 1)

	run(t, f, "dup_x1")
	if f.StackSize() != 3 {
		t.Fatalf("Expected 3 entries, got %d", f.StackSize())
	}
	expectInt(t, f.Stack(0), 1)
	expectInt(t, f.Stack(1), 2)
	expectInt(t, f.Stack(2), 1)
}

func TestExecuteIllegalPop(t *testing.T) {
	f := NewFrame(0, 2)
	run(t, f, "lconst_1")
	err := f.Execute(bytecode.Op(bytecode.OpPop), NewBasic())
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch popping a long, got %v", err)
	}
}

func TestExecuteArrayStoreReplacesArray(t *testing.T) {
	f := NewFrame(2, 4)
	run(t, f, `
		iconst_3
		newarray int
		dup
		astore 0
		astore 1
		aload 0
		iconst_1
		bipush 7
		iastore
	`)
	a0, _ := f.Local(0)
	a1, _ := f.Local(1)
	if a0 != a1 {
		t.Fatal("Expected both locals to reference the updated array")
	}
	elem, ok := a0.(*value.Array).Element(1)
	if !ok {
		t.Fatal("Expected element 1 to be known")
	}
	expectInt(t, elem, 7)
}

func TestStoreArrayReportsReplacement(t *testing.T) {
	f := NewFrame(1, 4)
	run(t, f, `
		iconst_2
		newarray int
		astore 0
		aload 0
		iconst_0
		bipush 9
	`)
	old, _ := f.Local(0)
	prev, updated, err := f.StoreArray(bytecode.Op(bytecode.OpIastore), NewBasic())
	if err != nil {
		t.Fatalf("StoreArray failed: %v", err)
	}
	if prev != old || updated == nil || updated == old {
		t.Fatalf("Expected %s replaced, got %v and %v", old, prev, updated)
	}
	if cur, _ := f.Local(0); cur != updated {
		t.Error("Expected the local to hold the updated array")
	}

	run(t, f, "aconst_null\niconst_0\niconst_1")
	if _, _, err := f.StoreArray(bytecode.Op(bytecode.OpIastore), NewBasic()); !errors.Is(err, ErrNullPointer) {
		t.Errorf("Expected ErrNullPointer, got %v", err)
	}
}

func TestExecuteInvokePopsReceiverAndArgs(t *testing.T) {
	f := NewFrame(0, 4)
	run(t, f, `
		ldc "hello"
		iconst_1
		iconst_3
		invokevirtual java/lang/String.substring (II)Ljava/lang/String;
	`)
	s, ok := top(t, f).(*value.String)
	if !ok || s.Value() != "el" {
		t.Errorf("Expected \"el\", got %s", top(t, f))
	}
	if f.StackSize() != 1 {
		t.Errorf("Expected a single result on the stack, got %d", f.StackSize())
	}
}

func TestExecuteVoidInvokePushesNothing(t *testing.T) {
	f := NewFrame(0, 4)
	run(t, f, `
		iconst_1
		invokestatic a/B.sink (I)V
	`)
	if f.StackSize() != 0 {
		t.Errorf("Expected empty stack, got %d entries", f.StackSize())
	}
}

func TestExecuteReturnChecksType(t *testing.T) {
	f := NewFrame(0, 2)
	f.SetReturn(bytecode.IntType)
	run(t, f, "lconst_0")
	err := f.Execute(bytecode.Op(bytecode.OpLreturn), NewBasic())
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch, got %v", err)
	}

	var ie *InsnError
	if !errors.As(err, &ie) || ie.Insn.Op != bytecode.OpLreturn {
		t.Errorf("Expected error to name lreturn, got %v", err)
	}
}

func TestExecuteDivideByZero(t *testing.T) {
	f := NewFrame(0, 2)
	run(t, f, `
		iconst_1
		iconst_0
	`)
	err := f.Execute(bytecode.Op(bytecode.OpIdiv), NewBasic())
	if !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Expected ErrDivideByZero, got %v", err)
	}
}
