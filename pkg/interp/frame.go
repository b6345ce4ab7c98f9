package interp

import (
	"fmt"
	"strings"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

// Frame is per-call execution state: fixed local slots and a bounded
// operand stack. Wide values occupy one stack entry and two local slots,
// the second holding value.Empty.
type Frame struct {
	locals     []value.Value
	stack      []value.Value
	maxStack   int
	returnType bytecode.Type
}

// NewFrame returns a frame with every local set to value.Empty.
func NewFrame(maxLocals, maxStack int) *Frame {
	locals := make([]value.Value, maxLocals)
	for i := range locals {
		locals[i] = value.Empty
	}
	return &Frame{
		locals:     locals,
		stack:      make([]value.Value, 0, maxStack),
		maxStack:   maxStack,
		returnType: bytecode.VoidType,
	}
}

// Copy returns an independent frame with the same contents.
func (f *Frame) Copy() *Frame {
	c := &Frame{
		locals:     make([]value.Value, len(f.locals)),
		stack:      make([]value.Value, len(f.stack), f.maxStack),
		maxStack:   f.maxStack,
		returnType: f.returnType,
	}
	copy(c.locals, f.locals)
	copy(c.stack, f.stack)
	return c
}

// SetReturn sets the declared return type checked by return instructions.
func (f *Frame) SetReturn(t bytecode.Type) { f.returnType = t }

// ReturnType returns the declared return type.
func (f *Frame) ReturnType() bytecode.Type { return f.returnType }

// ---------------------------------------------------------------------------
// Locals
// ---------------------------------------------------------------------------

// Locals returns the number of local slots.
func (f *Frame) Locals() int { return len(f.locals) }

// Local returns the value in slot i.
func (f *Frame) Local(i int) (value.Value, error) {
	if i < 0 || i >= len(f.locals) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadLocal, i, len(f.locals))
	}
	return f.locals[i], nil
}

// SetLocal stores v in slot i. A wide value also claims slot i+1, and a wide
// value previously in slot i-1 is invalidated.
func (f *Frame) SetLocal(i int, v value.Value) error {
	if i < 0 || i+v.Size() > len(f.locals) {
		return fmt.Errorf("%w: %d of %d", ErrBadLocal, i, len(f.locals))
	}
	f.locals[i] = v
	if v.Size() == 2 {
		f.locals[i+1] = value.Empty
	}
	if i > 0 && f.locals[i-1].Size() == 2 && f.locals[i-1].Kind() != value.KindEmpty {
		f.locals[i-1] = value.Empty
	}
	return nil
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// MaxStack returns the stack capacity in entries.
func (f *Frame) MaxStack() int { return f.maxStack }

// StackSize returns the number of values on the stack.
func (f *Frame) StackSize() int { return len(f.stack) }

// Stack returns the i-th value from the bottom of the stack.
func (f *Frame) Stack(i int) value.Value { return f.stack[i] }

// Push pushes v onto the stack.
func (f *Frame) Push(v value.Value) error {
	if len(f.stack) >= f.maxStack {
		return ErrStackOverflow
	}
	f.stack = append(f.stack, v)
	return nil
}

// Pop removes and returns the top of the stack.
func (f *Frame) Pop() (value.Value, error) {
	if len(f.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	v := f.stack[len(f.stack)-1]
	f.stack[len(f.stack)-1] = nil
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

// PopN removes the top n values and returns them bottom-first.
func (f *Frame) PopN(n int) ([]value.Value, error) {
	if n > len(f.stack) {
		return nil, ErrStackUnderflow
	}
	out := make([]value.Value, n)
	copy(out, f.stack[len(f.stack)-n:])
	for i := len(f.stack) - n; i < len(f.stack); i++ {
		f.stack[i] = nil
	}
	f.stack = f.stack[:len(f.stack)-n]
	return out, nil
}

// Peek returns the top of the stack without removing it.
func (f *Frame) Peek() (value.Value, error) {
	if len(f.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	return f.stack[len(f.stack)-1], nil
}

// ClearStack empties the operand stack.
func (f *Frame) ClearStack() {
	for i := range f.stack {
		f.stack[i] = nil
	}
	f.stack = f.stack[:0]
}

// Replace substitutes every reference to old, by identity, with repl in
// both locals and stack.
func (f *Frame) Replace(old, repl value.Value) {
	for i, v := range f.locals {
		if v == old {
			f.locals[i] = repl
		}
	}
	for i, v := range f.stack {
		if v == old {
			f.stack[i] = repl
		}
	}
}

// StoreArray executes an array store. Arrays are copy-on-write, so a store
// into a known array replaces it in the frame; old and updated report the
// replacement for holders outside the frame. updated is nil when the array
// was not replaced.
func (f *Frame) StoreArray(insn bytecode.Insn, interp Interpreter) (old, updated value.Value, err error) {
	old, updated, err = f.storeArray(insn, interp)
	return old, updated, wrapInsn(insn, err)
}

func (f *Frame) storeArray(insn bytecode.Insn, interp Interpreter) (value.Value, value.Value, error) {
	vals, err := f.PopN(3)
	if err != nil {
		return nil, nil, err
	}
	updated, err := interp.TernaryOperation(insn, vals[0], vals[1], vals[2])
	if err != nil {
		return nil, nil, err
	}
	if updated == nil || updated == vals[0] {
		return vals[0], nil, nil
	}
	f.Replace(vals[0], updated)
	return vals[0], updated, nil
}

// String renders locals and stack for tracing.
func (f *Frame) String() string {
	var sb strings.Builder
	sb.WriteString("locals=[")
	for i, v := range f.locals {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteString("] stack=[")
	for i, v := range f.stack {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteString("]")
	return sb.String()
}

// ---------------------------------------------------------------------------
// Execute
// ---------------------------------------------------------------------------

// Execute performs the stack bookkeeping for insn, delegating value
// computation to interp. Control transfer is the caller's concern: jumps,
// switches and returns only consume their operands here.
func (f *Frame) Execute(insn bytecode.Insn, interp Interpreter) error {
	return wrapInsn(insn, f.execute(insn, interp))
}

func (f *Frame) execute(insn bytecode.Insn, interp Interpreter) error {
	op := insn.Op

	switch {
	// ============ No-ops ============
	case op == bytecode.OpNop, op == bytecode.OpLabel, op == bytecode.OpGoto, op == bytecode.OpRet:
		return nil

	// ============ Constants ============
	case op >= bytecode.OpAconstNull && op <= bytecode.OpLdc,
		op == bytecode.OpJsr, op == bytecode.OpGetstatic, op == bytecode.OpNew:
		v, err := interp.NewOperation(insn)
		if err != nil {
			return err
		}
		return f.Push(v)

	// ============ Loads ============
	case op >= bytecode.OpIload && op <= bytecode.OpAload:
		local, err := f.Local(insn.Var)
		if err != nil {
			return err
		}
		v, err := interp.CopyOperation(insn, local)
		if err != nil {
			return err
		}
		return f.Push(v)

	case op >= bytecode.OpIaload && op <= bytecode.OpSaload:
		return f.binaryPush(insn, interp)

	// ============ Stores ============
	case op >= bytecode.OpIstore && op <= bytecode.OpAstore:
		top, err := f.Pop()
		if err != nil {
			return err
		}
		v, err := interp.CopyOperation(insn, top)
		if err != nil {
			return err
		}
		return f.SetLocal(insn.Var, v)

	case op >= bytecode.OpIastore && op <= bytecode.OpSastore:
		_, _, err := f.storeArray(insn, interp)
		return err

	// ============ Stack manipulation ============
	case op >= bytecode.OpPop && op <= bytecode.OpSwap:
		return f.executeStackOp(insn, interp)

	// ============ Arithmetic ============
	case op >= bytecode.OpIadd && op <= bytecode.OpDrem,
		op >= bytecode.OpIshl && op <= bytecode.OpLxor,
		op >= bytecode.OpLcmp && op <= bytecode.OpDcmpg:
		return f.binaryPush(insn, interp)

	case op >= bytecode.OpIneg && op <= bytecode.OpDneg,
		op >= bytecode.OpI2l && op <= bytecode.OpI2s:
		return f.unaryPush(insn, interp)

	case op == bytecode.OpIinc:
		local, err := f.Local(insn.Var)
		if err != nil {
			return err
		}
		v, err := interp.UnaryOperation(insn, local)
		if err != nil {
			return err
		}
		return f.SetLocal(insn.Var, v)

	// ============ Control flow ============
	case op >= bytecode.OpIfeq && op <= bytecode.OpIfle,
		op == bytecode.OpIfnull, op == bytecode.OpIfnonnull,
		op == bytecode.OpTableswitch, op == bytecode.OpLookupswitch,
		op == bytecode.OpPutstatic, op == bytecode.OpAthrow,
		op == bytecode.OpMonitorenter, op == bytecode.OpMonitorexit:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		_, err = interp.UnaryOperation(insn, v)
		return err

	case op >= bytecode.OpIfIcmpeq && op <= bytecode.OpIfAcmpne, op == bytecode.OpPutfield:
		vals, err := f.PopN(2)
		if err != nil {
			return err
		}
		_, err = interp.BinaryOperation(insn, vals[0], vals[1])
		return err

	case op >= bytecode.OpIreturn && op <= bytecode.OpAreturn:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		if _, err := interp.UnaryOperation(insn, v); err != nil {
			return err
		}
		return interp.ReturnOperation(insn, v, f.returnType)

	case op == bytecode.OpReturn:
		if f.returnType.Sort() != bytecode.SortVoid {
			return fmt.Errorf("%w: void return from method returning %s", ErrTypeMismatch, f.returnType)
		}
		return nil

	// ============ Fields and objects ============
	case op == bytecode.OpGetfield, op == bytecode.OpNewarray, op == bytecode.OpAnewarray,
		op == bytecode.OpArraylength, op == bytecode.OpCheckcast, op == bytecode.OpInstanceof:
		return f.unaryPush(insn, interp)

	// ============ Invocation ============
	case op.IsInvoke():
		return f.executeInvoke(insn, interp)

	case op == bytecode.OpMultianewarray:
		dims, err := f.PopN(insn.Dims)
		if err != nil {
			return err
		}
		v, err := interp.NaryOperation(insn, dims)
		if err != nil {
			return err
		}
		return f.Push(v)
	}

	return fmt.Errorf("%w: opcode 0x%02X", ErrUnsupported, byte(op))
}

func (f *Frame) unaryPush(insn bytecode.Insn, interp Interpreter) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	res, err := interp.UnaryOperation(insn, v)
	if err != nil {
		return err
	}
	return f.Push(res)
}

func (f *Frame) binaryPush(insn bytecode.Insn, interp Interpreter) error {
	vals, err := f.PopN(2)
	if err != nil {
		return err
	}
	res, err := interp.BinaryOperation(insn, vals[0], vals[1])
	if err != nil {
		return err
	}
	return f.Push(res)
}

// executeInvoke pops receiver and arguments, pushing the result for
// non-void descriptors.
func (f *Frame) executeInvoke(insn bytecode.Insn, interp Interpreter) error {
	n := bytecode.ArgumentCount(insn.Desc)
	if n < 0 {
		return fmt.Errorf("malformed method descriptor %q", insn.Desc)
	}
	if insn.Op != bytecode.OpInvokestatic && insn.Op != bytecode.OpInvokedynamic {
		n++
	}
	vals, err := f.PopN(n)
	if err != nil {
		return err
	}
	res, err := interp.NaryOperation(insn, vals)
	if err != nil {
		return err
	}
	if bytecode.ReturnType(insn.Desc).Sort() == bytecode.SortVoid {
		return nil
	}
	if res == nil {
		res = value.FromType(bytecode.ReturnType(insn.Desc))
	}
	return f.Push(res)
}

// executeStackOp implements pop/dup/swap variants by value size, as the
// category-1/category-2 rules of the instruction set require.
func (f *Frame) executeStackOp(insn bytecode.Insn, interp Interpreter) error {
	pop := func() (value.Value, error) { return f.Pop() }
	cp := func(v value.Value) (value.Value, error) { return interp.CopyOperation(insn, v) }
	illegal := fmt.Errorf("%w: illegal use of %s", ErrTypeMismatch, insn.Op)

	switch insn.Op {
	case bytecode.OpPop:
		v, err := pop()
		if err != nil {
			return err
		}
		if v.Size() == 2 {
			return illegal
		}
		return nil

	case bytecode.OpPop2:
		v, err := pop()
		if err != nil {
			return err
		}
		if v.Size() == 1 {
			v2, err := pop()
			if err != nil {
				return err
			}
			if v2.Size() != 1 {
				return illegal
			}
		}
		return nil

	case bytecode.OpDup:
		v, err := pop()
		if err != nil {
			return err
		}
		if v.Size() != 1 {
			return illegal
		}
		c, err := cp(v)
		if err != nil {
			return err
		}
		return f.pushAll(v, c)

	case bytecode.OpDupX1:
		v1, v2, err := f.pop2Narrow(illegal)
		if err != nil {
			return err
		}
		c, err := cp(v1)
		if err != nil {
			return err
		}
		return f.pushAll(c, v2, v1)

	case bytecode.OpDupX2:
		v1, err := pop()
		if err != nil {
			return err
		}
		if v1.Size() != 1 {
			return illegal
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		c, err := cp(v1)
		if err != nil {
			return err
		}
		if v2.Size() == 2 {
			return f.pushAll(c, v2, v1)
		}
		v3, err := pop()
		if err != nil {
			return err
		}
		if v3.Size() != 1 {
			return illegal
		}
		return f.pushAll(c, v3, v2, v1)

	case bytecode.OpDup2:
		v1, err := pop()
		if err != nil {
			return err
		}
		c1, err := cp(v1)
		if err != nil {
			return err
		}
		if v1.Size() == 2 {
			return f.pushAll(v1, c1)
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 {
			return illegal
		}
		c2, err := cp(v2)
		if err != nil {
			return err
		}
		return f.pushAll(v2, v1, c2, c1)

	case bytecode.OpDup2X1:
		v1, err := pop()
		if err != nil {
			return err
		}
		c1, err := cp(v1)
		if err != nil {
			return err
		}
		if v1.Size() == 2 {
			v2, err := pop()
			if err != nil {
				return err
			}
			if v2.Size() != 1 {
				return illegal
			}
			return f.pushAll(c1, v2, v1)
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		v3, err := pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 || v3.Size() != 1 {
			return illegal
		}
		c2, err := cp(v2)
		if err != nil {
			return err
		}
		return f.pushAll(c2, c1, v3, v2, v1)

	case bytecode.OpDup2X2:
		return f.dup2x2(cp, illegal)

	case bytecode.OpSwap:
		v1, v2, err := f.pop2Narrow(illegal)
		if err != nil {
			return err
		}
		c1, err := cp(v1)
		if err != nil {
			return err
		}
		c2, err := cp(v2)
		if err != nil {
			return err
		}
		return f.pushAll(c1, c2)
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, insn.Op)
}

// pop2Narrow pops two category-1 values, top first.
func (f *Frame) pop2Narrow(illegal error) (value.Value, value.Value, error) {
	v1, err := f.Pop()
	if err != nil {
		return nil, nil, err
	}
	v2, err := f.Pop()
	if err != nil {
		return nil, nil, err
	}
	if v1.Size() != 1 || v2.Size() != 1 {
		return nil, nil, illegal
	}
	return v1, v2, nil
}

func (f *Frame) dup2x2(cp func(value.Value) (value.Value, error), illegal error) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	c1, err := cp(v1)
	if err != nil {
		return err
	}
	if v1.Size() == 2 {
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v2.Size() == 2 {
			// Form 4: ..., v2, v1 -> ..., v1, v2, v1
			return f.pushAll(c1, v2, v1)
		}
		v3, err := f.Pop()
		if err != nil {
			return err
		}
		if v3.Size() != 1 {
			return illegal
		}
		// Form 2: ..., v3, v2, v1 -> ..., v1, v3, v2, v1
		return f.pushAll(c1, v3, v2, v1)
	}

	v2, err := f.Pop()
	if err != nil {
		return err
	}
	if v2.Size() != 1 {
		return illegal
	}
	c2, err := cp(v2)
	if err != nil {
		return err
	}
	v3, err := f.Pop()
	if err != nil {
		return err
	}
	if v3.Size() == 2 {
		// Form 3: ..., v3, v2, v1 -> ..., v2, v1, v3, v2, v1
		return f.pushAll(c2, c1, v3, v2, v1)
	}
	v4, err := f.Pop()
	if err != nil {
		return err
	}
	if v4.Size() != 1 {
		return illegal
	}
	// Form 1: ..., v4, v3, v2, v1 -> ..., v2, v1, v4, v3, v2, v1
	return f.pushAll(c2, c1, v4, v3, v2, v1)
}

func (f *Frame) pushAll(vs ...value.Value) error {
	for _, v := range vs {
		if err := f.Push(v); err != nil {
			return err
		}
	}
	return nil
}
