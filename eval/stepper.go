package eval

import (
	"errors"
	"fmt"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/interp"
	"github.com/chazu/bceval/pkg/value"
)

var (
	// errNoNext signals that control left the instruction list.
	errNoNext = errors.New("no next instruction")

	errExhausted  = errors.New("step budget exhausted")
	errVoidReturn = errors.New("returned without a value")
)

// execState is the executing frame: the operand and local state plus the
// program counter over an instruction list. Setting done stops stepping,
// with ret holding the returned value.
type execState struct {
	frame  *interp.Frame
	insns  *bytecode.InsnList
	pc     int
	static bool

	done bool
	ret  value.Value
}

// target returns the index of a jump target. A label outside the list is
// an exit from it.
func (st *execState) target(label string) (int, error) {
	idx := st.insns.LabelIndex(label)
	if idx < 0 {
		return 0, errNoNext
	}
	return idx, nil
}

// run steps st until it returns, leaves its instruction list or exhausts
// the budget.
func (ev *Evaluator) run(budget *Budget, st *execState) error {
	for !st.done {
		if st.pc < 0 {
			return errNoNext
		}
		insn := st.insns.At(st.pc)
		if insn.IsLabel() {
			st.pc = st.insns.Next(st.pc)
			continue
		}
		if !budget.take() {
			return errExhausted
		}
		if ev.opts.Trace && log.AllowLevel(debugLevel) {
			log.Debugf("%s: %4d %-48s %s", ev.session, st.pc, bytecode.FormatInsn(insn), st.frame)
		}

		next, err := step(ev, budget, st, insn)
		if err != nil {
			if errors.Is(err, errNoNext) {
				return err
			}
			var ie *interp.InsnError
			if errors.As(err, &ie) {
				return err
			}
			return &interp.InsnError{Insn: insn, Err: err}
		}
		st.pc = next
	}
	return nil
}

// step evaluates one instruction and returns the index of the next one.
func step(ev *Evaluator, budget *Budget, st *execState, insn bytecode.Insn) (int, error) {
	f := st.frame
	op := insn.Op
	next := st.insns.Next(st.pc)

	switch {
	// ============ Jumps ============
	case op == bytecode.OpGoto:
		return st.target(insn.Label)

	case op >= bytecode.OpIfeq && op <= bytecode.OpIfle:
		v, err := popKnownInt(f)
		if err != nil {
			return 0, err
		}
		if compareInt(int(op-bytecode.OpIfeq), v, 0) {
			return st.target(insn.Label)
		}
		return next, nil

	case op >= bytecode.OpIfIcmpeq && op <= bytecode.OpIfIcmple:
		v2, err := popKnownInt(f)
		if err != nil {
			return 0, err
		}
		v1, err := popKnownInt(f)
		if err != nil {
			return 0, err
		}
		if compareInt(int(op-bytecode.OpIfIcmpeq), v1, v2.Value()) {
			return st.target(insn.Label)
		}
		return next, nil

	case op == bytecode.OpIfAcmpeq, op == bytecode.OpIfAcmpne:
		vals, err := f.PopN(2)
		if err != nil {
			return 0, err
		}
		same, ok := sameReference(vals[0], vals[1])
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare %s and %s", interp.ErrUnknownValue, vals[0], vals[1])
		}
		if same == (op == bytecode.OpIfAcmpeq) {
			return st.target(insn.Label)
		}
		return next, nil

	case op == bytecode.OpIfnull, op == bytecode.OpIfnonnull:
		v, err := f.Pop()
		if err != nil {
			return 0, err
		}
		n := value.NullnessOf(v)
		if n == value.MaybeNull {
			return 0, fmt.Errorf("%w: nullness of %s", interp.ErrUnknownValue, v)
		}
		if (n == value.IsNull) == (op == bytecode.OpIfnull) {
			return st.target(insn.Label)
		}
		return next, nil

	// ============ Switches ============
	case op == bytecode.OpTableswitch:
		v, err := popKnownInt(f)
		if err != nil {
			return 0, err
		}
		k := v.Value()
		idx := int64(k) - int64(insn.Min)
		if k < insn.Min || k > insn.Max || idx >= int64(len(insn.Labels)) {
			return st.target(insn.Default)
		}
		return st.target(insn.Labels[idx])

	case op == bytecode.OpLookupswitch:
		v, err := popKnownInt(f)
		if err != nil {
			return 0, err
		}
		for i, key := range insn.Keys {
			if key == v.Value() && i < len(insn.Labels) {
				return st.target(insn.Labels[i])
			}
		}
		return st.target(insn.Default)

	// ============ Returns ============
	case op >= bytecode.OpIreturn && op <= bytecode.OpAreturn:
		v, err := f.Peek()
		if err != nil {
			return 0, err
		}
		if rt := f.ReturnType(); rt.Sort() != bytecode.SortVoid {
			if err := ev.basic.ReturnOperation(insn, v, rt); err != nil {
				return 0, err
			}
		}
		st.ret = v
		st.done = true
		return next, nil

	case op == bytecode.OpReturn:
		return 0, errVoidReturn

	case op == bytecode.OpAthrow, op == bytecode.OpJsr, op == bytecode.OpRet, op == bytecode.OpInvokedynamic:
		return 0, fmt.Errorf("%w: %s", interp.ErrUnsupported, op)

	// ============ Arrays ============
	case op >= bytecode.OpIastore && op <= bytecode.OpSastore:
		old, updated, err := f.StoreArray(insn, ev.basic)
		if err != nil {
			return 0, err
		}
		if updated != nil {
			ev.moveArray(old, updated)
		}
		return next, nil

	// ============ Objects and fields ============
	case op == bytecode.OpNew:
		if !ev.factory.IsSupportedType(insn.Desc) {
			return 0, fmt.Errorf("%w: allocation of %s", interp.ErrUnsupported, insn.Desc)
		}
		return next, f.Push(value.NewInstanced(bytecode.ObjectTypeOf(insn.Desc)))

	case op == bytecode.OpGetfield:
		recv, err := f.Peek()
		if err != nil {
			return 0, err
		}
		if v, ok := ev.fields.Instance(recv).Get(insn.Name, insn.Desc); ok {
			_, _ = f.Pop()
			return next, f.Push(v)
		}
		return next, f.Execute(insn, ev.basic)

	case op == bytecode.OpPutfield:
		if f.StackSize() < 2 {
			return 0, interp.ErrStackUnderflow
		}
		recv, v := f.Stack(f.StackSize()-2), f.Stack(f.StackSize()-1)
		if err := f.Execute(insn, ev.basic); err != nil {
			return 0, err
		}
		ev.fields.Instance(recv).Set(insn.Name, insn.Desc, v)
		return next, nil

	case op == bytecode.OpGetstatic:
		if v, ok := ev.fields.Static(insn.Owner).Get(insn.Name, insn.Desc); ok {
			return next, f.Push(v)
		}
		if v, ok := ev.constantField(insn); ok {
			return next, f.Push(v)
		}
		return next, f.Execute(insn, ev.basic)

	case op == bytecode.OpPutstatic:
		v, err := f.Peek()
		if err != nil {
			return 0, err
		}
		if err := f.Execute(insn, ev.basic); err != nil {
			return 0, err
		}
		ev.fields.Static(insn.Owner).Set(insn.Name, insn.Desc, v)
		return next, nil

	// ============ Calls ============
	case op == bytecode.OpInvokespecial:
		return next, ev.invokeSpecial(budget, f, insn)

	case op == bytecode.OpInvokevirtual, op == bytecode.OpInvokeinterface:
		return next, ev.invokeVirtual(budget, f, insn)

	case op == bytecode.OpInvokestatic:
		return next, ev.invokeStatic(budget, f, insn)
	}

	return next, f.Execute(insn, ev.basic)
}

func popKnownInt(f *interp.Frame) (*value.Int, error) {
	v, err := f.Pop()
	if err != nil {
		return nil, err
	}
	i, ok := v.(*value.Int)
	if !ok {
		return nil, fmt.Errorf("%w: expected int, got %s", interp.ErrTypeMismatch, v.Kind())
	}
	if !i.Known() {
		return nil, fmt.Errorf("%w: %s", interp.ErrUnknownValue, i)
	}
	return i, nil
}

// compareInt applies the cond-th comparison of the if<cond> family:
// eq, ne, lt, ge, gt, le.
func compareInt(cond int, v *value.Int, c int32) bool {
	switch cond {
	case 0:
		return v.IsEqualTo(c)
	case 1:
		return v.IsNotEqualTo(c)
	case 2:
		return v.IsLessThan(c)
	case 3:
		return v.IsGreaterThanOrEqual(c)
	case 4:
		return v.IsGreaterThan(c)
	default:
		return v.IsLessThanOrEqual(c)
	}
}

// sameReference decides reference equality where it is statically known:
// by identity, by nullness, or for two distinct allocations. Values from
// factories or lookups may be shared objects, so they are never known to
// differ.
func sameReference(a, b value.Value) (same, ok bool) {
	if a == b {
		return true, true
	}
	na, nb := value.NullnessOf(a), value.NullnessOf(b)
	switch {
	case na == value.IsNull && nb == value.IsNull:
		return true, true
	case na == value.IsNull && nb == value.NotNull, na == value.NotNull && nb == value.IsNull:
		return false, true
	}
	ia, okA := a.(*value.Instanced)
	ib, okB := b.(*value.Instanced)
	if okA && okB && ia.Fresh() && ib.Fresh() {
		return false, true
	}
	return false, false
}

// constantField returns the initial value of a static final constant
// declared by a class in the lookup.
func (ev *Evaluator) constantField(insn bytecode.Insn) (value.Value, bool) {
	class, ok := ev.lookup.FindClass(insn.Owner, ev.opts.EvaluateInternals)
	if !ok {
		return nil, false
	}
	field, ok := class.FindField(insn.Name, insn.Desc)
	if !ok || field.Value == nil || !field.Access.IsStatic() {
		return nil, false
	}
	return value.FromConstant(*field.Value)
}

// ---------------------------------------------------------------------------
// Call resolution
// ---------------------------------------------------------------------------

func popCall(f *interp.Frame, insn bytecode.Insn, withReceiver bool) ([]value.Value, error) {
	n := bytecode.ArgumentCount(insn.Desc)
	if n < 0 {
		return nil, fmt.Errorf("malformed method descriptor %q", insn.Desc)
	}
	if withReceiver {
		n++
	}
	return f.PopN(n)
}

// pushResult pushes a call result unless the descriptor is void.
func pushResult(f *interp.Frame, insn bytecode.Insn, v value.Value) error {
	ret := bytecode.ReturnType(insn.Desc)
	if ret.Sort() == bytecode.SortVoid {
		return nil
	}
	if v == nil {
		v = value.FromType(ret)
	}
	return f.Push(v)
}

// fallback hands a call to the base interpreter, which unmaps instanced
// values and consults its lookup tables. A call the tables cannot resolve
// may mutate what it was passed, so mutable arguments escape. Unresolved
// calls into classes of the lookup may also write fields, so the field
// caches are dropped.
func (ev *Evaluator) fallback(f *interp.Frame, insn bytecode.Insn, vals []value.Value) error {
	v, resolved, err := ev.basic.Call(insn, vals)
	if err != nil {
		return err
	}
	if !resolved {
		for _, a := range vals {
			ev.escape(f, a)
		}
		if _, ok := ev.lookup.FindClass(insn.Owner, ev.opts.EvaluateInternals); ok {
			log.Debugf("%s: dropping field caches after %s", ev.session, bytecode.FormatInsn(insn))
			ev.fields.Reset()
		}
	}
	return pushResult(f, insn, v)
}

// escape forgets the mutable state of v.
func (ev *Evaluator) escape(f *interp.Frame, v value.Value) {
	switch x := v.(type) {
	case *value.Instanced:
		if x.Invalidate() {
			log.Debugf("%s: %s escaped", ev.session, x.Type().InternalName())
		}
	case *value.Array:
		if _, moved := ev.moved[x]; moved {
			return
		}
		if _, ok := x.Elements(); ok {
			forgotten := x.Forget()
			f.Replace(x, forgotten)
			ev.moveArray(x, forgotten)
		}
	}
}

// moveArray records that old was replaced by updated and updates the
// field caches holding it.
func (ev *Evaluator) moveArray(old, updated value.Value) {
	ev.fields.Replace(old, updated)
	ev.moved[old] = updated
}

// forward replaces arguments whose arrays were replaced during a call, in
// vals and in the caller's frame.
func (ev *Evaluator) forward(f *interp.Frame, vals []value.Value) {
	if len(ev.moved) == 0 {
		return
	}
	for i, v := range vals {
		if _, ok := v.(*value.Array); !ok {
			continue
		}
		cur := v
		for {
			next, ok := ev.moved[cur]
			if !ok {
				break
			}
			cur = next
		}
		if cur != v {
			f.Replace(v, cur)
			vals[i] = cur
		}
	}
}

// recurse evaluates a call target found by the lookup, sharing budget.
// Anything but a Yield reports false so the caller falls back.
func (ev *Evaluator) recurse(budget *Budget, insn bytecode.Insn, recv value.Value, args []value.Value) (value.Value, bool) {
	if bytecode.ReturnType(insn.Desc).Sort() == bytecode.SortVoid {
		return nil, false
	}
	if _, ok := ev.lookup.FindClass(insn.Owner, ev.opts.EvaluateInternals); !ok {
		return nil, false
	}
	if !budget.enter() {
		log.Debugf("%s: falling back for %s: nesting limit %d reached", ev.session, bytecode.FormatInsn(insn), budget.MaxDepth())
		return nil, false
	}
	res := ev.evaluate(budget, insn.Owner, insn.Name, insn.Desc, recv, args)
	budget.leave()

	switch res := res.(type) {
	case *Yield:
		return res.Value, true
	case *Failure:
		log.Debugf("%s: falling back for %s: %s", ev.session, bytecode.FormatInsn(insn), res.Error())
	}
	return nil, false
}

func (ev *Evaluator) invokeSpecial(budget *Budget, f *interp.Frame, insn bytecode.Insn) error {
	vals, err := popCall(f, insn, true)
	if err != nil {
		return err
	}

	if insn.Name == "<init>" {
		if inst, ok := vals[0].(*value.Instanced); ok && ev.hasMapper(insn) {
			if _, backed := inst.Backing(); !backed {
				b, err := ev.factory.Map(insn.Owner, insn.Name, insn.Desc, vals[1:])
				if err == nil {
					err = inst.Attach(b)
				}
				if err == nil {
					return nil
				}
				log.Debugf("%s: constructor %s unresolved: %s", ev.session, bytecode.FormatInsn(insn), err)
			}
		}
		return ev.fallback(f, insn, vals)
	}

	v, ok := ev.recurse(budget, insn, vals[0], vals[1:])
	ev.forward(f, vals)
	if ok {
		return f.Push(v)
	}
	return ev.fallback(f, insn, vals)
}

func (ev *Evaluator) invokeVirtual(budget *Budget, f *interp.Frame, insn bytecode.Insn) error {
	vals, err := popCall(f, insn, true)
	if err != nil {
		return err
	}

	if inst, ok := vals[0].(*value.Instanced); ok && ev.hasHandler(insn) {
		if _, backed := inst.Backing(); backed {
			v, err := ev.factory.Invoke(insn.Owner, insn.Name, insn.Desc, inst, vals[1:])
			if err == nil {
				return pushResult(f, insn, v)
			}
			// The handler may have mutated the backing before failing.
			log.Debugf("%s: handler %s failed: %s", ev.session, bytecode.FormatInsn(insn), err)
			inst.Invalidate()
		}
	}

	v, ok := ev.recurse(budget, insn, vals[0], vals[1:])
	ev.forward(f, vals)
	if ok {
		return f.Push(v)
	}
	return ev.fallback(f, insn, vals)
}

func (ev *Evaluator) invokeStatic(budget *Budget, f *interp.Frame, insn bytecode.Insn) error {
	vals, err := popCall(f, insn, false)
	if err != nil {
		return err
	}

	ret := bytecode.ReturnType(insn.Desc)
	if ret.Sort() != bytecode.SortVoid && ev.hasMapper(insn) {
		b, err := ev.factory.Map(insn.Owner, insn.Name, insn.Desc, vals)
		if err == nil {
			return f.Push(value.NewBacked(ret, b))
		}
		log.Debugf("%s: factory %s unresolved: %s", ev.session, bytecode.FormatInsn(insn), err)
	}

	v, ok := ev.recurse(budget, insn, nil, vals)
	ev.forward(f, vals)
	if ok {
		return f.Push(v)
	}
	return ev.fallback(f, insn, vals)
}
