// Package eval computes the exact value a method, or a contiguous block of
// instructions, would produce without running the containing program.
//
// An Evaluator steps one instruction at a time over an interp.Frame,
// resolving branches and switches from known operands, short-circuiting
// field reads through a FieldCacheManager, and resolving calls through the
// instance factory, recursive evaluation of methods found by the
// ClassLookup, or the base interpreter's lookup tables. Every nested
// evaluation spends from the same Budget, so a call tree is bounded as a
// whole. Problems are reported as *Failure results, never as panics.
package eval

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/bceval/eval/instance"
	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/interp"
	"github.com/chazu/bceval/pkg/value"
)

var log = commonlog.GetLogger("bceval.eval")

const debugLevel = commonlog.Debug

// ClassLookup resolves classes by internal name. When includeInternal is
// false, the runtime's own built-in classes are reported as not found.
type ClassLookup interface {
	FindClass(name string, includeInternal bool) (*bytecode.Class, bool)
}

// Revisioned is implemented by lookups whose contents can change. The
// revision must change whenever any class does.
type Revisioned interface {
	Revision() uint64
}

// ContentHasher is implemented by lookups that can fingerprint a class.
// It enables persistent verdicts through a VerdictStore.
type ContentHasher interface {
	ContentHash(name string) (string, bool)
}

// Options configure an Evaluator.
type Options struct {
	// MaxSteps is the step budget. Zero means DefaultMaxSteps.
	MaxSteps int

	// MaxDepth bounds nested evaluation of resolved calls. Calls beyond it
	// fall back as if unresolved. Zero means DefaultMaxDepth.
	MaxDepth int

	// EvaluateInternals makes the runtime's built-in classes eligible for
	// recursive evaluation, not only the analyzed code.
	EvaluateInternals bool

	// Trace logs every instruction with the frame state at debug level.
	Trace bool

	// Fields is the field cache to use. Nil gives the evaluator its own.
	Fields *FieldCacheManager

	// Feasibility is the verdict cache to use. Nil means GlobalFeasibility.
	Feasibility *FeasibilityCache

	// Verdicts optionally persists verdicts across processes.
	Verdicts VerdictStore

	// Factory is the instance factory. Nil means instance.Default.
	Factory *instance.Factory

	// Interpreter is the base interpreter. Nil means interp.NewBasic.
	Interpreter *interp.Basic
}

// Evaluator evaluates methods and blocks against one ClassLookup. It owns a
// single step budget and is not safe for concurrent use; concurrent work
// needs distinct Evaluators, which may share the factory and caches.
type Evaluator struct {
	lookup      ClassLookup
	opts        Options
	budget      *Budget
	fields      *FieldCacheManager
	feasibility *FeasibilityCache
	factory     *instance.Factory
	basic       *interp.Basic
	session     string

	// moved maps each array replaced by a copy-on-write store to its
	// replacement, so callers see stores made by callees.
	moved map[value.Value]value.Value
}

// New returns an Evaluator resolving classes through lookup.
func New(lookup ClassLookup, opts Options) *Evaluator {
	ev := &Evaluator{
		lookup:      lookup,
		opts:        opts,
		budget:      NewBudget(opts.MaxSteps),
		fields:      opts.Fields,
		feasibility: opts.Feasibility,
		factory:     opts.Factory,
		basic:       opts.Interpreter,
		session:     uuid.NewString(),
		moved:       make(map[value.Value]value.Value),
	}
	ev.budget.SetMaxDepth(opts.MaxDepth)
	if ev.fields == nil {
		ev.fields = NewFieldCacheManager()
	}
	if ev.feasibility == nil {
		ev.feasibility = GlobalFeasibility()
	}
	if ev.factory == nil {
		ev.factory = instance.Default()
	}
	if ev.basic == nil {
		ev.basic = interp.NewBasic()
	}
	return ev
}

// Budget returns the evaluator's step budget. It is not reset between
// evaluations; call Reset to restore it.
func (ev *Evaluator) Budget() *Budget { return ev.budget }

// Fields returns the field cache manager.
func (ev *Evaluator) Fields() *FieldCacheManager { return ev.fields }

// Session returns the identifier tagging this evaluator's log lines.
func (ev *Evaluator) Session() string { return ev.session }

// ---------------------------------------------------------------------------
// Feasibility
// ---------------------------------------------------------------------------

func (ev *Evaluator) verdictKey(owner, name, desc string) VerdictKey {
	key := VerdictKey{Owner: owner, Name: name, Desc: desc, Internals: ev.opts.EvaluateInternals}
	if r, ok := ev.lookup.(Revisioned); ok {
		key.Revision = r.Revision()
	}
	return key
}

// CanEvaluate reports whether the method owner.name+desc can be evaluated.
// Verdicts are memoized, so only the first call for a key resolves the
// class and walks its instructions. Missing classes and methods are
// infeasible.
func (ev *Evaluator) CanEvaluate(owner, name, desc string) bool {
	key := ev.verdictKey(owner, name, desc)
	if verdict, ok := ev.feasibility.Get(key); ok {
		return verdict
	}

	class, ok := ev.lookup.FindClass(owner, ev.opts.EvaluateInternals)
	if !ok {
		ev.feasibility.Put(key, false)
		return false
	}
	method, ok := class.FindMethod(name, desc)
	if !ok {
		ev.feasibility.Put(key, false)
		return false
	}
	return ev.feasible(key, method)
}

// CanEvaluateMethod reports whether a resolved method of owner can be
// evaluated.
func (ev *Evaluator) CanEvaluateMethod(owner string, method *bytecode.Method) bool {
	key := ev.verdictKey(owner, method.Name, method.Desc)
	if verdict, ok := ev.feasibility.Get(key); ok {
		return verdict
	}
	return ev.feasible(key, method)
}

// CanEvaluateBlock reports whether every instruction of a block can be
// evaluated starting from origin. Block verdicts are not cached.
func (ev *Evaluator) CanEvaluateBlock(insns *bytecode.InsnList, origin *interp.Frame, access bytecode.AccessFlags) bool {
	if insns == nil || origin == nil {
		return false
	}
	return ev.feasibleList(insns, access.IsStatic(), nil)
}

// feasible computes and records the verdict for a method known to exist.
// A persisted verdict is reused only while every class its instruction
// walk looked up is unchanged, present or absent alike.
func (ev *Evaluator) feasible(key VerdictKey, method *bytecode.Method) bool {
	hash, persisted := ev.classHash(key.Owner)
	if persisted {
		stored, found, err := ev.opts.Verdicts.LoadVerdict(hash, key.Name, key.Desc, key.Internals)
		switch {
		case err != nil:
			log.Warningf("%s: loading verdict for %s.%s%s: %s", ev.session, key.Owner, key.Name, key.Desc, err)
		case found && ev.dependenciesMatch(stored.Deps):
			ev.feasibility.Put(key, stored.Feasible)
			return stored.Feasible
		}
	}

	var consulted map[string]bool
	if persisted {
		consulted = make(map[string]bool)
	}
	verdict := method.Instructions != nil && ev.feasibleList(method.Instructions, method.IsStatic(), consulted)
	ev.feasibility.Put(key, verdict)

	if persisted {
		stored := StoredVerdict{Feasible: verdict, Deps: make(map[string]string, len(consulted))}
		for owner := range consulted {
			stored.Deps[owner] = ev.dependencyState(owner)
		}
		if err := ev.opts.Verdicts.SaveVerdict(hash, key.Name, key.Desc, key.Internals, stored); err != nil {
			log.Warningf("%s: saving verdict for %s.%s%s: %s", ev.session, key.Owner, key.Name, key.Desc, err)
		}
	}
	return verdict
}

// dependencyState fingerprints a class a verdict depended on: its content
// hash, or "" when the lookup cannot find it.
func (ev *Evaluator) dependencyState(owner string) string {
	if _, ok := ev.lookup.FindClass(owner, ev.opts.EvaluateInternals); !ok {
		return ""
	}
	h, ok := ev.lookup.(ContentHasher)
	if !ok {
		return ""
	}
	hash, _ := h.ContentHash(owner)
	return hash
}

func (ev *Evaluator) dependenciesMatch(deps map[string]string) bool {
	for owner, state := range deps {
		if ev.dependencyState(owner) != state {
			return false
		}
	}
	return true
}

func (ev *Evaluator) classHash(owner string) (string, bool) {
	if ev.opts.Verdicts == nil {
		return "", false
	}
	h, ok := ev.lookup.(ContentHasher)
	if !ok {
		return "", false
	}
	return h.ContentHash(owner)
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// Evaluate computes the value returned by owner.name+desc for the given
// receiver, nil for static methods, and arguments.
func (ev *Evaluator) Evaluate(owner, name, desc string, receiver value.Value, args []value.Value) Result {
	clear(ev.moved)
	res := ev.evaluate(ev.budget, owner, name, desc, receiver, args)
	log.Infof("%s: evaluated %s.%s%s: %s", ev.session, owner, name, desc, res)
	return res
}

// EvaluateMethod is Evaluate for an already-resolved method.
func (ev *Evaluator) EvaluateMethod(class *bytecode.Class, method *bytecode.Method, receiver value.Value, args []value.Value) Result {
	clear(ev.moved)
	res := ev.evaluateMethod(ev.budget, class.Name, method, receiver, args)
	log.Infof("%s: evaluated %s.%s%s: %s", ev.session, class.Name, method.Name, method.Desc, res)
	return res
}

func (ev *Evaluator) evaluate(budget *Budget, owner, name, desc string, receiver value.Value, args []value.Value) Result {
	class, ok := ev.lookup.FindClass(owner, ev.opts.EvaluateInternals)
	if !ok {
		return failf(nil, "class %s not found", owner)
	}
	method, ok := class.FindMethod(name, desc)
	if !ok {
		return failf(nil, "method %s.%s%s not found", owner, name, desc)
	}
	return ev.evaluateMethod(budget, owner, method, receiver, args)
}

func (ev *Evaluator) evaluateMethod(budget *Budget, owner string, method *bytecode.Method, receiver value.Value, args []value.Value) Result {
	res := ev.runMethod(budget, owner, method, receiver, args)
	if log.AllowLevel(debugLevel) {
		log.Debugf("%s: %s.%s%s -> %s (%d/%d steps)", ev.session, owner, method.Name, method.Desc, res, budget.Spent(), budget.Limit())
	}
	return res
}

func (ev *Evaluator) runMethod(budget *Budget, owner string, method *bytecode.Method, receiver value.Value, args []value.Value) Result {
	if method.Instructions == nil {
		return failf(nil, "method %s.%s%s has no code", owner, method.Name, method.Desc)
	}
	if !ev.CanEvaluateMethod(owner, method) {
		return failf(nil, "method %s.%s%s is not supported for evaluation", owner, method.Name, method.Desc)
	}

	mt, err := method.Type()
	if err != nil {
		return failf(err, "method %s.%s%s has a malformed descriptor", owner, method.Name, method.Desc)
	}
	if mt.Return.Sort() == bytecode.SortVoid {
		return failf(nil, "method must yield a value")
	}
	if len(args) != len(mt.Args) {
		return failf(nil, "expected %d arguments, got %d", len(mt.Args), len(args))
	}
	for i, want := range mt.Args {
		if !argumentFits(want, args[i]) {
			return failf(nil, "argument %d: expected %s, got %s", i, want, args[i].Type())
		}
	}
	if !method.IsStatic() && (receiver == nil || !value.IsReference(receiver)) {
		return failf(nil, "instance method %s.%s%s needs a receiver", owner, method.Name, method.Desc)
	}

	maxLocals := max(method.MaxLocals, method.ArgumentLocals())
	frame := interp.NewFrame(maxLocals, max(method.MaxStack, 1))
	frame.SetReturn(mt.Return)
	slot := 0
	if !method.IsStatic() {
		_ = frame.SetLocal(0, receiver)
		slot = 1
	}
	for _, arg := range args {
		if err := frame.SetLocal(slot, arg); err != nil {
			return failf(err, "cannot store argument in local %d", slot)
		}
		slot += arg.Size()
	}

	st := &execState{frame: frame, insns: method.Instructions, pc: method.Instructions.First(), static: method.IsStatic()}
	err = ev.run(budget, st)
	switch {
	case err == nil:
		return &Yield{Value: yieldValue(st.ret)}
	case errors.Is(err, errNoNext):
		return failf(nil, "execution fell through the end of %s.%s%s", owner, method.Name, method.Desc)
	case errors.Is(err, errExhausted):
		return failf(nil, "method did not yield a value in %d steps", budget.Limit())
	}
	return insnFailure(err)
}

// EvaluateBlock runs insns starting from a copy of origin. Control leaving
// the block yields the top of the stack, so incomplete fragments can be
// evaluated; a return instruction yields its operand.
func (ev *Evaluator) EvaluateBlock(insns *bytecode.InsnList, origin *interp.Frame, access bytecode.AccessFlags) Result {
	if !ev.CanEvaluateBlock(insns, origin, access) {
		return failf(nil, "block is not supported for evaluation")
	}

	clear(ev.moved)
	st := &execState{frame: origin.Copy(), insns: insns, pc: insns.First(), static: access.IsStatic()}
	err := ev.run(ev.budget, st)
	switch {
	case err == nil:
		return &Yield{Value: yieldValue(st.ret)}
	case errors.Is(err, errNoNext):
		top, perr := st.frame.Peek()
		if perr != nil {
			return failf(nil, "block exited with an empty stack")
		}
		return &Yield{Value: yieldValue(top)}
	case errors.Is(err, errExhausted):
		return failf(nil, "block did not yield a value in %d steps", ev.budget.Limit())
	}
	return insnFailure(err)
}

// argumentFits reports whether v may be passed for a parameter of type t.
// Narrower int-family values widen to int.
func argumentFits(t bytecode.Type, v value.Value) bool {
	switch {
	case t.IsIntFamily():
		if v.Kind() != value.KindInt {
			return false
		}
		s := v.Type().Sort()
		return s == t.Sort() || s != bytecode.SortInt
	case t.Sort() == bytecode.SortLong:
		return v.Kind() == value.KindLong
	case t.Sort() == bytecode.SortFloat:
		return v.Kind() == value.KindFloat
	case t.Sort() == bytecode.SortDouble:
		return v.Kind() == value.KindDouble
	}
	return value.IsReference(v)
}

// yieldValue unmaps a constructed instance into its plain counterpart.
func yieldValue(v value.Value) value.Value {
	if inst, ok := v.(*value.Instanced); ok {
		if _, backed := inst.Backing(); backed {
			return value.Unmap(inst)
		}
	}
	return v
}

func insnFailure(err error) *Failure {
	var ie *interp.InsnError
	if errors.As(err, &ie) {
		return failf(ie.Err, "failed executing instruction %s", bytecode.FormatInsn(ie.Insn))
	}
	return failf(err, "evaluation failed")
}

// String describes the evaluator for logs.
func (ev *Evaluator) String() string {
	return fmt.Sprintf("evaluator %s (%d/%d steps left)", ev.session, ev.budget.Remaining(), ev.budget.Limit())
}
