package eval

import (
	"sync"

	"github.com/chazu/bceval/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// FeasibilityCache: memoized canEvaluate verdicts
// ---------------------------------------------------------------------------

// VerdictKey identifies one feasibility verdict. Revision is the lookup's
// revision when it implements Revisioned, so edits to the analyzed classes
// cannot yield stale verdicts. Internals records whether built-in classes
// were eligible when the verdict was computed.
type VerdictKey struct {
	Owner     string
	Name      string
	Desc      string
	Revision  uint64
	Internals bool
}

// FeasibilityCache memoizes method feasibility. It is safe for concurrent
// use; Evaluators share the process-wide instance unless configured
// otherwise.
type FeasibilityCache struct {
	mu       sync.RWMutex
	verdicts map[VerdictKey]bool
}

// NewFeasibilityCache returns an empty cache.
func NewFeasibilityCache() *FeasibilityCache {
	return &FeasibilityCache{verdicts: make(map[VerdictKey]bool)}
}

var globalFeasibility = NewFeasibilityCache()

// GlobalFeasibility returns the process-wide cache.
func GlobalFeasibility() *FeasibilityCache { return globalFeasibility }

// Get returns the cached verdict for key.
func (c *FeasibilityCache) Get(key VerdictKey) (verdict, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	verdict, ok = c.verdicts[key]
	return verdict, ok
}

// Put records a verdict.
func (c *FeasibilityCache) Put(key VerdictKey, verdict bool) {
	c.mu.Lock()
	c.verdicts[key] = verdict
	c.mu.Unlock()
}

// Len returns the number of cached verdicts.
func (c *FeasibilityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}

// Reset drops every verdict.
func (c *FeasibilityCache) Reset() {
	c.mu.Lock()
	c.verdicts = make(map[VerdictKey]bool)
	c.mu.Unlock()
}

// StoredVerdict is a persisted verdict together with the classes it
// depended on.
type StoredVerdict struct {
	Feasible bool

	// Deps maps each call owner the instruction walk looked up to its
	// content hash, or "" when the lookup could not find it.
	Deps map[string]string
}

// VerdictStore persists verdicts across processes. Verdicts are keyed by
// the declaring class's content hash rather than a revision, since
// revisions are only meaningful within one process.
type VerdictStore interface {
	LoadVerdict(classHash, name, desc string, internals bool) (v StoredVerdict, found bool, err error)
	SaveVerdict(classHash, name, desc string, internals bool, v StoredVerdict) error
}

// ---------------------------------------------------------------------------
// Instruction feasibility
// ---------------------------------------------------------------------------

// feasibleList reports whether every instruction in insns can be evaluated.
// When consulted is non-nil it collects the call owners looked up in the
// class lookup, with whether they were found.
func (ev *Evaluator) feasibleList(insns *bytecode.InsnList, static bool, consulted map[string]bool) bool {
	for i := 0; i < insns.Len(); i++ {
		if !ev.feasibleInsn(insns.At(i), static, consulted) {
			if log.AllowLevel(debugLevel) {
				log.Debugf("%s: unsupported instruction %s", ev.session, insns.At(i))
			}
			return false
		}
	}
	return true
}

// feasibleInsn reports whether step can evaluate insn.
func (ev *Evaluator) feasibleInsn(insn bytecode.Insn, static bool, consulted map[string]bool) bool {
	switch insn.Op {
	case bytecode.OpJsr, bytecode.OpRet, bytecode.OpInvokedynamic:
		return false

	case bytecode.OpAthrow:
		return false

	case bytecode.OpAload:
		// The receiver is not tracked as an instance.
		return static || insn.Var != 0

	case bytecode.OpLdc:
		if insn.Const == nil {
			return false
		}
		return insn.Const.Kind != bytecode.ConstHandle && insn.Const.Kind != bytecode.ConstDynamic

	case bytecode.OpNew:
		return ev.factory.IsSupportedType(insn.Desc)

	case bytecode.OpInvokespecial, bytecode.OpInvokevirtual, bytecode.OpInvokeinterface:
		if ev.hasHandler(insn) || ev.hasMapper(insn) {
			return true
		}
		if ev.findOwner(insn.Owner, consulted) {
			return true
		}
		return ev.basic.Virtual != nil && ev.basic.Virtual.HasVirtual(insn.Owner, insn.Name, insn.Desc)

	case bytecode.OpInvokestatic:
		if ev.hasMapper(insn) {
			return true
		}
		if ev.findOwner(insn.Owner, consulted) {
			return true
		}
		return ev.basic.Static != nil && ev.basic.Static.HasStatic(insn.Owner, insn.Name, insn.Desc)
	}
	return true
}

func (ev *Evaluator) findOwner(owner string, consulted map[string]bool) bool {
	_, ok := ev.lookup.FindClass(owner, ev.opts.EvaluateInternals)
	if consulted != nil {
		consulted[owner] = ok
	}
	return ok
}

func (ev *Evaluator) hasMapper(insn bytecode.Insn) bool {
	_, ok := ev.factory.Mapper(insn.Owner, insn.Name, insn.Desc)
	return ok
}

func (ev *Evaluator) hasHandler(insn bytecode.Insn) bool {
	_, ok := ev.factory.Handler(insn.Owner, insn.Name, insn.Desc)
	return ok
}
