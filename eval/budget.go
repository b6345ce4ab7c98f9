package eval

const (
	// DefaultMaxSteps bounds evaluation when no limit is configured.
	DefaultMaxSteps = 10_000

	// DefaultMaxDepth bounds nested evaluation of resolved calls.
	DefaultMaxDepth = 256
)

// Budget is the step allowance shared by a top-level evaluation and every
// call it resolves by recursive evaluation. Label pseudo-instructions are
// free; every other instruction takes one step. Nesting is bounded
// separately, since a recursive call spends no step before it descends.
//
// A Budget is not safe for concurrent use.
type Budget struct {
	limit     int
	remaining int
	depth     int
	maxDepth  int
}

// NewBudget returns a full budget of limit steps and DefaultMaxDepth.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultMaxSteps
	}
	return &Budget{limit: limit, remaining: limit, maxDepth: DefaultMaxDepth}
}

// Limit returns the configured allowance.
func (b *Budget) Limit() int { return b.limit }

// Remaining returns the steps not yet spent.
func (b *Budget) Remaining() int { return b.remaining }

// Spent returns the steps consumed since the last reset.
func (b *Budget) Spent() int { return b.limit - b.remaining }

// Depth returns the number of nested evaluations in progress.
func (b *Budget) Depth() int { return b.depth }

// MaxDepth returns the nesting limit.
func (b *Budget) MaxDepth() int { return b.maxDepth }

// SetMaxDepth changes the nesting limit. Values below one mean
// DefaultMaxDepth.
func (b *Budget) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	b.maxDepth = n
}

// Reset restores the full allowance.
func (b *Budget) Reset() { b.remaining = b.limit }

// take spends one step, reporting false once the budget is exhausted.
func (b *Budget) take() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// enter starts a nested evaluation, reporting false at the nesting limit.
// Every successful enter is paired with leave.
func (b *Budget) enter() bool {
	if b.depth >= b.maxDepth {
		return false
	}
	b.depth++
	return true
}

func (b *Budget) leave() { b.depth-- }
