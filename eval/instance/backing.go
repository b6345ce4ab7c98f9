package instance

import (
	"fmt"
	"strings"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

var (
	builderType = bytecode.StringBuilderType
	randomType  = bytecode.ObjectTypeOf("java/util/Random")
)

// stringBacking is an immutable string built by a constructor or factory.
type stringBacking struct{ s string }

func (b *stringBacking) Snapshot() (value.Value, bool) { return value.NewString(b.s), true }
func (b *stringBacking) Immutable()                     {}

// boxBacking is a boxed primitive.
type boxBacking struct {
	typ bytecode.Type
	v   value.Value
}

func (b *boxBacking) Snapshot() (value.Value, bool) { return value.NewBoxed(b.typ, b.v), true }
func (b *boxBacking) Immutable()                     {}

var (
	_ value.Immutable = (*stringBacking)(nil)
	_ value.Immutable = (*boxBacking)(nil)
)

// builder is a mutable sequence of UTF-16 code units.
type builder struct{ units []uint16 }

func (b *builder) Snapshot() (value.Value, bool) { return nil, false }

func (b *builder) String() string { return value.FromUTF16(b.units) }

func (b *builder) append(s string) { b.units = append(b.units, value.ToUTF16(s)...) }

func (b *builder) checkIndex(i int) error {
	if i < 0 || i >= len(b.units) {
		return fmt.Errorf("%w: index %d, length %d", ErrIllegalArgument, i, len(b.units))
	}
	return nil
}

func (b *builder) insert(at int, s string) error {
	if at < 0 || at > len(b.units) {
		return fmt.Errorf("%w: offset %d, length %d", ErrIllegalArgument, at, len(b.units))
	}
	ins := value.ToUTF16(s)
	out := make([]uint16, 0, len(b.units)+len(ins))
	out = append(out, b.units[:at]...)
	out = append(out, ins...)
	b.units = append(out, b.units[at:]...)
	return nil
}

// delete removes [start, end), clamping end to the length.
func (b *builder) delete(start, end int) error {
	if end > len(b.units) {
		end = len(b.units)
	}
	if start < 0 || start > end {
		return fmt.Errorf("%w: start %d, end %d, length %d", ErrIllegalArgument, start, end, len(b.units))
	}
	b.units = append(b.units[:start], b.units[end:]...)
	return nil
}

// reverse reverses the code units, keeping surrogate pairs in order.
func (b *builder) reverse() {
	u := b.units
	for i, j := 0, len(u)-1; i < j; i, j = i+1, j-1 {
		u[i], u[j] = u[j], u[i]
	}
	for i := 0; i+1 < len(u); i++ {
		if isLowSurrogate(u[i]) && isHighSurrogate(u[i+1]) {
			u[i], u[i+1] = u[i+1], u[i]
			i++
		}
	}
}

func isHighSurrogate(c uint16) bool { return c >= 0xD800 && c <= 0xDBFF }
func isLowSurrogate(c uint16) bool  { return c >= 0xDC00 && c <= 0xDFFF }

// list is a growable list of values.
type list struct{ elems []value.Value }

func (l *list) Snapshot() (value.Value, bool) { return nil, false }

func (l *list) String() string {
	parts := make([]string, len(l.elems))
	for i, e := range l.elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *list) checkIndex(i, limit int) error {
	if i < 0 || i >= limit {
		return fmt.Errorf("%w: index %d, size %d", ErrIllegalArgument, i, len(l.elems))
	}
	return nil
}

// indexOf finds v using equals semantics. It reports false when some
// comparison cannot be decided.
func (l *list) indexOf(v value.Value, last bool) (int, bool) {
	found := -1
	for i, e := range l.elems {
		eq, ok := value.Equal(v, e)
		if !ok {
			return 0, false
		}
		if eq {
			found = i
			if !last {
				break
			}
		}
	}
	return found, true
}
