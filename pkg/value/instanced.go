package value

import (
	"errors"
	"fmt"

	"github.com/chazu/bceval/pkg/bytecode"
)

// Backing is a real object attached to an Instanced value.
type Backing interface {
	// Snapshot returns the plain value mirroring the object's current state,
	// or false when the object has no plain counterpart.
	Snapshot() (Value, bool)
}

// Immutable is implemented by backings whose state is fixed at
// construction. Invalidate keeps them attached.
type Immutable interface {
	Backing
	Immutable()
}

var (
	// ErrAlreadyBacked is returned when attaching to a value that already
	// owns a backing object.
	ErrAlreadyBacked = errors.New("instanced value already has a backing object")

	// ErrInvalidated is returned when attaching to a value whose state
	// escaped to code that was not evaluated.
	ErrInvalidated = errors.New("instanced value was invalidated")
)

// Instanced is an object reference that may own a real backing object of an
// allow-listed library type. It starts unbacked after allocation and is
// attached to once, when its constructor resolves. A mutable backing is
// dropped by Invalidate once the object reaches code whose effects are not
// modelled.
type Instanced struct {
	typ     bytecode.Type
	backing Backing
	fresh   bool
	invalid bool
}

// NewInstanced returns a fresh, unbacked instance of type t, as allocated
// by a new instruction.
func NewInstanced(t bytecode.Type) *Instanced { return &Instanced{typ: t, fresh: true} }

// NewBacked returns an instance that already owns a backing object, as
// produced by static factories. Factories may return shared objects, so
// the result is not fresh.
func NewBacked(t bytecode.Type, b Backing) *Instanced { return &Instanced{typ: t, backing: b} }

func (i *Instanced) Kind() Kind          { return KindInstanced }
func (i *Instanced) Type() bytecode.Type { return i.typ }
func (i *Instanced) Size() int           { return 1 }
func (i *Instanced) value()              {}

// Known reports whether a backing object is attached.
func (i *Instanced) Known() bool { return i.backing != nil }

// Backing returns the attached object, if any.
func (i *Instanced) Backing() (Backing, bool) { return i.backing, i.backing != nil }

// Fresh reports whether the value was allocated by a new instruction. Two
// distinct fresh values are distinct objects.
func (i *Instanced) Fresh() bool { return i.fresh }

// Invalidate drops a mutable backing object, so later lookups treat the
// value as an unknown object of its type. Immutable backings are kept.
// It reports whether a backing was dropped.
func (i *Instanced) Invalidate() bool {
	if _, ok := i.backing.(Immutable); ok {
		return false
	}
	i.invalid = true
	dropped := i.backing != nil
	i.backing = nil
	return dropped
}

// Attach sets the backing object.
func (i *Instanced) Attach(b Backing) error {
	if i.invalid {
		return ErrInvalidated
	}
	if i.backing != nil {
		return ErrAlreadyBacked
	}
	if b == nil {
		return fmt.Errorf("attach nil backing to %s", i.typ.InternalName())
	}
	i.backing = b
	return nil
}

func (i *Instanced) String() string {
	if i.invalid {
		return fmt.Sprintf("<escaped %s>", i.typ.InternalName())
	}
	if i.backing == nil {
		return fmt.Sprintf("<new %s>", i.typ.InternalName())
	}
	if snap, ok := i.backing.Snapshot(); ok {
		return snap.String()
	}
	return fmt.Sprintf("<instance %s %v>", i.typ.InternalName(), i.backing)
}

// Unmap converts v into a plain value for code unaware of backing objects.
// Instanced values become their snapshot (String, Boxed, Array) or a
// non-null Object of their type. Arrays are unmapped element-wise only when
// their length and contents are known. Other values pass through.
func Unmap(v Value) Value {
	switch x := v.(type) {
	case *Instanced:
		if x.backing != nil {
			if snap, ok := x.backing.Snapshot(); ok {
				return Unmap(snap)
			}
		}
		return NewObject(x.typ, NotNull)
	case *Array:
		elems, ok := x.Elements()
		if !ok {
			return x
		}
		changed := false
		for i, e := range elems {
			if u := Unmap(e); u != e {
				elems[i] = u
				changed = true
			}
		}
		if !changed {
			return x
		}
		return &Array{typ: x.typ, length: x.length, knownLength: true, elems: elems}
	}
	return v
}

// UnmapAll unmaps each value in place of a copy of vs.
func UnmapAll(vs []Value) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Unmap(v)
	}
	return out
}
