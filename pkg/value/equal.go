package value

import "math"

// Equal reports whether a and b are equal in the sense of Object.equals for
// the modelled types. ok is false when the answer is not statically known.
func Equal(a, b Value) (eq bool, ok bool) {
	if a == b {
		return true, true
	}
	a, b = snapshot(a), snapshot(b)

	switch x := a.(type) {
	case *Int:
		y, same := b.(*Int)
		if !same || !x.known || !y.known {
			break
		}
		return x.v == y.v, true
	case *Long:
		y, same := b.(*Long)
		if !same || !x.known || !y.known {
			break
		}
		return x.v == y.v, true
	case *Float:
		y, same := b.(*Float)
		if !same || !x.known || !y.known {
			break
		}
		return math.Float32bits(x.v) == math.Float32bits(y.v) || (x.v != x.v && y.v != y.v), true
	case *Double:
		y, same := b.(*Double)
		if !same || !x.known || !y.known {
			break
		}
		return math.Float64bits(x.v) == math.Float64bits(y.v) || (x.v != x.v && y.v != y.v), true
	case *String:
		if y, same := b.(*String); same && x.known && y.known {
			return x.v == y.v, true
		}
	case *Boxed:
		if y, same := b.(*Boxed); same {
			if x.typ != y.typ {
				return false, true
			}
			return Equal(x.inner, y.inner)
		}
	}

	na, nb := NullnessOf(a), NullnessOf(b)
	switch {
	case na == IsNull && nb == IsNull:
		return true, true
	case na == IsNull && nb == NotNull, na == NotNull && nb == IsNull:
		return false, true
	}
	if a.Known() && b.Known() && a.Kind() != b.Kind() && a.Kind() != KindObject && b.Kind() != KindObject {
		// Distinct modelled kinds never compare equal.
		return false, true
	}
	return false, false
}

func snapshot(v Value) Value {
	if inst, ok := v.(*Instanced); ok && inst.backing != nil {
		if snap, ok := inst.backing.Snapshot(); ok {
			return snap
		}
	}
	return v
}
