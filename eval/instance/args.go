package instance

import (
	"fmt"

	"github.com/chazu/bceval/pkg/interp"
	"github.com/chazu/bceval/pkg/value"
)

// Args gives mappers and handlers typed access to call arguments. The first
// access that cannot be satisfied records an error; later accesses return
// zero values and the error is reported once the call returns.
type Args struct {
	vals []value.Value
	err  error
}

// Len returns the number of arguments.
func (a *Args) Len() int { return len(a.vals) }

// Value returns argument i as is.
func (a *Args) Value(i int) value.Value {
	if i >= len(a.vals) {
		a.Fail(fmt.Errorf("%w: missing argument %d", interp.ErrStackUnderflow, i))
		return value.Null
	}
	return a.vals[i]
}

// Fail records err unless an earlier error was recorded.
func (a *Args) Fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Err returns the recorded error.
func (a *Args) Err() error { return a.err }

func (a *Args) unknown(i int) {
	a.Fail(fmt.Errorf("%w: %d is %s", ErrUnknownArg, i, a.Value(i)))
}

// Int returns argument i as an int.
func (a *Args) Int(i int) int32 {
	v := a.Value(i)
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	x, ok := v.(*value.Int)
	if !ok || !x.Known() {
		a.unknown(i)
		return 0
	}
	return x.Value()
}

// Bool returns argument i as a boolean.
func (a *Args) Bool(i int) bool { return a.Int(i) != 0 }

// Char returns argument i as a UTF-16 code unit.
func (a *Args) Char(i int) uint16 { return uint16(a.Int(i)) }

// Long returns argument i as a long.
func (a *Args) Long(i int) int64 {
	v := a.Value(i)
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	x, ok := v.(*value.Long)
	if !ok || !x.Known() {
		a.unknown(i)
		return 0
	}
	return x.Value()
}

// Float returns argument i as a float.
func (a *Args) Float(i int) float32 {
	v := a.Value(i)
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	x, ok := v.(*value.Float)
	if !ok || !x.Known() {
		a.unknown(i)
		return 0
	}
	return x.Value()
}

// Double returns argument i as a double.
func (a *Args) Double(i int) float64 {
	v := a.Value(i)
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	x, ok := v.(*value.Double)
	if !ok || !x.Known() {
		a.unknown(i)
		return 0
	}
	return x.Value()
}

// Str returns argument i as a non-null string.
func (a *Args) Str(i int) string {
	v := a.Value(i)
	if value.NullnessOf(v) == value.IsNull {
		a.Fail(fmt.Errorf("%w: argument %d", interp.ErrNullPointer, i))
		return ""
	}
	s, ok := v.(*value.String)
	if !ok || !s.Known() {
		a.unknown(i)
		return ""
	}
	return s.Value()
}

// Text returns argument i converted the way String.valueOf(Object) does,
// so null becomes "null".
func (a *Args) Text(i int) string {
	s, ok := value.ToJavaString(a.Value(i))
	if !ok {
		a.unknown(i)
		return ""
	}
	return s
}

// Chars returns argument i as the contents of a known char array.
func (a *Args) Chars(i int) []uint16 {
	elems := a.elements(i)
	out := make([]uint16, len(elems))
	for j, e := range elems {
		c, ok := e.(*value.Int)
		if !ok || !c.Known() {
			a.unknown(i)
			return nil
		}
		out[j] = uint16(c.Value())
	}
	return out
}

// Bytes returns argument i as the contents of a known byte array.
func (a *Args) Bytes(i int) []byte {
	elems := a.elements(i)
	out := make([]byte, len(elems))
	for j, e := range elems {
		c, ok := e.(*value.Int)
		if !ok || !c.Known() {
			a.unknown(i)
			return nil
		}
		out[j] = byte(c.Value())
	}
	return out
}

func (a *Args) elements(i int) []value.Value {
	v := a.Value(i)
	if value.NullnessOf(v) == value.IsNull {
		a.Fail(fmt.Errorf("%w: argument %d", interp.ErrNullPointer, i))
		return nil
	}
	arr, ok := v.(*value.Array)
	if !ok {
		a.unknown(i)
		return nil
	}
	elems, ok := arr.Elements()
	if !ok {
		a.unknown(i)
		return nil
	}
	return elems
}
