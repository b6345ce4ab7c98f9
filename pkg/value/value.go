package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/bceval/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindEmpty Kind = iota // Unwritten local or second half of a wide slot
	KindInt               // boolean, byte, char, short, int
	KindLong
	KindFloat
	KindDouble
	KindObject
	KindArray
	KindString
	KindBoxed
	KindInstanced
)

var kindNames = [...]string{
	KindEmpty:     "empty",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindObject:    "object",
	KindArray:     "array",
	KindString:    "string",
	KindBoxed:     "boxed",
	KindInstanced: "instanced",
}

// String returns a human-readable name for Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is the universal unit of computed state. A value with no known
// payload type-checks but cannot be folded. Values are immutable; pointer
// identity is reference identity.
type Value interface {
	Kind() Kind
	Type() bytecode.Type
	// Known reports whether the concrete payload is statically determined.
	Known() bool
	// Size returns the number of stack/local slots the value occupies.
	Size() int
	String() string

	value()
}

// IsWide reports whether v is a long or double.
func IsWide(v Value) bool { return v.Size() == 2 }

// IsReference reports whether v lives on the stack as a reference.
func IsReference(v Value) bool {
	switch v.Kind() {
	case KindObject, KindArray, KindString, KindBoxed, KindInstanced:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Empty
// ---------------------------------------------------------------------------

type emptyValue struct{}

// Empty fills locals that were never written and the upper half of wide locals.
var Empty Value = &emptyValue{}

func (*emptyValue) Kind() Kind          { return KindEmpty }
func (*emptyValue) Type() bytecode.Type { return bytecode.VoidType }
func (*emptyValue) Known() bool         { return false }
func (*emptyValue) Size() int           { return 1 }
func (*emptyValue) String() string      { return "<empty>" }
func (*emptyValue) value()              {}

// ---------------------------------------------------------------------------
// Int
// ---------------------------------------------------------------------------

// Int is an int-family value. The static type may be boolean, byte, char,
// short or int; the payload is always held as int32.
type Int struct {
	typ   bytecode.Type
	v     int32
	known bool
}

// NewInt returns a known int.
func NewInt(v int32) *Int { return &Int{typ: bytecode.IntType, v: v, known: true} }

// NewTypedInt returns a known int-family value of the given static type.
func NewTypedInt(t bytecode.Type, v int32) *Int { return &Int{typ: t, v: v, known: true} }

// NewBool returns a known boolean.
func NewBool(b bool) *Int {
	if b {
		return NewTypedInt(bytecode.BooleanType, 1)
	}
	return NewTypedInt(bytecode.BooleanType, 0)
}

// NewChar returns a known char.
func NewChar(c uint16) *Int { return NewTypedInt(bytecode.CharType, int32(c)) }

// NewByte returns a known byte.
func NewByte(b int8) *Int { return NewTypedInt(bytecode.ByteType, int32(b)) }

// NewShort returns a known short.
func NewShort(s int16) *Int { return NewTypedInt(bytecode.ShortType, int32(s)) }

// UnknownInt returns an unknown int-family value of the given type.
func UnknownInt(t bytecode.Type) *Int { return &Int{typ: t} }

func (i *Int) Kind() Kind          { return KindInt }
func (i *Int) Type() bytecode.Type { return i.typ }
func (i *Int) Known() bool         { return i.known }
func (i *Int) Size() int           { return 1 }
func (i *Int) value()              {}

// Value returns the payload. Only meaningful when Known.
func (i *Int) Value() int32 { return i.v }

func (i *Int) String() string {
	if !i.known {
		return unknownString(i.typ)
	}
	switch i.typ.Sort() {
	case bytecode.SortBoolean:
		return strconv.FormatBool(i.v != 0)
	case bytecode.SortChar:
		return strconv.QuoteRune(rune(uint16(i.v)))
	}
	return strconv.FormatInt(int64(i.v), 10)
}

// IsEqualTo reports whether the payload equals c.
func (i *Int) IsEqualTo(c int32) bool { return i.v == c }

// IsNotEqualTo reports whether the payload differs from c.
func (i *Int) IsNotEqualTo(c int32) bool { return i.v != c }

// IsLessThan reports whether the payload is below c.
func (i *Int) IsLessThan(c int32) bool { return i.v < c }

// IsLessThanOrEqual reports whether the payload is at most c.
func (i *Int) IsLessThanOrEqual(c int32) bool { return i.v <= c }

// IsGreaterThan reports whether the payload exceeds c.
func (i *Int) IsGreaterThan(c int32) bool { return i.v > c }

// IsGreaterThanOrEqual reports whether the payload is at least c.
func (i *Int) IsGreaterThanOrEqual(c int32) bool { return i.v >= c }

// ---------------------------------------------------------------------------
// Long / Float / Double
// ---------------------------------------------------------------------------

// Long is a 64-bit integer value.
type Long struct {
	v     int64
	known bool
}

// NewLong returns a known long.
func NewLong(v int64) *Long { return &Long{v: v, known: true} }

// UnknownLong returns an unknown long.
func UnknownLong() *Long { return &Long{} }

func (l *Long) Kind() Kind          { return KindLong }
func (l *Long) Type() bytecode.Type { return bytecode.LongType }
func (l *Long) Known() bool         { return l.known }
func (l *Long) Size() int           { return 2 }
func (l *Long) value()              {}

// Value returns the payload. Only meaningful when Known.
func (l *Long) Value() int64 { return l.v }

func (l *Long) String() string {
	if !l.known {
		return unknownString(bytecode.LongType)
	}
	return strconv.FormatInt(l.v, 10) + "L"
}

// Compare returns -1, 0 or 1 as lcmp does.
func (l *Long) Compare(o *Long) int32 {
	switch {
	case l.v < o.v:
		return -1
	case l.v > o.v:
		return 1
	}
	return 0
}

// Float is a 32-bit floating point value.
type Float struct {
	v     float32
	known bool
}

// NewFloat returns a known float.
func NewFloat(v float32) *Float { return &Float{v: v, known: true} }

// UnknownFloat returns an unknown float.
func UnknownFloat() *Float { return &Float{} }

func (f *Float) Kind() Kind          { return KindFloat }
func (f *Float) Type() bytecode.Type { return bytecode.FloatType }
func (f *Float) Known() bool         { return f.known }
func (f *Float) Size() int           { return 1 }
func (f *Float) value()              {}

// Value returns the payload. Only meaningful when Known.
func (f *Float) Value() float32 { return f.v }

func (f *Float) String() string {
	if !f.known {
		return unknownString(bytecode.FloatType)
	}
	return bytecode.FormatConstant(bytecode.FloatConst(f.v))
}

// Compare returns -1, 0 or 1 as fcmpl/fcmpg do. nanResult is produced when
// either operand is NaN: -1 for fcmpl, 1 for fcmpg.
func (f *Float) Compare(o *Float, nanResult int32) int32 {
	return compareFloating(float64(f.v), float64(o.v), nanResult)
}

// Double is a 64-bit floating point value.
type Double struct {
	v     float64
	known bool
}

// NewDouble returns a known double.
func NewDouble(v float64) *Double { return &Double{v: v, known: true} }

// UnknownDouble returns an unknown double.
func UnknownDouble() *Double { return &Double{} }

func (d *Double) Kind() Kind          { return KindDouble }
func (d *Double) Type() bytecode.Type { return bytecode.DoubleType }
func (d *Double) Known() bool         { return d.known }
func (d *Double) Size() int           { return 2 }
func (d *Double) value()              {}

// Value returns the payload. Only meaningful when Known.
func (d *Double) Value() float64 { return d.v }

func (d *Double) String() string {
	if !d.known {
		return unknownString(bytecode.DoubleType)
	}
	return bytecode.FormatConstant(bytecode.DoubleConst(d.v))
}

// Compare returns -1, 0 or 1 as dcmpl/dcmpg do.
func (d *Double) Compare(o *Double, nanResult int32) int32 {
	return compareFloating(d.v, o.v, nanResult)
}

func compareFloating(a, b float64, nanResult int32) int32 {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return nanResult
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Object
// ---------------------------------------------------------------------------

// Nullness is what is statically known about a reference being null.
type Nullness uint8

const (
	MaybeNull Nullness = iota
	IsNull
	NotNull
)

func (n Nullness) String() string {
	switch n {
	case IsNull:
		return "null"
	case NotNull:
		return "not-null"
	default:
		return "maybe-null"
	}
}

// Object is a reference of a static type with no modelled contents.
type Object struct {
	typ      bytecode.Type
	nullness Nullness
}

// Null is the reusable null reference. A field explicitly holding null is
// distinct from a field with no cached value.
var Null = &Object{typ: bytecode.NullType, nullness: IsNull}

// NewObject returns a reference of type t with the given nullness.
func NewObject(t bytecode.Type, n Nullness) *Object { return &Object{typ: t, nullness: n} }

// UnknownObject returns a reference of type t that may be null.
func UnknownObject(t bytecode.Type) *Object { return &Object{typ: t} }

func (o *Object) Kind() Kind          { return KindObject }
func (o *Object) Type() bytecode.Type { return o.typ }
func (o *Object) Known() bool         { return o.nullness == IsNull }
func (o *Object) Size() int           { return 1 }
func (o *Object) value()              {}

// Nullness returns what is known about the reference being null.
func (o *Object) Nullness() Nullness { return o.nullness }

func (o *Object) String() string {
	if o.nullness == IsNull {
		return "null"
	}
	return fmt.Sprintf("<%s %s>", o.nullness, o.typ.InternalName())
}

// NullnessOf returns what is known about v being null.
func NullnessOf(v Value) Nullness {
	switch x := v.(type) {
	case *Object:
		return x.nullness
	case *Array:
		if x.knownLength {
			return NotNull
		}
	case *String:
		if x.known {
			return NotNull
		}
	case *Boxed:
		if x.Known() {
			return NotNull
		}
	case *Instanced:
		return NotNull
	}
	return MaybeNull
}

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// Array is an array reference. The length and elements may each be known.
// Element slices are never shared with callers; stores produce a new Array.
type Array struct {
	typ         bytecode.Type
	length      int
	knownLength bool
	elems       []Value
}

// NewArray returns an array with known elements.
func NewArray(t bytecode.Type, elems []Value) *Array {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &Array{typ: t, length: len(elems), knownLength: true, elems: cp}
}

// NewArrayOfLength returns an array of known length with every element set
// to the default value of the element type.
func NewArrayOfLength(t bytecode.Type, n int) *Array {
	elems := make([]Value, n)
	zero := Zero(t.ElementType())
	for i := range elems {
		elems[i] = zero
	}
	return &Array{typ: t, length: n, knownLength: true, elems: elems}
}

// UnknownArray returns an array of unknown length and contents.
func UnknownArray(t bytecode.Type) *Array { return &Array{typ: t} }

func (a *Array) Kind() Kind          { return KindArray }
func (a *Array) Type() bytecode.Type { return a.typ }
func (a *Array) Known() bool         { return a.knownLength && a.elems != nil && allKnown(a.elems) }
func (a *Array) Size() int           { return 1 }
func (a *Array) value()              {}

// Length returns the array length if known.
func (a *Array) Length() (int, bool) { return a.length, a.knownLength }

// Elements returns a copy of the elements if they are known.
func (a *Array) Elements() ([]Value, bool) {
	if !a.knownLength || a.elems == nil {
		return nil, false
	}
	cp := make([]Value, len(a.elems))
	copy(cp, a.elems)
	return cp, true
}

// Element returns element i if the contents are known and i is in range.
func (a *Array) Element(i int) (Value, bool) {
	if a.elems == nil || i < 0 || i >= len(a.elems) {
		return nil, false
	}
	return a.elems[i], true
}

// With returns a copy of the array with element i replaced. Arrays without
// known contents stay unknown.
func (a *Array) With(i int, v Value) *Array {
	if a.elems == nil || i < 0 || i >= len(a.elems) {
		return &Array{typ: a.typ, length: a.length, knownLength: a.knownLength}
	}
	cp := make([]Value, len(a.elems))
	copy(cp, a.elems)
	cp[i] = v
	return &Array{typ: a.typ, length: a.length, knownLength: true, elems: cp}
}

// Forget returns an array of the same type and length whose elements are
// unknown, for arrays that may have been written by code that was not
// evaluated.
func (a *Array) Forget() *Array {
	return &Array{typ: a.typ, length: a.length, knownLength: a.knownLength}
}

func (a *Array) String() string {
	if a.elems == nil {
		if a.knownLength {
			return fmt.Sprintf("<%s length %d>", a.typ, a.length)
		}
		return unknownString(a.typ)
	}
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func allKnown(vs []Value) bool {
	for _, v := range vs {
		if !v.Known() {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

// String is a java/lang/String reference.
type String struct {
	v     string
	known bool
}

// NewString returns a known string.
func NewString(s string) *String { return &String{v: s, known: true} }

// UnknownString returns an unknown, non-null string.
func UnknownString() *String { return &String{} }

func (s *String) Kind() Kind          { return KindString }
func (s *String) Type() bytecode.Type { return bytecode.StringType }
func (s *String) Known() bool         { return s.known }
func (s *String) Size() int           { return 1 }
func (s *String) value()              {}

// Value returns the payload. Only meaningful when Known.
func (s *String) Value() string { return s.v }

func (s *String) String() string {
	if !s.known {
		return unknownString(bytecode.StringType)
	}
	return strconv.Quote(s.v)
}

// ---------------------------------------------------------------------------
// Boxed
// ---------------------------------------------------------------------------

// Boxed is a boxed primitive such as java/lang/Integer wrapping an Int.
type Boxed struct {
	typ   bytecode.Type
	inner Value
}

// NewBoxed returns a box of type t around a primitive value.
func NewBoxed(t bytecode.Type, inner Value) *Boxed { return &Boxed{typ: t, inner: inner} }

// UnknownBoxed returns a box of type t whose contents are unknown.
func UnknownBoxed(t bytecode.Type) *Boxed {
	prim, ok := UnboxedType(t)
	if !ok {
		prim = bytecode.IntType
	}
	return &Boxed{typ: t, inner: FromType(prim)}
}

func (b *Boxed) Kind() Kind          { return KindBoxed }
func (b *Boxed) Type() bytecode.Type { return b.typ }
func (b *Boxed) Known() bool         { return b.inner.Known() }
func (b *Boxed) Size() int           { return 1 }
func (b *Boxed) value()              {}

// Unbox returns the wrapped primitive value.
func (b *Boxed) Unbox() Value { return b.inner }

func (b *Boxed) String() string {
	name := b.typ.InternalName()
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return fmt.Sprintf("%s(%s)", name, b.inner)
}

var boxTypes = map[string]bytecode.Type{
	"java/lang/Boolean":   bytecode.BooleanType,
	"java/lang/Byte":      bytecode.ByteType,
	"java/lang/Character": bytecode.CharType,
	"java/lang/Short":     bytecode.ShortType,
	"java/lang/Integer":   bytecode.IntType,
	"java/lang/Long":      bytecode.LongType,
	"java/lang/Float":     bytecode.FloatType,
	"java/lang/Double":    bytecode.DoubleType,
}

// UnboxedType returns the primitive type wrapped by a box type.
func UnboxedType(t bytecode.Type) (bytecode.Type, bool) {
	if t.Sort() != bytecode.SortObject {
		return bytecode.Type{}, false
	}
	prim, ok := boxTypes[t.InternalName()]
	return prim, ok
}

// BoxedType returns the box type for a primitive type.
func BoxedType(prim bytecode.Type) (bytecode.Type, bool) {
	for name, p := range boxTypes {
		if p == prim {
			return bytecode.ObjectTypeOf(name), true
		}
	}
	return bytecode.Type{}, false
}

// ---------------------------------------------------------------------------
// Construction from types
// ---------------------------------------------------------------------------

// FromType returns the unknown value of a static type.
func FromType(t bytecode.Type) Value {
	switch t.Sort() {
	case bytecode.SortBoolean, bytecode.SortChar, bytecode.SortByte, bytecode.SortShort, bytecode.SortInt:
		return UnknownInt(t)
	case bytecode.SortLong:
		return UnknownLong()
	case bytecode.SortFloat:
		return UnknownFloat()
	case bytecode.SortDouble:
		return UnknownDouble()
	case bytecode.SortArray:
		return UnknownArray(t)
	case bytecode.SortObject:
		if t == bytecode.StringType {
			return UnknownString()
		}
		if _, boxed := UnboxedType(t); boxed {
			return UnknownBoxed(t)
		}
		return UnknownObject(t)
	}
	return Empty
}

// Zero returns the default value of a type: zero for primitives, null for
// references.
func Zero(t bytecode.Type) Value {
	switch t.Sort() {
	case bytecode.SortBoolean, bytecode.SortChar, bytecode.SortByte, bytecode.SortShort, bytecode.SortInt:
		return NewTypedInt(t, 0)
	case bytecode.SortLong:
		return NewLong(0)
	case bytecode.SortFloat:
		return NewFloat(0)
	case bytecode.SortDouble:
		return NewDouble(0)
	}
	return Null
}

// FromConstant returns the value pushed by ldc for a constant. Handles and
// dynamic constants have no value.
func FromConstant(c bytecode.Constant) (Value, bool) {
	switch c.Kind {
	case bytecode.ConstInt:
		return NewInt(int32(c.Int)), true
	case bytecode.ConstLong:
		return NewLong(c.Int), true
	case bytecode.ConstFloat:
		return NewFloat(float32(c.Float)), true
	case bytecode.ConstDouble:
		return NewDouble(c.Float), true
	case bytecode.ConstString:
		return NewString(c.Str), true
	case bytecode.ConstType:
		return NewObject(bytecode.ClassType, NotNull), true
	}
	return nil, false
}

func unknownString(t bytecode.Type) string {
	return fmt.Sprintf("<unknown %s>", t)
}
