package instance

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/interp"
	"github.com/chazu/bceval/pkg/value"
)

// ---------------------------------------------------------------------------
// Boxes
// ---------------------------------------------------------------------------

type boxSpec struct {
	owner string
	prim  bytecode.Type
	// fromArgs reads the primitive from a constructor or valueOf argument
	// whose descriptor is the primitive itself.
	fromArgs func(a *Args, i int) value.Value
	// parse converts the String form accepted by the constructor.
	parse func(s string) (value.Value, error)
}

func (b boxSpec) typ() bytecode.Type { return bytecode.ObjectTypeOf(b.owner) }

func (b boxSpec) backing(v value.Value) value.Backing {
	return &boxBacking{typ: b.typ(), v: v}
}

func parseIntRange(s string, bits int) (int64, error) {
	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: for input string %q", ErrIllegalArgument, s)
	}
	return n, nil
}

func parseFloating(s string, bits int) (float64, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimRight(t, "fFdD")
	f, err := strconv.ParseFloat(t, bits)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: for input string %q", ErrIllegalArgument, s)
	}
	return f, nil
}

var boxes = []boxSpec{
	{
		owner:    "java/lang/Boolean",
		prim:     bytecode.BooleanType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewBool(a.Bool(i)) },
		parse: func(s string) (value.Value, error) {
			return value.NewBool(strings.EqualFold(s, "true")), nil
		},
	},
	{
		owner:    "java/lang/Byte",
		prim:     bytecode.ByteType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewByte(int8(a.Int(i))) },
		parse: func(s string) (value.Value, error) {
			n, err := parseIntRange(s, 8)
			return value.NewByte(int8(n)), err
		},
	},
	{
		owner:    "java/lang/Character",
		prim:     bytecode.CharType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewChar(a.Char(i)) },
	},
	{
		owner:    "java/lang/Short",
		prim:     bytecode.ShortType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewShort(int16(a.Int(i))) },
		parse: func(s string) (value.Value, error) {
			n, err := parseIntRange(s, 16)
			return value.NewShort(int16(n)), err
		},
	},
	{
		owner:    "java/lang/Integer",
		prim:     bytecode.IntType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewInt(a.Int(i)) },
		parse: func(s string) (value.Value, error) {
			n, err := parseIntRange(s, 32)
			return value.NewInt(int32(n)), err
		},
	},
	{
		owner:    "java/lang/Long",
		prim:     bytecode.LongType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewLong(a.Long(i)) },
		parse: func(s string) (value.Value, error) {
			n, err := parseIntRange(s, 64)
			return value.NewLong(n), err
		},
	},
	{
		owner:    "java/lang/Float",
		prim:     bytecode.FloatType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewFloat(a.Float(i)) },
		parse: func(s string) (value.Value, error) {
			f, err := parseFloating(s, 32)
			return value.NewFloat(float32(f)), err
		},
	},
	{
		owner:    "java/lang/Double",
		prim:     bytecode.DoubleType,
		fromArgs: func(a *Args, i int) value.Value { return value.NewDouble(a.Double(i)) },
		parse: func(s string) (value.Value, error) {
			f, err := parseFloating(s, 64)
			return value.NewDouble(f), err
		},
	},
}

// boxHash returns the hashCode of a boxed primitive.
func boxHash(v value.Value) int32 {
	switch x := v.(type) {
	case *value.Int:
		if x.Type().Sort() == bytecode.SortBoolean {
			if x.Value() != 0 {
				return 1231
			}
			return 1237
		}
		return x.Value()
	case *value.Long:
		return int32(x.Value() ^ int64(uint64(x.Value())>>32))
	case *value.Float:
		f := x.Value()
		if f != f {
			return 0x7fc00000
		}
		return int32(math.Float32bits(f))
	case *value.Double:
		bits := math.Float64bits(x.Value())
		if math.IsNaN(x.Value()) {
			bits = 0x7ff8000000000000
		}
		return int32(bits ^ bits>>32)
	}
	return 0
}

// boxCompare implements compareTo between two boxes of the same type.
func boxCompare(a, b value.Value) int32 {
	switch x := a.(type) {
	case *value.Int:
		y := b.(*value.Int)
		switch {
		case x.Value() < y.Value():
			return -1
		case x.Value() > y.Value():
			return 1
		}
		return 0
	case *value.Long:
		return x.Compare(b.(*value.Long))
	case *value.Float:
		return compareTotal(float64(x.Value()), float64(b.(*value.Float).Value()))
	case *value.Double:
		return compareTotal(x.Value(), b.(*value.Double).Value())
	}
	return 0
}

// compareTotal orders like Double.compare: -0.0 < 0.0 and NaN is greatest.
func compareTotal(a, b float64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	sa, sb := math.Signbit(a), math.Signbit(b)
	switch {
	case sa == sb:
		return 0
	case sa:
		return -1
	}
	return 1
}

// convertPrim converts a boxed primitive to another primitive type with
// the runtime's widening and narrowing rules.
func convertPrim(v value.Value, to bytecode.Type) value.Value {
	var i int64
	var f float64
	isFloat := false
	switch x := v.(type) {
	case *value.Int:
		i = int64(x.Value())
	case *value.Long:
		i = x.Value()
	case *value.Float:
		f, isFloat = float64(x.Value()), true
	case *value.Double:
		f, isFloat = x.Value(), true
	}
	switch to.Sort() {
	case bytecode.SortFloat:
		if isFloat {
			return value.NewFloat(float32(f))
		}
		return value.NewFloat(float32(i))
	case bytecode.SortDouble:
		if isFloat {
			return value.NewDouble(f)
		}
		return value.NewDouble(float64(i))
	}
	if isFloat {
		if to.Sort() == bytecode.SortLong {
			return value.NewLong(interp.F2L(f))
		}
		i = int64(interp.F2I(f))
	}
	switch to.Sort() {
	case bytecode.SortLong:
		return value.NewLong(i)
	case bytecode.SortByte:
		return value.NewByte(int8(i))
	case bytecode.SortShort:
		return value.NewShort(int16(i))
	}
	return value.NewInt(int32(i))
}

func boxHandlers(box boxSpec) map[sig]Handler {
	self := "L" + box.owner + ";"
	h := map[sig]Handler{
		{"toString", "()Ljava/lang/String;"}: method(func(_ *value.Instanced, b *boxBacking, a *Args) value.Value {
			s, ok := value.ToJavaString(b.v)
			if !ok {
				a.Fail(ErrUnknownArg)
			}
			return value.NewString(s)
		}),
		{"hashCode", "()I"}: method(func(_ *value.Instanced, b *boxBacking, _ *Args) value.Value {
			return value.NewInt(boxHash(b.v))
		}),
		{"equals", "(Ljava/lang/Object;)Z"}: method(func(host *value.Instanced, b *boxBacking, a *Args) value.Value {
			eq, ok := value.Equal(value.NewBoxed(b.typ, b.v), a.Value(0))
			if !ok {
				a.Fail(fmt.Errorf("%w: cannot compare with %s", ErrUnknownArg, a.Value(0)))
			}
			return value.NewBool(eq)
		}),
		{"compareTo", "(" + self + ")I"}: method(func(_ *value.Instanced, b *boxBacking, a *Args) value.Value {
			other, ok := a.Value(0).(*value.Boxed)
			if !ok || !other.Known() || other.Type() != b.typ {
				a.Fail(fmt.Errorf("%w: cannot compare with %s", ErrUnknownArg, a.Value(0)))
				return nil
			}
			return value.NewInt(boxCompare(b.v, other.Unbox()))
		}),
	}

	prim := box.prim.Sort()
	switch {
	case prim == bytecode.SortBoolean:
		h[sig{"booleanValue", "()Z"}] = method(func(_ *value.Instanced, b *boxBacking, _ *Args) value.Value { return b.v })
	case prim == bytecode.SortChar:
		h[sig{"charValue", "()C"}] = method(func(_ *value.Instanced, b *boxBacking, _ *Args) value.Value { return b.v })
	default:
		// Number subclasses convert to every numeric primitive.
		for _, to := range []bytecode.Type{
			bytecode.ByteType, bytecode.ShortType, bytecode.IntType,
			bytecode.LongType, bytecode.FloatType, bytecode.DoubleType,
		} {
			to := to
			name := primName(to) + "Value"
			h[sig{name, "()" + to.Descriptor()}] = method(func(_ *value.Instanced, b *boxBacking, _ *Args) value.Value {
				return convertPrim(b.v, to)
			})
		}
		if prim == bytecode.SortFloat || prim == bytecode.SortDouble {
			h[sig{"isNaN", "()Z"}] = method(func(_ *value.Instanced, b *boxBacking, _ *Args) value.Value {
				f := convertPrim(b.v, bytecode.DoubleType).(*value.Double).Value()
				return value.NewBool(math.IsNaN(f))
			})
			h[sig{"isInfinite", "()Z"}] = method(func(_ *value.Instanced, b *boxBacking, _ *Args) value.Value {
				f := convertPrim(b.v, bytecode.DoubleType).(*value.Double).Value()
				return value.NewBool(math.IsInf(f, 0))
			})
		}
	}
	return h
}

func primName(t bytecode.Type) string {
	switch t.Sort() {
	case bytecode.SortByte:
		return "byte"
	case bytecode.SortShort:
		return "short"
	case bytecode.SortLong:
		return "long"
	case bytecode.SortFloat:
		return "float"
	case bytecode.SortDouble:
		return "double"
	}
	return "int"
}

// ---------------------------------------------------------------------------
// Constructors and static factories
// ---------------------------------------------------------------------------

func newString(s string) value.Backing { return &stringBacking{s: s} }

func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

func newBuilder(a *Args, s string) value.Backing {
	if a.Err() != nil {
		return nil
	}
	b := &builder{}
	b.append(s)
	return b
}

func charRange(a *Args, chars []uint16, offset, count int32) []uint16 {
	if offset < 0 || count < 0 || int(offset)+int(count) > len(chars) {
		a.Fail(fmt.Errorf("%w: offset %d, count %d, length %d", ErrIllegalArgument, offset, count, len(chars)))
		return nil
	}
	return chars[offset : offset+count]
}

// constructors maps owner.<init>desc to the mapper producing the instance.
var constructors = map[string]Mapper{
	"java/lang/String.<init>()V": func(a *Args) value.Backing { return newString("") },
	"java/lang/String.<init>(Ljava/lang/String;)V": func(a *Args) value.Backing {
		return newString(a.Str(0))
	},
	"java/lang/String.<init>(Ljava/lang/StringBuilder;)V": func(a *Args) value.Backing {
		return newString(a.Text(0))
	},
	"java/lang/String.<init>([C)V": func(a *Args) value.Backing {
		return newString(value.FromUTF16(a.Chars(0)))
	},
	"java/lang/String.<init>([CII)V": func(a *Args) value.Backing {
		return newString(value.FromUTF16(charRange(a, a.Chars(0), a.Int(1), a.Int(2))))
	},
	"java/lang/String.<init>([B)V": func(a *Args) value.Backing {
		return newString(decodeUTF8(a.Bytes(0)))
	},

	"java/lang/StringBuilder.<init>()V": func(a *Args) value.Backing { return &builder{} },
	"java/lang/StringBuilder.<init>(I)V": func(a *Args) value.Backing {
		if n := a.Int(0); n < 0 {
			a.Fail(fmt.Errorf("%w: negative capacity %d", ErrIllegalArgument, n))
			return nil
		}
		return &builder{}
	},
	"java/lang/StringBuilder.<init>(Ljava/lang/String;)V": func(a *Args) value.Backing {
		return newBuilder(a, a.Str(0))
	},
	"java/lang/StringBuilder.<init>(Ljava/lang/CharSequence;)V": func(a *Args) value.Backing {
		return newBuilder(a, a.Str(0))
	},

	"java/util/Random.<init>()V": func(a *Args) value.Backing { return newRandom(0) },
	"java/util/Random.<init>(J)V": func(a *Args) value.Backing {
		return newRandom(a.Long(0))
	},

	"java/util/ArrayList.<init>()V": func(a *Args) value.Backing { return &list{} },
	"java/util/ArrayList.<init>(I)V": func(a *Args) value.Backing {
		n := a.Int(0)
		if n < 0 {
			a.Fail(fmt.Errorf("%w: illegal capacity %d", ErrIllegalArgument, n))
			return nil
		}
		return &list{elems: make([]value.Value, 0, n)}
	},
}

// staticFactories maps owner.name+desc of static factories to mappers.
var staticFactories = map[string]Mapper{
	"java/lang/String.valueOf(Ljava/lang/Object;)Ljava/lang/String;": func(a *Args) value.Backing {
		return newString(a.Text(0))
	},
	"java/lang/String.valueOf([C)Ljava/lang/String;": func(a *Args) value.Backing {
		return newString(value.FromUTF16(a.Chars(0)))
	},
	"java/lang/String.copyValueOf([C)Ljava/lang/String;": func(a *Args) value.Backing {
		return newString(value.FromUTF16(a.Chars(0)))
	},
}

func init() {
	for _, box := range boxes {
		box := box
		self := "L" + box.owner + ";"
		primDesc := "(" + box.prim.Descriptor() + ")"

		fromPrim := func(a *Args) value.Backing { return box.backing(box.fromArgs(a, 0)) }
		constructors[interp.Key(box.owner, "<init>", primDesc+"V")] = fromPrim
		staticFactories[interp.Key(box.owner, "valueOf", primDesc+self)] = fromPrim

		if box.parse == nil {
			continue
		}
		fromString := func(a *Args) value.Backing {
			s := a.Str(0)
			if a.Err() != nil {
				return nil
			}
			v, err := box.parse(s)
			if err != nil {
				a.Fail(err)
				return nil
			}
			return box.backing(v)
		}
		constructors[interp.Key(box.owner, "<init>", "(Ljava/lang/String;)V")] = fromString
		staticFactories[interp.Key(box.owner, "valueOf", "(Ljava/lang/String;)"+self)] = fromString
	}
	// Float also accepts a double.
	constructors["java/lang/Float.<init>(D)V"] = func(a *Args) value.Backing {
		return &boxBacking{typ: bytecode.ObjectTypeOf("java/lang/Float"), v: value.NewFloat(float32(a.Double(0)))}
	}
}

// ---------------------------------------------------------------------------
// StringBuilder
// ---------------------------------------------------------------------------

// appendWith returns a handler appending the text produced by render and
// yielding the builder itself.
func appendWith(render func(a *Args) string) Handler {
	return method(func(host *value.Instanced, b *builder, a *Args) value.Value {
		s := render(a)
		if a.Err() != nil {
			return nil
		}
		b.append(s)
		return host
	})
}

// insertWith returns a handler inserting rendered text at the offset in
// argument 0.
func insertWith(render func(a *Args) string) Handler {
	return method(func(host *value.Instanced, b *builder, a *Args) value.Value {
		at := a.Int(0)
		s := render(a)
		if a.Err() != nil {
			return nil
		}
		if err := b.insert(int(at), s); err != nil {
			a.Fail(err)
			return nil
		}
		return host
	})
}

func text(i int) func(a *Args) string { return func(a *Args) string { return a.Text(i) } }

func chars(i int) func(a *Args) string {
	return func(a *Args) string { return value.FromUTF16(a.Chars(i)) }
}

func char(i int) func(a *Args) string {
	return func(a *Args) string { return value.FromUTF16([]uint16{a.Char(i)}) }
}

func boolText(i int) func(a *Args) string {
	return func(a *Args) string { return strconv.FormatBool(a.Bool(i)) }
}

var builderHandlers = map[sig]Handler{
	{"toString", "()Ljava/lang/String;"}: method(func(_ *value.Instanced, b *builder, _ *Args) value.Value {
		return value.NewString(b.String())
	}),
	{"length", "()I"}: method(func(_ *value.Instanced, b *builder, _ *Args) value.Value {
		return value.NewInt(int32(len(b.units)))
	}),
	{"charAt", "(I)C"}: method(func(_ *value.Instanced, b *builder, a *Args) value.Value {
		i := int(a.Int(0))
		if err := b.checkIndex(i); err != nil {
			a.Fail(err)
			return nil
		}
		return value.NewChar(b.units[i])
	}),
	{"indexOf", "(Ljava/lang/String;)I"}: method(func(_ *value.Instanced, b *builder, a *Args) value.Value {
		return value.NewInt(int32(value.IndexOf(b.String(), a.Str(0), 0)))
	}),
	{"indexOf", "(Ljava/lang/String;I)I"}: method(func(_ *value.Instanced, b *builder, a *Args) value.Value {
		return value.NewInt(int32(value.IndexOf(b.String(), a.Str(0), int(a.Int(1)))))
	}),
	{"reverse", "()Ljava/lang/StringBuilder;"}: method(func(host *value.Instanced, b *builder, _ *Args) value.Value {
		b.reverse()
		return host
	}),
	{"delete", "(II)Ljava/lang/StringBuilder;"}: method(func(host *value.Instanced, b *builder, a *Args) value.Value {
		start, end := a.Int(0), a.Int(1)
		if a.Err() != nil {
			return nil
		}
		if err := b.delete(int(start), int(end)); err != nil {
			a.Fail(err)
			return nil
		}
		return host
	}),
	{"deleteCharAt", "(I)Ljava/lang/StringBuilder;"}: method(func(host *value.Instanced, b *builder, a *Args) value.Value {
		i := int(a.Int(0))
		if err := b.checkIndex(i); err != nil {
			a.Fail(err)
			return nil
		}
		_ = b.delete(i, i+1)
		return host
	}),
	{"replace", "(IILjava/lang/String;)Ljava/lang/StringBuilder;"}: method(func(host *value.Instanced, b *builder, a *Args) value.Value {
		start, end, s := a.Int(0), a.Int(1), a.Str(2)
		if a.Err() != nil {
			return nil
		}
		if int(start) > len(b.units) {
			a.Fail(fmt.Errorf("%w: start %d, length %d", ErrIllegalArgument, start, len(b.units)))
			return nil
		}
		if err := b.delete(int(start), int(end)); err != nil {
			a.Fail(err)
			return nil
		}
		_ = b.insert(int(start), s)
		return host
	}),
	{"setLength", "(I)V"}: method(func(_ *value.Instanced, b *builder, a *Args) value.Value {
		n := int(a.Int(0))
		if n < 0 {
			a.Fail(fmt.Errorf("%w: negative length %d", ErrIllegalArgument, n))
			return nil
		}
		for len(b.units) < n {
			b.units = append(b.units, 0)
		}
		b.units = b.units[:n]
		return nil
	}),
	{"setCharAt", "(IC)V"}: method(func(_ *value.Instanced, b *builder, a *Args) value.Value {
		i, c := int(a.Int(0)), a.Char(1)
		if err := b.checkIndex(i); err != nil {
			a.Fail(err)
			return nil
		}
		b.units[i] = c
		return nil
	}),

	{"append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;"}:       appendWith(text(0)),
	{"append", "(Ljava/lang/CharSequence;)Ljava/lang/StringBuilder;"}: appendWith(text(0)),
	{"append", "(Ljava/lang/Object;)Ljava/lang/StringBuilder;"}:       appendWith(text(0)),
	{"append", "(I)Ljava/lang/StringBuilder;"}:                        appendWith(text(0)),
	{"append", "(J)Ljava/lang/StringBuilder;"}:                        appendWith(text(0)),
	{"append", "(F)Ljava/lang/StringBuilder;"}:                        appendWith(text(0)),
	{"append", "(D)Ljava/lang/StringBuilder;"}:                        appendWith(text(0)),
	{"append", "(C)Ljava/lang/StringBuilder;"}:                        appendWith(char(0)),
	{"append", "(Z)Ljava/lang/StringBuilder;"}:                        appendWith(boolText(0)),
	{"append", "([C)Ljava/lang/StringBuilder;"}:                       appendWith(chars(0)),
	{"appendCodePoint", "(I)Ljava/lang/StringBuilder;"}: appendWith(func(a *Args) string {
		cp := a.Int(0)
		if cp < 0 || cp > utf8.MaxRune {
			a.Fail(fmt.Errorf("%w: code point %d", ErrIllegalArgument, cp))
			return ""
		}
		return string(rune(cp))
	}),

	{"insert", "(ILjava/lang/String;)Ljava/lang/StringBuilder;"}: insertWith(text(1)),
	{"insert", "(ILjava/lang/Object;)Ljava/lang/StringBuilder;"}: insertWith(text(1)),
	{"insert", "(II)Ljava/lang/StringBuilder;"}:                  insertWith(text(1)),
	{"insert", "(IJ)Ljava/lang/StringBuilder;"}:                  insertWith(text(1)),
	{"insert", "(IC)Ljava/lang/StringBuilder;"}:                  insertWith(char(1)),
	{"insert", "(IZ)Ljava/lang/StringBuilder;"}:                  insertWith(boolText(1)),
	{"insert", "(I[C)Ljava/lang/StringBuilder;"}:                 insertWith(chars(1)),
}

// ---------------------------------------------------------------------------
// Random
// ---------------------------------------------------------------------------

var randomHandlers = map[sig]Handler{
	{"nextInt", "()I"}: method(func(_ *value.Instanced, r *random, _ *Args) value.Value {
		return value.NewInt(r.nextInt())
	}),
	{"nextInt", "(I)I"}: method(func(_ *value.Instanced, r *random, a *Args) value.Value {
		bound := a.Int(0)
		if a.Err() != nil {
			return nil
		}
		n, err := r.nextIntBound(bound)
		if err != nil {
			a.Fail(err)
			return nil
		}
		return value.NewInt(n)
	}),
	{"nextLong", "()J"}: method(func(_ *value.Instanced, r *random, _ *Args) value.Value {
		return value.NewLong(r.nextLong())
	}),
	{"nextBoolean", "()Z"}: method(func(_ *value.Instanced, r *random, _ *Args) value.Value {
		return value.NewBool(r.nextBoolean())
	}),
	{"nextFloat", "()F"}: method(func(_ *value.Instanced, r *random, _ *Args) value.Value {
		return value.NewFloat(r.nextFloat())
	}),
	{"nextDouble", "()D"}: method(func(_ *value.Instanced, r *random, _ *Args) value.Value {
		return value.NewDouble(r.nextDouble())
	}),
	{"nextGaussian", "()D"}: method(func(_ *value.Instanced, r *random, _ *Args) value.Value {
		return value.NewDouble(r.nextGaussianValue())
	}),
	{"setSeed", "(J)V"}: method(func(_ *value.Instanced, r *random, a *Args) value.Value {
		seed := a.Long(0)
		if a.Err() == nil {
			r.setSeed(seed)
		}
		return nil
	}),
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func listIndexed(fn func(l *list, i int, a *Args) value.Value) Handler {
	return method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		i := int(a.Int(0))
		if a.Err() != nil {
			return nil
		}
		if err := l.checkIndex(i, len(l.elems)); err != nil {
			a.Fail(err)
			return nil
		}
		return fn(l, i, a)
	})
}

func listEnd(fn func(l *list) value.Value) Handler {
	return method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		if len(l.elems) == 0 {
			a.Fail(fmt.Errorf("%w: empty list", ErrIllegalArgument))
			return nil
		}
		return fn(l)
	})
}

func listSearch(last bool, result func(idx int) value.Value) Handler {
	return method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		idx, ok := l.indexOf(a.Value(0), last)
		if !ok {
			a.Fail(fmt.Errorf("%w: cannot compare %s", ErrUnknownArg, a.Value(0)))
			return nil
		}
		return result(idx)
	})
}

var listHandlers = map[sig]Handler{
	{"size", "()I"}: method(func(_ *value.Instanced, l *list, _ *Args) value.Value {
		return value.NewInt(int32(len(l.elems)))
	}),
	{"isEmpty", "()Z"}: method(func(_ *value.Instanced, l *list, _ *Args) value.Value {
		return value.NewBool(len(l.elems) == 0)
	}),
	{"clear", "()V"}: method(func(_ *value.Instanced, l *list, _ *Args) value.Value {
		l.elems = nil
		return nil
	}),
	{"add", "(Ljava/lang/Object;)Z"}: method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		l.elems = append(l.elems, a.Value(0))
		return value.NewBool(true)
	}),
	{"add", "(ILjava/lang/Object;)V"}: method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		i := int(a.Int(0))
		if a.Err() != nil {
			return nil
		}
		if err := l.checkIndex(i, len(l.elems)+1); err != nil {
			a.Fail(err)
			return nil
		}
		l.elems = append(l.elems, nil)
		copy(l.elems[i+1:], l.elems[i:])
		l.elems[i] = a.Value(1)
		return nil
	}),
	{"addFirst", "(Ljava/lang/Object;)V"}: method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		l.elems = append([]value.Value{a.Value(0)}, l.elems...)
		return nil
	}),
	{"addLast", "(Ljava/lang/Object;)V"}: method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		l.elems = append(l.elems, a.Value(0))
		return nil
	}),
	{"get", "(I)Ljava/lang/Object;"}: listIndexed(func(l *list, i int, _ *Args) value.Value {
		return l.elems[i]
	}),
	{"set", "(ILjava/lang/Object;)Ljava/lang/Object;"}: listIndexed(func(l *list, i int, a *Args) value.Value {
		old := l.elems[i]
		l.elems[i] = a.Value(1)
		return old
	}),
	{"remove", "(I)Ljava/lang/Object;"}: listIndexed(func(l *list, i int, _ *Args) value.Value {
		old := l.elems[i]
		l.elems = append(l.elems[:i], l.elems[i+1:]...)
		return old
	}),
	{"getFirst", "()Ljava/lang/Object;"}: listEnd(func(l *list) value.Value { return l.elems[0] }),
	{"getLast", "()Ljava/lang/Object;"}:  listEnd(func(l *list) value.Value { return l.elems[len(l.elems)-1] }),
	{"removeFirst", "()Ljava/lang/Object;"}: listEnd(func(l *list) value.Value {
		old := l.elems[0]
		l.elems = l.elems[1:]
		return old
	}),
	{"removeLast", "()Ljava/lang/Object;"}: listEnd(func(l *list) value.Value {
		old := l.elems[len(l.elems)-1]
		l.elems = l.elems[:len(l.elems)-1]
		return old
	}),
	{"remove", "(Ljava/lang/Object;)Z"}: method(func(_ *value.Instanced, l *list, a *Args) value.Value {
		idx, ok := l.indexOf(a.Value(0), false)
		if !ok {
			a.Fail(fmt.Errorf("%w: cannot compare %s", ErrUnknownArg, a.Value(0)))
			return nil
		}
		if idx < 0 {
			return value.NewBool(false)
		}
		l.elems = append(l.elems[:idx], l.elems[idx+1:]...)
		return value.NewBool(true)
	}),
	{"contains", "(Ljava/lang/Object;)Z"}: listSearch(false, func(idx int) value.Value {
		return value.NewBool(idx >= 0)
	}),
	{"indexOf", "(Ljava/lang/Object;)I"}: listSearch(false, func(idx int) value.Value {
		return value.NewInt(int32(idx))
	}),
	{"lastIndexOf", "(Ljava/lang/Object;)I"}: listSearch(true, func(idx int) value.Value {
		return value.NewInt(int32(idx))
	}),
	{"toArray", "()[Ljava/lang/Object;"}: method(func(_ *value.Instanced, l *list, _ *Args) value.Value {
		return value.NewArray(bytecode.ArrayTypeOf(bytecode.ObjectType), l.elems)
	}),
}
