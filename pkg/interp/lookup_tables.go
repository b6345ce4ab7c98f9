package interp

import (
	"math"
	"math/bits"
	"strconv"
	"strings"
	"unicode"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func knownInt(v value.Value) (int32, bool) {
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	i, ok := v.(*value.Int)
	if !ok || !i.Known() {
		return 0, false
	}
	return i.Value(), true
}

func knownLong(v value.Value) (int64, bool) {
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	l, ok := v.(*value.Long)
	if !ok || !l.Known() {
		return 0, false
	}
	return l.Value(), true
}

func knownFloat(v value.Value) (float32, bool) {
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	f, ok := v.(*value.Float)
	if !ok || !f.Known() {
		return 0, false
	}
	return f.Value(), true
}

func knownDouble(v value.Value) (float64, bool) {
	if b, ok := v.(*value.Boxed); ok {
		v = b.Unbox()
	}
	d, ok := v.(*value.Double)
	if !ok || !d.Known() {
		return 0, false
	}
	return d.Value(), true
}

func knownString(v value.Value) (string, bool) {
	s, ok := v.(*value.String)
	if !ok || !s.Known() {
		return "", false
	}
	return s.Value(), true
}

func ints(args []value.Value) ([]int32, bool) {
	out := make([]int32, len(args))
	for i, a := range args {
		v, ok := knownInt(a)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func longs(args []value.Value) ([]int64, bool) {
	out := make([]int64, len(args))
	for i, a := range args {
		v, ok := knownLong(a)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func doubles(args []value.Value) ([]float64, bool) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, ok := knownDouble(a)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func floats(args []value.Value) ([]float32, bool) {
	out := make([]float32, len(args))
	for i, a := range args {
		v, ok := knownFloat(a)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Adapters from plain Go functions to table entries.

func intFn(fn func(x []int32) value.Value) StaticFunc {
	return func(args []value.Value) (value.Value, bool) {
		x, ok := ints(args)
		if !ok {
			return nil, false
		}
		return fn(x), true
	}
}

func longFn(fn func(x []int64) value.Value) StaticFunc {
	return func(args []value.Value) (value.Value, bool) {
		x, ok := longs(args)
		if !ok {
			return nil, false
		}
		return fn(x), true
	}
}

func floatFn(fn func(x []float32) value.Value) StaticFunc {
	return func(args []value.Value) (value.Value, bool) {
		x, ok := floats(args)
		if !ok {
			return nil, false
		}
		return fn(x), true
	}
}

func doubleFn(fn func(x []float64) value.Value) StaticFunc {
	return func(args []value.Value) (value.Value, bool) {
		x, ok := doubles(args)
		if !ok {
			return nil, false
		}
		return fn(x), true
	}
}

func stringFn(fn func(s string) (value.Value, bool)) StaticFunc {
	return func(args []value.Value) (value.Value, bool) {
		if len(args) != 1 {
			return nil, false
		}
		s, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return fn(s)
	}
}

func str(s string) value.Value  { return value.NewString(s) }
func i32(v int32) value.Value   { return value.NewInt(v) }
func i64(v int64) value.Value   { return value.NewLong(v) }
func f64(v float64) value.Value { return value.NewDouble(v) }
func boolean(b bool) value.Value {
	return value.NewBool(b)
}

func char(c int32) value.Value { return value.NewChar(uint16(c)) }

// ---------------------------------------------------------------------------
// Static calls
// ---------------------------------------------------------------------------

// BasicStaticLookup models pure static methods of core library classes.
var BasicStaticLookup = StaticTable{
	// java/lang/Math
	"java/lang/Math.abs(I)I": intFn(func(x []int32) value.Value {
		if x[0] < 0 {
			return i32(-x[0])
		}
		return i32(x[0])
	}),
	"java/lang/Math.abs(J)J": longFn(func(x []int64) value.Value {
		if x[0] < 0 {
			return i64(-x[0])
		}
		return i64(x[0])
	}),
	"java/lang/Math.abs(F)F": floatFn(func(x []float32) value.Value {
		return value.NewFloat(float32(math.Abs(float64(x[0]))))
	}),
	"java/lang/Math.abs(D)D": doubleFn(func(x []float64) value.Value { return f64(math.Abs(x[0])) }),
	"java/lang/Math.max(II)I": intFn(func(x []int32) value.Value {
		if x[0] > x[1] {
			return i32(x[0])
		}
		return i32(x[1])
	}),
	"java/lang/Math.min(II)I": intFn(func(x []int32) value.Value {
		if x[0] < x[1] {
			return i32(x[0])
		}
		return i32(x[1])
	}),
	"java/lang/Math.max(JJ)J": longFn(func(x []int64) value.Value {
		if x[0] > x[1] {
			return i64(x[0])
		}
		return i64(x[1])
	}),
	"java/lang/Math.min(JJ)J": longFn(func(x []int64) value.Value {
		if x[0] < x[1] {
			return i64(x[0])
		}
		return i64(x[1])
	}),
	"java/lang/Math.max(DD)D": doubleFn(func(x []float64) value.Value { return f64(javaMax(x[0], x[1])) }),
	"java/lang/Math.min(DD)D": doubleFn(func(x []float64) value.Value { return f64(javaMin(x[0], x[1])) }),
	"java/lang/Math.sqrt(D)D":  doubleFn(func(x []float64) value.Value { return f64(math.Sqrt(x[0])) }),
	"java/lang/Math.cbrt(D)D":  doubleFn(func(x []float64) value.Value { return f64(math.Cbrt(x[0])) }),
	"java/lang/Math.pow(DD)D":  doubleFn(func(x []float64) value.Value { return f64(math.Pow(x[0], x[1])) }),
	"java/lang/Math.floor(D)D": doubleFn(func(x []float64) value.Value { return f64(math.Floor(x[0])) }),
	"java/lang/Math.ceil(D)D":  doubleFn(func(x []float64) value.Value { return f64(math.Ceil(x[0])) }),
	"java/lang/Math.rint(D)D":  doubleFn(func(x []float64) value.Value { return f64(math.RoundToEven(x[0])) }),
	"java/lang/Math.round(D)J": doubleFn(func(x []float64) value.Value { return i64(RoundD(x[0])) }),
	"java/lang/Math.round(F)I": floatFn(func(x []float32) value.Value { return i32(RoundF(x[0])) }),
	"java/lang/Math.floorDiv(II)I": func(args []value.Value) (value.Value, bool) {
		x, ok := ints(args)
		if !ok || x[1] == 0 {
			return nil, false
		}
		return i32(int32(FloorDiv(int64(x[0]), int64(x[1])))), true
	},
	"java/lang/Math.floorMod(II)I": func(args []value.Value) (value.Value, bool) {
		x, ok := ints(args)
		if !ok || x[1] == 0 {
			return nil, false
		}
		return i32(int32(FloorMod(int64(x[0]), int64(x[1])))), true
	},

	// java/lang/Integer
	"java/lang/Integer.parseInt(Ljava/lang/String;)I": stringFn(func(s string) (value.Value, bool) {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, false
		}
		return i32(int32(n)), true
	}),
	"java/lang/Integer.toString(I)Ljava/lang/String;":       intFn(func(x []int32) value.Value { return str(strconv.FormatInt(int64(x[0]), 10)) }),
	"java/lang/Integer.toHexString(I)Ljava/lang/String;":    intFn(func(x []int32) value.Value { return str(strconv.FormatUint(uint64(uint32(x[0])), 16)) }),
	"java/lang/Integer.toOctalString(I)Ljava/lang/String;":  intFn(func(x []int32) value.Value { return str(strconv.FormatUint(uint64(uint32(x[0])), 8)) }),
	"java/lang/Integer.toBinaryString(I)Ljava/lang/String;": intFn(func(x []int32) value.Value { return str(strconv.FormatUint(uint64(uint32(x[0])), 2)) }),
	"java/lang/Integer.bitCount(I)I":                        intFn(func(x []int32) value.Value { return i32(int32(bits.OnesCount32(uint32(x[0])))) }),
	"java/lang/Integer.reverse(I)I":                         intFn(func(x []int32) value.Value { return i32(int32(bits.Reverse32(uint32(x[0])))) }),
	"java/lang/Integer.reverseBytes(I)I":                    intFn(func(x []int32) value.Value { return i32(int32(bits.ReverseBytes32(uint32(x[0])))) }),
	"java/lang/Integer.rotateLeft(II)I":                     intFn(func(x []int32) value.Value { return i32(int32(bits.RotateLeft32(uint32(x[0]), int(x[1]&0x1f)))) }),
	"java/lang/Integer.rotateRight(II)I":                    intFn(func(x []int32) value.Value { return i32(int32(bits.RotateLeft32(uint32(x[0]), -int(x[1]&0x1f)))) }),
	"java/lang/Integer.numberOfLeadingZeros(I)I":            intFn(func(x []int32) value.Value { return i32(int32(bits.LeadingZeros32(uint32(x[0])))) }),
	"java/lang/Integer.numberOfTrailingZeros(I)I":           intFn(func(x []int32) value.Value { return i32(int32(bits.TrailingZeros32(uint32(x[0])))) }),
	"java/lang/Integer.highestOneBit(I)I": intFn(func(x []int32) value.Value {
		if x[0] == 0 {
			return i32(0)
		}
		return i32(int32(uint32(1) << (31 - bits.LeadingZeros32(uint32(x[0])))))
	}),
	"java/lang/Integer.lowestOneBit(I)I": intFn(func(x []int32) value.Value { return i32(x[0] & -x[0]) }),
	"java/lang/Integer.signum(I)I":       intFn(func(x []int32) value.Value { return i32(sign64(int64(x[0]))) }),
	"java/lang/Integer.compare(II)I":     intFn(func(x []int32) value.Value { return i32(sign64(int64(x[0]) - int64(x[1]))) }),
	"java/lang/Integer.sum(II)I":         intFn(func(x []int32) value.Value { return i32(x[0] + x[1]) }),
	"java/lang/Integer.max(II)I": intFn(func(x []int32) value.Value {
		if x[0] > x[1] {
			return i32(x[0])
		}
		return i32(x[1])
	}),
	"java/lang/Integer.min(II)I": intFn(func(x []int32) value.Value {
		if x[0] < x[1] {
			return i32(x[0])
		}
		return i32(x[1])
	}),

	// java/lang/Long
	"java/lang/Long.parseLong(Ljava/lang/String;)J": stringFn(func(s string) (value.Value, bool) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return i64(n), true
	}),
	"java/lang/Long.toString(J)Ljava/lang/String;":    longFn(func(x []int64) value.Value { return str(strconv.FormatInt(x[0], 10)) }),
	"java/lang/Long.toHexString(J)Ljava/lang/String;": longFn(func(x []int64) value.Value { return str(strconv.FormatUint(uint64(x[0]), 16)) }),
	"java/lang/Long.bitCount(J)I":                     longFn(func(x []int64) value.Value { return i32(int32(bits.OnesCount64(uint64(x[0])))) }),
	"java/lang/Long.signum(J)I":                       longFn(func(x []int64) value.Value { return i32(sign64(x[0])) }),
	"java/lang/Long.compare(JJ)I": longFn(func(x []int64) value.Value {
		return i32(value.NewLong(x[0]).Compare(value.NewLong(x[1])))
	}),
	"java/lang/Long.sum(JJ)J": longFn(func(x []int64) value.Value { return i64(x[0] + x[1]) }),

	// java/lang/Double, java/lang/Float
	"java/lang/Double.isNaN(D)Z":                doubleFn(func(x []float64) value.Value { return boolean(math.IsNaN(x[0])) }),
	"java/lang/Double.doubleToRawLongBits(D)J":  doubleFn(func(x []float64) value.Value { return i64(int64(math.Float64bits(x[0]))) }),
	"java/lang/Double.longBitsToDouble(J)D":     longFn(func(x []int64) value.Value { return f64(math.Float64frombits(uint64(x[0]))) }),
	"java/lang/Float.isNaN(F)Z":                 floatFn(func(x []float32) value.Value { return boolean(x[0] != x[0]) }),
	"java/lang/Float.floatToRawIntBits(F)I":     floatFn(func(x []float32) value.Value { return i32(int32(math.Float32bits(x[0]))) }),
	"java/lang/Float.intBitsToFloat(I)F":        intFn(func(x []int32) value.Value { return value.NewFloat(math.Float32frombits(uint32(x[0]))) }),
	"java/lang/Double.toString(D)Ljava/lang/String;": doubleFn(func(x []float64) value.Value { return str(value.FormatDouble(x[0])) }),

	// java/lang/Character
	"java/lang/Character.isDigit(C)Z":      intFn(func(x []int32) value.Value { return boolean(unicode.IsDigit(rune(x[0]))) }),
	"java/lang/Character.isLetter(C)Z":     intFn(func(x []int32) value.Value { return boolean(unicode.IsLetter(rune(x[0]))) }),
	"java/lang/Character.isLetterOrDigit(C)Z": intFn(func(x []int32) value.Value {
		return boolean(unicode.IsLetter(rune(x[0])) || unicode.IsDigit(rune(x[0])))
	}),
	"java/lang/Character.isUpperCase(C)Z":  intFn(func(x []int32) value.Value { return boolean(unicode.IsUpper(rune(x[0]))) }),
	"java/lang/Character.isLowerCase(C)Z":  intFn(func(x []int32) value.Value { return boolean(unicode.IsLower(rune(x[0]))) }),
	"java/lang/Character.isWhitespace(C)Z": intFn(func(x []int32) value.Value { return boolean(isJavaWhitespace(x[0])) }),
	"java/lang/Character.toUpperCase(C)C":  intFn(func(x []int32) value.Value { return char(unicode.ToUpper(rune(x[0]))) }),
	"java/lang/Character.toLowerCase(C)C":  intFn(func(x []int32) value.Value { return char(unicode.ToLower(rune(x[0]))) }),
	"java/lang/Character.toString(C)Ljava/lang/String;": intFn(func(x []int32) value.Value {
		return str(value.FromUTF16([]uint16{uint16(x[0])}))
	}),

	// java/lang/String
	"java/lang/String.valueOf(I)Ljava/lang/String;": intFn(func(x []int32) value.Value { return str(strconv.FormatInt(int64(x[0]), 10)) }),
	"java/lang/String.valueOf(J)Ljava/lang/String;": longFn(func(x []int64) value.Value { return str(strconv.FormatInt(x[0], 10)) }),
	"java/lang/String.valueOf(Z)Ljava/lang/String;": intFn(func(x []int32) value.Value { return str(strconv.FormatBool(x[0] != 0)) }),
	"java/lang/String.valueOf(C)Ljava/lang/String;": intFn(func(x []int32) value.Value {
		return str(value.FromUTF16([]uint16{uint16(x[0])}))
	}),
	"java/lang/String.valueOf(F)Ljava/lang/String;": floatFn(func(x []float32) value.Value { return str(value.FormatFloat(x[0])) }),
	"java/lang/String.valueOf(D)Ljava/lang/String;": doubleFn(func(x []float64) value.Value { return str(value.FormatDouble(x[0])) }),
	"java/lang/String.valueOf([C)Ljava/lang/String;": func(args []value.Value) (value.Value, bool) {
		s, ok := charArrayString(args[0])
		if !ok {
			return nil, false
		}
		return str(s), true
	},
}

// ---------------------------------------------------------------------------
// Virtual calls
// ---------------------------------------------------------------------------

func onString(fn func(s string, args []value.Value) (value.Value, bool)) VirtualFunc {
	return func(recv value.Value, args []value.Value) (value.Value, bool) {
		s, ok := knownString(recv)
		if !ok {
			return nil, false
		}
		return fn(s, args)
	}
}

func unbox(fn func(v value.Value) (value.Value, bool)) VirtualFunc {
	return func(recv value.Value, _ []value.Value) (value.Value, bool) {
		b, ok := recv.(*value.Boxed)
		if !ok || !b.Known() {
			return nil, false
		}
		return fn(b.Unbox())
	}
}

// BasicVirtualLookup models instance methods on known strings and boxes.
var BasicVirtualLookup = VirtualTable{
	"java/lang/String.length()I": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return i32(int32(value.JavaLength(s))), true
	}),
	"java/lang/String.isEmpty()Z": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return boolean(s == ""), true
	}),
	"java/lang/String.charAt(I)C": onString(func(s string, args []value.Value) (value.Value, bool) {
		i, ok := knownInt(args[0])
		if !ok {
			return nil, false
		}
		c, err := value.CharAt(s, int(i))
		if err != nil {
			return nil, false
		}
		return value.NewChar(c), true
	}),
	"java/lang/String.substring(I)Ljava/lang/String;": onString(func(s string, args []value.Value) (value.Value, bool) {
		b, ok := knownInt(args[0])
		if !ok {
			return nil, false
		}
		sub, err := value.Substring(s, int(b), value.JavaLength(s))
		if err != nil {
			return nil, false
		}
		return str(sub), true
	}),
	"java/lang/String.substring(II)Ljava/lang/String;": onString(func(s string, args []value.Value) (value.Value, bool) {
		x, ok := ints(args)
		if !ok {
			return nil, false
		}
		sub, err := value.Substring(s, int(x[0]), int(x[1]))
		if err != nil {
			return nil, false
		}
		return str(sub), true
	}),
	"java/lang/String.indexOf(Ljava/lang/String;)I": onString(func(s string, args []value.Value) (value.Value, bool) {
		sub, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return i32(int32(value.IndexOf(s, sub, 0))), true
	}),
	"java/lang/String.indexOf(I)I": onString(func(s string, args []value.Value) (value.Value, bool) {
		c, ok := knownInt(args[0])
		if !ok {
			return nil, false
		}
		return i32(int32(value.IndexOf(s, string(rune(c)), 0))), true
	}),
	"java/lang/String.equals(Ljava/lang/Object;)Z": onString(func(s string, args []value.Value) (value.Value, bool) {
		eq, ok := value.Equal(value.NewString(s), args[0])
		if !ok {
			return nil, false
		}
		return boolean(eq), true
	}),
	"java/lang/String.equalsIgnoreCase(Ljava/lang/String;)Z": onString(func(s string, args []value.Value) (value.Value, bool) {
		o, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return boolean(strings.EqualFold(s, o)), true
	}),
	"java/lang/String.hashCode()I": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return i32(value.HashCode(s)), true
	}),
	"java/lang/String.toUpperCase()Ljava/lang/String;": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return str(strings.ToUpper(s)), true
	}),
	"java/lang/String.toLowerCase()Ljava/lang/String;": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return str(strings.ToLower(s)), true
	}),
	"java/lang/String.trim()Ljava/lang/String;": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return str(strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })), true
	}),
	"java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;": onString(func(s string, args []value.Value) (value.Value, bool) {
		o, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return str(s + o), true
	}),
	"java/lang/String.contains(Ljava/lang/CharSequence;)Z": onString(func(s string, args []value.Value) (value.Value, bool) {
		o, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return boolean(strings.Contains(s, o)), true
	}),
	"java/lang/String.startsWith(Ljava/lang/String;)Z": onString(func(s string, args []value.Value) (value.Value, bool) {
		o, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return boolean(strings.HasPrefix(s, o)), true
	}),
	"java/lang/String.endsWith(Ljava/lang/String;)Z": onString(func(s string, args []value.Value) (value.Value, bool) {
		o, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return boolean(strings.HasSuffix(s, o)), true
	}),
	"java/lang/String.replace(CC)Ljava/lang/String;": onString(func(s string, args []value.Value) (value.Value, bool) {
		x, ok := ints(args)
		if !ok {
			return nil, false
		}
		units := value.ToUTF16(s)
		for i, u := range units {
			if u == uint16(x[0]) {
				units[i] = uint16(x[1])
			}
		}
		return str(value.FromUTF16(units)), true
	}),
	"java/lang/String.compareTo(Ljava/lang/String;)I": onString(func(s string, args []value.Value) (value.Value, bool) {
		o, ok := knownString(args[0])
		if !ok {
			return nil, false
		}
		return i32(compareUTF16(s, o)), true
	}),
	"java/lang/String.toCharArray()[C": onString(func(s string, _ []value.Value) (value.Value, bool) {
		units := value.ToUTF16(s)
		elems := make([]value.Value, len(units))
		for i, u := range units {
			elems[i] = value.NewChar(u)
		}
		return value.NewArray(bytecode.MustParseType("[C"), elems), true
	}),
	"java/lang/String.toString()Ljava/lang/String;": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return str(s), true
	}),
	"java/lang/String.intern()Ljava/lang/String;": onString(func(s string, _ []value.Value) (value.Value, bool) {
		return str(s), true
	}),

	"java/lang/Integer.intValue()I":     unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Integer.longValue()J":    unbox(func(v value.Value) (value.Value, bool) { n, ok := knownInt(v); return i64(int64(n)), ok }),
	"java/lang/Integer.doubleValue()D":  unbox(func(v value.Value) (value.Value, bool) { n, ok := knownInt(v); return f64(float64(n)), ok }),
	"java/lang/Long.longValue()J":       unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Long.intValue()I":        unbox(func(v value.Value) (value.Value, bool) { n, ok := knownLong(v); return i32(int32(n)), ok }),
	"java/lang/Double.doubleValue()D":   unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Float.floatValue()F":     unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Boolean.booleanValue()Z": unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Character.charValue()C":  unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Byte.byteValue()B":       unbox(func(v value.Value) (value.Value, bool) { return v, true }),
	"java/lang/Short.shortValue()S":     unbox(func(v value.Value) (value.Value, bool) { return v, true }),
}

// ---------------------------------------------------------------------------
// Static fields
// ---------------------------------------------------------------------------

// BasicFieldLookup models well-known constant fields.
var BasicFieldLookup = FieldTable{
	"java/lang/Integer.MAX_VALUEI":           value.NewInt(math.MaxInt32),
	"java/lang/Integer.MIN_VALUEI":           value.NewInt(math.MinInt32),
	"java/lang/Integer.SIZEI":                value.NewInt(32),
	"java/lang/Long.MAX_VALUEJ":              value.NewLong(math.MaxInt64),
	"java/lang/Long.MIN_VALUEJ":              value.NewLong(math.MinInt64),
	"java/lang/Long.SIZEI":                   value.NewInt(64),
	"java/lang/Short.MAX_VALUES":             value.NewShort(math.MaxInt16),
	"java/lang/Short.MIN_VALUES":             value.NewShort(math.MinInt16),
	"java/lang/Byte.MAX_VALUEB":              value.NewByte(math.MaxInt8),
	"java/lang/Byte.MIN_VALUEB":              value.NewByte(math.MinInt8),
	"java/lang/Character.MAX_VALUEC":         value.NewChar(math.MaxUint16),
	"java/lang/Character.MIN_VALUEC":         value.NewChar(0),
	"java/lang/Math.PID":                     value.NewDouble(math.Pi),
	"java/lang/Math.ED":                      value.NewDouble(math.E),
	"java/lang/Double.MAX_VALUED":            value.NewDouble(math.MaxFloat64),
	"java/lang/Double.MIN_VALUED":            value.NewDouble(math.SmallestNonzeroFloat64),
	"java/lang/Double.NaND":                  value.NewDouble(math.NaN()),
	"java/lang/Double.POSITIVE_INFINITYD":    value.NewDouble(math.Inf(1)),
	"java/lang/Double.NEGATIVE_INFINITYD":    value.NewDouble(math.Inf(-1)),
	"java/lang/Float.MAX_VALUEF":             value.NewFloat(math.MaxFloat32),
	"java/lang/Float.MIN_VALUEF":             value.NewFloat(math.SmallestNonzeroFloat32),
	"java/lang/Float.NaNF":                   value.NewFloat(float32(math.NaN())),
	"java/lang/Float.POSITIVE_INFINITYF":     value.NewFloat(float32(math.Inf(1))),
	"java/lang/Float.NEGATIVE_INFINITYF":     value.NewFloat(float32(math.Inf(-1))),
	"java/lang/Boolean.TRUELjava/lang/Boolean;":  value.NewBoxed(bytecode.ObjectTypeOf("java/lang/Boolean"), value.NewBool(true)),
	"java/lang/Boolean.FALSELjava/lang/Boolean;": value.NewBoxed(bytecode.ObjectTypeOf("java/lang/Boolean"), value.NewBool(false)),
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func sign64(v int64) int32 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func javaMax(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return math.Max(a, b)
}

func javaMin(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return math.Min(a, b)
}

func isJavaWhitespace(c int32) bool {
	switch c {
	case '\u00a0', '\u2007', '\u202f':
		return false
	case '\t', '\n', '\u000b', '\f', '\r', '\u001c', '\u001d', '\u001e', '\u001f':
		return true
	}
	return unicode.IsSpace(rune(c))
}

func compareUTF16(a, b string) int32 {
	x, y := value.ToUTF16(a), value.ToUTF16(b)
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		if x[i] != y[i] {
			return int32(x[i]) - int32(y[i])
		}
	}
	return int32(len(x) - len(y))
}

func charArrayString(v value.Value) (string, bool) {
	arr, ok := v.(*value.Array)
	if !ok {
		return "", false
	}
	elems, ok := arr.Elements()
	if !ok {
		return "", false
	}
	units := make([]uint16, len(elems))
	for i, e := range elems {
		c, ok := knownInt(e)
		if !ok {
			return "", false
		}
		units[i] = uint16(c)
	}
	return value.FromUTF16(units), true
}
