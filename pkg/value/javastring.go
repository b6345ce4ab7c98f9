package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/chazu/bceval/pkg/bytecode"
)

// Strings are held as Go strings, but the modelled runtime indexes them in
// UTF-16 code units. These helpers give the runtime's answers.

// ToUTF16 returns the UTF-16 code units of s.
func ToUTF16(s string) []uint16 { return utf16.Encode([]rune(s)) }

// FromUTF16 decodes UTF-16 code units into a string.
func FromUTF16(units []uint16) string { return string(utf16.Decode(units)) }

// JavaLength returns the length of s in UTF-16 code units.
func JavaLength(s string) int { return len(ToUTF16(s)) }

// CharAt returns the code unit at index i.
func CharAt(s string, i int) (uint16, error) {
	units := ToUTF16(s)
	if i < 0 || i >= len(units) {
		return 0, fmt.Errorf("string index out of range: %d", i)
	}
	return units[i], nil
}

// Substring returns the code units in [begin, end).
func Substring(s string, begin, end int) (string, error) {
	units := ToUTF16(s)
	if begin < 0 || end > len(units) || begin > end {
		return "", fmt.Errorf("begin %d, end %d, length %d", begin, end, len(units))
	}
	return FromUTF16(units[begin:end]), nil
}

// IndexOf returns the code-unit index of the first occurrence of sub at or
// after from, or -1.
func IndexOf(s, sub string, from int) int {
	hay := ToUTF16(s)
	needle := ToUTF16(sub)
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// HashCode returns the runtime's string hash: s[0]*31^(n-1) + ... + s[n-1].
func HashCode(s string) int32 {
	var h int32
	for _, c := range ToUTF16(s) {
		h = 31*h + int32(c)
	}
	return h
}

// FormatDouble renders a double the way String.valueOf(double) does for
// the common cases: integral values keep a trailing ".0".
func FormatDouble(d float64) string {
	switch {
	case math.IsNaN(d):
		return "NaN"
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	}
	return formatJavaFloating(d, 64)
}

// FormatFloat renders a float the way String.valueOf(float) does for the
// common cases.
func FormatFloat(f float32) string {
	d := float64(f)
	switch {
	case math.IsNaN(d):
		return "NaN"
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	}
	return formatJavaFloating(d, 32)
}

func formatJavaFloating(d float64, bits int) string {
	if d == 0 {
		if math.Signbit(d) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(d)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(d, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	// Computerized scientific notation: 1.0E10, 1.234E-5.
	s := strconv.FormatFloat(d, 'e', -1, bits)
	mant, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	sign := ""
	if strings.HasPrefix(exp, "-") {
		sign = "-"
	}
	exp = strings.TrimLeft(exp[1:], "0")
	return mant + "E" + sign + exp
}

// ToJavaString renders v the way String.valueOf would. It reports false
// when the text depends on something unknown, such as an object's identity.
func ToJavaString(v Value) (string, bool) {
	switch x := v.(type) {
	case *String:
		return x.v, x.known
	case *Boxed:
		return ToJavaString(x.inner)
	case *Int:
		if !x.known {
			return "", false
		}
		switch x.typ.Sort() {
		case bytecode.SortBoolean:
			return strconv.FormatBool(x.v != 0), true
		case bytecode.SortChar:
			return FromUTF16([]uint16{uint16(x.v)}), true
		}
		return strconv.FormatInt(int64(x.v), 10), true
	case *Long:
		return strconv.FormatInt(x.v, 10), x.known
	case *Float:
		return FormatFloat(x.v), x.known
	case *Double:
		return FormatDouble(x.v), x.known
	case *Object:
		if x.nullness == IsNull {
			return "null", true
		}
	case *Instanced:
		if x.backing != nil {
			if snap, ok := x.backing.Snapshot(); ok {
				return ToJavaString(snap)
			}
		}
	}
	return "", false
}
