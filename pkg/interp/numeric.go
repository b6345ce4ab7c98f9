package interp

import "math"

// Conversions from floating point follow the runtime's rules: NaN becomes
// zero and out-of-range values saturate.

// F2I converts with float-to-int semantics.
func F2I(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// F2L converts with float-to-long semantics.
func F2L(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// RoundD implements Math.round(double).
func RoundD(d float64) int64 {
	if math.IsNaN(d) {
		return 0
	}
	return F2L(math.Floor(d + 0.5))
}

// RoundF implements Math.round(float).
func RoundF(f float32) int32 {
	if f != f {
		return 0
	}
	return F2I(math.Floor(float64(f) + 0.5))
}

// FloorDiv implements Math.floorDiv for ints.
func FloorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

// FloorMod implements Math.floorMod for ints.
func FloorMod(x, y int64) int64 {
	return x - FloorDiv(x, y)*y
}
