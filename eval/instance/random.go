package instance

import (
	"fmt"
	"math"

	"github.com/chazu/bceval/pkg/value"
)

// The linear congruential generator of java.util.Random. Sequences match
// the runtime's exactly for the same seed.
const (
	lcgMultiplier = 0x5DEECE66D
	lcgAddend     = 0xB
	lcgMask       = (1 << 48) - 1
)

type random struct {
	seed             int64
	nextGaussian     float64
	haveNextGaussian bool
}

func newRandom(seed int64) *random {
	r := &random{}
	r.setSeed(seed)
	return r
}

func (r *random) Snapshot() (value.Value, bool) { return nil, false }

func (r *random) String() string { return fmt.Sprintf("Random(seed=%d)", r.seed) }

func (r *random) setSeed(seed int64) {
	r.seed = (seed ^ lcgMultiplier) & lcgMask
	r.haveNextGaussian = false
}

func (r *random) next(bits uint) int32 {
	r.seed = (r.seed*lcgMultiplier + lcgAddend) & lcgMask
	return int32(uint64(r.seed) >> (48 - bits))
}

func (r *random) nextInt() int32 { return r.next(32) }

func (r *random) nextIntBound(bound int32) (int32, error) {
	if bound <= 0 {
		return 0, fmt.Errorf("%w: bound must be positive", ErrIllegalArgument)
	}
	n := r.next(31)
	m := bound - 1
	if bound&m == 0 {
		return int32((int64(bound) * int64(n)) >> 31), nil
	}
	for u := n; ; u = r.next(31) {
		n = u % bound
		if u-n+m >= 0 {
			break
		}
	}
	return n, nil
}

func (r *random) nextLong() int64 {
	return int64(r.next(32))<<32 + int64(r.next(32))
}

func (r *random) nextBoolean() bool { return r.next(1) != 0 }

func (r *random) nextFloat() float32 { return float32(r.next(24)) / float32(1<<24) }

func (r *random) nextDouble() float64 {
	return float64(int64(r.next(26))<<27+int64(r.next(27))) * (1.0 / float64(int64(1)<<53))
}

func (r *random) nextGaussianValue() float64 {
	if r.haveNextGaussian {
		r.haveNextGaussian = false
		return r.nextGaussian
	}
	for {
		v1 := 2*r.nextDouble() - 1
		v2 := 2*r.nextDouble() - 1
		s := v1*v1 + v2*v2
		if s >= 1 || s == 0 {
			continue
		}
		multiplier := math.Sqrt(-2 * math.Log(s) / s)
		r.nextGaussian = v2 * multiplier
		r.haveNextGaussian = true
		return v1 * multiplier
	}
}
