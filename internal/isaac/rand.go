package isaac

import "math"

// Rand is a word-at-a-time wrapper around a [State]. It holds a reservoir of
// Words freshly-refilled words and draws from the end of the reservoir
// first, since the final words of an ISAAC block are marginally better
// mixed than the first.
type Rand struct {
	state *State
	buf   [Words]uint32
	left  int
}

// NewRand wraps state for word-at-a-time extraction. state must already be
// seeded (SeedStart/SeedData.../SeedFinish).
func NewRand(state *State) *Rand {
	return &Rand{state: state}
}

// U32 returns one 32-bit word, refilling the reservoir when it is empty.
func (r *Rand) U32() uint32 {
	if r.left == 0 {
		r.state.refill(&r.buf)
		r.left = Words
	}

	r.left--

	return r.buf[r.left]
}

// Uniform returns a value uniformly distributed in [0, n], by rejection
// sampling against the bias introduced by reducing a 32-bit draw modulo
// n+1. When n is math.MaxUint32, n+1 would overflow to zero, so the raw
// draw is returned directly — it is already uniform over the full range.
func (r *Rand) Uniform(n uint32) uint32 {
	if n == math.MaxUint32 {
		return r.U32()
	}

	m := n + 1
	lim := -m % m // == 2^32 mod m

	for {
		x := r.U32()
		if x >= lim {
			return x % m
		}
	}
}
