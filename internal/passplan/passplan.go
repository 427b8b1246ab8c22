// Package passplan builds the sequence of overwrite passes for a requested
// pass count, drawing pattern passes from a fixed catalog and interleaving
// them with random passes at approximately uniform spacing.
package passplan

import (
	"errors"
	"fmt"
	"math"

	"github.com/coreutils/goshred/internal/isaac"
)

// Code identifies one overwrite pass: either [Random] (fill with fresh
// CSPRNG output) or a 13-bit pattern value. The low 12 bits are three hex
// nibbles, repeated to fill the buffer; bit 12, if set, additionally flips
// the high bit of every 512-byte-aligned buffer position after filling.
type Code int32

// Random is the sentinel pass code meaning "fill with fresh CSPRNG output".
const Random Code = -1

// IsRandom reports whether c is the random sentinel.
func (c Code) IsRandom() bool { return c == Random }

// ErrInvalidPassCount is returned by [Build] for N < 1 or for an N so large
// the plan array would overflow int arithmetic.
var ErrInvalidPassCount = errors.New("passplan: invalid pass count")

// block is one entry of the pass catalog: either a run of k random passes,
// or a fixed list of pattern codes. Exactly one of the two is populated.
type block struct {
	randomCount int
	patterns    []Code
}

// catalog is the declarative pass catalog from shred's design: 1-bit,
// 2-bit, 3-bit, and 4-bit patterns (the last two repeated with the
// per-512-byte-sector first-bit flip set), separated by random passes, with
// the whole list cycling back to the start when a request needs more blocks
// than it has.
var catalog = []block{
	{randomCount: 2},
	{patterns: []Code{0x000, 0xFFF}},
	{patterns: []Code{0x555, 0xAAA}},
	{randomCount: 1},
	{patterns: []Code{0x249, 0x492, 0x6DB, 0x924, 0xB6D, 0xDB6}},
	{patterns: []Code{0x111, 0x222, 0x333, 0x444, 0x666, 0x777, 0x888, 0x999, 0xBBB, 0xCCC, 0xDDD, 0xEEE}},
	{randomCount: 1},
	{patterns: []Code{0x1000, 0x1249, 0x1492, 0x16DB, 0x1924, 0x1B6D, 0x1DB6, 0x1FFF}},
	{patterns: []Code{0x1111, 0x1222, 0x1333, 0x1444, 0x1555, 0x1666, 0x1777, 0x1888, 0x1999, 0x1AAA, 0x1BBB, 0x1CCC, 0x1DDD, 0x1EEE}},
	{randomCount: 1},
}

// Build produces a plan of length n: a pseudorandom permutation of catalog
// pattern passes interleaved with random passes, with a random pass
// guaranteed at the first and last slot (for n >= 2). rng drives every
// selection and shuffle decision, so the same seed produces the same plan.
func Build(n int, rng *isaac.Rand) ([]Code, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPassCount, n)
	}

	// Guard against the plan array's byte length overflowing int, per the
	// original's documented open question about -n so large that n *
	// sizeof(pass code) overflows size_t.
	const codeSize = 4
	if int64(n) > math.MaxInt/codeSize {
		return nil, fmt.Errorf("%w: %d would overflow the plan buffer", ErrInvalidPassCount, n)
	}

	dest := make([]Code, n)
	randCount := selectPasses(dest, n, rng)
	interleave(dest, n, randCount, rng)

	return dest, nil
}

// selectPasses walks the catalog (cycling back to the start when
// exhausted), filling dest[0:top] with chosen pattern codes and returning
// how many of the n slots must be random passes. It mirrors shred's
// genpattern stage 1 exactly, including the reservoir-style partial-block
// selection.
func selectPasses(dest []Code, n int, rng *isaac.Rand) (randCount int) {
	top := 0
	remaining := n
	blockIdx := 0

	for {
		blk := catalog[blockIdx%len(catalog)]
		blockIdx++

		switch {
		case blk.randomCount > 0:
			k := blk.randomCount
			if k >= remaining {
				randCount += remaining
				remaining = 0

				return randCount
			}

			randCount += k
			remaining -= k

		default:
			k := len(blk.patterns)

			switch {
			case k <= remaining:
				copy(dest[top:], blk.patterns)
				top += k
				remaining -= k

			case remaining < 2 || 3*remaining < k:
				randCount += remaining
				remaining = 0

				return randCount

			default:
				// Reservoir-style pick: keep exactly `remaining` of the k
				// patterns in this block, walking them in order.
				kk := k
				for i := 0; remaining > 0; i++ {
					before := kk
					kk--

					selected := remaining == before
					if !selected {
						selected = int(rng.Uniform(uint32(kk))) < remaining
					}

					if selected {
						dest[top] = blk.patterns[i]
						top++
						remaining--
					}
				}

				return randCount
			}
		}
	}
}

// interleave distributes randCount random sentinels among the n plan slots
// so that one lands at the first slot, one at the last, and the rest are
// approximately evenly spaced (Bresenham-style), then shuffles the
// remaining pattern slots into random order.
func interleave(dest []Code, n, randCount int, rng *isaac.Rand) {
	if randCount == 0 {
		// Structurally unreachable with this catalog (its first block is
		// always random, so a build always yields randCount >= 1), but the
		// documented fallback for a custom catalog is a plain shuffle.
		for i := 0; i < n-1; i++ {
			j := i + int(rng.Uniform(uint32(n-1-i)))
			dest[i], dest[j] = dest[j], dest[i]
		}

		return
	}

	top := n - randCount
	randDec := randCount - 1
	accum := randDec

	for i := 0; i < n; i++ {
		if accum <= randDec {
			accum += n - 1
			dest[top] = dest[i]
			top++
			dest[i] = Random
		} else {
			swapWith := i + int(rng.Uniform(uint32(top-i-1)))
			dest[i], dest[swapWith] = dest[swapWith], dest[i]
		}

		accum -= randDec
	}
}

// Zero scrubs a plan buffer. Callers must zero the plan on every exit path
// from target processing, same as the CSPRNG state.
func Zero(plan []Code) {
	for i := range plan {
		plan[i] = 0
	}
}
