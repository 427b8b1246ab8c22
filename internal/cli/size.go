package cli

import (
	"fmt"
	"strconv"
)

// sizeSuffixes are the block-count suffixes spec.md §6 documents for -s/--size,
// each a power-of-1024 multiplier except c (bytes) and b (512-byte blocks),
// grounded on the original's xstrtol.c scale-by-power scheme.
var sizeSuffixes = map[byte]int64{
	'c': 1,
	'b': 512,
	'B': 1024,
	'k': 1024,
	'K': 1024,
	'M': 1024 * 1024,
	'G': 1024 * 1024 * 1024,
	'T': 1024 * 1024 * 1024 * 1024,
	'P': 1024 * 1024 * 1024 * 1024 * 1024,
	'E': 1024 * 1024 * 1024 * 1024 * 1024 * 1024,
	// Z (2^70) and Y (2^80) can never fit in an int64 byte count (max ~2^63),
	// so they are deliberately not accepted — any input using them fails the
	// integer parse below and is reported as an invalid size.
}

// parseSize parses a -s/--size argument: a decimal integer optionally
// followed by exactly one of the suffixes in [sizeSuffixes].
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty size", errInvalidSize)
	}

	last := s[len(s)-1]

	numPart := s
	mult := int64(1)

	if mult2, ok := sizeSuffixes[last]; ok {
		numPart = s[:len(s)-1]
		mult = mult2
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidSize, s)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %s", errInvalidSize, s)
	}

	result := n * mult
	if mult != 0 && result/mult != n {
		return 0, fmt.Errorf("%w: %s overflows", errInvalidSize, s)
	}

	return result, nil
}
