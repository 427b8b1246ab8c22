package cli

import (
	"fmt"
	"strconv"
)

// humanScaleSuffixes are the original's human_readable binary-autoscale
// suffixes (human_base_1024): each one multiplies the previous by 1024.
const humanScaleSuffixes = "KMGTPE"

// humanSize renders n the way the original's human_readable(..., human_
// autoscale|human_SI|human_base_1024|human_B, ...) does for progress
// reporting: plain digits below 1024, otherwise one decimal place and a
// binary-scaled suffix (1536 -> "1.5K", 5*1<<20 -> "5.0M").
func humanSize(n int64) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10)
	}

	div := int64(1024)
	exp := 0

	for v := n / 1024; v >= 1024 && exp < len(humanScaleSuffixes)-1; v /= 1024 {
		div *= 1024
		exp++
	}

	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), humanScaleSuffixes[exp])
}
