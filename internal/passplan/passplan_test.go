package passplan

import (
	"testing"

	"github.com/coreutils/goshred/internal/isaac"
	"github.com/stretchr/testify/require"
)

func newTestRand(seed string) *isaac.Rand {
	s := &isaac.State{}
	s.SeedStart()
	s.SeedData([]byte(seed))
	s.SeedFinish()

	return isaac.NewRand(s)
}

func TestBuildRejectsInvalidCount(t *testing.T) {
	_, err := Build(0, newTestRand("x"))
	require.ErrorIs(t, err, ErrInvalidPassCount)

	_, err = Build(-1, newTestRand("x"))
	require.ErrorIs(t, err, ErrInvalidPassCount)
}

func isKnownCatalogCode(c Code) bool {
	for _, blk := range catalog {
		for _, p := range blk.patterns {
			if p == c {
				return true
			}
		}
	}

	return false
}

func TestPlanComposition(t *testing.T) {
	for n := 1; n <= 200; n++ {
		plan, err := Build(n, newTestRand("plan-composition-seed"))
		require.NoError(t, err)
		require.Len(t, plan, n)

		randCount := 0

		for _, c := range plan {
			if c.IsRandom() {
				randCount++
				continue
			}

			require.Truef(t, isKnownCatalogCode(c), "n=%d: unexpected code %#x", n, c)
		}

		require.GreaterOrEqual(t, randCount, 1)

		if n >= 2 {
			require.True(t, plan[0].IsRandom(), "n=%d: first slot must be random", n)
			require.True(t, plan[n-1].IsRandom(), "n=%d: last slot must be random", n)
		}
	}
}

func TestCatalogCoverageAtTwentyFive(t *testing.T) {
	plan, err := Build(25, newTestRand("catalog-coverage-seed"))
	require.NoError(t, err)
	require.Len(t, plan, 25)

	counts := map[Code]int{}
	randCount := 0

	for _, c := range plan {
		if c.IsRandom() {
			randCount++
		} else {
			counts[c]++
		}
	}

	require.Equal(t, 3, randCount)

	oneBit := []Code{0x000, 0xFFF}
	twoBit := []Code{0x555, 0xAAA}
	threeBit := []Code{0x249, 0x492, 0x6DB, 0x924, 0xB6D, 0xDB6}
	fourBit := []Code{0x111, 0x222, 0x333, 0x444, 0x666, 0x777, 0x888, 0x999, 0xBBB, 0xCCC, 0xDDD, 0xEEE}

	assertAllPresentOnce := func(group []Code) {
		for _, c := range group {
			require.Equalf(t, 1, counts[c], "code %#x", c)
		}
	}

	assertAllPresentOnce(oneBit)
	assertAllPresentOnce(twoBit)
	assertAllPresentOnce(threeBit)
	assertAllPresentOnce(fourBit)

	total := len(oneBit) + len(twoBit) + len(threeBit) + len(fourBit)
	require.Equal(t, total, 25-3)
}

func TestBuildIsDeterministicForIdenticalSeed(t *testing.T) {
	plan1, err := Build(25, newTestRand("deterministic-seed-for-test"))
	require.NoError(t, err)

	plan2, err := Build(25, newTestRand("deterministic-seed-for-test"))
	require.NoError(t, err)

	require.Equal(t, plan1, plan2)
}

func TestBuildSingleSlot(t *testing.T) {
	plan, err := Build(1, newTestRand("single-slot-seed"))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.True(t, plan[0].IsRandom())
}

func TestZeroScrubsPlan(t *testing.T) {
	plan, err := Build(10, newTestRand("zero-scrub-seed"))
	require.NoError(t, err)

	Zero(plan)

	for _, c := range plan {
		require.Equal(t, Code(0), c)
	}
}

func TestBuildRejectsOverflowingCount(t *testing.T) {
	_, err := Build(1<<62, newTestRand("overflow-seed"))
	require.ErrorIs(t, err, ErrInvalidPassCount)
}
