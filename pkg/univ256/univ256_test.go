package univ256

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestComputeTargetDifficultyRoundTrip(t *testing.T) {
	cases := []uint64{1, 2, 3, 7, 1000, 1 << 20, 1 << 32}
	for _, d := range cases {
		diff := uint256.NewInt(d)
		target := ComputeTarget(diff)
		got := Difficulty(target)
		if !got.Eq(diff) {
			t.Errorf("Difficulty(ComputeTarget(%d)) = %s; want %d", d, got.String(), d)
		}
	}
}

func TestComputeTargetOfOneIsZero(t *testing.T) {
	// compute_target(1) = 2^256 - 2^256/1 = 0: difficulty 1 is the easiest
	// possible target, not the hardest.
	got := ComputeTarget(uint256.NewInt(1))
	if !got.IsZero() {
		t.Fatalf("ComputeTarget(1) = %s; want 0", got.String())
	}
}

func TestDifficultyAtHighDifficultyRegimeDoesNotUnderflow(t *testing.T) {
	// target = 2^256 - 2: denom should be 2, giving difficulty 2^255, not
	// a wraparound to 0 from the off-by-one denominator bug.
	target := new(uint256.Int).Sub(maxU256, uint256.NewInt(1))
	got := Difficulty(target)
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	if !got.Eq(want) {
		t.Fatalf("Difficulty(2^256-2) = %s; want 2^255 = %s", got.String(), want.String())
	}
}

func TestDifficultyOfZeroTargetIsOne(t *testing.T) {
	got := Difficulty(new(uint256.Int))
	if !got.Eq(uint256.NewInt(1)) {
		t.Fatalf("Difficulty(0) = %s; want 1", got.String())
	}
}

func TestDifficultyIsMonotonicWithTarget(t *testing.T) {
	// A larger target is a harder target (fewer hashes satisfy hash >=
	// target), so difficulty must increase as target increases.
	// Targets near 2^256 are used because 2^256/(2^256-target) rounds down
	// to 1 for every target below 2^255: 2^255 gives 2, 2^256-2^254 gives 4.
	lo := Difficulty(new(uint256.Int).Lsh(uint256.NewInt(1), 255))
	hi := Difficulty(new(uint256.Int).Sub(new(uint256.Int), new(uint256.Int).Lsh(uint256.NewInt(1), 254)))
	if lo.Cmp(hi) >= 0 {
		t.Fatalf("Difficulty(2^255) = %s should be < Difficulty(2^256-2^254) = %s", lo.String(), hi.String())
	}
}

func TestNextTargetEasesWhenBlocksArriveSlowerThanExpected(t *testing.T) {
	prevTarget := ComputeTarget(uint256.NewInt(1 << 20))
	targetPeriod := int64(2016) * int64(30_000_000_000) // BlocksPerPeriod * TimePerBlock in ns
	observedSlower := targetPeriod * 2                  // took twice as long as expected

	scale := Scale(targetPeriod, observedSlower)
	next := NextTarget(prevTarget, scale)

	if Difficulty(next).Cmp(Difficulty(prevTarget)) >= 0 {
		t.Fatalf("difficulty should decrease when blocks arrive slower than expected")
	}
}

func TestNextTargetTightensWhenBlocksArriveFasterThanExpected(t *testing.T) {
	prevTarget := ComputeTarget(uint256.NewInt(1 << 20))
	targetPeriod := int64(2016) * int64(30_000_000_000)
	observedFaster := targetPeriod / 2 // took half as long as expected

	scale := Scale(targetPeriod, observedFaster)
	next := NextTarget(prevTarget, scale)

	if Difficulty(next).Cmp(Difficulty(prevTarget)) <= 0 {
		t.Fatalf("difficulty should increase when blocks arrive faster than expected")
	}
}

func TestNextTargetHoldsSteadyWhenObservedMatchesExpected(t *testing.T) {
	prevTarget := ComputeTarget(uint256.NewInt(1 << 20))
	targetPeriod := int64(2016) * int64(30_000_000_000)

	scale := Scale(targetPeriod, targetPeriod)
	next := NextTarget(prevTarget, scale)

	prevDiff := Difficulty(prevTarget)
	nextDiff := Difficulty(next)
	// Integer-division rounding means this isn't exact, but it should
	// land within 1 of the previous difficulty.
	diff := new(uint256.Int).Sub(prevDiff, nextDiff)
	if prevDiff.Cmp(nextDiff) < 0 {
		diff = new(uint256.Int).Sub(nextDiff, prevDiff)
	}
	if diff.Cmp(uint256.NewInt(1)) > 0 {
		t.Fatalf("difficulty drifted from %s to %s on a steady-state period", prevDiff.String(), nextDiff.String())
	}
}

func TestGreaterOrEqual(t *testing.T) {
	target := uint256.NewInt(100)
	if !GreaterOrEqual(uint256.NewInt(100), target) {
		t.Fatal("100 >= 100 should hold")
	}
	if !GreaterOrEqual(uint256.NewInt(101), target) {
		t.Fatal("101 >= 100 should hold")
	}
	if GreaterOrEqual(uint256.NewInt(99), target) {
		t.Fatal("99 >= 100 should not hold")
	}
}

func TestDifficultyOfNumericTreatsZeroHashAsZeroWork(t *testing.T) {
	got := DifficultyOfNumeric(new(uint256.Int))
	if !got.IsZero() {
		t.Fatalf("DifficultyOfNumeric(0) = %s; want 0", got.String())
	}
}

func TestNumericFromHashInterpretsBigEndian(t *testing.T) {
	var h [32]byte
	h[31] = 1
	got := NumericFromHash(h)
	if !got.Eq(uint256.NewInt(1)) {
		t.Fatalf("NumericFromHash(...01) = %s; want 1", got.String())
	}
}
