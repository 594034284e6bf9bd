// Package univ256 implements the fixed-width 256-bit integer algebra used
// throughout ubilog: difficulty<->target conversion, retargeting, and the
// numeric reading of hashes. The keccak-based hash functions themselves
// (HashBlock, HashPoWSlice) live in pkg/ubilog.
//
// All 256-bit values are represented with github.com/holiman/uint256,
// the fixed-width integer type used across the go-ethereum family for
// exactly this kind of modular arithmetic without the allocation overhead
// of math/big.
package univ256

import (
	"github.com/holiman/uint256"
)

// maxU256 is the all-ones value 2^256 - 1. Since uint256.Int wraps at
// 2^256, 2^256 itself cannot be stored; the subtraction/division
// identities below work from maxU256 (== 2^256 - 1) instead.
var maxU256 = func() *uint256.Int {
	v := new(uint256.Int)
	return v.Not(v) // 0 - 1 wraps to 2^256 - 1
}()

// pow256Div computes floor(2^256 / d), reduced mod 2^256, for d != 0. Since
// 2^256 itself cannot be represented in a 256-bit type, this works from
// 2^256 == maxU256+1: write maxU256 == d*q0 + r0 (the ordinary 256-bit
// division); then floor((maxU256+1)/d) is q0 unless r0+1 == d, in which
// case the extra +1 carries into the quotient and it is q0+1 (the only
// point where adding 1 is warranted, rather than doing so unconditionally).
// When d == 1 the true quotient is exactly 2^256, which wraps to 0 — the
// one input for which this function's result is not the literal
// mathematical quotient, since that quotient does not fit in 256 bits.
func pow256Div(d *uint256.Int) *uint256.Int {
	q := new(uint256.Int).Div(maxU256, d)
	r := new(uint256.Int).Mod(maxU256, d)
	one := uint256.NewInt(1)
	if new(uint256.Int).Add(r, one).Eq(d) {
		q.Add(q, one)
	}
	return q
}

// Difficulty computes 2^256 / (2^256 - target) using integer division.
// A target of 0 (the always-valid hash, every numeric(h) satisfies
// hash >= 0) is difficulty 1, the floor; callers needing "a block hash
// of exactly 0 contributes zero work" special-case that before calling
// Difficulty (see DifficultyOfNumeric) rather than here, since target
// and a block's own numeric hash value mean different things.
func Difficulty(target *uint256.Int) *uint256.Int {
	if target.IsZero() {
		return uint256.NewInt(1)
	}
	// 0 - target wraps to 2^256 - target for target != 0, the true
	// denominator spec invariant 3 calls for (not maxU256 - target, which
	// is one short: maxU256 == 2^256 - 1).
	denom := new(uint256.Int).Sub(new(uint256.Int), target)
	return pow256Div(denom)
}

// ComputeTarget inverts Difficulty: target = 2^256 - 2^256/diff.
func ComputeTarget(diff *uint256.Int) *uint256.Int {
	if diff.IsZero() {
		return new(uint256.Int).Set(maxU256)
	}
	q := pow256Div(diff)
	// 0 - q wraps to 2^256 - q, matching the wraparound subtraction in
	// Difficulty above (including diff == 1, where q itself already
	// wrapped to 0, giving target == 0, the easiest possible target).
	return new(uint256.Int).Sub(new(uint256.Int), q)
}

// NextTarget computes the retargeted target given the previous target and
// a scale factor (a Q32.32-style fixed-point multiplier: scale ==
// floor(2^32 * TIME_PER_PERIOD / observed_period_time)).
//
// next_difficulty = 1 + (difficulty(prev_target)*scale - 1) / 2^32
func NextTarget(prevTarget *uint256.Int, scale uint64) *uint256.Int {
	d := Difficulty(prevTarget)
	scaled := new(uint256.Int).Mul(d, uint256.NewInt(scale))
	numerator := new(uint256.Int).Sub(scaled, uint256.NewInt(1))
	shifted := new(uint256.Int).Rsh(numerator, 32)
	nextDiff := shifted.Add(shifted, uint256.NewInt(1))
	return ComputeTarget(nextDiff)
}

// Scale computes floor(2^32 * targetPeriodNanos / observedPeriodNanos).
// An observed period of zero or less is treated as one nanosecond. The
// result is truncated to its low 64 bits.
func Scale(targetPeriodNanos, observedPeriodNanos int64) uint64 {
	if observedPeriodNanos <= 0 {
		observedPeriodNanos = 1
	}
	num := new(uint256.Int).Lsh(uint256.NewInt(uint64(targetPeriodNanos)), 32)
	den := uint256.NewInt(uint64(observedPeriodNanos))
	q := new(uint256.Int).Div(num, den)
	return q.Uint64()
}

// GreaterOrEqual reports whether the numeric value of hash h, interpreted
// as a big-endian 256-bit unsigned integer, is >= target. Used for PoW
// validity: numeric(hash_block(b)) >= target(b.prev).
func GreaterOrEqual(numeric, target *uint256.Int) bool {
	return numeric.Cmp(target) >= 0
}

// DifficultyOfNumeric computes a block's own work contribution:
// difficulty(h) = 2^256/(2^256-numeric(h)) if numeric(h) != 0, else 0,
// exactly as spec invariant 3 defines it. This differs from Difficulty
// (used for target<->difficulty conversion during retargeting) only in
// the zero case: a target of 0 is never retargeted to, but a block hash
// of exactly 0 must contribute zero work rather than the nonsensical
// "difficulty of the easiest possible target".
func DifficultyOfNumeric(numeric *uint256.Int) *uint256.Int {
	if numeric.IsZero() {
		return new(uint256.Int)
	}
	return Difficulty(numeric)
}

// NumericFromHash interprets a 32-byte hash as a big-endian unsigned
// 256-bit integer.
func NumericFromHash(h [32]byte) *uint256.Int {
	return new(uint256.Int).SetBytes(h[:])
}
