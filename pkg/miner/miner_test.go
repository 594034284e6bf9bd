package miner

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/univ256"
)

func TestAttemptFindsBlockAgainstEasyTarget(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A target of 0 is exceeded by almost every hash.
	target := new(uint256.Int)

	b, rnd, ok := m.Attempt(time.Now(), ubilog.ZeroHash, target, nil)
	if !ok {
		t.Fatalf("Attempt against an easy target should succeed within the attempt budget")
	}
	_ = rnd
	if b.Prev != ubilog.ZeroHash {
		t.Fatalf("mined block has wrong Prev: %v", b.Prev)
	}

	h := ubilog.HashBlock(b)
	numeric := univ256.NumericFromHash(h)
	if numeric.Cmp(target) <= 0 {
		t.Fatalf("mined block's hash does not exceed its own target")
	}
}

func TestAttemptExhaustsBudgetAgainstImpossibleTarget(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A target of 2^256-1 (the maximum representable value) can never be
	// exceeded by any 256-bit hash.
	maxTarget := new(uint256.Int).Not(new(uint256.Int))

	if _, _, ok := m.Attempt(time.Now(), ubilog.ZeroHash, maxTarget, nil); ok {
		t.Fatalf("Attempt against the maximum target should never succeed")
	}
}

func TestAttemptStampsSuppliedTimestamp(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.UnixMilli(1_700_000_000_000)
	target := new(uint256.Int)

	b, _, ok := m.Attempt(now, ubilog.ZeroHash, target, nil)
	if !ok {
		t.Fatalf("Attempt should succeed against an easy target")
	}
	if b.TimestampMillis() != uint64(now.UnixMilli()) {
		t.Fatalf("TimestampMillis() = %d; want %d", b.TimestampMillis(), now.UnixMilli())
	}
}

func TestAttemptMixesInSecretKey(t *testing.T) {
	now := time.Now()
	target := new(uint256.Int)

	m1, _ := New(uint256.NewInt(1))
	m2, _ := New(uint256.NewInt(2))

	b1, _, ok1 := m1.Attempt(now, ubilog.ZeroHash, target, nil)
	b2, _, ok2 := m2.Attempt(now, ubilog.ZeroHash, target, nil)
	if !ok1 || !ok2 {
		t.Fatalf("both miners should succeed against an easy target")
	}
	if b1.Nonce192().Cmp(b2.Nonce192()) == 0 {
		t.Fatalf("different secret keys should (almost certainly) derive different nonce fields")
	}
}
