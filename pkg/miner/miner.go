// Package miner implements the nonce search described in spec.md §4.E:
// given the current tip and a candidate body pulled from
// pkg/bodybuilder, draw random 64-bit nonces, mix in the miner's secret
// key, and hash the mix to derive the block's low-192-bit PoW field,
// repeating up to MaxAttemptsPerSlice times before yielding back to the
// scheduler.
//
// Grounded on the teacher's pkg/miner/miner.go miningLoop/solveBlock,
// which bounds a mining attempt with context.WithTimeout(2*time.Second)
// and yields back to its loop on expiry; we replace the wall-clock
// timeout with an attempt-count bound (MaxAttemptsPerSlice) per the
// scheduler design, where the miner is itself just another task the
// cooperative scheduler reschedules rather than a goroutine racing a
// timer.
package miner

import (
	crand "crypto/rand"
	"math/rand/v2"
	"time"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/univ256"
)

// mask192 is 2^192 - 1, used to take the low 192 bits of a hashed nonce.
var mask192 = func() *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	return m.Sub(m, uint256.NewInt(1))
}()

// Miner draws mining nonces from a ChaCha8 stream seeded once from the
// OS CSPRNG at construction. math/rand/v2's ChaCha8 is used rather than
// math/rand's default source because it is safe for the long-running,
// high-draw-rate use a mining loop makes of it, and because no part of
// the nonce search needs to be reproducible across runs — only
// well-distributed. A weak source here would let peers predict or
// replay nonces, per spec.md §9's randomness note.
type Miner struct {
	rng       *rand.ChaCha8
	secretKey *uint256.Int
}

// New returns a Miner seeded from crypto/rand, mixing secretKey into
// every nonce it derives. secretKey is the configured --secret-key value
// (0 if unset); it personalizes mined blocks without needing to stay
// secret for PoW soundness.
func New(secretKey *uint256.Int) (*Miner, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, err
	}
	if secretKey == nil {
		secretKey = new(uint256.Int)
	}
	return &Miner{rng: rand.NewChaCha8(seed), secretKey: secretKey}, nil
}

// Attempt tries up to MaxAttemptsPerSlice nonces extending tipHash with
// body, stamping each trial with the wall-clock time now. It returns the
// first block whose hash exceeds tipTarget, along with the rand value
// that produced it (persisted by the caller into the mined directory),
// or ok == false if the budget was exhausted — the caller (pkg/node's
// scheduler) is expected to call Attempt again on the next tick, against
// a possibly-updated tip and body.
func (m *Miner) Attempt(now time.Time, tipHash ubilog.Hash, tipTarget *uint256.Int, body ubilog.Body) (ubilog.Block, uint64, bool) {
	nowMillis := uint64(now.UnixMilli())

	for i := 0; i < ubilog.MaxAttemptsPerSlice; i++ {
		randBits := m.rng.Uint64()

		nonce := new(uint256.Int).Lsh(m.secretKey, 64)
		nonce.Or(nonce, new(uint256.Int).SetUint64(randBits))
		nonceBytes := nonce.Bytes32()

		hashed := ubilog.Keccak256(nonceBytes[:])
		low192 := new(uint256.Int).And(univ256.NumericFromHash(hashed), mask192)

		c := ubilog.Block{
			Prev: tipHash,
			Time: ubilog.PackTime(nowMillis, low192),
			Body: body,
		}

		h := ubilog.HashBlock(c)
		if univ256.NumericFromHash(h).Cmp(tipTarget) > 0 {
			return c, randBits, true
		}
	}

	return ubilog.Block{}, 0, false
}
