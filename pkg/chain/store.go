// Package chain implements the chain store and block ingestion described
// in spec.md §4.C/§4.D: an in-memory, hash-keyed index of every admitted
// block plus the worklist/cascade algorithm that admits new ones. This
// replaces the teacher's BadgerDB-backed blockchain.Chain/BlockStore pair
// (pkg/core/blockchain/{chain,store}.go in the teacher) with plain Go
// maps: there is no durable index here, because spec.md's persistence
// model is a flat append-only block log owned by pkg/diskstore, replayed
// at startup through the same Handle entry point a network peer's block
// would go through.
package chain

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/sliceset"
	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/univ256"
)

// Tip is the current best chain head: the block carrying the greatest
// accumulated work, with ties broken by arrival order (earliest wins),
// matching spec.md's note that fork-choice is total-work first and
// "first observed" is the asymmetric tiebreak the design leaves in place
// rather than silently resolving toward some canonical hash ordering.
type Tip struct {
	Hash ubilog.Hash
	Work *uint256.Int
}

// Store is the hash-keyed in-memory chain index. Every exported method
// is safe to call only from the node's single cooperative event-loop
// goroutine (spec.md §5); Store itself does no locking, the same way the
// teacher's Chain guarded all mutation with one sync.RWMutex rather than
// per-field locks, except here the "lock" is the architectural guarantee
// that only one goroutine ever touches a Store.
type Store struct {
	block       map[ubilog.Hash]ubilog.Block
	children    map[ubilog.Hash][]ubilog.Hash
	pending     map[ubilog.Hash][]ubilog.Block
	work        map[ubilog.Hash]*uint256.Int
	height      map[ubilog.Hash]uint64
	target      map[ubilog.Hash]*uint256.Int
	minedSlices map[ubilog.Hash]sliceset.Set
	seen        map[ubilog.Hash]bool
	arrival     map[ubilog.Hash]uint64

	nextArrival uint64
	tip         Tip
}

// New returns a Store seeded with genesis: every map carries an entry at
// ubilog.ZeroHash with work 0, height 0, target InitialTarget(), and an
// empty mined-slices set, per spec.md §4.C's initialization rule.
func New() *Store {
	s := &Store{
		block:       make(map[ubilog.Hash]ubilog.Block),
		children:    make(map[ubilog.Hash][]ubilog.Hash),
		pending:     make(map[ubilog.Hash][]ubilog.Block),
		work:        make(map[ubilog.Hash]*uint256.Int),
		height:      make(map[ubilog.Hash]uint64),
		target:      make(map[ubilog.Hash]*uint256.Int),
		minedSlices: make(map[ubilog.Hash]sliceset.Set),
		seen:        make(map[ubilog.Hash]bool),
		arrival:     make(map[ubilog.Hash]uint64),
	}
	s.block[ubilog.ZeroHash] = ubilog.Block{Prev: ubilog.ZeroHash}
	s.work[ubilog.ZeroHash] = new(uint256.Int)
	s.height[ubilog.ZeroHash] = 0
	s.target[ubilog.ZeroHash] = InitialTarget()
	s.minedSlices[ubilog.ZeroHash] = sliceset.Empty
	s.seen[ubilog.ZeroHash] = true
	s.arrival[ubilog.ZeroHash] = 0
	s.tip = Tip{Hash: ubilog.ZeroHash, Work: new(uint256.Int)}
	return s
}

// InitialTarget is the target attached to genesis's children before the
// first retarget, derived from ubilog.InitialDifficulty.
func InitialTarget() *uint256.Int {
	return univ256.ComputeTarget(uint256.NewInt(ubilog.InitialDifficulty))
}

// GetBlock returns the admitted block at hash h.
func (s *Store) GetBlock(h ubilog.Hash) (ubilog.Block, bool) {
	b, ok := s.block[h]
	return b, ok
}

// GetTarget returns the difficulty target active for children of h.
func (s *Store) GetTarget(h ubilog.Hash) (*uint256.Int, bool) {
	t, ok := s.target[h]
	return t, ok
}

// GetWork returns the accumulated work of the chain ending at h.
func (s *Store) GetWork(h ubilog.Hash) (*uint256.Int, bool) {
	w, ok := s.work[h]
	return w, ok
}

// GetHeight returns the height of h.
func (s *Store) GetHeight(h ubilog.Hash) (uint64, bool) {
	ht, ok := s.height[h]
	return ht, ok
}

// Seen reports whether h has ever been observed, admitted or not.
func (s *Store) Seen(h ubilog.Hash) bool {
	return s.seen[h]
}

// Tip returns the current best chain head.
func (s *Store) Tip() Tip {
	return s.tip
}

// PendingParents returns the distinct set of hashes that at least one
// parked orphan is waiting on. These are, by invariant 6, always hashes
// not yet in block — used by pkg/peerset's corrected requester variant
// to ask peers for missing ancestors.
func (s *Store) PendingParents() []ubilog.Hash {
	out := make([]ubilog.Hash, 0, len(s.pending))
	for h, waiters := range s.pending {
		if len(waiters) > 0 {
			out = append(out, h)
		}
	}
	return out
}

// PendingOrphanHashes returns hash_block(b) for every orphan b parked
// anywhere in pending, rather than the parent hashes they're waiting on.
// Exists only to let pkg/peerset reproduce the literal (buggy) requester
// reading of spec.md §4.G/§9: an orphan's own hash is always already
// marked seen by the time it is parked, so filtering this list by "seen
// == false" is always empty.
func (s *Store) PendingOrphanHashes() []ubilog.Hash {
	var out []ubilog.Hash
	for _, waiters := range s.pending {
		for _, b := range waiters {
			out = append(out, ubilog.HashBlock(b))
		}
	}
	return out
}

// GetLongestChain walks from the current tip back to genesis and returns
// the blocks in forward order, starting with genesis's child. The
// genesis sentinel itself is not included, so a genesis-only store
// returns an empty list.
func (s *Store) GetLongestChain() []ubilog.Block {
	return s.ChainFrom(s.tip.Hash)
}

// ChainFrom walks from h back towards genesis and returns the blocks in
// forward order, starting with genesis's child. The walk stops on
// reaching ZeroHash, so the genesis sentinel is never part of the
// result; it also stops early at a hash that is not in block.
func (s *Store) ChainFrom(h ubilog.Hash) []ubilog.Block {
	var rev []ubilog.Block
	cur := h
	for cur != ubilog.ZeroHash {
		b, ok := s.block[cur]
		if !ok {
			break
		}
		rev = append(rev, b)
		cur = b.Prev
	}
	out := make([]ubilog.Block, len(rev))
	for i, b := range rev {
		out[len(rev)-1-i] = b
	}
	return out
}

// MinedSlices returns the persistent set of slice keys mined anywhere in
// the ancestry of h.
func (s *Store) MinedSlices(h ubilog.Hash) sliceset.Set {
	if set, ok := s.minedSlices[h]; ok {
		return set
	}
	return sliceset.Empty
}

// Handle runs the worklist/cascade admission algorithm of spec.md §4.D
// for block b, newly arrived either from the network or from the local
// miner. now is the wall-clock time used for the future-timestamp gate;
// callers pass the node's own clock so the algorithm stays deterministic
// under test. It returns true if the tip advanced as a result.
//
// This is the single entry point every block — mined locally, received
// from a peer, or replayed from disk at startup — passes through; there
// is no separate "trusted" admission path, matching the teacher's
// AddBlock but restructured around an explicit worklist so that a batch
// of orphans released by one admitted parent cascades within the same
// call instead of waiting for redelivery.
func (s *Store) Handle(b ubilog.Block, now time.Time) bool {
	worklist := []ubilog.Block{b}
	tipUpdated := false
	nowMillis := uint64(now.UnixMilli())
	toleranceMillis := uint64(delayToleranceMillis())

	for len(worklist) > 0 {
		n := len(worklist) - 1
		cur := worklist[n]
		worklist = worklist[:n]

		if cur.TimestampMillis() >= nowMillis+toleranceMillis {
			continue
		}

		h := ubilog.HashBlock(cur)
		if _, ok := s.block[h]; ok {
			continue
		}

		parent, parentOK := s.block[cur.Prev]
		if !parentOK {
			if !s.seen[h] {
				s.pending[cur.Prev] = append(s.pending[cur.Prev], cur)
			}
			s.seen[h] = true
			continue
		}

		numeric := univ256.NumericFromHash(h)
		valid := univ256.GreaterOrEqual(numeric, s.target[cur.Prev]) &&
			cur.TimestampMillis() > parent.TimestampMillis()

		if !valid {
			// Invalid blocks are dropped outright: no block/children/work
			// entry, no pending cascade. The only side effect is seen[h],
			// so a peer that keeps re-gossiping a bad block doesn't cost
			// us more than a hash lookup per delivery. (spec.md §4.D's
			// pseudocode reads as if children/pending bookkeeping happens
			// unconditionally on the parent-present branch; we read that
			// as referring only to the valid sub-case, since the
			// alternative — admitting a permanent zero-work, zero-target
			// block whose target of 0 makes every child trivially valid
			// — contradicts §7's "invalid block: no state side-effect
			// beyond seen/pending bookkeeping" contract. See DESIGN.md.)
			s.seen[h] = true
			continue
		}

		s.block[h] = cur
		s.minedSlices[h] = s.minedSlices[cur.Prev].Union(sliceKeys(cur.Body))
		s.work[h] = new(uint256.Int).Add(s.work[cur.Prev], univ256.DifficultyOfNumeric(numeric))
		s.height[h] = s.height[cur.Prev] + 1
		s.target[h] = s.nextTarget(h, cur)
		s.arrival[h] = s.nextArrival
		s.nextArrival++
		s.seen[h] = true

		if s.work[h].Cmp(s.tip.Work) > 0 {
			s.tip = Tip{Hash: h, Work: s.work[h]}
			tipUpdated = true
		}

		s.children[cur.Prev] = append(s.children[cur.Prev], h)

		if waiters, ok := s.pending[h]; ok {
			worklist = append(worklist, waiters...)
			delete(s.pending, h)
		}
	}

	return tipUpdated
}

// nextTarget applies the retarget rule of spec.md §4.D: every
// BlocksPerPeriod blocks, recompute the target from the observed
// wall-clock duration of the period just completed; otherwise inherit
// the parent's target unchanged.
func (s *Store) nextTarget(h ubilog.Hash, b ubilog.Block) *uint256.Int {
	height := s.height[h]
	if height == 0 || height%ubilog.BlocksPerPeriod != 0 {
		return s.target[b.Prev]
	}

	checkpoint := b.Prev
	for i := uint64(0); i < ubilog.BlocksPerPeriod-1; i++ {
		cb, ok := s.block[checkpoint]
		if !ok {
			return s.target[b.Prev]
		}
		checkpoint = cb.Prev
	}
	checkpointBlock, ok := s.block[checkpoint]
	if !ok {
		return s.target[b.Prev]
	}

	observedMillis := int64(b.TimestampMillis()) - int64(checkpointBlock.TimestampMillis())
	observedNanos := observedMillis * int64(time.Millisecond)
	scale := univ256.Scale(int64(ubilog.TimePerPeriod), observedNanos)
	return univ256.NextTarget(s.target[b.Prev], scale)
}

func delayToleranceMillis() int64 {
	return ubilog.DelayTolerance.Milliseconds()
}

func sliceKeys(body ubilog.Body) []string {
	out := make([]string, len(body))
	for i, sl := range body {
		out[i] = sl.Key()
	}
	return out
}
