// Package bodybuilder implements the candidate-body construction of
// spec.md §4.F: pack the highest-scoring pending slices from the
// mempool into a block body bounded by BodySize*8-1 bits (one bit
// reserved for the body's terminator), skipping any slice already mined
// somewhere in the current tip's ancestry.
//
// Grounded on the teacher's pkg/miner/miner.go createBlockTemplate,
// which pulls pending transactions from the mempool and assembles them
// into a block; here the selection predicate is slice-set membership
// rather than balance/nonce validity, and packing is bounded by a
// bit budget rather than a transaction count.
package bodybuilder

import (
	"github.com/ubilog/ubilog/pkg/mempool"
	"github.com/ubilog/ubilog/pkg/sliceset"
	"github.com/ubilog/ubilog/pkg/ubilog"
)

// Build walks pool in descending-score order (via repeated Peek/Pop),
// skipping slices already present in mined and packing the rest into
// the returned body while bitsRemaining allows.
//
// Two distinct drop behaviors are preserved exactly as spec.md §4.F
// describes them, rather than unified into one: an already-mined slice
// is popped and discarded outright (it can never become relevant again
// once mined), but the first slice that does NOT fit the remaining
// budget stops the whole build — it is left unpopped, and every
// lower-priority slice still in the pool is left untouched. A later,
// smaller slice that would have fit is not given a chance; spec.md §9
// leaves this as an open question rather than something to silently
// improve.
func Build(pool *mempool.Mempool, mined sliceset.Set) ubilog.Body {
	var chosen ubilog.Body
	bitsRemaining := ubilog.BodySize*8 - 1

	for {
		item, ok := pool.Peek()
		if !ok {
			break
		}
		if mined.Contains(item.Slice.Key()) {
			pool.Pop()
			continue
		}
		if item.Slice.Bits+1 > bitsRemaining {
			break
		}
		pool.Pop()
		chosen = append(chosen, item.Slice)
		bitsRemaining -= item.Slice.Bits + 1
	}

	return chosen
}
