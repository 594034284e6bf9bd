// Package dispatch implements the message dispatcher of spec.md §4.H:
// routing each of the four inbound message variants to the chain store,
// mempool, or peer table, and producing the AskBlock reply effect where
// applicable.
//
// Grounded on the teacher's pkg/p2p/peer.go readLoop, which type-switches
// on a decoded message and forwards it into the chain/mempool; here the
// routing table is smaller (four variants, no handshake) and explicit
// rather than embedded in a peer's read loop, since spec.md's
// single-threaded model runs dispatch from the node's one event-loop
// goroutine rather than per-connection goroutines.
package dispatch

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/chain"
	"github.com/ubilog/ubilog/pkg/mempool"
	"github.com/ubilog/ubilog/pkg/peerset"
	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/univ256"
	"github.com/ubilog/ubilog/pkg/wire"
)

// Outcome reports the side effects of one dispatched message that the
// node's event loop needs to act on: whether the tip advanced (trigger a
// body rebuild if mining) and whether a reply datagram should be sent
// back to the sender (the AskBlock -> PutBlock reply).
type Outcome struct {
	TipAdvanced bool
	Reply       *wire.Message
}

// Dispatcher wires the three stateful components a dispatched message
// can touch.
type Dispatcher struct {
	Chain   *chain.Store
	Mempool *mempool.Mempool
	Peers   *peerset.PeerSet
}

// New returns a Dispatcher over the given components.
func New(c *chain.Store, m *mempool.Mempool, p *peerset.PeerSet) *Dispatcher {
	return &Dispatcher{Chain: c, Mempool: m, Peers: p}
}

// Handle routes msg (received from address from at wall-clock time now)
// to the appropriate component and reports the resulting Outcome.
func (d *Dispatcher) Handle(msg wire.Message, from wire.Address, now time.Time) Outcome {
	switch msg.Tag {
	case wire.TagPutPeers:
		for _, addr := range msg.Peers {
			d.Peers.Upsert(addr, now)
		}
		return Outcome{}

	case wire.TagPutBlock:
		advanced := d.Chain.Handle(msg.Block, now)
		return Outcome{TipAdvanced: advanced}

	case wire.TagAskBlock:
		b, ok := d.Chain.GetBlock(msg.Hash)
		if !ok {
			return Outcome{}
		}
		reply := wire.Message{Tag: wire.TagPutBlock, Block: b}
		return Outcome{Reply: &reply}

	case wire.TagPutSlice:
		score := sliceScore(msg.Slice)
		d.Mempool.Insert(score, msg.Slice)
		return Outcome{}

	default:
		return Outcome{}
	}
}

func sliceScore(s ubilog.Slice) *uint256.Int {
	h := ubilog.HashPoWSlice(s)
	return univ256.DifficultyOfNumeric(univ256.NumericFromHash(h))
}
