// Package peerset implements the peer table and gossip/request task
// logic of spec.md §4.G: an unevicted address table, plus the two
// periodic tasks that drive gossip traffic. The actual I/O (sending
// datagrams) stays in pkg/node; this package only computes who to talk
// to and what to ask for, which keeps it testable against P-series
// invariants without a real socket.
//
// Grounded on the teacher's pkg/p2p/server.go peer table (a
// map[string]*Peer keyed by remote address), generalized from an
// authenticated TCP handshake to an unauthenticated UDP address book
// with no eviction, per spec.md's explicit non-goals.
package peerset

import (
	"strconv"
	"time"

	"github.com/ubilog/ubilog/pkg/chain"
	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/wire"
)

// Info is one peer table entry.
type Info struct {
	Address wire.Address
	SeenAt  time.Time
}

// PeerSet is the address table: map from serialized address to Info, no
// eviction (spec.md §4.G).
type PeerSet struct {
	peers map[string]Info
}

// New returns an empty peer set.
func New() *PeerSet {
	return &PeerSet{peers: make(map[string]Info)}
}

func key(a wire.Address) string {
	return a.IP.String() + ":" + strconv.Itoa(int(a.Port))
}

// Upsert records addr as seen at now, overwriting any prior entry for
// the same address.
func (ps *PeerSet) Upsert(addr wire.Address, now time.Time) {
	ps.peers[key(addr)] = Info{Address: addr, SeenAt: now}
}

// Addresses returns every known peer address, in no particular order.
func (ps *PeerSet) Addresses() []wire.Address {
	out := make([]wire.Address, 0, len(ps.peers))
	for _, info := range ps.peers {
		out = append(out, info.Address)
	}
	return out
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int { return len(ps.peers) }

// RequestMode selects between the literal (buggy) and corrected reading
// of the requester task's predicate; see spec.md §9's open question and
// the notes on chain.Store.PendingOrphanHashes/PendingParents.
type RequestMode int

const (
	// RequestModeLiteral reproduces the predicate as literally written:
	// "for each hash p in pending.keys() with seen[p] false". Reading
	// pending.keys() as the hashes of the parked orphans themselves (not
	// the parent hashes they wait on) means the filter is always false,
	// since add_block marks an orphan seen the moment it is parked — so
	// this mode always returns an empty request list. This is the
	// default, matching a faithful re-implementation of the protocol as
	// specified rather than silently fixing it.
	RequestModeLiteral RequestMode = iota

	// RequestModeMissingParents is the corrected reading: iterate over
	// the actual missing-parent hashes (chain.Store.PendingParents),
	// which by invariant are never themselves in block. This mode
	// behaves the way the protocol presumably intended.
	RequestModeMissingParents
)

// RequestTargets computes the set of block hashes the requester task
// should AskBlock for this tick, given the chain store's current pending
// index and the selected mode.
func RequestTargets(store *chain.Store, mode RequestMode) []ubilog.Hash {
	switch mode {
	case RequestModeMissingParents:
		return store.PendingParents()
	default:
		var out []ubilog.Hash
		for _, h := range store.PendingOrphanHashes() {
			if !store.Seen(h) {
				out = append(out, h)
			}
		}
		return out
	}
}
