// Package mempool implements the min-heap mempool described in spec.md
// §4.B: an ordered pool of pending slices, popped highest-score first
// (score == difficulty(keccak256(serialize(slice))), so a rarer hash —
// harder to reproduce by chance — sorts first). Implemented as a
// container/heap max-heap on score, the same pattern LarryRuane-minesim's
// eventlist and the wider corpus's transaction-priority queues
// (e.g. btcd's mining.txPriorityQueue) use for exactly this shape; no
// example repo in the corpus reaches for a third-party heap package here,
// so container/heap is the grounded, idiomatic choice (see DESIGN.md).
package mempool

import (
	"container/heap"
	"sync"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/ubilog"
)

// Item pairs a slice with the score it was inserted at.
type Item struct {
	Score *uint256.Int
	Slice ubilog.Slice
}

// innerHeap is a max-heap on Score (container/heap.Interface).
type innerHeap []Item

func (h innerHeap) Len() int { return len(h) }
func (h innerHeap) Less(i, j int) bool {
	return h[i].Score.Cmp(h[j].Score) > 0
}
func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *innerHeap) Push(x any) {
	*h = append(*h, x.(Item))
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Mempool is the ordered pool of pending slices. Safe for concurrent use,
// though in normal operation it is only ever touched from the node's
// single cooperative event-loop goroutine (spec.md §5).
type Mempool struct {
	mu sync.Mutex
	h  innerHeap
}

// New returns an empty mempool.
func New() *Mempool {
	m := &Mempool{}
	heap.Init(&m.h)
	return m
}

// Insert adds slice with the given score. Duplicate slices are permitted;
// deduplication against already-mined slices is the body builder's job
// (spec.md §4.F), not the mempool's.
func (m *Mempool) Insert(score *uint256.Int, slice ubilog.Slice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	heap.Push(&m.h, Item{Score: score, Slice: slice})
}

// Peek returns the highest-score item without removing it. ok is false
// if the mempool is empty.
func (m *Mempool) Peek() (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.h) == 0 {
		return Item{}, false
	}
	return m.h[0], true
}

// Pop removes and returns the highest-score item. ok is false if the
// mempool is empty.
func (m *Mempool) Pop() (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.h) == 0 {
		return Item{}, false
	}
	return heap.Pop(&m.h).(Item), true
}

// Len returns the number of pending slices.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.h)
}
