// Package metrics exposes ubilog's runtime counters over Prometheus, the
// metrics stack the wider corpus reaches for (CustosLigni-Olivetum-PoW,
// NethermindEth-rollup-geth, bsv-blockchain-teranode, among others in
// the example pack, all vendor prometheus/client_golang) even though
// the teacher itself carries no metrics layer — spec.md's non-goals
// exclude protocol-level metrics semantics, but the ambient observability
// stack is still expected (see SPEC_FULL.md's ambient-stack rule).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every gauge/counter the node updates as it runs.
type Metrics struct {
	TipHeight   prometheus.Gauge
	TipWork     prometheus.Gauge
	PeerCount   prometheus.Gauge
	MempoolSize prometheus.Gauge
	BlocksMined prometheus.Counter
	BlocksSeen  prometheus.Counter
}

// New registers and returns a fresh Metrics set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ubilog",
			Name:      "tip_height",
			Help:      "Height of the current chain tip.",
		}),
		TipWork: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ubilog",
			Name:      "tip_work",
			Help:      "Accumulated work (as a float approximation) of the current tip.",
		}),
		PeerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ubilog",
			Name:      "peer_count",
			Help:      "Number of known peers in the peer table.",
		}),
		MempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ubilog",
			Name:      "mempool_size",
			Help:      "Number of slices currently pending in the mempool.",
		}),
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ubilog",
			Name:      "blocks_mined_total",
			Help:      "Total number of blocks mined locally.",
		}),
		BlocksSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ubilog",
			Name:      "blocks_seen_total",
			Help:      "Total number of PutBlock messages received, duplicates included.",
		}),
	}

	reg.MustRegister(m.TipHeight, m.TipWork, m.PeerCount, m.MempoolSize, m.BlocksMined, m.BlocksSeen)
	return m
}
