package node

import (
	"net"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ubilog/ubilog/internal/cliapp"
	"github.com/ubilog/ubilog/pkg/netio"
	"github.com/ubilog/ubilog/pkg/wire"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	cfg := &cliapp.Config{
		Port:      0,
		BaseDir:   t.TempDir(),
		SecretKey: new(uint256.Int),
	}
	n, err := New(cfg, zerolog.Nop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { n.sock.Close() })
	return n
}

func TestNewBuildsEmptyBodyFromEmptyMempool(t *testing.T) {
	n := newTestNode(t)
	if len(n.body) != 0 {
		t.Fatalf("body = %v; want empty", n.body)
	}
}

func TestHandleDatagramPutPeersUpsertsPeerTable(t *testing.T) {
	n := newTestNode(t)
	msg := wire.Message{
		Tag:   wire.TagPutPeers,
		Peers: []wire.Address{{IP: mustLoopback(), Port: 9999}},
	}
	n.handleDatagram(netio.Datagram{Data: wire.EncodeMessage(msg), From: mustUDPAddr()})

	if got := n.peers.Len(); got != 1 {
		t.Fatalf("peers.Len() = %d; want 1", got)
	}
}

func TestHandleDatagramMalformedIsDropped(t *testing.T) {
	n := newTestNode(t)
	n.handleDatagram(netio.Datagram{Data: []byte{0xFF, 0xFF}, From: mustUDPAddr()})
	if n.peers.Len() != 0 {
		t.Fatalf("peers.Len() = %d; want 0 after malformed datagram", n.peers.Len())
	}
}

func TestGossipWithNoPeersIsANoop(t *testing.T) {
	n := newTestNode(t)
	n.gossip()
}

func TestSaveThenReloadRoundTripsGenesisOnlyChain(t *testing.T) {
	n := newTestNode(t)
	n.save()

	loaded, err := n.disk.LoadChain()
	if err != nil {
		t.Fatalf("LoadChain() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("len(loaded) = %d; want 1 (genesis sentinel)", len(loaded))
	}
}

func mustLoopback() net.IP { return net.IPv4(127, 0, 0, 1) }

func mustUDPAddr() *net.UDPAddr { return &net.UDPAddr{IP: mustLoopback(), Port: 1} }
