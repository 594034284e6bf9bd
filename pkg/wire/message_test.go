package wire

import (
	"net"
	"reflect"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/ubilog"
)

func TestRoundTripAskBlock(t *testing.T) {
	h := ubilog.Keccak256([]byte("some block"))
	msg := Message{Tag: TagAskBlock, Hash: h}

	got, err := DecodeMessage(EncodeMessage(msg))
	if err != nil {
		t.Fatalf("DecodeMessage error = %v", err)
	}
	if got.Hash != h {
		t.Fatalf("round-tripped hash = %v; want %v", got.Hash, h)
	}
}

func TestRoundTripPutSlice(t *testing.T) {
	s := ubilog.Slice{Data: []byte{0xAB, 0xCD, 0xE0}, Bits: 20}
	msg := Message{Tag: TagPutSlice, Slice: s}

	got, err := DecodeMessage(EncodeMessage(msg))
	if err != nil {
		t.Fatalf("DecodeMessage error = %v", err)
	}
	if got.Slice.Bits != s.Bits {
		t.Fatalf("round-tripped Bits = %d; want %d", got.Slice.Bits, s.Bits)
	}
	// Only the declared bit length is meaningful; compare the relevant
	// prefix bits rather than the zero-padded tail byte-for-byte.
	wantBytes := (s.Bits + 7) / 8
	if !reflect.DeepEqual(got.Slice.Data[:wantBytes], s.Data[:wantBytes]) {
		t.Fatalf("round-tripped slice data mismatch: got %x want %x", got.Slice.Data, s.Data)
	}
}

func TestRoundTripPutBlockEmptyBody(t *testing.T) {
	prev := ubilog.Keccak256([]byte("parent"))
	b := ubilog.Block{
		Prev: prev,
		Time: ubilog.PackTime(123456789, uint256.NewInt(42)),
		Body: nil,
	}
	msg := Message{Tag: TagPutBlock, Block: b}

	got, err := DecodeMessage(EncodeMessage(msg))
	if err != nil {
		t.Fatalf("DecodeMessage error = %v", err)
	}
	if got.Block.Prev != b.Prev {
		t.Fatalf("round-tripped Prev mismatch")
	}
	if ubilog.HashBlock(got.Block) != ubilog.HashBlock(b) {
		t.Fatalf("round-tripped block hashes to a different value")
	}
	if len(got.Block.Body) != 0 {
		t.Fatalf("round-tripped body should be empty")
	}
}

func TestRoundTripPutBlockWithBody(t *testing.T) {
	prev := ubilog.Keccak256([]byte("parent"))
	body := ubilog.Body{
		{Data: []byte("first"), Bits: 40},
		{Data: []byte{0xFF}, Bits: 3},
	}
	b := ubilog.Block{
		Prev: prev,
		Time: ubilog.PackTime(1, uint256.NewInt(1)),
		Body: body,
	}
	msg := Message{Tag: TagPutBlock, Block: b}

	got, err := DecodeMessage(EncodeMessage(msg))
	if err != nil {
		t.Fatalf("DecodeMessage error = %v", err)
	}
	if len(got.Block.Body) != len(body) {
		t.Fatalf("len(body) = %d; want %d", len(got.Block.Body), len(body))
	}
	for i, s := range got.Block.Body {
		if s.Bits != body[i].Bits {
			t.Fatalf("slice %d Bits = %d; want %d", i, s.Bits, body[i].Bits)
		}
	}
	if ubilog.HashBlock(got.Block) != ubilog.HashBlock(b) {
		t.Fatalf("round-tripped block hashes to a different value")
	}
}

func TestRoundTripPutPeersIPv4AndIPv6(t *testing.T) {
	addrs := []Address{
		{IP: net.ParseIP("192.168.1.1"), Port: 7731},
		{IP: net.ParseIP("::1"), Port: 8080},
	}
	msg := Message{Tag: TagPutPeers, Peers: addrs}

	got, err := DecodeMessage(EncodeMessage(msg))
	if err != nil {
		t.Fatalf("DecodeMessage error = %v", err)
	}
	if len(got.Peers) != 2 {
		t.Fatalf("len(peers) = %d; want 2", len(got.Peers))
	}
	if !got.Peers[0].IP.Equal(addrs[0].IP) || got.Peers[0].Port != addrs[0].Port {
		t.Fatalf("peer 0 mismatch: got %+v want %+v", got.Peers[0], addrs[0])
	}
	if !got.Peers[1].IP.Equal(addrs[1].IP) || got.Peers[1].Port != addrs[1].Port {
		t.Fatalf("peer 1 mismatch: got %+v want %+v", got.Peers[1], addrs[1])
	}
}

func TestRoundTripEmptyPeerList(t *testing.T) {
	msg := Message{Tag: TagPutPeers, Peers: nil}
	got, err := DecodeMessage(EncodeMessage(msg))
	if err != nil {
		t.Fatalf("DecodeMessage error = %v", err)
	}
	if len(got.Peers) != 0 {
		t.Fatalf("len(peers) = %d; want 0", len(got.Peers))
	}
}

func TestDecodeUnknownTagFails(t *testing.T) {
	w := &BitWriter{}
	w.WriteUint(15, 4) // tag 15 is not one of the four defined variants
	if _, err := DecodeMessage(w.Bytes()); err != ErrUnknownTag {
		t.Fatalf("err = %v; want ErrUnknownTag", err)
	}
}

func TestDecodeShortDatagramFails(t *testing.T) {
	if _, err := DecodeMessage(nil); err == nil {
		t.Fatalf("decoding an empty datagram should fail")
	}
}
