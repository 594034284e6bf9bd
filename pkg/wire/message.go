package wire

import (
	"errors"
	"net"

	"github.com/holiman/uint256"
	"github.com/ubilog/ubilog/pkg/ubilog"
)

// Tag identifies the four message variants of spec.md §4.H/§6.
type Tag byte

const (
	TagPutPeers Tag = 0
	TagPutBlock Tag = 1
	TagAskBlock Tag = 2
	TagPutSlice Tag = 3
)

// ErrUnknownTag is returned decoding a datagram whose tag is not one of
// the four defined variants.
var ErrUnknownTag = errors.New("wire: unknown message tag")

// Address is a gossiped peer endpoint: an IPv4 or IPv6 address plus
// port.
type Address struct {
	IP   net.IP
	Port uint16
}

// Message is the decoded form of one UDP datagram. Exactly one of the
// typed fields is meaningful, selected by Tag.
type Message struct {
	Tag Tag

	Peers []Address    // TagPutPeers
	Block ubilog.Block // TagPutBlock
	Hash  ubilog.Hash  // TagAskBlock
	Slice ubilog.Slice // TagPutSlice
}

// EncodeMessage serializes m into one datagram payload.
func EncodeMessage(m Message) []byte {
	w := &BitWriter{}
	w.WriteUint(uint64(m.Tag), 4)

	switch m.Tag {
	case TagPutPeers:
		writeAddresses(w, m.Peers)
	case TagPutBlock:
		writeBlock(w, m.Block)
	case TagAskBlock:
		w.WriteRawBits(m.Hash[:], 256)
	case TagPutSlice:
		writeSlice(w, m.Slice)
	}

	return w.Bytes()
}

// DecodeMessage parses one datagram payload into a Message. Malformed
// datagrams (short reads, bad tags) return an error; the caller
// (pkg/node's handleDatagram) drops them without disturbing any other
// state, per the "malformed datagram" failure mode in spec.md §7.
func DecodeMessage(data []byte) (Message, error) {
	r := NewBitReader(data)
	tagBits, err := r.ReadUint(4)
	if err != nil {
		return Message{}, err
	}
	tag := Tag(tagBits)

	switch tag {
	case TagPutPeers:
		addrs, err := readAddresses(r)
		if err != nil {
			return Message{}, err
		}
		return Message{Tag: tag, Peers: addrs}, nil
	case TagPutBlock:
		b, err := readBlock(r)
		if err != nil {
			return Message{}, err
		}
		return Message{Tag: tag, Block: b}, nil
	case TagAskBlock:
		raw, err := r.ReadRawBits(256)
		if err != nil {
			return Message{}, err
		}
		h, err := ubilog.HashFromBytes(raw)
		if err != nil {
			return Message{}, err
		}
		return Message{Tag: tag, Hash: h}, nil
	case TagPutSlice:
		s, err := readSlice(r)
		if err != nil {
			return Message{}, err
		}
		return Message{Tag: tag, Slice: s}, nil
	default:
		return Message{}, ErrUnknownTag
	}
}

// sliceLenBits is the width of a slice's length prefix: up to 2^32-1
// bits, the same 32-bit big-endian length convention pkg/ubilog's
// serializeSlice uses when hashing, so a slice's wire encoding and its
// hash-bound encoding agree on framing.
const sliceLenBits = 32

func writeSlice(w *BitWriter, s ubilog.Slice) {
	w.WriteUint(uint64(s.Bits), sliceLenBits)
	w.WriteRawBits(s.Data, s.Bits)
}

func readSlice(r *BitReader) (ubilog.Slice, error) {
	n, err := r.ReadUint(sliceLenBits)
	if err != nil {
		return ubilog.Slice{}, err
	}
	data, err := r.ReadRawBits(int(n))
	if err != nil {
		return ubilog.Slice{}, err
	}
	return ubilog.Slice{Data: data, Bits: int(n)}, nil
}

// writeBody encodes a list of slices as a continue-bit-prefixed run
// terminated by a zero bit, per spec.md §6: "body (list of slices; each
// slice is its bit-string preceded by a continue-bit, terminated by a
// zero bit)".
func writeBody(w *BitWriter, body ubilog.Body) {
	for _, s := range body {
		w.WriteBit(1)
		writeSlice(w, s)
	}
	w.WriteBit(0)
}

func readBody(r *BitReader) (ubilog.Body, error) {
	var body ubilog.Body
	for {
		cont, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		if cont == 0 {
			return body, nil
		}
		s, err := readSlice(r)
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
}

// EncodeBlock serializes a single block using the same bit layout
// writeBlock uses inside a PutBlock message (prev || time || body),
// without the 4-bit message tag. This is what pkg/diskstore persists
// under blocks/<16-hex-index>.
func EncodeBlock(b ubilog.Block) []byte {
	w := &BitWriter{}
	writeBlock(w, b)
	return w.Bytes()
}

// DecodeBlock parses bytes produced by EncodeBlock.
func DecodeBlock(data []byte) (ubilog.Block, error) {
	return readBlock(NewBitReader(data))
}

func writeBlock(w *BitWriter, b ubilog.Block) {
	w.WriteRawBits(b.Prev[:], 256)
	var timeBytes [32]byte
	if b.Time != nil {
		timeBytes = b.Time.Bytes32()
	}
	w.WriteRawBits(timeBytes[:], 256)
	writeBody(w, b.Body)
}

func readBlock(r *BitReader) (ubilog.Block, error) {
	prevBytes, err := r.ReadRawBits(256)
	if err != nil {
		return ubilog.Block{}, err
	}
	prev, err := ubilog.HashFromBytes(prevBytes)
	if err != nil {
		return ubilog.Block{}, err
	}
	timeBytes, err := r.ReadRawBits(256)
	if err != nil {
		return ubilog.Block{}, err
	}
	body, err := readBody(r)
	if err != nil {
		return ubilog.Block{}, err
	}
	return ubilog.Block{
		Prev: prev,
		Time: new(uint256.Int).SetBytes(timeBytes),
		Body: body,
	}, nil
}

const addressCountBits = 16

func writeAddresses(w *BitWriter, addrs []Address) {
	w.WriteUint(uint64(len(addrs)), addressCountBits)
	for _, a := range addrs {
		writeAddress(w, a)
	}
}

func readAddresses(r *BitReader) ([]Address, error) {
	n, err := r.ReadUint(addressCountBits)
	if err != nil {
		return nil, err
	}
	addrs := make([]Address, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := readAddress(r)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

func writeAddress(w *BitWriter, a Address) {
	ip4 := a.IP.To4()
	if ip4 != nil {
		w.WriteUint(4, 8)
		w.WriteRawBits(ip4, 32)
	} else {
		ip16 := a.IP.To16()
		w.WriteUint(6, 8)
		w.WriteRawBits(ip16, 128)
	}
	w.WriteUint(uint64(a.Port), 16)
}

func readAddress(r *BitReader) (Address, error) {
	family, err := r.ReadUint(8)
	if err != nil {
		return Address{}, err
	}
	var ipBits int
	switch family {
	case 4:
		ipBits = 32
	case 6:
		ipBits = 128
	default:
		return Address{}, ErrUnknownTag
	}
	ipBytes, err := r.ReadRawBits(ipBits)
	if err != nil {
		return Address{}, err
	}
	port, err := r.ReadUint(16)
	if err != nil {
		return Address{}, err
	}
	return Address{IP: net.IP(ipBytes), Port: uint16(port)}, nil
}
