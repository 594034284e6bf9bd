package ubilog

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Slice is an opaque user-submitted bit-string. We keep it byte-aligned
// in memory (Bits records the logical bit length, which may be less than
// len(Data)*8 by up to 7 bits) so the wire codec in pkg/wire can still
// emit the exact partial-byte encoding spec.md §6 requires.
type Slice struct {
	Data []byte
	Bits int
}

// Bytes returns the byte-aligned backing storage of the slice. Two
// slices with equal Data and Bits compare equal for dedup purposes.
func (s Slice) Bytes() []byte { return s.Data }

// Key returns a value usable as a map key for slice-identity comparisons
// (mined_slices set membership, which the body builder dedups against).
func (s Slice) Key() string {
	return string(append(append([]byte(nil), s.Data...), byte(s.Bits), byte(s.Bits>>8)))
}

// Body is an ordered list of slices packed into a block.
type Body []Slice

// Block is a proposal extending the chain, linked to its predecessor by
// Prev. Time packs a millisecond wall-clock timestamp (high 64 bits) and
// the miner's 192-bit nonce (low bits) into a single 256-bit field, per
// spec.md §3.
type Block struct {
	Prev Hash
	Time *uint256.Int
	Body Body
}

// TimestampMillis extracts the high 64 bits of Time: the miner's
// wall-clock timestamp in milliseconds since epoch.
func (b Block) TimestampMillis() uint64 {
	if b.Time == nil {
		return 0
	}
	return new(uint256.Int).Rsh(b.Time, 192).Uint64()
}

// Nonce192 extracts the low 192 bits of Time.
func (b Block) Nonce192() *uint256.Int {
	if b.Time == nil {
		return new(uint256.Int)
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	mask.Sub(mask, uint256.NewInt(1))
	return new(uint256.Int).And(b.Time, mask)
}

// PackTime composes the Time field from a millisecond timestamp and a
// 192-bit low-order value (typically the low 192 bits of keccak256 of a
// mining nonce, per spec.md §4.E).
func PackTime(timestampMillis uint64, low192 *uint256.Int) *uint256.Int {
	hi := new(uint256.Int).Lsh(uint256.NewInt(timestampMillis), 192)
	return hi.Or(hi, low192)
}

// IsGenesis reports whether b is the unique genesis block: prev ==
// ZeroHash and time == 0.
func (b Block) IsGenesis() bool {
	return b.Prev == ZeroHash && (b.Time == nil || b.Time.IsZero())
}

// be32Hash and be32Uint big-endian encode a Hash or a *uint256.Int into
// 32 bytes.
func be32Hash(h Hash) []byte {
	return h[:]
}

func be32Uint(v *uint256.Int) []byte {
	if v == nil {
		var zero [32]byte
		return zero[:]
	}
	buf := v.Bytes32()
	return buf[:]
}

// serializeBody encodes the body for hashing: each slice as a 4-byte
// big-endian bit length followed by its payload bits (see payloadBytes),
// concatenated. This is byte-aligned and is not the bit-packed layout
// pkg/wire sends (no continue bits, no terminator), but it covers the
// same bits of every slice, so a block hashes the same before and after
// a wire round trip. Kept in this package (rather than importing
// pkg/wire, which would create an import cycle since pkg/wire needs
// ubilog.Block) as the single source of truth for what hash_block and
// hash_pow_slice hash over.
func serializeBody(body Body) []byte {
	var out []byte
	for _, s := range body {
		out = append(out, serializeSlice(s)...)
	}
	return out
}

// payloadBytes returns the first Bits bits of s.Data packed into
// (Bits+7)/8 bytes, with any bits past Bits in the last byte cleared, so
// bytes or bits beyond the slice's logical length never affect a hash.
func payloadBytes(s Slice) []byte {
	n := (s.Bits + 7) / 8
	if n > len(s.Data) {
		n = len(s.Data)
	}
	out := append([]byte(nil), s.Data[:n]...)
	if rem := s.Bits % 8; rem != 0 && n == (s.Bits+7)/8 {
		out[n-1] &= byte(0xFF << uint(8-rem))
	}
	return out
}

// HashBlock computes the block's identity hash: ZeroHash for genesis
// (the protocol's defined short-circuit), else
// keccak256(be32(prev) || be32(time) || serialize(body)).
func HashBlock(b Block) Hash {
	if b.IsGenesis() {
		return ZeroHash
	}
	return Keccak256(be32Hash(b.Prev), be32Uint(b.Time), serializeBody(b.Body))
}

// HashPoWSlice computes keccak256(serialize(s)), the hash a slice's
// mempool score is derived from.
func HashPoWSlice(s Slice) Hash {
	return Keccak256(serializeSlice(s))
}

func serializeSlice(s Slice) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(s.Bits))
	return append(lenBuf[:], payloadBytes(s)...)
}
