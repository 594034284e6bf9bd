package ubilog

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashSize is the length of every hash in bytes.
const HashSize = 32

// Hash is a 256-bit digest. ZeroHash is the distinguished value denoting
// "no predecessor" (used as genesis's prev, and as genesis's own hash by
// the short-circuit in HashBlock).
type Hash [HashSize]byte

// ZeroHash is the all-zeroes hash.
var ZeroHash Hash

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the lowercase hex encoding of the hash.
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zeroes hash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// HashFromBytes builds a Hash from a 32-byte slice.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, errInvalidHashLen(len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(b)
}

type errInvalidHashLen int

func (e errInvalidHashLen) Error() string {
	return fmt.Sprintf("ubilog: hash must be %d bytes, got %d", HashSize, int(e))
}

// Keccak256 hashes arbitrary bytes with Keccak-256. The primitive itself
// is an out-of-scope external collaborator (spec §1); we only call into
// golang.org/x/crypto/sha3's NewLegacyKeccak256, which is Keccak as
// originally specified (not the later NIST SHA3-256 variant — blockchains
// in this family, e.g. go-ethereum, all use the legacy construction).
func Keccak256(data ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	h.Sum(out[:0])
	return out
}
