package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Checksum computes the xxHash64 of a byte payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest accumulates typed values into a single xxHash64.
//
// Strings are length-prefixed so that ("ab", "c") and ("a", "bc") hash
// differently.
type Digest struct {
	d       *xxhash.Digest
	scratch [8]byte
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// Uint64 feeds v in little-endian order.
func (h *Digest) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.scratch[:], v)
	_, _ = h.d.Write(h.scratch[:])
}

// String feeds the length of s followed by its bytes.
func (h *Digest) String(s string) {
	h.Uint64(uint64(len(s)))
	_, _ = h.d.WriteString(s)
}

// Sum64 returns the current hash.
func (h *Digest) Sum64() uint64 {
	return h.d.Sum64()
}
