// Package ledger stores governance records as uniquely keyed values grouped
// in buckets, with atomic multi-record updates.
//
// Records are located by a 32-byte Address derived from a fixed tag plus
// identity and sequence seeds. A key can be inserted only once, which is what
// makes derived addresses act as uniqueness constraints.
package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
)

// AddressSize is the length of a record address in bytes.
const AddressSize = 32

// ProgramID namespaces every derived address.
const ProgramID = "daoverse"

// Address identifies a ledger record or a token holding.
type Address [AddressSize]byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns the first 8 hex characters, for log lines.
func (a Address) Short() string {
	return hex.EncodeToString(a[:4])
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns the address as a slice, usable as a store key.
func (a Address) Bytes() []byte {
	return a[:]
}

// ParseAddress decodes a 64-character hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Derive computes the address for tag and seeds:
//
//	SHA256(ProgramID || len(tag) || tag || len(seed_0) || seed_0 || ...)
//
// Seeds are length-prefixed so that ("ab","c") and ("a","bc") never collide.
func Derive(tag string, seeds ...[]byte) Address {
	h := sha256.New()
	h.Write([]byte(ProgramID))
	writeSeed(h, []byte(tag))
	for _, s := range seeds {
		writeSeed(h, s)
	}
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

func writeSeed(h hash.Hash, seed []byte) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(seed)))
	_, _ = h.Write(prefix[:])
	_, _ = h.Write(seed)
}

// U64 encodes a sequence number as an 8-byte little-endian seed.
func U64(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}
