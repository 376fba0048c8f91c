package identity

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey deterministically derives a key from seed and label using
// HKDF-SHA256. The same (seed, label) pair always yields the same key.
//
// The HKDF parameters are:
//   - IKM  = seed
//   - Salt = "daoverse-identity"
//   - Info = label
//   - Len  = 32
func DeriveKey(seed []byte, label string) (*Key, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	r := hkdf.New(sha256.New, seed, []byte("daoverse-identity"), []byte(label))
	scalar := make([]byte, 32)
	if _, err := io.ReadFull(r, scalar); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return KeyFromBytes(scalar)
}
