// Package identity provides the caller identities that authorize governance
// instructions. An identity is the HASH160 of a compressed secp256k1 public
// key; every instruction digest is signed by the caller and verified before
// the instruction runs.
package identity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"

	"github.com/bitfsorg/daoverse-go/ledger"
)

// IDSize is the length of an identity in bytes.
const IDSize = 20

// ID identifies a caller: HASH160(compressed public key).
type ID [IDSize]byte

// String returns the hex encoding of the identity.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the zero identity.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Owner returns the ledger address that holds this identity's tokens.
func (id ID) Owner() ledger.Address {
	return ledger.Derive("identity", id[:])
}

// ParseID decodes a hex identity.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if len(b) != IDSize {
		return id, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidID, len(b), IDSize)
	}
	copy(id[:], b)
	return id, nil
}

// IDFromPublicKey computes the identity of a public key.
func IDFromPublicKey(pub *ec.PublicKey) (ID, error) {
	var id ID
	if pub == nil {
		return id, ErrNilKey
	}
	copy(id[:], bsvhash.Hash160(pub.Compressed()))
	return id, nil
}

// Signer signs instruction digests on behalf of a caller.
type Signer interface {
	PublicKey() *ec.PublicKey
	Sign(digest []byte) ([]byte, error)
}

// Key is a secp256k1 private key acting as a Signer.
type Key struct {
	priv *ec.PrivateKey
}

// Compile-time interface check.
var _ Signer = (*Key)(nil)

// NewKey generates a random key.
func NewKey() (*Key, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &Key{priv: priv}, nil
}

// KeyFromBytes wraps a 32-byte private key scalar.
func KeyFromBytes(b []byte) (*Key, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: private key must be 32 bytes, got %d", ErrInvalidKey, len(b))
	}
	priv, _ := ec.PrivateKeyFromBytes(b)
	if priv == nil {
		return nil, ErrInvalidKey
	}
	return &Key{priv: priv}, nil
}

// FromPrivateKey wraps an existing go-sdk private key.
func FromPrivateKey(priv *ec.PrivateKey) (*Key, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	return &Key{priv: priv}, nil
}

// Bytes returns the private key scalar.
func (k *Key) Bytes() []byte {
	return k.priv.Serialize()
}

// PublicKey returns the key's public half.
func (k *Key) PublicKey() *ec.PublicKey {
	return k.priv.PubKey()
}

// ID returns the identity of the key.
func (k *Key) ID() ID {
	id, _ := IDFromPublicKey(k.priv.PubKey())
	return id
}

// Sign signs a 32-byte digest and returns the DER-encoded signature.
func (k *Key) Sign(digest []byte) ([]byte, error) {
	sig, err := k.priv.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("identity: sign: %w", err)
	}
	return sig.Serialize(), nil
}

// Digest hashes an instruction name and its encoded arguments. Each field is
// length-prefixed so adjacent fields cannot be confused.
func Digest(op string, fields ...[]byte) []byte {
	h := sha256.New()
	var n [4]byte
	for _, f := range append([][]byte{[]byte(op)}, fields...) {
		binary.BigEndian.PutUint32(n[:], uint32(len(f)))
		h.Write(n[:])
		h.Write(f)
	}
	return h.Sum(nil)
}

// Verify checks a DER signature over digest against pub.
func Verify(pub *ec.PublicKey, digest, sig []byte) error {
	if pub == nil {
		return ErrNilKey
	}
	parsed, err := ec.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	if !parsed.Verify(digest, pub) {
		return ErrBadSignature
	}
	return nil
}

// Authenticate asks s to sign digest, verifies the result and returns the
// signer's identity.
func Authenticate(s Signer, digest []byte) (ID, error) {
	if s == nil {
		return ID{}, ErrNilKey
	}
	pub := s.PublicKey()
	if pub == nil {
		return ID{}, ErrNilKey
	}
	sig, err := s.Sign(digest)
	if err != nil {
		return ID{}, err
	}
	if err := Verify(pub, digest, sig); err != nil {
		return ID{}, err
	}
	return IDFromPublicKey(pub)
}
