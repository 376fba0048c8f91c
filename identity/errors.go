package identity

import "errors"

var (
	// ErrNilKey indicates a nil private or public key was provided.
	ErrNilKey = errors.New("identity: key is nil")

	// ErrInvalidKey indicates key bytes could not be parsed.
	ErrInvalidKey = errors.New("identity: invalid key")

	// ErrInvalidID indicates a malformed hex identity.
	ErrInvalidID = errors.New("identity: invalid id")

	// ErrInvalidSeed indicates an empty derivation seed.
	ErrInvalidSeed = errors.New("identity: seed is empty")

	// ErrDerivationFailed indicates HKDF key derivation failed.
	ErrDerivationFailed = errors.New("identity: key derivation failed")

	// ErrBadSignature indicates a signature that does not verify against the
	// digest and public key.
	ErrBadSignature = errors.New("identity: signature verification failed")
)
