package ledger

import "errors"

var (
	// ErrNotFound indicates no record is stored under the key.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrExists indicates an insert hit a key that is already present.
	ErrExists = errors.New("ledger: record already exists")

	// ErrReadOnly indicates a write was attempted inside View.
	ErrReadOnly = errors.New("ledger: write in read-only transaction")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("ledger: store is closed")

	// ErrInvalidAddress indicates a malformed hex address.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrEmptyKey indicates a zero-length bucket name or key.
	ErrEmptyKey = errors.New("ledger: empty bucket or key")

	// ErrCodec indicates a record could not be encoded or decoded.
	ErrCodec = errors.New("ledger: record codec failure")
)
