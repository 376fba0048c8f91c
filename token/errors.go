package token

import "errors"

var (
	// ErrMintExists indicates a mint with the same authority and symbol exists.
	ErrMintExists = errors.New("token: mint already exists")

	// ErrMintNotFound indicates the referenced mint does not exist.
	ErrMintNotFound = errors.New("token: mint not found")

	// ErrHoldingNotFound indicates the referenced holding address does not exist.
	ErrHoldingNotFound = errors.New("token: holding not found")

	// ErrInsufficientFunds indicates the source holding cannot cover a transfer.
	ErrInsufficientFunds = errors.New("token: insufficient funds")

	// ErrUnauthorized indicates the authority does not own the source holding
	// or the mint.
	ErrUnauthorized = errors.New("token: unauthorized")

	// ErrMintMismatch indicates a transfer between holdings of different mints.
	ErrMintMismatch = errors.New("token: mint mismatch")

	// ErrOverflow indicates a balance or supply would exceed 2^64-1.
	ErrOverflow = errors.New("token: amount overflow")

	// ErrInvalidSymbol indicates an empty mint symbol.
	ErrInvalidSymbol = errors.New("token: invalid symbol")
)
