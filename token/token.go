// Package token implements the fungible token ledger that governance moves
// funds through: mints, per-owner holding addresses and authorized transfers.
// All functions operate inside a caller-supplied ledger transaction so a
// transfer commits or rolls back together with the instruction that made it.
package token

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/bitfsorg/daoverse-go/ledger"
)

// Bucket names.
var (
	MintsBucket    = []byte("mints")
	HoldingsBucket = []byte("holdings")
)

// Mint describes a token. Only Authority may issue new supply.
type Mint struct {
	Address   ledger.Address
	Authority ledger.Address
	Symbol    string
	Decimals  uint8
	Supply    uint64
}

// Holding is one owner's balance of one mint.
type Holding struct {
	Address ledger.Address
	Owner   ledger.Address
	Mint    ledger.Address
	Amount  uint64
}

// MintAddress derives the address of the mint created by authority for symbol.
func MintAddress(authority ledger.Address, symbol string) ledger.Address {
	return ledger.Derive("mint", authority[:], []byte(symbol))
}

// HoldingAddress derives the holding address of owner for mint.
func HoldingAddress(owner, mint ledger.Address) ledger.Address {
	return ledger.Derive("holding", owner[:], mint[:])
}

// CreateMint registers a new mint with zero supply.
func CreateMint(tx ledger.Tx, authority ledger.Address, symbol string, decimals uint8) (ledger.Address, error) {
	if symbol == "" {
		return ledger.Address{}, ErrInvalidSymbol
	}
	addr := MintAddress(authority, symbol)
	m := &Mint{Address: addr, Authority: authority, Symbol: symbol, Decimals: decimals}
	if err := ledger.InsertRecord(tx, MintsBucket, addr, m); err != nil {
		if errors.Is(err, ledger.ErrExists) {
			return addr, fmt.Errorf("%w: %s", ErrMintExists, symbol)
		}
		return addr, err
	}
	return addr, nil
}

// GetMint loads a mint.
func GetMint(tx ledger.Tx, mint ledger.Address) (*Mint, error) {
	var m Mint
	if err := ledger.GetRecord(tx, MintsBucket, mint, &m); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint.Short())
		}
		return nil, err
	}
	return &m, nil
}

// GetHolding loads a holding by address.
func GetHolding(tx ledger.Tx, addr ledger.Address) (*Holding, error) {
	var h Holding
	if err := ledger.GetRecord(tx, HoldingsBucket, addr, &h); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, addr.Short())
		}
		return nil, err
	}
	return &h, nil
}

// CreateIfAbsent provisions the holding of owner for mint and returns its
// address. An existing holding is left untouched.
func CreateIfAbsent(tx ledger.Tx, owner, mint ledger.Address) (ledger.Address, error) {
	addr := HoldingAddress(owner, mint)
	if _, err := GetMint(tx, mint); err != nil {
		return addr, err
	}
	h := &Holding{Address: addr, Owner: owner, Mint: mint}
	err := ledger.InsertRecord(tx, HoldingsBucket, addr, h)
	if err != nil && !errors.Is(err, ledger.ErrExists) {
		return addr, err
	}
	return addr, nil
}

// Balance returns owner's balance of mint. A missing holding has balance 0.
func Balance(tx ledger.Tx, owner, mint ledger.Address) (uint64, error) {
	h, err := GetHolding(tx, HoldingAddress(owner, mint))
	if errors.Is(err, ErrHoldingNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return h.Amount, nil
}

// MintTo issues amount new tokens into owner's holding. authority must be the
// mint's authority.
func MintTo(tx ledger.Tx, mint, authority, owner ledger.Address, amount uint64) error {
	m, err := GetMint(tx, mint)
	if err != nil {
		return err
	}
	if m.Authority != authority {
		return fmt.Errorf("%w: %s is not the authority of %s", ErrUnauthorized, authority.Short(), m.Symbol)
	}
	supply, carry := bits.Add64(m.Supply, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: supply of %s", ErrOverflow, m.Symbol)
	}

	addr, err := CreateIfAbsent(tx, owner, mint)
	if err != nil {
		return err
	}
	h, err := GetHolding(tx, addr)
	if err != nil {
		return err
	}
	// Supply bounds every balance, so this cannot wrap.
	h.Amount += amount
	m.Supply = supply

	if err := ledger.PutRecord(tx, MintsBucket, mint, m); err != nil {
		return err
	}
	return ledger.PutRecord(tx, HoldingsBucket, addr, h)
}

// Transfer moves amount from one holding to another. authority must own the
// source holding; both holdings must exist and share a mint.
func Transfer(tx ledger.Tx, amount uint64, from, to, authority ledger.Address) error {
	src, err := GetHolding(tx, from)
	if err != nil {
		return err
	}
	if src.Owner != authority {
		return fmt.Errorf("%w: %s does not own holding %s", ErrUnauthorized, authority.Short(), from.Short())
	}
	dst, err := GetHolding(tx, to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, src.Amount, amount)
	}
	if amount == 0 || from == to {
		return nil
	}

	src.Amount -= amount
	dst.Amount += amount
	if err := ledger.PutRecord(tx, HoldingsBucket, from, src); err != nil {
		return err
	}
	return ledger.PutRecord(tx, HoldingsBucket, to, dst)
}

// Ledger exposes the package functions as a value so callers can depend on
// an interface instead of this package.
type Ledger struct{}

// CreateIfAbsent calls the package-level CreateIfAbsent.
func (Ledger) CreateIfAbsent(tx ledger.Tx, owner, mint ledger.Address) (ledger.Address, error) {
	return CreateIfAbsent(tx, owner, mint)
}

// Balance calls the package-level Balance.
func (Ledger) Balance(tx ledger.Tx, owner, mint ledger.Address) (uint64, error) {
	return Balance(tx, owner, mint)
}

// Transfer calls the package-level Transfer.
func (Ledger) Transfer(tx ledger.Tx, amount uint64, from, to, authority ledger.Address) error {
	return Transfer(tx, amount, from, to, authority)
}

// Exists reports whether mint has been created.
func (Ledger) Exists(tx ledger.Tx, mint ledger.Address) (bool, error) {
	_, err := GetMint(tx, mint)
	if errors.Is(err, ErrMintNotFound) {
		return false, nil
	}
	return err == nil, err
}
