package token

import (
	"github.com/bitfsorg/daoverse-go/ledger"
)

// Service runs token operations in their own transactions. Harnesses use it
// to issue mints and fund identities before driving governance.
type Service struct {
	store ledger.Store
}

// NewService creates a Service over store.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// CreateMint creates a mint owned by authority.
func (s *Service) CreateMint(authority ledger.Address, symbol string, decimals uint8) (ledger.Address, error) {
	var addr ledger.Address
	err := s.store.Update(func(tx ledger.Tx) error {
		var err error
		addr, err = CreateMint(tx, authority, symbol, decimals)
		return err
	})
	return addr, err
}

// MintTo issues amount of mint into owner's holding.
func (s *Service) MintTo(mint, authority, owner ledger.Address, amount uint64) error {
	return s.store.Update(func(tx ledger.Tx) error {
		return MintTo(tx, mint, authority, owner, amount)
	})
}

// Transfer moves amount between holdings.
func (s *Service) Transfer(amount uint64, from, to, authority ledger.Address) error {
	return s.store.Update(func(tx ledger.Tx) error {
		return Transfer(tx, amount, from, to, authority)
	})
}

// Balance returns owner's balance of mint.
func (s *Service) Balance(owner, mint ledger.Address) (uint64, error) {
	var amount uint64
	err := s.store.View(func(tx ledger.Tx) error {
		var err error
		amount, err = Balance(tx, owner, mint)
		return err
	})
	return amount, err
}

// Mint loads a mint.
func (s *Service) Mint(mint ledger.Address) (*Mint, error) {
	var m *Mint
	err := s.store.View(func(tx ledger.Tx) error {
		var err error
		m, err = GetMint(tx, mint)
		return err
	})
	return m, err
}
