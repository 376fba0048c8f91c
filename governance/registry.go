package governance

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// RegistryAddress is the fixed address of the single registry record.
func RegistryAddress() ledger.Address {
	return ledger.Derive("daoverse")
}

// InitializeArgs are the arguments of Initialize.
type InitializeArgs struct {
	Mint           ledger.Address // platform token the fee is paid in
	CreationFee    uint64
	AdminName      string
	Description    string
	InitialDeposit uint64
}

// RegistryUpdate holds the registry fields to overwrite; nil fields are kept.
type RegistryUpdate struct {
	CreationFee *uint64
	AdminName   *string
	Description *string
}

func loadRegistry(tx ledger.Tx) (*Registry, error) {
	reg, err := load[Registry](tx, RegistryBucket, RegistryAddress())
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrNotInitialized
	}
	return reg, err
}

// Initialize creates the registry with the caller as admin and moves the
// initial deposit from the caller into the registry treasury.
func (p *Program) Initialize(ctx context.Context, admin identity.Signer, args InitializeArgs) (*Registry, error) {
	id, err := authenticate(admin, "initialize",
		args.Mint.Bytes(), u64(args.CreationFee), []byte(args.AdminName), []byte(args.Description), u64(args.InitialDeposit))
	if err != nil {
		return nil, err
	}
	if err := checkLength("admin name", args.AdminName, MaxNameLength); err != nil {
		return nil, err
	}
	if err := checkLength("description", args.Description, MaxDescriptionLength); err != nil {
		return nil, err
	}

	var reg *Registry
	err = p.execute(ctx, "initialize", func(t *txn) error {
		addr := RegistryAddress()
		if _, err := loadRegistry(t); err == nil {
			return ErrAlreadyInitialized
		} else if !errors.Is(err, ErrNotInitialized) {
			return err
		}
		if err := p.requireMint(t, args.Mint); err != nil {
			return err
		}

		treasury, _, err := p.holding(t, addr, args.Mint)
		if err != nil {
			return err
		}
		source, balance, err := p.holding(t, id.Owner(), args.Mint)
		if err != nil {
			return err
		}
		if balance < args.InitialDeposit {
			return fmt.Errorf("%w: deposit %d, balance %d", ErrInsufficientFunds, args.InitialDeposit, balance)
		}
		if err := p.move(t, args.InitialDeposit, source, treasury, id.Owner()); err != nil {
			return err
		}

		reg = &Registry{
			Address:         addr,
			Admin:           id,
			Mint:            args.Mint,
			Treasury:        treasury,
			CreationFee:     args.CreationFee,
			AdminName:       args.AdminName,
			Description:     args.Description,
			TreasuryBalance: args.InitialDeposit,
		}
		if err := insert(t, RegistryBucket, addr, reg, ErrAlreadyInitialized); err != nil {
			return err
		}
		t.emit(EventInitialized, id, addr, args.InitialDeposit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// UpdateRegistry overwrites the provided registry fields. Only the admin may
// call it; the treasury is never touched.
func (p *Program) UpdateRegistry(ctx context.Context, admin identity.Signer, upd RegistryUpdate) (*Registry, error) {
	id, err := authenticate(admin, "update_registry",
		optU64(upd.CreationFee), optString(upd.AdminName), optString(upd.Description))
	if err != nil {
		return nil, err
	}
	if upd.AdminName != nil {
		if err := checkLength("admin name", *upd.AdminName, MaxNameLength); err != nil {
			return nil, err
		}
	}
	if upd.Description != nil {
		if err := checkLength("description", *upd.Description, MaxDescriptionLength); err != nil {
			return nil, err
		}
	}

	var reg *Registry
	err = p.execute(ctx, "update_registry", func(t *txn) error {
		var err error
		if reg, err = loadRegistry(t); err != nil {
			return err
		}
		if reg.Admin != id {
			return fmt.Errorf("%w: %s is not the registry admin", ErrUnauthorized, id)
		}
		if upd.CreationFee != nil {
			reg.CreationFee = *upd.CreationFee
		}
		if upd.AdminName != nil {
			reg.AdminName = *upd.AdminName
		}
		if upd.Description != nil {
			reg.Description = *upd.Description
		}
		if err := ledger.PutRecord(t, RegistryBucket, reg.Address, reg); err != nil {
			return err
		}
		t.emit(EventRegistryUpdated, id, reg.Address, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// DepositRegistry moves amount of the platform token from the caller into
// the registry treasury. Anyone may deposit.
func (p *Program) DepositRegistry(ctx context.Context, caller identity.Signer, amount uint64) (*Registry, error) {
	id, err := authenticate(caller, "deposit_registry", u64(amount))
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: deposit amount is zero", ErrInvalidArgument)
	}

	var reg *Registry
	err = p.execute(ctx, "deposit_registry", func(t *txn) error {
		var err error
		if reg, err = loadRegistry(t); err != nil {
			return err
		}
		if reg.TreasuryBalance, err = add(reg.TreasuryBalance, amount); err != nil {
			return err
		}
		source, balance, err := p.holding(t, id.Owner(), reg.Mint)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("%w: deposit %d, balance %d", ErrInsufficientFunds, amount, balance)
		}
		if err := p.move(t, amount, source, reg.Treasury, id.Owner()); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, RegistryBucket, reg.Address, reg); err != nil {
			return err
		}
		t.emit(EventRegistryDeposit, id, reg.Address, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Registry returns the registry record, or ErrNotInitialized.
func (p *Program) Registry(ctx context.Context) (*Registry, error) {
	var reg *Registry
	err := p.view(ctx, func(tx ledger.Tx) error {
		var err error
		reg, err = loadRegistry(tx)
		return err
	})
	return reg, err
}
