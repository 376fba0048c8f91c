package governance

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// OrganizationAddress derives the address of creator's organization with seed.
func OrganizationAddress(creator identity.ID, seed uint64) ledger.Address {
	return ledger.Derive("dao", creator[:], ledger.U64(seed))
}

// OrganizationArgs are the arguments of CreateOrganization.
type OrganizationArgs struct {
	Seed            uint64
	Mint            ledger.Address // organization token
	InitialDeposit  uint64
	Name            string
	Description     string
	GovernanceModel GovernanceModel
	VotingModel     VotingModel
	RewardModel     RewardModel
	Thresholds      Thresholds
}

// OrganizationUpdate holds the fields to overwrite; nil fields are kept.
type OrganizationUpdate struct {
	Name            *string
	Description     *string
	GovernanceModel *GovernanceModel
	VotingModel     *VotingModel
	RewardModel     *RewardModel
	Thresholds      *Thresholds
}

func validateModels(g GovernanceModel, v VotingModel, r RewardModel) error {
	switch {
	case !g.valid():
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceParameters, g)
	case !v.valid():
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceParameters, v)
	case !r.valid():
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceParameters, r)
	}
	return nil
}

func (a OrganizationArgs) validate() error {
	if err := checkLength("name", a.Name, MaxNameLength); err != nil {
		return err
	}
	if err := checkLength("description", a.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if err := validateModels(a.GovernanceModel, a.VotingModel, a.RewardModel); err != nil {
		return err
	}
	return a.Thresholds.Validate()
}

func (u OrganizationUpdate) validate() error {
	if u.Name != nil {
		if err := checkLength("name", *u.Name, MaxNameLength); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if err := checkLength("description", *u.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	if u.GovernanceModel != nil && !u.GovernanceModel.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceParameters, *u.GovernanceModel)
	}
	if u.VotingModel != nil && !u.VotingModel.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceParameters, *u.VotingModel)
	}
	if u.RewardModel != nil && !u.RewardModel.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceParameters, *u.RewardModel)
	}
	if u.Thresholds != nil {
		return u.Thresholds.Validate()
	}
	return nil
}

func loadOrganization(tx ledger.Tx, addr ledger.Address) (*Organization, error) {
	return load[Organization](tx, OrganizationsBucket, addr)
}

// CreateOrganization creates a DAO owned by the caller. The caller pays the
// registry creation fee into the registry treasury and seeds the new
// organization treasury with the initial deposit.
func (p *Program) CreateOrganization(ctx context.Context, creator identity.Signer, args OrganizationArgs) (*Organization, error) {
	id, err := authenticate(creator, "create_organization",
		u64(args.Seed), args.Mint.Bytes(), u64(args.InitialDeposit), []byte(args.Name), []byte(args.Description),
		[]byte{uint8(args.GovernanceModel), uint8(args.VotingModel), uint8(args.RewardModel)},
		thresholdBytes(args.Thresholds))
	if err != nil {
		return nil, err
	}
	if err := args.validate(); err != nil {
		return nil, err
	}

	var org *Organization
	err = p.execute(ctx, "create_organization", func(t *txn) error {
		reg, err := loadRegistry(t)
		if err != nil {
			return err
		}
		addr := OrganizationAddress(id, args.Seed)
		if _, err := loadOrganization(t, addr); err == nil {
			return fmt.Errorf("%w: seed %d", ErrOrganizationExists, args.Seed)
		} else if !errors.Is(err, ErrRecordNotFound) {
			return err
		}
		if err := p.requireMint(t, args.Mint); err != nil {
			return err
		}

		feeSource, feeBalance, err := p.holding(t, id.Owner(), reg.Mint)
		if err != nil {
			return err
		}
		depositSource, depositBalance, err := p.holding(t, id.Owner(), args.Mint)
		if err != nil {
			return err
		}
		if reg.Mint == args.Mint {
			need, err := add(reg.CreationFee, args.InitialDeposit)
			if err != nil {
				return err
			}
			if feeBalance < need {
				return fmt.Errorf("%w: fee %d + deposit %d, balance %d",
					ErrInsufficientFunds, reg.CreationFee, args.InitialDeposit, feeBalance)
			}
		} else {
			if feeBalance < reg.CreationFee {
				return fmt.Errorf("%w: fee %d, balance %d", ErrInsufficientFunds, reg.CreationFee, feeBalance)
			}
			if depositBalance < args.InitialDeposit {
				return fmt.Errorf("%w: deposit %d, balance %d", ErrInsufficientFunds, args.InitialDeposit, depositBalance)
			}
		}

		if reg.TreasuryBalance, err = add(reg.TreasuryBalance, reg.CreationFee); err != nil {
			return err
		}
		if err := p.move(t, reg.CreationFee, feeSource, reg.Treasury, id.Owner()); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, RegistryBucket, reg.Address, reg); err != nil {
			return err
		}

		treasury, _, err := p.holding(t, addr, args.Mint)
		if err != nil {
			return err
		}
		if err := p.move(t, args.InitialDeposit, depositSource, treasury, id.Owner()); err != nil {
			return err
		}

		org = &Organization{
			Address:         addr,
			Creator:         id,
			Seed:            args.Seed,
			Mint:            args.Mint,
			Treasury:        treasury,
			Name:            args.Name,
			Description:     args.Description,
			GovernanceModel: args.GovernanceModel,
			VotingModel:     args.VotingModel,
			RewardModel:     args.RewardModel,
			Thresholds:      args.Thresholds,
			TreasuryBalance: args.InitialDeposit,
			CreatedAt:       t.now,
		}
		if err := insert(t, OrganizationsBucket, addr, org, ErrOrganizationExists); err != nil {
			return err
		}
		t.emit(EventOrganizationCreated, id, addr, args.InitialDeposit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// UpdateOrganization overwrites the provided fields. Only the creator may
// call it.
func (p *Program) UpdateOrganization(ctx context.Context, creator identity.Signer, org ledger.Address, upd OrganizationUpdate) (*Organization, error) {
	id, err := authenticate(creator, "update_organization",
		org.Bytes(), optString(upd.Name), optString(upd.Description),
		optTag(upd.GovernanceModel), optTag(upd.VotingModel), optTag(upd.RewardModel),
		optThresholds(upd.Thresholds))
	if err != nil {
		return nil, err
	}
	if err := upd.validate(); err != nil {
		return nil, err
	}

	var rec *Organization
	err = p.execute(ctx, "update_organization", func(t *txn) error {
		var err error
		if rec, err = loadOrganization(t, org); err != nil {
			return err
		}
		if rec.Creator != id {
			return fmt.Errorf("%w: %s is not the creator of %s", ErrUnauthorized, id, org.Short())
		}
		if upd.Name != nil {
			rec.Name = *upd.Name
		}
		if upd.Description != nil {
			rec.Description = *upd.Description
		}
		if upd.GovernanceModel != nil {
			rec.GovernanceModel = *upd.GovernanceModel
		}
		if upd.VotingModel != nil {
			rec.VotingModel = *upd.VotingModel
		}
		if upd.RewardModel != nil {
			rec.RewardModel = *upd.RewardModel
		}
		if upd.Thresholds != nil {
			rec.Thresholds = *upd.Thresholds
		}
		if err := ledger.PutRecord(t, OrganizationsBucket, org, rec); err != nil {
			return err
		}
		t.emit(EventOrganizationUpdated, id, org, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DepositOrganization moves amount of the organization token from the caller
// into the organization treasury.
func (p *Program) DepositOrganization(ctx context.Context, caller identity.Signer, org ledger.Address, amount uint64) (*Organization, error) {
	id, err := authenticate(caller, "deposit_organization", org.Bytes(), u64(amount))
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: deposit amount is zero", ErrInvalidArgument)
	}

	var rec *Organization
	err = p.execute(ctx, "deposit_organization", func(t *txn) error {
		var err error
		if rec, err = loadOrganization(t, org); err != nil {
			return err
		}
		if rec.TreasuryBalance, err = add(rec.TreasuryBalance, amount); err != nil {
			return err
		}
		source, balance, err := p.holding(t, id.Owner(), rec.Mint)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("%w: deposit %d, balance %d", ErrInsufficientFunds, amount, balance)
		}
		if err := p.move(t, amount, source, rec.Treasury, id.Owner()); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, OrganizationsBucket, org, rec); err != nil {
			return err
		}
		t.emit(EventOrganizationDeposit, id, org, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Organization returns the organization at addr.
func (p *Program) Organization(ctx context.Context, addr ledger.Address) (*Organization, error) {
	var org *Organization
	err := p.view(ctx, func(tx ledger.Tx) error {
		var err error
		org, err = loadOrganization(tx, addr)
		return err
	})
	return org, err
}
