package governance

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// VoteAddress derives the address of voter's vote on proposal. There is one
// per pair, which is what rejects a second vote.
func VoteAddress(voter identity.ID, proposal ledger.Address) ledger.Address {
	return ledger.Derive("voter", voter[:], proposal[:])
}

// VoteArgs are the arguments of CastVote.
type VoteArgs struct {
	Direction Direction
	Stake     uint64
	Seed      uint64 // stored on the receipt, not part of its address
}

func loadVote(tx ledger.Tx, addr ledger.Address) (*Vote, error) {
	return load[Vote](tx, VotesBucket, addr)
}

// CastVote stakes tokens on one side of an open proposal. The vote counts
// one voter toward its side; stake is kept separately for settlement.
func (p *Program) CastVote(ctx context.Context, voter identity.Signer, proposal ledger.Address, args VoteArgs) (*Vote, error) {
	id, err := authenticate(voter, "vote",
		proposal.Bytes(), []byte{uint8(args.Direction)}, u64(args.Stake), u64(args.Seed))
	if err != nil {
		return nil, err
	}
	if args.Direction != Yes && args.Direction != No {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, args.Direction)
	}

	var v *Vote
	err = p.execute(ctx, "vote", func(t *txn) error {
		prop, err := loadProposal(t, proposal)
		if err != nil {
			return err
		}
		if t.now >= prop.VotingEndTime || prop.Finalized {
			return fmt.Errorf("%w: ended at %d", ErrVotingClosed, prop.VotingEndTime)
		}
		if args.Stake < prop.MinStake {
			return fmt.Errorf("%w: stake %d, minimum %d", ErrInsufficientStake, args.Stake, prop.MinStake)
		}

		addr := VoteAddress(id, proposal)
		if _, err := loadVote(t, addr); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateVote, addr.Short())
		} else if !errors.Is(err, ErrRecordNotFound) {
			return err
		}

		org, err := loadOrganization(t, prop.Organization)
		if err != nil {
			return err
		}
		source, balance, err := p.holding(t, id.Owner(), org.Mint)
		if err != nil {
			return err
		}
		if balance < p.policy.MinVoterBalance {
			return fmt.Errorf("%w: balance %d, voter floor %d", ErrInsufficientFunds, balance, p.policy.MinVoterBalance)
		}
		if balance < args.Stake {
			return fmt.Errorf("%w: stake %d, balance %d", ErrInsufficientFunds, args.Stake, balance)
		}

		switch args.Direction {
		case Yes:
			if prop.YesVotes, err = add(prop.YesVotes, 1); err != nil {
				return err
			}
			if prop.YesStake, err = add(prop.YesStake, args.Stake); err != nil {
				return err
			}
		case No:
			if prop.NoVotes, err = add(prop.NoVotes, 1); err != nil {
				return err
			}
			if prop.NoStake, err = add(prop.NoStake, args.Stake); err != nil {
				return err
			}
		}
		if prop.VaultBalance, err = add(prop.VaultBalance, args.Stake); err != nil {
			return err
		}
		if err := p.move(t, args.Stake, source, prop.Vault, id.Owner()); err != nil {
			return err
		}

		v = &Vote{
			Address:   addr,
			Voter:     id,
			Proposal:  proposal,
			Seed:      args.Seed,
			Direction: args.Direction,
			Staked:    args.Stake,
			CastAt:    t.now,
		}
		if err := insert(t, VotesBucket, addr, v, ErrDuplicateVote); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, ProposalsBucket, proposal, prop); err != nil {
			return err
		}
		t.emit(EventVoteCast, id, addr, args.Stake)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Vote returns the vote receipt at addr.
func (p *Program) Vote(ctx context.Context, addr ledger.Address) (*Vote, error) {
	var v *Vote
	err := p.view(ctx, func(tx ledger.Tx) error {
		var err error
		v, err = loadVote(tx, addr)
		return err
	})
	return v, err
}

// Votes returns every vote on proposal in address order. A proposal without
// votes yields an empty slice.
func (p *Program) Votes(ctx context.Context, proposal ledger.Address) ([]*Vote, error) {
	var votes []*Vote
	err := p.view(ctx, func(tx ledger.Tx) error {
		if _, err := loadProposal(tx, proposal); err != nil {
			return err
		}
		return ledger.EachRecord(tx, VotesBucket, func(_ ledger.Address, v *Vote) error {
			if v.Proposal == proposal {
				votes = append(votes, v)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if votes == nil {
		votes = []*Vote{}
	}
	return votes, nil
}
