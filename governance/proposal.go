package governance

import (
	"context"
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// ProposalAddress derives the address of owner's proposal with seed.
func ProposalAddress(owner identity.ID, seed uint64) ledger.Address {
	return ledger.Derive("proposal", owner[:], ledger.U64(seed))
}

// ProposalArgs are the arguments of CreateProposal.
type ProposalArgs struct {
	Membership    ledger.Address // proposer's membership
	Seed          uint64
	Title         string
	Details       string
	Cost          uint64
	MinStake      uint64
	VotingEndTime int64 // unix seconds
}

func loadProposal(tx ledger.Tx, addr ledger.Address) (*Proposal, error) {
	return load[Proposal](tx, ProposalsBucket, addr)
}

// Status derives the proposal's state at time now.
func Status(p *Proposal, now int64) ProposalState {
	switch {
	case now < p.VotingEndTime:
		return StateOpen
	case p.Claims >= p.TotalVotes():
		return StateSettled
	default:
		return StateClosed
	}
}

// Tally computes the outcome of a closed proposal. Quorum compares the
// number of voters with the organization's MemberCount (one per membership
// record, so a member joined under two seeds counts twice). Voting needs no
// membership, so turnout may exceed 100%. Approval is the share of cast
// votes that are Yes.
func Tally(org *Organization, p *Proposal) Outcome {
	votes := p.TotalVotes()
	if !atLeast(votes, 100, uint64(org.Thresholds.QuorumPercentage), org.MemberCount) {
		return OutcomeNoQuorum
	}
	if votes == 0 {
		return OutcomeRejected
	}
	if atLeast(p.YesVotes, 100, uint64(org.Thresholds.ApprovalPercentage), votes) {
		return OutcomePassed
	}
	return OutcomeRejected
}

// CreateProposal opens a proposal in the caller's organization. The caller
// must own the membership and hold at least the proposer floor.
func (p *Program) CreateProposal(ctx context.Context, proposer identity.Signer, args ProposalArgs) (*Proposal, error) {
	id, err := authenticate(proposer, "create_proposal",
		args.Membership.Bytes(), u64(args.Seed), []byte(args.Title), []byte(args.Details),
		u64(args.Cost), u64(args.MinStake), i64(args.VotingEndTime))
	if err != nil {
		return nil, err
	}
	if err := checkLength("title", args.Title, MaxNameLength); err != nil {
		return nil, err
	}
	if err := checkLength("details", args.Details, MaxDescriptionLength); err != nil {
		return nil, err
	}

	var prop *Proposal
	err = p.execute(ctx, "create_proposal", func(t *txn) error {
		m, err := loadMembership(t, args.Membership)
		if err != nil {
			return err
		}
		if m.Member != id {
			return fmt.Errorf("%w: %s is not the member of %s", ErrUnauthorized, id, args.Membership.Short())
		}
		if args.VotingEndTime <= t.now {
			return fmt.Errorf("%w: end %d, now %d", ErrInvalidDeadline, args.VotingEndTime, t.now)
		}
		org, err := loadOrganization(t, m.Organization)
		if err != nil {
			return err
		}
		balance, err := p.tokens.Balance(t, id.Owner(), org.Mint)
		if err != nil {
			return err
		}
		if balance < p.policy.MinProposerBalance {
			return fmt.Errorf("%w: balance %d, proposer floor %d", ErrInsufficientFunds, balance, p.policy.MinProposerBalance)
		}

		addr := ProposalAddress(id, args.Seed)
		vault, err := p.tokens.CreateIfAbsent(t, addr, org.Mint)
		if err != nil {
			return err
		}
		prop = &Proposal{
			Address:       addr,
			Owner:         id,
			Organization:  org.Address,
			Membership:    m.Address,
			Seed:          args.Seed,
			Title:         args.Title,
			Details:       args.Details,
			Cost:          args.Cost,
			MinStake:      args.MinStake,
			VotingEndTime: args.VotingEndTime,
			Vault:         vault,
			CreatedAt:     t.now,
		}
		if err := insert(t, ProposalsBucket, addr, prop, ErrProposalExists); err != nil {
			return err
		}

		if m.CreatedProposals, err = add(m.CreatedProposals, 1); err != nil {
			return err
		}
		if org.TotalProposals, err = add(org.TotalProposals, 1); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, MembershipsBucket, m.Address, m); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, OrganizationsBucket, org.Address, org); err != nil {
			return err
		}
		t.emit(EventProposalCreated, id, addr, args.Cost)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// finalize records the outcome of a closed proposal once. When the proposal
// passed, the organization and proposer approval counters are incremented.
// org is updated in place; the caller persists it.
func finalize(t *txn, prop *Proposal, org *Organization) error {
	if prop.Finalized {
		return nil
	}
	prop.Outcome = Tally(org, prop)
	prop.Finalized = true
	prop.FinalizedAt = t.now

	if prop.Outcome == OutcomePassed {
		var err error
		if org.ApprovedProposals, err = add(org.ApprovedProposals, 1); err != nil {
			return err
		}
		m, err := loadMembership(t, prop.Membership)
		if err != nil {
			return err
		}
		if m.ApprovedProposals, err = add(m.ApprovedProposals, 1); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, MembershipsBucket, m.Address, m); err != nil {
			return err
		}
	}
	t.emit(EventProposalFinalized, prop.Owner, prop.Address, prop.TotalStake())
	return nil
}

// FinalizeProposal records the outcome of a closed proposal. Anyone may call
// it; finalizing an already finalized proposal returns it unchanged.
func (p *Program) FinalizeProposal(ctx context.Context, proposal ledger.Address) (*Proposal, error) {
	var prop *Proposal
	err := p.execute(ctx, "finalize_proposal", func(t *txn) error {
		var err error
		if prop, err = loadProposal(t, proposal); err != nil {
			return err
		}
		if t.now < prop.VotingEndTime {
			return fmt.Errorf("%w: ends at %d", ErrVotingStillOpen, prop.VotingEndTime)
		}
		if prop.Finalized {
			return nil
		}
		org, err := loadOrganization(t, prop.Organization)
		if err != nil {
			return err
		}
		if err := finalize(t, prop, org); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, ProposalsBucket, proposal, prop); err != nil {
			return err
		}
		return ledger.PutRecord(t, OrganizationsBucket, org.Address, org)
	})
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// Proposal returns the proposal at addr.
func (p *Program) Proposal(ctx context.Context, addr ledger.Address) (*Proposal, error) {
	var prop *Proposal
	err := p.view(ctx, func(tx ledger.Tx) error {
		var err error
		prop, err = loadProposal(tx, addr)
		return err
	})
	return prop, err
}

// ProposalStatus returns the proposal's state at the program's current time.
func (p *Program) ProposalStatus(ctx context.Context, addr ledger.Address) (ProposalState, error) {
	prop, err := p.Proposal(ctx, addr)
	if err != nil {
		return StateOpen, err
	}
	return Status(prop, p.clock.Now()), nil
}
