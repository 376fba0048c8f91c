package governance

import (
	"context"
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// MembershipAddress derives the address of member's membership with seed.
func MembershipAddress(member identity.ID, seed uint64) ledger.Address {
	return ledger.Derive("member", member[:], ledger.U64(seed))
}

// CounterDeltas are added to a membership's counters.
type CounterDeltas struct {
	CreatedProposals  uint64
	ApprovedProposals uint64
	TotalRewards      uint64
	TotalVotes        uint64
}

func loadMembership(tx ledger.Tx, addr ledger.Address) (*Membership, error) {
	return load[Membership](tx, MembershipsBucket, addr)
}

// Join creates the caller's membership in org. The caller's balance of the
// organization token must meet the policy minimum; it is snapshotted into
// the record.
func (p *Program) Join(ctx context.Context, member identity.Signer, org ledger.Address, seed uint64) (*Membership, error) {
	id, err := authenticate(member, "join", org.Bytes(), u64(seed))
	if err != nil {
		return nil, err
	}

	var m *Membership
	err = p.execute(ctx, "join", func(t *txn) error {
		o, err := loadOrganization(t, org)
		if err != nil {
			return err
		}
		balance, err := p.tokens.Balance(t, id.Owner(), o.Mint)
		if err != nil {
			return err
		}
		if balance < p.policy.MinMemberBalance {
			return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientStake, balance, p.policy.MinMemberBalance)
		}
		if o.MemberCount, err = add(o.MemberCount, 1); err != nil {
			return err
		}

		addr := MembershipAddress(id, seed)
		m = &Membership{
			Address:      addr,
			Member:       id,
			Organization: org,
			Seed:         seed,
			Balance:      balance,
			JoinedAt:     t.now,
		}
		if err := insert(t, MembershipsBucket, addr, m, ErrMembershipExists); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, OrganizationsBucket, org, o); err != nil {
			return err
		}
		t.emit(EventMemberJoined, id, addr, balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateCounters adds deltas to the caller's membership counters. Only the
// member may call it.
func (p *Program) UpdateCounters(ctx context.Context, member identity.Signer, membership ledger.Address, d CounterDeltas) (*Membership, error) {
	id, err := authenticate(member, "update_counters", membership.Bytes(),
		u64(d.CreatedProposals), u64(d.ApprovedProposals), u64(d.TotalRewards), u64(d.TotalVotes))
	if err != nil {
		return nil, err
	}

	var m *Membership
	err = p.execute(ctx, "update_counters", func(t *txn) error {
		var err error
		if m, err = loadMembership(t, membership); err != nil {
			return err
		}
		if m.Member != id {
			return fmt.Errorf("%w: %s is not the member of %s", ErrUnauthorized, id, membership.Short())
		}
		if m.CreatedProposals, err = add(m.CreatedProposals, d.CreatedProposals); err != nil {
			return fmt.Errorf("%w: created proposals", err)
		}
		if m.ApprovedProposals, err = add(m.ApprovedProposals, d.ApprovedProposals); err != nil {
			return fmt.Errorf("%w: approved proposals", err)
		}
		if m.TotalRewards, err = add(m.TotalRewards, d.TotalRewards); err != nil {
			return fmt.Errorf("%w: total rewards", err)
		}
		if m.TotalVotes, err = add(m.TotalVotes, d.TotalVotes); err != nil {
			return fmt.Errorf("%w: total votes", err)
		}
		if err := ledger.PutRecord(t, MembershipsBucket, membership, m); err != nil {
			return err
		}
		t.emit(EventCountersUpdated, id, membership, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RefreshBalance re-snapshots the member's current organization token
// balance. Only the member may call it.
func (p *Program) RefreshBalance(ctx context.Context, member identity.Signer, membership ledger.Address) (*Membership, error) {
	id, err := authenticate(member, "refresh_balance", membership.Bytes())
	if err != nil {
		return nil, err
	}

	var m *Membership
	err = p.execute(ctx, "refresh_balance", func(t *txn) error {
		var err error
		if m, err = loadMembership(t, membership); err != nil {
			return err
		}
		if m.Member != id {
			return fmt.Errorf("%w: %s is not the member of %s", ErrUnauthorized, id, membership.Short())
		}
		o, err := loadOrganization(t, m.Organization)
		if err != nil {
			return err
		}
		if m.Balance, err = p.tokens.Balance(t, id.Owner(), o.Mint); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, MembershipsBucket, membership, m); err != nil {
			return err
		}
		t.emit(EventMemberBalanceRefresh, id, membership, m.Balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Membership returns the membership at addr.
func (p *Program) Membership(ctx context.Context, addr ledger.Address) (*Membership, error) {
	var m *Membership
	err := p.view(ctx, func(tx ledger.Tx) error {
		var err error
		m, err = loadMembership(tx, addr)
		return err
	})
	return m, err
}
