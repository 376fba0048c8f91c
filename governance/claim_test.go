package governance

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

func (w *world) claim(k *identity.Key) *Vote {
	w.t.Helper()
	v, err := w.prog.ClaimStakeRewards(w.ctx, k, VoteAddress(k.ID(), w.proposal.Address))
	require.NoError(w.t, err)
	return v
}

func TestClaimStakeRewards(t *testing.T) {
	w := newWorld(t)
	w.vote(w.bob, Yes, 100_000_000)

	_, err := w.prog.ClaimStakeRewards(w.ctx, w.bob, VoteAddress(w.bob.ID(), w.proposal.Address))
	assert.ErrorIs(t, err, ErrVotingStillOpen)
	assert.Equal(t, voterFunds-100_000_000, w.balance(w.bob, w.daoMint))

	w.closeVoting()
	v := w.claim(w.bob)
	assert.True(t, v.Claimed)
	// Sole voter: the whole 20% pool of 100e6.
	assert.Equal(t, uint64(20_000_000), v.Reward)
	assert.Equal(t, voterFunds+20_000_000, w.balance(w.bob, w.daoMint))

	p := w.reloadProposal()
	assert.True(t, p.Finalized)
	assert.Equal(t, uint64(1), p.Claims)
	assert.Zero(t, p.VaultBalance)
	assert.Zero(t, w.holdingBalance(p.Address, w.daoMint))
	assert.Equal(t, StateSettled, Status(p, w.clock.Now()))

	org := w.reloadOrg()
	assert.Equal(t, orgDeposit-20_000_000, org.TreasuryBalance)
	assert.Equal(t, org.TreasuryBalance, w.holdingBalance(org.Address, w.daoMint))

	_, err = w.prog.ClaimStakeRewards(w.ctx, w.bob, v.Address)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, voterFunds+20_000_000, w.balance(w.bob, w.daoMint))

	claims := w.events.OfKind(EventRewardsClaimed)
	require.Len(t, claims, 1)
	assert.Equal(t, uint64(120_000_000), claims[0].Amount)
	assert.Equal(t, w.bob.ID(), claims[0].Actor)
}

func TestClaimStakeRewards_OtherCaller(t *testing.T) {
	w := newWorld(t)
	w.vote(w.bob, Yes, 100_000_000)
	w.closeVoting()

	_, err := w.prog.ClaimStakeRewards(w.ctx, w.carol, VoteAddress(w.bob.ID(), w.proposal.Address))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, voterFunds, w.balance(w.carol, w.daoMint))

	v, err := w.prog.Vote(w.ctx, VoteAddress(w.bob.ID(), w.proposal.Address))
	require.NoError(t, err)
	assert.False(t, v.Claimed)
	// The rejected claim did not finalize either.
	assert.False(t, w.reloadProposal().Finalized)
}

func TestClaimStakeRewards_Tie(t *testing.T) {
	w := newWorld(t)
	w.vote(w.bob, Yes, 100_000_000)
	w.vote(w.carol, No, 300_000_000)
	w.closeVoting()

	// 50% Yes misses the 60% approval, so No takes the whole 80e6 pool.
	assert.Zero(t, w.claim(w.bob).Reward)
	assert.Equal(t, uint64(80_000_000), w.claim(w.carol).Reward)
	assert.Equal(t, voterFunds, w.balance(w.bob, w.daoMint))
	assert.Equal(t, voterFunds+80_000_000, w.balance(w.carol, w.daoMint))

	p := w.reloadProposal()
	assert.Equal(t, OutcomeRejected, p.Outcome)
	assert.Equal(t, StateSettled, Status(p, w.clock.Now()))
	assert.Equal(t, orgDeposit-80_000_000, w.reloadOrg().TreasuryBalance)
}

func TestClaimStakeRewards_MajorityBelowApproval(t *testing.T) {
	w := newWorld(t)
	strict := defaultThresholds
	strict.ApprovalPercentage = 80
	_, err := w.prog.UpdateOrganization(w.ctx, w.creator, w.org.Address, OrganizationUpdate{Thresholds: &strict})
	require.NoError(t, err)

	w.vote(w.bob, Yes, 100_000_000)
	w.vote(w.dave, Yes, 100_000_000)
	w.vote(w.carol, No, 300_000_000)
	w.closeVoting()

	// Two of three voters said Yes, short of 80%: No won.
	assert.Zero(t, w.claim(w.bob).Reward)
	assert.Zero(t, w.claim(w.dave).Reward)
	assert.Equal(t, uint64(100_000_000), w.claim(w.carol).Reward)

	assert.Equal(t, OutcomeRejected, w.reloadProposal().Outcome)
	assert.Equal(t, voterFunds, w.balance(w.bob, w.daoMint))
	assert.Equal(t, voterFunds+100_000_000, w.balance(w.carol, w.daoMint))
	assert.Zero(t, w.reloadOrg().ApprovedProposals)
}

func TestClaimStakeRewards_NoQuorumRefundsStakeOnly(t *testing.T) {
	w := newWorld(t)
	full := defaultThresholds
	full.QuorumPercentage = 100
	_, err := w.prog.UpdateOrganization(w.ctx, w.creator, w.org.Address, OrganizationUpdate{Thresholds: &full})
	require.NoError(t, err)
	for i, k := range []*identity.Key{w.bob, w.carol} {
		_, err := w.prog.Join(w.ctx, k, w.org.Address, uint64(i))
		require.NoError(t, err)
	}

	// One voter out of three members.
	w.vote(w.bob, Yes, 100_000_000)
	w.closeVoting()

	v := w.claim(w.bob)
	assert.Zero(t, v.Reward)
	assert.Equal(t, voterFunds, w.balance(w.bob, w.daoMint))
	assert.Equal(t, OutcomeNoQuorum, w.reloadProposal().Outcome)
	assert.Equal(t, orgDeposit, w.reloadOrg().TreasuryBalance)
}

func TestClaimStakeRewards_WinningSide(t *testing.T) {
	w := newWorld(t)
	w.vote(w.bob, Yes, 100_000_000)
	w.vote(w.carol, No, 300_000_000)
	w.vote(w.dave, Yes, 100_000_000)
	w.closeVoting()

	// The proposal passed: Yes splits the 100e6 pool by stake.
	assert.Equal(t, uint64(50_000_000), w.claim(w.bob).Reward)
	assert.Zero(t, w.claim(w.carol).Reward)
	assert.Equal(t, uint64(50_000_000), w.claim(w.dave).Reward)

	// The losing side still gets its stake back.
	assert.Equal(t, voterFunds, w.balance(w.carol, w.daoMint))

	p := w.reloadProposal()
	assert.Equal(t, OutcomePassed, p.Outcome)
	assert.Equal(t, uint64(3), p.Claims)
	assert.Zero(t, p.VaultBalance)

	org := w.reloadOrg()
	assert.Equal(t, uint64(1), org.ApprovedProposals)
	assert.Equal(t, orgDeposit-100_000_000, org.TreasuryBalance)
	m, err := w.prog.Membership(w.ctx, w.membership.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ApprovedProposals)
}

func TestClaimStakeRewards_NoRewardsModel(t *testing.T) {
	w := newWorld(t)
	_, err := w.prog.UpdateOrganization(w.ctx, w.creator, w.org.Address, OrganizationUpdate{RewardModel: ptr(NoRewards)})
	require.NoError(t, err)
	w.vote(w.bob, Yes, 100_000_000)
	w.closeVoting()

	v := w.claim(w.bob)
	assert.Zero(t, v.Reward)
	assert.Equal(t, voterFunds, w.balance(w.bob, w.daoMint))
	assert.Equal(t, orgDeposit, w.reloadOrg().TreasuryBalance)
}

func TestClaimStakeRewards_FlatInterest(t *testing.T) {
	w := newWorldWith(t, ledger.NewMemStore(), Options{Rewards: FlatInterestPolicy{Percent: 20}})
	w.vote(w.bob, Yes, 100_000_000)
	w.vote(w.carol, No, 300_000_000)
	w.vote(w.dave, Yes, 100_000_000)
	w.closeVoting()

	assert.Equal(t, uint64(20_000_000), w.claim(w.bob).Reward)
	assert.Equal(t, uint64(60_000_000), w.claim(w.carol).Reward)
}

func TestClaimStakeRewards_TreasuryShort(t *testing.T) {
	w := newWorldWith(t, ledger.NewMemStore(), Options{Rewards: FlatInterestPolicy{Percent: 10_000}})
	w.vote(w.bob, Yes, 100_000_000)
	w.closeVoting()

	// 100x the stake is 10e9, twice what the treasury holds.
	_, err := w.prog.ClaimStakeRewards(w.ctx, w.bob, VoteAddress(w.bob.ID(), w.proposal.Address))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	v, err := w.prog.Vote(w.ctx, VoteAddress(w.bob.ID(), w.proposal.Address))
	require.NoError(t, err)
	assert.False(t, v.Claimed)
	assert.Equal(t, voterFunds-100_000_000, w.balance(w.bob, w.daoMint))
	assert.Equal(t, uint64(100_000_000), w.reloadProposal().VaultBalance)
	assert.Empty(t, w.events.OfKind(EventRewardsClaimed))

	// A top-up unblocks the claim.
	donor := w.key("donor")
	w.fund(donor, w.daoMint, 5_000_000_000)
	_, err = w.prog.DepositOrganization(w.ctx, donor, w.org.Address, 5_000_000_000)
	require.NoError(t, err)
	v = w.claim(w.bob)
	assert.Equal(t, uint64(10_000_000_000), v.Reward)
	assert.Zero(t, w.reloadOrg().TreasuryBalance)
}

func TestEvents_OnlyOnCommit(t *testing.T) {
	w := newWorld(t)
	before := len(w.events.Events())

	_, err := w.prog.CastVote(w.ctx, w.bob, w.proposal.Address, VoteArgs{Direction: Yes, Stake: 1})
	require.ErrorIs(t, err, ErrInsufficientStake)
	assert.Len(t, w.events.Events(), before)

	w.vote(w.bob, Yes, proposalStake)
	events := w.events.Events()
	require.Len(t, events, before+1)
	last := events[len(events)-1]
	assert.Equal(t, EventVoteCast, last.Kind)
	assert.Equal(t, w.bob.ID(), last.Actor)
	assert.Equal(t, VoteAddress(w.bob.ID(), w.proposal.Address), last.Record)
	assert.Equal(t, proposalStake, last.Amount)
	assert.Equal(t, startTime, last.At)
	assert.NotEqual(t, events[0].ID, last.ID)
}

// turnoutSink records the proposal's vote count at the moment each vote
// event is delivered.
type turnoutSink struct {
	prog     *Program
	proposal *Proposal
	seen     []uint64
}

func (s *turnoutSink) Emit(e Event) {
	if e.Kind != EventVoteCast {
		return
	}
	p, err := s.prog.Proposal(context.Background(), s.proposal.Address)
	if err != nil {
		panic(err)
	}
	s.seen = append(s.seen, p.TotalVotes())
}

func TestEvents_DeliveredInCommitOrder(t *testing.T) {
	w := newWorld(t)
	sink := &turnoutSink{proposal: w.proposal}
	prog := New(w.store, Options{Clock: w.clock, Events: sink})
	sink.prog = prog

	voters := make([]*identity.Key, 12)
	for i := range voters {
		voters[i] = w.key(fmt.Sprintf("turnout-%d", i))
		w.fund(voters[i], w.daoMint, voterFunds)
	}
	var wg sync.WaitGroup
	for _, k := range voters {
		wg.Add(1)
		go func(k *identity.Key) {
			defer wg.Done()
			_, err := prog.CastVote(w.ctx, k, w.proposal.Address, VoteArgs{Direction: Yes, Stake: proposalStake})
			assert.NoError(t, err)
		}(k)
	}
	wg.Wait()

	// The n-th delivered event saw exactly n votes: nothing committed
	// between a vote and its delivery.
	require.Len(t, sink.seen, len(voters))
	for i, n := range sink.seen {
		assert.Equal(t, uint64(i+1), n)
	}
}

func TestLifecycle_BoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daoverse.db")
	store, err := ledger.OpenBoltStore(path, Buckets()...)
	require.NoError(t, err)

	w := newWorldWith(t, store, Options{})
	w.vote(w.bob, Yes, 100_000_000)
	w.vote(w.carol, No, 300_000_000)
	w.vote(w.dave, Yes, 100_000_000)
	w.clock.Advance(36 * time.Hour)

	for _, k := range []*identity.Key{w.bob, w.carol, w.dave} {
		w.claim(k)
	}
	require.NoError(t, store.Close())

	// Everything survives a reopen.
	reopened, err := ledger.OpenBoltStore(path, Buckets()...)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	prog := New(reopened, Options{Clock: w.clock})
	p, err := prog.Proposal(w.ctx, w.proposal.Address)
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, p.Outcome)
	assert.Equal(t, uint64(3), p.Claims)

	state, err := prog.ProposalStatus(w.ctx, w.proposal.Address)
	require.NoError(t, err)
	assert.Equal(t, StateSettled, state)

	votes, err := prog.Votes(w.ctx, w.proposal.Address)
	require.NoError(t, err)
	require.Len(t, votes, 3)
	for _, v := range votes {
		assert.True(t, v.Claimed)
	}

	org, err := prog.Organization(w.ctx, w.org.Address)
	require.NoError(t, err)
	assert.Equal(t, orgDeposit-100_000_000, org.TreasuryBalance)
}
