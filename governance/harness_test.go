package governance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
	"github.com/bitfsorg/daoverse-go/token"
)

const (
	startTime = int64(1_700_000_000)
	day       = int64(86_400)
)

var defaultThresholds = Thresholds{
	QuorumPercentage:   50,
	ApprovalPercentage: 60,
	MinVotingPeriod:    86_400,
	MaxVotingPeriod:    604_800,
}

// harness owns a store, a manual clock, a token issuer with two mints
// (platform and organization) and the program under test.
type harness struct {
	t        *testing.T
	ctx      context.Context
	store    ledger.Store
	clock    *ManualClock
	events   *EventLog
	tokens   *token.Service
	prog     *Program
	issuer   ledger.Address
	platform ledger.Address
	daoMint  ledger.Address
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, ledger.NewMemStore(), Options{})
}

func newHarnessWith(t *testing.T, store ledger.Store, opts Options) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		clock:  NewManualClock(startTime),
		events: &EventLog{},
		tokens: token.NewService(store),
		issuer: ledger.Derive("test-issuer"),
	}
	opts.Clock = h.clock
	opts.Events = h.events
	h.prog = New(store, opts)

	var err error
	h.platform, err = h.tokens.CreateMint(h.issuer, "DVT", 6)
	require.NoError(t, err)
	h.daoMint, err = h.tokens.CreateMint(h.issuer, "DAO", 6)
	require.NoError(t, err)
	return h
}

func (h *harness) key(label string) *identity.Key {
	h.t.Helper()
	k, err := identity.DeriveKey([]byte("governance-test"), label)
	require.NoError(h.t, err)
	return k
}

func (h *harness) fund(k *identity.Key, mint ledger.Address, amount uint64) {
	h.t.Helper()
	require.NoError(h.t, h.tokens.MintTo(mint, h.issuer, k.ID().Owner(), amount))
}

func (h *harness) balance(k *identity.Key, mint ledger.Address) uint64 {
	h.t.Helper()
	return h.holdingBalance(k.ID().Owner(), mint)
}

func (h *harness) holdingBalance(owner, mint ledger.Address) uint64 {
	h.t.Helper()
	b, err := h.tokens.Balance(owner, mint)
	require.NoError(h.t, err)
	return b
}

// initRegistry funds admin with deposit and initializes the registry.
func (h *harness) initRegistry(admin *identity.Key, fee, deposit uint64) *Registry {
	h.t.Helper()
	h.fund(admin, h.platform, deposit)
	reg, err := h.prog.Initialize(h.ctx, admin, InitializeArgs{
		Mint:           h.platform,
		CreationFee:    fee,
		AdminName:      "admin",
		Description:    "daoverse platform",
		InitialDeposit: deposit,
	})
	require.NoError(h.t, err)
	return reg
}

func orgArgs(seed, deposit uint64, mint ledger.Address) OrganizationArgs {
	return OrganizationArgs{
		Seed:            seed,
		Mint:            mint,
		InitialDeposit:  deposit,
		Name:            "builders",
		Description:     "a dao for builders",
		GovernanceModel: TokenBased,
		VotingModel:     WeightedToken,
		RewardModel:     Proportional,
		Thresholds:      defaultThresholds,
	}
}

// createOrg funds creator with the registry fee and deposit, then creates
// the organization.
func (h *harness) createOrg(creator *identity.Key, seed, deposit uint64) *Organization {
	h.t.Helper()
	reg, err := h.prog.Registry(h.ctx)
	require.NoError(h.t, err)
	h.fund(creator, h.platform, reg.CreationFee)
	h.fund(creator, h.daoMint, deposit)
	org, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(seed, deposit, h.daoMint))
	require.NoError(h.t, err)
	return org
}

// world is a harness with a registry, one organization with a funded
// treasury, a member who opened a proposal, and three funded voters.
type world struct {
	*harness
	admin, creator, alice *identity.Key
	bob, carol, dave      *identity.Key
	org                   *Organization
	membership            *Membership
	proposal              *Proposal
}

const (
	voterFunds    = uint64(1_000_000_000)
	orgDeposit    = uint64(5_000_000_000)
	aliceFunds    = uint64(10_000_000_000)
	proposalStake = uint64(50_000_000)
)

func newWorld(t *testing.T) *world {
	return newWorldWith(t, ledger.NewMemStore(), Options{})
}

func newWorldWith(t *testing.T, store ledger.Store, opts Options) *world {
	t.Helper()
	h := newHarnessWith(t, store, opts)
	w := &world{
		harness: h,
		admin:   h.key("admin"),
		creator: h.key("creator"),
		alice:   h.key("alice"),
		bob:     h.key("bob"),
		carol:   h.key("carol"),
		dave:    h.key("dave"),
	}
	h.initRegistry(w.admin, 1_000, 500)
	w.org = h.createOrg(w.creator, 1, orgDeposit)

	h.fund(w.alice, h.daoMint, aliceFunds)
	var err error
	w.membership, err = h.prog.Join(h.ctx, w.alice, w.org.Address, 7)
	require.NoError(t, err)

	w.proposal, err = h.prog.CreateProposal(h.ctx, w.alice, ProposalArgs{
		Membership:    w.membership.Address,
		Seed:          1,
		Title:         "fund the docs",
		Details:       "pay a writer for the handbook",
		Cost:          250_000_000,
		MinStake:      proposalStake,
		VotingEndTime: startTime + day,
	})
	require.NoError(t, err)

	for _, k := range []*identity.Key{w.bob, w.carol, w.dave} {
		h.fund(k, h.daoMint, voterFunds)
	}
	return w
}

func (w *world) vote(k *identity.Key, dir Direction, stake uint64) *Vote {
	w.t.Helper()
	v, err := w.prog.CastVote(w.ctx, k, w.proposal.Address, VoteArgs{Direction: dir, Stake: stake, Seed: 1})
	require.NoError(w.t, err)
	return v
}

func (w *world) closeVoting() {
	w.clock.Set(w.proposal.VotingEndTime)
}

func (w *world) reloadProposal() *Proposal {
	w.t.Helper()
	p, err := w.prog.Proposal(w.ctx, w.proposal.Address)
	require.NoError(w.t, err)
	return p
}

func (w *world) reloadOrg() *Organization {
	w.t.Helper()
	o, err := w.prog.Organization(w.ctx, w.org.Address)
	require.NoError(w.t, err)
	return o
}
