package governance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrganization(t *testing.T) {
	h := newHarness(t)
	h.initRegistry(h.key("admin"), 1_000, 500)
	creator := h.key("creator")
	h.fund(creator, h.platform, 1_500)
	h.fund(creator, h.daoMint, 800)

	org, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(1, 500, h.daoMint))
	require.NoError(t, err)

	stored, err := h.prog.Organization(h.ctx, OrganizationAddress(creator.ID(), 1))
	require.NoError(t, err)
	assert.Equal(t, org, stored)
	assert.Equal(t, creator.ID(), stored.Creator)
	assert.Equal(t, uint64(1), stored.Seed)
	assert.Equal(t, "builders", stored.Name)
	assert.Equal(t, defaultThresholds, stored.Thresholds)
	assert.Equal(t, TokenBased, stored.GovernanceModel)
	assert.Equal(t, WeightedToken, stored.VotingModel)
	assert.Equal(t, Proportional, stored.RewardModel)
	assert.Equal(t, uint64(500), stored.TreasuryBalance)
	assert.Equal(t, startTime, stored.CreatedAt)

	// Treasury holds the deposit; the fee went to the registry.
	assert.Equal(t, uint64(500), h.holdingBalance(org.Address, h.daoMint))
	assert.Equal(t, uint64(300), h.balance(creator, h.daoMint))
	assert.Equal(t, uint64(500), h.balance(creator, h.platform))

	reg, err := h.prog.Registry(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500), reg.TreasuryBalance)
	assert.Equal(t, uint64(1_500), h.holdingBalance(reg.Address, h.platform))
}

func TestCreateOrganization_SameMintNeedsFeePlusDeposit(t *testing.T) {
	h := newHarness(t)
	h.initRegistry(h.key("admin"), 1_000, 500)
	creator := h.key("creator")
	h.fund(creator, h.platform, 1_499)

	_, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(1, 500, h.platform))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, uint64(1_499), h.balance(creator, h.platform))

	h.fund(creator, h.platform, 1)
	org, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(1, 500, h.platform))
	require.NoError(t, err)
	assert.Zero(t, h.balance(creator, h.platform))
	assert.Equal(t, uint64(500), h.holdingBalance(org.Address, h.platform))
}

func TestCreateOrganization_InsufficientFunds(t *testing.T) {
	tests := []struct {
		name       string
		platform   uint64
		daoTokens  uint64
		wantFundOK bool
	}{
		{"fee short", 999, 500, false},
		{"deposit short", 1_000, 499, false},
		{"both covered", 1_000, 500, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.initRegistry(h.key("admin"), 1_000, 500)
			creator := h.key("creator")
			h.fund(creator, h.platform, tt.platform)
			h.fund(creator, h.daoMint, tt.daoTokens)

			_, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(1, 500, h.daoMint))
			if tt.wantFundOK {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientFunds)
			reg, err := h.prog.Registry(h.ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(500), reg.TreasuryBalance)
			assert.Equal(t, tt.platform, h.balance(creator, h.platform))
		})
	}
}

func TestCreateOrganization_DuplicateSeed(t *testing.T) {
	h := newHarness(t)
	h.initRegistry(h.key("admin"), 1_000, 500)
	creator := h.key("creator")
	h.createOrg(creator, 1, 500)

	h.fund(creator, h.platform, 1_000)
	h.fund(creator, h.daoMint, 500)
	_, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(1, 500, h.daoMint))
	assert.ErrorIs(t, err, ErrOrganizationExists)

	// A new seed gives the same creator a second organization.
	second, err := h.prog.CreateOrganization(h.ctx, creator, orgArgs(2, 500, h.daoMint))
	require.NoError(t, err)
	assert.NotEqual(t, OrganizationAddress(creator.ID(), 1), second.Address)

	// Another creator may reuse seed 1.
	other := h.key("other")
	h.createOrg(other, 1, 500)
}

func TestCreateOrganization_NotInitialized(t *testing.T) {
	h := newHarness(t)
	_, err := h.prog.CreateOrganization(h.ctx, h.key("creator"), orgArgs(1, 0, h.daoMint))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCreateOrganization_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *OrganizationArgs)
		wantErr error
	}{
		{"quorum over 100", func(a *OrganizationArgs) { a.Thresholds.QuorumPercentage = 101 }, ErrInvalidGovernanceParameters},
		{"approval over 100", func(a *OrganizationArgs) { a.Thresholds.ApprovalPercentage = 255 }, ErrInvalidGovernanceParameters},
		{"min above max", func(a *OrganizationArgs) { a.Thresholds.MinVotingPeriod = a.Thresholds.MaxVotingPeriod + 1 }, ErrInvalidGovernanceParameters},
		{"unknown governance model", func(a *OrganizationArgs) { a.GovernanceModel = Hybrid + 1 }, ErrInvalidGovernanceParameters},
		{"unknown voting model", func(a *OrganizationArgs) { a.VotingModel = HolderBased + 1 }, ErrInvalidGovernanceParameters},
		{"unknown reward model", func(a *OrganizationArgs) { a.RewardModel = NoRewards + 1 }, ErrInvalidGovernanceParameters},
		{"name too long", func(a *OrganizationArgs) { a.Name = strings.Repeat("n", 33) }, ErrStringTooLong},
		{"description too long", func(a *OrganizationArgs) { a.Description = strings.Repeat("d", 201) }, ErrStringTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.initRegistry(h.key("admin"), 1_000, 500)
			creator := h.key("creator")
			h.fund(creator, h.platform, 1_000)
			h.fund(creator, h.daoMint, 500)

			args := orgArgs(1, 500, h.daoMint)
			tt.mutate(&args)
			_, err := h.prog.CreateOrganization(h.ctx, creator, args)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = h.prog.Organization(h.ctx, OrganizationAddress(creator.ID(), 1))
			assert.ErrorIs(t, err, ErrRecordNotFound)
		})
	}
}

func TestThresholds_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		th   Thresholds
		ok   bool
	}{
		{"all zero", Thresholds{}, true},
		{"all hundred", Thresholds{QuorumPercentage: 100, ApprovalPercentage: 100}, true},
		{"equal periods", Thresholds{MinVotingPeriod: 5, MaxVotingPeriod: 5}, true},
		{"quorum 101", Thresholds{QuorumPercentage: 101}, false},
		{"min > max", Thresholds{MinVotingPeriod: 6, MaxVotingPeriod: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidGovernanceParameters)
			}
		})
	}
}

func TestUpdateOrganization(t *testing.T) {
	h := newHarness(t)
	h.initRegistry(h.key("admin"), 1_000, 500)
	creator := h.key("creator")
	org := h.createOrg(creator, 1, 500)

	newThresholds := Thresholds{QuorumPercentage: 30, ApprovalPercentage: 51, MinVotingPeriod: 3_600, MaxVotingPeriod: 3_600}
	updated, err := h.prog.UpdateOrganization(h.ctx, creator, org.Address, OrganizationUpdate{
		Name:        ptr("renamed"),
		VotingModel: ptr(Quadratic),
		RewardModel: ptr(NoRewards),
		Thresholds:  &newThresholds,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "a dao for builders", updated.Description)
	assert.Equal(t, TokenBased, updated.GovernanceModel)
	assert.Equal(t, Quadratic, updated.VotingModel)
	assert.Equal(t, NoRewards, updated.RewardModel)
	assert.Equal(t, newThresholds, updated.Thresholds)
	assert.Equal(t, uint64(500), updated.TreasuryBalance)
}

func TestUpdateOrganization_Rejected(t *testing.T) {
	h := newHarness(t)
	h.initRegistry(h.key("admin"), 1_000, 500)
	creator := h.key("creator")
	org := h.createOrg(creator, 1, 500)

	tests := []struct {
		name    string
		caller  string
		upd     OrganizationUpdate
		wantErr error
	}{
		{"other caller", "mallory", OrganizationUpdate{Name: ptr("hijacked")}, ErrUnauthorized},
		{"quorum over 100", "creator", OrganizationUpdate{Thresholds: &Thresholds{QuorumPercentage: 150}}, ErrInvalidGovernanceParameters},
		{"min above max", "creator", OrganizationUpdate{Thresholds: &Thresholds{MinVotingPeriod: 2, MaxVotingPeriod: 1}}, ErrInvalidGovernanceParameters},
		{"bad model", "creator", OrganizationUpdate{GovernanceModel: ptr(GovernanceModel(9))}, ErrInvalidGovernanceParameters},
		{"long name", "creator", OrganizationUpdate{Name: ptr(strings.Repeat("n", 40))}, ErrStringTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.prog.UpdateOrganization(h.ctx, h.key(tt.caller), org.Address, tt.upd)
			assert.ErrorIs(t, err, tt.wantErr)

			after, err := h.prog.Organization(h.ctx, org.Address)
			require.NoError(t, err)
			assert.Equal(t, org, after)
		})
	}

	_, err := h.prog.UpdateOrganization(h.ctx, creator, OrganizationAddress(creator.ID(), 99), OrganizationUpdate{})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDepositOrganization(t *testing.T) {
	h := newHarness(t)
	h.initRegistry(h.key("admin"), 1_000, 500)
	org := h.createOrg(h.key("creator"), 1, 500)
	donor := h.key("donor")
	h.fund(donor, h.daoMint, 1_000)

	updated, err := h.prog.DepositOrganization(h.ctx, donor, org.Address, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500), updated.TreasuryBalance)
	assert.Equal(t, uint64(1_500), h.holdingBalance(org.Address, h.daoMint))

	_, err = h.prog.DepositOrganization(h.ctx, donor, org.Address, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}
