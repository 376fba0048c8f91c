package governance

import (
	"context"
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// ClaimStakeRewards settles the caller's vote on a closed proposal: the stake
// returns from the proposal vault and the bonus computed by the reward policy
// is paid from the organization treasury. The first claim finalizes the
// proposal if nobody has.
func (p *Program) ClaimStakeRewards(ctx context.Context, voter identity.Signer, vote ledger.Address) (*Vote, error) {
	id, err := authenticate(voter, "claim", vote.Bytes())
	if err != nil {
		return nil, err
	}

	var v *Vote
	err = p.execute(ctx, "claim", func(t *txn) error {
		var err error
		if v, err = loadVote(t, vote); err != nil {
			return err
		}
		prop, err := loadProposal(t, v.Proposal)
		if err != nil {
			return err
		}
		if t.now < prop.VotingEndTime {
			return fmt.Errorf("%w: ends at %d", ErrVotingStillOpen, prop.VotingEndTime)
		}
		if v.Claimed {
			return fmt.Errorf("%w: %s", ErrAlreadyClaimed, vote.Short())
		}
		if v.Voter != id {
			return fmt.Errorf("%w: %s did not cast %s", ErrUnauthorized, id, vote.Short())
		}

		org, err := loadOrganization(t, prop.Organization)
		if err != nil {
			return err
		}
		if err := finalize(t, prop, org); err != nil {
			return err
		}

		var bonus uint64
		if org.RewardModel != NoRewards {
			if bonus, err = p.rewards.Bonus(org, prop, v); err != nil {
				return err
			}
		}
		treasuryBalance, err := p.tokens.Balance(t, org.Address, org.Mint)
		if err != nil {
			return err
		}
		if treasuryBalance < bonus {
			return fmt.Errorf("%w: bonus %d, treasury %d", ErrInsufficientFunds, bonus, treasuryBalance)
		}

		dest, _, err := p.holding(t, id.Owner(), org.Mint)
		if err != nil {
			return err
		}
		if err := p.move(t, v.Staked, prop.Vault, dest, prop.Address); err != nil {
			return err
		}
		if err := p.move(t, bonus, org.Treasury, dest, org.Address); err != nil {
			return err
		}

		prop.VaultBalance -= v.Staked
		if prop.Claims, err = add(prop.Claims, 1); err != nil {
			return err
		}
		org.TreasuryBalance = treasuryBalance - bonus
		v.Claimed = true
		v.Reward = bonus

		if err := ledger.PutRecord(t, VotesBucket, vote, v); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, ProposalsBucket, prop.Address, prop); err != nil {
			return err
		}
		if err := ledger.PutRecord(t, OrganizationsBucket, org.Address, org); err != nil {
			return err
		}
		t.emit(EventRewardsClaimed, id, vote, v.Staked+bonus)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
