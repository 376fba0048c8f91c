package governance

import (
	"fmt"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// Length caps for stored strings, in bytes.
const (
	MaxNameLength        = 32
	MaxDescriptionLength = 200
)

// GovernanceModel selects how voting power is earned.
type GovernanceModel uint8

const (
	TokenBased GovernanceModel = iota
	ReputationBased
	Hybrid
)

// String returns the model name.
func (m GovernanceModel) String() string {
	switch m {
	case TokenBased:
		return "token-based"
	case ReputationBased:
		return "reputation-based"
	case Hybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("GovernanceModel(%d)", uint8(m))
	}
}

func (m GovernanceModel) valid() bool { return m <= Hybrid }

// VotingModel selects how votes are weighted.
type VotingModel uint8

const (
	OneTokenOneVote VotingModel = iota
	Quadratic
	WeightedToken
	HolderBased
)

// String returns the model name.
func (m VotingModel) String() string {
	switch m {
	case OneTokenOneVote:
		return "one-token-one-vote"
	case Quadratic:
		return "quadratic"
	case WeightedToken:
		return "weighted-token"
	case HolderBased:
		return "holder-based"
	default:
		return fmt.Sprintf("VotingModel(%d)", uint8(m))
	}
}

func (m VotingModel) valid() bool { return m <= HolderBased }

// RewardModel selects how settlement bonuses are distributed.
type RewardModel uint8

const (
	Proportional RewardModel = iota
	ContributionBased
	MilestoneBasedVesting
	NoRewards
)

// String returns the model name.
func (m RewardModel) String() string {
	switch m {
	case Proportional:
		return "proportional"
	case ContributionBased:
		return "contribution-based"
	case MilestoneBasedVesting:
		return "milestone-based-vesting"
	case NoRewards:
		return "no-rewards"
	default:
		return fmt.Sprintf("RewardModel(%d)", uint8(m))
	}
}

func (m RewardModel) valid() bool { return m <= NoRewards }

// Thresholds are an organization's decision parameters. Voting periods are
// in seconds.
type Thresholds struct {
	QuorumPercentage   uint8
	ApprovalPercentage uint8
	MinVotingPeriod    uint64
	MaxVotingPeriod    uint64
}

// Validate checks percentages are within [0,100] and min <= max.
func (t Thresholds) Validate() error {
	if t.QuorumPercentage > 100 {
		return fmt.Errorf("%w: quorum %d%% > 100%%", ErrInvalidGovernanceParameters, t.QuorumPercentage)
	}
	if t.ApprovalPercentage > 100 {
		return fmt.Errorf("%w: approval %d%% > 100%%", ErrInvalidGovernanceParameters, t.ApprovalPercentage)
	}
	if t.MinVotingPeriod > t.MaxVotingPeriod {
		return fmt.Errorf("%w: min voting period %d > max %d",
			ErrInvalidGovernanceParameters, t.MinVotingPeriod, t.MaxVotingPeriod)
	}
	return nil
}

// Direction is a vote's side.
type Direction uint8

const (
	Yes Direction = iota
	No
)

// String returns "yes" or "no".
func (d Direction) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Outcome is the recorded result of a finalized proposal.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomePassed
	OutcomeRejected
	OutcomeNoQuorum
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomePassed:
		return "passed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeNoQuorum:
		return "no-quorum"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// ProposalState is derived from the clock and the claim count; it is never
// stored.
type ProposalState uint8

const (
	StateOpen ProposalState = iota
	StateClosed
	StateSettled
)

// String returns the state name.
func (s ProposalState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("ProposalState(%d)", uint8(s))
	}
}

// Registry is the single global configuration record.
type Registry struct {
	Address         ledger.Address
	Admin           identity.ID
	Mint            ledger.Address
	Treasury        ledger.Address
	CreationFee     uint64
	AdminName       string
	Description     string
	TreasuryBalance uint64
}

// Organization is one DAO.
type Organization struct {
	Address           ledger.Address
	Creator           identity.ID
	Seed              uint64
	Mint              ledger.Address
	Treasury          ledger.Address
	Name              string
	Description       string
	GovernanceModel   GovernanceModel
	VotingModel       VotingModel
	RewardModel       RewardModel
	Thresholds        Thresholds
	TreasuryBalance   uint64
	TotalProposals    uint64
	ApprovedProposals uint64
	MemberCount       uint64
	CreatedAt         int64
}

// Membership links a member identity to an organization.
type Membership struct {
	Address           ledger.Address
	Member            identity.ID
	Organization      ledger.Address
	Seed              uint64
	Balance           uint64
	CreatedProposals  uint64
	ApprovedProposals uint64
	TotalRewards      uint64
	TotalVotes        uint64
	JoinedAt          int64
}

// Proposal is a staked Yes/No vote with a deadline. YesVotes and NoVotes
// count voters; YesStake and NoStake sum their stakes.
type Proposal struct {
	Address       ledger.Address
	Owner         identity.ID
	Organization  ledger.Address
	Membership    ledger.Address
	Seed          uint64
	Title         string
	Details       string
	Cost          uint64
	MinStake      uint64
	VotingEndTime int64
	YesVotes      uint64
	NoVotes       uint64
	YesStake      uint64
	NoStake       uint64
	Vault         ledger.Address
	VaultBalance  uint64
	CreatedAt     int64
	Claims        uint64
	Finalized     bool
	FinalizedAt   int64
	Outcome       Outcome
}

// TotalVotes returns the number of voters.
func (p *Proposal) TotalVotes() uint64 {
	return p.YesVotes + p.NoVotes
}

// TotalStake returns the stake locked by all voters.
func (p *Proposal) TotalStake() uint64 {
	return p.YesStake + p.NoStake
}

// Vote is one voter's receipt on one proposal.
type Vote struct {
	Address   ledger.Address
	Voter     identity.ID
	Proposal  ledger.Address
	Seed      uint64
	Direction Direction
	Staked    uint64
	Claimed   bool
	Reward    uint64
	CastAt    int64
}
