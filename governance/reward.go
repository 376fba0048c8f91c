package governance

// RewardPolicy computes the bonus a settled vote earns from the
// organization treasury, on top of its returned stake.
type RewardPolicy interface {
	Bonus(org *Organization, p *Proposal, v *Vote) (uint64, error)
}

// ProportionalPolicy funds a pool of Percent% of the total stake and splits
// it by stake among the voters on the side the recorded outcome favours: Yes
// when the proposal passed, No when it was rejected. A proposal without
// quorum has no winning side and pays no bonus; stakes are still returned.
type ProportionalPolicy struct {
	Percent uint64
}

// Bonus implements RewardPolicy.
func (r ProportionalPolicy) Bonus(_ *Organization, p *Proposal, v *Vote) (uint64, error) {
	var winner Direction
	var side uint64
	switch p.Outcome {
	case OutcomePassed:
		winner, side = Yes, p.YesStake
	case OutcomeRejected:
		winner, side = No, p.NoStake
	default:
		return 0, nil
	}
	if v.Direction != winner {
		return 0, nil
	}
	pool, err := mulDiv(p.TotalStake(), r.Percent, 100)
	if err != nil {
		return 0, err
	}
	return mulDiv(pool, v.Staked, side)
}

// FlatInterestPolicy pays Percent% of the voter's own stake regardless of
// side.
type FlatInterestPolicy struct {
	Percent uint64
}

// Bonus implements RewardPolicy.
func (r FlatInterestPolicy) Bonus(_ *Organization, _ *Proposal, v *Vote) (uint64, error) {
	return mulDiv(v.Staked, r.Percent, 100)
}
