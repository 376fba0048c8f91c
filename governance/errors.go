package governance

import "errors"

var (
	// ErrAlreadyInitialized indicates the registry record already exists.
	ErrAlreadyInitialized = errors.New("governance: registry already initialized")

	// ErrNotInitialized indicates the registry has not been initialized.
	ErrNotInitialized = errors.New("governance: registry not initialized")

	// ErrUnauthorized indicates the caller is not the stored authority of the
	// record, or the caller's signature did not verify.
	ErrUnauthorized = errors.New("governance: unauthorized")

	// ErrInvalidGovernanceParameters indicates thresholds or model tags out of
	// range.
	ErrInvalidGovernanceParameters = errors.New("governance: invalid governance parameters")

	// ErrInsufficientFunds indicates a balance below the amount an instruction
	// must move or the floor it requires.
	ErrInsufficientFunds = errors.New("governance: insufficient funds")

	// ErrInsufficientStake indicates a stake or join balance below the minimum.
	ErrInsufficientStake = errors.New("governance: insufficient stake")

	// ErrInvalidDeadline indicates a voting end time that is not in the future.
	ErrInvalidDeadline = errors.New("governance: voting deadline must be in the future")

	// ErrVotingClosed indicates a vote at or after the voting deadline.
	ErrVotingClosed = errors.New("governance: voting closed")

	// ErrVotingStillOpen indicates a settlement attempt before the deadline.
	ErrVotingStillOpen = errors.New("governance: voting still open")

	// ErrDuplicateVote indicates the voter already voted on the proposal.
	ErrDuplicateVote = errors.New("governance: duplicate vote")

	// ErrAlreadyClaimed indicates the vote's stake was already claimed.
	ErrAlreadyClaimed = errors.New("governance: rewards already claimed")

	// ErrStringTooLong indicates a name or description over its length cap.
	ErrStringTooLong = errors.New("governance: string exceeds maximum length")

	// ErrOrganizationExists indicates the creator already used the seed.
	ErrOrganizationExists = errors.New("governance: organization already exists")

	// ErrMembershipExists indicates the member already used the seed.
	ErrMembershipExists = errors.New("governance: membership already exists")

	// ErrProposalExists indicates the proposer already used the seed.
	ErrProposalExists = errors.New("governance: proposal already exists")

	// ErrRecordNotFound indicates a referenced record does not exist.
	ErrRecordNotFound = errors.New("governance: record not found")

	// ErrOverflow indicates a counter or balance would exceed 2^64-1.
	ErrOverflow = errors.New("governance: arithmetic overflow")

	// ErrInvalidArgument indicates a malformed instruction argument.
	ErrInvalidArgument = errors.New("governance: invalid argument")
)
