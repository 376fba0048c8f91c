// Package governance implements the DAO treasury and governance program:
// a single Registry, per-creator Organizations, gated Memberships, and
// staked Yes/No Proposals settled through reward claims.
//
// Every instruction is authenticated by a signature over its arguments,
// then executes inside one ledger transaction. Any failure rolls the whole
// instruction back, including token movements.
package governance

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/bitfsorg/daoverse-go/config"
	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
	"github.com/bitfsorg/daoverse-go/token"
)

// Bucket names.
var (
	RegistryBucket      = []byte("registry")
	OrganizationsBucket = []byte("organizations")
	MembershipsBucket   = []byte("memberships")
	ProposalsBucket     = []byte("proposals")
	VotesBucket         = []byte("votes")
)

// Buckets lists every bucket the program writes, token buckets included.
func Buckets() [][]byte {
	return [][]byte{
		RegistryBucket, OrganizationsBucket, MembershipsBucket, ProposalsBucket, VotesBucket,
		token.MintsBucket, token.HoldingsBucket,
	}
}

// Tokens is the token-transfer service and holding provisioner the program
// moves funds through. Transfer must fail with token.ErrInsufficientFunds
// when the source cannot cover amount.
type Tokens interface {
	Exists(tx ledger.Tx, mint ledger.Address) (bool, error)
	CreateIfAbsent(tx ledger.Tx, owner, mint ledger.Address) (ledger.Address, error)
	Balance(tx ledger.Tx, owner, mint ledger.Address) (uint64, error)
	Transfer(tx ledger.Tx, amount uint64, from, to, authority ledger.Address) error
}

// Logger is the subset of *logmatic.Logger the program writes to.
type Logger interface {
	Debug(format string, a ...interface{})
	Info(format string, a ...interface{})
	Warn(format string, a ...interface{})
	Error(format string, a ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Policy holds the balance floors callers must meet, in smallest token
// units of the organization mint.
type Policy struct {
	MinMemberBalance   uint64
	MinProposerBalance uint64
	MinVoterBalance    uint64
}

// DefaultPolicy returns the floors used when none are configured.
func DefaultPolicy() Policy {
	return Policy{
		MinMemberBalance:   100_000_000,
		MinProposerBalance: 200_000_000,
		MinVoterBalance:    150_000_000,
	}
}

// PolicyFromConfig builds the balance floors and reward policy named by cfg.
func PolicyFromConfig(cfg config.Config) (Policy, RewardPolicy, error) {
	policy := Policy{
		MinMemberBalance:   cfg.MinMemberBalance,
		MinProposerBalance: cfg.MinProposerBalance,
		MinVoterBalance:    cfg.MinVoterBalance,
	}
	switch cfg.RewardPolicy {
	case config.RewardProportional, "":
		return policy, ProportionalPolicy{Percent: cfg.RewardPercent}, nil
	case config.RewardFlat:
		return policy, FlatInterestPolicy{Percent: cfg.RewardPercent}, nil
	default:
		return policy, nil, fmt.Errorf("%w: %q", config.ErrInvalidRewardPolicy, cfg.RewardPolicy)
	}
}

// Options configures a Program. Zero fields take defaults.
type Options struct {
	Tokens  Tokens       // default token.Ledger{}
	Clock   Clock        // default SystemClock{}
	Policy  *Policy      // default DefaultPolicy()
	Rewards RewardPolicy // default ProportionalPolicy{Percent: 20}
	Logger  Logger       // default no-op
	Events  EventSink    // default none
}

// Program executes governance instructions against a ledger store.
type Program struct {
	store   ledger.Store
	tokens  Tokens
	clock   Clock
	policy  Policy
	rewards RewardPolicy
	log     Logger
	events  EventSink

	// commitMu spans Update and event delivery so the sink sees events in
	// commit order.
	commitMu deadlock.Mutex
}

// New creates a Program over store.
func New(store ledger.Store, opts Options) *Program {
	p := &Program{
		store:   store,
		tokens:  opts.Tokens,
		clock:   opts.Clock,
		policy:  DefaultPolicy(),
		rewards: opts.Rewards,
		log:     opts.Logger,
		events:  opts.Events,
	}
	if p.tokens == nil {
		p.tokens = token.Ledger{}
	}
	if p.clock == nil {
		p.clock = SystemClock{}
	}
	if opts.Policy != nil {
		p.policy = *opts.Policy
	}
	if p.rewards == nil {
		p.rewards = ProportionalPolicy{Percent: 20}
	}
	if p.log == nil {
		p.log = nopLogger{}
	}
	return p
}

// Policy returns the program's balance floors.
func (p *Program) Policy() Policy {
	return p.policy
}

// txn is the state of one executing instruction.
type txn struct {
	ledger.Tx
	now    int64
	events []Event
}

func (t *txn) emit(kind EventKind, actor identity.ID, record ledger.Address, amount uint64) {
	t.events = append(t.events, Event{
		ID:     uuid.New(),
		Kind:   kind,
		Actor:  actor,
		Record: record,
		Amount: amount,
		At:     t.now,
	})
}

// execute runs fn in one read-write transaction and delivers its events
// after commit, before the next instruction of this Program can commit.
func (p *Program) execute(ctx context.Context, op string, fn func(t *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	now := p.clock.Now()
	var t *txn
	err := p.store.Update(func(tx ledger.Tx) error {
		t = &txn{Tx: tx, now: now}
		return fn(t)
	})
	if err != nil {
		p.log.Debug("%s rejected: %v", op, err)
		return err
	}
	p.log.Info("%s committed at %d", op, now)
	if p.events != nil {
		for _, e := range t.events {
			p.events.Emit(e)
		}
	}
	return nil
}

// view runs fn in a read-only transaction.
func (p *Program) view(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.store.View(fn)
}

// authenticate verifies the caller's signature over op and its arguments.
func authenticate(s identity.Signer, op string, fields ...[]byte) (identity.ID, error) {
	id, err := identity.Authenticate(s, identity.Digest(op, fields...))
	if err != nil {
		return identity.ID{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return id, nil
}

// load reads a record, mapping a missing key to ErrRecordNotFound.
func load[T any](tx ledger.Tx, bucket []byte, addr ledger.Address) (*T, error) {
	rec := new(T)
	if err := ledger.GetRecord(tx, bucket, addr, rec); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, bucket, addr.Short())
		}
		return nil, err
	}
	return rec, nil
}

// insert stores a new record, mapping a taken key to exists.
func insert(tx ledger.Tx, bucket []byte, addr ledger.Address, v interface{}, exists error) error {
	if err := ledger.InsertRecord(tx, bucket, addr, v); err != nil {
		if errors.Is(err, ledger.ErrExists) {
			return fmt.Errorf("%w: %s", exists, addr.Short())
		}
		return err
	}
	return nil
}

// move transfers tokens, mapping a short source to ErrInsufficientFunds.
func (p *Program) move(tx ledger.Tx, amount uint64, from, to, authority ledger.Address) error {
	if amount == 0 {
		return nil
	}
	if err := p.tokens.Transfer(tx, amount, from, to, authority); err != nil {
		if errors.Is(err, token.ErrInsufficientFunds) {
			return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
		}
		return err
	}
	return nil
}

// holding provisions owner's holding of mint and returns it with its balance.
func (p *Program) holding(tx ledger.Tx, owner, mint ledger.Address) (ledger.Address, uint64, error) {
	addr, err := p.tokens.CreateIfAbsent(tx, owner, mint)
	if err != nil {
		return addr, 0, err
	}
	bal, err := p.tokens.Balance(tx, owner, mint)
	return addr, bal, err
}

func (p *Program) requireMint(tx ledger.Tx, mint ledger.Address) error {
	ok, err := p.tokens.Exists(tx, mint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown mint %s", ErrInvalidArgument, mint.Short())
	}
	return nil
}

// add returns a+b or ErrOverflow.
func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return a, ErrOverflow
	}
	return sum, nil
}

// mulDiv returns a*b/c with a 128-bit intermediate.
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// atLeast reports whether a*b >= c*d.
func atLeast(a, b, c, d uint64) bool {
	h1, l1 := bits.Mul64(a, b)
	h2, l2 := bits.Mul64(c, d)
	if h1 != h2 {
		return h1 > h2
	}
	return l1 >= l2
}

func checkLength(field, s string, max int) error {
	if len(s) > max {
		return fmt.Errorf("%w: %s is %d bytes, max %d", ErrStringTooLong, field, len(s), max)
	}
	return nil
}

// Digest field encoders.

func u64(n uint64) []byte { return ledger.U64(n) }

func i64(n int64) []byte { return ledger.U64(uint64(n)) }

func optU64(n *uint64) []byte {
	if n == nil {
		return nil
	}
	return append([]byte{1}, ledger.U64(*n)...)
}

func optString(s *string) []byte {
	if s == nil {
		return nil
	}
	return append([]byte{1}, *s...)
}

func optTag[T ~uint8](tag *T) []byte {
	if tag == nil {
		return nil
	}
	return []byte{1, uint8(*tag)}
}

func optThresholds(t *Thresholds) []byte {
	if t == nil {
		return nil
	}
	return append([]byte{1}, thresholdBytes(*t)...)
}

func thresholdBytes(t Thresholds) []byte {
	b := []byte{t.QuorumPercentage, t.ApprovalPercentage}
	b = append(b, ledger.U64(t.MinVotingPeriod)...)
	return append(b, ledger.U64(t.MaxVotingPeriod)...)
}
