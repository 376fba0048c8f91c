package governance

import (
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/bitfsorg/daoverse-go/identity"
	"github.com/bitfsorg/daoverse-go/ledger"
)

// EventKind names the instruction that produced an event.
type EventKind string

const (
	EventInitialized          EventKind = "registry.initialized"
	EventRegistryUpdated      EventKind = "registry.updated"
	EventRegistryDeposit      EventKind = "registry.deposit"
	EventOrganizationCreated  EventKind = "organization.created"
	EventOrganizationUpdated  EventKind = "organization.updated"
	EventOrganizationDeposit  EventKind = "organization.deposit"
	EventMemberJoined         EventKind = "membership.joined"
	EventCountersUpdated      EventKind = "membership.counters"
	EventMemberBalanceRefresh EventKind = "membership.balance"
	EventProposalCreated      EventKind = "proposal.created"
	EventVoteCast             EventKind = "proposal.vote"
	EventProposalFinalized    EventKind = "proposal.finalized"
	EventRewardsClaimed       EventKind = "proposal.claimed"
)

// Event records one committed state change. Events are delivered only after
// the instruction's transaction commits.
type Event struct {
	ID     uuid.UUID
	Kind   EventKind
	Actor  identity.ID
	Record ledger.Address
	Amount uint64
	At     int64
}

// EventSink receives committed events in commit order. Emit runs while the
// program holds its commit lock, so it must not execute instructions; reads
// through the Program's queries are fine.
type EventSink interface {
	Emit(e Event)
}

// EventLog is an in-memory EventSink.
type EventLog struct {
	mu     deadlock.Mutex
	events []Event
}

// Compile-time interface check.
var _ EventSink = (*EventLog)(nil)

// Emit appends e to the log.
func (l *EventLog) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Events returns a copy of all events in emission order.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// OfKind returns the events of the given kind in emission order.
func (l *EventLog) OfKind(kind EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
