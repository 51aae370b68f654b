package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventBalanceChanged EventType = "balance_changed"
)

// Event is an entry in the ledger's audit log
type Event struct {
	Type      EventType
	TxID      TxID
	Timestamp time.Time
	Identity  Address // The account the event is about
	Payload   BalanceChangedPayload
}

// BalanceChangedPayload is emitted on every successful claim
type BalanceChangedPayload struct {
	Balance Wei // cumulative balance after the claim
	Reward  Wei
}

// NewBalanceChanged builds a BalanceChanged event
func NewBalanceChanged(txID TxID, identity Address, balance, reward Wei, at time.Time) Event {
	return Event{
		Type:      EventBalanceChanged,
		TxID:      txID,
		Timestamp: at,
		Identity:  identity,
		Payload:   BalanceChangedPayload{Balance: balance, Reward: reward},
	}
}

// EventFilter narrows an event listing
type EventFilter struct {
	Identity Address // zero matches every identity
}

// Matches reports whether e passes the filter
func (f EventFilter) Matches(e Event) bool {
	return f.Identity.IsZero() || f.Identity == e.Identity
}
