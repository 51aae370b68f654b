package response

import (
	"time"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
)

// AuthResponse is returned after registration or login
type AuthResponse struct {
	Token     string        `json:"token"`
	Address   model.Address `json:"address"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// AuthResponseFromSession converts a session to an AuthResponse
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Token:     s.Token,
		Address:   s.Address,
		ExpiresAt: s.ExpiresAt,
	}
}

// Account represents a player account in API responses
type Account struct {
	Address     model.Address `json:"address"`
	Nickname    string        `json:"nickname"`
	Rating      int64         `json:"rating"`
	Balance     model.Wei     `json:"balance"`
	Participant bool          `json:"participant"`
	LastClaimAt *time.Time    `json:"last_claim_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// AccountFromModel converts a model.PlayerAccount to a response Account
func AccountFromModel(a *model.PlayerAccount) Account {
	resp := Account{
		Address:     a.Address,
		Nickname:    a.Nickname,
		Rating:      a.Rating,
		Balance:     a.Balance,
		Participant: a.Participant,
		CreatedAt:   a.CreatedAt,
	}
	if !a.LastClaimAt.IsZero() {
		last := a.LastClaimAt
		resp.LastClaimAt = &last
	}
	return resp
}

// AccountsFromModel converts a slice of accounts
func AccountsFromModel(accounts []*model.PlayerAccount) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountFromModel(a))
	}
	return out
}

// Balance is an amount in wei with its ether rendering
type Balance struct {
	Address model.Address `json:"address,omitempty"`
	Wei     model.Wei     `json:"wei"`
	Ether   string        `json:"ether"`
}

// NewBalance builds a Balance response
func NewBalance(addr model.Address, w model.Wei) Balance {
	return Balance{Address: addr, Wei: w, Ether: w.Ether()}
}

// NextClaim reports how long until the next claim is accepted
type NextClaim struct {
	Seconds int64 `json:"seconds"`
	Ready   bool  `json:"ready"`
}

// NewNextClaim builds a NextClaim response
func NewNextClaim(d time.Duration) NextClaim {
	return NextClaim{Seconds: int64(d / time.Second), Ready: d <= 0}
}

// Owner is the deploying address
type Owner struct {
	Owner model.Address `json:"owner"`
}

// Contract describes the deployment and its rules
type Contract struct {
	Address         model.Address `json:"address"`
	Owner           model.Address `json:"owner"`
	DeployedAt      time.Time     `json:"deployed_at"`
	Balance         model.Wei     `json:"balance"`
	Stake           model.Wei     `json:"stake"`
	CooldownSeconds int64         `json:"cooldown_seconds"`
	ForbidRestake   bool          `json:"forbid_restake"`
}

// ContractFromModel builds a Contract response
func ContractFromModel(d *model.Deployment, balance model.Wei, cfg ledger.Config) Contract {
	return Contract{
		Address:         d.ContractAddress,
		Owner:           d.Owner,
		DeployedAt:      d.DeployedAt,
		Balance:         balance,
		Stake:           cfg.Stake,
		CooldownSeconds: int64(cfg.Cooldown / time.Second),
		ForbidRestake:   cfg.ForbidRestake,
	}
}

// Event represents a BalanceChanged log entry
type Event struct {
	Type      model.EventType `json:"type"`
	TxID      model.TxID      `json:"tx_id"`
	Identity  model.Address   `json:"identity"`
	Balance   model.Wei       `json:"balance"`
	Reward    model.Wei       `json:"reward"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventFromModel converts a model.Event to a response Event
func EventFromModel(e model.Event) Event {
	return Event{
		Type:      e.Type,
		TxID:      e.TxID,
		Identity:  e.Identity,
		Balance:   e.Payload.Balance,
		Reward:    e.Payload.Reward,
		Timestamp: e.Timestamp,
	}
}

// EventsFromModel converts a slice of events
func EventsFromModel(events []model.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, EventFromModel(e))
	}
	return out
}

// Receipt is the result of a state-changing call
type Receipt struct {
	TxID      model.TxID    `json:"tx_id"`
	Op        model.Op      `json:"op"`
	From      model.Address `json:"from"`
	Target    model.Address `json:"target,omitempty"`
	Value     model.Wei     `json:"value"`
	Payout    model.Wei     `json:"payout"`
	Events    []Event       `json:"events"`
	Timestamp time.Time     `json:"timestamp"`
}

// ReceiptFromModel converts a model.Receipt to a response Receipt
func ReceiptFromModel(rc *model.Receipt) Receipt {
	return Receipt{
		TxID:      rc.TxID,
		Op:        rc.Op,
		From:      rc.From,
		Target:    rc.Target,
		Value:     rc.Value,
		Payout:    rc.Payout,
		Events:    EventsFromModel(rc.Events),
		Timestamp: rc.Timestamp,
	}
}

// Health is the health check body
type Health struct {
	Status string `json:"status"`
}
