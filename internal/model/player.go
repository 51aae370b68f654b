package model

import "time"

// PlayerAccount is the ledger record for one participant identity.
// Created distinguishes a real account from a zero value; storage never
// hands out an account with Created unset.
type PlayerAccount struct {
	Address     Address
	Nickname    string // immutable after creation
	Rating      int64
	Balance     Wei // cumulative claimed rewards
	Participant bool
	Created     bool
	LastClaimAt time.Time // zero until the first participation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPlayerAccount returns a registered, non-participating account
func NewPlayerAccount(addr Address, nickname string, rating int64, now time.Time) *PlayerAccount {
	return &PlayerAccount{
		Address:   addr,
		Nickname:  nickname,
		Rating:    rating,
		Created:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns an independent copy
func (a *PlayerAccount) Clone() *PlayerAccount {
	c := *a
	return &c
}

// NextClaimAt is the earliest time the next claim is accepted
func (a *PlayerAccount) NextClaimAt(cooldown time.Duration) time.Time {
	return a.LastClaimAt.Add(cooldown)
}

// Deployment records the ledger's constructor call
type Deployment struct {
	ContractAddress Address
	Owner           Address
	DeployedAt      time.Time
}

// Credential binds a passphrase hash to an address for API sessions
type Credential struct {
	Address        Address
	PassphraseHash string // bcrypt hash
	CreatedAt      time.Time
}
