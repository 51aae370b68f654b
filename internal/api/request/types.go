package request

import "github.com/mcoot/faceit-ledger/internal/model"

// RegisterRequest is the request body for binding a passphrase to an address
type RegisterRequest struct {
	Address    model.Address `json:"address"`
	Passphrase string        `json:"passphrase"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Address    model.Address `json:"address"`
	Passphrase string        `json:"passphrase"`
}

// CreateAccountRequest is the request body for creating a player account
type CreateAccountRequest struct {
	Nickname string `json:"nickname"`
	Rating   int64  `json:"rating"`
}

// ValueRequest carries the value attached to a payable call, e.g.
// "0.00375ether" or "3750000000000000"
type ValueRequest struct {
	Value model.Wei `json:"value"`
}

// ClaimRequest is the request body for a reward claim
type ClaimRequest struct {
	NewRating int64 `json:"new_rating"`
}

// FaucetRequest is the request body for minting into a wallet
type FaucetRequest struct {
	Amount model.Wei `json:"amount"`
}
