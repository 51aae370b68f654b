package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAlreadyExists      = errors.New("account already exists")
	ErrNoAccount          = errors.New("account does not exist")
	ErrNotParticipant     = errors.New("not a participant")
	ErrAlreadyParticipant = errors.New("already a participant")
	ErrInvalidNickname    = errors.New("nickname must not be empty")

	// Claim errors
	ErrTooEarly           = errors.New("it hasn't been a week yet")
	ErrZeroOrNegativeGain = errors.New("zero gain")
	ErrInsolvent          = errors.New("not enough currency on contract")

	// Authorization errors
	ErrNotOwner = errors.New("caller is not the owner")

	// Value transfer errors
	ErrInvalidStake      = errors.New("attached value does not match the stake")
	ErrNotPayable        = errors.New("operation does not accept value")
	ErrInsufficientFunds = errors.New("insufficient funds in wallet")
	ErrTransferFailed    = errors.New("transfer rejected by recipient")

	// Amount errors
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmountOverflow  = errors.New("amount overflow")
	ErrAmountUnderflow = errors.New("amount underflow")

	// Transaction errors
	ErrTxConflict      = errors.New("transaction id already used for a different call")
	ErrReceiptNotFound = errors.New("receipt not found")

	// Deployment errors
	ErrNotDeployed     = errors.New("ledger has not been deployed")
	ErrAlreadyDeployed = errors.New("ledger already deployed by another owner")

	// Identity errors
	ErrInvalidAddress     = errors.New("invalid address")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExists   = errors.New("credential already exists")
)
