package model

import "time"

// TxID is the idempotency key of a transaction
type TxID string

// Op names a state-changing ledger operation
type Op string

const (
	OpCreateAccount    Op = "create_account"
	OpReceiveFunds     Op = "receive_funds"
	OpParticipate      Op = "participate"
	OpBalanceAccrual   Op = "balance_accrual"
	OpWithdraw         Op = "withdraw"
	OpCorrectClaimTime Op = "correct_claim_time"
	OpMint             Op = "mint"
)

// Tx is the envelope of a call: who sends it, what value is attached,
// and the id used to deduplicate retries
type Tx struct {
	ID    TxID
	From  Address
	Value Wei
}

// Receipt is the durable result of a successful transaction
type Receipt struct {
	TxID      TxID
	Op        Op
	From      Address
	Target    Address // account acted upon when it differs from From
	Value     Wei     // value attached by the sender
	Payout    Wei     // value paid out by the contract
	Events    []Event
	Timestamp time.Time
}
