package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidAddress     = "INVALID_ADDRESS"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeInvalidNickname    = "INVALID_NICKNAME"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotOwner           = "NOT_OWNER"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeNoAccount          = "NO_ACCOUNT"
	CodeNotParticipant     = "NOT_PARTICIPANT"
	CodeAlreadyParticipant = "ALREADY_PARTICIPANT"
	CodeTooEarly           = "TOO_EARLY"
	CodeZeroGain           = "ZERO_OR_NEGATIVE_GAIN"
	CodeInsolvent          = "INSOLVENT"
	CodeInvalidStake       = "INVALID_STAKE"
	CodeNotPayable         = "NOT_PAYABLE"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeTransferFailed     = "TRANSFER_FAILED"
	CodeAmountOverflow     = "AMOUNT_OVERFLOW"
	CodeTxConflict         = "TX_CONFLICT"
	CodeReceiptNotFound    = "RECEIPT_NOT_FOUND"
	CodeNotDeployed        = "NOT_DEPLOYED"
	CodeAlreadyDeployed    = "ALREADY_DEPLOYED"
	CodeAddressRegistered  = "ADDRESS_REGISTERED"
	CodeAddressReserved    = "ADDRESS_RESERVED"
	CodeWeakPassphrase     = "WEAK_PASSPHRASE"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeFaucetDisabled     = "FAUCET_DISABLED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map ledger errors. ErrTransferFailed wraps the receiver's error, so
	// it is matched before the errors a receiver might return.
	switch {
	case errors.Is(err, model.ErrTransferFailed):
		return &httpError{http.StatusConflict, APIError{CodeTransferFailed, err.Error()}}
	case errors.Is(err, model.ErrAlreadyExists):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyExists, "account already exists"}}
	case errors.Is(err, model.ErrNoAccount):
		return &httpError{http.StatusNotFound, APIError{CodeNoAccount, "account does not exist"}}
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusConflict, APIError{CodeNotParticipant, "not a participant"}}
	case errors.Is(err, model.ErrAlreadyParticipant):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyParticipant, "already a participant"}}
	case errors.Is(err, model.ErrInvalidNickname):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidNickname, "nickname must not be empty"}}
	case errors.Is(err, model.ErrTooEarly):
		return &httpError{http.StatusConflict, APIError{CodeTooEarly, "it hasn't been a week yet"}}
	case errors.Is(err, model.ErrZeroOrNegativeGain):
		return &httpError{http.StatusBadRequest, APIError{CodeZeroGain, "zero gain"}}
	case errors.Is(err, model.ErrInsolvent):
		return &httpError{http.StatusConflict, APIError{CodeInsolvent, "not enough currency on contract"}}
	case errors.Is(err, model.ErrNotOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotOwner, "caller is not the owner"}}
	case errors.Is(err, model.ErrInvalidStake):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStake, "attached value does not match the stake"}}
	case errors.Is(err, model.ErrNotPayable):
		return &httpError{http.StatusBadRequest, APIError{CodeNotPayable, "operation does not accept value"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusPaymentRequired, APIError{CodeInsufficientFunds, "insufficient funds in wallet"}}
	case errors.Is(err, model.ErrAmountOverflow), errors.Is(err, model.ErrAmountUnderflow):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeAmountOverflow, "amount out of range"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "invalid amount"}}
	case errors.Is(err, model.ErrInvalidAddress):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAddress, "invalid address"}}
	case errors.Is(err, model.ErrTxConflict):
		return &httpError{http.StatusConflict, APIError{CodeTxConflict, "transaction id already used for a different call"}}
	case errors.Is(err, model.ErrReceiptNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeReceiptNotFound, "receipt not found"}}
	case errors.Is(err, model.ErrNotDeployed):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeNotDeployed, "ledger has not been deployed"}}
	case errors.Is(err, model.ErrAlreadyDeployed):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyDeployed, "ledger already deployed"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "invalid address or passphrase"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "invalid or expired session"}}
	case errors.Is(err, auth.ErrAddressRegistered):
		return &httpError{http.StatusConflict, APIError{CodeAddressRegistered, "address already registered"}}
	case errors.Is(err, auth.ErrAddressReserved):
		return &httpError{http.StatusForbidden, APIError{CodeAddressReserved, "address cannot be registered"}}
	case errors.Is(err, auth.ErrWeakPassphrase):
		return &httpError{http.StatusBadRequest, APIError{CodeWeakPassphrase, auth.ErrWeakPassphrase.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewFaucetDisabledError is returned when minting over the API is off
func NewFaucetDisabledError() error {
	return &httpError{http.StatusForbidden, APIError{CodeFaucetDisabled, "faucet is disabled"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
