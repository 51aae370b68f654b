package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/faceit-ledger/internal/api/apierr"
	"github.com/mcoot/faceit-ledger/internal/middleware"
	"github.com/mcoot/faceit-ledger/internal/model"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody decodes a JSON body into v. Address and amount validation
// errors keep their own error codes.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, model.ErrInvalidAddress) || errors.Is(err, model.ErrInvalidAmount) {
			return err
		}
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}

// pathAddress parses the {address} route variable
func pathAddress(r *http.Request) (model.Address, error) {
	return model.ParseAddress(mux.Vars(r)["address"])
}

// txID reads the Idempotency-Key header; empty lets the ledger pick one
func txID(r *http.Request) model.TxID {
	return model.TxID(r.Header.Get(middleware.IdempotencyKeyHeader))
}
