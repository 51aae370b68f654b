package handler

import (
	"net/http"

	"github.com/mcoot/faceit-ledger/internal/api/middleware"
	"github.com/mcoot/faceit-ledger/internal/api/request"
	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
)

// AccountHandler handles the caller's own player account
type AccountHandler struct {
	ledger *ledger.Ledger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(l *ledger.Ledger) *AccountHandler {
	return &AccountHandler{
		ledger: l,
	}
}

func (h *AccountHandler) tx(r *http.Request, value model.Wei) model.Tx {
	return model.Tx{
		ID:    txID(r),
		From:  middleware.MustGetAddress(r.Context()),
		Value: value,
	}
}

// Create handles POST /api/v1/account
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rc, err := h.ledger.CreateAccount(r.Context(), h.tx(r, model.Wei{}), req.Nickname, req.Rating)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ReceiptFromModel(rc))
}

// Get handles GET /api/v1/account
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.Player(r.Context(), middleware.MustGetAddress(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acc))
}

// List handles GET /api/v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.Accounts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountsFromModel(accounts))
}

// Balance handles GET /api/v1/account/balance
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	addr := middleware.MustGetAddress(r.Context())
	balance, err := h.ledger.Balance(r.Context(), addr)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewBalance(addr, balance))
}

// NextClaim handles GET /api/v1/account/next-claim
func (h *AccountHandler) NextClaim(w http.ResponseWriter, r *http.Request) {
	d, err := h.ledger.TimeForNextClaim(r.Context(), middleware.MustGetAddress(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewNextClaim(d))
}

// Participate handles POST /api/v1/account/participate
func (h *AccountHandler) Participate(w http.ResponseWriter, r *http.Request) {
	var req request.ValueRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rc, err := h.ledger.Participate(r.Context(), h.tx(r, req.Value))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}

// Claim handles POST /api/v1/account/claim
func (h *AccountHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req request.ClaimRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rc, err := h.ledger.BalanceAccrual(r.Context(), h.tx(r, model.Wei{}), req.NewRating)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}
