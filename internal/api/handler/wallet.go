package handler

import (
	"net/http"

	"github.com/mcoot/faceit-ledger/internal/api/apierr"
	"github.com/mcoot/faceit-ledger/internal/api/request"
	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
)

// WalletHandler handles host wallet balances and the development faucet
type WalletHandler struct {
	ledger        *ledger.Ledger
	faucetEnabled bool
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(l *ledger.Ledger, faucetEnabled bool) *WalletHandler {
	return &WalletHandler{
		ledger:        l,
		faucetEnabled: faucetEnabled,
	}
}

// Balance handles GET /api/v1/wallets/{address}
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	balance, err := h.ledger.WalletBalance(r.Context(), addr)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewBalance(addr, balance))
}

// Faucet handles POST /api/v1/wallets/{address}/faucet
func (h *WalletHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	if !h.faucetEnabled {
		WriteError(w, apierr.NewFaucetDisabledError())
		return
	}

	addr, err := pathAddress(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.FaucetRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rc, err := h.ledger.Mint(r.Context(), addr, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}
