package handler

import (
	"net/http"

	"github.com/mcoot/faceit-ledger/internal/api/middleware"
	"github.com/mcoot/faceit-ledger/internal/api/request"
	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
)

// ContractHandler handles the deployment, the contract balance and the
// owner-only operations
type ContractHandler struct {
	ledger *ledger.Ledger
}

// NewContractHandler creates a new contract handler
func NewContractHandler(l *ledger.Ledger) *ContractHandler {
	return &ContractHandler{
		ledger: l,
	}
}

// Get handles GET /api/v1/contract
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.ledger.Deployment(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	balance, err := h.ledger.ContractBalance(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ContractFromModel(d, balance, h.ledger.Config()))
}

// Owner handles GET /api/v1/contract/owner
func (h *ContractHandler) Owner(w http.ResponseWriter, r *http.Request) {
	owner, err := h.ledger.Owner(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Owner{Owner: owner})
}

// Balance handles GET /api/v1/contract/balance
func (h *ContractHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.ContractBalance(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewBalance("", balance))
}

// Fund handles POST /api/v1/contract/fund
func (h *ContractHandler) Fund(w http.ResponseWriter, r *http.Request) {
	var req request.ValueRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rc, err := h.ledger.ReceiveFunds(r.Context(), model.Tx{
		ID:    txID(r),
		From:  middleware.MustGetAddress(r.Context()),
		Value: req.Value,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}

// Withdraw handles POST /api/v1/contract/withdraw
func (h *ContractHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	rc, err := h.ledger.Withdraw(r.Context(), model.Tx{
		ID:   txID(r),
		From: middleware.MustGetAddress(r.Context()),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}

// CorrectClaimTime handles POST /api/v1/contract/accounts/{address}/correct-claim-time
func (h *ContractHandler) CorrectClaimTime(w http.ResponseWriter, r *http.Request) {
	target, err := pathAddress(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	rc, err := h.ledger.CorrectClaimTime(r.Context(), model.Tx{
		ID:   txID(r),
		From: middleware.MustGetAddress(r.Context()),
	}, target)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}
