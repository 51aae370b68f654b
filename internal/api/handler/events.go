package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
	"github.com/mcoot/faceit-ledger/internal/sse"
)

// EventsHandler serves the event log, its live stream and receipts
type EventsHandler struct {
	ledger *ledger.Ledger
	hub    *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(l *ledger.Ledger, hub *sse.Hub) *EventsHandler {
	return &EventsHandler{
		ledger: l,
		hub:    hub,
	}
}

// filter reads the optional ?identity= query parameter
func filter(r *http.Request) (model.EventFilter, error) {
	raw := r.URL.Query().Get("identity")
	if raw == "" {
		return model.EventFilter{}, nil
	}
	addr, err := model.ParseAddress(raw)
	if err != nil {
		return model.EventFilter{}, err
	}
	return model.EventFilter{Identity: addr}, nil
}

// List handles GET /api/v1/events
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	events, err := h.ledger.Events(r.Context(), f)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EventsFromModel(events))
}

// Stream handles GET /api/v1/events/stream
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hub, f)
}

// Receipt handles GET /api/v1/receipts/{tx_id}
func (h *EventsHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.ledger.Receipt(r.Context(), model.TxID(mux.Vars(r)["tx_id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReceiptFromModel(rc))
}
