package handler

import (
	"net/http"

	"github.com/mcoot/faceit-ledger/internal/api/middleware"
	"github.com/mcoot/faceit-ledger/internal/api/request"
	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
)

// AuthHandler handles session endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Address.IsZero() {
		WriteError(w, NewInvalidRequestError("address is required"))
		return
	}

	session, err := h.authService.Register(r.Context(), req.Address, req.Passphrase)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Address.IsZero() || req.Passphrase == "" {
		WriteError(w, NewInvalidRequestError("address and passphrase are required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Address, req.Passphrase)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}
