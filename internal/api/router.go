package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/faceit-ledger/internal/api/handler"
	"github.com/mcoot/faceit-ledger/internal/api/middleware"
	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
	"github.com/mcoot/faceit-ledger/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Ledger      *ledger.Ledger
	Hub         *sse.Hub

	// FaucetEnabled exposes minting into any wallet. Development only.
	FaucetEnabled bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	accountHandler := handler.NewAccountHandler(cfg.Ledger)
	contractHandler := handler.NewContractHandler(cfg.Ledger)
	walletHandler := handler.NewWalletHandler(cfg.Ledger, cfg.FaucetEnabled)
	eventsHandler := handler.NewEventsHandler(cfg.Ledger, cfg.Hub)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Session routes (no auth required)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(authMiddleware)
	authProtected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Public reads
	api.HandleFunc("/contract", contractHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/contract/owner", contractHandler.Owner).Methods(http.MethodGet)
	api.HandleFunc("/contract/balance", contractHandler.Balance).Methods(http.MethodGet)
	api.HandleFunc("/accounts", accountHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{address}", walletHandler.Balance).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{address}/faucet", walletHandler.Faucet).Methods(http.MethodPost)
	api.HandleFunc("/events", eventsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/events/stream", eventsHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/receipts/{tx_id}", eventsHandler.Receipt).Methods(http.MethodGet)

	// Contract calls (sender is the session address)
	contract := api.PathPrefix("/contract").Subrouter()
	contract.Use(authMiddleware)
	contract.HandleFunc("/fund", contractHandler.Fund).Methods(http.MethodPost)
	contract.HandleFunc("/withdraw", contractHandler.Withdraw).Methods(http.MethodPost)
	contract.HandleFunc("/accounts/{address}/correct-claim-time", contractHandler.CorrectClaimTime).Methods(http.MethodPost)

	// Account routes (all require auth)
	account := api.PathPrefix("/account").Subrouter()
	account.Use(authMiddleware)
	account.HandleFunc("", accountHandler.Create).Methods(http.MethodPost)
	account.HandleFunc("", accountHandler.Get).Methods(http.MethodGet)
	account.HandleFunc("/balance", accountHandler.Balance).Methods(http.MethodGet)
	account.HandleFunc("/next-claim", accountHandler.NextClaim).Methods(http.MethodGet)
	account.HandleFunc("/participate", accountHandler.Participate).Methods(http.MethodPost)
	account.HandleFunc("/claim", accountHandler.Claim).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
