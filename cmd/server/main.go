package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/faceit-ledger/internal/api"
	"github.com/mcoot/faceit-ledger/internal/config"
	"github.com/mcoot/faceit-ledger/internal/factory"
)

// sessionSweepInterval is how often expired sessions are dropped
const sessionSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.ConfigFrom(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	allocations, _ := cfg.Allocations()
	if err := app.Bootstrap(ctx, cfg.OwnerAddress, cfg.OwnerPassphrase, allocations); err != nil {
		logger.Error("failed to deploy ledger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go app.AuthService.RunJanitor(ctx, sessionSweepInterval)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		AuthService:   app.AuthService,
		Ledger:        app.Ledger,
		Hub:           app.Hub,
		FaucetEnabled: cfg.FaucetEnabled,
	})
	if cfg.FaucetEnabled {
		logger.Warn("faucet enabled: any caller can mint into any wallet")
	}

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.HTTPHost
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("owner", cfg.OwnerAddress.String()),
		slog.String("storage", cfg.StorageType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Disconnect SSE clients first so Shutdown is not held open by streams
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
