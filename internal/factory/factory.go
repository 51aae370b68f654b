package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/faceit-ledger/internal/config"
	"github.com/mcoot/faceit-ledger/internal/dependencies/clock"
	"github.com/mcoot/faceit-ledger/internal/dependencies/random"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
	"github.com/mcoot/faceit-ledger/internal/sse"
	"github.com/mcoot/faceit-ledger/internal/storage"
	"github.com/mcoot/faceit-ledger/internal/storage/memory"
	redisstorage "github.com/mcoot/faceit-ledger/internal/storage/redis"
	sqlitestorage "github.com/mcoot/faceit-ledger/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Ledger      *ledger.Ledger
	AuthService *auth.Service
	Hub         *sse.Hub

	closers []io.Closer
	logger  *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// LedgerConfig holds the ledger rules (optional)
	// Zero fields take the ledger defaults
	LedgerConfig ledger.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// ConfigFrom maps the server configuration onto factory settings
func ConfigFrom(c *config.Config, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = c.RedisURL
	redisCfg.KeyPrefix = c.RedisKeyPrefix

	authCfg := auth.DefaultConfig()
	authCfg.SessionDuration = c.SessionDuration

	return Config{
		AuthConfig:   authCfg,
		LedgerConfig: c.Ledger(),
		Logger:       logger,
		StorageType:  c.StorageType,
		RedisConfig:  &redisCfg,
		SQLitePath:   c.SQLitePath,
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg.LedgerConfig, cfg.AuthConfig, logger)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	logger.Info("storage opened", slog.String("type", storageType(cfg)))
	return app, nil
}

func storageType(cfg Config) string {
	if cfg.StorageType == "" {
		return StorageTypeMemory
	}
	return cfg.StorageType
}

func openStorage(cfg Config) (storage.Storage, io.Closer, error) {
	switch storageType(cfg) {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, store, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		store, err := sqlitestorage.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	ledgerCfg ledger.Config,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	hub := sse.NewHub(logger)
	go hub.Run()

	l := ledger.New(store, clk, rnd, logger, ledgerCfg)
	l.AddEventSink(hub)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Ledger:      l,
		AuthService: auth.New(store, clk, rnd, logger, authCfg),
		Hub:         hub,
		logger:      logger,
	}
}

// Bootstrap deploys the ledger for owner and closes open registration of
// the owner address. When ownerPassphrase is set the owner gets an API
// credential for it. Genesis allocations are only minted on the first
// deployment, so restarting against durable storage does not fund wallets
// twice.
func (a *App) Bootstrap(ctx context.Context, owner model.Address, ownerPassphrase string, genesis []config.Allocation) error {
	_, err := a.Ledger.Deployment(ctx)
	fresh := errors.Is(err, model.ErrNotDeployed)
	if err != nil && !fresh {
		return err
	}

	d, err := a.Ledger.Deploy(ctx, owner)
	if err != nil {
		return err
	}

	a.AuthService.Reserve(d.Owner)
	if ownerPassphrase != "" {
		if err := a.AuthService.Provision(ctx, d.Owner, ownerPassphrase); err != nil {
			return fmt.Errorf("provision owner credential: %w", err)
		}
	} else {
		a.logger.Warn("no owner passphrase configured, owner operations are unreachable over the API",
			slog.String("owner", d.Owner.String()),
		)
	}

	if !fresh {
		return nil
	}

	for _, alloc := range genesis {
		if _, err := a.Ledger.Mint(ctx, alloc.Address, alloc.Amount); err != nil {
			return fmt.Errorf("genesis allocation for %s: %w", alloc.Address, err)
		}
		a.logger.Info("genesis allocation minted",
			slog.String("address", alloc.Address.String()),
			slog.String("amount", alloc.Amount.String()),
		)
	}
	return nil
}

// Close stops the event hub and releases storage connections
func (a *App) Close() error {
	a.Hub.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
