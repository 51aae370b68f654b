// Package config loads server configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/services/auth"
	"github.com/mcoot/faceit-ledger/internal/services/ledger"
)

// Config is the server configuration
type Config struct {
	HTTPHost string `env:"HTTP_HOST"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageType    string `env:"STORAGE_TYPE"     envDefault:"memory"`
	RedisURL       string `env:"REDIS_URL"        envDefault:"redis://localhost:6379"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"fledger"`
	SQLitePath     string `env:"SQLITE_PATH"      envDefault:"./data/ledger.db"`

	OwnerAddress    model.Address `env:"OWNER_ADDRESS,required"`
	// OwnerPassphrase provisions the owner's API credential. Registration
	// of the owner address is always refused, so without it the owner
	// cannot open a session.
	OwnerPassphrase string        `env:"OWNER_PASSPHRASE,unset"`
	ContractAddress model.Address `env:"CONTRACT_ADDRESS" envDefault:"0x5fbdb2315678afecb367f032d93f642f64180aa3"`
	StakeAmount     model.Wei     `env:"STAKE_AMOUNT"     envDefault:"0.00375ether"`
	ClaimCooldown   time.Duration `env:"CLAIM_COOLDOWN"   envDefault:"168h"`
	RewardPolicy    string        `env:"REWARD_POLICY"    envDefault:"fixed"`
	RewardAmount    model.Wei     `env:"REWARD_AMOUNT"    envDefault:"10"`
	ForbidRestake   bool          `env:"FORBID_RESTAKE"`

	FaucetEnabled   bool          `env:"FAUCET_ENABLED"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`

	// GenesisAllocations funds wallets at startup, as addr=amount pairs
	GenesisAllocations []string `env:"GENESIS_ALLOCATIONS" envSeparator:","`
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()
	return parse(env.Options{})
}

// Parse reads configuration from the given variables only
func Parse(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageType {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}
	if c.ClaimCooldown <= 0 {
		return fmt.Errorf("CLAIM_COOLDOWN must be positive")
	}
	if c.StakeAmount.IsZero() {
		return fmt.Errorf("STAKE_AMOUNT must be positive")
	}
	if _, err := ledger.NewRewardPolicy(c.RewardPolicy, c.RewardAmount); err != nil {
		return fmt.Errorf("invalid REWARD_POLICY: %w", err)
	}
	if c.OwnerPassphrase != "" && len(c.OwnerPassphrase) < auth.MinPassphraseLength {
		return fmt.Errorf("OWNER_PASSPHRASE must be at least %d characters", auth.MinPassphraseLength)
	}
	if _, err := c.Allocations(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Ledger returns the ledger rules
func (c *Config) Ledger() ledger.Config {
	// validate has already accepted the policy name
	reward, _ := ledger.NewRewardPolicy(c.RewardPolicy, c.RewardAmount)
	return ledger.Config{
		ContractAddress: c.ContractAddress,
		Stake:           c.StakeAmount,
		Cooldown:        c.ClaimCooldown,
		ForbidRestake:   c.ForbidRestake,
		Reward:          reward,
	}
}

// Allocation is one genesis wallet funding
type Allocation struct {
	Address model.Address
	Amount  model.Wei
}

// Allocations parses GenesisAllocations
func (c *Config) Allocations() ([]Allocation, error) {
	allocations := make([]Allocation, 0, len(c.GenesisAllocations))
	for _, entry := range c.GenesisAllocations {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rawAddr, rawAmount, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid GENESIS_ALLOCATIONS entry %q: want addr=amount", entry)
		}
		addr, err := model.ParseAddress(rawAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid GENESIS_ALLOCATIONS entry %q: %w", entry, err)
		}
		amount, err := model.ParseAmount(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid GENESIS_ALLOCATIONS entry %q: %w", entry, err)
		}
		allocations = append(allocations, Allocation{Address: addr, Amount: amount})
	}
	return allocations, nil
}

// SlogLevel maps LOG_LEVEL to a slog level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
