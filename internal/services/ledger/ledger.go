// Package ledger implements the player account ledger: account
// registration, staking, time-gated reward claims and owner withdrawals,
// running on a small simulated host of wallets and value transfers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/faceit-ledger/internal/dependencies/clock"
	"github.com/mcoot/faceit-ledger/internal/dependencies/random"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

const (
	// DefaultCooldown is the minimum time between two claims
	DefaultCooldown = 7 * 24 * time.Hour

	// DefaultStake is the exact value participate must carry
	DefaultStake = "0.00375ether"

	// DefaultContractAddress is where the ledger lives unless configured
	DefaultContractAddress = "0x5fbdb2315678afecb367f032d93f642f64180aa3"

	txIDPrefix = "tx_"
	txIDBytes  = 12
)

// Config holds ledger rules
type Config struct {
	ContractAddress model.Address
	Stake           model.Wei
	Cooldown        time.Duration

	// ForbidRestake rejects participate from an existing participant
	// instead of re-arming its claim clock
	ForbidRestake bool

	// Reward defaults to a fixed 10 wei payout
	Reward RewardPolicy
}

// DefaultConfig returns the default ledger rules
func DefaultConfig() Config {
	return Config{
		ContractAddress: model.MustParseAddress(DefaultContractAddress),
		Stake:           model.MustParseAmount(DefaultStake),
		Cooldown:        DefaultCooldown,
		Reward:          DefaultRewardPolicy(),
	}
}

// Ledger owns the account table, the contract balance and the owner.
// Transactions are serialized by a single mutex and committed to storage
// atomically; a failed transaction leaves no trace.
type Ledger struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	cfg     Config

	mu sync.Mutex

	receiversMu sync.RWMutex
	receivers   map[model.Address]Receiver
	sinks       []EventSink
}

// New creates a new Ledger
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Ledger {
	defaults := DefaultConfig()
	if cfg.ContractAddress.IsZero() {
		cfg.ContractAddress = defaults.ContractAddress
	}
	if cfg.Stake.IsZero() {
		cfg.Stake = defaults.Stake
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaults.Cooldown
	}
	if cfg.Reward == nil {
		cfg.Reward = defaults.Reward
	}
	return &Ledger{
		storage:   storage,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "ledger")),
		cfg:       cfg,
		receivers: make(map[model.Address]Receiver),
	}
}

// Config returns the rules the ledger runs with
func (l *Ledger) Config() Config {
	return l.cfg
}

// Deploy records deployer as the owner. Deploying again with the same
// owner returns the existing deployment.
func (l *Ledger) Deploy(ctx context.Context, deployer model.Address) (*model.Deployment, error) {
	if deployer.IsZero() {
		return nil, model.ErrInvalidAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	d, err := l.storage.GetDeployment(ctx)
	switch {
	case err == nil:
		if d.Owner != deployer {
			return nil, fmt.Errorf("%w: owned by %s", model.ErrAlreadyDeployed, d.Owner)
		}
		return d, nil
	case !errors.Is(err, model.ErrNotDeployed):
		return nil, err
	}

	d = &model.Deployment{
		ContractAddress: l.cfg.ContractAddress,
		Owner:           deployer,
		DeployedAt:      l.clock.Now(),
	}
	if err := l.storage.SaveDeployment(ctx, d); err != nil {
		l.logger.Error("failed to save deployment",
			slog.String("owner", deployer.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	l.logger.Info("ledger deployed",
		slog.String("contract", d.ContractAddress.String()),
		slog.String("owner", d.Owner.String()),
	)
	return d, nil
}

// opFunc is the body of a mutating operation. It stages its effects on
// t and fills in the operation-specific parts of the receipt.
type opFunc func(ctx context.Context, t *txn, rc *model.Receipt) error

// execute runs body as a transaction. Called from inside a receive hook
// (ctx carries the active transaction) the body joins that transaction;
// otherwise it takes the ledger lock, deduplicates by tx.ID and commits
// on success.
func (l *Ledger) execute(ctx context.Context, tx model.Tx, op model.Op, payable bool, body opFunc) (*model.Receipt, error) {
	if t := l.activeTxn(ctx); t != nil {
		saved := t.snapshot()
		rc, err := l.run(ctx, t, tx, op, payable, body)
		if err != nil {
			t.restore(saved)
			return nil, err
		}
		return rc, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.ID == "" {
		tx.ID = model.TxID(l.random.Token(txIDPrefix, txIDBytes))
	} else if prior, err := l.replay(ctx, tx, op); prior != nil || err != nil {
		return prior, err
	}

	t := newTxn(tx.ID, l.clock.Now(), l.storage)
	rc, err := l.run(withFrame(ctx, l, t), t, tx, op, payable, body)
	if err != nil {
		l.logger.Debug("transaction reverted",
			slog.String("tx_id", string(tx.ID)),
			slog.String("op", string(op)),
			slog.String("from", tx.From.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	rc.Events = slices.Clone(t.events)

	if err := l.storage.Apply(ctx, t.changeset(rc)); err != nil {
		l.logger.Error("failed to commit transaction",
			slog.String("tx_id", string(tx.ID)),
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("commit transaction %s: %w", tx.ID, err)
	}
	l.publish(t.events)

	l.logger.Info("transaction committed",
		slog.String("tx_id", string(tx.ID)),
		slog.String("op", string(op)),
		slog.String("from", tx.From.String()),
		slog.Int("events", len(t.events)),
	)
	return rc, nil
}

func (l *Ledger) run(ctx context.Context, t *txn, tx model.Tx, op model.Op, payable bool, body opFunc) (*model.Receipt, error) {
	if tx.From.IsZero() {
		return nil, model.ErrInvalidAddress
	}
	if op != model.OpMint {
		if _, err := t.loadDeployment(ctx); err != nil {
			return nil, err
		}
	}
	if !tx.Value.IsZero() && !payable {
		return nil, model.ErrNotPayable
	}

	start := len(t.events)
	rc := &model.Receipt{
		TxID:      t.id,
		Op:        op,
		From:      tx.From,
		Value:     tx.Value,
		Timestamp: t.now,
	}
	if err := body(ctx, t, rc); err != nil {
		return nil, err
	}
	// Attached value moves only once the operation's own checks have passed
	if !tx.Value.IsZero() {
		if err := l.collect(ctx, t, tx.From, tx.Value); err != nil {
			return nil, err
		}
	}
	rc.Events = slices.Clone(t.events[start:])
	return rc, nil
}

// replay returns the stored receipt when tx was already committed
func (l *Ledger) replay(ctx context.Context, tx model.Tx, op model.Op) (*model.Receipt, error) {
	prior, err := l.storage.GetReceipt(ctx, tx.ID)
	if errors.Is(err, model.ErrReceiptNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.Op != op || prior.From != tx.From || prior.Value.Cmp(tx.Value) != 0 {
		return nil, fmt.Errorf("%w: %s was %s from %s", model.ErrTxConflict, tx.ID, prior.Op, prior.From)
	}

	l.logger.Info("transaction replayed",
		slog.String("tx_id", string(tx.ID)),
		slog.String("op", string(op)),
	)
	return prior, nil
}

// view runs a read against committed state, or against the active
// transaction when called from inside a receive hook
func (l *Ledger) view(ctx context.Context, fn func(t *txn) error) error {
	if t := l.activeTxn(ctx); t != nil {
		return fn(t)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(newTxn("", l.clock.Now(), l.storage))
}
