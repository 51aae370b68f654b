package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// CreateAccount registers an account for the sender
func (l *Ledger) CreateAccount(ctx context.Context, tx model.Tx, nickname string, rating int64) (*model.Receipt, error) {
	return l.execute(ctx, tx, model.OpCreateAccount, false, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		_, err := t.account(ctx, tx.From)
		if err == nil {
			return model.ErrAlreadyExists
		}
		if !errors.Is(err, model.ErrNoAccount) {
			return err
		}
		if strings.TrimSpace(nickname) == "" {
			return model.ErrInvalidNickname
		}

		t.putAccount(model.NewPlayerAccount(tx.From, nickname, rating, t.now))
		return nil
	})
}

// Participate stakes tx.Value, which must equal the configured stake,
// and starts the sender's claim clock
func (l *Ledger) Participate(ctx context.Context, tx model.Tx) (*model.Receipt, error) {
	return l.execute(ctx, tx, model.OpParticipate, true, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		acc, err := t.account(ctx, tx.From)
		if err != nil {
			return err
		}
		if tx.Value.Cmp(l.cfg.Stake) != 0 {
			return model.ErrInvalidStake
		}
		if acc.Participant {
			if l.cfg.ForbidRestake {
				return model.ErrAlreadyParticipant
			}
			l.logger.Warn("participant staked again, claim clock re-armed",
				slog.String("address", acc.Address.String()),
				slog.String("tx_id", string(t.id)),
			)
		}

		acc.Participant = true
		acc.LastClaimAt = t.now
		t.putAccount(acc)
		return nil
	})
}

// BalanceAccrual claims the reward for raising the sender's rating to
// newRating. Effects are staged before the payout, so a receive hook
// that claims again sees the new claim time.
func (l *Ledger) BalanceAccrual(ctx context.Context, tx model.Tx, newRating int64) (*model.Receipt, error) {
	return l.execute(ctx, tx, model.OpBalanceAccrual, false, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		acc, err := t.account(ctx, tx.From)
		if err != nil {
			return err
		}
		if !acc.Participant {
			return model.ErrNotParticipant
		}
		if newRating <= acc.Rating {
			return model.ErrZeroOrNegativeGain
		}
		if t.now.Before(acc.NextClaimAt(l.cfg.Cooldown)) {
			return model.ErrTooEarly
		}

		reward, err := l.cfg.Reward.Reward(acc.Rating, newRating)
		if err != nil {
			return err
		}
		contract, err := t.contractBalance(ctx)
		if err != nil {
			return err
		}
		if contract.Cmp(reward) < 0 {
			return model.ErrInsolvent
		}
		balance, err := acc.Balance.Add(reward)
		if err != nil {
			return err
		}

		acc.Balance = balance
		acc.Rating = newRating
		acc.LastClaimAt = t.now
		t.putAccount(acc)
		t.emit(model.NewBalanceChanged(t.id, acc.Address, balance, reward, t.now))
		rc.Payout = reward

		return l.pay(ctx, t, acc.Address, reward)
	})
}

// CorrectClaimTime moves target's claim clock back so that a claim is
// allowed now. It never moves the clock forward. Owner only.
func (l *Ledger) CorrectClaimTime(ctx context.Context, tx model.Tx, target model.Address) (*model.Receipt, error) {
	return l.execute(ctx, tx, model.OpCorrectClaimTime, false, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		if t.deployment.Owner != tx.From {
			return model.ErrNotOwner
		}
		acc, err := t.account(ctx, target)
		if err != nil {
			return err
		}

		rc.Target = target
		floor := t.now.Add(-l.cfg.Cooldown)
		if acc.LastClaimAt.After(floor) {
			acc.LastClaimAt = floor
			t.putAccount(acc)
		}
		return nil
	})
}

// Player returns addr's account
func (l *Ledger) Player(ctx context.Context, addr model.Address) (*model.PlayerAccount, error) {
	var acc *model.PlayerAccount
	err := l.view(ctx, func(t *txn) error {
		if _, err := t.loadDeployment(ctx); err != nil {
			return err
		}
		var err error
		acc, err = t.account(ctx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Balance returns addr's cumulative claimed rewards
func (l *Ledger) Balance(ctx context.Context, addr model.Address) (model.Wei, error) {
	acc, err := l.Player(ctx, addr)
	if err != nil {
		return model.Wei{}, err
	}
	return acc.Balance, nil
}

// TimeForNextClaim returns how long until addr may claim again, zero
// once the cooldown has elapsed
func (l *Ledger) TimeForNextClaim(ctx context.Context, addr model.Address) (time.Duration, error) {
	var remaining time.Duration
	err := l.view(ctx, func(t *txn) error {
		if _, err := t.loadDeployment(ctx); err != nil {
			return err
		}
		acc, err := t.account(ctx, addr)
		if err != nil {
			return err
		}
		remaining = max(acc.NextClaimAt(l.cfg.Cooldown).Sub(t.now), 0)
		return nil
	})
	return remaining, err
}

// Accounts lists every account in creation order
func (l *Ledger) Accounts(ctx context.Context) ([]*model.PlayerAccount, error) {
	var accounts []*model.PlayerAccount
	err := l.view(ctx, func(t *txn) error {
		var err error
		accounts, err = t.listAccounts(ctx)
		return err
	})
	return accounts, err
}
