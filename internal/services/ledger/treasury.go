package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// ReceiveFunds accepts a plain value transfer to the contract from any
// sender
func (l *Ledger) ReceiveFunds(ctx context.Context, tx model.Tx) (*model.Receipt, error) {
	return l.execute(ctx, tx, model.OpReceiveFunds, true, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		rc.Target = t.deployment.ContractAddress
		return nil
	})
}

// Withdraw pays the whole contract balance to the owner. Owner only.
func (l *Ledger) Withdraw(ctx context.Context, tx model.Tx) (*model.Receipt, error) {
	return l.execute(ctx, tx, model.OpWithdraw, false, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		if t.deployment.Owner != tx.From {
			return model.ErrNotOwner
		}
		amount, err := t.contractBalance(ctx)
		if err != nil {
			return err
		}

		rc.Payout = amount
		l.logger.Info("withdrawing contract balance",
			slog.String("tx_id", string(t.id)),
			slog.String("amount", amount.String()),
		)
		return l.pay(ctx, t, tx.From, amount)
	})
}

// Mint credits amount to a wallet out of thin air. It is the only way
// value enters the host.
func (l *Ledger) Mint(ctx context.Context, to model.Address, amount model.Wei) (*model.Receipt, error) {
	tx := model.Tx{From: to}
	return l.execute(ctx, tx, model.OpMint, false, func(ctx context.Context, t *txn, rc *model.Receipt) error {
		if amount.IsZero() {
			return model.ErrInvalidAmount
		}
		balance, err := t.wallet(ctx, to)
		if err != nil {
			return err
		}
		if balance, err = balance.Add(amount); err != nil {
			return err
		}

		t.setWallet(to, balance)
		rc.Target = to
		rc.Payout = amount
		return nil
	})
}

// ContractBalance returns the value held by the contract
func (l *Ledger) ContractBalance(ctx context.Context) (model.Wei, error) {
	var balance model.Wei
	err := l.view(ctx, func(t *txn) error {
		if _, err := t.loadDeployment(ctx); err != nil {
			return err
		}
		var err error
		balance, err = t.contractBalance(ctx)
		return err
	})
	return balance, err
}

// Owner returns the deployer
func (l *Ledger) Owner(ctx context.Context) (model.Address, error) {
	d, err := l.Deployment(ctx)
	if err != nil {
		return "", err
	}
	return d.Owner, nil
}

// Deployment returns the recorded constructor call
func (l *Ledger) Deployment(ctx context.Context) (*model.Deployment, error) {
	var d *model.Deployment
	err := l.view(ctx, func(t *txn) error {
		var err error
		d, err = t.loadDeployment(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	c := *d
	return &c, nil
}

// WalletBalance returns the value held outside the contract by addr
func (l *Ledger) WalletBalance(ctx context.Context, addr model.Address) (model.Wei, error) {
	var balance model.Wei
	err := l.view(ctx, func(t *txn) error {
		var err error
		balance, err = t.wallet(ctx, addr)
		return err
	})
	return balance, err
}

// Events lists committed events
func (l *Ledger) Events(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	return l.storage.ListEvents(ctx, filter)
}

// Receipt returns the receipt of a committed transaction
func (l *Ledger) Receipt(ctx context.Context, id model.TxID) (*model.Receipt, error) {
	return l.storage.GetReceipt(ctx, id)
}

// collect moves attached value from the sender's wallet to the contract
func (l *Ledger) collect(ctx context.Context, t *txn, from model.Address, value model.Wei) error {
	balance, err := t.wallet(ctx, from)
	if err != nil {
		return err
	}
	rest, err := balance.Sub(value)
	if errors.Is(err, model.ErrAmountUnderflow) {
		return model.ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	contract, err := t.contractBalance(ctx)
	if err != nil {
		return err
	}
	if contract, err = contract.Add(value); err != nil {
		return err
	}

	t.setWallet(from, rest)
	t.setContractBalance(contract)
	return nil
}

// pay moves amount from the contract to a wallet, then runs the
// recipient's receive hook
func (l *Ledger) pay(ctx context.Context, t *txn, to model.Address, amount model.Wei) error {
	contract, err := t.contractBalance(ctx)
	if err != nil {
		return err
	}
	rest, err := contract.Sub(amount)
	if errors.Is(err, model.ErrAmountUnderflow) {
		return model.ErrInsolvent
	}
	if err != nil {
		return err
	}
	balance, err := t.wallet(ctx, to)
	if err != nil {
		return err
	}
	if balance, err = balance.Add(amount); err != nil {
		return err
	}

	t.setContractBalance(rest)
	t.setWallet(to, balance)

	if r := l.receiver(to); r != nil {
		if err := r.Receive(ctx, t.deployment.ContractAddress, amount); err != nil {
			return fmt.Errorf("%w: %w", model.ErrTransferFailed, err)
		}
	}
	return nil
}
