package ledger

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

// txn is the write overlay of one transaction. Reads fall through to
// storage until a value is staged; nothing reaches storage until the
// overlay is turned into a changeset.
type txn struct {
	id    model.TxID
	now   time.Time
	store storage.Storage

	deployment *model.Deployment
	accounts   map[model.Address]*model.PlayerAccount
	order      []model.Address // staged accounts in first-write order
	wallets    map[model.Address]model.Wei
	contract   *model.Wei
	events     []model.Event
}

func newTxn(id model.TxID, now time.Time, store storage.Storage) *txn {
	return &txn{
		id:       id,
		now:      now,
		store:    store,
		accounts: make(map[model.Address]*model.PlayerAccount),
		wallets:  make(map[model.Address]model.Wei),
	}
}

func (t *txn) loadDeployment(ctx context.Context) (*model.Deployment, error) {
	if t.deployment == nil {
		d, err := t.store.GetDeployment(ctx)
		if err != nil {
			return nil, err
		}
		t.deployment = d
	}
	return t.deployment, nil
}

// account returns a private copy; changes are staged with putAccount
func (t *txn) account(ctx context.Context, addr model.Address) (*model.PlayerAccount, error) {
	if acc, ok := t.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return t.store.GetAccount(ctx, addr)
}

func (t *txn) putAccount(acc *model.PlayerAccount) {
	acc.UpdatedAt = t.now
	if _, ok := t.accounts[acc.Address]; !ok {
		t.order = append(t.order, acc.Address)
	}
	t.accounts[acc.Address] = acc.Clone()
}

func (t *txn) listAccounts(ctx context.Context) ([]*model.PlayerAccount, error) {
	stored, err := t.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[model.Address]bool, len(stored))
	for i, acc := range stored {
		seen[acc.Address] = true
		if staged, ok := t.accounts[acc.Address]; ok {
			stored[i] = staged.Clone()
		}
	}
	for _, addr := range t.order {
		if !seen[addr] {
			stored = append(stored, t.accounts[addr].Clone())
		}
	}
	return stored, nil
}

func (t *txn) wallet(ctx context.Context, addr model.Address) (model.Wei, error) {
	if w, ok := t.wallets[addr]; ok {
		return w, nil
	}
	return t.store.GetWalletBalance(ctx, addr)
}

func (t *txn) setWallet(addr model.Address, w model.Wei) {
	t.wallets[addr] = w
}

func (t *txn) contractBalance(ctx context.Context) (model.Wei, error) {
	if t.contract != nil {
		return *t.contract, nil
	}
	return t.store.GetContractBalance(ctx)
}

func (t *txn) setContractBalance(w model.Wei) {
	t.contract = &w
}

func (t *txn) emit(e model.Event) {
	t.events = append(t.events, e)
}

// snapshot captures the staged state so a failed nested call can be
// undone without discarding the enclosing transaction
func (t *txn) snapshot() *txn {
	s := *t
	s.accounts = make(map[model.Address]*model.PlayerAccount, len(t.accounts))
	for addr, acc := range t.accounts {
		s.accounts[addr] = acc.Clone()
	}
	s.order = slices.Clone(t.order)
	s.wallets = maps.Clone(t.wallets)
	s.events = slices.Clone(t.events)
	return &s
}

func (t *txn) restore(s *txn) {
	*t = *s
}

func (t *txn) changeset(receipt *model.Receipt) *storage.Changeset {
	cs := &storage.Changeset{
		ContractBalance: t.contract,
		Events:          slices.Clone(t.events),
		Receipt:         receipt,
	}
	for _, addr := range t.order {
		cs.Accounts = append(cs.Accounts, t.accounts[addr].Clone())
	}
	if len(t.wallets) > 0 {
		cs.Wallets = maps.Clone(t.wallets)
	}
	return cs
}

type frameKey struct{}

// frame marks a context as running inside a transaction of a ledger
type frame struct {
	ledger *Ledger
	txn    *txn
}

func withFrame(ctx context.Context, l *Ledger, t *txn) context.Context {
	return context.WithValue(ctx, frameKey{}, &frame{ledger: l, txn: t})
}

func (l *Ledger) activeTxn(ctx context.Context) *txn {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f.ledger == l {
		return f.txn
	}
	return nil
}
