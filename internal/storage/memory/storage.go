package memory

import (
	"context"
	"sync"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	deployment      *model.Deployment
	accounts        map[model.Address]*model.PlayerAccount
	accountOrder    []model.Address
	contractBalance model.Wei
	wallets         map[model.Address]model.Wei
	events          []model.Event
	receipts        map[model.TxID]*model.Receipt
	credentials     map[model.Address]*model.Credential
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:    make(map[model.Address]*model.PlayerAccount),
		wallets:     make(map[model.Address]model.Wei),
		receipts:    make(map[model.TxID]*model.Receipt),
		credentials: make(map[model.Address]*model.Credential),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Deployment operations

func (s *Storage) GetDeployment(ctx context.Context) (*model.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deployment == nil {
		return nil, model.ErrNotDeployed
	}
	d := *s.deployment
	return &d, nil
}

func (s *Storage) SaveDeployment(ctx context.Context, d *model.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *d
	s.deployment = &saved
	return nil
}

// Account operations

func (s *Storage) GetAccount(ctx context.Context, addr model.Address) (*model.PlayerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[addr]
	if !ok {
		return nil, model.ErrNoAccount
	}
	return acc.Clone(), nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.PlayerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.PlayerAccount, 0, len(s.accountOrder))
	for _, addr := range s.accountOrder {
		result = append(result, s.accounts[addr].Clone())
	}
	return result, nil
}

// Balance operations

func (s *Storage) GetContractBalance(ctx context.Context) (model.Wei, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contractBalance, nil
}

func (s *Storage) GetWalletBalance(ctx context.Context, addr model.Address) (model.Wei, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets[addr], nil
}

// Log operations

func (s *Storage) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.Event
	for _, e := range s.events {
		if filter.Matches(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *Storage) GetReceipt(ctx context.Context, id model.TxID) (*model.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[id]
	if !ok {
		return nil, model.ErrReceiptNotFound
	}
	return cloneReceipt(r), nil
}

// Apply writes the changeset under a single lock acquisition
func (s *Storage) Apply(ctx context.Context, cs *storage.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range cs.Accounts {
		if _, exists := s.accounts[acc.Address]; !exists {
			s.accountOrder = append(s.accountOrder, acc.Address)
		}
		s.accounts[acc.Address] = acc.Clone()
	}
	for addr, bal := range cs.Wallets {
		s.wallets[addr] = bal
	}
	if cs.ContractBalance != nil {
		s.contractBalance = *cs.ContractBalance
	}
	s.events = append(s.events, cs.Events...)
	if cs.Receipt != nil {
		s.receipts[cs.Receipt.TxID] = cloneReceipt(cs.Receipt)
	}
	return nil
}

// Credential operations

func (s *Storage) CreateCredential(ctx context.Context, c *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[c.Address]; ok {
		return model.ErrCredentialExists
	}
	saved := *c
	s.credentials[c.Address] = &saved
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, addr model.Address) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[addr]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	saved := *c
	return &saved, nil
}

func cloneReceipt(r *model.Receipt) *model.Receipt {
	c := *r
	c.Events = append([]model.Event(nil), r.Events...)
	return &c
}
