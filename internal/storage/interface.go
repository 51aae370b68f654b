package storage

import (
	"context"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Deployment operations
	GetDeployment(ctx context.Context) (*model.Deployment, error)
	SaveDeployment(ctx context.Context, d *model.Deployment) error

	// Account operations. GetAccount returns model.ErrNoAccount for unknown
	// addresses; absence is never expressed as a zero-valued account.
	GetAccount(ctx context.Context, addr model.Address) (*model.PlayerAccount, error)
	ListAccounts(ctx context.Context) ([]*model.PlayerAccount, error)

	// Balances. Unknown wallets hold zero.
	GetContractBalance(ctx context.Context) (model.Wei, error)
	GetWalletBalance(ctx context.Context, addr model.Address) (model.Wei, error)

	// Audit log and receipts
	ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error)
	GetReceipt(ctx context.Context, id model.TxID) (*model.Receipt, error)

	// Apply writes a changeset atomically: either every write lands or none
	Apply(ctx context.Context, cs *Changeset) error

	// Credential operations. CreateCredential never overwrites: it returns
	// model.ErrCredentialExists when the address already has one.
	CreateCredential(ctx context.Context, c *model.Credential) error
	GetCredential(ctx context.Context, addr model.Address) (*model.Credential, error)
}

// Changeset is the write set of one ledger transaction
type Changeset struct {
	Accounts        []*model.PlayerAccount
	Wallets         map[model.Address]model.Wei
	ContractBalance *model.Wei // nil when unchanged
	Events          []model.Event
	Receipt         *model.Receipt
}
