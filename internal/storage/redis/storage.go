package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Deployment operations

func (s *Storage) GetDeployment(ctx context.Context) (*model.Deployment, error) {
	var d model.Deployment
	if err := s.getJSON(ctx, s.deploymentKey(), &d); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotDeployed
		}
		return nil, err
	}
	return &d, nil
}

func (s *Storage) SaveDeployment(ctx context.Context, d *model.Deployment) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.deploymentKey(), data, 0).Err()
}

// Account operations

func (s *Storage) GetAccount(ctx context.Context, addr model.Address) (*model.PlayerAccount, error) {
	var acc model.PlayerAccount
	if err := s.getJSON(ctx, s.accountKey(addr), &acc); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoAccount
		}
		return nil, err
	}
	return &acc, nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.PlayerAccount, error) {
	addrs, err := s.client.ZRange(ctx, s.accountIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return []*model.PlayerAccount{}, nil
	}

	keys := make([]string, len(addrs))
	for i, addr := range addrs {
		keys[i] = s.accountKey(model.Address(addr))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	accounts := make([]*model.PlayerAccount, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var acc model.PlayerAccount
		if err := json.Unmarshal([]byte(str), &acc); err != nil {
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, nil
}

// Balance operations

func (s *Storage) GetContractBalance(ctx context.Context) (model.Wei, error) {
	return s.getAmount(ctx, s.contractBalanceKey())
}

func (s *Storage) GetWalletBalance(ctx context.Context, addr model.Address) (model.Wei, error) {
	return s.getAmount(ctx, s.walletKey(addr))
}

// Log operations

func (s *Storage) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	raw, err := s.client.LRange(ctx, s.eventsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var events []model.Event
	for _, item := range raw {
		var e model.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		if filter.Matches(e) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *Storage) GetReceipt(ctx context.Context, id model.TxID) (*model.Receipt, error) {
	var r model.Receipt
	if err := s.getJSON(ctx, s.receiptKey(id), &r); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrReceiptNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Apply writes the changeset inside MULTI/EXEC so readers never see a
// partial transaction
func (s *Storage) Apply(ctx context.Context, cs *storage.Changeset) error {
	// Encode everything up front so a marshal failure writes nothing
	accounts := make(map[string][]byte, len(cs.Accounts))
	for _, acc := range cs.Accounts {
		data, err := json.Marshal(acc)
		if err != nil {
			return err
		}
		accounts[string(acc.Address)] = data
	}
	events := make([]interface{}, 0, len(cs.Events))
	for _, e := range cs.Events {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		events = append(events, data)
	}
	var receipt []byte
	if cs.Receipt != nil {
		data, err := json.Marshal(cs.Receipt)
		if err != nil {
			return err
		}
		receipt = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, acc := range cs.Accounts {
			pipe.Set(ctx, s.accountKey(acc.Address), accounts[string(acc.Address)], 0)
			pipe.ZAddNX(ctx, s.accountIndexKey(), redis.Z{
				Score:  float64(acc.CreatedAt.UnixMilli()),
				Member: string(acc.Address),
			})
		}
		for addr, bal := range cs.Wallets {
			pipe.Set(ctx, s.walletKey(addr), bal.String(), 0)
		}
		if cs.ContractBalance != nil {
			pipe.Set(ctx, s.contractBalanceKey(), cs.ContractBalance.String(), 0)
		}
		if len(events) > 0 {
			pipe.RPush(ctx, s.eventsKey(), events...)
		}
		if receipt != nil {
			pipe.Set(ctx, s.receiptKey(cs.Receipt.TxID), receipt, 0)
		}
		return nil
	})
	return err
}

// Credential operations

func (s *Storage) CreateCredential(ctx context.Context, c *model.Credential) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	created, err := s.client.SetNX(ctx, s.credentialKey(c.Address), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrCredentialExists
	}
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, addr model.Address) (*model.Credential, error) {
	var c model.Credential
	if err := s.getJSON(ctx, s.credentialKey(addr), &c); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Storage) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Storage) getAmount(ctx context.Context, key string) (model.Wei, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Wei{}, nil
		}
		return model.Wei{}, err
	}
	return model.ParseWei(val)
}
