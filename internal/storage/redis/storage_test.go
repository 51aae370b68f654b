package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
	"github.com/mcoot/faceit-ledger/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func() storage.Storage {
			return newTestStorage(t, miniredis.RunT(t))
		},
	})
}

func newTestStorage(t *testing.T, mini *miniredis.Miniredis) *Storage {
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	s := NewWithClient(client, DefaultConfig())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type RedisSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.storage = newTestStorage(s.T(), s.mini)
}

var alice = model.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

func (s *RedisSuite) TestLedgerKeysHaveNoTTL() {
	acc := model.NewPlayerAccount(alice, "vasyan", 1839, time.Now())
	balance := model.NewWei(5)
	s.Require().NoError(s.storage.Apply(s.T().Context(), &storage.Changeset{
		Accounts:        []*model.PlayerAccount{acc},
		ContractBalance: &balance,
	}))

	s.Zero(s.mini.TTL(s.storage.accountKey(alice)))
	s.Zero(s.mini.TTL(s.storage.contractBalanceKey()))
}

func (s *RedisSuite) TestBalancesStoredAsDecimalStrings() {
	balance := model.MustParseAmount("1ether")
	s.Require().NoError(s.storage.Apply(s.T().Context(), &storage.Changeset{ContractBalance: &balance}))

	raw, err := s.mini.Get(s.storage.contractBalanceKey())
	s.Require().NoError(err)
	s.Equal("1000000000000000000", raw)
}

func (s *RedisSuite) TestKeyPrefixIsolatesLedgers() {
	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), Config{KeyPrefix: "other"})
	defer func() { _ = other.Close() }()

	acc := model.NewPlayerAccount(alice, "vasyan", 1839, time.Now())
	s.Require().NoError(s.storage.Apply(s.T().Context(), &storage.Changeset{Accounts: []*model.PlayerAccount{acc}}))

	_, err := other.GetAccount(s.T().Context(), alice)
	s.ErrorIs(err, model.ErrNoAccount)
}

func (s *RedisSuite) TestUnreachableServer() {
	_, err := New(Config{URL: "redis://127.0.0.1:1", PoolSize: 1})
	s.Error(err)
}
