// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

var (
	alice = model.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	bob   = model.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	owner = model.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
)

// Suite runs the shared storage contract against the backend returned by
// NewStorage, which is called once per test
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	now     time.Time
}

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// Deployment tests

func (s *Suite) TestGetDeploymentBeforeSave() {
	_, err := s.Storage.GetDeployment(s.Ctx)
	s.ErrorIs(err, model.ErrNotDeployed)
}

func (s *Suite) TestSaveAndGetDeployment() {
	d := &model.Deployment{ContractAddress: bob, Owner: owner, DeployedAt: s.now}
	s.Require().NoError(s.Storage.SaveDeployment(s.Ctx, d))

	retrieved, err := s.Storage.GetDeployment(s.Ctx)
	s.Require().NoError(err)
	s.Equal(owner, retrieved.Owner)
	s.Equal(bob, retrieved.ContractAddress)
	s.True(s.now.Equal(retrieved.DeployedAt))
}

// Account tests

func (s *Suite) TestGetAccountNotFound() {
	_, err := s.Storage.GetAccount(s.Ctx, alice)
	s.ErrorIs(err, model.ErrNoAccount)
}

func (s *Suite) TestApplyAccountRoundTrip() {
	acc := model.NewPlayerAccount(alice, "vasyan", 1839, s.now)
	acc.Balance = model.NewWei(10)
	acc.Participant = true
	acc.LastClaimAt = s.now.Add(time.Hour)

	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{
		Accounts: []*model.PlayerAccount{acc},
	}))

	retrieved, err := s.Storage.GetAccount(s.Ctx, alice)
	s.Require().NoError(err)
	s.Equal("vasyan", retrieved.Nickname)
	s.Equal(int64(1839), retrieved.Rating)
	s.Equal(0, retrieved.Balance.Cmp(model.NewWei(10)))
	s.True(retrieved.Created)
	s.True(retrieved.Participant)
	s.True(acc.LastClaimAt.Equal(retrieved.LastClaimAt))
}

func (s *Suite) TestUnsetLastClaimSurvivesRoundTrip() {
	acc := model.NewPlayerAccount(alice, "vasyan", 1839, s.now)
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{
		Accounts: []*model.PlayerAccount{acc},
	}))

	retrieved, err := s.Storage.GetAccount(s.Ctx, alice)
	s.Require().NoError(err)
	s.True(retrieved.LastClaimAt.IsZero())
}

func (s *Suite) TestApplyUpdatesExistingAccount() {
	acc := model.NewPlayerAccount(alice, "vasyan", 1839, s.now)
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Accounts: []*model.PlayerAccount{acc}}))

	acc.Rating = 1849
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Accounts: []*model.PlayerAccount{acc}}))

	retrieved, err := s.Storage.GetAccount(s.Ctx, alice)
	s.Require().NoError(err)
	s.Equal(int64(1849), retrieved.Rating)

	all, err := s.Storage.ListAccounts(s.Ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *Suite) TestListAccountsInCreationOrder() {
	first := model.NewPlayerAccount(bob, "bob", 1000, s.now)
	second := model.NewPlayerAccount(alice, "alice", 2000, s.now.Add(time.Minute))
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Accounts: []*model.PlayerAccount{first}}))
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Accounts: []*model.PlayerAccount{second}}))

	all, err := s.Storage.ListAccounts(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(bob, all[0].Address)
	s.Equal(alice, all[1].Address)
}

// Balance tests

func (s *Suite) TestBalancesDefaultToZero() {
	contract, err := s.Storage.GetContractBalance(s.Ctx)
	s.Require().NoError(err)
	s.True(contract.IsZero())

	wallet, err := s.Storage.GetWalletBalance(s.Ctx, alice)
	s.Require().NoError(err)
	s.True(wallet.IsZero())
}

func (s *Suite) TestApplyBalances() {
	contract := model.MustParseAmount("0.00375ether")
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{
		ContractBalance: &contract,
		Wallets: map[model.Address]model.Wei{
			alice: model.MustParseAmount("10000ether"),
		},
	}))

	got, err := s.Storage.GetContractBalance(s.Ctx)
	s.Require().NoError(err)
	s.Equal("3750000000000000", got.String())

	wallet, err := s.Storage.GetWalletBalance(s.Ctx, alice)
	s.Require().NoError(err)
	s.Equal("10000000000000000000000", wallet.String())
}

func (s *Suite) TestApplyWithoutContractBalanceLeavesItUnchanged() {
	contract := model.NewWei(100)
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{ContractBalance: &contract}))
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{
		Wallets: map[model.Address]model.Wei{bob: model.NewWei(1)},
	}))

	got, err := s.Storage.GetContractBalance(s.Ctx)
	s.Require().NoError(err)
	s.Equal("100", got.String())
}

// Event and receipt tests

func (s *Suite) TestEventsAppendInOrderAndFilter() {
	e1 := model.NewBalanceChanged("tx-1", alice, model.NewWei(10), model.NewWei(10), s.now)
	e2 := model.NewBalanceChanged("tx-2", bob, model.NewWei(10), model.NewWei(10), s.now.Add(time.Second))
	e3 := model.NewBalanceChanged("tx-3", alice, model.NewWei(20), model.NewWei(10), s.now.Add(2*time.Second))
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Events: []model.Event{e1, e2}}))
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Events: []model.Event{e3}}))

	all, err := s.Storage.ListEvents(s.Ctx, model.EventFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.TxID("tx-1"), all[0].TxID)
	s.Equal(model.TxID("tx-3"), all[2].TxID)

	mine, err := s.Storage.ListEvents(s.Ctx, model.EventFilter{Identity: alice})
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(model.EventBalanceChanged, mine[1].Type)
	s.Equal("20", mine[1].Payload.Balance.String())
	s.Equal("10", mine[1].Payload.Reward.String())
	s.True(e3.Timestamp.Equal(mine[1].Timestamp))
}

func (s *Suite) TestReceiptRoundTrip() {
	r := &model.Receipt{
		TxID:      "tx-1",
		Op:        model.OpBalanceAccrual,
		From:      alice,
		Payout:    model.NewWei(10),
		Events:    []model.Event{model.NewBalanceChanged("tx-1", alice, model.NewWei(10), model.NewWei(10), s.now)},
		Timestamp: s.now,
	}
	s.Require().NoError(s.Storage.Apply(s.Ctx, &storage.Changeset{Receipt: r}))

	retrieved, err := s.Storage.GetReceipt(s.Ctx, "tx-1")
	s.Require().NoError(err)
	s.Equal(model.OpBalanceAccrual, retrieved.Op)
	s.Equal(alice, retrieved.From)
	s.True(retrieved.Target.IsZero())
	s.Equal("10", retrieved.Payout.String())
	s.Len(retrieved.Events, 1)
}

func (s *Suite) TestGetReceiptNotFound() {
	_, err := s.Storage.GetReceipt(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrReceiptNotFound)
}

// Credential tests

func (s *Suite) TestCredentialRoundTrip() {
	_, err := s.Storage.GetCredential(s.Ctx, alice)
	s.ErrorIs(err, model.ErrCredentialNotFound)

	s.Require().NoError(s.Storage.CreateCredential(s.Ctx, &model.Credential{
		Address:        alice,
		PassphraseHash: "hash",
		CreatedAt:      s.now,
	}))

	c, err := s.Storage.GetCredential(s.Ctx, alice)
	s.Require().NoError(err)
	s.Equal("hash", c.PassphraseHash)
}

func (s *Suite) TestCreateCredentialNeverOverwrites() {
	s.Require().NoError(s.Storage.CreateCredential(s.Ctx, &model.Credential{
		Address:        alice,
		PassphraseHash: "first",
		CreatedAt:      s.now,
	}))

	err := s.Storage.CreateCredential(s.Ctx, &model.Credential{
		Address:        alice,
		PassphraseHash: "second",
		CreatedAt:      s.now,
	})
	s.ErrorIs(err, model.ErrCredentialExists)

	c, err := s.Storage.GetCredential(s.Ctx, alice)
	s.Require().NoError(err)
	s.Equal("first", c.PassphraseHash)
}

func (s *Suite) TestCreateCredentialConcurrently() {
	const attempts = 8
	errs := make(chan error, attempts)
	for i := range attempts {
		go func() {
			errs <- s.Storage.CreateCredential(s.Ctx, &model.Credential{
				Address:        bob,
				PassphraseHash: fmt.Sprintf("hash-%d", i),
				CreatedAt:      s.now,
			})
		}()
	}

	created := 0
	for range attempts {
		err := <-errs
		if err == nil {
			created++
			continue
		}
		s.ErrorIs(err, model.ErrCredentialExists)
	}
	s.Equal(1, created)
}
