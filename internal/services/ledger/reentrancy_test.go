package ledger

import (
	"context"
	"errors"

	"github.com/mcoot/faceit-ledger/internal/model"
)

func (s *LedgerSuite) claimableAlice() {
	s.register(alice, "vasyan", 1839)
	s.participate(alice)
	s.clock.Advance(DefaultCooldown)
}

func (s *LedgerSuite) TestReentrantClaimFailsTooEarly() {
	s.claimableAlice()
	var nestedErr error
	calls := 0
	s.ledger.RegisterReceiver(alice, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		calls++
		_, nestedErr = s.ledger.BalanceAccrual(ctx, model.Tx{From: alice}, 1900)
		return nil
	}))
	contractBefore := s.contract()

	rc, err := s.ledger.BalanceAccrual(s.ctx, model.Tx{From: alice}, 1849)
	s.Require().NoError(err)

	s.Equal(1, calls)
	s.ErrorIs(nestedErr, model.ErrTooEarly)
	s.Len(rc.Events, 1)
	s.Len(s.sink.events, 1)
	s.Equal(0, s.contract().Cmp(s.sub(contractBefore, model.NewWei(10))))

	acc, err := s.ledger.Player(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(int64(1849), acc.Rating)
	s.Equal("10", acc.Balance.String())
}

func (s *LedgerSuite) TestReceiverSeesStagedState() {
	s.claimableAlice()
	contractBefore := s.contract()
	var seenBalance, seenContract model.Wei
	s.ledger.RegisterReceiver(alice, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		acc, err := s.ledger.Player(ctx, alice)
		if err != nil {
			return err
		}
		seenBalance = acc.Balance
		seenContract, err = s.ledger.ContractBalance(ctx)
		return err
	}))

	_, err := s.ledger.BalanceAccrual(s.ctx, model.Tx{From: alice}, 1849)
	s.Require().NoError(err)

	s.Equal("10", seenBalance.String())
	s.Equal(0, seenContract.Cmp(s.sub(contractBefore, model.NewWei(10))))
}

func (s *LedgerSuite) TestReceiverIsToldThePayer() {
	s.claimableAlice()
	var payer model.Address
	var paid model.Wei
	s.ledger.RegisterReceiver(alice, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		payer, paid = from, amount
		return nil
	}))

	_, err := s.ledger.BalanceAccrual(s.ctx, model.Tx{From: alice}, 1849)
	s.Require().NoError(err)
	s.Equal(model.MustParseAddress(DefaultContractAddress), payer)
	s.Equal("10", paid.String())
}

func (s *LedgerSuite) TestFailingReceiverRollsBackEverything() {
	s.claimableAlice()
	errRejected := errors.New("rejected")
	s.ledger.RegisterReceiver(alice, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		return errRejected
	}))
	contractBefore := s.contract()
	walletBefore := s.wallet(alice)
	before, err := s.ledger.Player(s.ctx, alice)
	s.Require().NoError(err)

	_, err = s.ledger.BalanceAccrual(s.ctx, model.Tx{ID: "claim-1", From: alice}, 1849)
	s.ErrorIs(err, model.ErrTransferFailed)
	s.ErrorIs(err, errRejected)

	after, err := s.ledger.Player(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(before.Rating, after.Rating)
	s.True(after.Balance.IsZero())
	s.True(before.LastClaimAt.Equal(after.LastClaimAt))
	s.Equal(0, s.contract().Cmp(contractBefore))
	s.Equal(0, s.wallet(alice).Cmp(walletBefore))

	events, err := s.ledger.Events(s.ctx, model.EventFilter{})
	s.Require().NoError(err)
	s.Empty(events)
	s.Empty(s.sink.events)

	_, err = s.ledger.Receipt(s.ctx, "claim-1")
	s.ErrorIs(err, model.ErrReceiptNotFound)

	// Once the hook accepts, the same id goes through
	s.ledger.UnregisterReceiver(alice)
	_, err = s.ledger.BalanceAccrual(s.ctx, model.Tx{ID: "claim-1", From: alice}, 1849)
	s.NoError(err)
}

func (s *LedgerSuite) TestFailedNestedCallLeavesOuterIntact() {
	s.claimableAlice()
	var nestedErr error
	s.ledger.RegisterReceiver(alice, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		// More than the wallet holds: the attached value must not stick
		_, nestedErr = s.ledger.ReceiveFunds(ctx, model.Tx{From: alice, Value: model.MustParseAmount("20000ether")})
		return nil
	}))
	walletBefore := s.wallet(alice)

	_, err := s.ledger.BalanceAccrual(s.ctx, model.Tx{From: alice}, 1849)
	s.Require().NoError(err)

	s.ErrorIs(nestedErr, model.ErrInsufficientFunds)
	s.Equal(0, s.wallet(alice).Cmp(s.add(walletBefore, model.NewWei(10))))
}

func (s *LedgerSuite) TestNestedCallCommitsWithOuter() {
	s.claimableAlice()
	s.ledger.RegisterReceiver(alice, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		// Send the reward straight back
		_, err := s.ledger.ReceiveFunds(ctx, model.Tx{From: alice, Value: amount})
		return err
	}))
	contractBefore := s.contract()
	walletBefore := s.wallet(alice)

	rc, err := s.ledger.BalanceAccrual(s.ctx, model.Tx{From: alice}, 1849)
	s.Require().NoError(err)

	s.Equal(0, s.contract().Cmp(contractBefore))
	s.Equal(0, s.wallet(alice).Cmp(walletBefore))

	stored, err := s.ledger.Receipt(s.ctx, rc.TxID)
	s.Require().NoError(err)
	s.Equal(model.OpBalanceAccrual, stored.Op)
}

func (s *LedgerSuite) TestOwnerReceiverOnWithdraw() {
	_, err := s.ledger.ReceiveFunds(s.ctx, model.Tx{From: bob, Value: model.NewWei(100)})
	s.Require().NoError(err)
	s.ledger.RegisterReceiver(owner, ReceiverFunc(func(ctx context.Context, from model.Address, amount model.Wei) error {
		return errors.New("owner wallet closed")
	}))

	_, err = s.ledger.Withdraw(s.ctx, model.Tx{From: owner})
	s.ErrorIs(err, model.ErrTransferFailed)
	s.Equal("100", s.contract().String())
}
