package ledger

import (
	"math/rand/v2"
	"time"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// Random sequences of transfers, stakes, claims and withdrawals never
// create or destroy value, and the contract always holds exactly what it
// received minus what it paid out
func (s *LedgerSuite) TestConservationUnderRandomSequences() {
	rng := rand.New(rand.NewPCG(42, 7))
	actors := []model.Address{owner, alice, bob, carol}
	ratings := map[model.Address]int64{}

	total := model.Wei{}
	for _, addr := range actors {
		total = s.add(total, s.wallet(addr))
	}
	total = s.add(total, s.contract())

	received := s.contract()
	paid := model.Wei{}

	for range 400 {
		from := actors[rng.IntN(len(actors))]
		var rc *model.Receipt
		var err error

		switch rng.IntN(7) {
		case 0:
			rc, err = s.ledger.CreateAccount(s.ctx, model.Tx{From: from}, "player", 1000)
			if err == nil {
				ratings[from] = 1000
			}
		case 1:
			rc, err = s.ledger.Participate(s.ctx, model.Tx{From: from, Value: stake})
		case 2:
			rc, err = s.ledger.ReceiveFunds(s.ctx, model.Tx{From: from, Value: model.NewWei(uint64(rng.IntN(50)))})
		case 3:
			next := ratings[from] + int64(rng.IntN(40)) - 10
			rc, err = s.ledger.BalanceAccrual(s.ctx, model.Tx{From: from}, next)
			if err == nil {
				ratings[from] = next
			}
		case 4:
			rc, err = s.ledger.Withdraw(s.ctx, model.Tx{From: from})
		case 5:
			rc, err = s.ledger.CorrectClaimTime(s.ctx, model.Tx{From: from}, actors[rng.IntN(len(actors))])
		case 6:
			s.clock.Advance(time.Duration(rng.IntN(72)) * time.Hour)
		}

		if err == nil && rc != nil {
			received = s.add(received, rc.Value)
			paid = s.add(paid, rc.Payout)
		}

		sum := s.contract()
		for _, addr := range actors {
			sum = s.add(sum, s.wallet(addr))
		}
		s.Require().Equal(0, sum.Cmp(total), "value created or destroyed")
		s.Require().Equal(0, s.contract().Cmp(s.sub(received, paid)), "contract balance drifted")
	}
}
