package ledger

import (
	"fmt"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// Reward policy names accepted by NewRewardPolicy
const (
	RewardPolicyFixed    = "fixed"
	RewardPolicyPerPoint = "per_point"
)

// DefaultRewardAmount is the fixed payout for a successful claim, in wei
const DefaultRewardAmount = 10

// RewardPolicy computes the payout for a rating gain. It is only called
// with newRating > oldRating.
type RewardPolicy interface {
	Reward(oldRating, newRating int64) (model.Wei, error)
}

// FixedReward pays the same amount for every accepted claim
type FixedReward struct {
	Amount model.Wei
}

func (p FixedReward) Reward(_, _ int64) (model.Wei, error) {
	return p.Amount, nil
}

// PerPointReward pays Rate for each rating point gained
type PerPointReward struct {
	Rate model.Wei
}

func (p PerPointReward) Reward(oldRating, newRating int64) (model.Wei, error) {
	// The difference of two int64s with newRating > oldRating always fits in a uint64
	gain := uint64(newRating) - uint64(oldRating)
	return p.Rate.MulUint64(gain)
}

// DefaultRewardPolicy returns the fixed 10 wei policy
func DefaultRewardPolicy() RewardPolicy {
	return FixedReward{Amount: model.NewWei(DefaultRewardAmount)}
}

// NewRewardPolicy builds a policy by name. amount is the fixed payout for
// "fixed" and the per-point rate for "per_point".
func NewRewardPolicy(name string, amount model.Wei) (RewardPolicy, error) {
	switch name {
	case "", RewardPolicyFixed:
		return FixedReward{Amount: amount}, nil
	case RewardPolicyPerPoint:
		return PerPointReward{Rate: amount}, nil
	default:
		return nil, fmt.Errorf("unknown reward policy %q", name)
	}
}
