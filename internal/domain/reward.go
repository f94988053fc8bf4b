package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RewardType string

const (
	RewardSignup    RewardType = "signup"
	RewardActivity  RewardType = "activity"
	RewardMilestone RewardType = "milestone"
)

type RewardStatus string

const (
	RewardPending  RewardStatus = "pending"
	RewardApproved RewardStatus = "approved"
	RewardPaid     RewardStatus = "paid"
)

// ReferralReward is a ledger entry. EventKey is unique across the ledger.
type ReferralReward struct {
	ID          string
	UserID      string
	ReferralID  string
	TierID      string
	EventKey    string
	Amount      decimal.Decimal
	Type        RewardType
	Status      RewardStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
	PaidAt      *time.Time
}

// Transition moves the reward along pending -> approved -> paid.
func (r *ReferralReward) Transition(to RewardStatus, at time.Time) error {
	if r.Status == RewardPaid {
		return ErrRewardImmutable
	}
	switch {
	case r.Status == RewardPending && to == RewardApproved:
		r.ProcessedAt = &at
	case r.Status == RewardApproved && to == RewardPaid:
		r.PaidAt = &at
	default:
		return fmt.Errorf("%s -> %s: %w", r.Status, to, ErrRewardTransition)
	}
	r.Status = to
	return nil
}

// RewardTable holds the base amount per action before the tier multiplier.
type RewardTable struct {
	Signup    decimal.Decimal
	Activity  decimal.Decimal
	Milestone decimal.Decimal
}

var DefaultRewardTable = RewardTable{
	Signup:    decimal.NewFromInt(10),
	Activity:  decimal.NewFromInt(25),
	Milestone: decimal.NewFromInt(50),
}

func (t RewardTable) Base(action RewardType) (decimal.Decimal, error) {
	switch action {
	case RewardSignup:
		return t.Signup, nil
	case RewardActivity:
		return t.Activity, nil
	case RewardMilestone:
		return t.Milestone, nil
	}
	return decimal.Zero, fmt.Errorf("%q: %w", action, ErrUnknownAction)
}

// Calculate returns base[action] * tier.RewardMultiplier.
func (t RewardTable) Calculate(action RewardType, tier ReferralTier) (decimal.Decimal, error) {
	if !tier.RewardMultiplier.IsPositive() {
		return decimal.Zero, fmt.Errorf("tier %q: %w", tier.Name, ErrInvalidMultiplier)
	}
	base, err := t.Base(action)
	if err != nil {
		return decimal.Zero, err
	}
	return base.Mul(tier.RewardMultiplier), nil
}

func SignupEventKey(referralID string) string {
	return "signup:" + referralID
}

func ActivityEventKey(referralID, activityID string) string {
	return "activity:" + referralID + ":" + activityID
}

func MilestoneEventKey(userID, tierID string) string {
	return "milestone:" + userID + ":" + tierID
}

type RewardRepository interface {
	// CreateRewardIfAbsent inserts the reward unless its EventKey exists and
	// reports whether a row was written.
	CreateRewardIfAbsent(ctx context.Context, reward *ReferralReward) (bool, error)
	GetRewardByID(ctx context.Context, rewardID string) (*ReferralReward, error)
	LockReward(ctx context.Context, rewardID string) (*ReferralReward, error)
	SaveRewardStatus(ctx context.Context, reward *ReferralReward) error
	ListRewardsByUser(ctx context.Context, userID string) ([]*ReferralReward, error)
	SumRewardsByStatus(ctx context.Context, userID string) (map[RewardStatus]decimal.Decimal, error)
}
