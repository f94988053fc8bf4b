package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardTable_Calculate(t *testing.T) {
	tiers := scenarioTiers()

	tests := []struct {
		name   string
		action RewardType
		tier   ReferralTier
		want   string
	}{
		{"signup at level 2", RewardSignup, tiers[1], "15"},
		{"signup at level 1", RewardSignup, tiers[0], "10"},
		{"activity at level 3", RewardActivity, tiers[2], "50"},
		{"milestone at level 2", RewardMilestone, tiers[1], "75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultRewardTable.Calculate(tt.action, tt.tier)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)

			again, err := DefaultRewardTable.Calculate(tt.action, tt.tier)
			require.NoError(t, err)
			assert.True(t, got.Equal(again))
		})
	}
}

func TestRewardTable_RejectsBadInput(t *testing.T) {
	zero := ReferralTier{Name: "zero", RewardMultiplier: decimal.Zero}
	_, err := DefaultRewardTable.Calculate(RewardSignup, zero)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	negative := ReferralTier{Name: "neg", RewardMultiplier: decimal.NewFromInt(-2)}
	_, err = DefaultRewardTable.Calculate(RewardSignup, negative)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	_, err = DefaultRewardTable.Calculate(RewardType("purchase"), BaseTier)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestReferralReward_Transition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &ReferralReward{Status: RewardPending}

	assert.ErrorIs(t, r.Transition(RewardPaid, now), ErrRewardTransition)
	require.NoError(t, r.Transition(RewardApproved, now))
	require.NotNil(t, r.ProcessedAt)
	require.NoError(t, r.Transition(RewardPaid, now))
	require.NotNil(t, r.PaidAt)

	assert.ErrorIs(t, r.Transition(RewardApproved, now), ErrRewardImmutable)
	assert.Equal(t, RewardPaid, r.Status)
}

func TestEventKeys(t *testing.T) {
	assert.Equal(t, "signup:r1", SignupEventKey("r1"))
	assert.Equal(t, "activity:r1:a9", ActivityEventKey("r1", "a9"))
	assert.Equal(t, "milestone:u1:t2", MilestoneEventKey("u1", "t2"))
}
