package response

import (
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Read views carry Degraded when the store could not serve them and the
// payload is a zero value.

type TierResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Level            int             `json:"level"`
	MinReferrals     int             `json:"min_referrals"`
	RewardMultiplier decimal.Decimal `json:"reward_multiplier"`
	Benefits         []string        `json:"benefits"`
}

type TierProgressResponse struct {
	Current         TierResponse  `json:"current"`
	Next            *TierResponse `json:"next,omitempty"`
	ReferralsToNext int           `json:"referrals_to_next"`
	Progress        float64       `json:"progress"`
}

type RewardTotalsResponse struct {
	Pending  decimal.Decimal `json:"pending"`
	Approved decimal.Decimal `json:"approved"`
	Paid     decimal.Decimal `json:"paid"`
	Total    decimal.Decimal `json:"total"`
}

type StatsResponse struct {
	UserID           string               `json:"user_id"`
	TotalReferrals   int                  `json:"total_referrals"`
	ActiveReferrals  int                  `json:"active_referrals"`
	PendingReferrals int                  `json:"pending_referrals"`
	ExpiredReferrals int                  `json:"expired_referrals"`
	Rewards          RewardTotalsResponse `json:"rewards"`
	Tier             TierProgressResponse `json:"tier"`
	Degraded         bool                 `json:"degraded,omitempty"`
}

type TreeResponse struct {
	Tree     *domain.TreeNode `json:"tree"`
	Degraded bool             `json:"degraded,omitempty"`
}

type LeaderboardEntryResponse struct {
	Rank               int                `json:"rank"`
	User               domain.UserProfile `json:"user"`
	ConfirmedReferrals int                `json:"confirmed_referrals"`
	TotalRewards       decimal.Decimal    `json:"total_rewards"`
}

type LeaderboardResponse struct {
	Entries  []LeaderboardEntryResponse `json:"entries"`
	Degraded bool                       `json:"degraded,omitempty"`
}

type TiersResponse struct {
	Tiers    []TierResponse `json:"tiers"`
	Degraded bool           `json:"degraded,omitempty"`
}

func NewTierResponse(t domain.ReferralTier) TierResponse {
	benefits := t.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	return TierResponse{
		ID:               t.ID,
		Name:             t.Name,
		Level:            t.Level,
		MinReferrals:     t.MinReferrals,
		RewardMultiplier: t.RewardMultiplier,
		Benefits:         benefits,
	}
}

func NewStatsResponse(s *domain.ReferralStats) StatsResponse {
	resp := StatsResponse{
		UserID:           s.UserID,
		TotalReferrals:   s.TotalReferrals,
		ActiveReferrals:  s.ActiveReferrals,
		PendingReferrals: s.PendingReferrals,
		ExpiredReferrals: s.ExpiredReferrals,
		Rewards: RewardTotalsResponse{
			Pending:  s.RewardsPending,
			Approved: s.RewardsApproved,
			Paid:     s.RewardsPaid,
			Total:    s.RewardsTotal,
		},
		Tier: TierProgressResponse{
			Current:         NewTierResponse(s.Tier.Current),
			ReferralsToNext: s.Tier.ReferralsToNext,
			Progress:        s.Tier.Progress,
		},
	}
	if s.Tier.Next != nil {
		next := NewTierResponse(*s.Tier.Next)
		resp.Tier.Next = &next
	}
	return resp
}
