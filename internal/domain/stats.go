package domain

import "github.com/shopspring/decimal"

type ReferralStats struct {
	UserID           string
	TotalReferrals   int
	ActiveReferrals  int
	PendingReferrals int
	ExpiredReferrals int
	RewardsPending   decimal.Decimal
	RewardsApproved  decimal.Decimal
	RewardsPaid      decimal.Decimal
	RewardsTotal     decimal.Decimal
	Tier             TierResolution
}

type LeaderboardEntry struct {
	Rank               int
	Profile            UserProfile
	ConfirmedReferrals int
	TotalRewards       decimal.Decimal
}
