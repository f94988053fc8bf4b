package usecase

import (
	"context"
	"log/slog"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

const maxLeaderboardSize = 100

type StatsUsecase interface {
	Stats(ctx context.Context, userID string) (*domain.ReferralStats, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Tiers(ctx context.Context) ([]domain.ReferralTier, error)
	Tree(ctx context.Context, userID string, depth int) (*domain.TreeNode, error)
}

type DefaultStatsUsecase struct {
	store  domain.Store
	log    *slog.Logger
	policy Policy
}

func NewDefaultStatsUsecase(store domain.Store, log *slog.Logger, policy Policy) *DefaultStatsUsecase {
	return &DefaultStatsUsecase{store: store, log: log, policy: policy}
}

func (uc *DefaultStatsUsecase) Stats(ctx context.Context, userID string) (*domain.ReferralStats, error) {
	repos := uc.store.Repos()
	user, err := repos.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := repos.Referrals.CountReferralsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	sums, err := repos.Rewards.SumRewardsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	tiers, err := loadTiers(ctx, repos.Tiers, uc.log)
	if err != nil {
		return nil, err
	}
	res, err := domain.ResolveTier(user.ConfirmedReferrals, tiers)
	if err != nil {
		return nil, err
	}

	stats := &domain.ReferralStats{
		UserID:           userID,
		ActiveReferrals:  counts[domain.ReferralActive],
		PendingReferrals: counts[domain.ReferralPending],
		ExpiredReferrals: counts[domain.ReferralExpired],
		RewardsPending:   sums[domain.RewardPending],
		RewardsApproved:  sums[domain.RewardApproved],
		RewardsPaid:      sums[domain.RewardPaid],
		Tier:             res,
	}
	stats.TotalReferrals = stats.ActiveReferrals + stats.PendingReferrals + stats.ExpiredReferrals
	stats.RewardsTotal = decimal.Sum(stats.RewardsPending, stats.RewardsApproved, stats.RewardsPaid)
	return stats, nil
}

// Leaderboard ranks active users by confirmed referrals, then total rewards.
// A non-positive limit falls back to the configured size.
func (uc *DefaultStatsUsecase) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = uc.policy.LeaderboardSize
	}
	limit = min(limit, maxLeaderboardSize)

	users, err := uc.store.Repos().Users.TopReferrers(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = domain.LeaderboardEntry{
			Rank:               i + 1,
			Profile:            u.Profile(),
			ConfirmedReferrals: u.ConfirmedReferrals,
			TotalRewards:       u.TotalRewards,
		}
	}
	return entries, nil
}

func (uc *DefaultStatsUsecase) Tiers(ctx context.Context) ([]domain.ReferralTier, error) {
	return loadTiers(ctx, uc.store.Repos().Tiers, uc.log)
}

// Tree returns the confirmed referral tree under userID. Zero depth means
// the configured default; deeper requests are capped at the maximum.
func (uc *DefaultStatsUsecase) Tree(ctx context.Context, userID string, depth int) (*domain.TreeNode, error) {
	if depth < 0 {
		return nil, domain.ErrInvalidDepth
	}
	if depth == 0 {
		depth = uc.policy.DefaultTreeDepth
	}
	depth = min(depth, uc.policy.MaxTreeDepth)

	repos := uc.store.Repos()
	root, err := repos.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	edges, err := repos.Referrals.Subtree(ctx, userID, depth)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(root.Profile(), edges, depth)
}
