package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (uc *DefaultReferralUsecase) ConfirmReferral(ctx context.Context, repos domain.Repositories, referredUserID string) (*Effects, error) {
	fx := &Effects{}
	ref, err := repos.Referrals.GetReferralByReferredID(ctx, referredUserID)
	if errors.Is(err, domain.ErrReferralNotFound) {
		return fx, nil
	}
	if err != nil {
		return nil, err
	}
	if !ref.CanActivate() {
		return fx, nil
	}

	// The row lock makes the counter increment and the tier check below one
	// step for concurrent confirmations of the same referrer.
	referrer, err := repos.Users.LockUser(ctx, ref.ReferrerID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if err := repos.Referrals.UpdateReferralStatus(ctx, ref.ID, domain.ReferralActive, &now); err != nil {
		return nil, err
	}
	if err := repos.Users.IncrementReferralCounters(ctx, referrer.ID, 1, 0); err != nil {
		return nil, err
	}
	fx.record(func(m *metrics.ReferralMetrics) { m.RecordReferralConfirmed() })

	tiers, err := loadTiers(ctx, repos.Tiers, uc.log)
	if err != nil {
		return nil, err
	}
	res, err := domain.ResolveTier(referrer.ConfirmedReferrals+1, tiers)
	if err != nil {
		return nil, err
	}

	signup, err := uc.policy.Rewards.Calculate(domain.RewardSignup, res.Current)
	if err != nil {
		return nil, err
	}
	if _, err := uc.credit(ctx, repos, fx, &domain.ReferralReward{
		UserID:     referrer.ID,
		ReferralID: ref.ID,
		TierID:     res.Current.ID,
		EventKey:   domain.SignupEventKey(ref.ID),
		Amount:     signup,
		Type:       domain.RewardSignup,
	}); err != nil {
		return nil, err
	}

	for _, tier := range domain.TiersCrossed(tiers, referrer.TierLevel, res.Current.Level) {
		bonus, err := uc.policy.Rewards.Calculate(domain.RewardMilestone, tier)
		if err != nil {
			return nil, err
		}
		if _, err := uc.credit(ctx, repos, fx, &domain.ReferralReward{
			UserID:   referrer.ID,
			TierID:   tier.ID,
			EventKey: domain.MilestoneEventKey(referrer.ID, tier.ID),
			Amount:   bonus,
			Type:     domain.RewardMilestone,
		}); err != nil {
			return nil, err
		}
	}

	if res.Current.Level > referrer.TierLevel {
		if err := repos.Users.UpdateUserTier(ctx, referrer.ID, res.Current.ID, res.Current.Level); err != nil {
			return nil, err
		}
		name := res.Current.Name
		fx.record(func(m *metrics.ReferralMetrics) { m.RecordTierUpgrade(name) })
		if err := fx.notify(ctx, repos.Notifications, referrer.ID, domain.NotifyTierUp,
			"Welcome to "+name, fmt.Sprintf("You reached the %s tier with %d confirmed referrals", name, referrer.ConfirmedReferrals+1), now); err != nil {
			return nil, err
		}
		uc.log.Info("referrer tier upgraded",
			slog.String("user_id", referrer.ID),
			slog.String("tier", name),
			slog.Int("level", res.Current.Level),
		)
	}
	return fx, nil
}

// credit writes reward unless its event key is already on the ledger, and
// rolls the amount up into the user and referral totals.
func (uc *DefaultReferralUsecase) credit(ctx context.Context, repos domain.Repositories, fx *Effects, reward *domain.ReferralReward) (bool, error) {
	now := uc.now()
	reward.ID = uuid.NewString()
	reward.Status = domain.RewardPending
	reward.CreatedAt = now

	created, err := repos.Rewards.CreateRewardIfAbsent(ctx, reward)
	if err != nil {
		return false, fmt.Errorf("failed to record reward: %w", err)
	}
	rewardType, amount := string(reward.Type), reward.Amount
	fx.record(func(m *metrics.ReferralMetrics) { m.RecordReward(rewardType, amount, created) })
	if !created {
		uc.log.Debug("duplicate reward event ignored", slog.String("event_key", reward.EventKey))
		return false, nil
	}

	if err := repos.Users.AddUserRewards(ctx, reward.UserID, reward.Amount); err != nil {
		return false, err
	}
	if reward.ReferralID != "" {
		if err := repos.Referrals.AddReferralRewards(ctx, reward.ReferralID, reward.Amount); err != nil {
			return false, err
		}
	}
	err = fx.notify(ctx, repos.Notifications, reward.UserID, domain.NotifyReward,
		"Reward earned", fmt.Sprintf("You earned %s for a %s reward", formatAmount(reward.Amount), reward.Type), now)
	return err == nil, err
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
