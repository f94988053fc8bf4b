package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
)

type RewardUsecase interface {
	ListRewards(ctx context.Context, userID string) ([]*domain.ReferralReward, error)
	ApproveReward(ctx context.Context, rewardID string) (*domain.ReferralReward, error)
	MarkRewardPaid(ctx context.Context, rewardID string) (*domain.ReferralReward, error)
}

type DefaultRewardUsecase struct {
	store   domain.Store
	events  domain.EventPublisher
	metrics *metrics.ReferralMetrics
	log     *slog.Logger
	now     func() time.Time
}

func NewDefaultRewardUsecase(store domain.Store, events domain.EventPublisher, m *metrics.ReferralMetrics, log *slog.Logger) *DefaultRewardUsecase {
	return &DefaultRewardUsecase{
		store:   store,
		events:  events,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

func (uc *DefaultRewardUsecase) ListRewards(ctx context.Context, userID string) ([]*domain.ReferralReward, error) {
	if _, err := uc.store.Repos().Users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return uc.store.Repos().Rewards.ListRewardsByUser(ctx, userID)
}

func (uc *DefaultRewardUsecase) ApproveReward(ctx context.Context, rewardID string) (*domain.ReferralReward, error) {
	return uc.transition(ctx, rewardID, domain.RewardApproved)
}

func (uc *DefaultRewardUsecase) MarkRewardPaid(ctx context.Context, rewardID string) (*domain.ReferralReward, error) {
	return uc.transition(ctx, rewardID, domain.RewardPaid)
}

func (uc *DefaultRewardUsecase) transition(ctx context.Context, rewardID string, to domain.RewardStatus) (*domain.ReferralReward, error) {
	var (
		reward *domain.ReferralReward
		fx     *Effects
	)
	err := uc.store.InTransaction(ctx, func(repos domain.Repositories) error {
		fx = &Effects{}
		now := uc.now()

		r, err := repos.Rewards.LockReward(ctx, rewardID)
		if err != nil {
			return err
		}
		if err := r.Transition(to, now); err != nil {
			return err
		}
		if err := repos.Rewards.SaveRewardStatus(ctx, r); err != nil {
			return err
		}
		reward = r
		if to != domain.RewardPaid {
			return nil
		}
		return fx.notify(ctx, repos.Notifications, r.UserID, domain.NotifyReward,
			"Reward paid", fmt.Sprintf("Your %s reward of %s has been paid out", r.Type, formatAmount(r.Amount)), now)
	})
	if err != nil {
		return nil, err
	}

	fx.flush(ctx, uc.events, uc.metrics, uc.log)
	uc.log.Info("reward status changed",
		slog.String("reward_id", reward.ID),
		slog.String("status", string(reward.Status)),
	)
	return reward, nil
}
