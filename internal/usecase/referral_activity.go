package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brickfoundation/referral-service/internal/domain"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
)

// RecordActivity credits the active referrer of the user for one
// qualifying activity. Users without an active referral earn nobody a reward.
func (uc *DefaultReferralUsecase) RecordActivity(ctx context.Context, input *referraldto.ActivityInput) (*referraldto.ActivityOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		out *referraldto.ActivityOutput
		fx  *Effects
	)
	err := uc.store.InTransaction(ctx, func(repos domain.Repositories) error {
		out = &referraldto.ActivityOutput{}
		fx = &Effects{}

		if _, err := repos.Users.GetUserByID(ctx, input.UserID); err != nil {
			return err
		}
		ref, err := repos.Referrals.GetReferralByReferredID(ctx, input.UserID)
		if errors.Is(err, domain.ErrReferralNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if ref.Status != domain.ReferralActive {
			return nil
		}
		out.ReferrerID = ref.ReferrerID

		referrer, err := repos.Users.LockUser(ctx, ref.ReferrerID)
		if err != nil {
			return err
		}
		tiers, err := loadTiers(ctx, repos.Tiers, uc.log)
		if err != nil {
			return err
		}
		res, err := domain.ResolveTier(referrer.ConfirmedReferrals, tiers)
		if err != nil {
			return err
		}
		amount, err := uc.policy.Rewards.Calculate(domain.RewardActivity, res.Current)
		if err != nil {
			return err
		}

		reward := &domain.ReferralReward{
			UserID:     referrer.ID,
			ReferralID: ref.ID,
			TierID:     res.Current.ID,
			EventKey:   domain.ActivityEventKey(ref.ID, input.ActivityID),
			Amount:     amount,
			Type:       domain.RewardActivity,
		}
		credited, err := uc.credit(ctx, repos, fx, reward)
		if err != nil {
			return err
		}
		if credited {
			out.Amount = amount
			out.Credited = true
		}
		return nil
	})
	if err != nil {
		logIntegrity(uc.log, err, slog.String("user_id", input.UserID))
		return nil, err
	}
	fx.flush(ctx, uc.events, uc.metrics, uc.log)
	return out, nil
}
