package setup

import (
	"fmt"

	"github.com/brickfoundation/referral-service/internal/config"
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/shopspring/decimal"
)

type UseCases struct {
	ReferralUsecase     usecase.ReferralUsecase
	PaymentUsecase      usecase.PaymentUsecase
	LinkUsecase         usecase.LinkUsecase
	RewardUsecase       usecase.RewardUsecase
	StatsUsecase        usecase.StatsUsecase
	NotificationUsecase usecase.NotificationUsecase
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	policy, err := PolicyFromConfig(deps.Config)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	linkUsecase, err := usecase.NewDefaultLinkUsecase(deps.Store, deps.Signer, deps.Metrics, deps.Log, policy)
	if err != nil {
		return nil, fmt.Errorf("link usecase: %w", err)
	}
	referralUsecase := usecase.NewDefaultReferralUsecase(
		deps.Store,
		deps.Events,
		deps.Signer,
		deps.Metrics,
		deps.Log,
		policy,
	)
	paymentUsecase := usecase.NewDefaultPaymentUsecase(
		deps.Store,
		deps.Events,
		linkUsecase,
		referralUsecase,
		deps.Metrics,
		deps.Log,
		policy,
	)

	return &UseCases{
		ReferralUsecase:     referralUsecase,
		PaymentUsecase:      paymentUsecase,
		LinkUsecase:         linkUsecase,
		RewardUsecase:       usecase.NewDefaultRewardUsecase(deps.Store, deps.Events, deps.Metrics, deps.Log),
		StatsUsecase:        usecase.NewDefaultStatsUsecase(deps.Store, deps.Log, policy),
		NotificationUsecase: usecase.NewDefaultNotificationUsecase(deps.Store),
	}, nil
}

// PolicyFromConfig converts the referral and payment config sections.
// The activation threshold is expected to have passed Validate.
func PolicyFromConfig(cfg *config.ReferralConfig) (usecase.Policy, error) {
	rewards := domain.RewardTable{}
	for _, field := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&rewards.Signup, cfg.Referral.SignupReward},
		{&rewards.Activity, cfg.Referral.ActivityReward},
		{&rewards.Milestone, cfg.Referral.MilestoneReward},
	} {
		v, err := decimal.NewFromString(field.raw)
		if err != nil {
			return usecase.Policy{}, err
		}
		*field.dst = v
	}
	return usecase.Policy{
		Rewards:             rewards,
		PendingTTL:          cfg.Referral.PendingTTL,
		LinksPerBatch:       cfg.Referral.LinksPerBatch,
		LinkTTL:             cfg.Referral.LinkTTL,
		DefaultTreeDepth:    cfg.Referral.DefaultTreeDepth,
		MaxTreeDepth:        cfg.Referral.MaxTreeDepth,
		LeaderboardSize:     cfg.Referral.LeaderboardSize,
		ActivationThreshold: cfg.ActivationThreshold(),
		ActivationCurrency:  cfg.Payment.ExpectedCurrency,
		MaxAttempts:         cfg.Payment.MaxAttempts,
		BaseBackoff:         cfg.Payment.BaseBackoff,
	}, nil
}
