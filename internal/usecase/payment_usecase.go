package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	paymentdto "github.com/brickfoundation/referral-service/internal/usecase/dto/payment"
	"github.com/google/uuid"
)

type PaymentUsecase interface {
	ConfirmPayment(ctx context.Context, input *paymentdto.ConfirmPaymentInput) (*paymentdto.ConfirmPaymentOutput, error)
}

type DefaultPaymentUsecase struct {
	store     domain.Store
	events    domain.EventPublisher
	links     LinkUsecase
	referrals ReferralUsecase
	metrics   *metrics.ReferralMetrics
	log       *slog.Logger
	policy    Policy
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewDefaultPaymentUsecase(
	store domain.Store,
	events domain.EventPublisher,
	links LinkUsecase,
	referrals ReferralUsecase,
	m *metrics.ReferralMetrics,
	log *slog.Logger,
	policy Policy,
) *DefaultPaymentUsecase {
	return &DefaultPaymentUsecase{
		store:     store,
		events:    events,
		links:     links,
		referrals: referrals,
		metrics:   m,
		log:       log,
		policy:    policy,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ConfirmPayment records a provider payment once per provider transaction id
// and, when it pays the activation fee, rotates the user's referral links,
// activates the user and confirms their pending referral. All of it commits
// together. Dependency failures retry the whole transaction with exponential
// backoff; validation, conflict and integrity failures do not.
func (uc *DefaultPaymentUsecase) ConfirmPayment(ctx context.Context, input *paymentdto.ConfirmPaymentInput) (*paymentdto.ConfirmPaymentOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	started := uc.now()
	var (
		out *paymentdto.ConfirmPaymentOutput
		fx  *Effects
		err error
	)
	for attempt := 1; ; attempt++ {
		out, fx, err = uc.confirmOnce(ctx, input)
		if err == nil {
			uc.metrics.RecordPaymentAttempt("ok")
			out.Attempts = attempt
			break
		}
		if !domain.IsRetryable(err) {
			uc.metrics.RecordPaymentAttempt("rejected")
			uc.metrics.RecordPayment("rejected", uc.now().Sub(started).Seconds())
			logIntegrity(uc.log, err, slog.String("provider_tx_id", input.ProviderTransactionID))
			return nil, err
		}
		uc.metrics.RecordPaymentAttempt("retry")
		if attempt >= uc.policy.MaxAttempts {
			uc.metrics.RecordPayment("failed", uc.now().Sub(started).Seconds())
			uc.log.Error("payment activation failed",
				slog.String("provider_tx_id", input.ProviderTransactionID),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("payment %s failed after %d attempts: %w", input.ProviderTransactionID, attempt, err)
		}

		backoff := uc.policy.BaseBackoff << (attempt - 1)
		uc.log.Warn("payment activation attempt failed, retrying",
			slog.String("provider_tx_id", input.ProviderTransactionID),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)
		if err := uc.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	fx.flush(ctx, uc.events, uc.metrics, uc.log)
	outcome := "recorded"
	switch {
	case out.Duplicate:
		outcome = "duplicate"
	case out.Activated:
		outcome = "activated"
	}
	uc.metrics.RecordPayment(outcome, uc.now().Sub(started).Seconds())
	uc.log.Info("payment processed",
		slog.String("provider_tx_id", input.ProviderTransactionID),
		slog.String("user_id", input.UserID),
		slog.String("outcome", outcome),
		slog.Int("attempts", out.Attempts),
	)
	return out, nil
}

func (uc *DefaultPaymentUsecase) confirmOnce(ctx context.Context, input *paymentdto.ConfirmPaymentInput) (*paymentdto.ConfirmPaymentOutput, *Effects, error) {
	var (
		out *paymentdto.ConfirmPaymentOutput
		fx  *Effects
	)
	err := uc.store.InTransaction(ctx, func(repos domain.Repositories) error {
		out = &paymentdto.ConfirmPaymentOutput{}
		fx = &Effects{}
		now := uc.now()

		user, err := repos.Users.LockUser(ctx, input.UserID)
		if err != nil {
			return err
		}

		event := domain.PaymentConfirmed{
			UserID:                input.UserID,
			Amount:                input.Amount,
			Currency:              input.Currency,
			ProviderTransactionID: input.ProviderTransactionID,
			Provider:              input.Provider,
		}
		qualifies := event.Qualifies(uc.policy.ActivationThreshold, uc.policy.ActivationCurrency)
		payment := &domain.Payment{
			ID:                    uuid.NewString(),
			UserID:                user.ID,
			Provider:              input.Provider,
			ProviderTransactionID: input.ProviderTransactionID,
			Amount:                input.Amount,
			Currency:              input.Currency,
			Status:                domain.PaymentCompleted,
			Activated:             qualifies,
			CreatedAt:             now,
		}
		created, err := repos.Payments.CreatePaymentIfAbsent(ctx, payment)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		if !created {
			prior, err := repos.Payments.GetPaymentByProviderTxID(ctx, input.ProviderTransactionID)
			if err != nil {
				return err
			}
			out.PaymentID = prior.ID
			out.Duplicate = true
			return nil
		}
		out.PaymentID = payment.ID
		if !qualifies {
			return nil
		}

		links, err := uc.links.IssueBatch(ctx, repos, user.ID, payment.ID)
		if err != nil {
			return err
		}
		for _, l := range links {
			out.LinkCodes = append(out.LinkCodes, l.Code)
		}
		issued := len(links)
		fx.record(func(m *metrics.ReferralMetrics) { m.RecordLinksIssued("payment", issued) })

		if err := repos.Users.MarkUserActivated(ctx, user.ID, now); err != nil {
			return err
		}
		out.Activated = true

		confirmed, err := uc.referrals.ConfirmReferral(ctx, repos, user.ID)
		if err != nil {
			return err
		}
		fx.Merge(confirmed)

		return fx.notify(ctx, repos.Notifications, user.ID, domain.NotifyActivation,
			"Account activated", fmt.Sprintf("Your %d referral links are ready to share", issued), now)
	})
	if err != nil {
		return nil, nil, err
	}
	return out, fx, nil
}
