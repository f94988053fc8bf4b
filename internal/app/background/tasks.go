package background

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/usecase"
	paymentdto "github.com/brickfoundation/referral-service/internal/usecase/dto/payment"
)

type BackgroundTasks struct {
	ReferralUsecase usecase.ReferralUsecase
	LinkUsecase     usecase.LinkUsecase
	PaymentUsecase  usecase.PaymentUsecase
	log             *slog.Logger
	now             func() time.Time
	retryDelay      time.Duration
	maxRetryDelay   time.Duration
}

func NewBackgroundTasks(
	referralUC usecase.ReferralUsecase,
	linkUC usecase.LinkUsecase,
	paymentUC usecase.PaymentUsecase,
	log *slog.Logger,
) *BackgroundTasks {
	return &BackgroundTasks{
		ReferralUsecase: referralUC,
		LinkUsecase:     linkUC,
		PaymentUsecase:  paymentUC,
		log:             log,
		now:             time.Now,
		retryDelay:      time.Second,
		maxRetryDelay:   time.Minute,
	}
}

// StartExpiry runs the expiry jobs every interval until ctx is done.
func (bt *BackgroundTasks) StartExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.RunExpiry(ctx)
		}
	}
}

func (bt *BackgroundTasks) RunExpiry(ctx context.Context) {
	now := bt.now()
	referrals, err := bt.ReferralUsecase.ExpirePendingReferrals(ctx, now)
	if err != nil {
		bt.log.Error("pending referral expiry failed", "error", err)
	}
	links, err := bt.LinkUsecase.ExpireLinks(ctx, now)
	if err != nil {
		bt.log.Error("referral link expiry failed", "error", err)
	}
	if referrals > 0 || links > 0 {
		bt.log.Info("expiry run finished", "referrals_expired", referrals, "links_expired", links)
	}
}

// ConsumePayments feeds payment-confirmed events from topic into the
// activation bridge until ctx is done or the subscription closes. A message
// is acknowledged only once it is applied or can never apply; dependency
// failures hold the partition and retry the same message.
func (bt *BackgroundTasks) ConsumePayments(ctx context.Context, sub domain.SubscriberPort, topic, groupID string) error {
	msgs, err := sub.Subscribe(ctx, topic, groupID)
	if err != nil {
		return err
	}
	for msg := range msgs {
		if err := bt.handlePayment(ctx, msg); err != nil {
			return err
		}
		if err := msg.Ack(ctx); err != nil {
			bt.log.Warn("payment event commit failed", "key", string(msg.Key), "error", err)
		}
	}
	return ctx.Err()
}

// handlePayment returns an error only when ctx ends before a retryable
// failure clears; the message must then stay uncommitted.
func (bt *BackgroundTasks) handlePayment(ctx context.Context, msg domain.Message) error {
	var event domain.PaymentConfirmed
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		bt.log.Error("malformed payment event", "key", string(msg.Key), "error", err)
		return nil
	}
	input := &paymentdto.ConfirmPaymentInput{
		UserID:                event.UserID,
		Amount:                event.Amount,
		Currency:              event.Currency,
		ProviderTransactionID: event.ProviderTransactionID,
		Provider:              event.Provider,
	}

	delay := bt.retryDelay
	for {
		out, err := bt.PaymentUsecase.ConfirmPayment(ctx, input)
		if err == nil {
			bt.log.Debug("payment event applied",
				"provider_transaction_id", event.ProviderTransactionID,
				"duplicate", out.Duplicate,
				"activated", out.Activated,
			)
			return nil
		}
		if !domain.IsRetryable(err) {
			bt.log.Error("payment event rejected",
				"provider_transaction_id", event.ProviderTransactionID,
				"error", err,
			)
			return nil
		}

		bt.log.Warn("payment event not applied, retrying",
			"provider_transaction_id", event.ProviderTransactionID,
			"retry_in", delay,
			"error", err,
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, bt.maxRetryDelay)
	}
}
