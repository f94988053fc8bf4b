package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy holds the tunables shared by the referral usecases.
type Policy struct {
	Rewards             domain.RewardTable
	PendingTTL          time.Duration
	LinksPerBatch       int
	LinkTTL             time.Duration
	DefaultTreeDepth    int
	MaxTreeDepth        int
	LeaderboardSize     int
	ActivationThreshold decimal.Decimal
	ActivationCurrency  string
	MaxAttempts         int
	BaseBackoff         time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Rewards:             domain.DefaultRewardTable,
		PendingTTL:          30 * 24 * time.Hour,
		LinksPerBatch:       3,
		DefaultTreeDepth:    3,
		MaxTreeDepth:        5,
		LeaderboardSize:     10,
		ActivationThreshold: decimal.NewFromInt(90000),
		ActivationCurrency:  "UGX",
		MaxAttempts:         3,
		BaseBackoff:         200 * time.Millisecond,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}

// loadTiers reads and validates the tier table. A broken table is an
// integrity failure and is logged at error level.
func loadTiers(ctx context.Context, repo domain.TierRepository, log *slog.Logger) ([]domain.ReferralTier, error) {
	tiers, err := repo.ListTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiers: %w", err)
	}
	if err := domain.ValidateTiers(tiers); err != nil {
		log.Error("tier configuration is invalid", slog.String("error", err.Error()))
		return nil, err
	}
	return tiers, nil
}

// Effects collects what a transaction wants published once it commits.
// Notifications are persisted inside the transaction and delivered after.
type Effects struct {
	notifications []*domain.Notification
	records       []func(m *metrics.ReferralMetrics)
}

func (e *Effects) Merge(other *Effects) {
	if other == nil {
		return
	}
	e.notifications = append(e.notifications, other.notifications...)
	e.records = append(e.records, other.records...)
}

func (e *Effects) Notifications() []*domain.Notification {
	return e.notifications
}

func (e *Effects) notify(ctx context.Context, repo domain.NotificationRepository, userID string, kind domain.NotificationKind, title, body string, now time.Time) error {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: now,
	}
	if err := repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	e.notifications = append(e.notifications, n)
	return nil
}

func (e *Effects) record(fn func(m *metrics.ReferralMetrics)) {
	e.records = append(e.records, fn)
}

// flush runs after commit. Delivery failures are logged; the state change
// they describe is already durable.
func (e *Effects) flush(ctx context.Context, events domain.EventPublisher, m *metrics.ReferralMetrics, log *slog.Logger) {
	for _, rec := range e.records {
		rec(m)
	}
	if len(e.notifications) == 0 || events == nil {
		return
	}
	if err := events.PublishNotifications(ctx, e.notifications...); err != nil {
		log.Warn("failed to publish notifications",
			slog.Int("count", len(e.notifications)),
			slog.String("error", err.Error()),
		)
	}
}

// logIntegrity reports integrity failures loudly before they propagate.
func logIntegrity(log *slog.Logger, err error, attrs ...any) {
	if errors.Is(err, domain.ErrIntegrity) {
		log.Error("integrity violation", append(attrs, slog.String("error", err.Error()))...)
	}
}
