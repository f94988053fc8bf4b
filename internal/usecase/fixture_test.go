package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/linksigner"
	"github.com/brickfoundation/referral-service/internal/infrastructure/memory"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	paymentdto "github.com/brickfoundation/referral-service/internal/usecase/dto/payment"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingEvents struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	invitations   []domain.InvitationRequested
}

func (r *recordingEvents) PublishNotifications(ctx context.Context, notifications ...*domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notifications...)
	return nil
}

func (r *recordingEvents) PublishInvitation(ctx context.Context, event domain.InvitationRequested) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invitations = append(r.invitations, event)
	return nil
}

func testTiers() []domain.ReferralTier {
	return []domain.ReferralTier{
		{ID: "starter", Name: "Starter", Level: 1, MinReferrals: 0, RewardMultiplier: decimal.NewFromInt(1)},
		{ID: "builder", Name: "Builder", Level: 2, MinReferrals: 2, RewardMultiplier: decimal.NewFromFloat(1.5)},
		{ID: "foundation", Name: "Foundation", Level: 3, MinReferrals: 4, RewardMultiplier: decimal.NewFromInt(2)},
	}
}

type fixture struct {
	store     *memory.Store
	events    *recordingEvents
	signer    *linksigner.Signer
	metrics   *metrics.ReferralMetrics
	log       *slog.Logger
	policy    Policy
	links     *DefaultLinkUsecase
	referrals *DefaultReferralUsecase
	payments  *DefaultPaymentUsecase
	rewards   *DefaultRewardUsecase
	stats     *DefaultStatsUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(testTiers()),
		events:  &recordingEvents{},
		metrics: metrics.NewReferralMetrics(prometheus.NewRegistry()),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:  DefaultPolicy(),
	}
	signer, err := linksigner.New("test-secret", time.Hour, "https://brickfoundation.org/join")
	require.NoError(t, err)
	f.signer = signer

	f.links, err = NewDefaultLinkUsecase(f.store, f.signer, f.metrics, f.log, f.policy)
	require.NoError(t, err)
	f.referrals = NewDefaultReferralUsecase(f.store, f.events, f.signer, f.metrics, f.log, f.policy)
	f.payments = f.paymentsWith(f.store)
	f.rewards = NewDefaultRewardUsecase(f.store, f.events, f.metrics, f.log)
	f.stats = NewDefaultStatsUsecase(f.store, f.log, f.policy)
	return f
}

// paymentsWith builds a payment usecase over store with backoff sleeps
// recorded instead of slept.
func (f *fixture) paymentsWith(store domain.Store) *DefaultPaymentUsecase {
	uc := NewDefaultPaymentUsecase(store, f.events, f.links, f.referrals, f.metrics, f.log, f.policy)
	uc.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return uc
}

func (f *fixture) register(t *testing.T, name, code string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := f.referrals.RegisterUser(context.Background(), &referraldto.RegisterUserInput{
		UserID:       id,
		Email:        name + "@example.org",
		FullName:     name,
		ReferralCode: code,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) activate(t *testing.T, userID, txID string) *paymentdto.ConfirmPaymentOutput {
	t.Helper()
	out, err := f.payments.ConfirmPayment(context.Background(), activationPayment(userID, txID))
	require.NoError(t, err)
	return out
}

func (f *fixture) activeCode(t *testing.T, userID string) string {
	t.Helper()
	links, err := f.store.Repos().Links.ListLinksByUser(context.Background(), userID, true)
	require.NoError(t, err)
	require.NotEmpty(t, links)
	return links[0].Code
}

func (f *fixture) user(t *testing.T, userID string) *domain.User {
	t.Helper()
	u, err := f.store.Repos().Users.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	return u
}

func activationPayment(userID, txID string) *paymentdto.ConfirmPaymentInput {
	return &paymentdto.ConfirmPaymentInput{
		UserID:                userID,
		Amount:                decimal.NewFromInt(90000),
		Currency:              "UGX",
		ProviderTransactionID: txID,
		Provider:              "flutterwave",
	}
}
