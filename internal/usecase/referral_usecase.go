package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/linksigner"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
)

type ReferralUsecase interface {
	RegisterUser(ctx context.Context, input *referraldto.RegisterUserInput) (*referraldto.RegisterUserOutput, error)
	InviteByEmail(ctx context.Context, input *referraldto.InviteInput) (*referraldto.InviteOutput, error)
	// ConfirmReferral activates the pending referral of referredUserID inside
	// the caller's transaction. The returned effects must be flushed after commit.
	ConfirmReferral(ctx context.Context, repos domain.Repositories, referredUserID string) (*Effects, error)
	RecordActivity(ctx context.Context, input *referraldto.ActivityInput) (*referraldto.ActivityOutput, error)
	ExpirePendingReferrals(ctx context.Context, now time.Time) (int64, error)
}

type DefaultReferralUsecase struct {
	store   domain.Store
	events  domain.EventPublisher
	signer  *linksigner.Signer
	metrics *metrics.ReferralMetrics
	log     *slog.Logger
	policy  Policy
	now     func() time.Time
}

func NewDefaultReferralUsecase(
	store domain.Store,
	events domain.EventPublisher,
	signer *linksigner.Signer,
	m *metrics.ReferralMetrics,
	log *slog.Logger,
	policy Policy,
) *DefaultReferralUsecase {
	return &DefaultReferralUsecase{
		store:   store,
		events:  events,
		signer:  signer,
		metrics: m,
		log:     log,
		policy:  policy,
		now:     time.Now,
	}
}

// checkEdge takes the graph lock and rejects an edge referrer -> referred
// that is a self-referral or would close a cycle.
func (uc *DefaultReferralUsecase) checkEdge(ctx context.Context, repos domain.Repositories, referrerID, referredID string) error {
	if err := repos.Referrals.LockGraph(ctx); err != nil {
		return fmt.Errorf("failed to lock referral graph: %w", err)
	}
	isAncestor, err := repos.Referrals.IsAncestor(ctx, referredID, referrerID)
	if err != nil {
		return err
	}
	err = domain.ReferralEdgeError(referrerID, referredID, isAncestor)
	if errors.Is(err, domain.ErrReferralCycle) {
		uc.metrics.RecordCycleRejected()
		uc.log.Error("referral cycle rejected",
			slog.String("referrer_id", referrerID),
			slog.String("referred_id", referredID),
		)
	}
	return err
}

func (uc *DefaultReferralUsecase) ExpirePendingReferrals(ctx context.Context, now time.Time) (int64, error) {
	n, err := uc.store.Repos().Referrals.ExpirePendingReferrals(ctx, now.Add(-uc.policy.PendingTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending referrals: %w", err)
	}
	uc.metrics.RecordReferralsExpired(n)
	if n > 0 {
		uc.log.Info("pending referrals expired", slog.Int64("count", n))
	}
	return n, nil
}
