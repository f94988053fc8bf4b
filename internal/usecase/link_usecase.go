package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/linksigner"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	linkdto "github.com/brickfoundation/referral-service/internal/usecase/dto/link"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

const linkCodeLength = 12

type LinkUsecase interface {
	GenerateLinks(ctx context.Context, userID string) ([]*linkdto.LinkOutput, error)
	IssueBatch(ctx context.Context, repos domain.Repositories, userID, paymentID string) ([]*domain.ReferralLink, error)
	ListLinks(ctx context.Context, userID string, activeOnly bool) ([]*linkdto.LinkOutput, error)
	ShareURL(link *domain.ReferralLink) (string, error)
	ResolveToken(ctx context.Context, token string) (*linkdto.ResolvedLinkOutput, error)
	ExpireLinks(ctx context.Context, now time.Time) (int64, error)
}

type DefaultLinkUsecase struct {
	store   domain.Store
	signer  *linksigner.Signer
	metrics *metrics.ReferralMetrics
	log     *slog.Logger
	policy  Policy
	newCode func() string
	now     func() time.Time
}

func NewDefaultLinkUsecase(
	store domain.Store,
	signer *linksigner.Signer,
	m *metrics.ReferralMetrics,
	log *slog.Logger,
	policy Policy,
) (*DefaultLinkUsecase, error) {
	newCode, err := nanoid.Standard(linkCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to init link code generator: %w", err)
	}
	return &DefaultLinkUsecase{
		store:   store,
		signer:  signer,
		metrics: m,
		log:     log,
		policy:  policy,
		newCode: newCode,
		now:     time.Now,
	}, nil
}

// GenerateLinks replaces the user's active batch on demand. Only activated
// users hold links.
func (uc *DefaultLinkUsecase) GenerateLinks(ctx context.Context, userID string) ([]*linkdto.LinkOutput, error) {
	var links []*domain.ReferralLink
	err := uc.store.InTransaction(ctx, func(repos domain.Repositories) error {
		user, err := repos.Users.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsActivated() {
			return domain.ErrUserNotActivated
		}
		links, err = uc.IssueBatch(ctx, repos, userID, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordLinksIssued("manual", len(links))
	uc.log.Info("referral links regenerated", slog.String("user_id", userID), slog.Int("count", len(links)))
	return uc.toOutputs(links), nil
}

// IssueBatch deactivates every active link of the user and creates a fresh
// batch. It must run inside the caller's transaction.
func (uc *DefaultLinkUsecase) IssueBatch(ctx context.Context, repos domain.Repositories, userID, paymentID string) ([]*domain.ReferralLink, error) {
	now := uc.now()
	if _, err := repos.Links.DeactivateUserLinks(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("failed to deactivate links: %w", err)
	}

	var expiresAt *time.Time
	if uc.policy.LinkTTL > 0 {
		t := now.Add(uc.policy.LinkTTL)
		expiresAt = &t
	}

	batchID := uuid.NewString()
	links := make([]*domain.ReferralLink, uc.policy.LinksPerBatch)
	for i := range links {
		links[i] = &domain.ReferralLink{
			ID:        uuid.NewString(),
			UserID:    userID,
			Code:      uc.newCode(),
			Status:    domain.LinkActive,
			BatchID:   batchID,
			PaymentID: paymentID,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}
	}
	if err := repos.Links.CreateLinks(ctx, links); err != nil {
		return nil, fmt.Errorf("failed to create links: %w", err)
	}
	return links, nil
}

func (uc *DefaultLinkUsecase) ListLinks(ctx context.Context, userID string, activeOnly bool) ([]*linkdto.LinkOutput, error) {
	if _, err := uc.store.Repos().Users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	links, err := uc.store.Repos().Links.ListLinksByUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	return uc.toOutputs(links), nil
}

func (uc *DefaultLinkUsecase) ShareURL(link *domain.ReferralLink) (string, error) {
	if !link.IsUsable(uc.now()) {
		return "", domain.ErrLinkInactive
	}
	shareURL, _, err := uc.signer.ShareURL(link.Code, link.UserID)
	return shareURL, err
}

// ResolveToken verifies a share token and returns the referrer behind it.
func (uc *DefaultLinkUsecase) ResolveToken(ctx context.Context, token string) (*linkdto.ResolvedLinkOutput, error) {
	claims, err := uc.signer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidLinkToken, err.Error())
	}

	repos := uc.store.Repos()
	link, err := repos.Links.GetLinkByCode(ctx, claims.Code)
	if err != nil {
		return nil, err
	}
	if link.UserID != claims.ReferrerID {
		return nil, domain.ErrInvalidLinkToken
	}
	if !link.IsUsable(uc.now()) {
		return nil, domain.ErrLinkInactive
	}
	referrer, err := repos.Users.GetUserByID(ctx, link.UserID)
	if err != nil {
		return nil, err
	}
	return &linkdto.ResolvedLinkOutput{Code: link.Code, Referrer: referrer.Profile()}, nil
}

func (uc *DefaultLinkUsecase) ExpireLinks(ctx context.Context, now time.Time) (int64, error) {
	n, err := uc.store.Repos().Links.DeactivateExpiredLinks(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire links: %w", err)
	}
	if n > 0 {
		uc.log.Info("referral links expired", slog.Int64("count", n))
	}
	return n, nil
}

func (uc *DefaultLinkUsecase) toOutputs(links []*domain.ReferralLink) []*linkdto.LinkOutput {
	out := make([]*linkdto.LinkOutput, 0, len(links))
	for _, l := range links {
		o := &linkdto.LinkOutput{
			ID:        l.ID,
			Code:      l.Code,
			Status:    l.Status,
			BatchID:   l.BatchID,
			ExpiresAt: l.ExpiresAt,
			CreatedAt: l.CreatedAt,
		}
		if l.IsUsable(uc.now()) {
			shareURL, err := uc.ShareURL(l)
			if err != nil {
				uc.log.Warn("failed to sign share url", slog.String("link_id", l.ID), slog.String("error", err.Error()))
			}
			o.ShareURL = shareURL
		}
		out = append(out, o)
	}
	return out
}
