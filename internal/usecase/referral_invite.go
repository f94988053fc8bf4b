package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InviteByEmail records a pending invite and hands it to the e-mail
// dispatcher. A repeated invite from the same referrer returns the first one.
func (uc *DefaultReferralUsecase) InviteByEmail(ctx context.Context, input *referraldto.InviteInput) (*referraldto.InviteOutput, error) {
	normalized := *input
	normalized.ReferredEmail = domain.NormalizeEmail(input.ReferredEmail)
	if err := validateInput(&normalized); err != nil {
		return nil, err
	}
	email := normalized.ReferredEmail

	var (
		out      *referraldto.InviteOutput
		referrer *domain.User
		fx       *Effects
	)
	err := uc.store.InTransaction(ctx, func(repos domain.Repositories) error {
		out = &referraldto.InviteOutput{}
		fx = &Effects{}
		now := uc.now()

		r, err := repos.Users.GetUserByID(ctx, input.ReferrerID)
		if err != nil {
			return err
		}
		referrer = r
		if r.Email == email {
			return domain.ErrSelfReferral
		}

		existing, err := repos.Referrals.FindPendingInvite(ctx, r.ID, email)
		if err == nil {
			out.ReferralID = existing.ID
			out.Duplicate = true
			return nil
		}
		if !errors.Is(err, domain.ErrReferralNotFound) {
			return err
		}

		ref := &domain.Referral{
			ID:            uuid.NewString(),
			ReferrerID:    r.ID,
			ReferredEmail: email,
			Source:        domain.SourceInvite,
			Status:        domain.ReferralPending,
			TotalRewards:  decimal.Zero,
			CreatedAt:     now,
		}

		invitee, err := repos.Users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if invitee.IsActivated() {
				return fmt.Errorf("%w: invitee has already activated", domain.ErrConflict)
			}
			_, err := repos.Referrals.GetReferralByReferredID(ctx, invitee.ID)
			if err == nil {
				return domain.ErrAlreadyReferred
			}
			if !errors.Is(err, domain.ErrReferralNotFound) {
				return err
			}
			if err := uc.checkEdge(ctx, repos, r.ID, invitee.ID); err != nil {
				return err
			}
			ref.ReferredID = invitee.ID
		case !errors.Is(err, domain.ErrUserNotFound):
			return err
		}

		if err := repos.Referrals.CreateReferral(ctx, ref); err != nil {
			return err
		}
		if err := repos.Users.IncrementReferralCounters(ctx, r.ID, 0, 1); err != nil {
			return err
		}
		out.ReferralID = ref.ID
		fx.record(func(m *metrics.ReferralMetrics) { m.RecordReferralCreated(string(domain.SourceInvite)) })
		return nil
	})
	if err != nil {
		logIntegrity(uc.log, err, slog.String("referrer_id", input.ReferrerID))
		return nil, err
	}
	fx.flush(ctx, uc.events, uc.metrics, uc.log)
	if out.Duplicate {
		return out, nil
	}

	out.ShareURL = uc.referrerShareURL(ctx, referrer.ID)
	event := domain.InvitationRequested{
		ReferralID:    out.ReferralID,
		ReferrerID:    referrer.ID,
		ReferrerName:  referrer.FullName,
		ReferredEmail: email,
		ShareURL:      out.ShareURL,
		RequestedAt:   uc.now(),
	}
	if err := uc.events.PublishInvitation(ctx, event); err != nil {
		uc.log.Warn("failed to publish invitation",
			slog.String("referral_id", out.ReferralID),
			slog.String("error", err.Error()),
		)
	}
	uc.log.Info("referral invite created",
		slog.String("referral_id", out.ReferralID),
		slog.String("referrer_id", referrer.ID),
	)
	return out, nil
}

// referrerShareURL signs a share URL for the referrer's newest usable link.
// Referrers without links get an empty URL.
func (uc *DefaultReferralUsecase) referrerShareURL(ctx context.Context, referrerID string) string {
	links, err := uc.store.Repos().Links.ListLinksByUser(ctx, referrerID, true)
	if err != nil {
		uc.log.Warn("failed to load referrer links", slog.String("referrer_id", referrerID), slog.String("error", err.Error()))
		return ""
	}
	now := uc.now()
	for _, l := range links {
		if !l.IsUsable(now) {
			continue
		}
		shareURL, _, err := uc.signer.ShareURL(l.Code, referrerID)
		if err != nil {
			uc.log.Warn("failed to sign share url", slog.String("link_id", l.ID), slog.String("error", err.Error()))
			return ""
		}
		return shareURL
	}
	return ""
}
