package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterUser creates the user and attributes them to a referrer, either
// through the link code (or signed token) they arrived with or through a
// pending e-mail invite. Registering the same user twice is a no-op.
func (uc *DefaultReferralUsecase) RegisterUser(ctx context.Context, input *referraldto.RegisterUserInput) (*referraldto.RegisterUserOutput, error) {
	normalized := *input
	normalized.Email = domain.NormalizeEmail(input.Email)
	if err := validateInput(&normalized); err != nil {
		return nil, err
	}
	email := normalized.Email
	code := strings.TrimSpace(input.ReferralCode)
	if input.ReferralToken != "" {
		claims, err := uc.signer.Verify(input.ReferralToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidLinkToken, err.Error())
		}
		code = claims.Code
	}

	var (
		out *referraldto.RegisterUserOutput
		fx  *Effects
	)
	err := uc.store.InTransaction(ctx, func(repos domain.Repositories) error {
		out = &referraldto.RegisterUserOutput{}
		fx = &Effects{}
		now := uc.now()

		existing, err := repos.Users.GetUserByID(ctx, input.UserID)
		switch {
		case err == nil:
			if existing.Email != email {
				return fmt.Errorf("%w: user id is registered with another email", domain.ErrConflict)
			}
			out.User = existing.Profile()
			ref, err := repos.Referrals.GetReferralByReferredID(ctx, existing.ID)
			if err == nil {
				out.ReferralID, out.ReferrerID = ref.ID, ref.ReferrerID
			} else if !errors.Is(err, domain.ErrReferralNotFound) {
				return err
			}
			return nil
		case !errors.Is(err, domain.ErrUserNotFound):
			return err
		}

		tiers, err := loadTiers(ctx, repos.Tiers, uc.log)
		if err != nil {
			return err
		}
		start, err := domain.ResolveTier(0, tiers)
		if err != nil {
			return err
		}

		user := &domain.User{
			ID:           input.UserID,
			Email:        email,
			FullName:     strings.TrimSpace(input.FullName),
			AvatarURL:    input.AvatarURL,
			Role:         domain.RoleUser,
			Status:       domain.UserStatusActive,
			PaymentState: domain.PaymentStateUnpaid,
			TierLevel:    start.Current.Level,
			TotalRewards: decimal.Zero,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if start.Current.ID != domain.BaseTier.ID {
			user.TierID = start.Current.ID
		}
		if err := repos.Users.CreateUser(ctx, user); err != nil {
			return err
		}
		out.User = user.Profile()
		out.Created = true

		ref, usable, err := uc.attribute(ctx, repos, user, code, now)
		if err != nil {
			return err
		}
		if !usable {
			out.RejectedCode = code
		}
		if ref == nil {
			return nil
		}
		out.ReferralID, out.ReferrerID = ref.ID, ref.ReferrerID
		source := string(ref.Source)
		fx.record(func(m *metrics.ReferralMetrics) { m.RecordReferralCreated(source) })
		return fx.notify(ctx, repos.Notifications, ref.ReferrerID, domain.NotifyReferral,
			"New referral", fmt.Sprintf("%s joined through your referral", user.FullName), now)
	})
	if err != nil {
		logIntegrity(uc.log, err, slog.String("user_id", input.UserID))
		return nil, err
	}

	fx.flush(ctx, uc.events, uc.metrics, uc.log)
	if out.Created {
		uc.log.Info("user registered",
			slog.String("user_id", out.User.ID),
			slog.String("referrer_id", out.ReferrerID),
		)
	}
	if out.RejectedCode != "" {
		uc.log.Warn("referral code not usable, user registered without it",
			slog.String("user_id", out.User.ID),
			slog.String("referral_code", out.RejectedCode),
		)
	}
	return out, nil
}

// attribute links a freshly created user to a referrer. A usable link code
// wins; otherwise the oldest pending invite for the user's e-mail is claimed.
// An unknown or superseded code does not block signup: usable is false and
// the code is ignored.
func (uc *DefaultReferralUsecase) attribute(ctx context.Context, repos domain.Repositories, user *domain.User, code string, now time.Time) (*domain.Referral, bool, error) {
	var link *domain.ReferralLink
	usable := true
	if code != "" {
		l, err := repos.Links.GetLinkByCode(ctx, code)
		switch {
		case errors.Is(err, domain.ErrLinkNotFound):
			usable = false
		case err != nil:
			return nil, false, err
		case !l.IsUsable(now):
			usable = false
		default:
			link = l
		}
	}

	referrerID := ""
	if link != nil {
		referrerID = link.UserID
	}
	invite, err := repos.Referrals.FindPendingInvite(ctx, referrerID, user.Email)
	if err != nil && !errors.Is(err, domain.ErrReferralNotFound) {
		return nil, usable, err
	}
	if invite == nil && link == nil {
		return nil, usable, nil
	}
	if invite != nil {
		referrerID = invite.ReferrerID
	}

	if err := uc.checkEdge(ctx, repos, referrerID, user.ID); err != nil {
		return nil, usable, err
	}

	if invite != nil {
		if err := repos.Referrals.AttachReferred(ctx, invite.ID, user.ID); err != nil {
			return nil, usable, err
		}
		invite.ReferredID = user.ID
		return invite, usable, nil
	}

	ref := &domain.Referral{
		ID:            uuid.NewString(),
		ReferrerID:    referrerID,
		ReferredID:    user.ID,
		ReferredEmail: user.Email,
		LinkID:        link.ID,
		Source:        domain.SourceLink,
		Status:        domain.ReferralPending,
		TotalRewards:  decimal.Zero,
		CreatedAt:     now,
	}
	if err := repos.Referrals.CreateReferral(ctx, ref); err != nil {
		return nil, usable, err
	}
	if err := repos.Users.IncrementReferralCounters(ctx, referrerID, 0, 1); err != nil {
		return nil, usable, err
	}
	return ref, usable, nil
}
