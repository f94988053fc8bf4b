package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterViaLinkCreatesPendingReferral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer := f.register(t, "ivan", "")
	f.activate(t, referrer, "TXN-ivan")

	out, err := f.referrals.RegisterUser(ctx, &referraldto.RegisterUserInput{
		UserID:       uuid.NewString(),
		Email:        "  Jane@Example.org ",
		FullName:     "Jane",
		ReferralCode: f.activeCode(t, referrer),
	})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, referrer, out.ReferrerID)

	ref, err := f.store.Repos().Referrals.GetReferralByReferredID(ctx, out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralPending, ref.Status)
	assert.Equal(t, domain.SourceLink, ref.Source)
	assert.Equal(t, "jane@example.org", ref.ReferredEmail)

	assert.Equal(t, 1, f.user(t, referrer).TotalReferrals)
	assert.Equal(t, 0, f.user(t, referrer).ConfirmedReferrals)

	notes, err := f.store.Repos().Notifications.ListNotifications(ctx, referrer, true)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, domain.NotifyReferral, notes[0].Kind)
}

func TestRegisterIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := &referraldto.RegisterUserInput{UserID: uuid.NewString(), Email: "kato@example.org", FullName: "Kato"}

	first, err := f.referrals.RegisterUser(ctx, in)
	require.NoError(t, err)
	second, err := f.referrals.RegisterUser(ctx, in)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)

	in.Email = "other@example.org"
	_, err = f.referrals.RegisterUser(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterWithSignedToken(t *testing.T) {
	f := newFixture(t)
	referrer := f.register(t, "lina", "")
	f.activate(t, referrer, "TXN-lina")
	token, _, err := f.signer.Sign(f.activeCode(t, referrer), referrer)
	require.NoError(t, err)

	out, err := f.referrals.RegisterUser(context.Background(), &referraldto.RegisterUserInput{
		UserID:        uuid.NewString(),
		Email:         "mo@example.org",
		FullName:      "Mo",
		ReferralToken: token,
	})
	require.NoError(t, err)
	assert.Equal(t, referrer, out.ReferrerID)
}

func TestRegisterIgnoresStaleLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer := f.register(t, "nadia", "")
	f.activate(t, referrer, "TXN-1")
	stale := f.activeCode(t, referrer)
	f.activate(t, referrer, "TXN-2")

	tests := []struct {
		name  string
		email string
		code  string
	}{
		{"superseded batch", "omar@example.org", stale},
		{"unknown code", "pat@example.org", "no-such-code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.referrals.RegisterUser(ctx, &referraldto.RegisterUserInput{
				UserID:       uuid.NewString(),
				Email:        tt.email,
				FullName:     "Newcomer",
				ReferralCode: tt.code,
			})
			require.NoError(t, err)
			assert.True(t, out.Created)
			assert.Empty(t, out.ReferrerID)
			assert.Equal(t, tt.code, out.RejectedCode)

			user, err := f.store.Repos().Users.GetUserByEmail(ctx, tt.email)
			require.NoError(t, err)
			_, err = f.store.Repos().Referrals.GetReferralByReferredID(ctx, user.ID)
			assert.ErrorIs(t, err, domain.ErrReferralNotFound)
		})
	}
}

func TestRegisterWithStaleLinkStillClaimsInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer := f.register(t, "ravi", "")
	f.activate(t, referrer, "TXN-1")
	stale := f.activeCode(t, referrer)
	f.activate(t, referrer, "TXN-2")

	invite, err := f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: referrer, ReferredEmail: "sam@example.org"})
	require.NoError(t, err)

	out, err := f.referrals.RegisterUser(ctx, &referraldto.RegisterUserInput{
		UserID:       uuid.NewString(),
		Email:        "sam@example.org",
		FullName:     "Sam",
		ReferralCode: stale,
	})
	require.NoError(t, err)
	assert.Equal(t, invite.ReferralID, out.ReferralID)
	assert.Equal(t, referrer, out.ReferrerID)
	assert.Equal(t, stale, out.RejectedCode)
}

func TestRegisterClaimsPendingInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer := f.register(t, "paula", "")

	invite, err := f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: referrer, ReferredEmail: "quinn@example.org"})
	require.NoError(t, err)

	out, err := f.referrals.RegisterUser(ctx, &referraldto.RegisterUserInput{
		UserID:   uuid.NewString(),
		Email:    "Quinn@example.org",
		FullName: "Quinn",
	})
	require.NoError(t, err)
	assert.Equal(t, invite.ReferralID, out.ReferralID)
	assert.Equal(t, referrer, out.ReferrerID)
	assert.Equal(t, 1, f.user(t, referrer).TotalReferrals)
}

func TestInviteByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer := f.register(t, "rose", "")
	f.activate(t, referrer, "TXN-rose")

	first, err := f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: referrer, ReferredEmail: "sam@example.org"})
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Contains(t, first.ShareURL, "https://brickfoundation.org/join?ref=")

	second, err := f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: referrer, ReferredEmail: "SAM@example.org"})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.ReferralID, second.ReferralID)

	require.Len(t, f.events.invitations, 1)
	assert.Equal(t, "sam@example.org", f.events.invitations[0].ReferredEmail)
	assert.Equal(t, "rose", f.events.invitations[0].ReferrerName)

	_, err = f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: referrer, ReferredEmail: "rose@example.org"})
	assert.ErrorIs(t, err, domain.ErrSelfReferral)

	_, err = f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: referrer, ReferredEmail: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInviteRejectsReferredAndActivatedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "tomas", "")
	f.activate(t, a, "TXN-a")
	f.register(t, "uma", f.activeCode(t, a))
	c := f.register(t, "vera", "")

	_, err := f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: c, ReferredEmail: "uma@example.org"})
	assert.ErrorIs(t, err, domain.ErrAlreadyReferred)

	_, err = f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: c, ReferredEmail: "tomas@example.org"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReverseReferralIsRejectedAsCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "wale", "")
	b := f.register(t, "xena", "")

	_, err := f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: a, ReferredEmail: "xena@example.org"})
	require.NoError(t, err)

	_, err = f.referrals.InviteByEmail(ctx, &referraldto.InviteInput{ReferrerID: b, ReferredEmail: "wale@example.org"})
	assert.ErrorIs(t, err, domain.ErrReferralCycle)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.Equal(t, 0, f.user(t, b).TotalReferrals)
}

func TestActivationConfirmsReferralAndCreditsSignup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "yusuf", "")
	f.activate(t, a, "TXN-a")
	b := f.register(t, "zara", f.activeCode(t, a))

	f.activate(t, b, "TXN-b")

	ref, err := f.store.Repos().Referrals.GetReferralByReferredID(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralActive, ref.Status)
	require.NotNil(t, ref.CompletedAt)
	assert.True(t, ref.TotalRewards.Equal(decimal.NewFromInt(10)))

	u := f.user(t, a)
	assert.Equal(t, 1, u.ConfirmedReferrals)
	assert.True(t, u.TotalRewards.Equal(decimal.NewFromInt(10)))

	rewards, err := f.store.Repos().Rewards.ListRewardsByUser(ctx, a)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, domain.SignupEventKey(ref.ID), rewards[0].EventKey)
	assert.Equal(t, domain.RewardPending, rewards[0].Status)

	// A second qualifying payment by the referred user confirms nothing new.
	f.activate(t, b, "TXN-b2")
	assert.Equal(t, 1, f.user(t, a).ConfirmedReferrals)
}

func TestTierUpgradeCreditsMilestoneOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "abel", "")
	f.activate(t, a, "TXN-a")
	code := f.activeCode(t, a)
	b := f.register(t, "bola", code)
	c := f.register(t, "cyd", code)

	f.activate(t, b, "TXN-b")
	f.activate(t, c, "TXN-c")

	u := f.user(t, a)
	assert.Equal(t, "builder", u.TierID)
	assert.Equal(t, 2, u.TierLevel)
	// 10 at Starter, 15 at Builder, 75 Builder milestone.
	assert.True(t, u.TotalRewards.Equal(decimal.NewFromInt(100)), u.TotalRewards.String())

	notes, err := f.store.Repos().Notifications.ListNotifications(ctx, a, false)
	require.NoError(t, err)
	tierUps := 0
	for _, n := range notes {
		if n.Kind == domain.NotifyTierUp {
			tierUps++
		}
	}
	assert.Equal(t, 1, tierUps)

	// Replaying the confirmation inside a fresh transaction is a no-op.
	err = f.store.InTransaction(ctx, func(repos domain.Repositories) error {
		_, err := f.referrals.ConfirmReferral(ctx, repos, c)
		return err
	})
	require.NoError(t, err)
	assert.True(t, f.user(t, a).TotalRewards.Equal(decimal.NewFromInt(100)))
}

func TestRecordActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "dede", "")
	f.activate(t, a, "TXN-a")
	b := f.register(t, "ebo", f.activeCode(t, a))

	pending, err := f.referrals.RecordActivity(ctx, &referraldto.ActivityInput{UserID: b, ActivityID: "act-1"})
	require.NoError(t, err)
	assert.False(t, pending.Credited)

	f.activate(t, b, "TXN-b")
	first, err := f.referrals.RecordActivity(ctx, &referraldto.ActivityInput{UserID: b, ActivityID: "act-1"})
	require.NoError(t, err)
	assert.True(t, first.Credited)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, a, first.ReferrerID)

	again, err := f.referrals.RecordActivity(ctx, &referraldto.ActivityInput{UserID: b, ActivityID: "act-1"})
	require.NoError(t, err)
	assert.False(t, again.Credited)

	orphan, err := f.referrals.RecordActivity(ctx, &referraldto.ActivityInput{UserID: a, ActivityID: "act-9"})
	require.NoError(t, err)
	assert.False(t, orphan.Credited)
}

func TestExpirePendingReferrals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "femi", "")
	f.activate(t, a, "TXN-a")
	b := f.register(t, "gina", f.activeCode(t, a))

	n, err := f.referrals.ExpirePendingReferrals(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.referrals.ExpirePendingReferrals(ctx, time.Now().Add(f.policy.PendingTTL+time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ref, err := f.store.Repos().Referrals.GetReferralByReferredID(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferralExpired, ref.Status)

	f.activate(t, b, "TXN-b")
	assert.Equal(t, 0, f.user(t, a).ConfirmedReferrals)
}
