package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

func (r *repo) CreateUser(ctx context.Context, user *domain.User) error {
	st, done := r.write()
	defer done()

	if _, ok := st.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrConflict)
	}
	for _, u := range st.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	st.users[user.ID] = *user
	return nil
}

func (r *repo) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	st, done := r.read()
	defer done()

	u, ok := st.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *repo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	st, done := r.read()
	defer done()

	for _, u := range st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *repo) LockUser(ctx context.Context, userID string) (*domain.User, error) {
	return r.GetUserByID(ctx, userID)
}

func (r *repo) updateUser(userID string, fn func(u *domain.User)) error {
	st, done := r.write()
	defer done()

	u, ok := st.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	st.users[userID] = u
	return nil
}

func (r *repo) IncrementReferralCounters(ctx context.Context, userID string, confirmed, total int) error {
	return r.updateUser(userID, func(u *domain.User) {
		u.ConfirmedReferrals += confirmed
		u.TotalReferrals += total
	})
}

func (r *repo) UpdateUserTier(ctx context.Context, userID, tierID string, level int) error {
	return r.updateUser(userID, func(u *domain.User) {
		u.TierID = tierID
		u.TierLevel = level
	})
}

func (r *repo) AddUserRewards(ctx context.Context, userID string, amount decimal.Decimal) error {
	return r.updateUser(userID, func(u *domain.User) {
		u.TotalRewards = u.TotalRewards.Add(amount)
	})
}

func (r *repo) MarkUserActivated(ctx context.Context, userID string, at time.Time) error {
	return r.updateUser(userID, func(u *domain.User) {
		u.PaymentState = domain.PaymentStatePaid
		if u.ActivatedAt == nil {
			u.ActivatedAt = &at
		}
	})
}

func (r *repo) TopReferrers(ctx context.Context, limit int) ([]*domain.User, error) {
	st, done := r.read()
	defer done()

	users := make([]*domain.User, 0, len(st.users))
	for _, u := range st.users {
		if u.Status != domain.UserStatusActive || u.ConfirmedReferrals == 0 {
			continue
		}
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.ConfirmedReferrals != b.ConfirmedReferrals {
			return a.ConfirmedReferrals > b.ConfirmedReferrals
		}
		if !a.TotalRewards.Equal(b.TotalRewards) {
			return a.TotalRewards.GreaterThan(b.TotalRewards)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
