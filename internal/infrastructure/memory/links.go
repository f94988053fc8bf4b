package memory

import (
	"context"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
)

func (r *repo) CreateLinks(ctx context.Context, links []*domain.ReferralLink) error {
	st, done := r.write()
	defer done()

	for _, l := range links {
		if _, ok := st.links[l.Code]; ok {
			return domain.ErrConflict
		}
	}
	for _, l := range links {
		st.links[l.Code] = *l
		st.linkOrder = append(st.linkOrder, l.Code)
	}
	return nil
}

func (r *repo) DeactivateUserLinks(ctx context.Context, userID string, at time.Time) (int64, error) {
	st, done := r.write()
	defer done()

	var n int64
	for code, l := range st.links {
		if l.UserID == userID && l.Status == domain.LinkActive {
			l.Status = domain.LinkInactive
			l.DeactivatedAt = &at
			st.links[code] = l
			n++
		}
	}
	return n, nil
}

func (r *repo) GetLinkByCode(ctx context.Context, code string) (*domain.ReferralLink, error) {
	st, done := r.read()
	defer done()

	l, ok := st.links[code]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	return &l, nil
}

func (r *repo) ListLinksByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.ReferralLink, error) {
	st, done := r.read()
	defer done()

	var out []*domain.ReferralLink
	for i := len(st.linkOrder) - 1; i >= 0; i-- {
		l := st.links[st.linkOrder[i]]
		if l.UserID != userID || (activeOnly && l.Status != domain.LinkActive) {
			continue
		}
		out = append(out, &l)
	}
	return out, nil
}

func (r *repo) DeactivateExpiredLinks(ctx context.Context, now time.Time) (int64, error) {
	st, done := r.write()
	defer done()

	var n int64
	for code, l := range st.links {
		if l.Status == domain.LinkActive && l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
			l.Status = domain.LinkInactive
			l.DeactivatedAt = &now
			st.links[code] = l
			n++
		}
	}
	return n, nil
}
