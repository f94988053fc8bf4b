package memory

import (
	"context"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

// LockGraph is a no-op: transactions already run one at a time.
func (r *repo) LockGraph(ctx context.Context) error {
	return nil
}

func (r *repo) IsAncestor(ctx context.Context, candidateID, userID string) (bool, error) {
	st, done := r.read()
	defer done()

	visited := map[string]bool{userID: true}
	current := userID
	for {
		refID, ok := st.referredIdx[current]
		if !ok {
			return false, nil
		}
		parent := st.referrals[refID].ReferrerID
		if parent == candidateID {
			return true, nil
		}
		if visited[parent] {
			return false, nil
		}
		visited[parent] = true
		current = parent
	}
}

func (r *repo) CreateReferral(ctx context.Context, referral *domain.Referral) error {
	st, done := r.write()
	defer done()

	if referral.ReferredID != "" {
		if _, taken := st.referredIdx[referral.ReferredID]; taken {
			return domain.ErrAlreadyReferred
		}
		st.referredIdx[referral.ReferredID] = referral.ID
	}
	st.referrals[referral.ID] = *referral
	st.referralOrder = append(st.referralOrder, referral.ID)
	return nil
}

func (r *repo) GetReferralByReferredID(ctx context.Context, referredID string) (*domain.Referral, error) {
	st, done := r.read()
	defer done()

	id, ok := st.referredIdx[referredID]
	if !ok {
		return nil, domain.ErrReferralNotFound
	}
	ref := st.referrals[id]
	return &ref, nil
}

func (r *repo) FindPendingInvite(ctx context.Context, referrerID, email string) (*domain.Referral, error) {
	st, done := r.read()
	defer done()

	for _, id := range st.referralOrder {
		ref := st.referrals[id]
		if ref.Source != domain.SourceInvite || ref.Status != domain.ReferralPending || ref.ReferredID != "" {
			continue
		}
		if ref.ReferredEmail != email || (referrerID != "" && ref.ReferrerID != referrerID) {
			continue
		}
		return &ref, nil
	}
	return nil, domain.ErrReferralNotFound
}

func (r *repo) AttachReferred(ctx context.Context, referralID, referredID string) error {
	st, done := r.write()
	defer done()

	ref, ok := st.referrals[referralID]
	if !ok {
		return domain.ErrReferralNotFound
	}
	if _, taken := st.referredIdx[referredID]; taken {
		return domain.ErrAlreadyReferred
	}
	ref.ReferredID = referredID
	st.referrals[referralID] = ref
	st.referredIdx[referredID] = referralID
	return nil
}

func (r *repo) UpdateReferralStatus(ctx context.Context, referralID string, status domain.ReferralStatus, completedAt *time.Time) error {
	st, done := r.write()
	defer done()

	ref, ok := st.referrals[referralID]
	if !ok {
		return domain.ErrReferralNotFound
	}
	ref.Status = status
	ref.CompletedAt = completedAt
	st.referrals[referralID] = ref
	return nil
}

func (r *repo) AddReferralRewards(ctx context.Context, referralID string, amount decimal.Decimal) error {
	st, done := r.write()
	defer done()

	ref, ok := st.referrals[referralID]
	if !ok {
		return domain.ErrReferralNotFound
	}
	ref.TotalRewards = ref.TotalRewards.Add(amount)
	st.referrals[referralID] = ref
	return nil
}

func (r *repo) ListReferralsByReferrer(ctx context.Context, referrerID string) ([]*domain.Referral, error) {
	st, done := r.read()
	defer done()

	var out []*domain.Referral
	for i := len(st.referralOrder) - 1; i >= 0; i-- {
		ref := st.referrals[st.referralOrder[i]]
		if ref.ReferrerID == referrerID {
			out = append(out, &ref)
		}
	}
	return out, nil
}

func (r *repo) CountReferralsByStatus(ctx context.Context, referrerID string) (map[domain.ReferralStatus]int, error) {
	st, done := r.read()
	defer done()

	counts := map[domain.ReferralStatus]int{}
	for _, ref := range st.referrals {
		if ref.ReferrerID == referrerID {
			counts[ref.Status]++
		}
	}
	return counts, nil
}

func (r *repo) Subtree(ctx context.Context, rootID string, maxDepth int) ([]domain.TreeEdge, error) {
	st, done := r.read()
	defer done()

	children := map[string][]domain.Referral{}
	for _, id := range st.referralOrder {
		ref := st.referrals[id]
		if ref.Status == domain.ReferralActive && ref.ReferredID != "" {
			children[ref.ReferrerID] = append(children[ref.ReferrerID], ref)
		}
	}

	var edges []domain.TreeEdge
	seen := map[string]bool{rootID: true}
	frontier := []string{rootID}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, parent := range frontier {
			for _, ref := range children[parent] {
				if seen[ref.ReferredID] {
					continue
				}
				u, ok := st.users[ref.ReferredID]
				if !ok {
					continue
				}
				seen[ref.ReferredID] = true
				edges = append(edges, domain.TreeEdge{ReferrerID: parent, Referred: u.Profile(), Depth: depth})
				next = append(next, ref.ReferredID)
			}
		}
		frontier = next
	}
	return edges, nil
}

func (r *repo) ExpirePendingReferrals(ctx context.Context, createdBefore time.Time) (int64, error) {
	st, done := r.write()
	defer done()

	var n int64
	for id, ref := range st.referrals {
		if ref.Status == domain.ReferralPending && ref.CreatedAt.Before(createdBefore) {
			ref.Status = domain.ReferralExpired
			st.referrals[id] = ref
			n++
		}
	}
	return n, nil
}
