package memory

import (
	"context"
	"sort"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

func (r *repo) ListTiers(ctx context.Context) ([]domain.ReferralTier, error) {
	st, done := r.read()
	defer done()

	tiers := append([]domain.ReferralTier(nil), st.tiers...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Level < tiers[j].Level })
	return tiers, nil
}

func (r *repo) CreateRewardIfAbsent(ctx context.Context, reward *domain.ReferralReward) (bool, error) {
	st, done := r.write()
	defer done()

	if _, dup := st.rewardKeys[reward.EventKey]; dup {
		return false, nil
	}
	st.rewards[reward.ID] = *reward
	st.rewardKeys[reward.EventKey] = reward.ID
	st.rewardOrder = append(st.rewardOrder, reward.ID)
	return true, nil
}

func (r *repo) GetRewardByID(ctx context.Context, rewardID string) (*domain.ReferralReward, error) {
	st, done := r.read()
	defer done()

	rw, ok := st.rewards[rewardID]
	if !ok {
		return nil, domain.ErrRewardNotFound
	}
	return &rw, nil
}

func (r *repo) LockReward(ctx context.Context, rewardID string) (*domain.ReferralReward, error) {
	return r.GetRewardByID(ctx, rewardID)
}

func (r *repo) SaveRewardStatus(ctx context.Context, reward *domain.ReferralReward) error {
	st, done := r.write()
	defer done()

	current, ok := st.rewards[reward.ID]
	if !ok {
		return domain.ErrRewardNotFound
	}
	if current.Status == domain.RewardPaid {
		return domain.ErrRewardImmutable
	}
	current.Status = reward.Status
	current.ProcessedAt = reward.ProcessedAt
	current.PaidAt = reward.PaidAt
	st.rewards[reward.ID] = current
	return nil
}

func (r *repo) ListRewardsByUser(ctx context.Context, userID string) ([]*domain.ReferralReward, error) {
	st, done := r.read()
	defer done()

	var out []*domain.ReferralReward
	for i := len(st.rewardOrder) - 1; i >= 0; i-- {
		rw := st.rewards[st.rewardOrder[i]]
		if rw.UserID == userID {
			out = append(out, &rw)
		}
	}
	return out, nil
}

func (r *repo) SumRewardsByStatus(ctx context.Context, userID string) (map[domain.RewardStatus]decimal.Decimal, error) {
	st, done := r.read()
	defer done()

	sums := map[domain.RewardStatus]decimal.Decimal{}
	for _, rw := range st.rewards {
		if rw.UserID == userID {
			sums[rw.Status] = sums[rw.Status].Add(rw.Amount)
		}
	}
	return sums, nil
}

func (r *repo) CreatePaymentIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	st, done := r.write()
	defer done()

	if _, dup := st.payments[payment.ProviderTransactionID]; dup {
		return false, nil
	}
	st.payments[payment.ProviderTransactionID] = *payment
	return true, nil
}

func (r *repo) GetPaymentByProviderTxID(ctx context.Context, providerTxID string) (*domain.Payment, error) {
	st, done := r.read()
	defer done()

	p, ok := st.payments[providerTxID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *repo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	st, done := r.write()
	defer done()

	st.notifications[n.ID] = *n
	st.notifyOrder = append(st.notifyOrder, n.ID)
	return nil
}

func (r *repo) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	st, done := r.read()
	defer done()

	var out []*domain.Notification
	for i := len(st.notifyOrder) - 1; i >= 0; i-- {
		n := st.notifications[st.notifyOrder[i]]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, &n)
	}
	return out, nil
}

func (r *repo) MarkNotificationRead(ctx context.Context, notificationID string) error {
	st, done := r.write()
	defer done()

	n, ok := st.notifications[notificationID]
	if !ok {
		return domain.ErrNotificationNotFound
	}
	n.Read = true
	st.notifications[notificationID] = n
	return nil
}
