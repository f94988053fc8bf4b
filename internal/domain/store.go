package domain

import "context"

// Repositories groups the store's repositories. Inside InTransaction every
// repository is bound to the same transaction.
type Repositories struct {
	Users         UserRepository
	Referrals     ReferralRepository
	Links         ReferralLinkRepository
	Tiers         TierRepository
	Rewards       RewardRepository
	Payments      PaymentRepository
	Notifications NotificationRepository
}

type Store interface {
	Repos() Repositories
	// InTransaction commits when fn returns nil and rolls back otherwise.
	InTransaction(ctx context.Context, fn func(repos Repositories) error) error
}
