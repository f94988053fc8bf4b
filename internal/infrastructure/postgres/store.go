package postgres

import (
	"context"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/repository"
	"gorm.io/gorm"
)

// Store binds the gorm repositories to either the pool or a transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repos() domain.Repositories {
	return repositories(s.db)
}

func (s *Store) InTransaction(ctx context.Context, fn func(repos domain.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repositories(tx))
	})
}

func repositories(db *gorm.DB) domain.Repositories {
	return domain.Repositories{
		Users:         repository.NewDefaultUserRepository(db),
		Referrals:     repository.NewDefaultReferralRepository(db),
		Links:         repository.NewDefaultReferralLinkRepository(db),
		Tiers:         repository.NewDefaultTierRepository(db),
		Rewards:       repository.NewDefaultRewardRepository(db),
		Payments:      repository.NewDefaultPaymentRepository(db),
		Notifications: repository.NewDefaultNotificationRepository(db),
	}
}
