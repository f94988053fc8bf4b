package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/mappers"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultUserRepository struct {
	DB *gorm.DB
}

func NewDefaultUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{DB: db}
}

func (r *DefaultUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	err := r.DB.WithContext(ctx).Create(mappers.ToGORMUser(user)).Error
	return translate(err, nil, domain.ErrEmailTaken)
}

func (r *DefaultUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var m models.UserModel
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", userID).Error; err != nil {
		return nil, translate(err, domain.ErrUserNotFound, nil)
	}
	return mappers.ToDomainUser(&m), nil
}

func (r *DefaultUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m models.UserModel
	if err := r.DB.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		return nil, translate(err, domain.ErrUserNotFound, nil)
	}
	return mappers.ToDomainUser(&m), nil
}

func (r *DefaultUserRepository) LockUser(ctx context.Context, userID string) (*domain.User, error) {
	var m models.UserModel
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", userID).Error
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound, nil)
	}
	return mappers.ToDomainUser(&m), nil
}

func (r *DefaultUserRepository) update(ctx context.Context, userID string, values map[string]any) error {
	values["updated_at"] = time.Now()
	res := r.DB.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", userID).Updates(values)
	if res.Error != nil {
		return translate(res.Error, nil, nil)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *DefaultUserRepository) IncrementReferralCounters(ctx context.Context, userID string, confirmed, total int) error {
	return r.update(ctx, userID, map[string]any{
		"confirmed_referrals": gorm.Expr("confirmed_referrals + ?", confirmed),
		"total_referrals":     gorm.Expr("total_referrals + ?", total),
	})
}

func (r *DefaultUserRepository) UpdateUserTier(ctx context.Context, userID, tierID string, level int) error {
	return r.update(ctx, userID, map[string]any{
		"tier_id":    tierID,
		"tier_level": level,
	})
}

func (r *DefaultUserRepository) AddUserRewards(ctx context.Context, userID string, amount decimal.Decimal) error {
	return r.update(ctx, userID, map[string]any{
		"total_rewards": gorm.Expr("total_rewards + ?", amount),
	})
}

func (r *DefaultUserRepository) MarkUserActivated(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, userID, map[string]any{
		"payment_status": string(domain.PaymentStatePaid),
		"activated_at":   gorm.Expr("COALESCE(activated_at, ?)", at),
	})
}

func (r *DefaultUserRepository) TopReferrers(ctx context.Context, limit int) ([]*domain.User, error) {
	var rows []models.UserModel
	err := r.DB.WithContext(ctx).
		Where("status = ? AND confirmed_referrals > 0", string(domain.UserStatusActive)).
		Order("confirmed_referrals DESC, total_rewards DESC, created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	users := make([]*domain.User, len(rows))
	for i := range rows {
		users[i] = mappers.ToDomainUser(&rows[i])
	}
	return users, nil
}
