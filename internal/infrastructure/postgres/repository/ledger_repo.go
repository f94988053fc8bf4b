package repository

import (
	"context"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/mappers"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultTierRepository struct {
	DB *gorm.DB
}

func NewDefaultTierRepository(db *gorm.DB) *DefaultTierRepository {
	return &DefaultTierRepository{DB: db}
}

func (r *DefaultTierRepository) ListTiers(ctx context.Context) ([]domain.ReferralTier, error) {
	var rows []models.ReferralTierModel
	if err := r.DB.WithContext(ctx).Order("level ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	tiers := make([]domain.ReferralTier, len(rows))
	for i := range rows {
		tiers[i] = mappers.ToDomainTier(&rows[i])
	}
	return tiers, nil
}

type DefaultRewardRepository struct {
	DB *gorm.DB
}

func NewDefaultRewardRepository(db *gorm.DB) *DefaultRewardRepository {
	return &DefaultRewardRepository{DB: db}
}

func (r *DefaultRewardRepository) CreateRewardIfAbsent(ctx context.Context, reward *domain.ReferralReward) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_key"}}, DoNothing: true}).
		Create(mappers.ToGORMReward(reward))
	if res.Error != nil {
		return false, translate(res.Error, nil, nil)
	}
	return res.RowsAffected == 1, nil
}

func (r *DefaultRewardRepository) GetRewardByID(ctx context.Context, rewardID string) (*domain.ReferralReward, error) {
	var m models.ReferralRewardModel
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", rewardID).Error; err != nil {
		return nil, translate(err, domain.ErrRewardNotFound, nil)
	}
	return mappers.ToDomainReward(&m), nil
}

func (r *DefaultRewardRepository) LockReward(ctx context.Context, rewardID string) (*domain.ReferralReward, error) {
	var m models.ReferralRewardModel
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", rewardID).Error
	if err != nil {
		return nil, translate(err, domain.ErrRewardNotFound, nil)
	}
	return mappers.ToDomainReward(&m), nil
}

// SaveRewardStatus never touches a paid row.
func (r *DefaultRewardRepository) SaveRewardStatus(ctx context.Context, reward *domain.ReferralReward) error {
	res := r.DB.WithContext(ctx).Model(&models.ReferralRewardModel{}).
		Where("id = ? AND status <> ?", reward.ID, string(domain.RewardPaid)).
		Updates(map[string]any{
			"status":       string(reward.Status),
			"processed_at": reward.ProcessedAt,
			"paid_at":      reward.PaidAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetRewardByID(ctx, reward.ID); err != nil {
			return err
		}
		return domain.ErrRewardImmutable
	}
	return nil
}

func (r *DefaultRewardRepository) ListRewardsByUser(ctx context.Context, userID string) ([]*domain.ReferralReward, error) {
	var rows []models.ReferralRewardModel
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ReferralReward, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainReward(&rows[i])
	}
	return out, nil
}

func (r *DefaultRewardRepository) SumRewardsByStatus(ctx context.Context, userID string) (map[domain.RewardStatus]decimal.Decimal, error) {
	var rows []models.RewardSumRow
	err := r.DB.WithContext(ctx).Model(&models.ReferralRewardModel{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[domain.RewardStatus]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[domain.RewardStatus(row.Status)] = row.Total
	}
	return sums, nil
}

type DefaultPaymentRepository struct {
	DB *gorm.DB
}

func NewDefaultPaymentRepository(db *gorm.DB) *DefaultPaymentRepository {
	return &DefaultPaymentRepository{DB: db}
}

func (r *DefaultPaymentRepository) CreatePaymentIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "provider_transaction_id"}}, DoNothing: true}).
		Create(mappers.ToGORMPayment(payment))
	if res.Error != nil {
		return false, translate(res.Error, nil, nil)
	}
	return res.RowsAffected == 1, nil
}

func (r *DefaultPaymentRepository) GetPaymentByProviderTxID(ctx context.Context, providerTxID string) (*domain.Payment, error) {
	var m models.PaymentModel
	if err := r.DB.WithContext(ctx).First(&m, "provider_transaction_id = ?", providerTxID).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound, nil)
	}
	return mappers.ToDomainPayment(&m), nil
}

type DefaultNotificationRepository struct {
	DB *gorm.DB
}

func NewDefaultNotificationRepository(db *gorm.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{DB: db}
}

func (r *DefaultNotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	return r.DB.WithContext(ctx).Create(mappers.ToGORMNotification(n)).Error
}

func (r *DefaultNotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = FALSE")
	}

	var rows []models.NotificationModel
	if err := q.Order("created_at DESC").Limit(100).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainNotification(&rows[i])
	}
	return out, nil
}

func (r *DefaultNotificationRepository) MarkNotificationRead(ctx context.Context, notificationID string) error {
	res := r.DB.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ?", notificationID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
