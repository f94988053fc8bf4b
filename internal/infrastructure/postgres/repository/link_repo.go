package repository

import (
	"context"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/mappers"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultReferralLinkRepository struct {
	DB *gorm.DB
}

func NewDefaultReferralLinkRepository(db *gorm.DB) *DefaultReferralLinkRepository {
	return &DefaultReferralLinkRepository{DB: db}
}

func (r *DefaultReferralLinkRepository) CreateLinks(ctx context.Context, links []*domain.ReferralLink) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]*models.ReferralLinkModel, len(links))
	for i, l := range links {
		rows[i] = mappers.ToGORMLink(l)
	}
	return translate(r.DB.WithContext(ctx).Create(rows).Error, nil, domain.ErrConflict)
}

func (r *DefaultReferralLinkRepository) DeactivateUserLinks(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.ReferralLinkModel{}).
		Where("user_id = ? AND status = ?", userID, string(domain.LinkActive)).
		Updates(map[string]any{"status": string(domain.LinkInactive), "deactivated_at": at})
	return res.RowsAffected, res.Error
}

func (r *DefaultReferralLinkRepository) GetLinkByCode(ctx context.Context, code string) (*domain.ReferralLink, error) {
	var m models.ReferralLinkModel
	if err := r.DB.WithContext(ctx).First(&m, "code = ?", code).Error; err != nil {
		return nil, translate(err, domain.ErrLinkNotFound, nil)
	}
	return mappers.ToDomainLink(&m), nil
}

func (r *DefaultReferralLinkRepository) ListLinksByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.ReferralLink, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("status = ?", string(domain.LinkActive))
	}

	var rows []models.ReferralLinkModel
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.ReferralLink, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainLink(&rows[i])
	}
	return out, nil
}

func (r *DefaultReferralLinkRepository) DeactivateExpiredLinks(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.ReferralLinkModel{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", string(domain.LinkActive), now).
		Updates(map[string]any{"status": string(domain.LinkInactive), "deactivated_at": now})
	return res.RowsAffected, res.Error
}
