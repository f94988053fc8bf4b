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
)

// graphLockKey is the advisory lock taken before inserting referral edges.
const graphLockKey = 7_140_221

const ancestorQuery = `
WITH RECURSIVE chain(user_id) AS (
	SELECT referrer_id FROM referrals WHERE referred_id = ?
	UNION
	SELECT r.referrer_id FROM referrals r JOIN chain c ON r.referred_id = c.user_id
)
SELECT EXISTS (SELECT 1 FROM chain WHERE user_id = ?)`

const subtreeQuery = `
WITH RECURSIVE tree AS (
	SELECT r.referrer_id, r.referred_id, 1 AS depth
	FROM referrals r
	WHERE r.referrer_id = ? AND r.status = 'active' AND r.referred_id IS NOT NULL
	UNION ALL
	SELECT r.referrer_id, r.referred_id, t.depth + 1
	FROM referrals r
	JOIN tree t ON r.referrer_id = t.referred_id
	WHERE r.status = 'active' AND t.depth < ?
)
SELECT t.referrer_id, u.id, u.full_name, u.avatar_url, u.tier_level, u.created_at, t.depth
FROM tree t
JOIN users u ON u.id = t.referred_id
ORDER BY t.depth, u.created_at`

type DefaultReferralRepository struct {
	DB *gorm.DB
}

func NewDefaultReferralRepository(db *gorm.DB) *DefaultReferralRepository {
	return &DefaultReferralRepository{DB: db}
}

func (r *DefaultReferralRepository) LockGraph(ctx context.Context) error {
	return r.DB.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", graphLockKey).Error
}

func (r *DefaultReferralRepository) IsAncestor(ctx context.Context, candidateID, userID string) (bool, error) {
	var exists bool
	if err := r.DB.WithContext(ctx).Raw(ancestorQuery, userID, candidateID).Scan(&exists).Error; err != nil {
		return false, fmt.Errorf("failed to walk referrer chain: %w", err)
	}
	return exists, nil
}

func (r *DefaultReferralRepository) CreateReferral(ctx context.Context, referral *domain.Referral) error {
	err := r.DB.WithContext(ctx).Create(mappers.ToGORMReferral(referral)).Error
	return translate(err, nil, domain.ErrAlreadyReferred)
}

func (r *DefaultReferralRepository) GetReferralByReferredID(ctx context.Context, referredID string) (*domain.Referral, error) {
	var m models.ReferralModel
	if err := r.DB.WithContext(ctx).First(&m, "referred_id = ?", referredID).Error; err != nil {
		return nil, translate(err, domain.ErrReferralNotFound, nil)
	}
	return mappers.ToDomainReferral(&m), nil
}

func (r *DefaultReferralRepository) FindPendingInvite(ctx context.Context, referrerID, email string) (*domain.Referral, error) {
	q := r.DB.WithContext(ctx).
		Where("source = ? AND status = ? AND referred_id IS NULL AND referred_email = ?",
			string(domain.SourceInvite), string(domain.ReferralPending), email)
	if referrerID != "" {
		q = q.Where("referrer_id = ?", referrerID)
	}

	var m models.ReferralModel
	if err := q.Order("created_at ASC").First(&m).Error; err != nil {
		return nil, translate(err, domain.ErrReferralNotFound, nil)
	}
	return mappers.ToDomainReferral(&m), nil
}

func (r *DefaultReferralRepository) AttachReferred(ctx context.Context, referralID, referredID string) error {
	res := r.DB.WithContext(ctx).Model(&models.ReferralModel{}).
		Where("id = ?", referralID).
		Update("referred_id", referredID)
	if res.Error != nil {
		return translate(res.Error, nil, domain.ErrAlreadyReferred)
	}
	if res.RowsAffected == 0 {
		return domain.ErrReferralNotFound
	}
	return nil
}

func (r *DefaultReferralRepository) UpdateReferralStatus(ctx context.Context, referralID string, status domain.ReferralStatus, completedAt *time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.ReferralModel{}).
		Where("id = ?", referralID).
		Updates(map[string]any{"status": string(status), "completed_at": completedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReferralNotFound
	}
	return nil
}

func (r *DefaultReferralRepository) AddReferralRewards(ctx context.Context, referralID string, amount decimal.Decimal) error {
	res := r.DB.WithContext(ctx).Model(&models.ReferralModel{}).
		Where("id = ?", referralID).
		Update("total_rewards", gorm.Expr("total_rewards + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReferralNotFound
	}
	return nil
}

func (r *DefaultReferralRepository) ListReferralsByReferrer(ctx context.Context, referrerID string) ([]*domain.Referral, error) {
	var rows []models.ReferralModel
	err := r.DB.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Referral, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainReferral(&rows[i])
	}
	return out, nil
}

func (r *DefaultReferralRepository) CountReferralsByStatus(ctx context.Context, referrerID string) (map[domain.ReferralStatus]int, error) {
	var rows []models.StatusCountRow
	err := r.DB.WithContext(ctx).Model(&models.ReferralModel{}).
		Select("status, COUNT(*) AS count").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.ReferralStatus]int, len(rows))
	for _, row := range rows {
		counts[domain.ReferralStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *DefaultReferralRepository) Subtree(ctx context.Context, rootID string, maxDepth int) ([]domain.TreeEdge, error) {
	var rows []models.TreeEdgeRow
	if err := r.DB.WithContext(ctx).Raw(subtreeQuery, rootID, maxDepth).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load referral subtree: %w", err)
	}

	edges := make([]domain.TreeEdge, len(rows))
	for i := range rows {
		edges[i] = mappers.ToDomainTreeEdge(&rows[i])
	}
	return edges, nil
}

func (r *DefaultReferralRepository) ExpirePendingReferrals(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.ReferralModel{}).
		Where("status = ? AND created_at < ?", string(domain.ReferralPending), createdBefore).
		Update("status", string(domain.ReferralExpired))
	return res.RowsAffected, res.Error
}
