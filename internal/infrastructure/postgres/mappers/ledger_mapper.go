package mappers

import (
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/models"
)

func ToDomainTier(m *models.ReferralTierModel) domain.ReferralTier {
	return domain.ReferralTier{
		ID:               m.ID,
		Name:             m.Name,
		Level:            m.Level,
		MinReferrals:     m.MinReferrals,
		RewardMultiplier: m.RewardMultiplier,
		Benefits:         m.Benefits,
	}
}

func ToGORMReward(r *domain.ReferralReward) *models.ReferralRewardModel {
	return &models.ReferralRewardModel{
		ID:          r.ID,
		UserID:      r.UserID,
		ReferralID:  nullable(r.ReferralID),
		TierID:      nullable(r.TierID),
		EventKey:    r.EventKey,
		Amount:      r.Amount,
		Type:        string(r.Type),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		ProcessedAt: r.ProcessedAt,
		PaidAt:      r.PaidAt,
	}
}

func ToDomainReward(m *models.ReferralRewardModel) *domain.ReferralReward {
	return &domain.ReferralReward{
		ID:          m.ID,
		UserID:      m.UserID,
		ReferralID:  deref(m.ReferralID),
		TierID:      deref(m.TierID),
		EventKey:    m.EventKey,
		Amount:      m.Amount,
		Type:        domain.RewardType(m.Type),
		Status:      domain.RewardStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
		PaidAt:      m.PaidAt,
	}
}

func ToGORMPayment(p *domain.Payment) *models.PaymentModel {
	return &models.PaymentModel{
		ID:                    p.ID,
		UserID:                p.UserID,
		Provider:              p.Provider,
		ProviderTransactionID: p.ProviderTransactionID,
		Amount:                p.Amount,
		Currency:              p.Currency,
		Status:                string(p.Status),
		Activated:             p.Activated,
		CreatedAt:             p.CreatedAt,
	}
}

func ToDomainPayment(m *models.PaymentModel) *domain.Payment {
	return &domain.Payment{
		ID:                    m.ID,
		UserID:                m.UserID,
		Provider:              m.Provider,
		ProviderTransactionID: m.ProviderTransactionID,
		Amount:                m.Amount,
		Currency:              m.Currency,
		Status:                domain.PaymentStatus(m.Status),
		Activated:             m.Activated,
		CreatedAt:             m.CreatedAt,
	}
}

func ToGORMNotification(n *domain.Notification) *models.NotificationModel {
	return &models.NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func ToDomainNotification(m *models.NotificationModel) *domain.Notification {
	return &domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Kind:      domain.NotificationKind(m.Kind),
		Title:     m.Title,
		Body:      m.Body,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}
