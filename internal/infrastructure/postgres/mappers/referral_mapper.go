package mappers

import (
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres/models"
)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ToGORMUser(u *domain.User) *models.UserModel {
	return &models.UserModel{
		ID:                 u.ID,
		Email:              u.Email,
		FullName:           u.FullName,
		AvatarURL:          u.AvatarURL,
		Role:               string(u.Role),
		Status:             string(u.Status),
		PaymentStatus:      string(u.PaymentState),
		ActivatedAt:        u.ActivatedAt,
		TierID:             nullable(u.TierID),
		TierLevel:          u.TierLevel,
		ConfirmedReferrals: u.ConfirmedReferrals,
		TotalReferrals:     u.TotalReferrals,
		TotalRewards:       u.TotalRewards,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func ToDomainUser(m *models.UserModel) *domain.User {
	return &domain.User{
		ID:                 m.ID,
		Email:              m.Email,
		FullName:           m.FullName,
		AvatarURL:          m.AvatarURL,
		Role:               domain.UserRole(m.Role),
		Status:             domain.UserStatus(m.Status),
		PaymentState:       domain.PaymentState(m.PaymentStatus),
		ActivatedAt:        m.ActivatedAt,
		TierID:             deref(m.TierID),
		TierLevel:          m.TierLevel,
		ConfirmedReferrals: m.ConfirmedReferrals,
		TotalReferrals:     m.TotalReferrals,
		TotalRewards:       m.TotalRewards,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func ToGORMReferral(r *domain.Referral) *models.ReferralModel {
	return &models.ReferralModel{
		ID:            r.ID,
		ReferrerID:    r.ReferrerID,
		ReferredID:    nullable(r.ReferredID),
		ReferredEmail: r.ReferredEmail,
		LinkID:        nullable(r.LinkID),
		Source:        string(r.Source),
		Status:        string(r.Status),
		TotalRewards:  r.TotalRewards,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}
}

func ToDomainReferral(m *models.ReferralModel) *domain.Referral {
	return &domain.Referral{
		ID:            m.ID,
		ReferrerID:    m.ReferrerID,
		ReferredID:    deref(m.ReferredID),
		ReferredEmail: m.ReferredEmail,
		LinkID:        deref(m.LinkID),
		Source:        domain.ReferralSource(m.Source),
		Status:        domain.ReferralStatus(m.Status),
		TotalRewards:  m.TotalRewards,
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
	}
}

func ToDomainTreeEdge(row *models.TreeEdgeRow) domain.TreeEdge {
	return domain.TreeEdge{
		ReferrerID: row.ReferrerID,
		Referred: domain.UserProfile{
			ID:        row.ID,
			FullName:  row.FullName,
			AvatarURL: row.AvatarURL,
			TierLevel: row.TierLevel,
			JoinedAt:  row.CreatedAt,
		},
		Depth: row.Depth,
	}
}

func ToGORMLink(l *domain.ReferralLink) *models.ReferralLinkModel {
	return &models.ReferralLinkModel{
		ID:            l.ID,
		UserID:        l.UserID,
		Code:          l.Code,
		Status:        string(l.Status),
		BatchID:       l.BatchID,
		PaymentID:     nullable(l.PaymentID),
		ExpiresAt:     l.ExpiresAt,
		CreatedAt:     l.CreatedAt,
		DeactivatedAt: l.DeactivatedAt,
	}
}

func ToDomainLink(m *models.ReferralLinkModel) *domain.ReferralLink {
	return &domain.ReferralLink{
		ID:            m.ID,
		UserID:        m.UserID,
		Code:          m.Code,
		Status:        domain.LinkStatus(m.Status),
		BatchID:       m.BatchID,
		PaymentID:     deref(m.PaymentID),
		ExpiresAt:     m.ExpiresAt,
		CreatedAt:     m.CreatedAt,
		DeactivatedAt: m.DeactivatedAt,
	}
}
