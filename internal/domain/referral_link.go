package domain

import (
	"context"
	"time"
)

type LinkStatus string

const (
	LinkActive   LinkStatus = "active"
	LinkInactive LinkStatus = "inactive"
)

type ReferralLink struct {
	ID            string
	UserID        string
	Code          string
	Status        LinkStatus
	BatchID       string
	PaymentID     string
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

func (l *ReferralLink) IsUsable(now time.Time) bool {
	if l.Status != LinkActive {
		return false
	}
	return l.ExpiresAt == nil || now.Before(*l.ExpiresAt)
}

type ReferralLinkRepository interface {
	CreateLinks(ctx context.Context, links []*ReferralLink) error
	DeactivateUserLinks(ctx context.Context, userID string, at time.Time) (int64, error)
	GetLinkByCode(ctx context.Context, code string) (*ReferralLink, error)
	ListLinksByUser(ctx context.Context, userID string, activeOnly bool) ([]*ReferralLink, error)
	DeactivateExpiredLinks(ctx context.Context, now time.Time) (int64, error)
}
