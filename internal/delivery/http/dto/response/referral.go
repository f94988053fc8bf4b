package response

import (
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterUserResponse struct {
	User       domain.UserProfile `json:"user"`
	ReferralID string             `json:"referral_id,omitempty"`
	ReferrerID string             `json:"referrer_id,omitempty"`
	Created    bool               `json:"created"`
	// RejectedReferralCode echoes a code that could not be applied.
	RejectedReferralCode string `json:"rejected_referral_code,omitempty"`
}

type InviteResponse struct {
	ReferralID string `json:"referral_id"`
	ShareURL   string `json:"share_url,omitempty"`
	Duplicate  bool   `json:"duplicate"`
}

type ActivityResponse struct {
	ReferrerID string          `json:"referrer_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Credited   bool            `json:"credited"`
}

type PaymentResponse struct {
	PaymentID string   `json:"payment_id"`
	Duplicate bool     `json:"duplicate"`
	Activated bool     `json:"activated"`
	LinkCodes []string `json:"link_codes,omitempty"`
}

type LinkResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Status    string     `json:"status"`
	BatchID   string     `json:"batch_id"`
	ShareURL  string     `json:"share_url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type ResolvedLinkResponse struct {
	Code     string             `json:"code"`
	Referrer domain.UserProfile `json:"referrer"`
}

type RewardResponse struct {
	ID          string          `json:"id"`
	ReferralID  string          `json:"referral_id,omitempty"`
	TierID      string          `json:"tier_id,omitempty"`
	EventKey    string          `json:"event_key"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type MaintenanceResponse struct {
	ReferralsExpired int64 `json:"referrals_expired"`
	LinksExpired     int64 `json:"links_expired"`
}

func NewRewardResponse(r *domain.ReferralReward) RewardResponse {
	return RewardResponse{
		ID:          r.ID,
		ReferralID:  r.ReferralID,
		TierID:      r.TierID,
		EventKey:    r.EventKey,
		Amount:      r.Amount,
		Type:        string(r.Type),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		ProcessedAt: r.ProcessedAt,
		PaidAt:      r.PaidAt,
	}
}

func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
