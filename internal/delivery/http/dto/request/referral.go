package request

import "github.com/shopspring/decimal"

type RegisterUserRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	Email         string `json:"email" binding:"required"`
	FullName      string `json:"full_name" binding:"required"`
	AvatarURL     string `json:"avatar_url"`
	ReferralCode  string `json:"referral_code"`
	ReferralToken string `json:"referral_token"`
}

type InviteRequest struct {
	ReferrerID    string `json:"referrer_id" binding:"required"`
	ReferredEmail string `json:"referred_email" binding:"required"`
}

type ActivityRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	ActivityID string `json:"activity_id" binding:"required"`
}

// PaymentWebhookRequest is the body the payment provider posts after a
// successful charge.
type PaymentWebhookRequest struct {
	UserID                string          `json:"user_id" binding:"required"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency" binding:"required"`
	ProviderTransactionID string          `json:"provider_transaction_id" binding:"required"`
	Provider              string          `json:"provider"`
}
