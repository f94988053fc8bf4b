package referraldto

import (
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/shopspring/decimal"
)

type RegisterUserOutput struct {
	User       domain.UserProfile
	ReferralID string
	ReferrerID string
	// Created is false when the user already existed.
	Created bool
	// RejectedCode is the referral code that was ignored because it is
	// unknown or no longer active.
	RejectedCode string
}

type InviteOutput struct {
	ReferralID string
	ShareURL   string
	// Duplicate is true when the same referrer already had a pending invite for the address.
	Duplicate bool
}

type ActivityOutput struct {
	ReferrerID string
	Amount     decimal.Decimal
	Credited   bool
}
