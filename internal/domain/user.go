package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// PaymentState tracks the one-time activation fee.
type PaymentState string

const (
	PaymentStateUnpaid PaymentState = "unpaid"
	PaymentStatePaid   PaymentState = "paid"
)

type User struct {
	ID                 string
	Email              string
	FullName           string
	AvatarURL          string
	Role               UserRole
	Status             UserStatus
	PaymentState       PaymentState
	ActivatedAt        *time.Time
	TierID             string
	TierLevel          int
	ConfirmedReferrals int
	TotalReferrals     int
	TotalRewards       decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u *User) IsActivated() bool {
	return u.PaymentState == PaymentStatePaid
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		TierLevel: u.TierLevel,
		JoinedAt:  u.CreatedAt,
	}
}

// UserProfile is the public subset of a user shown in trees and leaderboards.
type UserProfile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	TierLevel int       `json:"tier_level"`
	JoinedAt  time.Time `json:"joined_at"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// LockUser reads the user row and holds it until the surrounding transaction ends.
	LockUser(ctx context.Context, userID string) (*User, error)
	IncrementReferralCounters(ctx context.Context, userID string, confirmed, total int) error
	UpdateUserTier(ctx context.Context, userID, tierID string, level int) error
	AddUserRewards(ctx context.Context, userID string, amount decimal.Decimal) error
	MarkUserActivated(ctx context.Context, userID string, at time.Time) error
	TopReferrers(ctx context.Context, limit int) ([]*User, error)
}
