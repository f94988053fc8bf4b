package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralTierModel struct {
	ID               string          `gorm:"primaryKey"`
	Name             string          `gorm:"not null"`
	Level            int             `gorm:"uniqueIndex;not null"`
	MinReferrals     int             `gorm:"uniqueIndex;not null"`
	RewardMultiplier decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Benefits         []string        `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time
}

func (ReferralTierModel) TableName() string { return "referral_tiers" }

type ReferralRewardModel struct {
	ID          string  `gorm:"primaryKey;type:uuid"`
	UserID      string  `gorm:"type:uuid;not null;index"`
	ReferralID  *string `gorm:"type:uuid"`
	TierID      *string
	EventKey    string          `gorm:"uniqueIndex;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Type        string          `gorm:"not null"`
	Status      string          `gorm:"not null"`
	CreatedAt   time.Time
	ProcessedAt *time.Time
	PaidAt      *time.Time
}

func (ReferralRewardModel) TableName() string { return "referral_rewards" }

type RewardSumRow struct {
	Status string
	Total  decimal.Decimal
}

type PaymentModel struct {
	ID                    string          `gorm:"primaryKey;type:uuid"`
	UserID                string          `gorm:"type:uuid;not null"`
	Provider              string          `gorm:"not null"`
	ProviderTransactionID string          `gorm:"uniqueIndex;not null"`
	Amount                decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency              string          `gorm:"not null"`
	Status                string          `gorm:"not null"`
	Activated             bool            `gorm:"not null"`
	CreatedAt             time.Time
}

func (PaymentModel) TableName() string { return "payments" }

type NotificationModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	UserID    string `gorm:"type:uuid;not null;index"`
	Kind      string `gorm:"not null"`
	Title     string `gorm:"not null"`
	Body      string `gorm:"not null"`
	Read      bool   `gorm:"not null"`
	CreatedAt time.Time
}

func (NotificationModel) TableName() string { return "notifications" }
