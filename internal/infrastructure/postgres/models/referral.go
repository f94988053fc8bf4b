package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralModel struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	ReferrerID    string          `gorm:"type:uuid;not null;index"`
	ReferredID    *string         `gorm:"type:uuid"`
	ReferredEmail string          `gorm:"not null"`
	LinkID        *string         `gorm:"type:uuid"`
	Source        string          `gorm:"not null"`
	Status        string          `gorm:"not null"`
	TotalRewards  decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

func (ReferralModel) TableName() string { return "referrals" }

// TreeEdgeRow is one row of the recursive subtree query.
type TreeEdgeRow struct {
	ReferrerID string
	ID         string
	FullName   string
	AvatarURL  string
	TierLevel  int
	CreatedAt  time.Time
	Depth      int
}

type StatusCountRow struct {
	Status string
	Count  int
}

type ReferralLinkModel struct {
	ID            string  `gorm:"primaryKey;type:uuid"`
	UserID        string  `gorm:"type:uuid;not null"`
	Code          string  `gorm:"uniqueIndex;not null"`
	Status        string  `gorm:"not null"`
	BatchID       string  `gorm:"type:uuid;not null"`
	PaymentID     *string `gorm:"type:uuid"`
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

func (ReferralLinkModel) TableName() string { return "referral_links" }
