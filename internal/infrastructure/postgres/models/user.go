package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserModel struct {
	ID                 string `gorm:"primaryKey;type:uuid"`
	Email              string `gorm:"uniqueIndex;not null"`
	FullName           string `gorm:"not null"`
	AvatarURL          string `gorm:"not null"`
	Role               string `gorm:"not null"`
	Status             string `gorm:"not null"`
	PaymentStatus      string `gorm:"not null"`
	ActivatedAt        *time.Time
	TierID             *string
	TierLevel          int             `gorm:"not null"`
	ConfirmedReferrals int             `gorm:"not null"`
	TotalReferrals     int             `gorm:"not null"`
	TotalRewards       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (UserModel) TableName() string { return "users" }
