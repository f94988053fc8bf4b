package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const PaymentCompleted PaymentStatus = "completed"

// PaymentConfirmed is delivered by the payment webhook after the provider
// signature has been verified.
type PaymentConfirmed struct {
	UserID                string          `json:"user_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
	Provider              string          `json:"provider"`
}

// Qualifies reports whether the payment pays the activation fee.
func (e PaymentConfirmed) Qualifies(threshold decimal.Decimal, currency string) bool {
	return e.Amount.GreaterThanOrEqual(threshold) && strings.EqualFold(e.Currency, currency)
}

type Payment struct {
	ID                    string
	UserID                string
	Provider              string
	ProviderTransactionID string
	Amount                decimal.Decimal
	Currency              string
	Status                PaymentStatus
	Activated             bool
	CreatedAt             time.Time
}

type PaymentRepository interface {
	// CreatePaymentIfAbsent inserts the payment unless its provider
	// transaction id exists and reports whether a row was written.
	CreatePaymentIfAbsent(ctx context.Context, payment *Payment) (bool, error)
	GetPaymentByProviderTxID(ctx context.Context, providerTxID string) (*Payment, error)
}
