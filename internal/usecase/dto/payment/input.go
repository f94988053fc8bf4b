package paymentdto

import "github.com/shopspring/decimal"

type ConfirmPaymentInput struct {
	UserID                string `validate:"required,uuid"`
	Amount                decimal.Decimal
	Currency              string `validate:"required,len=3,alpha"`
	ProviderTransactionID string `validate:"required,max=128"`
	Provider              string `validate:"required,max=64"`
}
