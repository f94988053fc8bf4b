package paymentdto

type ConfirmPaymentOutput struct {
	PaymentID string
	Duplicate bool
	Activated bool
	// LinkCodes lists the batch issued by this payment.
	LinkCodes []string
	Attempts  int
}
