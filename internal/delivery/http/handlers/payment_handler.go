package handlers

import (
	"net/http"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/request"
	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/usecase"
	paymentdto "github.com/brickfoundation/referral-service/internal/usecase/dto/payment"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	uc usecase.PaymentUsecase
}

func NewPaymentHandler(uc usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// PaymentWebhook accepts a provider confirmation whose signature was
// already checked by middleware. Redelivery of a processed transaction
// answers 200 with duplicate set.
func (h *PaymentHandler) PaymentWebhook(c *gin.Context) {
	var req request.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.uc.ConfirmPayment(c.Request.Context(), &paymentdto.ConfirmPaymentInput{
		UserID:                req.UserID,
		Amount:                req.Amount,
		Currency:              req.Currency,
		ProviderTransactionID: req.ProviderTransactionID,
		Provider:              req.Provider,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.PaymentResponse{
		PaymentID: out.PaymentID,
		Duplicate: out.Duplicate,
		Activated: out.Activated,
		LinkCodes: out.LinkCodes,
	})
}
