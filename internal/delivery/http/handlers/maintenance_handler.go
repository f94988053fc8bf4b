package handlers

import (
	"net/http"
	"time"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type MaintenanceHandler struct {
	referrals usecase.ReferralUsecase
	links     usecase.LinkUsecase
	now       func() time.Time
}

func NewMaintenanceHandler(referrals usecase.ReferralUsecase, links usecase.LinkUsecase) *MaintenanceHandler {
	return &MaintenanceHandler{referrals: referrals, links: links, now: time.Now}
}

// Expire runs the pending referral and link expiry jobs immediately.
func (h *MaintenanceHandler) Expire(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()

	referrals, err := h.referrals.ExpirePendingReferrals(ctx, now)
	if err != nil {
		writeError(c, err)
		return
	}
	links, err := h.links.ExpireLinks(ctx, now)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.MaintenanceResponse{
		ReferralsExpired: referrals,
		LinksExpired:     links,
	})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
