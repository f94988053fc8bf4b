package handlers

import (
	"net/http"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	uc usecase.RewardUsecase
}

func NewRewardHandler(uc usecase.RewardUsecase) *RewardHandler {
	return &RewardHandler{uc: uc}
}

func (h *RewardHandler) ListRewards(c *gin.Context) {
	rewards, err := h.uc.ListRewards(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]response.RewardResponse, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, response.NewRewardResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"rewards": out})
}

func (h *RewardHandler) ApproveReward(c *gin.Context) {
	reward, err := h.uc.ApproveReward(c.Request.Context(), c.Param("id"))
	h.respond(c, reward, err)
}

func (h *RewardHandler) MarkRewardPaid(c *gin.Context) {
	reward, err := h.uc.MarkRewardPaid(c.Request.Context(), c.Param("id"))
	h.respond(c, reward, err)
}

func (h *RewardHandler) respond(c *gin.Context, reward *domain.ReferralReward, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewRewardResponse(reward))
}
