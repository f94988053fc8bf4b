package handlers

import (
	"net/http"
	"strconv"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	uc usecase.NotificationUsecase
}

func NewNotificationHandler(uc usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	unreadOnly, err := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	if err != nil {
		badRequest(c, err)
		return
	}

	notifications, err := h.uc.Notifications(c.Request.Context(), c.Param("id"), unreadOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]response.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, response.NewNotificationResponse(n))
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.uc.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
