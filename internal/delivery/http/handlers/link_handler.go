package handlers

import (
	"net/http"
	"strconv"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/usecase"
	linkdto "github.com/brickfoundation/referral-service/internal/usecase/dto/link"
	"github.com/gin-gonic/gin"
)

type LinkHandler struct {
	uc usecase.LinkUsecase
}

func NewLinkHandler(uc usecase.LinkUsecase) *LinkHandler {
	return &LinkHandler{uc: uc}
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("active", "false"))
	if err != nil {
		badRequest(c, err)
		return
	}

	links, err := h.uc.ListLinks(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": toLinkResponses(links)})
}

// GenerateLinks rotates the user's active batch. Only activated users may
// hold links.
func (h *LinkHandler) GenerateLinks(c *gin.Context) {
	links, err := h.uc.GenerateLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"links": toLinkResponses(links)})
}

func (h *LinkHandler) ResolveToken(c *gin.Context) {
	out, err := h.uc.ResolveToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.ResolvedLinkResponse{
		Code:     out.Code,
		Referrer: out.Referrer,
	})
}

func toLinkResponses(links []*linkdto.LinkOutput) []response.LinkResponse {
	out := make([]response.LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, response.LinkResponse{
			ID:        l.ID,
			Code:      l.Code,
			Status:    string(l.Status),
			BatchID:   l.BatchID,
			ShareURL:  l.ShareURL,
			ExpiresAt: l.ExpiresAt,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}
