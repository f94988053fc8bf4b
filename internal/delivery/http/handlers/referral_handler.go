package handlers

import (
	"net/http"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/request"
	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/usecase"
	referraldto "github.com/brickfoundation/referral-service/internal/usecase/dto/referral"
	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	uc usecase.ReferralUsecase
}

func NewReferralHandler(uc usecase.ReferralUsecase) *ReferralHandler {
	return &ReferralHandler{uc: uc}
}

// RegisterUser creates the referral profile for a newly signed up user and
// attributes them to a referrer when a code, token or pending invite matches.
func (h *ReferralHandler) RegisterUser(c *gin.Context) {
	var req request.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.uc.RegisterUser(c.Request.Context(), &referraldto.RegisterUserInput{
		UserID:        req.UserID,
		Email:         req.Email,
		FullName:      req.FullName,
		AvatarURL:     req.AvatarURL,
		ReferralCode:  req.ReferralCode,
		ReferralToken: req.ReferralToken,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	c.JSON(status, response.RegisterUserResponse{
		User:       out.User,
		ReferralID: out.ReferralID,
		ReferrerID: out.ReferrerID,
		Created:    out.Created,

		RejectedReferralCode: out.RejectedCode,
	})
}

func (h *ReferralHandler) Invite(c *gin.Context) {
	var req request.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.uc.InviteByEmail(c.Request.Context(), &referraldto.InviteInput{
		ReferrerID:    req.ReferrerID,
		ReferredEmail: req.ReferredEmail,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if out.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, response.InviteResponse{
		ReferralID: out.ReferralID,
		ShareURL:   out.ShareURL,
		Duplicate:  out.Duplicate,
	})
}

func (h *ReferralHandler) RecordActivity(c *gin.Context) {
	var req request.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.uc.RecordActivity(c.Request.Context(), &referraldto.ActivityInput{
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.ActivityResponse{
		ReferrerID: out.ReferrerID,
		Amount:     out.Amount,
		Credited:   out.Credited,
	})
}
