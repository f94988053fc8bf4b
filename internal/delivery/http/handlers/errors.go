package handlers

import (
	"errors"
	"net/http"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error family onto an HTTP status. Anything outside the
// known families is a dependency failure the caller may retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIntegrity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusServiceUnavailable {
		msg = "service temporarily unavailable"
	}
	c.JSON(status, response.ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
}

// degrades reports whether a read view should answer with an empty payload
// instead of an error. Caller mistakes are still reported.
func degrades(err error) bool {
	return !errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrNotFound)
}
