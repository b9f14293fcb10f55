package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "matinee/internal/errors"
	"matinee/internal/logger"
	"matinee/internal/service"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// respondError maps the reservation error taxonomy onto HTTP status
// codes. Anything unrecognized is a 500 and gets logged with its full
// chain; sentinel errors yield only their message.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound),
		errors.Is(err, apperrors.ErrHoldNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrSessionFull),
		errors.Is(err, apperrors.ErrDuplicateHold),
		errors.Is(err, apperrors.ErrDuplicateBooking),
		errors.Is(err, apperrors.ErrSessionClosed),
		errors.Is(err, apperrors.ErrAlreadyInactive),
		errors.Is(err, apperrors.ErrAlreadyPaid),
		errors.Is(err, apperrors.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrTransient):
		status = http.StatusServiceUnavailable
	default:
		logger.WithContext(c.Request.Context()).Error("Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
