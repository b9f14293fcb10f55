package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matinee/internal/middleware"
	"matinee/internal/models"
)

// AdminListHolds - GET /api/admin/holds
// Holds across holders, restricted to the caller's scope.
func (h *Handlers) AdminListHolds(c *gin.Context) {
	scope, ok := middleware.ScopeFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	details, err := h.services.Holds.ListScoped(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	if details == nil {
		details = []models.HoldDetail{}
	}

	c.JSON(http.StatusOK, details)
}

// AdminListBookings - GET /api/admin/bookings
func (h *Handlers) AdminListBookings(c *gin.Context) {
	scope, ok := middleware.ScopeFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	details, err := h.services.Bookings.ListScoped(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	if details == nil {
		details = []models.BookingDetail{}
	}

	c.JSON(http.StatusOK, details)
}

// AdminReset - POST /api/admin/reset
// Truncates all reservation state. Test environments only.
func (h *Handlers) AdminReset(c *gin.Context) {
	if err := h.services.Reset.Reset(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
