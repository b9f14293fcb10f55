package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matinee/internal/middleware"
	"matinee/internal/models"
)

func holderID(c *gin.Context) (int64, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id.UserID, true
}

// PlaceHold - POST /api/holds
// Reserves one seat for the caller with the configured TTL.
func (h *Handlers) PlaceHold(c *gin.Context) {
	holder, ok := holderID(c)
	if !ok {
		return
	}

	var req models.PlaceHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Holds.Place(c.Request.Context(), req.SessionID, holder)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CancelHold - PATCH /api/holds/cancel
func (h *Handlers) CancelHold(c *gin.Context) {
	holder, ok := holderID(c)
	if !ok {
		return
	}

	var req models.CancelHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Holds.Cancel(c.Request.Context(), req.HoldID, holder); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

// ListHolds - GET /api/holds
// The caller's holds, newest first.
func (h *Handlers) ListHolds(c *gin.Context) {
	holder, ok := holderID(c)
	if !ok {
		return
	}

	details, err := h.services.Holds.ListMine(c.Request.Context(), holder)
	if err != nil {
		respondError(c, err)
		return
	}
	if details == nil {
		details = []models.HoldDetail{}
	}

	c.JSON(http.StatusOK, details)
}
