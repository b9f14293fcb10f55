package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"matinee/internal/models"
)

// ListSessions - GET /api/sessions
// Open sessions with derived occupancy. Optional ?date=2006-01-02.
func (h *Handlers) ListSessions(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
			return
		}
	}

	items, err := h.services.Sessions.List(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.SessionListItem{}
	}

	c.JSON(http.StatusOK, items)
}

// GetOccupancy - GET /api/sessions/:id/occupancy
func (h *Handlers) GetOccupancy(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	resp, err := h.services.Sessions.Occupancy(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
