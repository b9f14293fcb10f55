package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matinee/internal/models"
)

// CreateBooking - POST /api/bookings
// Books one seat; the amount is captured from the session price and
// any caller-supplied amount is ignored. A matching active hold is
// converted in the same step.
func (h *Handlers) CreateBooking(c *gin.Context) {
	holder, ok := holderID(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.Create(c.Request.Context(), req.SessionID, holder)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SettlePayment - PATCH /api/bookings/settle
func (h *Handlers) SettlePayment(c *gin.Context) {
	if _, ok := holderID(c); !ok {
		return
	}

	var req models.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidChannel(req.Channel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be one of WECHAT, ALIPAY, CASH"})
		return
	}

	resp, err := h.services.Bookings.Settle(c.Request.Context(), req.BookingID, req.Channel)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelBooking - PATCH /api/bookings/cancel
// Unpaid bookings are cancelled; paid ones are refunded. The seat is
// released either way.
func (h *Handlers) CancelBooking(c *gin.Context) {
	holder, ok := holderID(c)
	if !ok {
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.Cancel(c.Request.Context(), req.BookingID, holder)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListBookings - GET /api/bookings
// The caller's bookings, newest first.
func (h *Handlers) ListBookings(c *gin.Context) {
	holder, ok := holderID(c)
	if !ok {
		return
	}

	details, err := h.services.Bookings.ListMine(c.Request.Context(), holder)
	if err != nil {
		respondError(c, err)
		return
	}
	if details == nil {
		details = []models.BookingDetail{}
	}

	c.JSON(http.StatusOK, details)
}
