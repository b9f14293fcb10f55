package models

import (
	"fmt"
	"time"
)

// FormatAmount renders integer cents as a decimal string, e.g. 16800 ->
// "168.00". Amounts cross the API boundary as strings only.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100.0)
}

// PlaceHoldRequest - request body for POST /api/holds. The holder is
// taken from the authenticated identity, never from the body.
type PlaceHoldRequest struct {
	SessionID int64 `json:"session_id" binding:"required"`
}

// HoldResponse - a hold as returned to its holder.
type HoldResponse struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	State     string `json:"state"`
	ExpiresAt string `json:"expires_at"`
}

// CancelHoldRequest - request body for PATCH /api/holds/cancel.
type CancelHoldRequest struct {
	HoldID int64 `json:"hold_id" binding:"required"`
}

// HoldDetail - a hold joined with session display fields for listing.
type HoldDetail struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"session_id"`
	HolderID     int64     `json:"holder_id,omitempty"`
	State        string    `json:"state"`
	SessionTitle string    `json:"session_title"`
	RoomName     string    `json:"room_name"`
	StartTime    time.Time `json:"start_time"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateBookingRequest - request body for POST /api/bookings. Any
// amount supplied by the client is deliberately absent from this
// struct: the price is always read from the session row server-side.
type CreateBookingRequest struct {
	SessionID int64 `json:"session_id" binding:"required"`
}

// BookingResponse - a booking as returned to its holder.
type BookingResponse struct {
	ID           int64  `json:"id"`
	SessionID    int64  `json:"session_id"`
	PaymentState string `json:"payment_state"`
	Amount       string `json:"amount"`
}

// SettlePaymentRequest - request body for PATCH /api/bookings/settle.
type SettlePaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Channel   string `json:"channel" binding:"required"`
}

// SettlementResponse - the ledger row written by a settle or refund.
type SettlementResponse struct {
	ID        string `json:"id"`
	BookingID int64  `json:"booking_id"`
	Amount    string `json:"amount"`
	Channel   string `json:"channel"`
	Kind      string `json:"kind"`
	Result    string `json:"result"`
}

// CancelBookingRequest - request body for PATCH /api/bookings/cancel.
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// BookingDetail - a booking joined with session display fields.
type BookingDetail struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"session_id"`
	HolderID     int64     `json:"holder_id,omitempty"`
	PaymentState string    `json:"payment_state"`
	Amount       string    `json:"amount"`
	SessionTitle string    `json:"session_title"`
	RoomName     string    `json:"room_name"`
	StartTime    time.Time `json:"start_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionListItem - one session in the public list, with occupancy
// derived at read time.
type SessionListItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	RoomName  string    `json:"room_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Price     string    `json:"price"`
	Capacity  int       `json:"capacity"`
	Occupied  int       `json:"occupied"`
	Remaining int       `json:"remaining"`
}

// OccupancyResponse - GET /api/sessions/:id/occupancy.
type OccupancyResponse struct {
	SessionID int64 `json:"session_id"`
	Occupied  int   `json:"occupied"`
	Capacity  int   `json:"capacity"`
	Remaining int   `json:"remaining"`
}
