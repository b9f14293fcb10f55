package models

import "time"

// NATS subjects published by the reservation engine.
const (
	EventHoldPlaced       = "hold.placed"
	EventHoldReleased     = "hold.released"
	EventHoldsExpired     = "holds.expired"
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentSettled   = "payment.settled"
)

// HoldPlacedEvent is published after a hold commits.
type HoldPlacedEvent struct {
	HoldID    int64     `json:"hold_id"`
	SessionID int64     `json:"session_id"`
	HolderID  int64     `json:"holder_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

// HoldReleasedEvent is published when a holder cancels a hold.
type HoldReleasedEvent struct {
	HoldID    int64     `json:"hold_id"`
	SessionID int64     `json:"session_id"`
	HolderID  int64     `json:"holder_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HoldsExpiredEvent is published by the sweeper after flipping overdue
// ACTIVE holds to EXPIRED. Expiry is lazy; this event is hygiene, not
// correctness.
type HoldsExpiredEvent struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent is published after a booking commits.
type BookingCreatedEvent struct {
	BookingID     int64     `json:"booking_id"`
	SessionID     int64     `json:"session_id"`
	HolderID      int64     `json:"holder_id"`
	AmountCents   int64     `json:"amount_cents"`
	ConvertedHold *int64    `json:"converted_hold,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published after a cancellation or refund.
type BookingCancelledEvent struct {
	BookingID int64     `json:"booking_id"`
	SessionID int64     `json:"session_id"`
	HolderID  int64     `json:"holder_id"`
	NewState  string    `json:"new_state"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentSettledEvent is published after a settlement row is written.
type PaymentSettledEvent struct {
	SettlementID string    `json:"settlement_id"`
	BookingID    int64     `json:"booking_id"`
	AmountCents  int64     `json:"amount_cents"`
	Channel      string    `json:"channel"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
}
