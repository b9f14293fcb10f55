package models

import (
	"time"
)

// Session lifecycle states. The sessions table is owned by the catalog
// subsystem; the reservation engine only ever reads it.
const (
	SessionOpen      = "OPEN"
	SessionClosed    = "CLOSED"
	SessionCancelled = "CANCELLED"
)

// Hold states. ACTIVE is the only state that can count toward
// occupancy; the other three are terminal.
const (
	HoldActive    = "ACTIVE"
	HoldConverted = "CONVERTED"
	HoldReleased  = "RELEASED"
	HoldExpired   = "EXPIRED"
)

// Booking payment states. UNPAID and PAID count toward occupancy;
// CANCELLED and REFUNDED are terminal.
const (
	BookingUnpaid    = "UNPAID"
	BookingPaid      = "PAID"
	BookingCancelled = "CANCELLED"
	BookingRefunded  = "REFUNDED"
)

// Settlement channels and kinds. One settlement row is appended per
// successful payment or refund action and never updated afterwards.
const (
	ChannelWeChat = "WECHAT"
	ChannelAlipay = "ALIPAY"
	ChannelCash   = "CASH"

	SettlementPayment = "PAYMENT"
	SettlementRefund  = "REFUND"
)

// User roles for scope resolution.
const (
	RolePlayer = "PLAYER"
	RoleStaff  = "STAFF"
	RoleOwner  = "OWNER"
)

// Session represents one scheduled run of a script in a room. Capacity
// is fixed at creation; there is no seats_left column anywhere, since
// occupancy is always derived by counting live holds and bookings.
type Session struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	RoomName   string    `json:"room_name" db:"room_name"`
	HostID     int64     `json:"host_id" db:"host_id"`
	Capacity   int       `json:"capacity" db:"capacity"`
	StartTime  time.Time `json:"start_time" db:"start_time"`
	EndTime    time.Time `json:"end_time" db:"end_time"`
	Status     string    `json:"status" db:"status"`
	PriceCents int64     `json:"price_cents" db:"price_cents"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Admittable reports whether the session may accept a new reservation
// at the given instant. It checks lifecycle state and start time only;
// capacity is the arbiter's job.
func (s *Session) Admittable(now time.Time) bool {
	return s.Status == SessionOpen && now.Before(s.StartTime)
}

// Hold is a temporary, non-paid reservation of one seat.
type Hold struct {
	ID        int64     `json:"id" db:"id"`
	SessionID int64     `json:"session_id" db:"session_id"`
	HolderID  int64     `json:"holder_id" db:"holder_id"`
	State     string    `json:"state" db:"state"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Occupying reports whether the hold consumes a seat at the given
// instant. A hold whose expires_at has passed never occupies, even if
// the stored state is still ACTIVE and no sweeper has run.
func (h *Hold) Occupying(now time.Time) bool {
	return h.State == HoldActive && h.ExpiresAt.After(now)
}

// Booking is a confirmed reservation, paid or awaiting payment. Amount
// is captured from the session's price at creation time and is
// immutable afterwards.
type Booking struct {
	ID           int64     `json:"id" db:"id"`
	SessionID    int64     `json:"session_id" db:"session_id"`
	HolderID     int64     `json:"holder_id" db:"holder_id"`
	AmountCents  int64     `json:"amount_cents" db:"amount_cents"`
	PaymentState string    `json:"payment_state" db:"payment_state"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CancelTransition returns the state a booking moves to on
// cancellation: UNPAID becomes CANCELLED, PAID becomes REFUNDED.
// Terminal states return ok=false.
func (b *Booking) CancelTransition() (next string, ok bool) {
	switch b.PaymentState {
	case BookingUnpaid:
		return BookingCancelled, true
	case BookingPaid:
		return BookingRefunded, true
	default:
		return "", false
	}
}

// Settlement is one immutable ledger row recording a payment or refund.
type Settlement struct {
	ID          string    `json:"id" db:"id"`
	BookingID   int64     `json:"booking_id" db:"booking_id"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	Channel     string    `json:"channel" db:"channel"`
	Kind        string    `json:"kind" db:"kind"`
	Result      string    `json:"result" db:"result"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// User represents an authenticated caller. Role and HostID drive admin
// scope resolution; everything else is plumbing for Basic Auth.
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	HostID       *int64    `json:"host_id" db:"host_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Scope restricts admin reads to the sessions of one host. The zero
// value means unrestricted (owner visibility). It is resolved once per
// request from the caller's identity and threaded explicitly through
// every admin read, never stored in ambient state.
type Scope struct {
	HostID *int64
}

// ScopeAll is the unrestricted scope.
var ScopeAll = Scope{}

// ScopeHost restricts reads to a single host's sessions.
func ScopeHost(hostID int64) Scope {
	return Scope{HostID: &hostID}
}

// ValidChannel reports whether ch is a known settlement channel.
func ValidChannel(ch string) bool {
	switch ch {
	case ChannelWeChat, ChannelAlipay, ChannelCash:
		return true
	}
	return false
}
