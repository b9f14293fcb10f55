package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"matinee/internal/models"
	"matinee/internal/repository"
)

// Handlers process reservation events off the broker. They are an
// audit trail, not part of the reservation transaction; occupancy is
// re-derived here only for logging.
type Handlers struct {
	repos *repository.Repositories
}

func NewHandlers(repos *repository.Repositories) *Handlers {
	return &Handlers{repos: repos}
}

func (h *Handlers) HandleHoldPlaced(m *stan.Msg) {
	var event models.HoldPlacedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal hold placed event", "error", err)
		return
	}

	slog.Info("Hold placed",
		"hold_id", event.HoldID,
		"session_id", event.SessionID,
		"holder_id", event.HolderID,
		"expires_at", event.ExpiresAt,
	)
	h.logOccupancy(event.SessionID)

	m.Ack()
}

func (h *Handlers) HandleHoldReleased(m *stan.Msg) {
	var event models.HoldReleasedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal hold released event", "error", err)
		return
	}

	slog.Info("Hold released",
		"hold_id", event.HoldID,
		"session_id", event.SessionID,
		"holder_id", event.HolderID,
	)

	m.Ack()
}

func (h *Handlers) HandleHoldsExpired(m *stan.Msg) {
	var event models.HoldsExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal holds expired event", "error", err)
		return
	}

	slog.Info("Sweeper expired holds", "count", event.Count)

	m.Ack()
}

func (h *Handlers) HandleBookingCreated(m *stan.Msg) {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return
	}

	fields := []any{
		"booking_id", event.BookingID,
		"session_id", event.SessionID,
		"holder_id", event.HolderID,
		"amount_cents", event.AmountCents,
	}
	if event.ConvertedHold != nil {
		fields = append(fields, "converted_hold", *event.ConvertedHold)
	}
	slog.Info("Booking created", fields...)
	h.logOccupancy(event.SessionID)

	m.Ack()
}

func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Booking cancelled",
		"booking_id", event.BookingID,
		"session_id", event.SessionID,
		"holder_id", event.HolderID,
		"new_state", event.NewState,
	)
	h.logOccupancy(event.SessionID)

	m.Ack()
}

func (h *Handlers) HandlePaymentSettled(m *stan.Msg) {
	var event models.PaymentSettledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment settled event", "error", err)
		return
	}

	slog.Info("Payment settled",
		"settlement_id", event.SettlementID,
		"booking_id", event.BookingID,
		"amount_cents", event.AmountCents,
		"channel", event.Channel,
		"kind", event.Kind,
	)

	m.Ack()
}

func (h *Handlers) logOccupancy(sessionID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	occ, err := h.repos.Sessions.Occupancy(ctx, sessionID, time.Now())
	if err != nil || occ == nil {
		return
	}
	slog.Info("Session occupancy",
		"session_id", sessionID,
		"occupied", occ.Occupied,
		"capacity", occ.Capacity,
		"remaining", occ.Remaining,
	)
}
