package service

import (
	"context"
	"fmt"
	"time"

	"matinee/internal/logger"
	"matinee/internal/models"
)

type BookingService struct {
	bookings BookingStore
	nats     Publisher
}

func NewBookingService(bookings BookingStore, nats Publisher) *BookingService {
	return &BookingService{bookings: bookings, nats: nats}
}

// Create books one seat, converting the holder's active hold if one
// exists. The amount always comes from the session's stored price.
func (s *BookingService) Create(ctx context.Context, sessionID, holderID int64) (*models.BookingResponse, error) {
	booking, converted, err := s.bookings.Create(ctx, sessionID, holderID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:     booking.ID,
		SessionID:     booking.SessionID,
		HolderID:      booking.HolderID,
		AmountCents:   booking.AmountCents,
		ConvertedHold: converted,
		Timestamp:     time.Now(),
	})

	return &models.BookingResponse{
		ID:           booking.ID,
		SessionID:    booking.SessionID,
		PaymentState: booking.PaymentState,
		Amount:       models.FormatAmount(booking.AmountCents),
	}, nil
}

// Settle records payment for an unpaid booking through the given
// channel.
func (s *BookingService) Settle(ctx context.Context, bookingID int64, channel string) (*models.SettlementResponse, error) {
	settlement, err := s.bookings.Settle(ctx, bookingID, channel)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventPaymentSettled, models.PaymentSettledEvent{
		SettlementID: settlement.ID,
		BookingID:    settlement.BookingID,
		AmountCents:  settlement.AmountCents,
		Channel:      settlement.Channel,
		Kind:         settlement.Kind,
		Timestamp:    time.Now(),
	})

	return settlementResponse(settlement), nil
}

// Cancel cancels an unpaid booking or refunds a paid one, releasing
// the seat either way.
func (s *BookingService) Cancel(ctx context.Context, bookingID, holderID int64) (*models.BookingResponse, error) {
	booking, refund, err := s.bookings.Cancel(ctx, bookingID, holderID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: booking.ID,
		SessionID: booking.SessionID,
		HolderID:  booking.HolderID,
		NewState:  booking.PaymentState,
		Timestamp: time.Now(),
	})
	if refund != nil {
		s.publish(ctx, models.EventPaymentSettled, models.PaymentSettledEvent{
			SettlementID: refund.ID,
			BookingID:    refund.BookingID,
			AmountCents:  refund.AmountCents,
			Channel:      refund.Channel,
			Kind:         refund.Kind,
			Timestamp:    time.Now(),
		})
	}

	return &models.BookingResponse{
		ID:           booking.ID,
		SessionID:    booking.SessionID,
		PaymentState: booking.PaymentState,
		Amount:       models.FormatAmount(booking.AmountCents),
	}, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, holderID int64) ([]models.BookingDetail, error) {
	details, err := s.bookings.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return details, nil
}

// ListScoped returns bookings visible within the admin scope.
func (s *BookingService) ListScoped(ctx context.Context, scope models.Scope) ([]models.BookingDetail, error) {
	details, err := s.bookings.ListScoped(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return details, nil
}

func settlementResponse(s *models.Settlement) *models.SettlementResponse {
	return &models.SettlementResponse{
		ID:        s.ID,
		BookingID: s.BookingID,
		Amount:    models.FormatAmount(s.AmountCents),
		Channel:   s.Channel,
		Kind:      s.Kind,
		Result:    s.Result,
	}
}

func (s *BookingService) publish(ctx context.Context, subject string, data interface{}) {
	if s.nats == nil {
		return
	}
	if err := s.nats.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Warn("Failed to publish event", "subject", subject, "error", err)
	}
}
