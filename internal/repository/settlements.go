package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"matinee/internal/models"
)

// insertSettlement appends one immutable row to the settlement ledger.
// The id is a fresh UUID, generated here rather than by the database
// so the caller can reference it before commit.
func insertSettlement(ctx context.Context, tx *sql.Tx, bookingID, amountCents int64, channel, kind string) (*models.Settlement, error) {
	s := &models.Settlement{
		ID:          uuid.New().String(),
		BookingID:   bookingID,
		AmountCents: amountCents,
		Channel:     channel,
		Kind:        kind,
		Result:      "OK",
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO settlements (id, booking_id, amount_cents, channel, kind, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		s.ID, s.BookingID, s.AmountCents, s.Channel, s.Kind, s.Result).Scan(&s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// lastPaymentChannel returns the channel of the booking's most recent
// payment settlement. Refunds go back through the channel the money
// came in on; CASH is the fallback for bookings with no ledger history.
func lastPaymentChannel(ctx context.Context, tx *sql.Tx, bookingID int64) (string, error) {
	var channel string
	err := tx.QueryRowContext(ctx, `
		SELECT channel FROM settlements
		WHERE booking_id = $1 AND kind = 'PAYMENT'
		ORDER BY created_at DESC
		LIMIT 1`,
		bookingID).Scan(&channel)
	if err == sql.ErrNoRows {
		return models.ChannelCash, nil
	}
	return channel, err
}
