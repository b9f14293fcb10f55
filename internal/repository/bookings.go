package repository

import (
	"context"
	"database/sql"
	"time"

	"matinee/internal/database"
	apperrors "matinee/internal/errors"
	"matinee/internal/models"
)

type BookingRepository struct {
	db  *database.DB
	tx  *TxRunner
	arb CapacityArbiter
}

func NewBookingRepository(db *database.DB, tx *TxRunner) *BookingRepository {
	return &BookingRepository{db: db, tx: tx}
}

// Create inserts an UNPAID booking, capturing the amount from the
// session's price. An ACTIVE hold by the same holder is converted in
// the same transaction and exempted from the occupancy count, so
// converting a hold on a full session succeeds and the conversion is
// capacity-neutral. Returns the id of the converted hold, if any.
func (r *BookingRepository) Create(ctx context.Context, sessionID, holderID int64) (*models.Booking, *int64, error) {
	var booking *models.Booking
	var converted *int64
	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()

		sess, err := r.arb.LockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if _, err := r.arb.ExpireOverdue(ctx, tx, sessionID, now); err != nil {
			return err
		}

		var existing int64
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM bookings
			WHERE session_id = $1 AND holder_id = $2
			  AND payment_state IN ('UNPAID', 'PAID')`,
			sessionID, holderID).Scan(&existing)
		if err == nil {
			return apperrors.ErrDuplicateBooking
		}
		if err != sql.ErrNoRows {
			return err
		}

		var holdID sql.NullInt64
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM holds
			WHERE session_id = $1 AND holder_id = $2 AND state = 'ACTIVE'`,
			sessionID, holderID).Scan(&holdID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		exempt := 0
		if holdID.Valid {
			exempt = 1
		}
		if err := r.arb.Admit(ctx, tx, sess, now, exempt); err != nil {
			return err
		}

		b := &models.Booking{
			SessionID:    sessionID,
			HolderID:     holderID,
			AmountCents:  sess.PriceCents,
			PaymentState: models.BookingUnpaid,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO bookings (session_id, holder_id, amount_cents, payment_state)
			VALUES ($1, $2, $3, 'UNPAID')
			RETURNING id, created_at, updated_at`,
			sessionID, holderID, sess.PriceCents).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateBooking
		}
		if err != nil {
			return err
		}

		if holdID.Valid {
			if _, err := tx.ExecContext(ctx,
				`UPDATE holds SET state = 'CONVERTED' WHERE id = $1`, holdID.Int64); err != nil {
				return err
			}
			converted = &holdID.Int64
		}

		booking = b
		return nil
	})
	return booking, converted, err
}

// Settle moves an UNPAID booking to PAID and appends the payment row
// to the settlement ledger.
func (r *BookingRepository) Settle(ctx context.Context, bookingID int64, channel string) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		switch b.PaymentState {
		case models.BookingPaid:
			return apperrors.ErrAlreadyPaid
		case models.BookingCancelled, models.BookingRefunded:
			return apperrors.ErrInvalidState
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings SET payment_state = 'PAID', updated_at = NOW()
			WHERE id = $1`, b.ID); err != nil {
			return err
		}

		s, err := insertSettlement(ctx, tx, b.ID, b.AmountCents, channel, models.SettlementPayment)
		if err != nil {
			return err
		}
		settlement = s
		return nil
	})
	return settlement, err
}

// Cancel moves UNPAID to CANCELLED and PAID to REFUNDED, writing a
// refund settlement row for the latter. Any ACTIVE hold by the same
// holder on the session is released in the same transaction so a stale
// hold cannot block future attempts.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID, holderID int64) (*models.Booking, *models.Settlement, error) {
	var booking *models.Booking
	var refund *models.Settlement
	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.HolderID != holderID {
			return apperrors.ErrForbidden
		}

		next, ok := b.CancelTransition()
		if !ok {
			return apperrors.ErrInvalidState
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings SET payment_state = $1, updated_at = NOW()
			WHERE id = $2`, next, b.ID); err != nil {
			return err
		}

		if next == models.BookingRefunded {
			channel, err := lastPaymentChannel(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			s, err := insertSettlement(ctx, tx, b.ID, b.AmountCents, channel, models.SettlementRefund)
			if err != nil {
				return err
			}
			refund = s
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE holds SET state = 'RELEASED'
			WHERE session_id = $1 AND holder_id = $2 AND state = 'ACTIVE'`,
			b.SessionID, b.HolderID); err != nil {
			return err
		}

		b.PaymentState = next
		booking = b
		return nil
	})
	return booking, refund, err
}

func lockBooking(ctx context.Context, tx *sql.Tx, bookingID int64) (*models.Booking, error) {
	b := &models.Booking{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, session_id, holder_id, amount_cents, payment_state, created_at, updated_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE`,
		bookingID).Scan(
		&b.ID,
		&b.SessionID,
		&b.HolderID,
		&b.AmountCents,
		&b.PaymentState,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrBookingNotFound
	}
	return b, err
}

const bookingDetailColumns = `
	b.id, b.session_id, b.holder_id, b.payment_state, b.amount_cents,
	s.title, s.room_name, s.start_time, b.created_at`

// ListByHolder returns the holder's bookings joined with session
// display fields, newest first.
func (r *BookingRepository) ListByHolder(ctx context.Context, holderID int64) ([]models.BookingDetail, error) {
	query := `
		SELECT` + bookingDetailColumns + `
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id
		WHERE b.holder_id = $1
		ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookingDetails(rows)
}

// ListScoped returns bookings for admin display, restricted to the
// scope's host when set.
func (r *BookingRepository) ListScoped(ctx context.Context, scope models.Scope) ([]models.BookingDetail, error) {
	query := `
		SELECT` + bookingDetailColumns + `
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id`

	var args []interface{}
	if scope.HostID != nil {
		query += ` WHERE s.host_id = $1`
		args = append(args, *scope.HostID)
	}
	query += ` ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookingDetails(rows)
}

func scanBookingDetails(rows *sql.Rows) ([]models.BookingDetail, error) {
	var details []models.BookingDetail
	for rows.Next() {
		var d models.BookingDetail
		var amountCents int64
		err := rows.Scan(
			&d.ID,
			&d.SessionID,
			&d.HolderID,
			&d.PaymentState,
			&amountCents,
			&d.SessionTitle,
			&d.RoomName,
			&d.StartTime,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		d.Amount = models.FormatAmount(amountCents)
		details = append(details, d)
	}
	return details, rows.Err()
}
