package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "matinee/internal/errors"
	"matinee/internal/models"
)

// CapacityArbiter is the single source of truth for the capacity
// invariant. Occupancy is always derived by counting live rows; there
// is no materialized seat counter anywhere.
//
// All methods run inside the caller's transaction. LockSession must be
// called first: the row lock on the session serializes every
// capacity-consuming write for that session, making the count-then-
// insert sequence atomic per session.
type CapacityArbiter struct{}

// LockSession loads the session row under FOR UPDATE, blocking
// concurrent reservations on the same session until the transaction
// ends.
func (CapacityArbiter) LockSession(ctx context.Context, tx *sql.Tx, sessionID int64) (*models.Session, error) {
	sess := &models.Session{}
	query := `
		SELECT id, title, room_name, host_id, capacity, start_time, end_time,
		       status, price_cents, created_at, updated_at
		FROM sessions
		WHERE id = $1
		FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, sessionID).Scan(
		&sess.ID,
		&sess.Title,
		&sess.RoomName,
		&sess.HostID,
		&sess.Capacity,
		&sess.StartTime,
		&sess.EndTime,
		&sess.Status,
		&sess.PriceCents,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, err
}

// ExpireOverdue flips the session's overdue ACTIVE holds to EXPIRED.
// Writers call it right after taking the session lock so subsequent
// state-based checks within the transaction see clean rows. Counting
// never depends on it: Occupied compares expires_at itself.
func (CapacityArbiter) ExpireOverdue(ctx context.Context, tx *sql.Tx, sessionID int64, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE holds SET state = 'EXPIRED'
		WHERE session_id = $1 AND state = 'ACTIVE' AND expires_at <= $2`,
		sessionID, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Occupied counts seats consumed by live bookings plus active,
// unexpired holds.
func (CapacityArbiter) Occupied(ctx context.Context, tx *sql.Tx, sessionID int64, now time.Time) (int, error) {
	var occupied int
	query := `
		SELECT
			(SELECT COUNT(*) FROM bookings
			 WHERE session_id = $1 AND payment_state IN ('UNPAID', 'PAID')) +
			(SELECT COUNT(*) FROM holds
			 WHERE session_id = $1 AND state = 'ACTIVE' AND expires_at > $2)`

	err := tx.QueryRowContext(ctx, query, sessionID, now).Scan(&occupied)
	return occupied, err
}

// Admit decides whether one more seat may be reserved on the locked
// session. exempt discounts seats the caller itself already occupies
// and is about to retire in this same transaction, e.g. the hold being
// converted into a booking.
func (a CapacityArbiter) Admit(ctx context.Context, tx *sql.Tx, sess *models.Session, now time.Time, exempt int) error {
	if !sess.Admittable(now) {
		return apperrors.ErrSessionClosed
	}
	occupied, err := a.Occupied(ctx, tx, sess.ID, now)
	if err != nil {
		return err
	}
	if occupied-exempt >= sess.Capacity {
		return apperrors.ErrSessionFull
	}
	return nil
}
