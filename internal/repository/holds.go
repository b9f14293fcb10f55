package repository

import (
	"context"
	"database/sql"
	"time"

	"matinee/internal/database"
	apperrors "matinee/internal/errors"
	"matinee/internal/models"
)

type HoldRepository struct {
	db  *database.DB
	tx  *TxRunner
	arb CapacityArbiter
}

func NewHoldRepository(db *database.DB, tx *TxRunner) *HoldRepository {
	return &HoldRepository{db: db, tx: tx}
}

// Place creates an ACTIVE hold for one seat. The whole sequence, lock
// session, expire overdue holds, duplicate check, admit, insert, is one
// transaction, so two racing requests for the last seat cannot both
// pass the count.
func (r *HoldRepository) Place(ctx context.Context, sessionID, holderID int64, ttl time.Duration) (*models.Hold, error) {
	var hold *models.Hold
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
			SELECT id FROM holds
			WHERE session_id = $1 AND holder_id = $2 AND state = 'ACTIVE'`,
			sessionID, holderID).Scan(&existing)
		if err == nil {
			return apperrors.ErrDuplicateHold
		}
		if err != sql.ErrNoRows {
			return err
		}

		if err := r.arb.Admit(ctx, tx, sess, now, 0); err != nil {
			return err
		}

		h := &models.Hold{
			SessionID: sessionID,
			HolderID:  holderID,
			State:     models.HoldActive,
			ExpiresAt: now.Add(ttl),
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO holds (session_id, holder_id, state, expires_at)
			VALUES ($1, $2, 'ACTIVE', $3)
			RETURNING id, created_at`,
			sessionID, holderID, h.ExpiresAt).Scan(&h.ID, &h.CreatedAt)
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateHold
		}
		if err != nil {
			return err
		}
		hold = h
		return nil
	})
	return hold, err
}

// Release transitions the caller's ACTIVE hold to RELEASED. A hold
// observed past its expires_at is flipped to EXPIRED instead and the
// call fails as already inactive; the flip commits even though the
// call itself fails, so the stored state catches up with the clock.
func (r *HoldRepository) Release(ctx context.Context, holdID, holderID int64) (*models.Hold, error) {
	var hold *models.Hold
	var expired bool
	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		expired = false

		h := &models.Hold{}
		err := tx.QueryRowContext(ctx, `
			SELECT id, session_id, holder_id, state, created_at, expires_at
			FROM holds
			WHERE id = $1
			FOR UPDATE`,
			holdID).Scan(&h.ID, &h.SessionID, &h.HolderID, &h.State, &h.CreatedAt, &h.ExpiresAt)
		if err == sql.ErrNoRows {
			return apperrors.ErrHoldNotFound
		}
		if err != nil {
			return err
		}

		if h.HolderID != holderID {
			return apperrors.ErrForbidden
		}
		if h.State != models.HoldActive {
			return apperrors.ErrAlreadyInactive
		}
		if !h.Occupying(now) {
			// Returning the sentinel from here would roll the flip
			// back with the transaction, so commit first and surface
			// the error after.
			if _, err := tx.ExecContext(ctx,
				`UPDATE holds SET state = 'EXPIRED' WHERE id = $1`, h.ID); err != nil {
				return err
			}
			expired = true
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE holds SET state = 'RELEASED' WHERE id = $1`, h.ID); err != nil {
			return err
		}
		h.State = models.HoldReleased
		hold = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperrors.ErrAlreadyInactive
	}
	return hold, nil
}

const holdDetailColumns = `
	h.id, h.session_id, h.holder_id,
	CASE WHEN h.state = 'ACTIVE' AND h.expires_at <= $1 THEN 'EXPIRED' ELSE h.state END,
	s.title, s.room_name, s.start_time, h.created_at, h.expires_at`

// ListByHolder returns the holder's holds joined with session display
// fields, newest first. Overdue ACTIVE rows render as EXPIRED even
// before any writer has flipped them.
func (r *HoldRepository) ListByHolder(ctx context.Context, holderID int64, now time.Time) ([]models.HoldDetail, error) {
	query := `
		SELECT` + holdDetailColumns + `
		FROM holds h
		JOIN sessions s ON s.id = h.session_id
		WHERE h.holder_id = $2
		ORDER BY h.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, now, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoldDetails(rows)
}

// ListScoped returns holds for admin display, restricted to the
// scope's host when set.
func (r *HoldRepository) ListScoped(ctx context.Context, scope models.Scope, now time.Time) ([]models.HoldDetail, error) {
	query := `
		SELECT` + holdDetailColumns + `
		FROM holds h
		JOIN sessions s ON s.id = h.session_id`

	args := []interface{}{now}
	if scope.HostID != nil {
		query += ` WHERE s.host_id = $2`
		args = append(args, *scope.HostID)
	}
	query += ` ORDER BY h.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoldDetails(rows)
}

func scanHoldDetails(rows *sql.Rows) ([]models.HoldDetail, error) {
	var details []models.HoldDetail
	for rows.Next() {
		var d models.HoldDetail
		err := rows.Scan(
			&d.ID,
			&d.SessionID,
			&d.HolderID,
			&d.State,
			&d.SessionTitle,
			&d.RoomName,
			&d.StartTime,
			&d.CreatedAt,
			&d.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// MarkExpired flips every overdue ACTIVE hold to EXPIRED. Run by the
// sweeper for storage hygiene; occupancy counting never depends on it.
func (r *HoldRepository) MarkExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE holds SET state = 'EXPIRED'
		WHERE state = 'ACTIVE' AND expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeTerminal deletes terminal hold rows created before the cutoff.
func (r *HoldRepository) PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM holds
		WHERE state IN ('CONVERTED', 'RELEASED', 'EXPIRED') AND created_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
