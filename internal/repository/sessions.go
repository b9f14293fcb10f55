package repository

import (
	"context"
	"database/sql"
	"time"

	"matinee/internal/database"
	"matinee/internal/models"
)

// SessionRepository reads the session registry. The registry is owned
// by the catalog subsystem; the reservation engine never writes it.
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	sess := &models.Session{}
	query := `
		SELECT id, title, room_name, host_id, capacity, start_time, end_time,
		       status, price_cents, created_at, updated_at
		FROM sessions
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
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
		return nil, nil
	}

	return sess, err
}

// List returns open sessions with derived occupancy, soonest first.
// date filters on the calendar day of start_time when non-empty
// (format 2006-01-02). Readers take no locks; the counts are a
// consistent snapshot, not a reservation guarantee.
func (r *SessionRepository) List(ctx context.Context, date string, now time.Time) ([]models.SessionListItem, error) {
	query := `
		SELECT s.id, s.title, s.room_name, s.start_time, s.end_time, s.status,
		       s.price_cents, s.capacity,
		       (SELECT COUNT(*) FROM bookings b
		        WHERE b.session_id = s.id AND b.payment_state IN ('UNPAID', 'PAID')) +
		       (SELECT COUNT(*) FROM holds h
		        WHERE h.session_id = s.id AND h.state = 'ACTIVE' AND h.expires_at > $1) AS occupied
		FROM sessions s
		WHERE s.status = 'OPEN'`

	args := []interface{}{now}
	if date != "" {
		query += ` AND DATE(s.start_time) = $2`
		args = append(args, date)
	}
	query += ` ORDER BY s.start_time`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.SessionListItem
	for rows.Next() {
		var item models.SessionListItem
		var priceCents int64
		err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.RoomName,
			&item.StartTime,
			&item.EndTime,
			&item.Status,
			&priceCents,
			&item.Capacity,
			&item.Occupied,
		)
		if err != nil {
			return nil, err
		}
		item.Price = models.FormatAmount(priceCents)
		item.Remaining = item.Capacity - item.Occupied
		items = append(items, item)
	}

	return items, rows.Err()
}

// Occupancy derives the occupied count for one session without taking
// any lock. Returns nil when the session does not exist.
func (r *SessionRepository) Occupancy(ctx context.Context, sessionID int64, now time.Time) (*models.OccupancyResponse, error) {
	resp := &models.OccupancyResponse{SessionID: sessionID}
	query := `
		SELECT s.capacity,
		       (SELECT COUNT(*) FROM bookings b
		        WHERE b.session_id = s.id AND b.payment_state IN ('UNPAID', 'PAID')) +
		       (SELECT COUNT(*) FROM holds h
		        WHERE h.session_id = s.id AND h.state = 'ACTIVE' AND h.expires_at > $2) AS occupied
		FROM sessions s
		WHERE s.id = $1`

	err := r.db.QueryRowContext(ctx, query, sessionID, now).Scan(&resp.Capacity, &resp.Occupied)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp.Remaining = resp.Capacity - resp.Occupied
	return resp, nil
}
