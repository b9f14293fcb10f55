package repository

import (
	"context"
	"time"

	"matinee/internal/database"
)

type Repositories struct {
	Sessions *SessionRepository
	Holds    *HoldRepository
	Bookings *BookingRepository
	Users    *UserRepository
}

func NewRepositories(db *database.DB, lockTimeout time.Duration, txRetries int) *Repositories {
	tx := NewTxRunner(db, lockTimeout, txRetries)
	return &Repositories{
		Sessions: NewSessionRepository(db),
		Holds:    NewHoldRepository(db, tx),
		Bookings: NewBookingRepository(db, tx),
		Users:    NewUserRepository(db),
	}
}

// Reset truncates all reservation state. Test environments only; the
// guard lives in the service layer.
func (r *Repositories) Reset(ctx context.Context) error {
	_, err := r.Sessions.db.ExecContext(ctx,
		`TRUNCATE settlements, bookings, holds RESTART IDENTITY`)
	return err
}
