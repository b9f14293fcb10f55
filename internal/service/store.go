package service

import (
	"context"
	"time"

	"matinee/internal/models"
)

// Store interfaces are defined on the consuming side so services can
// be tested against in-memory fakes. The repository types satisfy
// them.

type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	List(ctx context.Context, date string, now time.Time) ([]models.SessionListItem, error)
	Occupancy(ctx context.Context, sessionID int64, now time.Time) (*models.OccupancyResponse, error)
}

type HoldStore interface {
	Place(ctx context.Context, sessionID, holderID int64, ttl time.Duration) (*models.Hold, error)
	Release(ctx context.Context, holdID, holderID int64) (*models.Hold, error)
	ListByHolder(ctx context.Context, holderID int64, now time.Time) ([]models.HoldDetail, error)
	ListScoped(ctx context.Context, scope models.Scope, now time.Time) ([]models.HoldDetail, error)
}

type BookingStore interface {
	Create(ctx context.Context, sessionID, holderID int64) (*models.Booking, *int64, error)
	Settle(ctx context.Context, bookingID int64, channel string) (*models.Settlement, error)
	Cancel(ctx context.Context, bookingID, holderID int64) (*models.Booking, *models.Settlement, error)
	ListByHolder(ctx context.Context, holderID int64) ([]models.BookingDetail, error)
	ListScoped(ctx context.Context, scope models.Scope) ([]models.BookingDetail, error)
}

// Publisher abstracts the NATS client. Publishing is best effort:
// services log failures and never roll back a committed write over
// them.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// SessionCache abstracts the Valkey session-list cache.
type SessionCache interface {
	GetSessions(ctx context.Context, key string) (string, error)
	SetSessions(ctx context.Context, key, raw string) error
}
