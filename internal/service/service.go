package service

import (
	"matinee/internal/cache"
	"matinee/internal/config"
	"matinee/internal/messaging"
	"matinee/internal/repository"
)

type Services struct {
	Sessions *SessionService
	Holds    *HoldService
	Bookings *BookingService
	Reset    *ResetService
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, valkeyClient *cache.ValkeyClient, cfg *config.Config) *Services {
	// Typed nils must not end up inside non-nil interface values.
	var pub Publisher
	if natsClient != nil {
		pub = natsClient
	}
	var sessionCache SessionCache
	if valkeyClient != nil {
		sessionCache = valkeyClient
	}

	return &Services{
		Sessions: NewSessionService(repos.Sessions, sessionCache),
		Holds:    NewHoldService(repos.Holds, pub, cfg.Reservation.HoldTTL),
		Bookings: NewBookingService(repos.Bookings, pub),
		Reset:    NewResetService(repos, cfg.Env),
	}
}
