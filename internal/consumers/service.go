package consumers

import (
	"context"
	"log/slog"

	"matinee/internal/config"
	"matinee/internal/database"
	"matinee/internal/messaging"
	"matinee/internal/repository"
)

// ConsumerService subscribes to reservation events for audit logging.
// The hold sweeper runs alongside it in the same process, wired up by
// cmd/consumers.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := repository.NewRepositories(db, cfg.Reservation.LockTimeout, cfg.Reservation.TxRetries)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: NewHandlers(repos),
	}, nil
}

// Repos exposes the repositories so cmd/consumers can wire the
// sweeper against the same pool.
func (cs *ConsumerService) Repos() *repository.Repositories {
	return cs.repos
}

// NATS exposes the broker connection for the sweeper's events.
func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue("hold.placed", "consumers", cs.handlers.HandleHoldPlaced); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue("hold.released", "consumers", cs.handlers.HandleHoldReleased); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue("holds.expired", "consumers", cs.handlers.HandleHoldsExpired); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue("booking.created", "consumers", cs.handlers.HandleBookingCreated); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue("booking.cancelled", "consumers", cs.handlers.HandleBookingCancelled); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue("payment.settled", "consumers", cs.handlers.HandlePaymentSettled); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
