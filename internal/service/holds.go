package service

import (
	"context"
	"fmt"
	"time"

	"matinee/internal/logger"
	"matinee/internal/models"
)

type HoldService struct {
	holds HoldStore
	nats  Publisher
	ttl   time.Duration
}

func NewHoldService(holds HoldStore, nats Publisher, ttl time.Duration) *HoldService {
	return &HoldService{holds: holds, nats: nats, ttl: ttl}
}

// Place reserves one seat for the holder with the configured TTL.
func (s *HoldService) Place(ctx context.Context, sessionID, holderID int64) (*models.HoldResponse, error) {
	hold, err := s.holds.Place(ctx, sessionID, holderID, s.ttl)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventHoldPlaced, models.HoldPlacedEvent{
		HoldID:    hold.ID,
		SessionID: hold.SessionID,
		HolderID:  hold.HolderID,
		ExpiresAt: hold.ExpiresAt,
		Timestamp: time.Now(),
	})

	return &models.HoldResponse{
		ID:        hold.ID,
		SessionID: hold.SessionID,
		State:     hold.State,
		ExpiresAt: hold.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// Cancel releases the holder's own active hold.
func (s *HoldService) Cancel(ctx context.Context, holdID, holderID int64) error {
	hold, err := s.holds.Release(ctx, holdID, holderID)
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventHoldReleased, models.HoldReleasedEvent{
		HoldID:    hold.ID,
		SessionID: hold.SessionID,
		HolderID:  hold.HolderID,
		Timestamp: time.Now(),
	})
	return nil
}

// ListMine returns the caller's holds, newest first.
func (s *HoldService) ListMine(ctx context.Context, holderID int64) ([]models.HoldDetail, error) {
	details, err := s.holds.ListByHolder(ctx, holderID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	return details, nil
}

// ListScoped returns holds visible within the admin scope.
func (s *HoldService) ListScoped(ctx context.Context, scope models.Scope) ([]models.HoldDetail, error) {
	details, err := s.holds.ListScoped(ctx, scope, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	return details, nil
}

func (s *HoldService) publish(ctx context.Context, subject string, data interface{}) {
	if s.nats == nil {
		return
	}
	if err := s.nats.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Warn("Failed to publish event", "subject", subject, "error", err)
	}
}
