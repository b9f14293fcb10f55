package service

import (
	"context"
	"fmt"

	apperrors "matinee/internal/errors"
	"matinee/internal/logger"
)

// Resetter clears all reservation state. Implemented by the
// repository layer.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ResetService wipes holds, bookings and settlements for test
// environments. Refused outright in production.
type ResetService struct {
	store Resetter
	env   string
}

func NewResetService(store Resetter, env string) *ResetService {
	return &ResetService{store: store, env: env}
}

func (s *ResetService) Reset(ctx context.Context) error {
	if s.env == "prod" {
		return apperrors.ErrForbidden
	}
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset reservation state: %w", err)
	}
	logger.WithContext(ctx).Warn("Reservation state reset", "env", s.env)
	return nil
}
