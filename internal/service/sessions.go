package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "matinee/internal/errors"
	"matinee/internal/logger"
	"matinee/internal/models"
)

const sessionsCacheKey = "sessions:list"

type SessionService struct {
	sessions SessionStore
	cache    SessionCache
}

func NewSessionService(sessions SessionStore, cache SessionCache) *SessionService {
	return &SessionService{sessions: sessions, cache: cache}
}

// List returns open sessions with derived occupancy. The unfiltered
// list is served from the Valkey cache when possible; occupancy in it
// is at most the cache TTL stale, which is fine for display. The
// reservation path never reads this cache.
func (s *SessionService) List(ctx context.Context, date string) ([]models.SessionListItem, error) {
	cacheable := date == "" && s.cache != nil

	if cacheable {
		if raw, err := s.cache.GetSessions(ctx, sessionsCacheKey); err == nil && raw != "" {
			var items []models.SessionListItem
			if json.Unmarshal([]byte(raw), &items) == nil {
				return items, nil
			}
		}
	}

	items, err := s.sessions.List(ctx, date, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	if cacheable {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.cache.SetSessions(ctx, sessionsCacheKey, string(raw)); err != nil {
				logger.WithContext(ctx).Warn("Failed to cache session list", "error", err)
			}
		}
	}

	return items, nil
}

// Occupancy reports occupied/capacity/remaining for one session,
// always freshly derived.
func (s *SessionService) Occupancy(ctx context.Context, sessionID int64) (*models.OccupancyResponse, error) {
	resp, err := s.sessions.Occupancy(ctx, sessionID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to derive occupancy: %w", err)
	}
	if resp == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return resp, nil
}
