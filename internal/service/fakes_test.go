package service

import (
	"context"
	"time"

	"matinee/internal/models"
)

// In-memory fakes for the store interfaces. Each records its inputs
// and plays back canned results.

type fakeHoldStore struct {
	placed     *models.Hold
	placeErr   error
	gotTTL     time.Duration
	released   *models.Hold
	releaseErr error
	byHolder   []models.HoldDetail
	scoped     []models.HoldDetail
	gotScope   models.Scope
}

func (f *fakeHoldStore) Place(ctx context.Context, sessionID, holderID int64, ttl time.Duration) (*models.Hold, error) {
	f.gotTTL = ttl
	return f.placed, f.placeErr
}

func (f *fakeHoldStore) Release(ctx context.Context, holdID, holderID int64) (*models.Hold, error) {
	return f.released, f.releaseErr
}

func (f *fakeHoldStore) ListByHolder(ctx context.Context, holderID int64, now time.Time) ([]models.HoldDetail, error) {
	return f.byHolder, nil
}

func (f *fakeHoldStore) ListScoped(ctx context.Context, scope models.Scope, now time.Time) ([]models.HoldDetail, error) {
	f.gotScope = scope
	return f.scoped, nil
}

type fakeBookingStore struct {
	created    *models.Booking
	converted  *int64
	createErr  error
	settled    *models.Settlement
	settleErr  error
	cancelled  *models.Booking
	refund     *models.Settlement
	cancelErr  error
	gotChannel string
	byHolder   []models.BookingDetail
	scoped     []models.BookingDetail
	gotScope   models.Scope
}

func (f *fakeBookingStore) Create(ctx context.Context, sessionID, holderID int64) (*models.Booking, *int64, error) {
	return f.created, f.converted, f.createErr
}

func (f *fakeBookingStore) Settle(ctx context.Context, bookingID int64, channel string) (*models.Settlement, error) {
	f.gotChannel = channel
	return f.settled, f.settleErr
}

func (f *fakeBookingStore) Cancel(ctx context.Context, bookingID, holderID int64) (*models.Booking, *models.Settlement, error) {
	return f.cancelled, f.refund, f.cancelErr
}

func (f *fakeBookingStore) ListByHolder(ctx context.Context, holderID int64) ([]models.BookingDetail, error) {
	return f.byHolder, nil
}

func (f *fakeBookingStore) ListScoped(ctx context.Context, scope models.Scope) ([]models.BookingDetail, error) {
	f.gotScope = scope
	return f.scoped, nil
}

type fakeSessionStore struct {
	session   *models.Session
	items     []models.SessionListItem
	listCalls int
	occupancy *models.OccupancyResponse
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	return f.session, nil
}

func (f *fakeSessionStore) List(ctx context.Context, date string, now time.Time) ([]models.SessionListItem, error) {
	f.listCalls++
	return f.items, nil
}

func (f *fakeSessionStore) Occupancy(ctx context.Context, sessionID int64, now time.Time) (*models.OccupancyResponse, error) {
	return f.occupancy, nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.events = append(f.events, publishedEvent{subject: subject, data: data})
	return f.err
}

type fakeSessionCache struct {
	stored map[string]string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{stored: map[string]string{}}
}

func (f *fakeSessionCache) GetSessions(ctx context.Context, key string) (string, error) {
	return f.stored[key], nil
}

func (f *fakeSessionCache) SetSessions(ctx context.Context, key, raw string) error {
	f.stored[key] = raw
	return nil
}

type fakeResetter struct {
	calls int
	err   error
}

func (f *fakeResetter) Reset(ctx context.Context) error {
	f.calls++
	return f.err
}
