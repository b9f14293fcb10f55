package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matinee/internal/cache"
	apperrors "matinee/internal/errors"
	"matinee/internal/middleware"
	"matinee/internal/models"
	"matinee/internal/service"
)

// Stub stores wired through real services; each test sets the canned
// result or error it needs.

type stubHolds struct {
	hold       *models.Hold
	placeErr   error
	releaseErr error
	scoped     []models.HoldDetail
	gotScope   models.Scope
}

func (s *stubHolds) Place(ctx context.Context, sessionID, holderID int64, ttl time.Duration) (*models.Hold, error) {
	return s.hold, s.placeErr
}

func (s *stubHolds) Release(ctx context.Context, holdID, holderID int64) (*models.Hold, error) {
	if s.releaseErr != nil {
		return nil, s.releaseErr
	}
	return s.hold, nil
}

func (s *stubHolds) ListByHolder(ctx context.Context, holderID int64, now time.Time) ([]models.HoldDetail, error) {
	return nil, nil
}

func (s *stubHolds) ListScoped(ctx context.Context, scope models.Scope, now time.Time) ([]models.HoldDetail, error) {
	s.gotScope = scope
	return s.scoped, nil
}

type stubBookings struct {
	booking   *models.Booking
	createErr error
	settled   *models.Settlement
	settleErr error
	cancelErr error
}

func (s *stubBookings) Create(ctx context.Context, sessionID, holderID int64) (*models.Booking, *int64, error) {
	return s.booking, nil, s.createErr
}

func (s *stubBookings) Settle(ctx context.Context, bookingID int64, channel string) (*models.Settlement, error) {
	return s.settled, s.settleErr
}

func (s *stubBookings) Cancel(ctx context.Context, bookingID, holderID int64) (*models.Booking, *models.Settlement, error) {
	if s.cancelErr != nil {
		return nil, nil, s.cancelErr
	}
	return s.booking, nil, nil
}

func (s *stubBookings) ListByHolder(ctx context.Context, holderID int64) ([]models.BookingDetail, error) {
	return nil, nil
}

func (s *stubBookings) ListScoped(ctx context.Context, scope models.Scope) ([]models.BookingDetail, error) {
	return nil, nil
}

type stubSessions struct {
	occupancy *models.OccupancyResponse
}

func (s *stubSessions) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	return nil, nil
}

func (s *stubSessions) List(ctx context.Context, date string, now time.Time) ([]models.SessionListItem, error) {
	return nil, nil
}

func (s *stubSessions) Occupancy(ctx context.Context, sessionID int64, now time.Time) (*models.OccupancyResponse, error) {
	return s.occupancy, nil
}

type stubResetter struct{ err error }

func (s *stubResetter) Reset(ctx context.Context) error { return s.err }

type testEnv struct {
	holds    *stubHolds
	bookings *stubBookings
	sessions *stubSessions
	router   *gin.Engine
}

func newTestEnv(identity cache.Identity, env string) *testEnv {
	gin.SetMode(gin.TestMode)

	te := &testEnv{
		holds:    &stubHolds{},
		bookings: &stubBookings{},
		sessions: &stubSessions{},
	}

	svcs := &service.Services{
		Sessions: service.NewSessionService(te.sessions, nil),
		Holds:    service.NewHoldService(te.holds, nil, 15*time.Minute),
		Bookings: service.NewBookingService(te.bookings, nil),
		Reset:    service.NewResetService(&stubResetter{}, env),
	}
	h := NewHandlers(svcs)

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.AuthAs(identity))
	{
		api.GET("/sessions/:id/occupancy", h.GetOccupancy)
		api.POST("/holds", h.PlaceHold)
		api.PATCH("/holds/cancel", h.CancelHold)
		api.GET("/holds", h.ListHolds)
		api.POST("/bookings", h.CreateBooking)
		api.PATCH("/bookings/settle", h.SettlePayment)
		api.PATCH("/bookings/cancel", h.CancelBooking)
		api.GET("/bookings", h.ListBookings)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/holds", h.AdminListHolds)
			admin.GET("/bookings", h.AdminListBookings)
			admin.POST("/reset", h.AdminReset)
		}
	}

	te.router = router
	return te
}

func player(id int64) cache.Identity {
	return cache.Identity{UserID: id, Role: models.RolePlayer}
}

func (te *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	te.router.ServeHTTP(w, req)
	return w
}

func TestPlaceHoldCreated(t *testing.T) {
	te := newTestEnv(player(7), "test")
	te.holds.hold = &models.Hold{
		ID: 11, SessionID: 3, HolderID: 7,
		State:     models.HoldActive,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}

	w := te.do(t, "POST", "/api/holds", models.PlaceHoldRequest{SessionID: 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.HoldResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, models.HoldActive, resp.State)
}

func TestPlaceHoldValidation(t *testing.T) {
	te := newTestEnv(player(7), "test")

	w := te.do(t, "POST", "/api/holds", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceHoldConflicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"session full", apperrors.ErrSessionFull, http.StatusConflict},
		{"duplicate hold", apperrors.ErrDuplicateHold, http.StatusConflict},
		{"session closed", apperrors.ErrSessionClosed, http.StatusConflict},
		{"session missing", apperrors.ErrSessionNotFound, http.StatusNotFound},
		{"transient", apperrors.ErrTransient, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			te := newTestEnv(player(7), "test")
			te.holds.placeErr = tc.err

			w := te.do(t, "POST", "/api/holds", models.PlaceHoldRequest{SessionID: 3})
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCancelHoldForbidden(t *testing.T) {
	te := newTestEnv(player(99), "test")
	te.holds.releaseErr = apperrors.ErrForbidden

	w := te.do(t, "PATCH", "/api/holds/cancel", models.CancelHoldRequest{HoldID: 11})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBookingCreated(t *testing.T) {
	te := newTestEnv(player(7), "test")
	te.bookings.booking = &models.Booking{
		ID: 21, SessionID: 3, HolderID: 7,
		AmountCents:  16800,
		PaymentState: models.BookingUnpaid,
	}

	w := te.do(t, "POST", "/api/bookings", models.CreateBookingRequest{SessionID: 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "168.00", resp.Amount)
	assert.Equal(t, models.BookingUnpaid, resp.PaymentState)
}

func TestCreateBookingIgnoresClientAmount(t *testing.T) {
	te := newTestEnv(player(7), "test")
	te.bookings.booking = &models.Booking{
		ID: 21, SessionID: 3, HolderID: 7,
		AmountCents:  16800,
		PaymentState: models.BookingUnpaid,
	}

	// A smuggled amount field must not change the recorded price.
	w := te.do(t, "POST", "/api/bookings", map[string]interface{}{
		"session_id": 3,
		"amount":     "0.01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "168.00", resp.Amount)
}

func TestSettlePaymentBadChannel(t *testing.T) {
	te := newTestEnv(player(7), "test")

	w := te.do(t, "PATCH", "/api/bookings/settle", models.SettlePaymentRequest{
		BookingID: 21, Channel: "PAYPAL",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettlePaymentStates(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"already paid", apperrors.ErrAlreadyPaid, http.StatusConflict},
		{"cancelled", apperrors.ErrInvalidState, http.StatusConflict},
		{"missing", apperrors.ErrBookingNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			te := newTestEnv(player(7), "test")
			te.bookings.settleErr = tc.err

			w := te.do(t, "PATCH", "/api/bookings/settle", models.SettlePaymentRequest{
				BookingID: 21, Channel: models.ChannelWeChat,
			})
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCancelBookingOK(t *testing.T) {
	te := newTestEnv(player(7), "test")
	te.bookings.booking = &models.Booking{
		ID: 21, SessionID: 3, HolderID: 7,
		AmountCents:  16800,
		PaymentState: models.BookingCancelled,
	}

	w := te.do(t, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: 21})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.BookingCancelled, resp.PaymentState)
}

func TestGetOccupancy(t *testing.T) {
	te := newTestEnv(player(7), "test")
	te.sessions.occupancy = &models.OccupancyResponse{SessionID: 3, Occupied: 5, Capacity: 6, Remaining: 1}

	w := te.do(t, "GET", "/api/sessions/3/occupancy", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.OccupancyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Remaining)
}

func TestGetOccupancyBadID(t *testing.T) {
	te := newTestEnv(player(7), "test")

	w := te.do(t, "GET", "/api/sessions/abc/occupancy", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesForbiddenForPlayers(t *testing.T) {
	te := newTestEnv(player(7), "test")

	w := te.do(t, "GET", "/api/admin/holds", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHoldsScopedToStaffHost(t *testing.T) {
	hostID := int64(4)
	te := newTestEnv(cache.Identity{UserID: 2, Role: models.RoleStaff, HostID: &hostID}, "test")
	te.holds.scoped = []models.HoldDetail{{ID: 1, SessionID: 3}}

	w := te.do(t, "GET", "/api/admin/holds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, te.holds.gotScope.HostID)
	assert.Equal(t, hostID, *te.holds.gotScope.HostID)
}

func TestAdminHoldsOwnerSeesAll(t *testing.T) {
	te := newTestEnv(cache.Identity{UserID: 1, Role: models.RoleOwner}, "test")

	w := te.do(t, "GET", "/api/admin/holds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, te.holds.gotScope.HostID)
}

func TestAdminResetRefusedInProd(t *testing.T) {
	te := newTestEnv(cache.Identity{UserID: 1, Role: models.RoleOwner}, "prod")

	w := te.do(t, "POST", "/api/admin/reset", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminResetOK(t *testing.T) {
	te := newTestEnv(cache.Identity{UserID: 1, Role: models.RoleOwner}, "test")

	w := te.do(t, "POST", "/api/admin/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
