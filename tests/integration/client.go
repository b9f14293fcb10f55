package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"matinee/internal/models"
)

// TestClient drives a live deployment over HTTP as one authenticated
// user.
type TestClient struct {
	BaseURL    string
	Email      string
	Password   string
	HTTPClient *http.Client
}

func NewTestClient(baseURL, email, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		Email:    email,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do performs one authenticated request. It never touches testing.T,
// so it is safe to call from spawned goroutines.
func (c *TestClient) do(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.Email, c.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.HTTPClient.Do(req)
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	resp, err := c.do(method, path, body)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func (c *TestClient) ListSessions(t *testing.T) []models.SessionListItem {
	resp := c.makeRequest(t, "GET", "/api/sessions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/sessions: expected 200, got %d", resp.StatusCode)
	}
	var sessions []models.SessionListItem
	decode(t, resp, &sessions)
	return sessions
}

func (c *TestClient) Occupancy(t *testing.T, sessionID int64) models.OccupancyResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/sessions/%d/occupancy", sessionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET occupancy: expected 200, got %d", resp.StatusCode)
	}
	var occ models.OccupancyResponse
	decode(t, resp, &occ)
	return occ
}

// TryPlaceHold returns the status code and, on 201, the created hold.
// It reports failures as errors rather than failing the test, so it
// may be called from spawned goroutines.
func (c *TestClient) TryPlaceHold(sessionID int64) (int, *models.HoldResponse, error) {
	resp, err := c.do("POST", "/api/holds", models.PlaceHoldRequest{SessionID: sessionID})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, nil, nil
	}
	var hold models.HoldResponse
	if err := json.NewDecoder(resp.Body).Decode(&hold); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode hold: %w", err)
	}
	return http.StatusCreated, &hold, nil
}

// TryCreateBooking returns the status code and, on 201, the booking.
// Goroutine-safe like TryPlaceHold.
func (c *TestClient) TryCreateBooking(sessionID int64) (int, *models.BookingResponse, error) {
	resp, err := c.do("POST", "/api/bookings", models.CreateBookingRequest{SessionID: sessionID})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, nil, nil
	}
	var booking models.BookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode booking: %w", err)
	}
	return http.StatusCreated, &booking, nil
}

func (c *TestClient) CancelHold(t *testing.T, holdID int64) int {
	resp := c.makeRequest(t, "PATCH", "/api/holds/cancel", models.CancelHoldRequest{HoldID: holdID})
	resp.Body.Close()
	return resp.StatusCode
}

func (c *TestClient) SettlePayment(t *testing.T, bookingID int64, channel string) (int, *models.SettlementResponse) {
	resp := c.makeRequest(t, "PATCH", "/api/bookings/settle", models.SettlePaymentRequest{
		BookingID: bookingID,
		Channel:   channel,
	})
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return resp.StatusCode, nil
	}
	var settlement models.SettlementResponse
	decode(t, resp, &settlement)
	return http.StatusOK, &settlement
}

func (c *TestClient) CancelBooking(t *testing.T, bookingID int64) (int, *models.BookingResponse) {
	resp := c.makeRequest(t, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: bookingID})
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return resp.StatusCode, nil
	}
	var booking models.BookingResponse
	decode(t, resp, &booking)
	return http.StatusOK, &booking
}

func (c *TestClient) ListHolds(t *testing.T) []models.HoldDetail {
	resp := c.makeRequest(t, "GET", "/api/holds", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/holds: expected 200, got %d", resp.StatusCode)
	}
	var holds []models.HoldDetail
	decode(t, resp, &holds)
	return holds
}

func (c *TestClient) Reset(t *testing.T) int {
	resp := c.makeRequest(t, "POST", "/api/admin/reset", nil)
	resp.Body.Close()
	return resp.StatusCode
}
