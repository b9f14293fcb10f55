package integration

import (
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"matinee/internal/models"
)

// The suite runs against a live deployment seeded by cmd/generator.
// MATINEE_API_URL selects the target; without it every test skips.

func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("MATINEE_API_URL")
	if url == "" {
		t.Skip("MATINEE_API_URL not set, skipping integration test")
	}
	return url
}

func accountPassword() string {
	if p := os.Getenv("MATINEE_API_PASSWORD"); p != "" {
		return p
	}
	return "secret"
}

// playerClient authenticates as one of the generator's player
// accounts. Distinct indexes give distinct holders.
func playerClient(t *testing.T, n int) *TestClient {
	return NewTestClient(baseURL(t), fmt.Sprintf("player%d@matinee.local", n), accountPassword())
}

func ownerClient(t *testing.T) *TestClient {
	return NewTestClient(baseURL(t), "owner@matinee.local", accountPassword())
}

// shortHoldTTL gates tests that must outlive the hold TTL. The suite
// cannot read server config, so MATINEE_HOLD_TTL_SEC declares what the
// deployment was started with (HOLD_TTL_MIN=1 pairs with 60 here);
// tests skip unless the TTL is short enough to wait out.
func shortHoldTTL(t *testing.T) time.Duration {
	t.Helper()
	raw := os.Getenv("MATINEE_HOLD_TTL_SEC")
	if raw == "" {
		t.Skip("MATINEE_HOLD_TTL_SEC not set, skipping expiry test")
	}
	sec, err := strconv.Atoi(raw)
	if err != nil || sec <= 0 {
		t.Fatalf("invalid MATINEE_HOLD_TTL_SEC %q", raw)
	}
	if sec > 120 {
		t.Skipf("hold TTL %ds too long to wait out", sec)
	}
	return time.Duration(sec) * time.Second
}

// findBookableSession returns an open session with at least min free
// seats, or skips the test.
func findBookableSession(t *testing.T, c *TestClient, min int) models.SessionListItem {
	t.Helper()
	for _, s := range c.ListSessions(t) {
		if s.Status == models.SessionOpen && s.Remaining >= min {
			return s
		}
	}
	t.Skip("no open session with enough free seats, reseed with cmd/generator")
	return models.SessionListItem{}
}
