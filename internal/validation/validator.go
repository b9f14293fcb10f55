// Package validation checks the storage invariants of the reservation
// engine against a live database. Run via `api validate`; intended for
// load-test and post-incident verification.
package validation

import (
	"fmt"
	"log/slog"
	"os"

	"matinee/internal/config"
	"matinee/internal/database"
)

type check struct {
	name  string
	query string
}

// Each query returns one row per violation. A clean database returns
// nothing from any of them.
var checks = []check{
	{
		name: "capacity invariant",
		query: `
			SELECT s.id, s.capacity,
			       (SELECT COUNT(*) FROM bookings b
			        WHERE b.session_id = s.id AND b.payment_state IN ('UNPAID', 'PAID')) +
			       (SELECT COUNT(*) FROM holds h
			        WHERE h.session_id = s.id AND h.state = 'ACTIVE' AND h.expires_at > NOW()) AS occupied
			FROM sessions s
			WHERE (SELECT COUNT(*) FROM bookings b
			       WHERE b.session_id = s.id AND b.payment_state IN ('UNPAID', 'PAID')) +
			      (SELECT COUNT(*) FROM holds h
			       WHERE h.session_id = s.id AND h.state = 'ACTIVE' AND h.expires_at > NOW())
			      > s.capacity`,
	},
	{
		name: "at most one active hold per holder and session",
		query: `
			SELECT session_id, holder_id, COUNT(*)
			FROM holds
			WHERE state = 'ACTIVE'
			GROUP BY session_id, holder_id
			HAVING COUNT(*) > 1`,
	},
	{
		name: "at most one live booking per holder and session",
		query: `
			SELECT session_id, holder_id, COUNT(*)
			FROM bookings
			WHERE payment_state IN ('UNPAID', 'PAID')
			GROUP BY session_id, holder_id
			HAVING COUNT(*) > 1`,
	},
	{
		name: "every paid or refunded booking has a payment settlement",
		query: `
			SELECT b.id, b.payment_state
			FROM bookings b
			WHERE b.payment_state IN ('PAID', 'REFUNDED')
			  AND NOT EXISTS (
			      SELECT 1 FROM settlements st
			      WHERE st.booking_id = b.id AND st.kind = 'PAYMENT')`,
	},
	{
		name: "every refunded booking has a refund settlement",
		query: `
			SELECT b.id
			FROM bookings b
			WHERE b.payment_state = 'REFUNDED'
			  AND NOT EXISTS (
			      SELECT 1 FROM settlements st
			      WHERE st.booking_id = b.id AND st.kind = 'REFUND')`,
	},
	{
		name: "settlement amounts match their booking",
		query: `
			SELECT st.id, st.amount_cents, b.amount_cents
			FROM settlements st
			JOIN bookings b ON b.id = st.booking_id
			WHERE st.amount_cents <> b.amount_cents`,
	},
}

// RunValidation executes every invariant check and exits nonzero when
// any is violated.
func RunValidation() {
	cfg := config.Load()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	failed := 0
	for _, c := range checks {
		violations, err := countRows(db, c.query)
		if err != nil {
			slog.Error("Check failed to run", "check", c.name, "error", err)
			failed++
			continue
		}
		if violations > 0 {
			slog.Error("Invariant violated", "check", c.name, "violations", violations)
			failed++
		} else {
			slog.Info("Invariant holds", "check", c.name)
		}
	}

	if failed > 0 {
		slog.Error("Validation failed", "checks_failed", failed)
		os.Exit(1)
	}
	slog.Info("All invariants hold")
}

func countRows(db *database.DB, query string) (int, error) {
	rows, err := db.Query(query)
	if err != nil {
		return 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}
