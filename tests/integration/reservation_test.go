package integration

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"matinee/internal/models"
)

func TestSessionsList(t *testing.T) {
	c := playerClient(t, 1)

	sessions := c.ListSessions(t)
	if len(sessions) == 0 {
		t.Fatal("expected at least one session, reseed with cmd/generator")
	}

	for _, s := range sessions {
		if s.Occupied+s.Remaining != s.Capacity {
			t.Fatalf("session %d: occupied %d + remaining %d != capacity %d",
				s.ID, s.Occupied, s.Remaining, s.Capacity)
		}
	}
}

// Capacity invariant under contention: more concurrent holders than
// free seats, exactly the free-seat count succeeds, the rest get 409.
func TestConcurrentHoldsNeverExceedCapacity(t *testing.T) {
	observer := ownerClient(t)
	session := findBookableSession(t, observer, 2)

	free := session.Remaining
	contenders := free + 5

	type outcome struct {
		status int
		err    error
	}
	results := make([]outcome, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := playerClient(t, i+1)
			status, _, err := c.TryPlaceHold(session.ID)
			results[i] = outcome{status: status, err: err}
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for i, r := range results {
		if r.err != nil {
			t.Fatalf("contender %d: request failed: %v", i+1, r.err)
		}
		switch r.status {
		case http.StatusCreated:
			succeeded++
		case http.StatusConflict:
			conflicted++
		default:
			t.Errorf("contender %d: unexpected status %d", i+1, r.status)
		}
	}

	if succeeded != free {
		t.Fatalf("expected exactly %d winning holds, got %d (%d conflicts)",
			free, succeeded, conflicted)
	}

	occ := observer.Occupancy(t, session.ID)
	if occ.Occupied > occ.Capacity {
		t.Fatalf("capacity invariant violated: occupied %d > capacity %d",
			occ.Occupied, occ.Capacity)
	}
	if occ.Remaining != 0 {
		t.Fatalf("expected session to be full, remaining %d", occ.Remaining)
	}

	// Cleanup: release the holds just placed.
	for i := 0; i < contenders; i++ {
		c := playerClient(t, i+1)
		for _, h := range c.ListHolds(t) {
			if h.SessionID == session.ID && h.State == models.HoldActive {
				c.CancelHold(t, h.ID)
			}
		}
	}
}

// Hold then book: conversion must not consume a second seat, and the
// recorded amount comes from the session price.
func TestHoldConversionIsCapacityNeutral(t *testing.T) {
	observer := ownerClient(t)
	session := findBookableSession(t, observer, 1)
	c := playerClient(t, 40)

	status, hold, err := c.TryPlaceHold(session.ID)
	if err != nil {
		t.Fatalf("place hold: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("place hold: expected 201, got %d", status)
	}

	afterHold := observer.Occupancy(t, session.ID)

	status, booking, err := c.TryCreateBooking(session.ID)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("create booking: expected 201, got %d", status)
	}
	if booking.Amount != session.Price {
		t.Fatalf("amount %s does not match session price %s", booking.Amount, session.Price)
	}

	afterBooking := observer.Occupancy(t, session.ID)
	if afterBooking.Occupied != afterHold.Occupied {
		t.Fatalf("conversion changed occupancy: %d -> %d",
			afterHold.Occupied, afterBooking.Occupied)
	}

	// The hold must now be converted, not active.
	for _, h := range c.ListHolds(t) {
		if h.ID == hold.ID && h.State == models.HoldActive {
			t.Fatalf("hold %d still active after conversion", h.ID)
		}
	}

	// Cleanup.
	if status, _ := c.CancelBooking(t, booking.ID); status != http.StatusOK {
		t.Fatalf("cleanup cancel: expected 200, got %d", status)
	}
}

// Section scenario: capacity released by cancellation is immediately
// reusable by another holder.
func TestCancellationReleasesCapacity(t *testing.T) {
	observer := ownerClient(t)
	session := findBookableSession(t, observer, 1)
	a := playerClient(t, 41)
	b := playerClient(t, 42)

	// A books; drain the remaining seats with holds so B is blocked.
	status, booking, err := a.TryCreateBooking(session.ID)
	if err != nil {
		t.Fatalf("A create booking: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("A create booking: expected 201, got %d", status)
	}

	var drained []struct {
		c    *TestClient
		hold int64
	}
	for i := 0; ; i++ {
		occ := observer.Occupancy(t, session.ID)
		if occ.Remaining == 0 {
			break
		}
		c := playerClient(t, 43+i)
		st, hold, err := c.TryPlaceHold(session.ID)
		if err != nil {
			t.Fatalf("drain hold: %v", err)
		}
		if st != http.StatusCreated {
			t.Fatalf("drain hold: expected 201, got %d", st)
		}
		drained = append(drained, struct {
			c    *TestClient
			hold int64
		}{c, hold.ID})
	}

	if st, _, err := b.TryCreateBooking(session.ID); err != nil {
		t.Fatalf("B create booking: %v", err)
	} else if st != http.StatusConflict {
		t.Fatalf("B on full session: expected 409, got %d", st)
	}

	if st, _ := a.CancelBooking(t, booking.ID); st != http.StatusOK {
		t.Fatalf("A cancel: expected 200, got %d", st)
	}

	st, bBooking, err := b.TryCreateBooking(session.ID)
	if err != nil {
		t.Fatalf("B retry: %v", err)
	}
	if st != http.StatusCreated {
		t.Fatalf("B retry after cancel: expected 201, got %d", st)
	}

	// Cleanup.
	b.CancelBooking(t, bBooking.ID)
	for _, d := range drained {
		d.c.CancelHold(t, d.hold)
	}
}

// A hold past its TTL stops counting without any explicit release or
// sweeper run: the seats recover on their own and a blocked booking
// goes through, and releasing the overdue hold reports it inactive.
func TestExpiredHoldFreesCapacity(t *testing.T) {
	ttl := shortHoldTTL(t)
	observer := ownerClient(t)
	session := findBookableSession(t, observer, 1)
	b := playerClient(t, 48)

	// Drain every free seat with holds so B cannot book.
	var holders []*TestClient
	for i := 0; ; i++ {
		occ := observer.Occupancy(t, session.ID)
		if occ.Remaining == 0 {
			break
		}
		c := playerClient(t, 50+i)
		st, _, err := c.TryPlaceHold(session.ID)
		if err != nil {
			t.Fatalf("drain hold: %v", err)
		}
		if st != http.StatusCreated {
			t.Fatalf("drain hold: expected 201, got %d", st)
		}
		holders = append(holders, c)
	}
	placed := time.Now()

	if st, _, err := b.TryCreateBooking(session.ID); err != nil {
		t.Fatalf("B create booking: %v", err)
	} else if st != http.StatusConflict {
		t.Fatalf("B on drained session: expected 409, got %d", st)
	}

	// Nobody releases anything. Once the TTL elapses the capacity
	// must come back by itself.
	time.Sleep(time.Until(placed.Add(ttl + 2*time.Second)))

	occ := observer.Occupancy(t, session.ID)
	if occ.Remaining == 0 {
		t.Fatalf("no capacity freed after TTL: occupied %d of %d",
			occ.Occupied, occ.Capacity)
	}

	st, booking, err := b.TryCreateBooking(session.ID)
	if err != nil {
		t.Fatalf("B after TTL: %v", err)
	}
	if st != http.StatusCreated {
		t.Fatalf("B after TTL: expected 201, got %d", st)
	}

	// Releasing an overdue hold conflicts and the hold reads back as
	// expired, not released.
	for _, h := range holders[0].ListHolds(t) {
		if h.SessionID != session.ID {
			continue
		}
		if st := holders[0].CancelHold(t, h.ID); st != http.StatusConflict {
			t.Fatalf("release overdue hold: expected 409, got %d", st)
		}
		if got := holders[0].ListHolds(t); len(got) > 0 {
			for _, hh := range got {
				if hh.ID == h.ID && hh.State != models.HoldExpired {
					t.Fatalf("overdue hold %d: expected EXPIRED, got %s", hh.ID, hh.State)
				}
			}
		}
	}

	// Cleanup.
	b.CancelBooking(t, booking.ID)
}

// Settle then cancel: a paid booking refunds rather than deletes.
func TestPaidBookingRefundsOnCancel(t *testing.T) {
	observer := ownerClient(t)
	session := findBookableSession(t, observer, 1)
	c := playerClient(t, 45)

	status, booking, err := c.TryCreateBooking(session.ID)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("create booking: expected 201, got %d", status)
	}

	status, settlement := c.SettlePayment(t, booking.ID, models.ChannelWeChat)
	if status != http.StatusOK {
		t.Fatalf("settle: expected 200, got %d", status)
	}
	if settlement.Kind != models.SettlementPayment || settlement.Amount != booking.Amount {
		t.Fatalf("unexpected settlement %+v", settlement)
	}

	// Settling twice conflicts.
	if st, _ := c.SettlePayment(t, booking.ID, models.ChannelWeChat); st != http.StatusConflict {
		t.Fatalf("double settle: expected 409, got %d", st)
	}

	st, cancelled := c.CancelBooking(t, booking.ID)
	if st != http.StatusOK {
		t.Fatalf("cancel paid booking: expected 200, got %d", st)
	}
	if cancelled.PaymentState != models.BookingRefunded {
		t.Fatalf("expected REFUNDED, got %s", cancelled.PaymentState)
	}

	// Terminal states reject further cancels.
	if st, _ := c.CancelBooking(t, booking.ID); st != http.StatusConflict {
		t.Fatalf("cancel refunded booking: expected 409, got %d", st)
	}
}

func TestDuplicateHoldRejected(t *testing.T) {
	observer := ownerClient(t)
	session := findBookableSession(t, observer, 2)
	c := playerClient(t, 46)

	status, hold, err := c.TryPlaceHold(session.ID)
	if err != nil {
		t.Fatalf("place hold: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("place hold: expected 201, got %d", status)
	}
	defer c.CancelHold(t, hold.ID)

	if st, _, err := c.TryPlaceHold(session.ID); err != nil {
		t.Fatalf("duplicate hold: %v", err)
	} else if st != http.StatusConflict {
		t.Fatalf("duplicate hold: expected 409, got %d", st)
	}
}
