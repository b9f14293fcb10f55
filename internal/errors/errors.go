// Package errors defines the sentinel errors shared by the reservation
// engine. Handlers map them to HTTP status codes; services and
// repositories wrap them with context via fmt.Errorf("%w").
package errors

import "errors"

// Not-found family.
var ErrSessionNotFound = errors.New("session not found")
var ErrHoldNotFound = errors.New("hold not found")
var ErrBookingNotFound = errors.New("booking not found")

// Conflict family: business-rule violations, safe to retry with
// different input or later.
var ErrSessionFull = errors.New("session is full")
var ErrDuplicateHold = errors.New("holder already has an active hold on this session")
var ErrDuplicateBooking = errors.New("holder already has an active booking on this session")

// Invalid-state family: the operation is not legal for the record's
// current lifecycle state.
var ErrSessionClosed = errors.New("session is not open for reservation")
var ErrAlreadyInactive = errors.New("hold is no longer active")
var ErrAlreadyPaid = errors.New("booking is already paid")
var ErrInvalidState = errors.New("operation not allowed in current state")

// ErrForbidden is returned when the caller attempts an operation on a
// record owned by someone else.
var ErrForbidden = errors.New("operation is forbidden for user")

// ErrUnauthorized is returned when the caller's identity cannot be
// established.
var ErrUnauthorized = errors.New("user is not authorized")

// ErrTransient marks lock-wait timeouts and serialization failures that
// survived the internal retry budget. Callers may retry the request
// as-is.
var ErrTransient = errors.New("transient storage conflict, retry later")
