// Package repository defines error types that are reused across the
// storage implementations. These sentinel values allow higher layers
// such as the booking service and the handlers to distinguish between
// different failure scenarios without depending on driver-specific
// errors.
package repository

import "errors"

// ErrRideNotFound is returned when a ride id does not resolve to a
// stored ride. Handlers translate this into an HTTP 404 response.
var ErrRideNotFound = errors.New("ride not found")

// ErrBookingNotFound is returned when a booking request id does not
// exist within its ride. Handlers translate this into an HTTP 404
// response.
var ErrBookingNotFound = errors.New("booking request not found")

// ErrVersionConflict is returned when a conditional write detects that
// the ride changed since it was read. The booking service retries a
// bounded number of times before surfacing the failure as a 409.
var ErrVersionConflict = errors.New("ride version conflict")

// ErrSeatsBelowAccepted is returned when a ride update would reduce the
// seat count below the seats already held by accepted booking requests.
// Handlers translate this into an HTTP 400 validation response.
var ErrSeatsBelowAccepted = errors.New("seat count below accepted bookings")
