// Package booking implements the booking-request lifecycle: seat
// inventory reconciliation, the ride ownership guard and the service
// that orchestrates create/list/transition operations on top of a
// repository.RideStore.
package booking

import (
    "fmt"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// SeatAvailabilityError reports that a booking request asks for more
// seats than the ride has left. It carries both counts so the client
// can render an exact message without re-fetching the ride. When the
// ride has no seats left at all the error reports the more specific
// SEATS_FULL code instead of the generic INSUFFICIENT_SEATS.
type SeatAvailabilityError struct {
    Available int // seats the ride still has
    Requested int // seats the request asked for
}

func (e *SeatAvailabilityError) Error() string {
    if e.Full() {
        return "no seats available on this ride"
    }
    return fmt.Sprintf("only %d seat(s) available, %d requested", e.Available, e.Requested)
}

// Full reports whether the ride is completely booked out.
func (e *SeatAvailabilityError) Full() bool { return e.Available == 0 }

// Code returns the stable machine-readable error code.
func (e *SeatAvailabilityError) Code() string {
    if e.Full() {
        return "SEATS_FULL"
    }
    return "INSUFFICIENT_SEATS"
}

// Reconcile adjusts a ride's AvailableSeats for a booking-status change
// and rejects transitions that the inventory cannot cover. It is the
// sole authority over the seat counter: no other code path may touch
// AvailableSeats after ride creation.
//
//   - moving into accepted deducts the request's seats, requiring
//     AvailableSeats >= Seats; otherwise a SeatAvailabilityError is
//     returned and the ride is left untouched.
//   - moving out of accepted unconditionally returns the held seats.
//   - every other transition (pending -> rejected, no-op, ...) leaves
//     the counter alone.
//
// The ride is mutated in memory only; the caller must persist the seat
// count together with the status write as one atomic unit.
func Reconcile(ride *model.Ride, req *model.BookingRequest, oldStatus, newStatus model.BookingStatus) error {
    switch {
    case newStatus == model.BookingStatusAccepted && oldStatus != model.BookingStatusAccepted:
        if ride.AvailableSeats < req.Seats {
            return &SeatAvailabilityError{Available: ride.AvailableSeats, Requested: req.Seats}
        }
        ride.AvailableSeats -= req.Seats
    case oldStatus == model.BookingStatusAccepted && newStatus != model.BookingStatusAccepted:
        ride.AvailableSeats += req.Seats
    }
    return nil
}
