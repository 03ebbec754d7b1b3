package booking

import (
    "context"
    "errors"

    "github.com/iliyamo/ride-share-booking/internal/model"
    "github.com/iliyamo/ride-share-booking/internal/repository"
)

// ErrForbidden is returned when the caller is not the ride's driver on
// an owner-only operation. No partial effect ever precedes it.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidSeats is returned when a booking request asks for fewer
// than one seat.
var ErrInvalidSeats = errors.New("seats must be at least 1")

// ErrInvalidStatus is returned when a transition targets a status other
// than accepted or rejected.
var ErrInvalidStatus = errors.New("status must be accepted or rejected")

// decisionRetries bounds how often a status transition is replayed
// after losing a version race before the conflict is surfaced.
const decisionRetries = 3

// Service orchestrates the booking-request lifecycle on top of a
// RideStore. It enforces the ownership guard, delegates all seat math
// to Reconcile and never swallows a seat-availability failure.
type Service struct {
    store repository.RideStore
}

// NewService returns a Service bound to the given store.
func NewService(store repository.RideStore) *Service {
    if store == nil {
        panic("nil store passed to booking.NewService")
    }
    return &Service{store: store}
}

// CreateRequest appends a new pending request to the ride. Availability
// is checked at creation time as a courtesy only; no seats are held and
// the deduction happens on acceptance. Self-booking by the driver is
// not blocked.
func (s *Service) CreateRequest(ctx context.Context, rideID, requesterID string, seats int, message string) (*model.BookingRequest, error) {
    if seats < 1 {
        return nil, ErrInvalidSeats
    }
    ride, err := s.store.GetRide(ctx, rideID)
    if err != nil {
        return nil, err
    }
    if ride.AvailableSeats < seats {
        return nil, &SeatAvailabilityError{Available: ride.AvailableSeats, Requested: seats}
    }
    req := &model.BookingRequest{
        RideID:      rideID,
        RequesterID: requesterID,
        Seats:       seats,
        Message:     message,
        Status:      model.BookingStatusPending,
    }
    if err := s.store.AppendBooking(ctx, req); err != nil {
        return nil, err
    }
    return req, nil
}

// ListForRide returns the ride's embedded booking requests. Only the
// ride's driver may see them; a missing ride surfaces as not-found
// before the ownership check is reached.
func (s *Service) ListForRide(ctx context.Context, rideID string, caller interface{}) ([]model.BookingRequest, error) {
    ride, err := s.store.GetRide(ctx, rideID)
    if err != nil {
        return nil, err
    }
    if !IsOwner(ride, caller) {
        return nil, ErrForbidden
    }
    return ride.Bookings, nil
}

// ListForRequester returns the caller's requests across all rides,
// enriched with each parent ride's route, date, price and driver name.
func (s *Service) ListForRequester(ctx context.Context, requesterID string) ([]repository.RequesterBooking, error) {
    return s.store.ListBookingsByRequester(ctx, requesterID)
}

// Decision is the outcome of a successful status transition. Ride is
// the post-transition ride state, for callers that publish events or
// render responses without another read.
type Decision struct {
    Ride           *model.Ride
    Request        *model.BookingRequest
    AvailableSeats int
}

// Transition moves a booking request to accepted or rejected on behalf
// of the ride's driver. The seat reconciliation and the status write
// are persisted as one version-checked unit; when another writer wins
// the race the operation re-reads the ride and replays, at most
// decisionRetries times. Seat-availability failures propagate untouched
// and leave the stored request exactly as it was.
func (s *Service) Transition(ctx context.Context, rideID, requestID string, caller interface{}, newStatus model.BookingStatus) (*Decision, error) {
    if newStatus != model.BookingStatusAccepted && newStatus != model.BookingStatusRejected {
        return nil, ErrInvalidStatus
    }
    var lastErr error
    for attempt := 0; attempt < decisionRetries; attempt++ {
        ride, err := s.store.GetRide(ctx, rideID)
        if err != nil {
            return nil, err
        }
        req := ride.FindBooking(requestID)
        if req == nil {
            return nil, repository.ErrBookingNotFound
        }
        if !IsOwner(ride, caller) {
            return nil, ErrForbidden
        }
        if err := Reconcile(ride, req, req.Status, newStatus); err != nil {
            return nil, err
        }
        req.Status = newStatus
        if err := s.store.ApplyDecision(ctx, ride, req); err != nil {
            if errors.Is(err, repository.ErrVersionConflict) {
                lastErr = err
                continue
            }
            return nil, err
        }
        return &Decision{Ride: ride, Request: req, AvailableSeats: ride.AvailableSeats}, nil
    }
    return nil, lastErr
}
