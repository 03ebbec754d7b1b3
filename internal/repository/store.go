package repository

import (
    "context"
    "strings"
    "time"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// RidePatch carries the fields of a partial ride update. Nil pointers
// mean "leave unchanged". Patching Seats replaces the ride's total seat
// count; the store recomputes AvailableSeats as the new total minus the
// seats currently held by accepted requests and rejects the patch with
// ErrSeatsBelowAccepted when that would go negative.
type RidePatch struct {
    StartPoint   *string
    EndPoint     *string
    RideType     *model.RideType
    Stoppages    *[]model.Stoppage
    TravelDate   *time.Time
    Seats        *int
    PricePerSeat *float64
}

// RideSearchQuery defines the filters for searching rides. All filters
// combine with logical AND. When Date is nil only future rides are
// returned; otherwise the query narrows to that calendar day in the
// date's own location.
type RideSearchQuery struct {
    From     string     // case-insensitive substring against start point
    To       string     // case-insensitive substring against end point
    Date     *time.Time // exact calendar day window
    MinSeats int        // minimum available seats, 0 disables the filter
}

// EnrichedRide is a ride joined with its driver's display fields for
// read-side responses. Driver may be nil when the user row is missing.
type EnrichedRide struct {
    Ride   model.Ride
    Driver *model.User
}

// RequesterBooking is one entry of the flattened "my bookings" listing:
// a booking request enriched with its parent ride's route, date, price
// and driver name for display purposes.
type RequesterBooking struct {
    Booking      model.BookingRequest
    StartPoint   string
    EndPoint     string
    TravelDate   time.Time
    PricePerSeat float64
    DriverID     string
    DriverName   string
}

// RideStore is the storage contract the handlers and the booking
// service operate against. The MySQL implementation is the production
// store; the in-memory implementation serves as a development fallback
// and as the fixture for lifecycle tests.
//
// ApplyDecision is the only method that writes AvailableSeats after
// creation. It persists the request's new status together with the
// ride's new seat count as one atomic, version-checked write and
// returns ErrVersionConflict when the ride changed since it was read.
type RideStore interface {
    CreateRide(ctx context.Context, ride *model.Ride) error
    GetRide(ctx context.Context, id string) (*model.Ride, error)
    UpdateRide(ctx context.Context, id string, patch RidePatch) (*model.Ride, error)
    DeleteRide(ctx context.Context, id string) error
    SearchRides(ctx context.Context, q RideSearchQuery) ([]EnrichedRide, error)

    AppendBooking(ctx context.Context, req *model.BookingRequest) error
    ApplyDecision(ctx context.Context, ride *model.Ride, req *model.BookingRequest) error
    ListBookingsByRequester(ctx context.Context, requesterID string) ([]RequesterBooking, error)

    // GetUsers batch-loads user rows for display enrichment. Missing
    // ids are simply absent from the result; they are not an error.
    GetUsers(ctx context.Context, ids []string) (map[string]model.User, error)
}

// MatchesSearch reports whether a ride satisfies the query filters.
// It is the single definition of the search predicate, shared by the
// in-memory store and by tests; the MySQL store expresses the same
// conditions in SQL.
func MatchesSearch(ride *model.Ride, q RideSearchQuery, now time.Time) bool {
    if q.Date != nil {
        y, m, d := q.Date.Date()
        dayStart := time.Date(y, m, d, 0, 0, 0, 0, q.Date.Location())
        dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)
        if ride.TravelDate.Before(dayStart) || ride.TravelDate.After(dayEnd) {
            return false
        }
    } else if ride.TravelDate.Before(now) {
        return false
    }
    if q.From != "" && !containsFold(ride.StartPoint, q.From) {
        return false
    }
    if q.To != "" && !containsFold(ride.EndPoint, q.To) {
        return false
    }
    if q.MinSeats > 0 && ride.AvailableSeats < q.MinSeats {
        return false
    }
    return true
}

func containsFold(haystack, needle string) bool {
    return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// normalizeStoppages copies the slice and renumbers positions 1..n in
// slice order, so every store persists the same dense ordering no
// matter what position values the client sent.
func normalizeStoppages(stops []model.Stoppage) []model.Stoppage {
    if len(stops) == 0 {
        return nil
    }
    out := make([]model.Stoppage, len(stops))
    for i, s := range stops {
        out[i] = model.Stoppage{Name: s.Name, Position: i + 1}
    }
    return out
}
