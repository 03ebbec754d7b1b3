package repository

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// MemoryRideStore is a mutex-guarded in-memory implementation of
// RideStore. It is used as the storage fallback when no database is
// configured and as the fixture for booking lifecycle tests. Rides are
// deep-copied on the way in and out so callers can never mutate stored
// state without going through the store; the Version field provides the
// same conditional-write semantics as the MySQL store.
type MemoryRideStore struct {
    mu    sync.Mutex
    rides map[string]*model.Ride
    users map[string]model.User
}

// NewMemoryRideStore returns an empty in-memory store.
func NewMemoryRideStore() *MemoryRideStore {
    return &MemoryRideStore{
        rides: make(map[string]*model.Ride),
        users: make(map[string]model.User),
    }
}

// PutUser stores a user row for driver/passenger enrichment. The MySQL
// store reads these from the users table maintained by the external
// auth collaborator; in memory they must be seeded explicitly.
func (s *MemoryRideStore) PutUser(u model.User) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.users[u.ID] = u
}

// CreateRide assigns an id, version and timestamps and stores a copy of
// the ride. AvailableSeats is initialised to TotalSeats.
func (s *MemoryRideStore) CreateRide(_ context.Context, ride *model.Ride) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    ride.ID = uuid.NewString()
    ride.Version = 1
    ride.AvailableSeats = ride.TotalSeats
    ride.Stoppages = normalizeStoppages(ride.Stoppages)
    now := time.Now().UTC()
    ride.CreatedAt = now
    ride.UpdatedAt = now
    s.rides[ride.ID] = copyRide(ride)
    return nil
}

// GetRide returns a deep copy of the ride with its embedded booking
// requests, or ErrRideNotFound.
func (s *MemoryRideStore) GetRide(_ context.Context, id string) (*model.Ride, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.rides[id]
    if !ok {
        return nil, ErrRideNotFound
    }
    return copyRide(r), nil
}

// UpdateRide applies the non-nil fields of the patch. Patching Seats
// replaces TotalSeats and recomputes AvailableSeats from the accepted
// requests, failing with ErrSeatsBelowAccepted when the new total does
// not cover them.
func (s *MemoryRideStore) UpdateRide(_ context.Context, id string, patch RidePatch) (*model.Ride, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.rides[id]
    if !ok {
        return nil, ErrRideNotFound
    }
    if patch.StartPoint != nil {
        r.StartPoint = *patch.StartPoint
    }
    if patch.EndPoint != nil {
        r.EndPoint = *patch.EndPoint
    }
    if patch.RideType != nil {
        r.RideType = *patch.RideType
    }
    if patch.Stoppages != nil {
        r.Stoppages = normalizeStoppages(*patch.Stoppages)
    }
    if patch.TravelDate != nil {
        r.TravelDate = *patch.TravelDate
    }
    if patch.Seats != nil {
        held := r.AcceptedSeats()
        if *patch.Seats < held {
            return nil, ErrSeatsBelowAccepted
        }
        r.TotalSeats = *patch.Seats
        r.AvailableSeats = *patch.Seats - held
    }
    if patch.PricePerSeat != nil {
        r.PricePerSeat = *patch.PricePerSeat
    }
    r.Version++
    r.UpdatedAt = time.Now().UTC()
    return copyRide(r), nil
}

// DeleteRide removes the ride and, with it, all embedded requests.
func (s *MemoryRideStore) DeleteRide(_ context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.rides[id]; !ok {
        return ErrRideNotFound
    }
    delete(s.rides, id)
    return nil
}

// SearchRides filters rides with MatchesSearch and sorts the result by
// ascending travel date, then ascending price per seat.
func (s *MemoryRideStore) SearchRides(_ context.Context, q RideSearchQuery) ([]EnrichedRide, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now().UTC()
    out := make([]EnrichedRide, 0)
    for _, r := range s.rides {
        if !MatchesSearch(r, q, now) {
            continue
        }
        er := EnrichedRide{Ride: *copyRide(r)}
        if u, ok := s.users[r.DriverID]; ok {
            du := u
            er.Driver = &du
        }
        out = append(out, er)
    }
    sort.Slice(out, func(i, j int) bool {
        a, b := out[i].Ride, out[j].Ride
        if !a.TravelDate.Equal(b.TravelDate) {
            return a.TravelDate.Before(b.TravelDate)
        }
        return a.PricePerSeat < b.PricePerSeat
    })
    return out, nil
}

// AppendBooking adds a new booking request to its ride. The request is
// assigned an id and timestamps; the ride's seat state is untouched, so
// no version bump is needed.
func (s *MemoryRideStore) AppendBooking(_ context.Context, req *model.BookingRequest) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.rides[req.RideID]
    if !ok {
        return ErrRideNotFound
    }
    req.ID = uuid.NewString()
    now := time.Now().UTC()
    req.CreatedAt = now
    req.UpdatedAt = now
    r.Bookings = append(r.Bookings, *req)
    return nil
}

// ApplyDecision persists a status transition together with the ride's
// new seat count. The write only succeeds when the stored ride still
// carries the version the caller read; otherwise ErrVersionConflict is
// returned and nothing changes.
func (s *MemoryRideStore) ApplyDecision(_ context.Context, ride *model.Ride, req *model.BookingRequest) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    stored, ok := s.rides[ride.ID]
    if !ok {
        return ErrRideNotFound
    }
    if stored.Version != ride.Version {
        return ErrVersionConflict
    }
    target := stored.FindBooking(req.ID)
    if target == nil {
        return ErrBookingNotFound
    }
    now := time.Now().UTC()
    stored.AvailableSeats = ride.AvailableSeats
    stored.Version++
    stored.UpdatedAt = now
    target.Status = req.Status
    target.UpdatedAt = now
    ride.Version = stored.Version
    req.UpdatedAt = now
    return nil
}

// ListBookingsByRequester flattens booking requests across all rides
// for one requester, newest first, enriched with ride display fields.
func (s *MemoryRideStore) ListBookingsByRequester(_ context.Context, requesterID string) ([]RequesterBooking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]RequesterBooking, 0)
    for _, r := range s.rides {
        for i := range r.Bookings {
            b := r.Bookings[i]
            if b.RequesterID != requesterID {
                continue
            }
            rb := RequesterBooking{
                Booking:      b,
                StartPoint:   r.StartPoint,
                EndPoint:     r.EndPoint,
                TravelDate:   r.TravelDate,
                PricePerSeat: r.PricePerSeat,
                DriverID:     r.DriverID,
            }
            if u, ok := s.users[r.DriverID]; ok {
                rb.DriverName = u.FullName
            }
            out = append(out, rb)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        return out[i].Booking.CreatedAt.After(out[j].Booking.CreatedAt)
    })
    return out, nil
}

// GetUsers returns the seeded user rows for the requested ids. Ids
// that were never seeded are left out of the result.
func (s *MemoryRideStore) GetUsers(_ context.Context, ids []string) (map[string]model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make(map[string]model.User, len(ids))
    for _, id := range ids {
        if u, ok := s.users[id]; ok {
            out[id] = u
        }
    }
    return out, nil
}

func copyRide(r *model.Ride) *model.Ride {
    c := *r
    c.Stoppages = append([]model.Stoppage(nil), r.Stoppages...)
    c.Bookings = append([]model.BookingRequest(nil), r.Bookings...)
    return &c
}
