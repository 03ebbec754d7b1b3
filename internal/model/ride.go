package model

import "time"

// RideType distinguishes trips that stay inside a city from trips
// between cities.  The values are stored verbatim in the rides.ride_type
// enum column and appear unchanged on the wire.
type RideType string

const (
    RideTypeInCity    RideType = "in-city"   // trip within one city
    RideTypeIntercity RideType = "intercity" // trip between cities
)

// Valid reports whether t is one of the known ride types.
func (t RideType) Valid() bool {
    return t == RideTypeInCity || t == RideTypeIntercity
}

// Ride represents one driver's offered trip.  A ride owns its booking
// requests: they share the ride's consistency boundary and are removed
// together with it.  AvailableSeats is the number of seats the driver is
// still willing to sell; only the seat reconciler may change it after
// creation, and it must stay within [0, TotalSeats] at all times.
//
// Fields:
//  ID             – opaque UUID identifier.
//  DriverID       – UUID of the driver who posted the ride.
//  StartPoint     – free-text origin of the trip.
//  EndPoint       – free-text destination of the trip.
//  RideType       – in-city or intercity.
//  Stoppages      – intermediate stops in travel order (1-based positions).
//  TravelDate     – departure time; strictly in the future at creation.
//  TotalSeats     – seat count the ride was created with.
//  AvailableSeats – seats not held by an accepted booking request.
//  PricePerSeat   – non-negative price per seat.
//  Version        – optimistic-lock counter guarding seat-state writes.
//  Bookings       – embedded booking requests, in creation order.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Ride struct {
    ID             string           // rides.id
    DriverID       string           // rides.driver_id
    StartPoint     string           // rides.start_point
    EndPoint       string           // rides.end_point
    RideType       RideType         // rides.ride_type
    Stoppages      []Stoppage       // ride_stoppages rows
    TravelDate     time.Time        // rides.travel_date
    TotalSeats     int              // rides.total_seats
    AvailableSeats int              // rides.available_seats
    PricePerSeat   float64          // rides.price_per_seat
    Version        uint32           // rides.version
    Bookings       []BookingRequest // booking_requests rows
    CreatedAt      time.Time        // rides.created_at
    UpdatedAt      time.Time        // rides.updated_at
}

// Stoppage is one intermediate stop on a ride's route.
//
// Fields:
//  Name     – display name of the stop.
//  Position – 1-based order along the route.
type Stoppage struct {
    Name     string `json:"name"`  // ride_stoppages.name
    Position int    `json:"order"` // ride_stoppages.position
}

// AcceptedSeats returns the sum of seats over all embedded requests
// currently in status accepted.  The invariant AvailableSeats ==
// TotalSeats - AcceptedSeats must hold for every persisted ride.
func (r *Ride) AcceptedSeats() int {
    total := 0
    for i := range r.Bookings {
        if r.Bookings[i].Status == BookingStatusAccepted {
            total += r.Bookings[i].Seats
        }
    }
    return total
}

// FindBooking returns a pointer to the embedded booking request with the
// given id, or nil when the ride has no such request.
func (r *Ride) FindBooking(id string) *BookingRequest {
    for i := range r.Bookings {
        if r.Bookings[i].ID == id {
            return &r.Bookings[i]
        }
    }
    return nil
}
