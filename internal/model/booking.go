package model

import "time"

// BookingStatus is the lifecycle state of a booking request.  A request
// starts as pending and is moved by the ride's driver.  Transitions are
// deliberately open: any move between the three states is mechanically
// legal as long as the seat arithmetic succeeds, including reopening a
// rejected request.
type BookingStatus string

const (
    BookingStatusPending  BookingStatus = "pending"
    BookingStatusAccepted BookingStatus = "accepted"
    BookingStatusRejected BookingStatus = "rejected"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
    return s == BookingStatusPending || s == BookingStatusAccepted || s == BookingStatusRejected
}

// BookingRequest records one rider's ask for a number of seats on a
// specific ride.  While the status is accepted its seats are deducted
// from the parent ride's AvailableSeats; in any other status no seats
// are held.  Requests are never deleted independently of their ride.
//
// Fields:
//  ID          – opaque UUID identifier, unique within the parent ride.
//  RideID      – ride this request belongs to.
//  RequesterID – UUID of the rider asking for seats.
//  Seats       – requested seat count (>= 1).
//  Message     – optional free-text note from the rider.
//  Status      – pending, accepted or rejected.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last status-change timestamp.
type BookingRequest struct {
    ID          string        // booking_requests.id
    RideID      string        // booking_requests.ride_id
    RequesterID string        // booking_requests.requester_id
    Seats       int           // booking_requests.seats
    Message     string        // booking_requests.message (nullable)
    Status      BookingStatus // booking_requests.status
    CreatedAt   time.Time     // booking_requests.created_at
    UpdatedAt   time.Time     // booking_requests.updated_at
}
