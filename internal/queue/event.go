// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingDecidedEvent is published when a driver accepts or rejects a
// booking request. It carries enough information for downstream
// consumers to log, notify the rider, or feed analytics without
// querying the primary database.
type BookingDecidedEvent struct {
    RideID         string  `json:"rideId"`
    RequestID      string  `json:"requestId"`
    RequesterID    string  `json:"requesterId"`
    DriverID       string  `json:"driverId"`
    StartPoint     string  `json:"startPoint"`
    EndPoint       string  `json:"endPoint"`
    TravelDate     string  `json:"travelDate"`
    Seats          int     `json:"seats"`
    PricePerSeat   float64 `json:"pricePerSeat"`
    Status         string  `json:"status"`
    AvailableSeats int     `json:"availableSeats"`
    DecidedAt      string  `json:"decidedAt"`
}
