package handler

import (
    "errors"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// The view types define the JSON wire format the mobile client expects.
// Field names are camelCase; timestamps are RFC3339 in UTC. The
// requester of a booking request is exposed under the `passenger`
// alias.

type driverView struct {
    ID    string `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email,omitempty"`
    Phone string `json:"phone,omitempty"`
}

type passengerView struct {
    ID   string `json:"id"`
    Name string `json:"name,omitempty"`
}

type bookingView struct {
    ID        string        `json:"id"`
    RideID    string        `json:"rideId"`
    Passenger passengerView `json:"passenger"`
    Seats     int           `json:"seats"`
    Message   string        `json:"message,omitempty"`
    Status    string        `json:"status"`
    CreatedAt string        `json:"createdAt"`
    UpdatedAt string        `json:"updatedAt"`
}

type rideView struct {
    ID              string           `json:"id"`
    DriverID        string           `json:"driverId"`
    Driver          *driverView      `json:"driver,omitempty"`
    StartPoint      string           `json:"startPoint"`
    EndPoint        string           `json:"endPoint"`
    RideType        string           `json:"rideType"`
    Stoppages       []model.Stoppage `json:"stoppages"`
    TravelDate      string           `json:"travelDate"`
    TotalSeats      int              `json:"totalSeats"`
    AvailableSeats  int              `json:"availableSeats"`
    PricePerSeat    float64          `json:"pricePerSeat"`
    BookingRequests []bookingView    `json:"bookingRequests,omitempty"`
    CreatedAt       string           `json:"createdAt"`
    UpdatedAt       string           `json:"updatedAt"`
}

func isoTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func newDriverView(u *model.User) *driverView {
    if u == nil {
        return nil
    }
    return &driverView{ID: u.ID, Name: u.FullName, Email: u.Email, Phone: u.Phone}
}

// newBookingView renders a booking request; users supplies display
// names keyed by id and may be nil.
func newBookingView(b *model.BookingRequest, users map[string]model.User) bookingView {
    v := bookingView{
        ID:        b.ID,
        RideID:    b.RideID,
        Passenger: passengerView{ID: b.RequesterID},
        Seats:     b.Seats,
        Message:   b.Message,
        Status:    string(b.Status),
        CreatedAt: isoTime(b.CreatedAt),
        UpdatedAt: isoTime(b.UpdatedAt),
    }
    if u, ok := users[b.RequesterID]; ok {
        v.Passenger.Name = u.FullName
    }
    return v
}

// newRideView renders a ride. Booking requests are included only when
// withBookings is set (the public search omits them); users supplies
// driver and passenger display rows and may be nil.
func newRideView(r *model.Ride, users map[string]model.User, withBookings bool) rideView {
    v := rideView{
        ID:             r.ID,
        DriverID:       r.DriverID,
        StartPoint:     r.StartPoint,
        EndPoint:       r.EndPoint,
        RideType:       string(r.RideType),
        Stoppages:      r.Stoppages,
        TravelDate:     isoTime(r.TravelDate),
        TotalSeats:     r.TotalSeats,
        AvailableSeats: r.AvailableSeats,
        PricePerSeat:   r.PricePerSeat,
        CreatedAt:      isoTime(r.CreatedAt),
        UpdatedAt:      isoTime(r.UpdatedAt),
    }
    if v.Stoppages == nil {
        v.Stoppages = []model.Stoppage{}
    }
    if u, ok := users[r.DriverID]; ok {
        du := u
        v.Driver = newDriverView(&du)
    }
    if withBookings {
        v.BookingRequests = make([]bookingView, 0, len(r.Bookings))
        for i := range r.Bookings {
            v.BookingRequests = append(v.BookingRequests, newBookingView(&r.Bookings[i], users))
        }
    }
    return v
}

// getUserID extracts the authenticated principal's id from the Echo
// context, where the JWT middleware stored it.
func getUserID(c echo.Context) (string, error) {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s, nil
    }
    return "", errors.New("invalid user_id in context")
}
