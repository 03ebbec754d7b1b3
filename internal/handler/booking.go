package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ride-share-booking/internal/booking"
    "github.com/iliyamo/ride-share-booking/internal/model"
    "github.com/iliyamo/ride-share-booking/internal/queue"
    "github.com/iliyamo/ride-share-booking/internal/repository"
    queue_publisher "github.com/iliyamo/ride-share-booking/internal/service"
)

// BookingHandler exposes the booking-request lifecycle endpoints. The
// seat bookkeeping itself lives in the booking service; this layer only
// binds, authenticates and translates errors to wire responses.
type BookingHandler struct {
    Svc   *booking.Service
    Store repository.RideStore
}

func NewBookingHandler(svc *booking.Service, store repository.RideStore) *BookingHandler {
    if svc == nil || store == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Svc: svc, Store: store}
}

type createBookingPayload struct {
    Seats   int    `json:"seats"`
    Message string `json:"message"`
}

type decisionPayload struct {
    Status string `json:"status"`
}

// Create handles POST /v1/rides/:rideId/bookings. The request starts in
// pending; no seats are held until the driver accepts it.
func (h *BookingHandler) Create(c echo.Context) error {
    requesterID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    var body createBookingPayload
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "invalid request body"})
    }
    req, err := h.Svc.CreateRequest(c.Request().Context(), c.Param("rideId"), requesterID, body.Seats, strings.TrimSpace(body.Message))
    if err != nil {
        var seatErr *booking.SeatAvailabilityError
        switch {
        case errors.Is(err, booking.ErrInvalidSeats):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": err.Error()})
        case errors.Is(err, repository.ErrRideNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        case errors.As(err, &seatErr):
            return c.JSON(http.StatusBadRequest, echo.Map{
                "error":          seatErr.Code(),
                "message":        seatErr.Error(),
                "availableSeats": seatErr.Available,
                "requestedSeats": seatErr.Requested,
            })
        default:
            c.Logger().Errorf("booking create failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not create booking request"})
        }
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":        "booking request created",
        "bookingRequest": newBookingView(req, nil),
    })
}

// ListForRide handles GET /v1/rides/:rideId/bookings. Only the ride's
// driver may list them; a missing ride yields 404 before the ownership
// check yields 403.
func (h *BookingHandler) ListForRide(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    ctx := c.Request().Context()
    requests, err := h.Svc.ListForRide(ctx, c.Param("rideId"), callerID)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrRideNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        case errors.Is(err, booking.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "FORBIDDEN", "message": "only the ride's driver may view its booking requests"})
        default:
            c.Logger().Errorf("booking list failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not list booking requests"})
        }
    }
    ids := make([]string, 0, len(requests))
    for i := range requests {
        ids = append(ids, requests[i].RequesterID)
    }
    users, err := h.Store.GetUsers(ctx, ids)
    if err != nil {
        users = nil
    }
    views := make([]bookingView, 0, len(requests))
    for i := range requests {
        views = append(views, newBookingView(&requests[i], users))
    }
    return c.JSON(http.StatusOK, echo.Map{"bookingRequests": views})
}

// Decide handles PATCH /v1/rides/:rideId/bookings/:requestId. The body
// carries the target status; accepting deducts seats and rejecting a
// previously accepted request refunds them, both atomically with the
// status write. A successful decision is also published to the broker
// for downstream logging; a publish failure never fails the request.
func (h *BookingHandler) Decide(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    var body decisionPayload
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "invalid request body"})
    }
    dec, err := h.Svc.Transition(c.Request().Context(), c.Param("rideId"), c.Param("requestId"), callerID, model.BookingStatus(strings.ToLower(strings.TrimSpace(body.Status))))
    if err != nil {
        var seatErr *booking.SeatAvailabilityError
        switch {
        case errors.Is(err, booking.ErrInvalidStatus):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": err.Error()})
        case errors.Is(err, repository.ErrRideNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        case errors.Is(err, repository.ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "booking request not found"})
        case errors.Is(err, booking.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "FORBIDDEN", "message": "only the ride's driver may decide booking requests"})
        case errors.As(err, &seatErr):
            return c.JSON(http.StatusBadRequest, echo.Map{
                "error":          seatErr.Code(),
                "message":        seatErr.Error(),
                "availableSeats": seatErr.Available,
                "requestedSeats": seatErr.Requested,
            })
        case errors.Is(err, repository.ErrVersionConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "CONFLICT", "message": "the ride changed concurrently, please retry"})
        default:
            c.Logger().Errorf("booking decision failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not apply decision"})
        }
    }

    event := queue.BookingDecidedEvent{
        RideID:         dec.Ride.ID,
        RequestID:      dec.Request.ID,
        RequesterID:    dec.Request.RequesterID,
        DriverID:       dec.Ride.DriverID,
        StartPoint:     dec.Ride.StartPoint,
        EndPoint:       dec.Ride.EndPoint,
        TravelDate:     isoTime(dec.Ride.TravelDate),
        Seats:          dec.Request.Seats,
        PricePerSeat:   dec.Ride.PricePerSeat,
        Status:         string(dec.Request.Status),
        AvailableSeats: dec.AvailableSeats,
        DecidedAt:      time.Now().UTC().Format(time.RFC3339),
    }
    // Fire and forget; the decision is already committed.
    _ = queue_publisher.PublishBookingDecided(c.Request().Context(), event)

    return c.JSON(http.StatusOK, echo.Map{
        "message":        "booking request " + string(dec.Request.Status),
        "bookingRequest": newBookingView(dec.Request, nil),
        "availableSeats": dec.AvailableSeats,
    })
}

// MyBookings handles GET /v1/bookings/my-bookings. It returns the
// caller's requests across all rides, newest first, each enriched with
// the parent ride's route, date, price and driver name.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    requesterID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    rows, err := h.Svc.ListForRequester(c.Request().Context(), requesterID)
    if err != nil {
        c.Logger().Errorf("my-bookings list failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not list bookings"})
    }
    type myBookingView struct {
        ID           string  `json:"id"`
        RideID       string  `json:"rideId"`
        Seats        int     `json:"seats"`
        Message      string  `json:"message,omitempty"`
        Status       string  `json:"status"`
        StartPoint   string  `json:"startPoint"`
        EndPoint     string  `json:"endPoint"`
        TravelDate   string  `json:"travelDate"`
        PricePerSeat float64 `json:"pricePerSeat"`
        DriverID     string  `json:"driverId"`
        DriverName   string  `json:"driverName,omitempty"`
        CreatedAt    string  `json:"createdAt"`
        UpdatedAt    string  `json:"updatedAt"`
    }
    views := make([]myBookingView, 0, len(rows))
    for _, row := range rows {
        views = append(views, myBookingView{
            ID:           row.Booking.ID,
            RideID:       row.Booking.RideID,
            Seats:        row.Booking.Seats,
            Message:      row.Booking.Message,
            Status:       string(row.Booking.Status),
            StartPoint:   row.StartPoint,
            EndPoint:     row.EndPoint,
            TravelDate:   isoTime(row.TravelDate),
            PricePerSeat: row.PricePerSeat,
            DriverID:     row.DriverID,
            DriverName:   row.DriverName,
            CreatedAt:    isoTime(row.Booking.CreatedAt),
            UpdatedAt:    isoTime(row.Booking.UpdatedAt),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": views})
}
