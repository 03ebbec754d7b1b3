package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ride-share-booking/internal/booking"
    "github.com/iliyamo/ride-share-booking/internal/model"
    "github.com/iliyamo/ride-share-booking/internal/repository"
)

// RideHandler exposes the ride CRUD and search endpoints. All methods
// assume that JWT authentication has already been performed by
// middleware where the route requires it; search and get are public.
type RideHandler struct {
    Store repository.RideStore
}

// NewRideHandler constructs a RideHandler and panics if the store is nil.
func NewRideHandler(store repository.RideStore) *RideHandler {
    if store == nil {
        panic("nil store passed to NewRideHandler")
    }
    return &RideHandler{Store: store}
}

// Search handles GET /v1/rides. Optional query parameters `from`, `to`,
// `date` (YYYY-MM-DD) and `seats` combine with logical AND; without a
// date filter only future rides are returned. Results are sorted by
// travel date, then price, and enriched with driver display fields.
func (h *RideHandler) Search(c echo.Context) error {
    q := repository.RideSearchQuery{
        From: strings.TrimSpace(c.QueryParam("from")),
        To:   strings.TrimSpace(c.QueryParam("to")),
    }
    if ds := strings.TrimSpace(c.QueryParam("date")); ds != "" {
        day, err := time.Parse("2006-01-02", ds)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "date must be YYYY-MM-DD"})
        }
        q.Date = &day
    }
    if ss := strings.TrimSpace(c.QueryParam("seats")); ss != "" {
        n, err := strconv.Atoi(ss)
        if err != nil || n < 1 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "seats must be a positive integer"})
        }
        q.MinSeats = n
    }
    results, err := h.Store.SearchRides(c.Request().Context(), q)
    if err != nil {
        c.Logger().Errorf("ride search failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not search rides"})
    }
    views := make([]rideView, 0, len(results))
    for i := range results {
        v := newRideView(&results[i].Ride, nil, false)
        v.Driver = newDriverView(results[i].Driver)
        views = append(views, v)
    }
    return c.JSON(http.StatusOK, views)
}

// Get handles GET /v1/rides/:id. The response includes the embedded
// booking requests with their requester exposed as `passenger`.
func (h *RideHandler) Get(c echo.Context) error {
    ride, err := h.Store.GetRide(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrRideNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not load ride"})
    }
    users, err := h.Store.GetUsers(c.Request().Context(), rideUserIDs(ride))
    if err != nil {
        // Enrichment is display-only; serve the ride without names.
        users = nil
    }
    return c.JSON(http.StatusOK, newRideView(ride, users, true))
}

// rideUserIDs collects the driver id plus every requester id on the
// ride, for batch user enrichment.
func rideUserIDs(r *model.Ride) []string {
    ids := make([]string, 0, len(r.Bookings)+1)
    ids = append(ids, r.DriverID)
    seen := map[string]struct{}{r.DriverID: {}}
    for i := range r.Bookings {
        id := r.Bookings[i].RequesterID
        if _, ok := seen[id]; !ok {
            seen[id] = struct{}{}
            ids = append(ids, id)
        }
    }
    return ids
}

type ridePayload struct {
    StartPoint   *string          `json:"startPoint"`
    EndPoint     *string          `json:"endPoint"`
    RideType     *string          `json:"rideType"`
    Stoppages    []model.Stoppage `json:"stoppages"`
    TravelDate   *string          `json:"travelDate"`
    Seats        *int             `json:"availableSeats"`
    PricePerSeat *float64         `json:"pricePerSeat"`
}

// Create handles POST /v1/rides. The authenticated caller becomes the
// ride's driver. The travel date must be strictly in the future, seats
// at least 1 and the price non-negative.
func (h *RideHandler) Create(c echo.Context) error {
    driverID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    var body ridePayload
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "invalid request body"})
    }
    ride := &model.Ride{DriverID: driverID, RideType: model.RideTypeInCity}
    if body.StartPoint == nil || strings.TrimSpace(*body.StartPoint) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "startPoint is required"})
    }
    ride.StartPoint = strings.TrimSpace(*body.StartPoint)
    if body.EndPoint == nil || strings.TrimSpace(*body.EndPoint) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "endPoint is required"})
    }
    ride.EndPoint = strings.TrimSpace(*body.EndPoint)
    if body.RideType != nil {
        ride.RideType = model.RideType(*body.RideType)
        if !ride.RideType.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "rideType must be in-city or intercity"})
        }
    }
    if body.TravelDate == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "travelDate is required"})
    }
    travelDate, err := parseFutureDate(*body.TravelDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": err.Error()})
    }
    ride.TravelDate = travelDate
    if body.Seats == nil || *body.Seats < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "availableSeats must be at least 1"})
    }
    ride.TotalSeats = *body.Seats
    if body.PricePerSeat == nil || *body.PricePerSeat < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "pricePerSeat must be non-negative"})
    }
    ride.PricePerSeat = *body.PricePerSeat
    ride.Stoppages = body.Stoppages

    if err := h.Store.CreateRide(c.Request().Context(), ride); err != nil {
        c.Logger().Errorf("ride create failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not create ride"})
    }
    return c.JSON(http.StatusCreated, newRideView(ride, nil, false))
}

// Update handles PUT /v1/rides/:id. Only the fields present in the body
// are applied; a changed travel date must still be in the future.
// Ownership is not enforced here, matching the behavior the mobile
// client was built against.
func (h *RideHandler) Update(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    var body ridePayload
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "invalid request body"})
    }
    patch := repository.RidePatch{}
    if body.StartPoint != nil {
        sp := strings.TrimSpace(*body.StartPoint)
        if sp == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "startPoint must not be empty"})
        }
        patch.StartPoint = &sp
    }
    if body.EndPoint != nil {
        ep := strings.TrimSpace(*body.EndPoint)
        if ep == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "endPoint must not be empty"})
        }
        patch.EndPoint = &ep
    }
    if body.RideType != nil {
        rt := model.RideType(*body.RideType)
        if !rt.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "rideType must be in-city or intercity"})
        }
        patch.RideType = &rt
    }
    if body.TravelDate != nil {
        travelDate, err := parseFutureDate(*body.TravelDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": err.Error()})
        }
        patch.TravelDate = &travelDate
    }
    if body.Seats != nil {
        if *body.Seats < 1 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "availableSeats must be at least 1"})
        }
        patch.Seats = body.Seats
    }
    if body.PricePerSeat != nil {
        if *body.PricePerSeat < 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "pricePerSeat must be non-negative"})
        }
        patch.PricePerSeat = body.PricePerSeat
    }
    if body.Stoppages != nil {
        patch.Stoppages = &body.Stoppages
    }
    ride, err := h.Store.UpdateRide(c.Request().Context(), c.Param("id"), patch)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrRideNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        case errors.Is(err, repository.ErrSeatsBelowAccepted):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "VALIDATION", "message": "seat count is below the seats already accepted"})
        default:
            c.Logger().Errorf("ride update failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not update ride"})
        }
    }
    return c.JSON(http.StatusOK, newRideView(ride, nil, false))
}

// Delete handles DELETE /v1/rides/:id. Only the ride's driver may
// delete it; the embedded booking requests are removed with the ride.
func (h *RideHandler) Delete(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "UNAUTHORIZED", "message": "unauthorized"})
    }
    ctx := c.Request().Context()
    ride, err := h.Store.GetRide(ctx, c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrRideNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not load ride"})
    }
    if !booking.IsOwner(ride, callerID) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "FORBIDDEN", "message": "only the ride's driver may delete it"})
    }
    if err := h.Store.DeleteRide(ctx, ride.ID); err != nil {
        if errors.Is(err, repository.ErrRideNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND", "message": "ride not found"})
        }
        c.Logger().Errorf("ride delete failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL", "message": "could not delete ride"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "ride deleted"})
}

// parseFutureDate parses an RFC3339 timestamp and requires it to be
// strictly in the future; "now" is rejected.
func parseFutureDate(raw string) (time.Time, error) {
    t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
    if err != nil {
        return time.Time{}, errors.New("travelDate must be an RFC3339 timestamp")
    }
    if !t.After(time.Now()) {
        return time.Time{}, errors.New("travelDate must be in the future")
    }
    return t.UTC(), nil
}
