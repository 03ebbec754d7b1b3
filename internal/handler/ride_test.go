package handler

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ride-share-booking/internal/model"
    "github.com/iliyamo/ride-share-booking/internal/repository"
)

// callHandler invokes a handler directly with a synthetic request. The
// authenticated principal is injected the same way the JWT middleware
// does, under "user_id". Path parameters come in name/value pairs.
func callHandler(t *testing.T, h echo.HandlerFunc, method, target, body, userID string, params ...string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if userID != "" {
        c.Set("user_id", userID)
    }
    names := make([]string, 0, len(params)/2)
    values := make([]string, 0, len(params)/2)
    for i := 0; i+1 < len(params); i += 2 {
        names = append(names, params[i])
        values = append(values, params[i+1])
    }
    c.SetParamNames(names...)
    c.SetParamValues(values...)
    if err := h(c); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    return rec
}

func wireError(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
    t.Helper()
    var body map[string]interface{}
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
    }
    code, _ = body["error"].(string)
    message, _ = body["message"].(string)
    return code, message
}

func createRidePayload(travelDate string) string {
    return fmt.Sprintf(`{"startPoint":"Tehran","endPoint":"Isfahan","rideType":"intercity","travelDate":%q,"availableSeats":3,"pricePerSeat":12.5}`, travelDate)
}

func TestCreateRideSucceeds(t *testing.T) {
    h := NewRideHandler(repository.NewMemoryRideStore())
    future := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)

    rec := callHandler(t, h.Create, http.MethodPost, "/v1/rides", createRidePayload(future), "driver-1")
    if rec.Code != http.StatusCreated {
        t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
    }
    var body map[string]interface{}
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode body: %v", err)
    }
    if body["driverId"] != "driver-1" {
        t.Fatalf("driverId = %v, want driver-1", body["driverId"])
    }
    if body["availableSeats"] != float64(3) || body["totalSeats"] != float64(3) {
        t.Fatalf("seats = %v/%v, want 3/3", body["availableSeats"], body["totalSeats"])
    }
}

func TestCreateRideRejectsTravelDateNotStrictlyFuture(t *testing.T) {
    h := NewRideHandler(repository.NewMemoryRideStore())
    cases := []struct {
        name string
        date string
    }{
        {"now", time.Now().UTC().Format(time.RFC3339)},
        {"past", time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := callHandler(t, h.Create, http.MethodPost, "/v1/rides", createRidePayload(tc.date), "driver-1")
            if rec.Code != http.StatusBadRequest {
                t.Fatalf("status = %d, want 400", rec.Code)
            }
            code, msg := wireError(t, rec)
            if code != "VALIDATION" {
                t.Fatalf("error code = %s, want VALIDATION", code)
            }
            if !strings.Contains(msg, "future") {
                t.Fatalf("message %q does not name the future-date rule", msg)
            }
        })
    }
}

func TestCreateRideValidation(t *testing.T) {
    h := NewRideHandler(repository.NewMemoryRideStore())
    future := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)

    cases := []struct {
        name string
        body string
    }{
        {"missing start point", fmt.Sprintf(`{"endPoint":"Isfahan","travelDate":%q,"availableSeats":2,"pricePerSeat":10}`, future)},
        {"blank end point", fmt.Sprintf(`{"startPoint":"Tehran","endPoint":"  ","travelDate":%q,"availableSeats":2,"pricePerSeat":10}`, future)},
        {"missing travel date", `{"startPoint":"Tehran","endPoint":"Isfahan","availableSeats":2,"pricePerSeat":10}`},
        {"malformed travel date", `{"startPoint":"Tehran","endPoint":"Isfahan","travelDate":"tomorrow","availableSeats":2,"pricePerSeat":10}`},
        {"zero seats", fmt.Sprintf(`{"startPoint":"Tehran","endPoint":"Isfahan","travelDate":%q,"availableSeats":0,"pricePerSeat":10}`, future)},
        {"negative price", fmt.Sprintf(`{"startPoint":"Tehran","endPoint":"Isfahan","travelDate":%q,"availableSeats":2,"pricePerSeat":-1}`, future)},
        {"unknown ride type", fmt.Sprintf(`{"startPoint":"Tehran","endPoint":"Isfahan","rideType":"boat","travelDate":%q,"availableSeats":2,"pricePerSeat":10}`, future)},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := callHandler(t, h.Create, http.MethodPost, "/v1/rides", tc.body, "driver-1")
            if rec.Code != http.StatusBadRequest {
                t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
            }
            if code, _ := wireError(t, rec); code != "VALIDATION" {
                t.Fatalf("error code = %s, want VALIDATION", code)
            }
        })
    }
}

func seedHandlerRide(t *testing.T, store *repository.MemoryRideStore, driverID string) *model.Ride {
    t.Helper()
    ride := &model.Ride{
        DriverID:   driverID,
        StartPoint: "Tehran",
        EndPoint:   "Isfahan",
        RideType:   model.RideTypeIntercity,
        TravelDate: time.Now().UTC().Add(48 * time.Hour),
        TotalSeats: 3,
    }
    if err := store.CreateRide(context.Background(), ride); err != nil {
        t.Fatalf("create ride: %v", err)
    }
    return ride
}

func TestUpdateRideRejectsPastTravelDate(t *testing.T) {
    store := repository.NewMemoryRideStore()
    h := NewRideHandler(store)
    ride := seedHandlerRide(t, store, "driver-1")

    past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
    body := fmt.Sprintf(`{"travelDate":%q}`, past)
    rec := callHandler(t, h.Update, http.MethodPut, "/v1/rides/"+ride.ID, body, "driver-1", "id", ride.ID)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if code, _ := wireError(t, rec); code != "VALIDATION" {
        t.Fatalf("error code = %s, want VALIDATION", code)
    }

    stored, _ := store.GetRide(context.Background(), ride.ID)
    if !stored.TravelDate.Equal(ride.TravelDate) {
        t.Fatal("rejected update still changed the travel date")
    }
}

func TestUpdateRideAppliesPartialPatch(t *testing.T) {
    store := repository.NewMemoryRideStore()
    h := NewRideHandler(store)
    ride := seedHandlerRide(t, store, "driver-1")

    rec := callHandler(t, h.Update, http.MethodPut, "/v1/rides/"+ride.ID, `{"startPoint":"Karaj"}`, "driver-1", "id", ride.ID)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
    }
    stored, _ := store.GetRide(context.Background(), ride.ID)
    if stored.StartPoint != "Karaj" || stored.EndPoint != "Isfahan" {
        t.Fatalf("patch applied wrong: %s -> %s", stored.StartPoint, stored.EndPoint)
    }
}

func TestUpdateRideUnknownIDIsNotFound(t *testing.T) {
    h := NewRideHandler(repository.NewMemoryRideStore())

    rec := callHandler(t, h.Update, http.MethodPut, "/v1/rides/missing", `{"startPoint":"Karaj"}`, "driver-1", "id", "missing")
    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
    if code, _ := wireError(t, rec); code != "NOT_FOUND" {
        t.Fatalf("error code = %s, want NOT_FOUND", code)
    }
}

func TestDeleteRideEnforcesOwnership(t *testing.T) {
    store := repository.NewMemoryRideStore()
    h := NewRideHandler(store)
    ride := seedHandlerRide(t, store, "driver-1")

    rec := callHandler(t, h.Delete, http.MethodDelete, "/v1/rides/"+ride.ID, "", "rider-2", "id", ride.ID)
    if rec.Code != http.StatusForbidden {
        t.Fatalf("status = %d, want 403", rec.Code)
    }
    if code, _ := wireError(t, rec); code != "FORBIDDEN" {
        t.Fatalf("error code = %s, want FORBIDDEN", code)
    }
    if _, err := store.GetRide(context.Background(), ride.ID); err != nil {
        t.Fatalf("forbidden delete removed the ride: %v", err)
    }

    rec = callHandler(t, h.Delete, http.MethodDelete, "/v1/rides/"+ride.ID, "", "driver-1", "id", ride.ID)
    if rec.Code != http.StatusOK {
        t.Fatalf("owner delete status = %d, want 200", rec.Code)
    }
}

func TestGetRideUnknownIDIsNotFound(t *testing.T) {
    h := NewRideHandler(repository.NewMemoryRideStore())

    rec := callHandler(t, h.Get, http.MethodGet, "/v1/rides/missing", "", "", "id", "missing")
    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
    if code, _ := wireError(t, rec); code != "NOT_FOUND" {
        t.Fatalf("error code = %s, want NOT_FOUND", code)
    }
}
