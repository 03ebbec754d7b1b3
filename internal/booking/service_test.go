package booking

import (
    "context"
    "errors"
    "sync"
    "testing"

    "github.com/iliyamo/ride-share-booking/internal/model"
    "github.com/iliyamo/ride-share-booking/internal/repository"
)

func newTestRide(t *testing.T, store *repository.MemoryRideStore, driverID string, seats int) *model.Ride {
    t.Helper()
    ride := &model.Ride{
        DriverID:   driverID,
        StartPoint: "Tehran",
        EndPoint:   "Isfahan",
        RideType:   model.RideTypeIntercity,
        TotalSeats: seats,
    }
    if err := store.CreateRide(context.Background(), ride); err != nil {
        t.Fatalf("create ride: %v", err)
    }
    return ride
}

func TestAcceptFlowDeductsSeats(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 3)

    req, err := svc.CreateRequest(ctx, ride.ID, "rider-1", 2, "two of us")
    if err != nil {
        t.Fatalf("create request: %v", err)
    }
    if req.Status != model.BookingStatusPending {
        t.Fatalf("new request status = %s, want pending", req.Status)
    }

    dec, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatusAccepted)
    if err != nil {
        t.Fatalf("accept: %v", err)
    }
    if dec.AvailableSeats != 1 {
        t.Fatalf("available seats = %d, want 1", dec.AvailableSeats)
    }

    stored, err := store.GetRide(ctx, ride.ID)
    if err != nil {
        t.Fatalf("get ride: %v", err)
    }
    if stored.AvailableSeats != 1 {
        t.Fatalf("stored available seats = %d, want 1", stored.AvailableSeats)
    }
    if got := stored.FindBooking(req.ID); got == nil || got.Status != model.BookingStatusAccepted {
        t.Fatalf("stored request not accepted: %+v", got)
    }
}

func TestAcceptInsufficientSeatsLeavesStateUntouched(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 2)

    first, err := svc.CreateRequest(ctx, ride.ID, "rider-1", 1, "")
    if err != nil {
        t.Fatalf("create first: %v", err)
    }
    second, err := svc.CreateRequest(ctx, ride.ID, "rider-2", 2, "")
    if err != nil {
        t.Fatalf("create second: %v", err)
    }
    if _, err := svc.Transition(ctx, ride.ID, first.ID, "driver-1", model.BookingStatusAccepted); err != nil {
        t.Fatalf("accept first: %v", err)
    }

    _, err = svc.Transition(ctx, ride.ID, second.ID, "driver-1", model.BookingStatusAccepted)
    var seatErr *SeatAvailabilityError
    if !errors.As(err, &seatErr) {
        t.Fatalf("want SeatAvailabilityError, got %v", err)
    }
    if seatErr.Available != 1 || seatErr.Requested != 2 {
        t.Fatalf("error counts = (%d, %d), want (1, 2)", seatErr.Available, seatErr.Requested)
    }

    stored, _ := store.GetRide(ctx, ride.ID)
    if stored.AvailableSeats != 1 {
        t.Fatalf("failed accept changed seats: available = %d", stored.AvailableSeats)
    }
    if got := stored.FindBooking(second.ID); got.Status != model.BookingStatusPending {
        t.Fatalf("failed accept changed status: %s", got.Status)
    }
}

func TestRejectAcceptedRefundsSeats(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 3)

    req, _ := svc.CreateRequest(ctx, ride.ID, "rider-1", 3, "")
    if _, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatusAccepted); err != nil {
        t.Fatalf("accept: %v", err)
    }

    dec, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatusRejected)
    if err != nil {
        t.Fatalf("reject: %v", err)
    }
    if dec.AvailableSeats != 3 {
        t.Fatalf("available seats = %d, want 3 after refund", dec.AvailableSeats)
    }
}

func TestRejectedRequestCanBeAcceptedAgain(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 2)

    req, _ := svc.CreateRequest(ctx, ride.ID, "rider-1", 2, "")
    if _, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatusRejected); err != nil {
        t.Fatalf("reject: %v", err)
    }

    dec, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatusAccepted)
    if err != nil {
        t.Fatalf("accept after reject: %v", err)
    }
    if dec.AvailableSeats != 0 {
        t.Fatalf("available seats = %d, want 0", dec.AvailableSeats)
    }
}

func TestCreateRequestOnFullRide(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 1)

    req, _ := svc.CreateRequest(ctx, ride.ID, "rider-1", 1, "")
    if _, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatusAccepted); err != nil {
        t.Fatalf("accept: %v", err)
    }

    _, err := svc.CreateRequest(ctx, ride.ID, "rider-2", 1, "")
    var seatErr *SeatAvailabilityError
    if !errors.As(err, &seatErr) {
        t.Fatalf("want SeatAvailabilityError, got %v", err)
    }
    if seatErr.Code() != "SEATS_FULL" {
        t.Fatalf("code = %s, want SEATS_FULL", seatErr.Code())
    }
}

func TestCreateRequestValidation(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 2)

    if _, err := svc.CreateRequest(ctx, ride.ID, "rider-1", 0, ""); !errors.Is(err, ErrInvalidSeats) {
        t.Fatalf("zero seats: want ErrInvalidSeats, got %v", err)
    }
    if _, err := svc.CreateRequest(ctx, "no-such-ride", "rider-1", 1, ""); !errors.Is(err, repository.ErrRideNotFound) {
        t.Fatalf("missing ride: want ErrRideNotFound, got %v", err)
    }
}

func TestDriverSelfBookingAllowed(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 2)

    if _, err := svc.CreateRequest(ctx, ride.ID, "driver-1", 1, ""); err != nil {
        t.Fatalf("driver booking own ride should be allowed, got %v", err)
    }
}

func TestTransitionForbiddenForNonOwner(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 2)
    req, _ := svc.CreateRequest(ctx, ride.ID, "rider-1", 1, "")

    _, err := svc.Transition(ctx, ride.ID, req.ID, "rider-1", model.BookingStatusAccepted)
    if !errors.Is(err, ErrForbidden) {
        t.Fatalf("want ErrForbidden, got %v", err)
    }

    stored, _ := store.GetRide(ctx, ride.ID)
    if stored.AvailableSeats != 2 {
        t.Fatalf("forbidden transition changed seats: %d", stored.AvailableSeats)
    }
    if got := stored.FindBooking(req.ID); got.Status != model.BookingStatusPending {
        t.Fatalf("forbidden transition changed status: %s", got.Status)
    }
}

func TestNotFoundWinsOverForbidden(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()

    // A stranger probing a missing ride learns only that it is missing.
    if _, err := svc.ListForRide(ctx, "no-such-ride", "stranger"); !errors.Is(err, repository.ErrRideNotFound) {
        t.Fatalf("want ErrRideNotFound, got %v", err)
    }
    if _, err := svc.Transition(ctx, "no-such-ride", "no-such-request", "stranger", model.BookingStatusAccepted); !errors.Is(err, repository.ErrRideNotFound) {
        t.Fatalf("want ErrRideNotFound, got %v", err)
    }

    ride := newTestRide(t, store, "driver-1", 2)
    if _, err := svc.Transition(ctx, ride.ID, "no-such-request", "driver-1", model.BookingStatusAccepted); !errors.Is(err, repository.ErrBookingNotFound) {
        t.Fatalf("want ErrBookingNotFound, got %v", err)
    }
}

func TestTransitionRejectsInvalidStatus(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 2)
    req, _ := svc.CreateRequest(ctx, ride.ID, "rider-1", 1, "")

    if _, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatus("pending")); !errors.Is(err, ErrInvalidStatus) {
        t.Fatalf("pending target: want ErrInvalidStatus, got %v", err)
    }
    if _, err := svc.Transition(ctx, ride.ID, req.ID, "driver-1", model.BookingStatus("cancelled")); !errors.Is(err, ErrInvalidStatus) {
        t.Fatalf("unknown target: want ErrInvalidStatus, got %v", err)
    }
}

func TestConcurrentAcceptsNeverOversell(t *testing.T) {
    store := repository.NewMemoryRideStore()
    svc := NewService(store)
    ctx := context.Background()
    ride := newTestRide(t, store, "driver-1", 1)

    first, _ := svc.CreateRequest(ctx, ride.ID, "rider-1", 1, "")
    second, _ := svc.CreateRequest(ctx, ride.ID, "rider-2", 1, "")

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i, id := range []string{first.ID, second.ID} {
        wg.Add(1)
        go func(slot int, requestID string) {
            defer wg.Done()
            _, errs[slot] = svc.Transition(ctx, ride.ID, requestID, "driver-1", model.BookingStatusAccepted)
        }(i, id)
    }
    wg.Wait()

    accepted := 0
    for _, err := range errs {
        if err == nil {
            accepted++
            continue
        }
        var seatErr *SeatAvailabilityError
        if !errors.As(err, &seatErr) {
            t.Fatalf("loser should see a seat error, got %v", err)
        }
    }
    if accepted != 1 {
        t.Fatalf("exactly one accept must win, got %d", accepted)
    }

    stored, _ := store.GetRide(ctx, ride.ID)
    if stored.AvailableSeats != 0 {
        t.Fatalf("available seats = %d, want 0", stored.AvailableSeats)
    }
    if stored.AcceptedSeats() != 1 {
        t.Fatalf("accepted seats = %d, want 1", stored.AcceptedSeats())
    }
}
