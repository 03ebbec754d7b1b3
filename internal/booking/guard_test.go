package booking

import (
    "testing"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

type stringerID string

func (s stringerID) String() string { return string(s) }

func TestAsID(t *testing.T) {
    cases := []struct {
        name string
        in   interface{}
        want string
    }{
        {"string", "u-1", "u-1"},
        {"user value", model.User{ID: "u-2"}, "u-2"},
        {"user pointer", &model.User{ID: "u-3"}, "u-3"},
        {"nil user pointer", (*model.User)(nil), ""},
        {"map with _id", map[string]interface{}{"_id": "u-4"}, "u-4"},
        {"map with id", map[string]interface{}{"id": "u-5"}, "u-5"},
        {"map prefers _id", map[string]interface{}{"_id": "u-6", "id": "other"}, "u-6"},
        {"stringer", stringerID("u-7"), "u-7"},
        {"nil", nil, ""},
        {"unknown shape", 42, ""},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := AsID(tc.in); got != tc.want {
                t.Fatalf("AsID(%#v) = %q, want %q", tc.in, got, tc.want)
            }
        })
    }
}

func TestIsOwner(t *testing.T) {
    ride := &model.Ride{ID: "r-1", DriverID: "driver-1"}

    if !IsOwner(ride, "driver-1") {
        t.Fatal("driver id should match")
    }
    if !IsOwner(ride, model.User{ID: "driver-1"}) {
        t.Fatal("driver as user object should match")
    }
    if IsOwner(ride, "someone-else") {
        t.Fatal("non-driver must not match")
    }
}

func TestIsOwnerFailsClosed(t *testing.T) {
    if IsOwner(nil, "driver-1") {
        t.Fatal("nil ride must not match")
    }
    if IsOwner(&model.Ride{DriverID: "driver-1"}, nil) {
        t.Fatal("nil caller must not match")
    }
    if IsOwner(&model.Ride{DriverID: ""}, "") {
        t.Fatal("empty ids on both sides must not match")
    }
    if IsOwner(&model.Ride{DriverID: "driver-1"}, 123) {
        t.Fatal("unresolvable caller shape must not match")
    }
}
