package booking

import (
    "fmt"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// AsID normalizes the different shapes an identity can arrive in (a
// plain id string, a populated user object, or a decoded JSON map
// carrying an "_id"/"id" field) into the bare id string. Every
// identity comparison in this package goes through AsID so there is a
// single place where the normalization rules live. Unknown shapes
// normalize to "" which every check treats as "not a match".
func AsID(v interface{}) string {
    switch t := v.(type) {
    case string:
        return t
    case model.User:
        return t.ID
    case *model.User:
        if t != nil {
            return t.ID
        }
    case map[string]interface{}:
        if s, ok := t["_id"].(string); ok {
            return s
        }
        if s, ok := t["id"].(string); ok {
            return s
        }
    case fmt.Stringer:
        return t.String()
    }
    return ""
}

// IsOwner reports whether the caller is the ride's driver. It is the
// single ownership predicate used by every owner-only operation. The
// check fails closed: a nil ride, a missing caller id or a missing
// driver reference all resolve to false.
func IsOwner(ride *model.Ride, caller interface{}) bool {
    if ride == nil {
        return false
    }
    callerID := AsID(caller)
    if callerID == "" || ride.DriverID == "" {
        return false
    }
    return ride.DriverID == callerID
}
