package model

import "time"

// User is the read-side projection of an application user as stored in
// the `users` table.  Accounts are created and authenticated by the
// external auth collaborator; this service only reads user rows to
// enrich rides and bookings with driver or passenger display fields.
//
// Fields:
//  ID        – opaque UUID identifier of the user.
//  FullName  – display name.
//  Email     – contact email address.
//  Phone     – contact phone number.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
    ID        string    // users.id
    FullName  string    // users.full_name
    Email     string    // users.email
    Phone     string    // users.phone
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}
