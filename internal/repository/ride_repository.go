package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// RideRepo is the MySQL implementation of RideStore. Rides, their
// stoppages and their booking requests live in three tables joined by
// ride id; ride_stoppages and booking_requests cascade on delete so a
// ride and its requests always disappear together, reproducing the
// embedded-document lifetime of the source data model. All timestamps
// are stored in UTC.
//
// Seat-state writes are guarded by the rides.version column: every
// write that touches available_seats is conditional on the version the
// caller read and bumps it by one. A lost race surfaces as
// ErrVersionConflict instead of silently overselling seats.
type RideRepo struct {
    db *sql.DB
}

// NewRideRepo returns a new RideRepo bound to the given database.
func NewRideRepo(db *sql.DB) *RideRepo { return &RideRepo{db: db} }

// DB exposes the underlying handle for health checks.
func (r *RideRepo) DB() *sql.DB { return r.db }

// CreateRide inserts a ride and its stoppages in one transaction. The
// ride is assigned a fresh UUID, version 1 and AvailableSeats equal to
// TotalSeats; generated timestamps are read back before returning.
func (r *RideRepo) CreateRide(ctx context.Context, ride *model.Ride) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    ride.ID = uuid.NewString()
    ride.Version = 1
    ride.AvailableSeats = ride.TotalSeats
    const q = `INSERT INTO rides
        (id, driver_id, start_point, end_point, ride_type, travel_date, total_seats, available_seats, price_per_seat, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err = tx.ExecContext(ctx, q,
        ride.ID, ride.DriverID, ride.StartPoint, ride.EndPoint, string(ride.RideType),
        ride.TravelDate.UTC(), ride.TotalSeats, ride.AvailableSeats, ride.PricePerSeat, ride.Version,
    ); err != nil {
        return err
    }
    if err = insertStoppagesTx(ctx, tx, ride.ID, ride.Stoppages); err != nil {
        return err
    }
    if err = tx.QueryRowContext(ctx,
        `SELECT created_at, updated_at FROM rides WHERE id = ?`, ride.ID,
    ).Scan(&ride.CreatedAt, &ride.UpdatedAt); err != nil {
        return err
    }
    if err = tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// insertStoppagesTx bulk-inserts stoppage rows for a ride within the
// provided transaction. Positions go through normalizeStoppages so the
// stored order is always dense. Passing an empty slice is a no-op.
func insertStoppagesTx(ctx context.Context, tx *sql.Tx, rideID string, stops []model.Stoppage) error {
    stops = normalizeStoppages(stops)
    if len(stops) == 0 {
        return nil
    }
    query := `INSERT INTO ride_stoppages (ride_id, name, position) VALUES `
    args := make([]interface{}, 0, len(stops)*3)
    for i, s := range stops {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, rideID, s.Name, s.Position)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetRide returns the ride with its stoppages and embedded booking
// requests, or ErrRideNotFound.
func (r *RideRepo) GetRide(ctx context.Context, id string) (*model.Ride, error) {
    const q = `SELECT id, driver_id, start_point, end_point, ride_type, travel_date,
                      total_seats, available_seats, price_per_seat, version, created_at, updated_at
               FROM rides WHERE id = ?`
    ride, err := scanRide(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrRideNotFound
        }
        return nil, err
    }
    if ride.Stoppages, err = r.loadStoppages(ctx, id); err != nil {
        return nil, err
    }
    if ride.Bookings, err = r.loadBookings(ctx, id); err != nil {
        return nil, err
    }
    return ride, nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanRide(row rowScanner) (*model.Ride, error) {
    var ride model.Ride
    var rideType string
    if err := row.Scan(
        &ride.ID, &ride.DriverID, &ride.StartPoint, &ride.EndPoint, &rideType, &ride.TravelDate,
        &ride.TotalSeats, &ride.AvailableSeats, &ride.PricePerSeat, &ride.Version,
        &ride.CreatedAt, &ride.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    ride.RideType = model.RideType(rideType)
    return &ride, nil
}

func (r *RideRepo) loadStoppages(ctx context.Context, rideID string) ([]model.Stoppage, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT name, position FROM ride_stoppages WHERE ride_id = ? ORDER BY position`, rideID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    stops := make([]model.Stoppage, 0)
    for rows.Next() {
        var s model.Stoppage
        if err := rows.Scan(&s.Name, &s.Position); err != nil {
            return nil, err
        }
        stops = append(stops, s)
    }
    return stops, rows.Err()
}

func (r *RideRepo) loadBookings(ctx context.Context, rideID string) ([]model.BookingRequest, error) {
    const q = `SELECT id, ride_id, requester_id, seats, message, status, created_at, updated_at
               FROM booking_requests WHERE ride_id = ? ORDER BY created_at, id`
    rows, err := r.db.QueryContext(ctx, q, rideID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    bookings := make([]model.BookingRequest, 0)
    for rows.Next() {
        var b model.BookingRequest
        var msg sql.NullString
        var status string
        if err := rows.Scan(&b.ID, &b.RideID, &b.RequesterID, &b.Seats, &msg, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        if msg.Valid {
            b.Message = msg.String
        }
        b.Status = model.BookingStatus(status)
        bookings = append(bookings, b)
    }
    return bookings, rows.Err()
}

// UpdateRide applies the non-nil fields of the patch inside a
// transaction, locking the ride row first. Patching Seats replaces the
// total seat count and recomputes available_seats from the accepted
// requests, failing with ErrSeatsBelowAccepted when the new total does
// not cover the seats already held.
func (r *RideRepo) UpdateRide(ctx context.Context, id string, patch RidePatch) (*model.Ride, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const sel = `SELECT id, driver_id, start_point, end_point, ride_type, travel_date,
                        total_seats, available_seats, price_per_seat, version, created_at, updated_at
                 FROM rides WHERE id = ? FOR UPDATE`
    ride, err := scanRide(tx.QueryRowContext(ctx, sel, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrRideNotFound
        }
        return nil, err
    }
    if patch.StartPoint != nil {
        ride.StartPoint = *patch.StartPoint
    }
    if patch.EndPoint != nil {
        ride.EndPoint = *patch.EndPoint
    }
    if patch.RideType != nil {
        ride.RideType = *patch.RideType
    }
    if patch.TravelDate != nil {
        ride.TravelDate = patch.TravelDate.UTC()
    }
    if patch.Seats != nil {
        var held int
        if err = tx.QueryRowContext(ctx,
            `SELECT COALESCE(SUM(seats), 0) FROM booking_requests WHERE ride_id = ? AND status = 'accepted'`,
            id,
        ).Scan(&held); err != nil {
            return nil, err
        }
        if *patch.Seats < held {
            return nil, ErrSeatsBelowAccepted
        }
        ride.TotalSeats = *patch.Seats
        ride.AvailableSeats = *patch.Seats - held
    }
    if patch.PricePerSeat != nil {
        ride.PricePerSeat = *patch.PricePerSeat
    }
    const upd = `UPDATE rides SET start_point = ?, end_point = ?, ride_type = ?, travel_date = ?,
                        total_seats = ?, available_seats = ?, price_per_seat = ?, version = version + 1
                 WHERE id = ?`
    if _, err = tx.ExecContext(ctx, upd,
        ride.StartPoint, ride.EndPoint, string(ride.RideType), ride.TravelDate.UTC(),
        ride.TotalSeats, ride.AvailableSeats, ride.PricePerSeat, id,
    ); err != nil {
        return nil, err
    }
    if patch.Stoppages != nil {
        if _, err = tx.ExecContext(ctx, `DELETE FROM ride_stoppages WHERE ride_id = ?`, id); err != nil {
            return nil, err
        }
        if err = insertStoppagesTx(ctx, tx, id, *patch.Stoppages); err != nil {
            return nil, err
        }
    }
    if err = tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return r.GetRide(ctx, id)
}

// DeleteRide hard-deletes a ride; stoppages and booking requests go
// with it via ON DELETE CASCADE.
func (r *RideRepo) DeleteRide(ctx context.Context, id string) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM rides WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrRideNotFound
    }
    return nil
}

// SearchRides performs the filtered ride search, joining the driver's
// user row for display enrichment. Filters combine with AND; without a
// date filter only future rides are returned. Results are ordered by
// ascending travel date, then ascending price per seat.
func (r *RideRepo) SearchRides(ctx context.Context, q RideSearchQuery) ([]EnrichedRide, error) {
    where := []string{}
    args := []interface{}{}

    if q.Date != nil {
        y, m, d := q.Date.Date()
        dayStart := time.Date(y, m, d, 0, 0, 0, 0, q.Date.Location())
        dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)
        where = append(where, "r.travel_date BETWEEN ? AND ?")
        args = append(args, dayStart.UTC(), dayEnd.UTC())
    } else {
        where = append(where, "r.travel_date >= UTC_TIMESTAMP()")
    }
    if q.From != "" {
        where = append(where, "LOWER(r.start_point) LIKE ?")
        args = append(args, "%"+strings.ToLower(q.From)+"%")
    }
    if q.To != "" {
        where = append(where, "LOWER(r.end_point) LIKE ?")
        args = append(args, "%"+strings.ToLower(q.To)+"%")
    }
    if q.MinSeats > 0 {
        where = append(where, "r.available_seats >= ?")
        args = append(args, q.MinSeats)
    }
    query := `SELECT r.id, r.driver_id, r.start_point, r.end_point, r.ride_type, r.travel_date,
                     r.total_seats, r.available_seats, r.price_per_seat, r.version, r.created_at, r.updated_at,
                     u.id, u.full_name, u.email, u.phone
              FROM rides r
              LEFT JOIN users u ON u.id = r.driver_id
              WHERE ` + strings.Join(where, " AND ") + `
              ORDER BY r.travel_date ASC, r.price_per_seat ASC`
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]EnrichedRide, 0)
    index := make(map[string]int)
    for rows.Next() {
        var ride model.Ride
        var rideType string
        var uid, uname, uemail, uphone sql.NullString
        if err := rows.Scan(
            &ride.ID, &ride.DriverID, &ride.StartPoint, &ride.EndPoint, &rideType, &ride.TravelDate,
            &ride.TotalSeats, &ride.AvailableSeats, &ride.PricePerSeat, &ride.Version,
            &ride.CreatedAt, &ride.UpdatedAt,
            &uid, &uname, &uemail, &uphone,
        ); err != nil {
            return nil, err
        }
        ride.RideType = model.RideType(rideType)
        er := EnrichedRide{Ride: ride}
        if uid.Valid {
            er.Driver = &model.User{ID: uid.String, FullName: uname.String, Email: uemail.String, Phone: uphone.String}
        }
        index[ride.ID] = len(out)
        out = append(out, er)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) == 0 {
        return out, nil
    }
    // Populate stoppages for all matched rides in a single query.
    ids := make([]interface{}, 0, len(out))
    placeholders := make([]string, 0, len(out))
    for _, er := range out {
        ids = append(ids, er.Ride.ID)
        placeholders = append(placeholders, "?")
    }
    stopQ := `SELECT ride_id, name, position FROM ride_stoppages
              WHERE ride_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY ride_id, position`
    srows, err := r.db.QueryContext(ctx, stopQ, ids...)
    if err != nil {
        return nil, err
    }
    defer srows.Close()
    for srows.Next() {
        var rid string
        var s model.Stoppage
        if err := srows.Scan(&rid, &s.Name, &s.Position); err != nil {
            return nil, err
        }
        if idx, ok := index[rid]; ok {
            out[idx].Ride.Stoppages = append(out[idx].Ride.Stoppages, s)
        }
    }
    return out, srows.Err()
}

// AppendBooking inserts a new booking request for its ride. The ride's
// seat state is untouched; seats are only committed on acceptance.
func (r *RideRepo) AppendBooking(ctx context.Context, req *model.BookingRequest) error {
    req.ID = uuid.NewString()
    var msg interface{}
    if req.Message != "" {
        msg = req.Message
    }
    const q = `INSERT INTO booking_requests (id, ride_id, requester_id, seats, message, status)
               VALUES (?, ?, ?, ?, ?, ?)`
    if _, err := r.db.ExecContext(ctx, q,
        req.ID, req.RideID, req.RequesterID, req.Seats, msg, string(req.Status),
    ); err != nil {
        return err
    }
    return r.db.QueryRowContext(ctx,
        `SELECT created_at, updated_at FROM booking_requests WHERE id = ?`, req.ID,
    ).Scan(&req.CreatedAt, &req.UpdatedAt)
}

// ApplyDecision persists a booking-status transition together with the
// ride's new seat count as one transaction. The rides update is
// conditional on the version the caller read; when the ride changed in
// the meantime the transaction is rolled back and ErrVersionConflict is
// returned so the caller can re-read and retry. On success the caller's
// ride and request are refreshed with the new version and timestamp.
func (r *RideRepo) ApplyDecision(ctx context.Context, ride *model.Ride, req *model.BookingRequest) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        `UPDATE rides SET available_seats = ?, version = version + 1 WHERE id = ? AND version = ?`,
        ride.AvailableSeats, ride.ID, ride.Version,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Either the ride is gone or another writer bumped the version.
        var exists int
        if err = tx.QueryRowContext(ctx, `SELECT 1 FROM rides WHERE id = ?`, ride.ID).Scan(&exists); err != nil {
            if err == sql.ErrNoRows {
                return ErrRideNotFound
            }
            return err
        }
        return ErrVersionConflict
    }
    res, err = tx.ExecContext(ctx,
        `UPDATE booking_requests SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND ride_id = ?`,
        string(req.Status), req.ID, ride.ID,
    )
    if err != nil {
        return err
    }
    if n, err = res.RowsAffected(); err != nil {
        return err
    }
    if n == 0 {
        return ErrBookingNotFound
    }
    var updatedAt time.Time
    if err = tx.QueryRowContext(ctx,
        `SELECT updated_at FROM booking_requests WHERE id = ?`, req.ID,
    ).Scan(&updatedAt); err != nil {
        return err
    }
    if err = tx.Commit(); err != nil {
        return err
    }
    committed = true
    ride.Version++
    req.UpdatedAt = updatedAt
    return nil
}

// ListBookingsByRequester returns the flattened list of a requester's
// booking requests across all rides, newest first, enriched with each
// parent ride's route, date, price and driver name.
func (r *RideRepo) ListBookingsByRequester(ctx context.Context, requesterID string) ([]RequesterBooking, error) {
    const q = `SELECT b.id, b.ride_id, b.requester_id, b.seats, b.message, b.status, b.created_at, b.updated_at,
                      r.start_point, r.end_point, r.travel_date, r.price_per_seat, r.driver_id,
                      COALESCE(u.full_name, '')
               FROM booking_requests b
               JOIN rides r ON r.id = b.ride_id
               LEFT JOIN users u ON u.id = r.driver_id
               WHERE b.requester_id = ?
               ORDER BY b.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, requesterID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]RequesterBooking, 0)
    for rows.Next() {
        var rb RequesterBooking
        var msg sql.NullString
        var status string
        if err := rows.Scan(
            &rb.Booking.ID, &rb.Booking.RideID, &rb.Booking.RequesterID, &rb.Booking.Seats,
            &msg, &status, &rb.Booking.CreatedAt, &rb.Booking.UpdatedAt,
            &rb.StartPoint, &rb.EndPoint, &rb.TravelDate, &rb.PricePerSeat, &rb.DriverID,
            &rb.DriverName,
        ); err != nil {
            return nil, err
        }
        if msg.Valid {
            rb.Booking.Message = msg.String
        }
        rb.Booking.Status = model.BookingStatus(status)
        out = append(out, rb)
    }
    return out, rows.Err()
}
