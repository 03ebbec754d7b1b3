package repository

import (
    "context"
    "strings"

    "github.com/iliyamo/ride-share-booking/internal/model"
)

// GetUsers loads user rows by id for display enrichment (driver and
// passenger names on rides and bookings). The users table is written by
// the external auth collaborator; this service only ever reads it.
// Ids that do not resolve are left out of the returned map.
func (r *RideRepo) GetUsers(ctx context.Context, ids []string) (map[string]model.User, error) {
    out := make(map[string]model.User, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    args := make([]interface{}, 0, len(ids))
    placeholders := make([]string, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
        placeholders = append(placeholders, "?")
    }
    query := `SELECT id, full_name, email, phone, created_at, updated_at
              FROM users WHERE id IN (` + strings.Join(placeholders, ",") + `)`
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var u model.User
        if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
            return nil, err
        }
        out[u.ID] = u
    }
    return out, rows.Err()
}
