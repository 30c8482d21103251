package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

// BookingRepo persists bookings. Admission atomicity is not implemented
// here by locking: the bookings table carries a partial unique index on
// (venue_id, event_date, slot) restricted to non-terminal statuses, so two
// concurrent inserts for one tuple cannot both commit regardless of how
// many backend instances are running. See migrations/001_init.sql.
type BookingRepo struct {
	store *Store
}

// Create inserts a booking with its facility selection.
//
// Parameters:
//   - ctx: request-scoped context; joins an open transaction when present.
//   - b: booking to persist; ID and CreatedAt must already be set.
//
// Returns:
//   - error: repository.ErrConflict when another non-terminal booking holds
//     the same (venue, date, slot) tuple.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	db := r.store.handle(ctx)

	_, err := db.Exec(ctx,
		`INSERT INTO bookings (
			id, venue_id, customer_id, event_date, slot, event_type,
			special_requirements, full_name, email, phone_primary,
			phone_secondary, total_cents, status, created_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.ID, b.VenueID, b.CustomerID, b.EventDate, b.Slot, b.EventType,
		b.Requirements, b.Contact.FullName, b.Contact.Email,
		b.Contact.PhonePrimary, b.Contact.PhoneSecondary,
		b.TotalCents, b.Status, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if len(b.FacilityIDs) > 0 {
		batch := &pgx.Batch{}
		for _, fid := range b.FacilityIDs {
			batch.Queue(
				`INSERT INTO booking_facilities (booking_id, facility_id)
			 	 VALUES ($1, $2)`,
				b.ID, fid,
			)
		}
		if err := db.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
	}

	return nil
}

// GetByID retrieves a booking with its facility selection.
//
// Returns:
//   - error: repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetByID"

	db := r.store.handle(ctx)

	var b domain.Booking
	err := db.QueryRow(ctx,
		`SELECT b.id, b.venue_id, b.customer_id, b.event_date, b.slot,
		        b.event_type, b.special_requirements, b.full_name, b.email,
		        b.phone_primary, b.phone_secondary, b.total_cents, b.status,
		        b.created_at,
		        COALESCE(array_agg(bf.facility_id)
		                 FILTER (WHERE bf.facility_id IS NOT NULL), '{}')
       	 FROM bookings b
       	 LEFT JOIN booking_facilities bf ON bf.booking_id = b.id
      	 WHERE b.id = $1
      	 GROUP BY b.id`,
		id,
	).Scan(
		&b.ID, &b.VenueID, &b.CustomerID, &b.EventDate, &b.Slot,
		&b.EventType, &b.Requirements, &b.Contact.FullName, &b.Contact.Email,
		&b.Contact.PhonePrimary, &b.Contact.PhoneSecondary, &b.TotalCents,
		&b.Status, &b.CreatedAt, &b.FacilityIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &b, nil
}

// BookedSlots returns the slot names held by a non-terminal booking for the
// (venue, date) pair. The read is a single snapshot query: it may lag a
// concurrent writer but never reports a torn state.
func (r *BookingRepo) BookedSlots(ctx context.Context, venueID int64, date time.Time) ([]string, error) {
	const op = "postgres.BookingRepo.BookedSlots"

	db := r.store.handle(ctx)

	rows, err := db.Query(ctx,
		`SELECT slot
       	 FROM bookings
      	 WHERE venue_id = $1
        	AND event_date = $2
        	AND status IN ('pending', 'confirmed')`,
		venueID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpdateStatus performs a guarded compare-and-set on the booking status.
//
// Returns:
//   - error: repository.ErrConflict when no row matched, meaning the status
//     moved underneath the caller (or the booking does not exist).
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	const op = "postgres.BookingRepo.UpdateStatus"

	db := r.store.handle(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET status = $3
      	 WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrConflict)
	}

	return nil
}

// List retrieves bookings for dashboards. Plain retrieval, no invariants.
func (r *BookingRepo) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.List"

	db := r.store.handle(ctx)

	query := `SELECT id, venue_id, customer_id, event_date, slot, event_type,
	                 special_requirements, full_name, email, phone_primary,
	                 phone_secondary, total_cents, status, created_at
	          FROM bookings`
	var args []any
	var where []string

	addArg := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.VenueID != nil {
		addArg("venue_id = $%d", *filter.VenueID)
	}
	if filter.Status != nil {
		addArg("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		addArg("event_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		addArg("event_date <= $%d", *filter.To)
	}

	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY event_date DESC, created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.VenueID, &b.CustomerID, &b.EventDate, &b.Slot,
			&b.EventType, &b.Requirements, &b.Contact.FullName,
			&b.Contact.Email, &b.Contact.PhonePrimary,
			&b.Contact.PhoneSecondary, &b.TotalCents, &b.Status, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ExpirePending cancels pending bookings created at or before the cutoff so
// abandoned admissions stop holding their slot.
//
// Returns:
//   - int64: the number of bookings cancelled.
func (r *BookingRepo) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "postgres.BookingRepo.ExpirePending"

	db := r.store.handle(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET status = 'cancelled'
      	 WHERE status = 'pending' AND created_at <= $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

// CompleteElapsed marks confirmed bookings whose event date has passed as
// completed.
//
// Returns:
//   - int64: the number of bookings completed.
func (r *BookingRepo) CompleteElapsed(ctx context.Context, today time.Time) (int64, error) {
	const op = "postgres.BookingRepo.CompleteElapsed"

	db := r.store.handle(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET status = 'completed'
      	 WHERE status = 'confirmed' AND event_date < $1`,
		today,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}
