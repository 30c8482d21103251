package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/domain"
)

// AnalyticsRepo fetches the aggregation snapshot. The rollup itself is
// computed in the domain package so the figures are a deterministic function
// of one consistent read.
type AnalyticsRepo struct {
	store *Store
}

// Records returns every booking inside the scope and event-date window,
// joined with its current (non-failed) payment and venue name, in one
// snapshot query.
func (r *AnalyticsRepo) Records(ctx context.Context, scope domain.Scope, window domain.Window) ([]domain.BookingRecord, error) {
	const op = "postgres.AnalyticsRepo.Records"

	db := r.store.handle(ctx)

	query := `SELECT b.id, b.venue_id, b.event_date, b.slot, b.total_cents,
	                 b.status, b.created_at, v.name,
	                 p.id, p.booking_id, p.method, p.trx_id, p.amount_cents,
	                 p.status, p.paid_at
	          FROM bookings b
	          JOIN venues v ON v.id = b.venue_id
	          LEFT JOIN payments p
	            ON p.booking_id = b.id AND p.status <> 'failed'
	          WHERE b.event_date BETWEEN $1 AND $2`
	args := []any{window.From, window.To}

	switch scope.Kind {
	case domain.ScopeVenue:
		args = append(args, scope.VenueID)
		query += fmt.Sprintf(" AND b.venue_id = $%d", len(args))
	case domain.ScopeOwner:
		args = append(args, scope.OwnerID)
		query += fmt.Sprintf(" AND v.owner_id = $%d", len(args))
	case domain.ScopePlatform:
		// no extra predicate
	default:
		return nil, fmt.Errorf("%s: unknown scope kind %q", op, scope.Kind)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}
	defer rows.Close()

	var out []domain.BookingRecord
	for rows.Next() {
		var rec domain.BookingRecord
		var (
			pID     *uuid.UUID
			pBkID   *uuid.UUID
			pMethod *domain.PaymentMethod
			pTxRef  *string
			pAmount *int64
			pStatus *domain.PaymentStatus
			pPaidAt *time.Time
		)

		if err := rows.Scan(
			&rec.Booking.ID, &rec.Booking.VenueID, &rec.Booking.EventDate,
			&rec.Booking.Slot, &rec.Booking.TotalCents, &rec.Booking.Status,
			&rec.Booking.CreatedAt, &rec.VenueName,
			&pID, &pBkID, &pMethod, &pTxRef, &pAmount, &pStatus, &pPaidAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}

		if pID != nil {
			rec.Payment = &domain.Payment{
				ID:          *pID,
				BookingID:   *pBkID,
				Method:      *pMethod,
				TxRef:       pTxRef,
				AmountCents: *pAmount,
				Status:      *pStatus,
			}
			if pPaidAt != nil {
				rec.Payment.PaidAt = *pPaidAt
			}
		}

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
