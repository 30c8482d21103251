package postgres

import (
	"context"
	"fmt"

	"venuebook/internal/domain"
)

// CatalogRepo reads venue identity, slots and facilities. The booking core
// never mutates the catalog.
type CatalogRepo struct {
	store *Store
}

// GetVenue retrieves a venue with its ordered slots and facilities.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - id: unique identifier of the venue to retrieve.
//
// Returns:
//   - *domain.Venue: the venue when found.
//   - error: repository.ErrNotFound if the venue is not found.
func (r *CatalogRepo) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgres.CatalogRepo.GetVenue"

	db := r.store.handle(ctx)

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, owner_id, name, status, base_price_cents
       	 FROM venues WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.OwnerID, &v.Name, &v.Status, &v.BasePriceCents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	rows, err := db.Query(ctx,
		`SELECT name, price_cents
       	 FROM venue_slots
      	 WHERE venue_id = $1
      	 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.Name, &s.PriceCents); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		v.Slots = append(v.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	frows, err := db.Query(ctx,
		`SELECT id, name, extra_price_cents, available
       	 FROM venue_facilities
      	 WHERE venue_id = $1
      	 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}
	defer frows.Close()

	for frows.Next() {
		var f domain.Facility
		if err := frows.Scan(&f.ID, &f.Name, &f.ExtraPriceCents, &f.Available); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		v.Facilities = append(v.Facilities, f)
	}
	if err := frows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &v, nil
}
