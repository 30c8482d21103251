package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

// PaymentRepo persists payment records. A booking has at most one payment
// that is not failed (partial unique index on booking_id); a failed attempt
// can be replaced by a new one.
type PaymentRepo struct {
	store *Store
}

// Create inserts a payment record.
//
// Returns:
//   - error: repository.ErrConflict when the booking already carries a
//     non-failed payment.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	const op = "postgres.PaymentRepo.Create"

	db := r.store.handle(ctx)

	_, err := db.Exec(ctx,
		`INSERT INTO payments (
			id, booking_id, method, trx_id, amount_cents, status, paid_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.BookingID, p.Method, p.TxRef, p.AmountCents, p.Status, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// GetByID retrieves a payment.
//
// Returns:
//   - error: repository.ErrNotFound if the payment does not exist.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	const op = "postgres.PaymentRepo.GetByID"

	db := r.store.handle(ctx)

	var p domain.Payment
	err := db.QueryRow(ctx,
		`SELECT id, booking_id, method, trx_id, amount_cents, status, paid_at
       	 FROM payments WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.BookingID, &p.Method, &p.TxRef, &p.AmountCents, &p.Status, &p.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &p, nil
}

// GetByBookingID retrieves the booking's current (non-failed) payment.
//
// Returns:
//   - error: repository.ErrNotFound if the booking has no such payment.
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	const op = "postgres.PaymentRepo.GetByBookingID"

	db := r.store.handle(ctx)

	var p domain.Payment
	err := db.QueryRow(ctx,
		`SELECT id, booking_id, method, trx_id, amount_cents, status, paid_at
       	 FROM payments
      	 WHERE booking_id = $1 AND status <> 'failed'`,
		bookingID,
	).Scan(&p.ID, &p.BookingID, &p.Method, &p.TxRef, &p.AmountCents, &p.Status, &p.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &p, nil
}

// UpdateStatus performs a guarded compare-and-set on the payment status.
//
// Returns:
//   - error: repository.ErrConflict when no row matched the (id, from) pair.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) error {
	const op = "postgres.PaymentRepo.UpdateStatus"

	db := r.store.handle(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE payments SET status = $3, paid_at = now()
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
