package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
	redisrepo "venuebook/internal/repository/redis"
	"venuebook/internal/uow"
)

type Bookings interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
	CompleteElapsed(ctx context.Context, today time.Time) (int64, error)
}

type Payments interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) error
}

type Auditor interface {
	Record(ctx context.Context, actorID int64, action, targetKind, targetID, detail string)
}

type Config struct {
	// PendingTTL is how long an unpaid pending booking may hold its slot
	// before the sweeper cancels it.
	PendingTTL time.Duration
}

// Service owns booking and payment status moves. Every transition is
// validated against the lifecycle tables, applied as a guarded
// compare-and-set, and audited with the actor and the prior/next status.
type Service struct {
	bookings Bookings
	payments Payments
	auditor  Auditor
	uow      *uow.UoW
	cache    *redisrepo.Cache
	pubsub   *redisrepo.BookingsPubSub
	cfg      Config
	now      func() time.Time
}

func New(
	bookings Bookings,
	payments Payments,
	auditor Auditor,
	u *uow.UoW,
	cache *redisrepo.Cache,
	pubsub *redisrepo.BookingsPubSub,
	cfg Config,
) *Service {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 24 * time.Hour
	}

	return &Service{
		bookings: bookings,
		payments: payments,
		auditor:  auditor,
		uow:      u,
		cache:    cache,
		pubsub:   pubsub,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin time.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// TransitionBooking moves a booking to the requested status.
//
// Returns:
//   - error: lifecycle.ErrBookingNotFound if the booking does not exist.
//   - error: *domain.StateTransitionError for an illegal move; terminal
//     states (completed, cancelled) are never left.
//   - error: lifecycle.ErrConcurrentChange when another writer moved the
//     booking between the read and the update.
func (s *Service) TransitionBooking(
	ctx context.Context,
	id uuid.UUID,
	to domain.BookingStatus,
	actorID int64,
	reason string,
) error {
	const op = "service.lifecycle.TransitionBooking"

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := domain.CheckBookingTransition(b.Status, to); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.bookings.UpdateStatus(ctx, id, b.Status, to); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrConcurrentChange)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		detail := fmt.Sprintf("booking %s -> %s", b.Status, to)
		if reason != "" {
			detail += ": " + reason
		}
		s.auditor.Record(ctx, actorID, "update", "booking", id.String(), detail)

		after(s.bookingChangedHook(b, to))

		return nil
	})
}

// TransitionPayment moves a payment to the requested status. Completing a
// payment reconciles the booking: a still-pending booking is confirmed in
// the same transaction. A booking that already left pending (cancelled
// while the transfer was in flight) is left alone; payment completion
// never resurrects it. Cancelling a booking never touches its payment:
// refunds are a deliberate separate action.
//
// Returns:
//   - error: lifecycle.ErrPaymentNotFound if the payment does not exist.
//   - error: *domain.StateTransitionError for an illegal move; failed and
//     refunded are never left.
//   - error: lifecycle.ErrConcurrentChange on a lost guarded update.
func (s *Service) TransitionPayment(
	ctx context.Context,
	id uuid.UUID,
	to domain.PaymentStatus,
	actorID int64,
) error {
	const op = "service.lifecycle.TransitionPayment"

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		p, err := s.payments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := domain.CheckPaymentTransition(p.Status, to); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.payments.UpdateStatus(ctx, id, p.Status, to); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrConcurrentChange)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		s.auditor.Record(ctx, actorID, "update", "payment", id.String(),
			fmt.Sprintf("payment %s -> %s", p.Status, to))

		if to == domain.PaymentCompleted {
			if err := s.reconcileBooking(ctx, p.BookingID, actorID, after); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		return nil
	})
}

// reconcileBooking confirms the paid booking iff it is still pending.
func (s *Service) reconcileBooking(
	ctx context.Context,
	bookingID uuid.UUID,
	actorID int64,
	after func(uow.AfterCommit),
) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if b.Status != domain.BookingPending {
		return nil
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingPending, domain.BookingConfirmed); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// someone else moved it first; reconciliation is best-effort
			return nil
		}
		return err
	}

	s.auditor.Record(ctx, actorID, "update", "booking", bookingID.String(),
		"booking pending -> confirmed (payment completed)")

	after(s.bookingChangedHook(b, domain.BookingConfirmed))

	return nil
}

// ExpirePending cancels unpaid pending bookings older than the configured
// TTL so abandoned admissions stop holding their slot.
func (s *Service) ExpirePending(ctx context.Context) (int64, error) {
	const op = "service.lifecycle.ExpirePending"

	cutoff := s.now().UTC().Add(-s.cfg.PendingTTL)

	released, err := s.bookings.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if released > 0 {
		s.auditor.Record(ctx, 0, "update", "booking", "batch",
			fmt.Sprintf("expired %d pending bookings older than %s", released, s.cfg.PendingTTL))
	}

	return released, nil
}

// CompleteElapsed marks confirmed bookings whose event date has passed as
// completed.
func (s *Service) CompleteElapsed(ctx context.Context) (int64, error) {
	const op = "service.lifecycle.CompleteElapsed"

	today := domain.DateOnly(s.now())

	n, err := s.bookings.CompleteElapsed(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// Bookings lists bookings for dashboards, newest event first. Limit is
// clamped to [1, 200]; a negative offset is treated as zero.
func (s *Service) Bookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	const op = "service.lifecycle.Bookings"

	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	list, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Booking retrieves one booking with its current payment, nil when the
// customer deferred the payment choice.
func (s *Service) Booking(ctx context.Context, id uuid.UUID) (*domain.Booking, *domain.Payment, error) {
	const op = "service.lifecycle.Booking"

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.payments.GetByBookingID(ctx, b.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b, nil, nil
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, p, nil
}

func (s *Service) bookingChangedHook(b *domain.Booking, to domain.BookingStatus) uow.AfterCommit {
	venueID := b.VenueID
	bookingID := b.ID
	date := b.EventDate.Format(time.DateOnly)

	return func(ctx context.Context) {
		if s.cache != nil {
			_ = s.cache.InvalidateVenueDay(ctx, venueID, date)
		}
		if s.pubsub != nil {
			_ = s.pubsub.PublishBookingChanged(ctx, venueID, bookingID, string(to))
		}
	}
}
