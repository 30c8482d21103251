package admission

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
	redisrepo "venuebook/internal/repository/redis"
	"venuebook/internal/uow"
)

type Catalog interface {
	GetVenue(ctx context.Context, id int64) (*domain.Venue, error)
}

type Bookings interface {
	Create(ctx context.Context, b *domain.Booking) error
	BookedSlots(ctx context.Context, venueID int64, date time.Time) ([]string, error)
}

type Payments interface {
	Create(ctx context.Context, p *domain.Payment) error
}

type Auditor interface {
	Record(ctx context.Context, actorID int64, action, targetKind, targetID, detail string)
}

type Request struct {
	CustomerID   int64
	VenueID      int64
	EventDate    time.Time
	Slot         string
	EventType    string
	Requirements string
	Contact      domain.Contact
	FacilityIDs  []int64

	// Payment intent submitted with the booking form. Empty method means
	// the customer deferred the choice; no payment row is created.
	PaymentMethod domain.PaymentMethod
	TxRef         *string

	// RateKey throttles repeat admission attempts per caller (client IP).
	RateKey string
}

type Result struct {
	Booking *domain.Booking
	Quote   domain.Quote
}

// Service is the reservation write path. The availability check it performs
// is advisory; the real serialization point is the store's uniqueness
// constraint on (venue, date, slot) over non-terminal statuses, so two
// concurrent admissions for one tuple cannot both commit no matter how many
// instances serve traffic.
type Service struct {
	catalog  Catalog
	bookings Bookings
	payments Payments
	auditor  Auditor
	uow      *uow.UoW
	cache    *redisrepo.Cache
	pubsub   *redisrepo.BookingsPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	now      func() time.Time
}

func New(
	catalog Catalog,
	bookings Bookings,
	payments Payments,
	auditor Auditor,
	u *uow.UoW,
	cache *redisrepo.Cache,
	pubsub *redisrepo.BookingsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		catalog:  catalog,
		bookings: bookings,
		payments: payments,
		auditor:  auditor,
		uow:      u,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Admit validates and commits a new booking. Preconditions are checked in
// order, each failing fast with a distinct error: venue exists and is
// active, slot is defined on the venue, the event date is today or later,
// the slot is currently free, and every selected facility is known and
// available. On success the booking is persisted as pending together with
// its payment record (when a method was submitted) and an audit entry, all
// in one transaction.
//
// Returns:
//   - *Result: the created booking and its price breakdown.
//   - error: *admission.ValidationError for malformed input.
//   - error: admission.ErrVenueNotFound / ErrVenueInactive.
//   - error: admission.ErrSlotUnavailable when a concurrent admission won
//     the same (venue, date, slot) tuple.
//   - error: admission.ErrRateLimited when the caller is throttled.
func (s *Service) Admit(ctx context.Context, req Request) (*Result, error) {
	const op = "service.admission.Admit"

	if err := validateContact(req.Contact); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePaymentIntent(req.PaymentMethod, req.TxRef); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.limiter != nil && req.RateKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, req.RateKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w (retry in %s)", op, ErrRateLimited, retry)
		}
	}

	venue, err := s.catalog.GetVenue(ctx, req.VenueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrVenueNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if venue.Status != domain.VenueActive {
		return nil, fmt.Errorf("%s: %w", op, ErrVenueInactive)
	}

	if _, ok := venue.SlotByName(req.Slot); !ok {
		return nil, fmt.Errorf("%s: %w", op, invalid("slot", "venue %d does not define slot %q", venue.ID, req.Slot))
	}

	eventDate := domain.DateOnly(req.EventDate)
	today := domain.DateOnly(s.now())
	if eventDate.Before(today) {
		return nil, fmt.Errorf("%s: %w", op, invalid("event_date", "date %s is in the past", eventDate.Format(time.DateOnly)))
	}

	booked, err := s.bookings.BookedSlots(ctx, venue.ID, eventDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, taken := range booked {
		if taken == req.Slot {
			return nil, fmt.Errorf("%s: %w", op, ErrSlotUnavailable)
		}
	}

	// Facilities must be rejected here, before pricing: the calculator
	// never silently drops an unavailable selection.
	for _, fid := range req.FacilityIDs {
		f, ok := venue.FacilityByID(fid)
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, invalid("facility_ids", "venue %d has no facility %d", venue.ID, fid))
		}
		if !f.Available {
			return nil, fmt.Errorf("%s: %w", op, invalid("facility_ids", "facility %q is not available", f.Name))
		}
	}

	quote, err := domain.PriceBooking(venue, req.Slot, req.FacilityIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking := &domain.Booking{
		ID:           uuid.New(),
		VenueID:      venue.ID,
		CustomerID:   req.CustomerID,
		EventDate:    eventDate,
		Slot:         req.Slot,
		EventType:    req.EventType,
		Requirements: req.Requirements,
		Contact:      req.Contact,
		FacilityIDs:  req.FacilityIDs,
		TotalCents:   quote.TotalCents,
		Status:       domain.BookingPending,
		CreatedAt:    s.now().UTC(),
	}

	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.bookings.Create(ctx, booking); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrSlotUnavailable)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if req.PaymentMethod != "" {
			payment := &domain.Payment{
				ID:          uuid.New(),
				BookingID:   booking.ID,
				Method:      req.PaymentMethod,
				TxRef:       req.TxRef,
				AmountCents: quote.TotalCents,
				Status:      domain.PaymentPending,
				PaidAt:      s.now().UTC(),
			}
			if err := s.payments.Create(ctx, payment); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		s.auditor.Record(ctx, req.CustomerID, "create", "booking", booking.ID.String(),
			fmt.Sprintf("created %s booking for venue #%d on %s (%s)",
				booking.EventType, venue.ID,
				eventDate.Format(time.DateOnly), booking.Slot))

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateVenueDay(ctx, venue.ID, eventDate.Format(time.DateOnly))
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishBookingChanged(ctx, venue.ID, booking.ID, string(booking.Status))
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{Booking: booking, Quote: quote}, nil
}

func validateContact(c domain.Contact) error {
	if c.FullName == "" {
		return invalid("full_name", "provide the customer name")
	}

	if _, err := mail.ParseAddress(c.Email); err != nil {
		return invalid("email", "provide a valid email")
	}

	if c.PhonePrimary == "" {
		return invalid("phone_primary", "provide a primary phone")
	}

	return nil
}

func validatePaymentIntent(method domain.PaymentMethod, txRef *string) error {
	switch method {
	case "":
		return nil
	case domain.MethodCash:
		return nil
	case domain.MethodBankTransfer:
		if txRef == nil || *txRef == "" {
			return invalid("trx_id", "bank transfer requires a transaction reference")
		}
		return nil
	default:
		return invalid("payment_method", "unknown method %q", method)
	}
}
