package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
	redisrepo "venuebook/internal/repository/redis"
)

// Catalog is the read-only venue catalog the index derives slots from.
type Catalog interface {
	GetVenue(ctx context.Context, id int64) (*domain.Venue, error)
}

// Bookings supplies the slot names currently held for a (venue, date) pair.
type Bookings interface {
	BookedSlots(ctx context.Context, venueID int64, date time.Time) ([]string, error)
}

type Config struct {
	// AvailabilityTTL bounds how stale a cached slot map may be. Committed
	// admissions invalidate the key anyway; the TTL is the backstop.
	AvailabilityTTL time.Duration
	VenueSummaryTTL time.Duration
}

// Service recomputes slot occupancy from the authoritative booking store on
// every cache miss; it holds no state of its own across requests.
type Service struct {
	catalog  Catalog
	bookings Bookings
	cache    *redisrepo.Cache
	cfg      Config
}

func New(catalog Catalog, bookings Bookings, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.VenueSummaryTTL <= 0 {
		cfg.VenueSummaryTTL = 60 * time.Second
	}

	return &Service{
		catalog:  catalog,
		bookings: bookings,
		cache:    cache,
		cfg:      cfg,
	}
}

// Venue returns the catalog summary clients render booking forms from.
//
// Returns:
//   - error: availability.ErrVenueNotFound if the venue does not exist.
func (s *Service) Venue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "service.availability.Venue"

	load := func(ctx context.Context) (domain.Venue, error) {
		v, err := s.catalog.GetVenue(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Venue{}, ErrVenueNotFound
			}
			return domain.Venue{}, err
		}
		return *v, nil
	}

	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &v, nil
	}

	v, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueSummary(id),
		s.cfg.VenueSummaryTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &v, nil
}

// SlotsForDate reports, for every slot the venue defines, whether it is
// free on the given date. A slot is booked iff a booking in a non-terminal
// status holds the tuple; cancelled and completed bookings never block.
// Past dates are served as data; refusing them is the admission
// controller's job, not the index's.
//
// Returns:
//   - error: availability.ErrVenueNotFound if the venue does not exist.
func (s *Service) SlotsForDate(ctx context.Context, venueID int64, date time.Time) ([]domain.SlotAvailability, error) {
	const op = "service.availability.SlotsForDate"

	date = domain.DateOnly(date)

	load := func(ctx context.Context) ([]domain.SlotAvailability, error) {
		venue, err := s.catalog.GetVenue(ctx, venueID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrVenueNotFound
			}
			return nil, err
		}

		booked, err := s.bookings.BookedSlots(ctx, venueID, date)
		if err != nil {
			return nil, err
		}

		return domain.DeriveAvailability(venue.Slots, booked), nil
	}

	if s.cache == nil {
		slots, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return slots, nil
	}

	slots, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueAvailability(venueID, date.Format(time.DateOnly)),
		s.cfg.AvailabilityTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}
