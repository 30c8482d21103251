package analytics

import (
	"context"
	"fmt"
	"time"

	"venuebook/internal/domain"
	redisrepo "venuebook/internal/repository/redis"
)

// Records supplies the aggregation snapshot: every booking in scope whose
// event date falls inside the window, joined with payment and venue name.
type Records interface {
	Records(ctx context.Context, scope domain.Scope, window domain.Window) ([]domain.BookingRecord, error)
}

type Config struct {
	// ReportTTL bounds report cache staleness. Reports are informational,
	// not transactional, so a short TTL is acceptable in place of
	// event-driven invalidation.
	ReportTTL time.Duration
	TopVenues int
}

// Service computes revenue and booking reports from a single snapshot read.
type Service struct {
	records Records
	cache   *redisrepo.Cache
	cfg     Config
}

func New(records Records, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = 30 * time.Second
	}
	if cfg.TopVenues <= 0 {
		cfg.TopVenues = 5
	}

	return &Service{
		records: records,
		cache:   cache,
		cfg:     cfg,
	}
}

// Report aggregates the scope's bookings over the window. The snapshot is
// read once; the rollup is a pure function of it, so the same stored state
// always yields the same report.
//
// Returns:
//   - error: analytics.ErrUnavailable when the snapshot read fails. No
//     partial report is ever returned.
func (s *Service) Report(ctx context.Context, scope domain.Scope, window domain.Window) (*domain.Report, error) {
	const op = "service.analytics.Report"

	load := func(ctx context.Context) (domain.Report, error) {
		records, err := s.records.Records(ctx, scope, window)
		if err != nil {
			return domain.Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return domain.Aggregate(records, s.cfg.TopVenues), nil
	}

	if s.cache == nil {
		report, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &report, nil
	}

	key := redisrepo.KeyReport(
		string(scope.Kind),
		scopeID(scope),
		window.From.Format(time.DateOnly),
		window.To.Format(time.DateOnly),
	)

	report, err := redisrepo.GetOrSetJSON(ctx, s.cache, key, s.cfg.ReportTTL, load)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &report, nil
}

func scopeID(scope domain.Scope) int64 {
	switch scope.Kind {
	case domain.ScopeVenue:
		return scope.VenueID
	case domain.ScopeOwner:
		return scope.OwnerID
	default:
		return 0
	}
}
