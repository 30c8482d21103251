package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
)

type fakeRecords struct {
	records []domain.BookingRecord
	err     error
	calls   int
}

func (f *fakeRecords) Records(_ context.Context, _ domain.Scope, _ domain.Window) ([]domain.BookingRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func snapshot() []domain.BookingRecord {
	paid := &domain.Payment{Method: domain.MethodBankTransfer, Status: domain.PaymentCompleted}
	cash := &domain.Payment{Method: domain.MethodCash, Status: domain.PaymentPending}

	return []domain.BookingRecord{
		{
			Booking:   domain.Booking{ID: uuid.New(), VenueID: 1, TotalCents: 126_000, Status: domain.BookingConfirmed},
			Payment:   paid,
			VenueName: "Grand Hall",
		},
		{
			Booking:   domain.Booking{ID: uuid.New(), VenueID: 1, TotalCents: 105_000, Status: domain.BookingPending},
			VenueName: "Grand Hall",
		},
		{
			Booking:   domain.Booking{ID: uuid.New(), VenueID: 2, TotalCents: 210_000, Status: domain.BookingCompleted},
			Payment:   cash,
			VenueName: "Garden",
		},
	}
}

func TestReport(t *testing.T) {
	svc := New(&fakeRecords{records: snapshot()}, nil, Config{TopVenues: 5})

	scope := domain.Scope{Kind: domain.ScopePlatform}
	window := domain.MonthWindow(2026, time.September)

	report, err := svc.Report(context.Background(), scope, window)
	require.NoError(t, err)

	require.Equal(t, 3, report.TotalBookings)
	require.Equal(t, int64(126_000+210_000), report.TotalRevenueCents)
	require.Len(t, report.TopVenues, 2)
	require.Equal(t, "Garden", report.TopVenues[0].VenueName)
}

func TestReportDeterministic(t *testing.T) {
	svc := New(&fakeRecords{records: snapshot()}, nil, Config{})

	scope := domain.Scope{Kind: domain.ScopeOwner, OwnerID: 10}
	window := domain.YearWindow(2026)

	first, err := svc.Report(context.Background(), scope, window)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := svc.Report(context.Background(), scope, window)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestReportSnapshotFailure(t *testing.T) {
	records := &fakeRecords{err: errors.New("connection refused")}
	svc := New(records, nil, Config{})

	report, err := svc.Report(context.Background(), domain.Scope{Kind: domain.ScopePlatform}, domain.YearWindow(2026))

	require.Nil(t, report, "no partial report on snapshot failure")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestReportEmptyScope(t *testing.T) {
	svc := New(&fakeRecords{}, nil, Config{})

	report, err := svc.Report(context.Background(), domain.Scope{Kind: domain.ScopeVenue, VenueID: 9}, domain.YearWindow(2026))
	require.NoError(t, err)

	require.Zero(t, report.TotalBookings)
	require.Zero(t, report.TotalRevenueCents)
	require.Empty(t, report.TopVenues)
}
