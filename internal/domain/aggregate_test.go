package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func record(venueID int64, venueName string, status BookingStatus, total int64, p *Payment) BookingRecord {
	return BookingRecord{
		Booking: Booking{
			ID:         uuid.New(),
			VenueID:    venueID,
			TotalCents: total,
			Status:     status,
		},
		Payment:   p,
		VenueName: venueName,
	}
}

func TestCountsAsRevenue(t *testing.T) {
	tests := []struct {
		name    string
		booking BookingStatus
		payment *Payment
		want    bool
	}{
		{
			name:    "completed bank transfer counts",
			booking: BookingConfirmed,
			payment: &Payment{Method: MethodBankTransfer, Status: PaymentCompleted},
			want:    true,
		},
		{
			name:    "pending bank transfer does not count",
			booking: BookingConfirmed,
			payment: &Payment{Method: MethodBankTransfer, Status: PaymentPending},
			want:    false,
		},
		{
			name:    "pending cash on confirmed booking counts",
			booking: BookingConfirmed,
			payment: &Payment{Method: MethodCash, Status: PaymentPending},
			want:    true,
		},
		{
			name:    "pending cash on completed booking counts",
			booking: BookingCompleted,
			payment: &Payment{Method: MethodCash, Status: PaymentPending},
			want:    true,
		},
		{
			name:    "pending cash on pending booking does not count",
			booking: BookingPending,
			payment: &Payment{Method: MethodCash, Status: PaymentPending},
			want:    false,
		},
		{
			name:    "cancelled booking with no payment does not count",
			booking: BookingCancelled,
			payment: nil,
			want:    false,
		},
		{
			name:    "completed payment counts even on cancelled booking",
			booking: BookingCancelled,
			payment: &Payment{Method: MethodBankTransfer, Status: PaymentCompleted},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.booking}
			require.Equal(t, tt.want, CountsAsRevenue(b, tt.payment))
		})
	}
}

func TestAggregate(t *testing.T) {
	paid := &Payment{Method: MethodBankTransfer, Status: PaymentCompleted}
	cash := &Payment{Method: MethodCash, Status: PaymentPending}

	records := []BookingRecord{
		record(1, "Grand Hall", BookingConfirmed, 126_000, paid),
		record(1, "Grand Hall", BookingPending, 105_000, nil),
		record(2, "Garden", BookingCompleted, 210_000, cash),
		record(2, "Garden", BookingCancelled, 99_000, nil),
		record(3, "Loft", BookingConfirmed, 50_000, &Payment{Method: MethodBankTransfer, Status: PaymentPending}),
	}

	report := Aggregate(records, 2)

	require.Equal(t, 5, report.TotalBookings)
	require.Equal(t, int64(126_000+210_000), report.TotalRevenueCents)
	require.Equal(t, map[BookingStatus]int{
		BookingPending:   1,
		BookingConfirmed: 2,
		BookingCompleted: 1,
		BookingCancelled: 1,
	}, report.ByStatus)

	require.Len(t, report.TopVenues, 2)
	require.Equal(t, int64(2), report.TopVenues[0].VenueID)
	require.Equal(t, int64(210_000), report.TopVenues[0].RevenueCents)
	require.Equal(t, int64(1), report.TopVenues[1].VenueID)
	require.Equal(t, 2, report.TopVenues[1].Bookings)
}

func TestAggregateDeterministic(t *testing.T) {
	// equal revenue venues must rank stably across runs
	records := []BookingRecord{
		record(7, "A", BookingConfirmed, 10_000, &Payment{Method: MethodCash}),
		record(3, "B", BookingConfirmed, 10_000, &Payment{Method: MethodCash}),
		record(5, "C", BookingConfirmed, 10_000, &Payment{Method: MethodCash}),
	}

	first := Aggregate(records, 10)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Aggregate(records, 10))
	}

	require.Equal(t, int64(3), first.TopVenues[0].VenueID)
	require.Equal(t, int64(5), first.TopVenues[1].VenueID)
	require.Equal(t, int64(7), first.TopVenues[2].VenueID)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil, 5)

	require.Zero(t, report.TotalRevenueCents)
	require.Zero(t, report.TotalBookings)
	require.Empty(t, report.TopVenues)
	require.Empty(t, report.ByStatus)
}

func TestWindowContains(t *testing.T) {
	w := MonthWindow(2026, time.March)

	require.True(t, w.Contains(DateOnly(w.From)))
	require.True(t, w.Contains(DateOnly(w.To)))
	require.False(t, w.Contains(w.From.AddDate(0, 0, -1)))
	require.False(t, w.Contains(w.To.AddDate(0, 0, 1)))

	y := YearWindow(2026)
	require.Equal(t, "2026-01-01", y.From.Format(time.DateOnly))
	require.Equal(t, "2026-12-31", y.To.Format(time.DateOnly))
}
