package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

type fakeCatalog struct {
	venues map[int64]*domain.Venue
}

func (f *fakeCatalog) GetVenue(_ context.Context, id int64) (*domain.Venue, error) {
	v, ok := f.venues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

type fakeBookings struct {
	booked map[string][]string // "venueID date" -> slots
}

func (f *fakeBookings) BookedSlots(_ context.Context, _ int64, date time.Time) ([]string, error) {
	return f.booked[date.Format(time.DateOnly)], nil
}

func newService(venue *domain.Venue, booked map[string][]string) *Service {
	catalog := &fakeCatalog{venues: map[int64]*domain.Venue{}}
	if venue != nil {
		catalog.venues[venue.ID] = venue
	}
	return New(catalog, &fakeBookings{booked: booked}, nil, Config{})
}

func testVenue() *domain.Venue {
	return &domain.Venue{
		ID:     1,
		Name:   "Grand Hall",
		Status: domain.VenueActive,
		Slots: []domain.Slot{
			{Name: "morning"},
			{Name: "evening"},
			{Name: "full_day"},
		},
	}
}

func TestVenue(t *testing.T) {
	svc := newService(testVenue(), nil)

	v, err := svc.Venue(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Grand Hall", v.Name)

	_, err = svc.Venue(context.Background(), 99)
	require.ErrorIs(t, err, ErrVenueNotFound)
}

func TestSlotsForDate(t *testing.T) {
	booked := map[string][]string{
		"2026-10-10": {"evening"},
	}
	svc := newService(testVenue(), booked)

	date := time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC)

	slots, err := svc.SlotsForDate(context.Background(), 1, date)
	require.NoError(t, err)
	require.Equal(t, []domain.SlotAvailability{
		{Slot: "morning", Available: true},
		{Slot: "evening", Available: false},
		{Slot: "full_day", Available: true},
	}, slots)

	// a different date is fully free
	free, err := svc.SlotsForDate(context.Background(), 1, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	for _, s := range free {
		require.True(t, s.Available)
	}
}

func TestSlotsForDateNormalizesTime(t *testing.T) {
	booked := map[string][]string{
		"2026-10-10": {"evening"},
	}
	svc := newService(testVenue(), booked)

	// an afternoon timestamp resolves to the same calendar date
	at := time.Date(2026, time.October, 10, 15, 45, 0, 0, time.UTC)

	slots, err := svc.SlotsForDate(context.Background(), 1, at)
	require.NoError(t, err)
	require.False(t, slots[1].Available)
}

func TestSlotsForDateUnknownVenue(t *testing.T) {
	svc := newService(nil, nil)

	_, err := svc.SlotsForDate(context.Background(), 42, time.Now())
	require.ErrorIs(t, err, ErrVenueNotFound)
}
