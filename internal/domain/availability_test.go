package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeriveAvailability(t *testing.T) {
	slots := []Slot{{Name: "morning"}, {Name: "evening"}, {Name: "full_day"}}

	t.Run("no bookings leaves every slot free", func(t *testing.T) {
		got := DeriveAvailability(slots, nil)
		require.Equal(t, []SlotAvailability{
			{Slot: "morning", Available: true},
			{Slot: "evening", Available: true},
			{Slot: "full_day", Available: true},
		}, got)
	})

	t.Run("booked slots are marked and order is preserved", func(t *testing.T) {
		got := DeriveAvailability(slots, []string{"evening"})
		require.Equal(t, []SlotAvailability{
			{Slot: "morning", Available: true},
			{Slot: "evening", Available: false},
			{Slot: "full_day", Available: true},
		}, got)
	})

	t.Run("booked names outside the catalog are ignored", func(t *testing.T) {
		got := DeriveAvailability(slots, []string{"midnight"})
		for _, s := range got {
			require.True(t, s.Available)
		}
	})
}

func TestDateOnly(t *testing.T) {
	// 23:30 Nov 3 at UTC-5 is already Nov 4 in UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2025, time.November, 3, 23, 30, 0, 0, loc)

	got := DateOnly(local)
	require.Equal(t, "2025-11-04", got.Format(time.DateOnly))
	require.Equal(t, time.UTC, got.Location())
	require.Zero(t, got.Hour())
}
