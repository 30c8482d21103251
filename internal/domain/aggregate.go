package domain

import (
	"sort"
	"time"
)

type ScopeKind string

const (
	ScopeVenue    ScopeKind = "venue"
	ScopeOwner    ScopeKind = "owner"
	ScopePlatform ScopeKind = "platform"
)

// Scope selects whose bookings an aggregation covers.
type Scope struct {
	Kind    ScopeKind
	VenueID int64 // set when Kind == ScopeVenue
	OwnerID int64 // set when Kind == ScopeOwner
}

// Window is an inclusive event-date range. Month and year queries are
// expressed by the caller as ranges.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// MonthWindow returns the window covering a calendar month.
func MonthWindow(year int, month time.Month) Window {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: from.AddDate(0, 1, -1)}
}

// YearWindow returns the window covering a calendar year.
func YearWindow(year int) Window {
	return Window{
		From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// BookingRecord is one row of the aggregation snapshot: a booking joined
// with its payment (nil when none was ever created) and its venue name.
type BookingRecord struct {
	Booking   Booking
	Payment   *Payment
	VenueName string
}

type VenueRevenue struct {
	VenueID      int64  `json:"venue_id"`
	VenueName    string `json:"venue_name"`
	Bookings     int    `json:"bookings"`
	RevenueCents int64  `json:"revenue_cents"`
}

type Report struct {
	TotalRevenueCents int64                 `json:"total_revenue_cents"`
	TotalBookings     int                   `json:"total_bookings"`
	ByStatus          map[BookingStatus]int `json:"by_status"`
	TopVenues         []VenueRevenue        `json:"top_venues"`
}

// CountsAsRevenue encodes the recognition rule: a booking contributes its
// total price once its payment completed, or, for cash paid on arrival,
// once the booking itself is confirmed or completed.
func CountsAsRevenue(b *Booking, p *Payment) bool {
	if p != nil && p.Status == PaymentCompleted {
		return true
	}
	if p != nil && p.Method == MethodCash &&
		(b.Status == BookingConfirmed || b.Status == BookingCompleted) {
		return true
	}
	return false
}

// Aggregate rolls a fixed snapshot of records into revenue and booking
// figures. It is a deterministic function of its input: repeated calls over
// the same snapshot return identical reports.
func Aggregate(records []BookingRecord, topN int) Report {
	report := Report{ByStatus: make(map[BookingStatus]int)}
	perVenue := make(map[int64]*VenueRevenue)

	for i := range records {
		rec := &records[i]
		report.TotalBookings++
		report.ByStatus[rec.Booking.Status]++

		vr, ok := perVenue[rec.Booking.VenueID]
		if !ok {
			vr = &VenueRevenue{VenueID: rec.Booking.VenueID, VenueName: rec.VenueName}
			perVenue[rec.Booking.VenueID] = vr
		}
		vr.Bookings++

		if CountsAsRevenue(&rec.Booking, rec.Payment) {
			report.TotalRevenueCents += rec.Booking.TotalCents
			vr.RevenueCents += rec.Booking.TotalCents
		}
	}

	ranked := make([]VenueRevenue, 0, len(perVenue))
	for _, vr := range perVenue {
		ranked = append(ranked, *vr)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RevenueCents != ranked[j].RevenueCents {
			return ranked[i].RevenueCents > ranked[j].RevenueCents
		}
		return ranked[i].VenueID < ranked[j].VenueID
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	report.TopVenues = ranked

	return report
}
