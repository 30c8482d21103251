package redis

import "fmt"

const ns = "venuebook:v1"

func KeyVenueSummary(venueID int64) string {
	return fmt.Sprintf("%s:venue:%d:summary", ns, venueID)
}

// KeyVenueAvailability caches the derived slot map for one (venue, date)
// pair; date is the YYYY-MM-DD form.
func KeyVenueAvailability(venueID int64, date string) string {
	return fmt.Sprintf("%s:venue:%d:availability:%s", ns, venueID, date)
}

func KeyReport(scopeKind string, scopeID int64, from, to string) string {
	return fmt.Sprintf("%s:report:%s:%d:%s:%s", ns, scopeKind, scopeID, from, to)
}

func KeyIdemBooking(venueID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%d:%s", ns, venueID, idemKey)
}

// RateLimitPrefix namespaces the sliding-window limiter's keys.
func RateLimitPrefix() string {
	return ns + ":rl"
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}
