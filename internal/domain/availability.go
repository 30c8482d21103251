package domain

// DeriveAvailability maps the venue's defined slots against the set of slot
// names currently held by a non-terminal booking for the queried date. The
// result keeps the catalog's slot order. A venue with no bookings on the
// date yields every slot free.
func DeriveAvailability(slots []Slot, bookedSlots []string) []SlotAvailability {
	booked := make(map[string]struct{}, len(bookedSlots))
	for _, s := range bookedSlots {
		booked[s] = struct{}{}
	}

	out := make([]SlotAvailability, 0, len(slots))
	for _, s := range slots {
		_, taken := booked[s.Name]
		out = append(out, SlotAvailability{Slot: s.Name, Available: !taken})
	}

	return out
}
