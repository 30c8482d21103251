package domain

import "fmt"

// Tax applied on top of the subtotal, as a ratio of integer cents.
const (
	taxRateNum int64 = 5
	taxRateDen int64 = 100
)

// Quote is the authoritative price breakdown for a booking. All amounts are
// integer minor units; TaxCents is derived as TotalCents - SubtotalCents so
// rounding happens exactly once, on the total.
type Quote struct {
	BaseCents     int64 `json:"base_cents"`
	FacilityCents int64 `json:"facility_cents"`
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// PriceBooking computes the total charge for reserving the named slot of a
// venue with the selected facilities:
//
//	total = base + Σ facility extras, plus 5% tax, rounded half-up once.
//
// The base is the slot price when the catalog sets one, the venue base price
// otherwise. Facility availability is the admission controller's concern;
// this function refuses ids it cannot resolve on the venue rather than
// pricing an invalid selection.
func PriceBooking(venue *Venue, slotName string, facilityIDs []int64) (Quote, error) {
	slot, ok := venue.SlotByName(slotName)
	if !ok {
		return Quote{}, fmt.Errorf("venue %d has no slot %q", venue.ID, slotName)
	}

	base := venue.BasePriceCents
	if slot.PriceCents > 0 {
		base = slot.PriceCents
	}

	var extras int64
	for _, id := range facilityIDs {
		f, ok := venue.FacilityByID(id)
		if !ok {
			return Quote{}, fmt.Errorf("venue %d has no facility %d", venue.ID, id)
		}
		extras += f.ExtraPriceCents
	}

	subtotal := base + extras
	total := (subtotal*(taxRateDen+taxRateNum) + taxRateDen/2) / taxRateDen

	return Quote{
		BaseCents:     base,
		FacilityCents: extras,
		SubtotalCents: subtotal,
		TaxCents:      total - subtotal,
		TotalCents:    total,
	}, nil
}
