package domain

import (
	"time"

	"github.com/google/uuid"
)

type VenueStatus string

const (
	VenueActive   VenueStatus = "active"
	VenueInactive VenueStatus = "inactive"
	VenuePending  VenueStatus = "pending_approval"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
)

// Slot is a named subdivision of a calendar day and the atomic unit of
// reservation. PriceCents overrides the venue base price when non-zero.
type Slot struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

type Facility struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	ExtraPriceCents int64  `json:"extra_price_cents"`
	Available       bool   `json:"available"`
}

// Venue is owned by the catalog; the booking core only reads it.
type Venue struct {
	ID             int64       `json:"id"`
	OwnerID        int64       `json:"owner_id"`
	Name           string      `json:"name"`
	Status         VenueStatus `json:"status"`
	BasePriceCents int64       `json:"base_price_cents"`
	Slots          []Slot      `json:"slots"`
	Facilities     []Facility  `json:"facilities"`
}

func (v *Venue) SlotByName(name string) (Slot, bool) {
	for _, s := range v.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

func (v *Venue) FacilityByID(id int64) (Facility, bool) {
	for _, f := range v.Facilities {
		if f.ID == id {
			return f, true
		}
	}
	return Facility{}, false
}

// Contact is snapshotted into the booking at creation so later profile
// edits do not rewrite history.
type Contact struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	PhonePrimary   string `json:"phone_primary"`
	PhoneSecondary string `json:"phone_secondary,omitempty"`
}

type Booking struct {
	ID           uuid.UUID     `json:"id"`
	VenueID      int64         `json:"venue_id"`
	CustomerID   int64         `json:"customer_id"`
	EventDate    time.Time     `json:"event_date"` // date only, UTC midnight
	Slot         string        `json:"slot"`
	EventType    string        `json:"event_type"`
	Requirements string        `json:"special_requirements,omitempty"`
	Contact      Contact       `json:"contact"`
	FacilityIDs  []int64       `json:"facility_ids"`
	TotalCents   int64         `json:"total_cents"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Terminal reports whether the booking can no longer change state.
// Terminal bookings never block a slot.
func (b *Booking) Terminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}

type Payment struct {
	ID          uuid.UUID     `json:"id"`
	BookingID   uuid.UUID     `json:"booking_id"`
	Method      PaymentMethod `json:"method"`
	TxRef       *string       `json:"trx_id,omitempty"` // nil for cash
	AmountCents int64         `json:"amount_cents"`
	Status      PaymentStatus `json:"status"`
	PaidAt      time.Time     `json:"payment_date"`
}

// AuditEntry is append-only: created once per mutation, never updated.
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	TargetKind string    `json:"target_kind"`
	TargetID   string    `json:"target_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type SlotAvailability struct {
	Slot      string `json:"slot"`
	Available bool   `json:"available"`
}

// DateOnly truncates a moment to its UTC calendar date. Event dates carry
// no time component beyond the slot.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BookingFilter narrows dashboard listings. Plain retrieval, no invariants.
type BookingFilter struct {
	VenueID *int64
	Status  *BookingStatus
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}
