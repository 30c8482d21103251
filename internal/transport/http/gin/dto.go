package httpgin

import (
	"time"

	"venuebook/internal/domain"
)

type ContactInput struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	PhonePrimary   string `json:"phone_primary" binding:"required"`
	PhoneSecondary string `json:"phone_secondary"`
}

type CreateBookingRequest struct {
	CustomerID   int64        `json:"customer_id" binding:"required"`
	VenueID      int64        `json:"venue_id" binding:"required"`
	EventDate    string       `json:"event_date" binding:"required"` // YYYY-MM-DD
	Slot         string       `json:"slot" binding:"required"`
	EventType    string       `json:"event_type" binding:"required"`
	Requirements string       `json:"special_requirements"`
	Contact      ContactInput `json:"contact" binding:"required"`
	FacilityIDs  []int64      `json:"facility_ids"`

	PaymentMethod string  `json:"payment_method"`
	TxRef         *string `json:"trx_id"`
}

type QuoteResponse struct {
	BaseCents     int64 `json:"base_cents"`
	FacilityCents int64 `json:"facility_cents"`
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

type CreateBookingResponse struct {
	BookingID string        `json:"booking_id"`
	Status    string        `json:"status"`
	Quote     QuoteResponse `json:"quote"`
}

type UpdateBookingStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	ActorID int64  `json:"actor_id" binding:"required"`
	Reason  string `json:"reason"`
}

type UpdatePaymentStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	ActorID int64  `json:"actor_id" binding:"required"`
}

type BookingResponse struct {
	Booking *domain.Booking `json:"booking"`
	Payment *domain.Payment `json:"payment,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func quoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		BaseCents:     q.BaseCents,
		FacilityCents: q.FacilityCents,
		SubtotalCents: q.SubtotalCents,
		TaxCents:      q.TaxCents,
		TotalCents:    q.TotalCents,
	}
}

func parseDateOnly(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
