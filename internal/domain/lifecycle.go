package domain

import "fmt"

// StateTransitionError reports an illegal lifecycle move. Illegal moves are
// rejected, never coerced.
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %q to %q", e.Entity, e.From, e.To)
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	// completed and cancelled are terminal
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
	// failed and refunded are terminal
}

// CheckBookingTransition validates a booking status move against the
// lifecycle table.
func CheckBookingTransition(from, to BookingStatus) error {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &StateTransitionError{Entity: "booking", From: string(from), To: string(to)}
}

// CheckPaymentTransition validates a payment status move against the
// lifecycle table.
func CheckPaymentTransition(from, to PaymentStatus) error {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &StateTransitionError{Entity: "payment", From: string(from), To: string(to)}
}
