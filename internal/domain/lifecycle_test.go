package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckBookingTransition(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{BookingPending, BookingConfirmed},
		{BookingPending, BookingCancelled},
		{BookingConfirmed, BookingCompleted},
		{BookingConfirmed, BookingCancelled},
	}
	for _, tr := range allowed {
		require.NoError(t, CheckBookingTransition(tr.from, tr.to),
			"%s -> %s should be allowed", tr.from, tr.to)
	}

	statuses := []BookingStatus{
		BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled,
	}

	// terminal states are never left
	for _, terminal := range []BookingStatus{BookingCompleted, BookingCancelled} {
		for _, to := range statuses {
			require.Error(t, CheckBookingTransition(terminal, to),
				"%s -> %s should be rejected", terminal, to)
		}
	}

	// skipping confirmed is not allowed
	require.Error(t, CheckBookingTransition(BookingPending, BookingCompleted))
}

func TestCheckPaymentTransition(t *testing.T) {
	require.NoError(t, CheckPaymentTransition(PaymentPending, PaymentCompleted))
	require.NoError(t, CheckPaymentTransition(PaymentPending, PaymentFailed))
	require.NoError(t, CheckPaymentTransition(PaymentCompleted, PaymentRefunded))

	statuses := []PaymentStatus{
		PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded,
	}
	for _, terminal := range []PaymentStatus{PaymentFailed, PaymentRefunded} {
		for _, to := range statuses {
			require.Error(t, CheckPaymentTransition(terminal, to),
				"%s -> %s should be rejected", terminal, to)
		}
	}

	require.Error(t, CheckPaymentTransition(PaymentPending, PaymentRefunded))
}

func TestStateTransitionErrorFields(t *testing.T) {
	err := CheckBookingTransition(BookingCancelled, BookingConfirmed)

	var ste *StateTransitionError
	require.ErrorAs(t, err, &ste)
	require.Equal(t, "booking", ste.Entity)
	require.Equal(t, string(BookingCancelled), ste.From)
	require.Equal(t, string(BookingConfirmed), ste.To)
}

func TestBookingTerminal(t *testing.T) {
	b := Booking{Status: BookingPending}
	require.False(t, b.Terminal())

	b.Status = BookingConfirmed
	require.False(t, b.Terminal())

	b.Status = BookingCompleted
	require.True(t, b.Terminal())

	b.Status = BookingCancelled
	require.True(t, b.Terminal())
}
