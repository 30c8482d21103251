package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
	"venuebook/internal/uow"
)

type passTx struct{}

func (passTx) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBookings struct {
	byID map[uuid.UUID]*domain.Booking
}

func (f *fakeBookings) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range f.byID {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	b, ok := f.byID[id]
	if !ok || b.Status != from {
		return repository.ErrConflict
	}
	b.Status = to
	return nil
}

func (f *fakeBookings) ExpirePending(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, b := range f.byID {
		if b.Status == domain.BookingPending && !b.CreatedAt.After(cutoff) {
			b.Status = domain.BookingCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeBookings) CompleteElapsed(_ context.Context, today time.Time) (int64, error) {
	var n int64
	for _, b := range f.byID {
		if b.Status == domain.BookingConfirmed && b.EventDate.Before(today) {
			b.Status = domain.BookingCompleted
			n++
		}
	}
	return n, nil
}

type fakePayments struct {
	byID map[uuid.UUID]*domain.Payment
}

func (f *fakePayments) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	for _, p := range f.byID {
		if p.BookingID == bookingID && p.Status != domain.PaymentFailed {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.PaymentStatus) error {
	p, ok := f.byID[id]
	if !ok || p.Status != from {
		return repository.ErrConflict
	}
	p.Status = to
	return nil
}

type fakeAuditor struct {
	entries []string
}

func (f *fakeAuditor) Record(_ context.Context, _ int64, action, targetKind, _, _ string) {
	f.entries = append(f.entries, action+" "+targetKind)
}

type fixture struct {
	svc      *Service
	bookings *fakeBookings
	payments *fakePayments
	auditor  *fakeAuditor
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bookings := &fakeBookings{byID: make(map[uuid.UUID]*domain.Booking)}
	payments := &fakePayments{byID: make(map[uuid.UUID]*domain.Payment)}
	auditor := &fakeAuditor{}

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	svc := New(bookings, payments, auditor, uow.NewUoW(passTx{}), nil, nil, Config{
		PendingTTL: 24 * time.Hour,
	})
	svc = svc.WithClock(func() time.Time { return now })

	return &fixture{svc: svc, bookings: bookings, payments: payments, auditor: auditor, now: now}
}

func (fx *fixture) addBooking(status domain.BookingStatus) *domain.Booking {
	b := &domain.Booking{
		ID:         uuid.New(),
		VenueID:    1,
		CustomerID: 42,
		EventDate:  time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC),
		Slot:       "evening",
		TotalCents: 126_000,
		Status:     status,
		CreatedAt:  fx.now.Add(-time.Hour),
	}
	fx.bookings.byID[b.ID] = b
	return b
}

func (fx *fixture) addPayment(bookingID uuid.UUID, method domain.PaymentMethod, status domain.PaymentStatus) *domain.Payment {
	p := &domain.Payment{
		ID:          uuid.New(),
		BookingID:   bookingID,
		Method:      method,
		AmountCents: 126_000,
		Status:      status,
	}
	fx.payments.byID[p.ID] = p
	return p
}

func TestTransitionBooking(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingPending)

	err := fx.svc.TransitionBooking(context.Background(), b.ID, domain.BookingConfirmed, 10, "paid on site")
	require.NoError(t, err)
	require.Equal(t, domain.BookingConfirmed, fx.bookings.byID[b.ID].Status)
	require.Equal(t, []string{"update booking"}, fx.auditor.entries)

	err = fx.svc.TransitionBooking(context.Background(), b.ID, domain.BookingCompleted, 10, "")
	require.NoError(t, err)
	require.Equal(t, domain.BookingCompleted, fx.bookings.byID[b.ID].Status)
}

func TestTransitionBookingIllegal(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name string
		from domain.BookingStatus
		to   domain.BookingStatus
	}{
		{"pending cannot skip to completed", domain.BookingPending, domain.BookingCompleted},
		{"completed is terminal", domain.BookingCompleted, domain.BookingCancelled},
		{"cancelled is terminal", domain.BookingCancelled, domain.BookingConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fx.addBooking(tt.from)

			err := fx.svc.TransitionBooking(context.Background(), b.ID, tt.to, 10, "")

			var ste *domain.StateTransitionError
			require.ErrorAs(t, err, &ste)
			require.Equal(t, tt.from, fx.bookings.byID[b.ID].Status, "status must be unchanged")
		})
	}
}

func TestTransitionBookingNotFound(t *testing.T) {
	fx := newFixture(t)

	err := fx.svc.TransitionBooking(context.Background(), uuid.New(), domain.BookingConfirmed, 10, "")
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancellationLeavesPaymentUntouched(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingPending)
	p := fx.addPayment(b.ID, domain.MethodBankTransfer, domain.PaymentPending)

	err := fx.svc.TransitionBooking(context.Background(), b.ID, domain.BookingCancelled, 42, "plans changed")
	require.NoError(t, err)

	require.Equal(t, domain.BookingCancelled, fx.bookings.byID[b.ID].Status)
	require.Equal(t, domain.PaymentPending, fx.payments.byID[p.ID].Status,
		"cancelling a booking must not fail or refund its payment")
}

func TestPaymentCompletedConfirmsBooking(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingPending)
	p := fx.addPayment(b.ID, domain.MethodBankTransfer, domain.PaymentPending)

	err := fx.svc.TransitionPayment(context.Background(), p.ID, domain.PaymentCompleted, 10)
	require.NoError(t, err)

	require.Equal(t, domain.PaymentCompleted, fx.payments.byID[p.ID].Status)
	require.Equal(t, domain.BookingConfirmed, fx.bookings.byID[b.ID].Status)
	require.Equal(t, []string{"update payment", "update booking"}, fx.auditor.entries)
}

func TestPaymentCompletedNeverResurrectsCancelled(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingCancelled)
	p := fx.addPayment(b.ID, domain.MethodBankTransfer, domain.PaymentPending)

	err := fx.svc.TransitionPayment(context.Background(), p.ID, domain.PaymentCompleted, 10)
	require.NoError(t, err)

	require.Equal(t, domain.PaymentCompleted, fx.payments.byID[p.ID].Status)
	require.Equal(t, domain.BookingCancelled, fx.bookings.byID[b.ID].Status,
		"a completed payment must not revive a cancelled booking")
}

func TestTransitionPaymentIllegal(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingConfirmed)

	tests := []struct {
		name string
		from domain.PaymentStatus
		to   domain.PaymentStatus
	}{
		{"pending cannot be refunded", domain.PaymentPending, domain.PaymentRefunded},
		{"failed is terminal", domain.PaymentFailed, domain.PaymentCompleted},
		{"refunded is terminal", domain.PaymentRefunded, domain.PaymentCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fx.addPayment(b.ID, domain.MethodBankTransfer, tt.from)

			err := fx.svc.TransitionPayment(context.Background(), p.ID, tt.to, 10)

			var ste *domain.StateTransitionError
			require.ErrorAs(t, err, &ste)
			require.Equal(t, tt.from, fx.payments.byID[p.ID].Status)
		})
	}
}

func TestTransitionPaymentNotFound(t *testing.T) {
	fx := newFixture(t)

	err := fx.svc.TransitionPayment(context.Background(), uuid.New(), domain.PaymentCompleted, 10)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestRefundAfterCompletion(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingConfirmed)
	p := fx.addPayment(b.ID, domain.MethodBankTransfer, domain.PaymentCompleted)

	err := fx.svc.TransitionPayment(context.Background(), p.ID, domain.PaymentRefunded, 10)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentRefunded, fx.payments.byID[p.ID].Status)
}

func TestBookingWithPayment(t *testing.T) {
	fx := newFixture(t)
	b := fx.addBooking(domain.BookingPending)

	got, payment, err := fx.svc.Booking(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
	require.Nil(t, payment, "no payment until the customer submits one")

	p := fx.addPayment(b.ID, domain.MethodCash, domain.PaymentPending)

	_, payment, err = fx.svc.Booking(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	require.Equal(t, p.ID, payment.ID)

	_, _, err = fx.svc.Booking(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExpirePending(t *testing.T) {
	fx := newFixture(t)

	stale := fx.addBooking(domain.BookingPending)
	stale.CreatedAt = fx.now.Add(-48 * time.Hour)

	fresh := fx.addBooking(domain.BookingPending)
	fresh.CreatedAt = fx.now.Add(-time.Hour)

	confirmed := fx.addBooking(domain.BookingConfirmed)
	confirmed.CreatedAt = fx.now.Add(-48 * time.Hour)

	n, err := fx.svc.ExpirePending(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.Equal(t, domain.BookingCancelled, fx.bookings.byID[stale.ID].Status)
	require.Equal(t, domain.BookingPending, fx.bookings.byID[fresh.ID].Status)
	require.Equal(t, domain.BookingConfirmed, fx.bookings.byID[confirmed.ID].Status)
}

func TestCompleteElapsed(t *testing.T) {
	fx := newFixture(t)

	past := fx.addBooking(domain.BookingConfirmed)
	past.EventDate = time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)

	today := fx.addBooking(domain.BookingConfirmed)
	today.EventDate = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	n, err := fx.svc.CompleteElapsed(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.Equal(t, domain.BookingCompleted, fx.bookings.byID[past.ID].Status)
	require.Equal(t, domain.BookingConfirmed, fx.bookings.byID[today.ID].Status,
		"the event day itself is not elapsed")
}
