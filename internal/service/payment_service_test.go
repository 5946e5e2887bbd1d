package service

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"slotbook/internal/apperr"
	"slotbook/internal/db"
)

type fakePaymentStore struct {
	bookings   map[string]*db.Booking
	failUpdate error // consumed by the next UpdateStatusAndPayment
}

func (f *fakePaymentStore) GetByID(id string) (*db.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *b
	return &clone, nil
}

func (f *fakePaymentStore) GetByIntentID(intentID string) (*db.Booking, error) {
	for _, b := range f.bookings {
		if b.PaymentIntentID == intentID {
			clone := *b
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePaymentStore) SetPaymentIntent(id, intentID, paymentStatus string) error {
	b, ok := f.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.PaymentIntentID = intentID
	b.PaymentStatus = paymentStatus
	return nil
}

func (f *fakePaymentStore) UpdateStatusAndPayment(id, status, paymentStatus string) error {
	if f.failUpdate != nil {
		err := f.failUpdate
		f.failUpdate = nil
		return err
	}
	b, ok := f.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	b.PaymentStatus = paymentStatus
	return nil
}

func (f *fakePaymentStore) SetPaymentStatus(id, paymentStatus string) error {
	b, ok := f.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.PaymentStatus = paymentStatus
	return nil
}

type fakeRecorder struct {
	inserted   []db.Payment
	failInsert error // consumed by the next Insert
}

func (f *fakeRecorder) Insert(p *db.Payment) error {
	if f.failInsert != nil {
		err := f.failInsert
		f.failInsert = nil
		return err
	}
	for _, existing := range f.inserted {
		if existing.IntentID == p.IntentID {
			return nil // mirrors ON CONFLICT DO NOTHING
		}
	}
	f.inserted = append(f.inserted, *p)
	return nil
}

type fakeStripe struct {
	intents     map[string]*stripe.PaymentIntent
	createCalls int
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{intents: make(map[string]*stripe.PaymentIntent)}
}

func (f *fakeStripe) CreateIntent(amountCents int64, currency, bookingID, receiptEmail string) (*stripe.PaymentIntent, error) {
	f.createCalls++
	intent := &stripe.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", f.createCalls),
		ClientSecret: fmt.Sprintf("pi_%d_secret", f.createCalls),
		Amount:       amountCents,
		Currency:     stripe.Currency(currency),
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeStripe) GetIntent(id string) (*stripe.PaymentIntent, error) {
	intent, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	return intent, nil
}

func newPaymentFixture(b *db.Booking) (*PaymentService, *fakePaymentStore, *fakeRecorder, *fakeStripe, *fakeNotifier) {
	store := &fakePaymentStore{bookings: map[string]*db.Booking{b.ID: b}}
	recorder := &fakeRecorder{}
	stripeAPI := newFakeStripe()
	notifier := &fakeNotifier{}
	svc := NewPaymentService(store, recorder, stripeAPI, notifier)
	return svc, store, recorder, stripeAPI, notifier
}

func unpaidBooking() *db.Booking {
	return &db.Booking{
		ID: "b1", UserID: "user-1", ServiceID: "svc-1",
		BookingDate: "2026-09-20", StartTime: "10:00", EndTime: "12:00",
		TotalPriceCents: 15000, Status: db.StatusPending, PaymentStatus: db.PaymentPending,
		Customer: db.CustomerInfo{Name: "Ana Ruiz", Email: "ana@example.com"},
	}
}

func TestCreateOrReuseIntent_Idempotent(t *testing.T) {
	svc, store, _, stripeAPI, _ := newPaymentFixture(unpaidBooking())
	actor := Actor{UserID: "user-1"}

	first, err := svc.CreateOrReuseIntent("b1", actor)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", first.PaymentIntentID)
	assert.Equal(t, db.PaymentProcessing, store.bookings["b1"].PaymentStatus)

	second, err := svc.CreateOrReuseIntent("b1", actor)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID, "repeat call must reuse the intent")
	assert.Equal(t, first.ClientSecret, second.ClientSecret)
	assert.Equal(t, 1, stripeAPI.createCalls)
}

func TestCreateOrReuseIntent_AlreadyPaid(t *testing.T) {
	b := unpaidBooking()
	b.PaymentStatus = db.PaymentPaid
	svc, _, _, _, _ := newPaymentFixture(b)

	_, err := svc.CreateOrReuseIntent("b1", Actor{UserID: "user-1"})
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyPaid))
}

func TestCreateOrReuseIntent_SucceededIntentRejected(t *testing.T) {
	svc, _, _, stripeAPI, _ := newPaymentFixture(unpaidBooking())
	actor := Actor{UserID: "user-1"}

	first, err := svc.CreateOrReuseIntent("b1", actor)
	require.NoError(t, err)
	stripeAPI.intents[first.PaymentIntentID].Status = stripe.PaymentIntentStatusSucceeded

	_, err = svc.CreateOrReuseIntent("b1", actor)
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyPaid))
}

func TestCreateOrReuseIntent_CanceledIntentReplaced(t *testing.T) {
	svc, _, _, stripeAPI, _ := newPaymentFixture(unpaidBooking())
	actor := Actor{UserID: "user-1"}

	first, err := svc.CreateOrReuseIntent("b1", actor)
	require.NoError(t, err)
	stripeAPI.intents[first.PaymentIntentID].Status = stripe.PaymentIntentStatusCanceled

	second, err := svc.CreateOrReuseIntent("b1", actor)
	require.NoError(t, err)
	assert.NotEqual(t, first.PaymentIntentID, second.PaymentIntentID, "canceled intent must be replaced")
}

func TestCreateOrReuseIntent_AmountChecks(t *testing.T) {
	b := unpaidBooking()
	b.TotalPriceCents = 0
	svc, _, _, _, _ := newPaymentFixture(b)
	_, err := svc.CreateOrReuseIntent("b1", Actor{UserID: "user-1"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	b = unpaidBooking()
	b.TotalPriceCents = 30 // below the processor minimum
	svc, _, _, _, _ = newPaymentFixture(b)
	_, err = svc.CreateOrReuseIntent("b1", Actor{UserID: "user-1"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateOrReuseIntent_Ownership(t *testing.T) {
	svc, _, _, _, _ := newPaymentFixture(unpaidBooking())

	_, err := svc.CreateOrReuseIntent("b1", Actor{UserID: "someone-else"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = svc.CreateOrReuseIntent("missing", Actor{UserID: "user-1"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestHandleIntentSucceeded_IdempotentReconciliation(t *testing.T) {
	b := unpaidBooking()
	b.PaymentIntentID = "pi_1"
	b.PaymentStatus = db.PaymentProcessing
	svc, store, recorder, _, notifier := newPaymentFixture(b)

	require.NoError(t, svc.HandleIntentSucceeded("pi_1", 15000, "usd"))
	assert.Equal(t, db.PaymentPaid, store.bookings["b1"].PaymentStatus)
	assert.Equal(t, db.StatusConfirmed, store.bookings["b1"].Status)
	assert.Len(t, recorder.inserted, 1)
	assert.Len(t, notifier.messages, 1)

	// Duplicate delivery of the same event.
	require.NoError(t, svc.HandleIntentSucceeded("pi_1", 15000, "usd"))
	assert.Len(t, recorder.inserted, 1, "no second payment row")
	assert.Len(t, notifier.messages, 1, "no second notification")
}

func TestHandleIntentSucceeded_RetryAfterInsertFailure(t *testing.T) {
	b := unpaidBooking()
	b.PaymentIntentID = "pi_1"
	b.PaymentStatus = db.PaymentProcessing
	svc, store, recorder, _, notifier := newPaymentFixture(b)

	recorder.failInsert = errors.New("connection reset")
	require.Error(t, svc.HandleIntentSucceeded("pi_1", 15000, "usd"))
	assert.Empty(t, recorder.inserted)
	assert.NotEqual(t, db.PaymentPaid, store.bookings["b1"].PaymentStatus,
		"booking must not be marked paid before the payment row exists")

	// Stripe redelivers the event; this time it must complete everything.
	require.NoError(t, svc.HandleIntentSucceeded("pi_1", 15000, "usd"))
	assert.Len(t, recorder.inserted, 1, "retry must record the payment row")
	assert.Equal(t, db.PaymentPaid, store.bookings["b1"].PaymentStatus)
	assert.Equal(t, db.StatusConfirmed, store.bookings["b1"].Status)
	assert.Len(t, notifier.messages, 1, "retry must deliver the notification")
}

func TestHandleIntentSucceeded_RetryAfterStatusFailure(t *testing.T) {
	b := unpaidBooking()
	b.PaymentIntentID = "pi_1"
	b.PaymentStatus = db.PaymentProcessing
	svc, store, recorder, _, notifier := newPaymentFixture(b)

	store.failUpdate = errors.New("connection reset")
	require.Error(t, svc.HandleIntentSucceeded("pi_1", 15000, "usd"))
	assert.Len(t, recorder.inserted, 1)

	require.NoError(t, svc.HandleIntentSucceeded("pi_1", 15000, "usd"))
	assert.Len(t, recorder.inserted, 1, "retry must not duplicate the payment row")
	assert.Equal(t, db.PaymentPaid, store.bookings["b1"].PaymentStatus)
	assert.Len(t, notifier.messages, 1)
}

func TestHandleIntentSucceeded_UnknownIntentIgnored(t *testing.T) {
	svc, _, recorder, _, _ := newPaymentFixture(unpaidBooking())
	require.NoError(t, svc.HandleIntentSucceeded("pi_unknown", 1000, "usd"))
	assert.Empty(t, recorder.inserted)
}

func TestHandleIntentFailed(t *testing.T) {
	b := unpaidBooking()
	b.PaymentIntentID = "pi_1"
	b.PaymentStatus = db.PaymentProcessing
	svc, store, _, _, notifier := newPaymentFixture(b)

	require.NoError(t, svc.HandleIntentFailed("pi_1"))
	assert.Equal(t, db.PaymentFailed, store.bookings["b1"].PaymentStatus)
	assert.Len(t, notifier.messages, 1)

	require.NoError(t, svc.HandleIntentFailed("pi_1"))
	assert.Len(t, notifier.messages, 1, "duplicate failure event sends nothing")
}

func TestHandleIntentCanceled_ResetsToPending(t *testing.T) {
	b := unpaidBooking()
	b.PaymentIntentID = "pi_1"
	b.PaymentStatus = db.PaymentProcessing
	svc, store, _, _, _ := newPaymentFixture(b)

	require.NoError(t, svc.HandleIntentCanceled("pi_1"))
	assert.Equal(t, db.PaymentPending, store.bookings["b1"].PaymentStatus)
}

func TestHandleIntentCanceled_PaidBookingUntouched(t *testing.T) {
	b := unpaidBooking()
	b.PaymentIntentID = "pi_1"
	b.PaymentStatus = db.PaymentPaid
	svc, store, _, _, _ := newPaymentFixture(b)

	require.NoError(t, svc.HandleIntentCanceled("pi_1"))
	assert.Equal(t, db.PaymentPaid, store.bookings["b1"].PaymentStatus)
}
