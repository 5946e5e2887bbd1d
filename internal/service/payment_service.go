package service

import (
	"database/sql"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"slotbook/internal/apperr"
	"slotbook/internal/db"
	"slotbook/internal/entities"
)

// Stripe rejects charges below 50 cents (USD and most currencies).
const minChargeCents = 50

const currency = "usd"

// PaymentStore is the persistence surface the payment bridge uses.
type PaymentStore interface {
	GetByID(id string) (*db.Booking, error)
	GetByIntentID(intentID string) (*db.Booking, error)
	SetPaymentIntent(id, intentID, paymentStatus string) error
	UpdateStatusAndPayment(id, status, paymentStatus string) error
	SetPaymentStatus(id, paymentStatus string) error
}

type PaymentRecorder interface {
	Insert(p *db.Payment) error
}

type PaymentService struct {
	bookings PaymentStore
	payments PaymentRecorder
	stripe   StripeAPI
	notifier Notifier
}

func NewPaymentService(bookings PaymentStore, payments PaymentRecorder, stripeAPI StripeAPI, notifier Notifier) *PaymentService {
	return &PaymentService{
		bookings: bookings,
		payments: payments,
		stripe:   stripeAPI,
		notifier: notifier,
	}
}

// CreateOrReuseIntent returns a client secret for the booking's payment.
// Repeated calls for an unpaid booking return the same intent, so reloading
// the payment page never piles up duplicate intents.
func (s *PaymentService) CreateOrReuseIntent(bookingID string, actor Actor) (*entities.PaymentIntentResponse, error) {
	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Upstream("error fetching booking", err)
	}
	if !actor.Admin && b.UserID != actor.UserID {
		return nil, apperr.Forbidden("booking belongs to another user")
	}
	if b.PaymentStatus == db.PaymentPaid {
		return nil, apperr.AlreadyPaid("booking is already paid")
	}
	if b.TotalPriceCents <= 0 {
		return nil, apperr.Validation("total_price", "booking has no chargeable amount")
	}
	if b.TotalPriceCents < minChargeCents {
		return nil, apperr.Validation("total_price", "amount is below the processor minimum")
	}

	if b.PaymentIntentID != "" {
		existing, err := s.stripe.GetIntent(b.PaymentIntentID)
		if err != nil {
			return nil, apperr.Upstream("error retrieving payment intent", err)
		}
		switch existing.Status {
		case stripe.PaymentIntentStatusSucceeded:
			return nil, apperr.AlreadyPaid("payment already succeeded")
		case stripe.PaymentIntentStatusCanceled:
			// fall through and create a fresh intent
		default:
			return &entities.PaymentIntentResponse{
				ClientSecret:    existing.ClientSecret,
				PaymentIntentID: existing.ID,
				AmountCents:     existing.Amount,
				Currency:        string(existing.Currency),
			}, nil
		}
	}

	intent, err := s.stripe.CreateIntent(b.TotalPriceCents, currency, b.ID, b.Customer.Email)
	if err != nil {
		return nil, apperr.Upstream("error creating payment intent", err)
	}
	if err := s.bookings.SetPaymentIntent(b.ID, intent.ID, db.PaymentProcessing); err != nil {
		return nil, apperr.Upstream("error persisting payment intent", err)
	}

	return &entities.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountCents:     intent.Amount,
		Currency:        string(intent.Currency),
	}, nil
}

// HandleIntentSucceeded reconciles a succeeded payment. Safe under duplicate
// webhook delivery: an already-paid booking is left alone and no second
// notification goes out.
func (s *PaymentService) HandleIntentSucceeded(intentID string, amountCents int64, intentCurrency string) error {
	b, err := s.bookings.GetByIntentID(intentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("No booking for payment intent %s, ignoring", intentID)
			return nil
		}
		return err
	}
	// Record the payment first: the insert is a no-op on replay (conflict on
	// intent_id), and doing it before the status flip means a failed run can
	// always be completed by Stripe's retry.
	if err := s.payments.Insert(&db.Payment{
		ID:          uuid.NewString(),
		BookingID:   b.ID,
		IntentID:    intentID,
		AmountCents: amountCents,
		Currency:    intentCurrency,
		Status:      db.PaymentPaid,
	}); err != nil {
		return err
	}
	if b.PaymentStatus == db.PaymentPaid {
		log.Printf("Booking %s already paid, duplicate event for intent %s ignored", b.ID, intentID)
		return nil
	}

	if err := s.bookings.UpdateStatusAndPayment(b.ID, db.StatusConfirmed, db.PaymentPaid); err != nil {
		return err
	}

	b.Status = db.StatusConfirmed
	b.PaymentStatus = db.PaymentPaid
	s.notifier.NotifyBooking(b, "Your payment was received and your booking is confirmed")
	return nil
}

func (s *PaymentService) HandleIntentFailed(intentID string) error {
	b, err := s.bookings.GetByIntentID(intentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("No booking for payment intent %s, ignoring", intentID)
			return nil
		}
		return err
	}
	if b.PaymentStatus == db.PaymentFailed {
		return nil
	}
	if err := s.bookings.SetPaymentStatus(b.ID, db.PaymentFailed); err != nil {
		return err
	}
	b.PaymentStatus = db.PaymentFailed
	s.notifier.NotifyBooking(b, "Your payment failed, please try again")
	return nil
}

// HandleIntentCanceled resets the booking so a fresh intent can be created.
func (s *PaymentService) HandleIntentCanceled(intentID string) error {
	b, err := s.bookings.GetByIntentID(intentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if b.PaymentStatus == db.PaymentPaid {
		log.Printf("Ignoring canceled event for paid booking %s", b.ID)
		return nil
	}
	return s.bookings.SetPaymentStatus(b.ID, db.PaymentPending)
}
