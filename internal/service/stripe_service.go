package service

import (
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeAPI is the slice of the processor's SDK the payment bridge uses.
// The webhook path never goes through it; signature-verified events arrive
// at the handler directly.
type StripeAPI interface {
	CreateIntent(amountCents int64, currency, bookingID, receiptEmail string) (*stripe.PaymentIntent, error)
	GetIntent(id string) (*stripe.PaymentIntent, error)
}

type StripeService struct{}

func NewStripeService(secretKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{}
}

func (s *StripeService) CreateIntent(amountCents int64, currency, bookingID, receiptEmail string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}
	params.AddMetadata("booking_id", bookingID)
	return paymentintent.New(params)
}

func (s *StripeService) GetIntent(id string) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, nil)
}
