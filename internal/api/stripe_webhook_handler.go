package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"slotbook/internal/service"
)

type StripeWebhookHandler struct {
	WebhookSecret  string
	paymentService *service.PaymentService
}

func NewStripeWebhookHandler(webhookSecret string, paymentService *service.PaymentService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		WebhookSecret:  webhookSecret,
		paymentService: paymentService,
	}
}

// HandleWebhook verifies the Stripe signature and dispatches on event type.
// Processing failures return 5xx so Stripe retries delivery; the handlers
// themselves are idempotent against duplicates.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Error parsing payment_intent payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.paymentService.HandleIntentSucceeded(intent.ID, intent.Amount, string(intent.Currency)); err != nil {
			log.Printf("Error reconciling succeeded intent %s: %v", intent.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Error parsing payment_intent payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.paymentService.HandleIntentFailed(intent.ID); err != nil {
			log.Printf("Error reconciling failed intent %s: %v", intent.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "payment_intent.canceled":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Error parsing payment_intent payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.paymentService.HandleIntentCanceled(intent.ID); err != nil {
			log.Printf("Error reconciling canceled intent %s: %v", intent.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
