package api

import (
	"encoding/json"
	"net/http"

	"slotbook/internal/apperr"
	"slotbook/internal/service"
)

type PaymentHandler struct {
	Service *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

// CreateIntent handles POST /api/payments/create-intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("body", "invalid request body"))
		return
	}
	if req.BookingID == "" {
		writeError(w, apperr.Validation("bookingId", "bookingId is required"))
		return
	}

	intent, err := h.Service.CreateOrReuseIntent(req.BookingID, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}
