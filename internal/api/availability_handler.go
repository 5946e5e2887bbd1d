package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"slotbook/internal/apperr"
	"slotbook/internal/service"
)

type AvailabilityHandler struct {
	Service *service.AvailabilityService
}

func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

// GetAvailability handles GET /api/availability?date&service_id&duration&exclude_booking_id
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	serviceID := q.Get("service_id")
	excludeBookingID := q.Get("exclude_booking_id")

	duration := 1
	if raw := q.Get("duration"); raw != "" {
		var err error
		duration, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperr.Validation("duration", "duration must be an integer"))
			return
		}
	}

	result, cached, err := h.Service.GetAvailability(date, serviceID, duration, excludeBookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
		"cached":  cached,
	})
}

// BulkAvailability handles POST /api/availability with a date list.
func (h *AvailabilityHandler) BulkAvailability(w http.ResponseWriter, r *http.Request) {
	var req BulkAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("body", "invalid request body"))
		return
	}

	results, perf, err := h.Service.GetBulkAvailability(req.Dates, req.ServiceID, req.Duration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"data":        results,
		"performance": perf,
	})
}

// InvalidateCache handles DELETE /api/availability?date&service_id (admin).
func (h *AvailabilityHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.Service.Invalidate(q.Get("date"), q.Get("service_id"))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
