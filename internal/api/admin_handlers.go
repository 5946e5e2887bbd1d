package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"slotbook/internal/apperr"
	"slotbook/internal/entities"
	"slotbook/internal/service"
)

type AdminHandler struct {
	Bookings *service.BookingService
	Catalog  *service.CatalogService
}

func NewAdminHandler(bookings *service.BookingService, catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Catalog: catalog}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := h.Bookings.ListAll(q.Get("date"), q.Get("service_id"), q.Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": bookings})
}

func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req entities.ServiceResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("body", "invalid request body"))
		return
	}
	svc, err := h.Catalog.Create(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": svc})
}

func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req entities.ServiceResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("body", "invalid request body"))
		return
	}
	svc, err := h.Catalog.Update(mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": svc})
}
