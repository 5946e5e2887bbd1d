package api

import (
	"net/http"

	"slotbook/internal/service"
)

type ServiceHandler struct {
	Catalog *service.CatalogService
}

func NewServiceHandler(catalog *service.CatalogService) *ServiceHandler {
	return &ServiceHandler{Catalog: catalog}
}

// ListServices is the public catalog the booking UI reads pricing from.
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Catalog.ListActive()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": services})
}
