package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"slotbook/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps a domain error to its HTTP shape. Internal failures are
// genericized unless APP_ENV=development.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.StatusCode(err)
	body := map[string]any{"success": false}

	if status >= 500 {
		log.Printf("Internal error: %v", err)
		body["error"] = "Internal server error"
		if os.Getenv("APP_ENV") == "development" {
			body["detail"] = err.Error()
		}
		writeJSON(w, status, body)
		return
	}

	body["error"] = err.Error()
	var e *apperr.Error
	if errors.As(err, &e) && e.Field != "" {
		body["field"] = e.Field
		body["error"] = e.Message
	}
	writeJSON(w, status, body)
}
