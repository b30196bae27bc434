package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/authcore-io/authcore/internal/auth"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []auth.FieldError `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, messageResponse{Message: msg})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func respondValidationErrors(w http.ResponseWriter, errs auth.ValidationErrors) {
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "Validation failed",
		Details: errs,
	})
}

// respondDependencyError logs the failing operation server-side and sends
// an opaque 500 to the client.
func respondDependencyError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: dependency failure: %v", op, err)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
