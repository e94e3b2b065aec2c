package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

// Helper functions shared by all handlers.

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps the application error taxonomy onto HTTP
// status codes.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, err.Error())
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.ErrorTypeUnauthorized:
		respondWithError(w, http.StatusUnauthorized, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// userID returns the trusted upstream gateway identity, empty for anonymous
// callers.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
