package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tesatiki/internal/service"
	"tesatiki/internal/validation"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// WriteError sends a JSON error body with the given status.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	writeErrorDetails(w, message, nil, statusCode)
}

func writeErrorDetails(w http.ResponseWriter, message string, details any, statusCode int) {
	writeSuccess(w, ErrorResponse{Error: message, Details: details}, statusCode)
}

// writeSuccess encodes data as the JSON response body.
func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

var kindStatus = []struct {
	kind   error
	status int
}{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUnavailable, http.StatusServiceUnavailable},
}

// writeServiceError maps a service failure to its HTTP class. Unknown errors
// are reported as 500 with their message.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status := http.StatusInternalServerError
		for _, ks := range kindStatus {
			if errors.Is(svcErr.Kind, ks.kind) {
				status = ks.status
				break
			}
		}

		var details any
		if svcErr.Details != "" {
			details = svcErr.Details
		}
		writeErrorDetails(w, svcErr.Message, details, status)
		return
	}

	var validationErr validation.Error
	if errors.As(err, &validationErr) {
		WriteError(w, validationErr.Error(), http.StatusBadRequest)
		return
	}

	WriteError(w, err.Error(), http.StatusInternalServerError)
}

// decodeJSON reads the request body into dst. It reports false after
// writing a 400 when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
