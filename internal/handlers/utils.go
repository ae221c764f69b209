package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"photo-catalog/internal/asset"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged since the status line has already been sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeServiceError maps a service error to a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	var decodeErr *asset.DecodeFailure
	var encodeErr *asset.EncodeFailure

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, asset.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, asset.ErrNoFolder),
		errors.Is(err, asset.ErrStaleResult),
		errors.Is(err, asset.ErrCanceled):
		status = http.StatusConflict
	case errors.Is(err, asset.ErrSessionInvalidated):
		status = http.StatusGone
	case errors.Is(err, asset.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &decodeErr), errors.As(err, &encodeErr):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.Error("%v", err)
	} else {
		log.Debug("%d: %v", status, err)
	}
	writeJSONError(w, err.Error(), status)
}
