package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// sendJSON writes a JSON response body.
func sendJSON(w http.ResponseWriter, statusCode int, body any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to encode response", zap.Error(err))
	}
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int, logger *zap.Logger) {
	sendJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, logger)
}

// sendFieldErrors sends per-field validation errors so the form can highlight
// each offending input.
func sendFieldErrors(w http.ResponseWriter, fields models.FieldErrors, logger *zap.Logger) {
	sendJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_failed",
		Message: "one or more fields are invalid",
		Fields:  fields,
	}, logger)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendErrorResponse(w, "invalid request body", http.StatusBadRequest, logger)
		return false
	}
	return true
}
