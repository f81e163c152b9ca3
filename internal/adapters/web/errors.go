package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"rice-mill/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a service error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, core.ErrInsufficientStock):
		return http.StatusBadRequest, "INSUFFICIENT_STOCK"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeServiceError classifies err for the client. Internal errors are logged
// with the request id and never echoed back.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	h.writeClassifiedError(w, r, err, status, code)
}

func (h *Handler) writeClassifiedError(w http.ResponseWriter, r *http.Request, err error, status int, code string) {
	if status == http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		writeError(w, r, "internal server error", code, status)
		return
	}

	resp := errorResponse{Error: err.Error(), Code: code}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Details = ve.Fields
	}
	writeErrorResponse(w, r, resp, status)
}
