package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "find not found with id 42"}
//
// The status comes from the error's category, never from the handler that
// happened to return it, so the same failure maps to the same status on
// every route.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/apperror"
)

// ErrorResponse is the standard error body returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// internalMessage is what clients see for anything that is not a typed
// client error.
const internalMessage = "An internal error occurred"

// envelope wraps a payload under one key, e.g. {"find": {...}}.
type envelope map[string]any

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body; once Encode writes, the
// headers are on the wire and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error's category to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError is the single place a failed request becomes a response.
//
// Client errors (4xx) carry the AppError's message. Server errors carry a
// generic message; the real cause, including any constraint or upstream
// detail, only goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)

	var appErr *apperror.AppError
	hasAppErr := errors.As(err, &appErr)

	if status >= http.StatusInternalServerError {
		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		}
		if hasAppErr && appErr.Detail != "" {
			attrs = append(attrs, slog.String("detail", appErr.Detail))
		}
		if hasAppErr && appErr.Kind != "" {
			attrs = append(attrs, slog.String("constraint", string(appErr.Kind)))
		}
		logger.Error("request failed", attrs...)

		message := internalMessage
		if hasAppErr && errors.Is(err, apperror.ErrUpstream) {
			message = appErr.Message
		}
		writeJSON(w, status, ErrorResponse{Error: message})
		return
	}

	message := http.StatusText(status)
	if hasAppErr {
		message = appErr.Message
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeSuccess is the body of a mutation that returns nothing else.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{"success": true})
}
