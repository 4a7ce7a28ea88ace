package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

// ErrorResponse is the JSON error body returned by API routes. Messages
// are stable and safe; internal error detail only ever reaches logs.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON serializes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and a safe message.
func WriteError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", slog.Any("error", err))
	} else {
		logger.Debug("request rejected", slog.Any("error", err))
	}
	WriteJSON(w, status, ErrorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, types.ErrPaymentRequired):
		return http.StatusPaymentRequired, "subscription required, your free trial has ended"
	case errors.Is(err, types.ErrCorrelationFailed):
		return http.StatusBadRequest, "could not match payment to an account"
	case errors.Is(err, types.ErrBadRequest):
		return http.StatusBadRequest, "bad request"
	case errors.Is(err, types.ErrPaymentGateway):
		return http.StatusBadGateway, "payment service unavailable, please try again"
	case errors.Is(err, types.ErrActivationFailed):
		return http.StatusInternalServerError, "payment received but activation failed, please contact support"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// DecodeJSON parses a request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return types.ErrBadRequest
	}
	return nil
}
