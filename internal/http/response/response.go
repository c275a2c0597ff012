// Package response writes the JSON envelope shared by every LocalCircle API
// response, for handlers that write to http.ResponseWriter directly.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/localcircle/localcircle-server/internal/errors"
)

// Version is the envelope format version sent as "v".
const Version = 1

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Wrap builds the envelope for a status and payload. Error payloads carry
// their message, and a domain error also its code and details.
func Wrap(status int, payload any) Envelope {
	if status < 400 {
		return Envelope{Version: Version, Success: true, Data: payload}
	}

	env := Envelope{Version: Version}
	var domainErr *errors.Error
	switch v := payload.(type) {
	case nil:
		env.Error = http.StatusText(status)
	case error:
		env.Error = v.Error()
		if errors.As(v, &domainErr) {
			env.Error = domainErr.Message
			env.Code = string(domainErr.Code)
			env.Details = domainErr.Details
		}
	case string:
		env.Error = v
	default:
		env.Error = http.StatusText(status)
		env.Details = v
	}
	return env
}

// JSON writes payload in an envelope with the given status code.
func JSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(Wrap(status, payload)); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Unauthorized writes a 401 with code UNAUTHORIZED.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	JSON(w, http.StatusUnauthorized, errors.Unauthorized(message), logger)
}

// TooManyRequests writes a 429 with code RATE_LIMITED.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	JSON(w, http.StatusTooManyRequests, errors.RateLimited(message), logger)
}

// HandleError writes the response for err. Domain errors map to their own
// status; anything else is logged and reported as a 500 without detail.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		JSON(w, domainErr.HTTPStatus(), domainErr, logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	JSON(w, http.StatusInternalServerError, errors.Internal("internal server error"), logger)
}
