package api

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fieldErrs []string
		for _, err := range errs {
			var domainErr *errors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			if errors.Is(err, store.ErrNotFound) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(errors.CodeNotFound),
					Message: err.Error(),
				}
			}

			if err != nil {
				fieldErrs = append(fieldErrs, err.Error())
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		// Request validation failures list each offending field.
		if len(fieldErrs) > 0 && status < http.StatusInternalServerError {
			apiErr.Details = map[string]string{"fields": strings.Join(fieldErrs, "; ")}
		}
		return apiErr
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(errors.CodeValidation)
	case http.StatusUnauthorized:
		return string(errors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(errors.CodeForbidden)
	case http.StatusNotFound:
		return string(errors.CodeNotFound)
	case http.StatusConflict:
		return string(errors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(errors.CodeRateLimited)
	default:
		return string(errors.CodeInternal)
	}
}
