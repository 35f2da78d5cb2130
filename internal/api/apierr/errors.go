package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeAdminRequired      = "ADMIN_REQUIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidAPIKey      = "INVALID_API_KEY"
	CodeCorruptBoard       = "CORRUPT_BOARD"
	CodeNoUndoSnapshot     = "NO_UNDO_SNAPSHOT"
	CodeDropNotFound       = "DROP_NOT_FOUND"
	CodeRankNotFound       = "RANK_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, ve.Error(), ve.Field}}
	}

	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		return &httpError{http.StatusForbidden, APIError{Code: CodeAdminRequired, Message: "Admin access required"}}
	case errors.Is(err, model.ErrCorruptBoard):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeCorruptBoard, Message: "Board data is corrupt"}}
	case errors.Is(err, model.ErrNoUndoSnapshot):
		return &httpError{http.StatusConflict, APIError{Code: CodeNoUndoSnapshot, Message: "No shuffle to undo"}}
	case errors.Is(err, model.ErrDropNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeDropNotFound, Message: "No matching drops found"}}
	case errors.Is(err, model.ErrRankNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeRankNotFound, Message: "No rank data available"}}
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeValidationFailed, Message: err.Error()}}

	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInvalidAPIKeyError is returned when an ingest request has a missing or wrong API key
func NewInvalidAPIKeyError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidAPIKey, Message: "Invalid or missing API key"}}
}

// NewRateLimitedError is returned when a client exceeds the ingest rate limit
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{Code: CodeRateLimited, Message: "Too many requests"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
