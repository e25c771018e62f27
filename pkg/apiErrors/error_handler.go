package apiErrors

import (
	"encoding/json"
	"net/http"
)

// Error codes returned to dashboard clients.
const (
	// Authentication (AUTH_*)
	ErrInvalidCredentials    = "AUTH_001"
	ErrInvalidToken          = "AUTH_002"
	ErrExpiredToken          = "AUTH_003"
	ErrInsufficientPrivilege = "AUTH_004"

	// Validation (VAL_*)
	ErrInvalidRequest      = "VAL_001"
	ErrMissingRequiredData = "VAL_002"
	ErrInvalidFormat       = "VAL_003"

	// Reporting (RPT_*)
	ErrAccountNotFound = "RPT_001"
	ErrEntityNotFound  = "RPT_002"

	// Status toggles (TGL_*)
	ErrStatusUpdateRejected    = "TGL_001"
	ErrStatusUpdateRateLimited = "TGL_002"

	// Server (SRV_*)
	ErrInternalServer    = "SRV_001"
	ErrDatabaseOperation = "SRV_002"
	ErrExternalService   = "SRV_003"
)

var httpStatusMap = map[string]int{
	ErrInvalidCredentials:      http.StatusUnauthorized,
	ErrInvalidToken:            http.StatusUnauthorized,
	ErrExpiredToken:            http.StatusUnauthorized,
	ErrInsufficientPrivilege:   http.StatusForbidden,
	ErrInvalidRequest:          http.StatusBadRequest,
	ErrMissingRequiredData:     http.StatusBadRequest,
	ErrInvalidFormat:           http.StatusBadRequest,
	ErrAccountNotFound:         http.StatusNotFound,
	ErrEntityNotFound:          http.StatusNotFound,
	ErrStatusUpdateRejected:    http.StatusUnprocessableEntity,
	ErrStatusUpdateRateLimited: http.StatusTooManyRequests,
	ErrInternalServer:          http.StatusInternalServerError,
	ErrDatabaseOperation:       http.StatusInternalServerError,
	ErrExternalService:         http.StatusBadGateway,
}

// APIError is the standard error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// WriteError writes the standardized error payload to the response.
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	status, exists := httpStatusMap[code]
	if !exists {
		status = http.StatusInternalServerError
	}

	apiErr := APIError{
		Code:    code,
		Message: message,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiErr)
}

// FromError wraps a Go error into an APIError with the given code.
func FromError(err error, code string) APIError {
	if err == nil {
		return APIError{
			Code:    ErrInternalServer,
			Message: "unknown error",
		}
	}

	return APIError{
		Code:    code,
		Message: err.Error(),
	}
}
