package dto

import (
	"net/http"

	"github.com/mfgops/backend/internal/domain/shared"
)

// Transport-level error codes, forwarded alongside the business-rule
// taxonomy from the domain layer.
const (
	ErrCodeInternal     = "INTERNAL"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// errorCodeHTTPStatus maps taxonomy codes to HTTP status codes. Handlers
// never inspect error messages.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	shared.CodeNotFound:   http.StatusNotFound,
	shared.CodeValidation: http.StatusBadRequest,
	shared.CodePrivilege:  http.StatusForbidden,
	shared.CodeConflict:   http.StatusConflict,

	// Business rule violations on a well-formed request
	shared.CodeDuplicateLine:     http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition: http.StatusUnprocessableEntity,
	shared.CodeStateLock:         http.StatusUnprocessableEntity,
	shared.CodeOverShipment:      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
