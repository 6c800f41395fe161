package shared

import (
	"errors"
	"fmt"
)

// Error codes for the business-rule error taxonomy. Every operation failure
// carries exactly one of these codes; transport layers map them to status
// codes without inspecting messages.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION"
	CodeDuplicateLine     = "DUPLICATE_LINE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodePrivilege         = "PRIVILEGE"
	CodeStateLock         = "STATE_LOCK"
	CodeOverShipment      = "OVER_SHIPMENT"
	CodeConflict          = "CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict = NewDomainError(CodeConflict, "Resource was modified by another process, retry the operation")
)

// NewValidationError reports a business-rule validation failure detected
// before any write.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewDuplicateLineError reports the same product appearing twice in one order.
func NewDuplicateLineError(productID uint64) *DomainError {
	return NewDomainError(CodeDuplicateLine,
		fmt.Sprintf("Product %d appears more than once in the order", productID))
}

// NewInvalidTransitionError reports an event that is illegal for the current
// order status.
func NewInvalidTransitionError(status, event string) *DomainError {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Cannot %s an order in %s status", event, status))
}

// NewPrivilegeError reports a caller acting outside their allowed role:
// a non-creator editing, or a creator approving their own order.
func NewPrivilegeError(message string) *DomainError {
	return NewDomainError(CodePrivilege, message)
}

// NewStateLockError reports a content edit attempted after the order left
// its editable states.
func NewStateLockError(status string) *DomainError {
	return NewDomainError(CodeStateLock,
		fmt.Sprintf("Order content is locked in %s status", status))
}

// NewOverShipmentError reports a shipment exceeding the remaining unshipped
// quantity on a line.
func NewOverShipmentError(productID uint64, requested, remaining string) *DomainError {
	return NewDomainError(CodeOverShipment,
		fmt.Sprintf("Cannot ship %s units of product %d, only %s remain unshipped", requested, productID, remaining))
}

// ErrorCode extracts the taxonomy code from an error, or empty string for
// non-domain errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
