package shared

import "fmt"

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

// Error codes shared across the domain
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodePrecondition      = "PRECONDITION_FAILED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeExternalService   = "EXTERNAL_SERVICE_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict            = NewDomainError(CodeConflict, "Resource already exists")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrPreconditionFailed  = NewDomainError(CodePrecondition, "A write precondition was not met")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrGatewayNotConnected = NewDomainError(CodeExternalService, "Payment gateway is not connected for this tenant")
)

// NewValidationError reports an invalid field with a human-readable reason.
func NewValidationError(field, reason string) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf("%s %s", field, reason))
}

// NewInvalidTransitionError names both states so callers can see which
// transition was rejected.
func NewInvalidTransitionError(from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// NewExternalServiceError wraps an upstream collaborator failure.
func NewExternalServiceError(service, message string) *DomainError {
	return NewDomainError(CodeExternalService, fmt.Sprintf("%s: %s", service, message))
}
