package dto

import (
	"errors"
	"net/http"

	"github.com/crmhub/backend/internal/domain/shared"
	"github.com/crmhub/backend/internal/infrastructure/store"
)

// codeHTTPStatus maps domain error codes to HTTP status codes.
var codeHTTPStatus = map[string]int{
	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeConflict:          http.StatusConflict,
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodePrecondition:      http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition: http.StatusUnprocessableEntity,
	shared.CodeExternalService:   http.StatusBadGateway,
	shared.CodeUnauthorized:      http.StatusUnauthorized,
	shared.CodeForbidden:         http.StatusForbidden,
}

// MapError translates any error into an HTTP status and envelope.
// Unrecognized errors (including store transport faults) become an
// opaque 500 so internals never leak.
func MapError(err error) (int, Response) {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		status, ok := codeHTTPStatus[derr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, NewErrorResponse(derr.Code, derr.Message)
	}

	var serr *store.StoreError
	if errors.As(err, &serr) {
		return http.StatusInternalServerError,
			NewErrorResponse("STORE_ERROR", "A storage error occurred")
	}

	return http.StatusInternalServerError,
		NewErrorResponse("INTERNAL_ERROR", "An internal error occurred")
}
