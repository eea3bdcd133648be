package dto

import (
	"net/http"

	"github.com/erp/stockcount/internal/domain/shared"
)

// Transport-level error codes. Domain failures keep the code of the
// shared.DomainError that produced them.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = shared.CodeUnauthorized
	ErrCodeForbidden    = shared.CodeForbidden
	ErrCodeNotFound     = shared.CodeNotFound
	ErrCodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "INVALID_TOKEN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	shared.CodeInvalidInput:           http.StatusBadRequest,
	shared.CodeInvalidQuantity:        http.StatusBadRequest,
	shared.CodeUnauthorized:           http.StatusUnauthorized,
	shared.CodeForbidden:              http.StatusForbidden,
	shared.CodeNotFound:               http.StatusNotFound,
	shared.CodeAlreadyExists:          http.StatusConflict,
	shared.CodeNotDeletable:           http.StatusConflict,
	shared.CodeDuplicateRequest:       http.StatusConflict,
	shared.CodeConcurrentModification: http.StatusConflict,
	shared.CodeInsufficientStock:      http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition:      http.StatusUnprocessableEntity,
	shared.CodeSessionClosed:          http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are treated as internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
