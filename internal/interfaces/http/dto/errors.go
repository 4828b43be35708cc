package dto

import (
	"net/http"
	"strings"

	"github.com/shopledger/backend/internal/domain/shared"
)

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
)

// Resource error codes, shared with the domain layer
const (
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeAlreadyExists       = shared.CodeAlreadyExists
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeInUse               = shared.CodeInUse
	ErrCodeInvalidInput        = shared.CodeInvalidInput
)

// Unit and stock error codes
const (
	ErrCodeUnitNotDefined          = shared.CodeUnitNotDefined
	ErrCodeIncompatibleUnits       = shared.CodeIncompatibleUnits
	ErrCodeInsufficientStock       = shared.CodeInsufficientStock
	ErrCodeInvalidConversionFactor = shared.CodeInvalidConversionFactor
	// ErrCodeDuplicateUnit is returned when both units of a pair share a name
	ErrCodeDuplicateUnit = "DUPLICATE_UNIT"
)

// Idempotency error codes
const (
	// ErrCodeIdempotencyKeyReused is returned when a key is replayed with a different body
	ErrCodeIdempotencyKeyReused = "IDEMPOTENCY_KEY_REUSED"
	// ErrCodeIdempotencyInProgress is returned while the first request with a key is running
	ErrCodeIdempotencyInProgress = "IDEMPOTENCY_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:              http.StatusBadRequest,
	ErrCodeBadRequest:              http.StatusBadRequest,
	ErrCodeInvalidInput:            http.StatusBadRequest,
	ErrCodeInvalidConversionFactor: http.StatusBadRequest,
	ErrCodeDuplicateUnit:           http.StatusBadRequest,
	ErrCodeRequestTooLarge:         http.StatusRequestEntityTooLarge,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:              http.StatusNotFound,
	ErrCodeAlreadyExists:         http.StatusConflict,
	ErrCodeConcurrencyConflict:   http.StatusConflict,
	ErrCodeInUse:                 http.StatusConflict,
	ErrCodeIdempotencyKeyReused:  http.StatusConflict,
	ErrCodeIdempotencyInProgress: http.StatusConflict,

	// Unit and stock rules -> 422 Unprocessable Entity
	ErrCodeUnitNotDefined:    http.StatusUnprocessableEntity,
	ErrCodeIncompatibleUnits: http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted INVALID_* codes are input errors; anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
