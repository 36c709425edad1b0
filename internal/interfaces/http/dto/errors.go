package dto

import (
	"net/http"
	"strings"
)

// Error codes sent to clients. Domain codes are prefixed with ERR_ unless
// they are folded into one of these by DomainCodeMapping.
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeInUse               = "ERR_IN_USE"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState     = "ERR_INVALID_STATE"
	ErrCodeAllocationOver   = "ERR_ALLOCATION_OVER"
	ErrCodeAllocationUnder  = "ERR_ALLOCATION_UNDER"
	ErrCodeExceedsRemaining = "ERR_EXCEEDS_REMAINING"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. ERR_INVALID_*
// codes not listed here are 400.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInUse:               http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeAllocationOver:   http.StatusUnprocessableEntity,
	ErrCodeAllocationUnder:  http.StatusUnprocessableEntity,
	ErrCodeExceedsRemaining: http.StatusUnprocessableEntity,
	"ERR_GUARANTEE_CLEARED": http.StatusBadRequest,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// DomainCodeMapping folds domain error codes that share a client-facing meaning
var DomainCodeMapping = map[string]string{
	"VALIDATION_ERROR":        ErrCodeValidation,
	"UNAUTHORIZED":            ErrCodeUnauthorized,
	"INVALID_ACCOUNT":         ErrCodeUnauthorized,
	"INVALID_CREDENTIALS":     ErrCodeUnauthorized,
	"TOKEN_INVALID":           ErrCodeUnauthorized,
	"TOKEN_REVOKED":           ErrCodeUnauthorized,
	"CONCURRENT_MODIFICATION": ErrCodeConcurrencyConflict,
	"INTERNAL":                ErrCodeInternal,
	"PASSWORD_HASH_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the ERR_ form
func NormalizeErrorCode(code string) string {
	if mapped, ok := DomainCodeMapping[code]; ok {
		return mapped
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
