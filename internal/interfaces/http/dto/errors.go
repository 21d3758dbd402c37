package dto

import "net/http"

// Error codes the API surfaces. Domain error codes map onto these one to one
// so handlers never invent their own.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeDuplicateReceipt    = "DUPLICATE_RECEIPT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeCostCalculation     = "COST_CALCULATION_FAILED"
	ErrCodeTransactionFailed   = "TRANSACTION_FAILED"
	ErrCodeSystemError         = "SYSTEM_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeDuplicateReceipt:    http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeValidationFailed: http.StatusUnprocessableEntity,
	ErrCodeCostCalculation:  http.StatusUnprocessableEntity,

	ErrCodeTransactionFailed: http.StatusInternalServerError,
	ErrCodeSystemError:       http.StatusInternalServerError,
	ErrCodeInternal:          http.StatusInternalServerError,

	// Domain guard codes raised by aggregates
	"NO_ITEMS":          http.StatusUnprocessableEntity,
	"DUPLICATE_PRODUCT": http.StatusUnprocessableEntity,
	"INVALID_REASON":    http.StatusBadRequest,
	"INVALID_PRODUCT":   http.StatusBadRequest,
	"INVALID_QUANTITY":  http.StatusBadRequest,
	"INVALID_COST":      http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unknown codes
// map to 500 so a new domain code can never silently succeed.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
