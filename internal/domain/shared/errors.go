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

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Stale state - retry after re-fetch")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateReceipt    = NewDomainError("DUPLICATE_RECEIPT", "A receipt for this order was recorded moments ago")
)

// Engine error codes. Field-level validation failures never surface as Go
// errors; they travel in the result's issue list. The remaining categories
// surface as DomainError values with one of these codes.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeDuplicateReceipt      = "DUPLICATE_RECEIPT"
	CodeNotFound              = "NOT_FOUND"
	CodeCostCalculationFailed = "COST_CALCULATION_FAILED"
	CodeTransactionFailed     = "TRANSACTION_FAILED"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	CodeSystemError           = "SYSTEM_ERROR"
)

// NewTransactionError wraps a commit failure. The commit is guaranteed to have
// been fully rolled back when this error is produced.
func NewTransactionError(cause error) *DomainError {
	return NewDomainError(CodeTransactionFailed, fmt.Sprintf("transaction failed and was rolled back: %v", cause))
}

// NewSystemError wraps an unexpected internal failure (including recovered
// panics) so the engine never lets a raw error escape its boundary.
func NewSystemError(detail interface{}) *DomainError {
	return NewDomainError(CodeSystemError, fmt.Sprintf("unexpected internal error: %v", detail))
}

// IsCode reports whether err is a DomainError carrying the given code.
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
