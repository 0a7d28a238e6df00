// Package apperror provides structured error handling for the inventory engine.
// All business errors must use AppError so the HTTP layer can render them uniformly.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Request shape errors (400)
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingCompany   = "MISSING_COMPANY"
	CodeMissingWarehouse = "MISSING_WAREHOUSE"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Business rule violations (422)
	CodeExceedsOrder      = "EXCEEDS_ORDER"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeStatusTransition  = "INVALID_STATUS_TRANSITION"

	// Conflict (409)
	CodeAlreadyIssued          = "ALREADY_ISSUED"
	CodeDuplicateCode          = "DUPLICATE_CODE"
	CodeSequenceExhausted      = "SEQUENCE_EXHAUSTED"
	CodeConflict               = "CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the engine.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (material ids, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewInvalidInput creates a malformed-input error (400).
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingCompany is returned when an operation lacks a valid company key.
func NewMissingCompany() *AppError {
	return &AppError{
		Code:       CodeMissingCompany,
		Message:    "company scope is required",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingWarehouse is returned when a warehouse-scoped operation lacks a warehouse key.
func NewMissingWarehouse() *AppError {
	return &AppError{
		Code:       CodeMissingWarehouse,
		Message:    "warehouse scope is required",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewExceedsOrder is returned when a receipt line would push cumulative
// received quantity past the ordered quantity for a material.
func NewExceedsOrder(materialID string, requested, allowance string) *AppError {
	return &AppError{
		Code:       CodeExceedsOrder,
		Message:    "received quantity exceeds remaining ordered quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"material_id": materialID,
			"requested":   requested,
			"allowance":   allowance,
		},
	}
}

// NewInsufficientStock is returned when FIFO allocation cannot cover the
// requested quantity. Shortfall is the uncovered remainder.
func NewInsufficientStock(materialID string, requested, available, shortfall string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"material_id": materialID,
			"requested":   requested,
			"available":   available,
			"shortfall":   shortfall,
		},
	}
}

// NewStatusTransition is returned for a disallowed document status change.
func NewStatusTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeStatusTransition,
		Message:    fmt.Sprintf("cannot transition from %s to %s", from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"from": from, "to": to},
	}
}

// NewAlreadyIssued is returned when a second issue targets a withdrawal
// request that already has one.
func NewAlreadyIssued(requestID string) *AppError {
	return &AppError{
		Code:       CodeAlreadyIssued,
		Message:    "withdrawal request is already issued",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"request_id": requestID},
	}
}

// NewDuplicateCode is returned when a generated document code collided at
// commit time. Callers recover via codes.RetryOnDuplicate.
func NewDuplicateCode(code string) *AppError {
	return &AppError{
		Code:       CodeDuplicateCode,
		Message:    "document code already exists",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"code": code},
	}
}

// NewSequenceExhausted is returned when the daily 4-digit code space is used up.
func NewSequenceExhausted(prefix string) *AppError {
	return &AppError{
		Code:       CodeSequenceExhausted,
		Message:    "daily code sequence exhausted",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"prefix": prefix},
	}
}

// NewConflict creates a generic conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified by another request, retry",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helpers ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a CodeNotFound error.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}
