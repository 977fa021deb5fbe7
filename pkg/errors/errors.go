package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict")
	ErrInternal       = errors.New("internal server error")
	ErrValidation     = errors.New("validation error")
	ErrErpUnavailable = errors.New("erp unavailable")
	ErrInvalidState   = errors.New("invalid state transition")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Domain error constructors

// DocumentNotFound is returned when the referenced ERP document does not exist.
func DocumentNotFound(docRef string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "DOCUMENT_NOT_FOUND",
		Message:    fmt.Sprintf("GRPO document %s not found", docRef),
		StatusCode: http.StatusNotFound,
	}
}

// NoLinesFound is returned when a GRPO document has no lines to ingest.
func NoLinesFound(docRef string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "NO_LINES_FOUND",
		Message:    fmt.Sprintf("GRPO document %s has no lines", docRef),
		StatusCode: http.StatusBadRequest,
	}
}

// DestinationNotDesignated is returned when an eligible item has no target warehouse.
func DestinationNotDesignated(itemCode string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "DESTINATION_NOT_DESIGNATED",
		Message:    fmt.Sprintf("item %s has no destination warehouse", itemCode),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NothingToPost is returned when an operation requires approved items and none exist.
func NothingToPost(message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "NOTHING_TO_POST",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// ConservationViolation is returned when approved + rejected exceeds the received quantity.
func ConservationViolation(itemCode string, approved, rejected, received float64) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "CONSERVATION_VIOLATION",
		Message:    fmt.Sprintf("approved %.4f + rejected %.4f exceeds received %.4f for item %s", approved, rejected, received, itemCode),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// InvalidStateTransition is returned when a session operation is not allowed in its current status.
func InvalidStateTransition(from, to string) *AppError {
	return &AppError{
		Err:        ErrInvalidState,
		Code:       "INVALID_STATE_TRANSITION",
		Message:    fmt.Sprintf("cannot transition session from %s to %s", from, to),
		StatusCode: http.StatusConflict,
	}
}

// ErpUnavailable is returned when the SAP Service Layer cannot be reached.
func ErpUnavailable(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrErpUnavailable, err),
		Code:       "ERP_UNAVAILABLE",
		Message:    "SAP service layer unavailable",
		StatusCode: http.StatusBadGateway,
	}
}

// ErpRejected is returned when the SAP Service Layer rejects a posted document.
func ErpRejected(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "ERP_REJECTED",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
