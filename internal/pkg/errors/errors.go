package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Form session errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeSaveConflict  ErrorCode = "SAVE_CONFLICT" // logged when a draft save is skipped
	ErrCodePersistence   ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeRecoveryStore ErrorCode = "RECOVERY_STORE_ERROR"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"

	// Database errors
	ErrCodeDatabaseError  ErrorCode = "DATABASE_ERROR"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// Queue errors
	ErrCodeQueueError ErrorCode = "QUEUE_ERROR"
)

// GenericSaveMessage is used when the persistence service gives no reason
const GenericSaveMessage = "Failed to save visit data"

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message, http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Form session errors

// Validation reports a step that did not pass its field rules
func Validation(fields map[string]string) *AppError {
	err := New(ErrCodeValidation, "validation failed", http.StatusUnprocessableEntity)
	for field, message := range fields {
		err.WithDetails(field, message)
	}
	return err
}

// PersistenceFailed wraps a failed call to the persistence service. The message
// is what the user sees, so it falls back to a generic text.
func PersistenceFailed(err error, message string) *AppError {
	if message == "" {
		message = GenericSaveMessage
	}
	return Wrap(err, ErrCodePersistence, message, http.StatusBadGateway)
}

func RecoveryStoreFailed(err error, op string) *AppError {
	return Wrap(err, ErrCodeRecoveryStore,
		fmt.Sprintf("recovery store %s failed", op),
		http.StatusInternalServerError)
}

// Authentication errors

func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid password", http.StatusUnauthorized)
}

func SessionExpired() *AppError {
	return New(ErrCodeSessionExpired, "session expired", http.StatusUnauthorized)
}

// Database errors

func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "database operation failed", http.StatusInternalServerError)
}

func RecordNotFound(resource string) *AppError {
	return New(ErrCodeRecordNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound)
}

// Queue errors

func QueueError(err error) *AppError {
	return Wrap(err, ErrCodeQueueError, "failed to enqueue task", http.StatusInternalServerError)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

// StatusOf maps err to an HTTP status, 500 for anything that is not an AppError
func StatusOf(err error) int {
	if appErr, ok := GetAppError(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
