package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
// Resources belonging to another workplace are reported the same way.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the requested change collides with the current state,
// e.g. a ledger transaction that is already claimed by another match.
var ErrConflict = errors.New("conflict with current state")

// ErrPeriodLocked indicates a mutation against a locked account period.
var ErrPeriodLocked = errors.New("period is locked")

// ErrPeriodNotReconciled indicates a lock request on a period that still has open items.
// It is a PeriodLocked-class rejection: errors.Is(err, ErrPeriodLocked) holds as well.
var ErrPeriodNotReconciled = &classError{msg: "period has unreconciled feed transactions", class: ErrPeriodLocked}

// ErrForbidden indicates the user lacks the role required for the action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates that no authenticated user is present.
var ErrUnauthorized = errors.New("unauthorized")

// classError is a sentinel that also matches a broader class sentinel.
type classError struct {
	msg   string
	class error
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Is(target error) bool { return target == e.class }

// AppError carries an HTTP-ish status code and a message next to the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the cause so errors.Is / errors.As keep working through AppError.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewConflictError returns an AppError that matches ErrConflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message, Err: ErrConflict}
}

// NewDuplicateError returns an AppError that matches both ErrDuplicate and ErrConflict.
func NewDuplicateError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message, Err: &classError{msg: ErrDuplicate.Error(), class: ErrConflict}}
}

// NewValidationError returns an AppError that matches ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

// NewValidationFailedError is kept for repository call sites that report constraint failures.
func NewValidationFailedError(message string) *AppError {
	return NewValidationError(message)
}

// NewPeriodLockedError returns an AppError that matches ErrPeriodLocked.
func NewPeriodLockedError(message string) *AppError {
	return &AppError{Code: http.StatusLocked, Message: message, Err: ErrPeriodLocked}
}

// NewPeriodNotReconciledError returns an AppError that matches ErrPeriodNotReconciled and ErrPeriodLocked.
func NewPeriodNotReconciledError(message string) *AppError {
	return &AppError{Code: http.StatusLocked, Message: message, Err: ErrPeriodNotReconciled}
}

// Code returns a stable machine-readable code for err, used in bulk results.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrPeriodNotReconciled):
		return "PERIOD_NOT_RECONCILED"
	case errors.Is(err, ErrPeriodLocked):
		return "PERIOD_LOCKED"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return "CONFLICT"
	case errors.Is(err, ErrValidation):
		return "INVALID_INPUT"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	default:
		return "INTERNAL"
	}
}
