package shared

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// Input errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Catalog errors
	ErrCodeCatalogRejected    ErrorCode = "CATALOG_REJECTED"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	// Notification errors
	ErrCodeNotifyCredentials ErrorCode = "NOTIFY_CREDENTIALS"
	ErrCodeNotifyRecipients  ErrorCode = "NOTIFY_RECIPIENTS"

	// System errors
	ErrCodeConfigError   ErrorCode = "CONFIG_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Err        error
	HTTPStatus int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
	appErr.setDefaults()
	return appErr
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) setDefaults() {
	switch e.Code {
	case ErrCodeValidationFailed, ErrCodeInvalidInput, ErrCodeCatalogRejected:
		e.HTTPStatus = http.StatusBadRequest
	case ErrCodeNotifyCredentials, ErrCodeNotifyRecipients:
		e.HTTPStatus = http.StatusBadGateway
	default:
		e.HTTPStatus = http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// HTTPStatusOf maps err to the status the HTTP layer should answer with.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// DetailsOf returns the details of the first AppError in err's chain.
func DetailsOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return ""
}
