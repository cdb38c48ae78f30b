package common

import (
	"errors"
	"net/http"
)

// Canonical error codes exposed by the API.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeEmptyCart    = "EMPTY_CART"
	CodeMenuFormat   = "MENU_FORMAT"
	CodeNotFound     = "NOT_FOUND"
	CodePersistence  = "PERSISTENCE"
	CodeInternal     = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// WriteError renders err using the canonical error payload. AppErrors keep
// their own code and status; anything else becomes a 500 INTERNAL.
func WriteError(w http.ResponseWriter, err error) {
	var app *AppError
	if errors.As(err, &app) {
		status := app.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, app.Code, app.Message, app.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
