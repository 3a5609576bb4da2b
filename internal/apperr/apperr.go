package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an application error.
type Type string

const (
	TypeValidation        Type = "VALIDATION"
	TypeDuplicateIdentity Type = "DUPLICATE_IDENTITY"
	TypeUnauthenticated   Type = "UNAUTHENTICATED"
	TypeForbidden         Type = "FORBIDDEN"
	TypeNotFound          Type = "NOT_FOUND"
	TypeInvalidLocation   Type = "INVALID_LOCATION"
	TypeDashboard         Type = "DASHBOARD"
	TypeExternal          Type = "EXTERNAL"
	TypeInternal          Type = "INTERNAL"
)

// AppError is the error every handler turns into a response envelope.
type AppError struct {
	Type    Type
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error type to a response status code.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case TypeValidation, TypeDuplicateIdentity, TypeInvalidLocation:
		return http.StatusBadRequest
	case TypeUnauthenticated:
		return http.StatusUnauthorized
	case TypeForbidden:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *AppError {
	return &AppError{Type: TypeValidation, Message: message}
}

// ValidationWrap keeps the underlying validator error for debug output.
func ValidationWrap(message string, err error) *AppError {
	return &AppError{Type: TypeValidation, Message: message, Err: err}
}

func DuplicateIdentity(message string) *AppError {
	return &AppError{Type: TypeDuplicateIdentity, Message: message}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Type: TypeUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Type: TypeForbidden, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Type: TypeNotFound, Message: message}
}

func InvalidLocation(message string) *AppError {
	return &AppError{Type: TypeInvalidLocation, Message: message}
}

func Dashboard(err error) *AppError {
	return &AppError{Type: TypeDashboard, Message: "Error fetching dashboard data", Err: err}
}

func External(message string, err error) *AppError {
	return &AppError{Type: TypeExternal, Message: message, Err: err}
}

func Internal(message string, err error) *AppError {
	return &AppError{Type: TypeInternal, Message: message, Err: err}
}

// As converts any error into an *AppError, treating unknown errors as internal.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Something went wrong", err)
}

// Is reports whether err is an *AppError of type t.
func Is(err error, t Type) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
