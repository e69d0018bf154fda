// Package apperr is the error taxonomy shared by the services and the HTTP
// layer. Services return *Error values; handlers select on the kind with
// errors.Is and only ever serialize the client-safe message.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUser      = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrStorage            = errors.New("storage failure")
)

type Error struct {
	Kind    error
	Message string
	Cause   error
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Storage(message string, cause error) *Error {
	return Wrap(ErrStorage, message, cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Descriptor is how a kind is presented over HTTP.
type Descriptor struct {
	Status int
	Code   string
}

var descriptors = []struct {
	kind error
	desc Descriptor
}{
	{ErrValidation, Descriptor{http.StatusBadRequest, "invalid_request"}},
	{ErrDuplicateUser, Descriptor{http.StatusBadRequest, "email_taken"}},
	{ErrInvalidCredentials, Descriptor{http.StatusUnauthorized, "invalid_credentials"}},
	{ErrMissingToken, Descriptor{http.StatusUnauthorized, "unauthorized"}},
	{ErrInvalidToken, Descriptor{http.StatusUnauthorized, "unauthorized"}},
	{ErrUserNotFound, Descriptor{http.StatusNotFound, "user_not_found"}},
	{ErrNotFound, Descriptor{http.StatusNotFound, "not_found"}},
	{ErrNotAuthorized, Descriptor{http.StatusUnauthorized, "not_authorized"}},
	{ErrStorage, Descriptor{http.StatusInternalServerError, "internal_error"}},
}

// Describe maps err to its HTTP status, code and client-safe message.
// Anything outside the taxonomy is reported as an opaque internal error.
func Describe(err error) (Descriptor, string) {
	var appErr *Error

	for _, d := range descriptors {
		if errors.Is(err, d.kind) {
			if errors.As(err, &appErr) && appErr.Message != "" {
				return d.desc, appErr.Message
			}
			return d.desc, d.kind.Error()
		}
	}

	return Descriptor{http.StatusInternalServerError, "internal_error"}, "Internal server error"
}
