// Package apperr classifies failures surfaced by the identity core.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
)

// HTTPStatus maps a kind to the status code used at the HTTP boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Errors  []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrAuth) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrUpstream   = &Error{Kind: KindUpstream}
)

func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Errors: details}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Cause: cause}
}

// KindOf reports the kind of err; anything unclassified counts as upstream.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// PublicMessage returns the message that may be shown to a caller. Upstream
// causes are never included.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

func Details(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Errors
	}
	return nil
}
