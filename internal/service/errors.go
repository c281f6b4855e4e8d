package service

import (
	"errors"
	"net/http"

	"tesatiki/internal/repository"
)

// Error kinds. Handlers map them to HTTP status classes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("upstream unavailable")
	ErrInternal     = errors.New("internal error")
)

// Error is a client-facing failure: Message is safe to return to callers,
// Details carries upstream context when there is any.
type Error struct {
	Kind    error
	Message string
	Details string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// fail wraps an unexpected lower-layer failure. A gateway answer is kept as
// details; an open breaker becomes ErrUnavailable.
func fail(message string, cause error) *Error {
	e := &Error{Kind: ErrInternal, Message: message, cause: cause}

	var gwErr *repository.GatewayError
	if errors.As(cause, &gwErr) {
		e.Details = gwErr.Body
		if gwErr.Status == http.StatusServiceUnavailable {
			e.Kind = ErrUnavailable
		}
	}
	return e
}

// notFoundOr maps repository.ErrNotFound to a not-found error with message
// and anything else to fail(failMessage).
func notFoundOr(err error, message, failMessage string) *Error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, message)
	}
	return fail(failMessage, err)
}
