package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every *Error unwraps to exactly one of them.
var (
	ErrTransport       = errors.New("backend unreachable")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrRejected        = errors.New("request rejected")
	ErrMalformed       = errors.New("malformed response")
)

// Causes wrapped by ErrMalformed.
var (
	errInvalidJSON = errors.New("invalid json")
	errMissingData = errors.New("missing data")
	errListShape   = errors.New("unrecognized list shape")
)

// Error describes a failed backend call.
type Error struct {
	Op      string
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// kindForStatus classifies a non-2xx status.
func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return ErrRejected
}

// kindForClassification maps the structured GraphQL error code.
func kindForClassification(code string) error {
	switch code {
	case "UNAUTHORIZED", "UNAUTHENTICATED":
		return ErrUnauthenticated
	case "FORBIDDEN":
		return ErrForbidden
	case "NOT_FOUND":
		return ErrNotFound
	}
	return ErrRejected
}

// StatusOf returns the HTTP status a caller should answer with for err.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTransport), errors.Is(err, ErrRejected), errors.Is(err, ErrMalformed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
