// Package apperr defines the error kinds surfaced by the API so that
// handlers can tell a user mistake apart from a backend or persistence
// failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindInternal is anything that doesn't fit the kinds below.
	KindInternal Kind = iota
	// KindValidation covers bad or missing user input.
	KindValidation
	// KindConfigIncomplete means a storage backend was selected without
	// the credentials it needs.
	KindConfigIncomplete
	// KindNotFound means the requested record or path doesn't exist.
	KindNotFound
	// KindUpstream means a remote backend rejected or failed a call.
	KindUpstream
	// KindStorage means a blob could not be written to its backend.
	KindStorage
	// KindPersist means one of the JSON documents could not be written
	// to its backing medium.
	KindPersist
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s, %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the API should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConfigIncomplete:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream, KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
