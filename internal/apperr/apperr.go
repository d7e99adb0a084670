// Package apperr defines the error taxonomy shared by all handlers and
// stores, and the single place where error kinds become HTTP status codes.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifies an error for boundary handling.
type Kind int

const (
	Internal Kind = iota
	Validation
	Conflict
	NotFound
	Authentication
	Authorization
)

// Error carries a kind plus a message safe to show to API clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or Internal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Write surfaces err as a JSON error response. Errors outside the taxonomy
// collapse to a generic 500 so internal details never reach the client.
func Write(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	msg := "internal server error"
	var ae *Error
	if errors.As(err, &ae) && kind != Internal {
		msg = ae.Msg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(kind))
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
