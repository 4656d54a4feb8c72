// Package apperr defines the error kinds surfaced to users of a diagram
// conversation. Every kind is recoverable and terminal for one turn only.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a user-visible failure.
type Kind string

const (
	KindUnknown            Kind = ""
	KindMissingCredential  Kind = "missing_credential"
	KindMissingContext     Kind = "missing_context"
	KindMissingInstruction Kind = "missing_instruction"
	KindAuthFailure        Kind = "auth_failure"
	KindGenerationFailure  Kind = "generation_failure"
	KindEmptyMarkup        Kind = "empty_markup"
)

// Error is a typed failure carrying a display message and, optionally, the
// underlying cause.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, apperr.ErrAuthFailure)
// matches any auth failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around err.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is comparisons.
var (
	ErrMissingCredential  = New(KindMissingCredential, "an API key is required before generating a diagram")
	ErrMissingContext     = New(KindMissingContext, "please describe your project first")
	ErrMissingInstruction = New(KindMissingInstruction, "please enter a diagram type or instruction")
	ErrAuthFailure        = New(KindAuthFailure, "API key authentication failed")
	ErrGenerationFailure  = New(KindGenerationFailure, "failed to generate UML diagram")
	ErrEmptyMarkup        = New(KindEmptyMarkup, "failed to generate valid PlantUML code")
)

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As returns err as an *Error, converting untyped errors into a
// generation failure.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindGenerationFailure, err.Error())
}

// UserMessage renders err for display in a chat transcript.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// HTTPStatus maps a Kind to the status code used by the REST endpoints.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindMissingCredential, KindAuthFailure:
		return http.StatusUnauthorized
	case KindMissingContext, KindMissingInstruction:
		return http.StatusBadRequest
	case KindEmptyMarkup:
		return http.StatusUnprocessableEntity
	case KindGenerationFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
