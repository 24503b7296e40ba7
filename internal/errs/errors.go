// Package errs provides the error kinds shared by the storage backends, the
// extraction pipeline and the HTTP layer.
//
// Backends and the pipeline wrap failures into *errs.Error; the server maps
// the kind to a status code without importing any provider SDK.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error.
type Kind int

const (
	KindUnknown       Kind = iota
	KindConfiguration      // required credential missing
	KindInvalidInput       // unrecognised source type, malformed request
	KindBackendIO          // list, sign or download failure from a provider
	KindDecode             // audio duration could not be decoded
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidInput:
		return "invalid_input"
	case KindBackendIO:
		return "backend_io"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error that preserves cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the message of the first *Error in err's chain, or
// err.Error() when there is none.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }
func IsInvalidInput(err error) bool  { return KindOf(err) == KindInvalidInput }
func IsBackendIO(err error) bool     { return KindOf(err) == KindBackendIO }
func IsDecode(err error) bool        { return KindOf(err) == KindDecode }
