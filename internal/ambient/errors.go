package ambient

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates the request parameters are invalid
	ErrValidation = errors.New("invalid request")

	// ErrAccessDenied indicates the URL or path is not allow-listed
	ErrAccessDenied = errors.New("access denied")

	// ErrFetch indicates the image bytes could not be obtained
	ErrFetch = errors.New("fetch failed")

	// ErrDecode indicates the bytes are not a supported image
	ErrDecode = errors.New("decode failed")

	// ErrExtract indicates no color could be extracted from the image
	ErrExtract = errors.New("extraction failed")

	// ErrDispatch indicates the light action failed
	ErrDispatch = errors.New("dispatch failed")
)

// Error is a pipeline failure. Kind is one of the sentinel errors above and
// Source names the URL or path being processed, when known.
type Error struct {
	Kind   error
	Source string
	Err    error
}

func newError(kind error, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Source)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a stable snake_case name for the kind of err, suitable
// for wire formats. Unknown errors report "internal".
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrExtract):
		return "extract"
	case errors.Is(err, ErrDispatch):
		return "dispatch"
	default:
		return "internal"
	}
}

func validationf(format string, args ...any) *Error {
	return newError(ErrValidation, "", fmt.Errorf(format, args...))
}
