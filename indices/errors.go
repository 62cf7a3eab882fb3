package indices

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so callers can react without
// matching message strings.
type ErrorKind string

const (
	// KindConfig marks requests the engine refuses: unknown names, wrong
	// input arity, incompatible option combinations.
	KindConfig ErrorKind = "configuration"
	// KindData marks inconsistencies in the input data itself: irregular
	// sampling, mixed resolutions, incompatible calendars.
	KindData ErrorKind = "data_inconsistency"
	// KindUnsupported marks combinations outside the engine's contract,
	// such as thresholds on a reducer that forbids them.
	KindUnsupported ErrorKind = "unsupported_combination"
)

// Error is the typed error returned by the engine.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err (or anything it wraps) is an engine Error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func newConfigError(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func newDataError(format string, args ...any) *Error {
	return &Error{Kind: KindData, Message: fmt.Sprintf(format, args...)}
}

func newUnsupportedError(format string, args ...any) *Error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf(format, args...)}
}

func wrapDataError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindData, Message: fmt.Sprintf(format, args...), Err: err}
}
