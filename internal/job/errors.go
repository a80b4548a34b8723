package job

import (
	"errors"
	"fmt"
)

// Error kinds. Every fatal error returned by the resolver wraps one of them.
var (
	// ErrConversion marks a malformed numeric, time or enum argument.
	ErrConversion = errors.New("conversion error")
	// ErrStorage marks an absurd allocation request.
	ErrStorage = errors.New("storage error")
	// ErrResolution marks an unknown codec or format, an out-of-range
	// index, or a specifier that cannot be satisfied.
	ErrResolution = errors.New("resolution error")
	// ErrOptionNotFound is returned by the generic option sink on a miss.
	ErrOptionNotFound = errors.New("option not found")
)

// Error carries a user-facing message and the kind it belongs to.
type Error struct {
	Kind error
	Msg  string
	// Err is an optional underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Conversionf returns an ErrConversion with a formatted message.
func Conversionf(format string, args ...any) error {
	return &Error{Kind: ErrConversion, Msg: fmt.Sprintf(format, args...)}
}

// Storagef returns an ErrStorage with a formatted message.
func Storagef(format string, args ...any) error {
	return &Error{Kind: ErrStorage, Msg: fmt.Sprintf(format, args...)}
}

// Resolutionf returns an ErrResolution with a formatted message.
func Resolutionf(format string, args ...any) error {
	return &Error{Kind: ErrResolution, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches context to err, keeping its kind. Errors without a kind
// become resolution errors.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	kind := ErrResolution
	for _, k := range []error{ErrConversion, ErrStorage, ErrOptionNotFound} {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
