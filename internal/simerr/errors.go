package simerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds.
var (
	ErrConfigKey        = errors.New("config key error")
	ErrAddress          = errors.New("address error")
	ErrFormat           = errors.New("format error")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Error is a classified core error.
type Error struct {
	Kind error  // one of the sentinel kinds
	Op   string // "component.method", e.g. "sysstate.Get"
	Key  string // path, address, file name or parameter the error is about
	Err  error  // optional cause
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newf(kind error, op, key, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// ConfigKey reports a missing or unusable system-state path.
func ConfigKey(op, path, format string, args ...any) error {
	return newf(ErrConfigKey, op, path, format, args...)
}

// Address reports an unknown, duplicate or malformed lookup key.
func Address(op, key, format string, args ...any) error {
	return newf(ErrAddress, op, key, format, args...)
}

// Format reports an unrecognised or inconsistent source.
func Format(op, key, format string, args ...any) error {
	return newf(ErrFormat, op, key, format, args...)
}

// InvalidParameter reports a value outside an effect's domain.
func InvalidParameter(op, key, format string, args ...any) error {
	return newf(ErrInvalidParameter, op, key, format, args...)
}

// Wrap classifies an underlying error. A nil err yields nil.
func Wrap(kind, err error, op, key string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Key: key, Err: err}
}

// Kind returns the sentinel kind of err, or nil if err is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrConfigKey, ErrAddress, ErrFormat, ErrInvalidParameter} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
