package pdfexport

import (
	"errors"
	"fmt"
)

// Kind classifies why an export did not produce a file.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedPlatform
	KindNativeRegistrationFailed
	KindNativeCallbackError
	KindEmptyPayload
	KindChannelClosed
	KindPersistenceFailed
)

// String returns the wire name used by the command bridge.
func (k Kind) String() string {
	switch k {
	case KindUnsupportedPlatform:
		return "unsupported_platform"
	case KindNativeRegistrationFailed:
		return "native_registration_failed"
	case KindNativeCallbackError:
		return "native_callback_error"
	case KindEmptyPayload:
		return "empty_payload"
	case KindChannelClosed:
		return "channel_closed"
	case KindPersistenceFailed:
		return "persistence_failed"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String. Unrecognised names map to KindUnknown.
func ParseKind(s string) Kind {
	for k := KindUnsupportedPlatform; k <= KindPersistenceFailed; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// Error is the failure half of an export outcome.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values of the same kind, so sentinel comparisons
// like errors.Is(err, ErrUnsupported) work on freshly built errors too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// Fixed messages.
const (
	msgUnsupported   = "PDF export is not supported on this platform"
	msgEmptyPayload  = "PDF generation returned no data"
	msgChannelClosed = "PDF generation channel closed"
)

var (
	// ErrUnsupported is returned for every export when the build has no native backend.
	ErrUnsupported = &Error{Kind: KindUnsupportedPlatform, Msg: msgUnsupported}

	// ErrEmptyPayload is delivered when the native side reports success without data.
	ErrEmptyPayload = &Error{Kind: KindEmptyPayload, Msg: msgEmptyPayload}

	// ErrChannelClosed is synthesized by the awaiter when the deliverer is released
	// without ever delivering.
	ErrChannelClosed = &Error{Kind: KindChannelClosed, Msg: msgChannelClosed}
)

func registrationFailed(err error) *Error {
	return &Error{
		Kind: KindNativeRegistrationFailed,
		Msg:  fmt.Sprintf("failed to start PDF generation: %v", err),
		Err:  err,
	}
}

func callbackFailed(err error) *Error {
	return &Error{
		Kind: KindNativeCallbackError,
		Msg:  fmt.Sprintf("PDF generation failed: %v", err),
		Err:  err,
	}
}

func persistenceFailed(err error) *Error {
	return &Error{
		Kind: KindPersistenceFailed,
		Msg:  err.Error(),
		Err:  err,
	}
}

// KindOf reports the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
