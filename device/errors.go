package device

import (
	"errors"
	"fmt"
)

// Kind classifies device initialization errors.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotSupported is returned for cancellable initialization.
	KindNotSupported
	// KindUnsupportedCaps means no capability of the device is usable by the
	// application, after filtering on accepted encodings and framerate.
	KindUnsupportedCaps
	// KindProbeFailed means the capability probe could not start or failed.
	KindProbeFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotSupported:
		return "not supported"
	case KindUnsupportedCaps:
		return "unsupported caps"
	case KindProbeFailed:
		return "probe failed"
	}
	return "unknown"
}

// Error is a device initialization error. Msg is meant for display to the
// user, the technical cause, if any, is in Err.
type Error struct {
	Kind Kind
	Node string // Device node.
	Msg  string // Localized, user-facing.
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind returns whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
