package inventory

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// PlatformUnsupported means collection cannot run on this OS at all.
	PlatformUnsupported ErrorKind = iota + 1
	// Transient means the OS query failed this time and may be retried.
	Transient
)

func (k ErrorKind) String() string {
	switch k {
	case PlatformUnsupported:
		return "platform unsupported"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

type CollectionError struct {
	Kind ErrorKind
	Err  error
}

func (e *CollectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("collection failed (%s)", e.Kind)
	}
	return fmt.Sprintf("collection failed (%s): %v", e.Kind, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

func Unsupported(err error) error {
	return &CollectionError{Kind: PlatformUnsupported, Err: err}
}

func TransientError(err error) error {
	return &CollectionError{Kind: Transient, Err: err}
}

func kindOf(err error) ErrorKind {
	var ce *CollectionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func IsPlatformUnsupported(err error) bool { return kindOf(err) == PlatformUnsupported }

// IsTransient reports whether err may succeed on retry. Errors that are not
// a CollectionError are treated as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	k := kindOf(err)
	return k == Transient || k == 0
}
