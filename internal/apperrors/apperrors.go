package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers and the transport layer can react
// without inspecting backend-specific errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalidArgument
	KindConflict
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrConflict         = errors.New("conflict")
)

func sentinel(kind Kind) error {
	switch kind {
	case KindNotFound:
		return ErrNotFound
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindConflict:
		return ErrConflict
	default:
		return nil
	}
}

// E wraps a message with the given kind. The result satisfies
// errors.Is against the matching sentinel.
func E(kind Kind, format string, args ...interface{}) error {
	s := sentinel(kind)
	if s == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, s)...)
}

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindUnknown
	}
}

func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsInvalidArgument(err error) bool  { return errors.Is(err, ErrInvalidArgument) }
func IsConflict(err error) bool         { return errors.Is(err, ErrConflict) }
