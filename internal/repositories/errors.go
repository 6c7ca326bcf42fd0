package repositories

import (
	"errors"
	"fmt"
)

// ErrorKind categorises persistence failures for service-level mapping.
type ErrorKind int

const (
	// KindUnknown represents an unspecified failure.
	KindUnknown ErrorKind = iota
	// KindNotFound indicates the requested record does not exist.
	KindNotFound
	// KindConflict indicates a uniqueness or concurrent-update violation.
	KindConflict
	// KindUnavailable indicates the backing store could not be reached.
	KindUnavailable
)

// Error wraps low-level persistence failures with categorisation used by services.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap exposes the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError constructs a categorised repository error.
func NewError(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// IsNotFound reports whether err carries the not-found category.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

// IsConflict reports whether err carries the conflict category.
func IsConflict(err error) bool {
	return kindOf(err) == KindConflict
}

// IsUnavailable reports whether err carries the unavailable category.
func IsUnavailable(err error) bool {
	return kindOf(err) == KindUnavailable
}

func kindOf(err error) ErrorKind {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Kind
	}
	return KindUnknown
}
