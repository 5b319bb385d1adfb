package harness

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is wrapped by every *TimeoutError.
	ErrTimeout = errors.New("timeout exceeded")

	// ErrNotInitialized is returned when an operation needs the root page but
	// the harness was built without one.
	ErrNotInitialized = errors.New("root page was not initialized")

	// ErrInvalidID is returned for element identifiers that cannot be
	// interpolated into a selector.
	ErrInvalidID = errors.New("invalid element identifier")

	// ErrScopeNotFound is returned when no table row matches a row filter.
	ErrScopeNotFound = errors.New("no row matches the scope filter")

	// ErrAmbiguousScope is returned when more than one table row matches a
	// row filter.
	ErrAmbiguousScope = errors.New("more than one row matches the scope filter")

	// ErrHostNotFound is returned when the harness host is not on the page.
	ErrHostNotFound = errors.New("harness host not found")
)

// TimeoutError is returned by the waiter when no attempt succeeded within the
// policy timeout.
type TimeoutError struct {
	Message  string
	Attempts int
	// Last is the last error swallowed from a lookup, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s (after %d attempts, last error: %v)", e.Message, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%s (after %d attempts)", e.Message, e.Attempts)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable: the waiter returns it at once instead
// of polling until the timeout.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	var p *permanentError
	if errors.As(err, &p) {
		return err
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent, or is one of the
// errors no amount of waiting can resolve.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, ErrInvalidID) || errors.Is(err, ErrNotInitialized)
}
