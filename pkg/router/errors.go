package router

import (
	"errors"
	"fmt"
)

// FailureType classifies an expected navigation failure.
type FailureType int

// Navigation failure kinds. The values are bit flags so several kinds can be
// tested at once with IsNavigationFailure.
const (
	FailureRedirected FailureType = 1 << (iota + 1)
	FailureAborted
	FailureCancelled
	FailureDuplicated
)

func (t FailureType) String() string {
	switch t {
	case FailureRedirected:
		return "redirected"
	case FailureAborted:
		return "aborted"
	case FailureCancelled:
		return "cancelled"
	case FailureDuplicated:
		return "duplicated"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *NavigationFailure of that kind.
var (
	ErrNavigationRedirected = errors.New("navigation redirected")
	ErrNavigationAborted    = errors.New("navigation aborted")
	ErrNavigationCancelled  = errors.New("navigation cancelled")
	ErrNavigationDuplicated = errors.New("navigation duplicated")
)

// NavigationFailure is an expected, non-error outcome of a navigation. It is
// delivered to the caller but never broadcast to error callbacks.
type NavigationFailure struct {
	Type FailureType
	From *Route
	To   *Route

	msg string
}

func (e *NavigationFailure) Error() string { return e.msg }

// Unwrap exposes the sentinel for the failure kind.
func (e *NavigationFailure) Unwrap() error {
	switch e.Type {
	case FailureRedirected:
		return ErrNavigationRedirected
	case FailureAborted:
		return ErrNavigationAborted
	case FailureCancelled:
		return ErrNavigationCancelled
	case FailureDuplicated:
		return ErrNavigationDuplicated
	}
	return nil
}

// IsNavigationFailure reports whether err is a navigation failure. With kinds
// given it only matches failures of one of those kinds.
func IsNavigationFailure(err error, kinds ...FailureType) bool {
	var nf *NavigationFailure
	if !errors.As(err, &nf) {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	var mask FailureType
	for _, k := range kinds {
		mask |= k
	}
	return nf.Type&mask != 0
}

// FailureTypeOf returns the failure kind carried by err.
func FailureTypeOf(err error) (FailureType, bool) {
	var nf *NavigationFailure
	if errors.As(err, &nf) {
		return nf.Type, true
	}
	return 0, false
}

func newRedirectedFailure(from, to *Route) *NavigationFailure {
	return &NavigationFailure{
		Type: FailureRedirected,
		From: from,
		To:   to,
		msg:  fmt.Sprintf("Redirected when going from %q to %q via a navigation guard.", from.FullPath, to.FullPath),
	}
}

func newDuplicatedFailure(from, to *Route) *NavigationFailure {
	return &NavigationFailure{
		Type: FailureDuplicated,
		From: from,
		To:   to,
		msg:  fmt.Sprintf("Avoided redundant navigation to current location: %q.", from.FullPath),
	}
}

func newCancelledFailure(from, to *Route) *NavigationFailure {
	return &NavigationFailure{
		Type: FailureCancelled,
		From: from,
		To:   to,
		msg:  fmt.Sprintf("Navigation cancelled from %q to %q with a new navigation.", from.FullPath, to.FullPath),
	}
}

func newAbortedFailure(from, to *Route) *NavigationFailure {
	return &NavigationFailure{
		Type: FailureAborted,
		From: from,
		To:   to,
		msg:  fmt.Sprintf("Navigation aborted from %q to %q via a navigation guard.", from.FullPath, to.FullPath),
	}
}

// MatchError reports a location that could not be resolved. It is returned
// synchronously by TransitionTo and is not a navigation failure.
type MatchError struct {
	Location string
	Err      error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("router: cannot resolve %q: %v", e.Location, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// GuardError wraps a panic raised by a guard.
type GuardError struct {
	Value any
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("router: guard panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *GuardError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// AsyncComponentError reports a lazy view that failed to load.
type AsyncComponentError struct {
	Slot string
	Err  error
}

func (e *AsyncComponentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("router: failed to resolve async component %s", e.Slot)
	}
	return fmt.Sprintf("router: failed to resolve async component %s: %v", e.Slot, e.Err)
}

func (e *AsyncComponentError) Unwrap() error { return e.Err }
