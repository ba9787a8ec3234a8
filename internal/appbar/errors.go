package appbar

import "errors"

var (
	// ErrStaleMonitor means the bar's monitor disappeared while it was being
	// negotiated. The result is discarded.
	ErrStaleMonitor = errors.New("monitor no longer present")

	// ErrShortfall means the shell granted less thickness than requested.
	ErrShortfall = errors.New("shell granted less space than requested")

	// ErrNotRegistered is returned for operations on a window without a
	// registration.
	ErrNotRegistered = errors.New("bar not registered")
)
