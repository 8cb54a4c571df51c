package health

import "errors"

var (
	// ErrCheckFailed is wrapped by checks built in this package.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for a check still running when the
	// readiness timeout expires.
	ErrCheckTimeout = errors.New("health: check timeout")
)
