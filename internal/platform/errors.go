package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the host shell did not answer in time.
	ErrTimeout = errors.New("host shell did not respond in time")

	// ErrNoHostPanel means no host panel window could be located.
	ErrNoHostPanel = errors.New("host panel not found")
)

// ShellError records a failed exchange with the host shell.
type ShellError struct {
	Op     string
	Window WindowID
	Cause  error
}

func (e *ShellError) Error() string {
	msg := e.Op
	if e.Window != 0 {
		msg = fmt.Sprintf("%s (window 0x%x)", e.Op, uint32(e.Window))
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ShellError) Unwrap() error {
	return e.Cause
}

// Fail wraps err as a ShellError for op, or returns nil when err is nil.
func Fail(op string, win WindowID, err error) error {
	if err == nil {
		return nil
	}
	return &ShellError{Op: op, Window: win, Cause: err}
}
