package gitx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// SignalError reports a git child process terminated by a signal.
type SignalError struct {
	Signal os.Signal
	Args   []string
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("git %s: terminated by signal %v", strings.Join(e.Args, " "), e.Signal)
}

// InterruptError aborts a whole run. It wraps either a *SignalError or a
// context cancellation.
type InterruptError struct {
	Err error
}

func (e *InterruptError) Error() string { return "interrupted: " + e.Err.Error() }

func (e *InterruptError) Unwrap() error { return e.Err }

// Signal returns the signal that caused the interrupt, if any.
func (e *InterruptError) Signal() (os.Signal, bool) {
	var sigErr *SignalError
	if errors.As(e.Err, &sigErr) {
		return sigErr.Signal, true
	}
	return nil, false
}

// Interrupted returns an *InterruptError when err was caused by a signal or
// a cancelled context, and nil otherwise.
func Interrupted(err error) error {
	if err == nil {
		return nil
	}
	var intErr *InterruptError
	if errors.As(err, &intErr) {
		return intErr
	}
	var sigErr *SignalError
	if errors.As(err, &sigErr) {
		return &InterruptError{Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &InterruptError{Err: err}
	}
	return nil
}
