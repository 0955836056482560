// Package errors wraps errors with stack traces and collects multiple errors
// into one value. Command front ends use ExitCode to map a failure to a
// process status.
package errors

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli/v2"
)

// Errorf creates a new error carrying the stack trace of the caller.
func Errorf(message string, args ...any) error {
	return goerrors.Wrap(fmt.Errorf(message, args...), 1)
}

// New wraps err with the caller's stack trace. A string argument becomes the
// error message. If err is nil, New returns nil.
func New(err any) error {
	if err == nil {
		return nil
	}
	if s, ok := err.(string); ok {
		return goerrors.Wrap(errors.New(s), 1)
	}
	return goerrors.Wrap(err, 1)
}

// WithStackTrace wraps err in an error carrying a stack trace. An error that
// already has one is returned unchanged. nil stays nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}
	if ContainsStackTrace(err) {
		return err
	}
	return goerrors.Wrap(err, 1)
}

// WithStackTraceAndPrefix is WithStackTrace with a message prepended.
func WithStackTraceAndPrefix(err error, message string, args ...any) error {
	if err == nil {
		return nil
	}
	return goerrors.WrapPrefix(err, fmt.Sprintf(message, args...), 1)
}

// ContainsStackTrace reports whether any error in err's chain carries a stack trace.
func ContainsStackTrace(err error) bool {
	for _, err := range UnwrapMultiErrors(err) {
		for err != nil {
			if _, ok := err.(interface{ ErrorStack() string }); ok {
				return true
			}
			err = errors.Unwrap(err)
		}
	}
	return false
}

// ErrorStack returns the stack traces recorded in err, one per wrapped error.
func ErrorStack(err error) string {
	var out string
	for _, err := range UnwrapMultiErrors(err) {
		for err != nil {
			if st, ok := err.(interface{ ErrorStack() string }); ok {
				if out != "" {
					out += "\n"
				}
				out += st.ErrorStack()
				break
			}
			err = errors.Unwrap(err)
		}
	}
	return out
}

// ErrorWithExitCode carries the process exit status for an error.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// ExitCoder is implemented by errors that choose their own exit status.
type ExitCoder interface {
	ExitStatus() int
}

// ExitCode returns the process exit status for err: 0 for nil, the code of an
// ErrorWithExitCode or ExitCoder in the chain, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var withCode ErrorWithExitCode
	if errors.As(err, &withCode) {
		return withCode.ExitCode
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitStatus()
	}
	return 1
}

// Recover calls onPanic with an error describing a recovered panic.
// It must be called from a defer statement.
func Recover(onPanic func(cause error)) {
	if rec := recover(); rec != nil {
		err, isError := rec.(error)
		if !isError {
			err = fmt.Errorf("%v", rec)
		}
		onPanic(goerrors.Wrap(err, 2))
	}
}

// WithPanicHandling turns panics inside a CLI action into returned errors.
func WithPanicHandling(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		defer Recover(func(cause error) {
			err = cause
		})
		return action(ctx)
	}
}
