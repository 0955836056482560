package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MultiError collects several errors. The zero value and nil are both empty.
type MultiError struct {
	inner *multierror.Error
}

// Append returns errs with appendErrs added. nil entries are skipped.
func (errs *MultiError) Append(appendErrs ...error) *MultiError {
	if errs == nil {
		errs = &MultiError{}
	}
	if errs.inner == nil {
		errs.inner = new(multierror.Error)
	}
	errs.inner = multierror.Append(errs.inner, appendErrs...)
	return errs
}

// ErrorOrNil returns errs as an error, or nil when it holds no errors.
func (errs *MultiError) ErrorOrNil() error {
	if errs == nil || errs.inner == nil || len(errs.inner.Errors) == 0 {
		return nil
	}
	return errs
}

// WrappedErrors returns the collected errors.
func (errs *MultiError) WrappedErrors() []error {
	if errs == nil || errs.inner == nil {
		return nil
	}
	return errs.inner.WrappedErrors()
}

func (errs *MultiError) Unwrap() []error {
	return errs.WrappedErrors()
}

// Len returns the number of collected errors.
func (errs *MultiError) Len() int {
	return len(errs.WrappedErrors())
}

func (errs *MultiError) Error() string {
	wrapped := errs.WrappedErrors()
	lines := make([]string, len(wrapped))
	for i, err := range wrapped {
		lines[i] = indent(err.Error())
	}

	noun := "errors"
	if len(wrapped) == 1 {
		noun = "error"
	}
	return fmt.Sprintf("%d %s occurred:\n%s\n", len(wrapped), noun, strings.Join(lines, "\n"))
}

func indent(msg string) string {
	lines := strings.Split(msg, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = "* " + lines[i]
		} else {
			lines[i] = "  " + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// UnwrapMultiErrors flattens nested multi-errors into a slice.
func UnwrapMultiErrors(err error) []error {
	if err == nil {
		return nil
	}
	errs := []error{err}

	for index := 0; index < len(errs); index++ {
		for e := errs[index]; e != nil; e = errors.Unwrap(e) {
			if multi, ok := e.(interface{ Unwrap() []error }); ok {
				errs = append(errs[:index], errs[index+1:]...)
				errs = append(errs, multi.Unwrap()...)
				index--
				break
			}
		}
	}
	return errs
}
