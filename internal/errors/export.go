package errors

import "errors"

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap returns the error wrapped by err, if any.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
