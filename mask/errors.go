package mask

import (
	"fmt"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// ParseError reports a malformed clause or expression. Parsing drops the
// offending clause and continues; only an expression left with no clauses
// is fatal.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Text == "" {
		return "mask expression: " + e.Reason
	}
	return fmt.Sprintf("clause %q: %s", e.Text, e.Reason)
}

// ConfigError reports a missing or unusable argument, detected before any
// output is written.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// ExitStatus distinguishes usage problems from run failures.
func (e *ConfigError) ExitStatus() int {
	return 2
}

// ResolutionError reports a clause grid finer than the target grid.
type ResolutionError struct {
	Dataset string
	Target  Grid
	Clause  Grid
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("dataset %s: grid %s is finer than target grid %s", e.Dataset, e.Clause, e.Target)
}

// RangeError reports a mask or fill value that cannot be used as given. It is
// recovered from by falling back to a default or derived value.
type RangeError struct {
	What  string
	Value int64
	Limit string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d %s", e.What, e.Value, e.Limit)
}

// IOError reports a failed container operation.
type IOError struct {
	Op      string
	Path    string
	Dataset string
	Err     error
}

func (e *IOError) Error() string {
	target := e.Path
	if e.Dataset != "" {
		target += ":" + e.Dataset
	}
	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// AllocationError reports a row buffer too large to allocate.
type AllocationError struct {
	Dataset string
	Bytes   uint64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("dataset %s: cannot allocate row buffer of %d bytes", e.Dataset, e.Bytes)
}

func parseErrorf(text, format string, args ...any) error {
	return errors.WithStackTrace(&ParseError{Text: text, Reason: fmt.Sprintf(format, args...)})
}

func configErrorf(format string, args ...any) error {
	return errors.WithStackTrace(&ConfigError{Reason: fmt.Sprintf(format, args...)})
}

func ioError(op, path, dataset string, err error) error {
	return errors.WithStackTrace(&IOError{Op: op, Path: path, Dataset: dataset, Err: err})
}
