// Package sds provides a pure Go reader and writer for SDS containers: files
// holding named integer or floating-point grids ("scientific data sets")
// together with typed attributes describing them.
package sds

import "errors"

// Common errors
var (
	ErrNotSDS      = errors.New("not an SDS container")
	ErrNotFound    = errors.New("dataset not found")
	ErrExists      = errors.New("dataset already exists")
	ErrClosed      = errors.New("file is closed")
	ErrReadOnly    = errors.New("file is not writable")
	ErrLocked      = errors.New("file is locked by another writer")
	ErrChecksum    = errors.New("checksum mismatch")
	ErrRowRange    = errors.New("row out of range")
	ErrRowSize     = errors.New("row buffer has wrong size")
	ErrUnsupported = errors.New("unsupported feature")
)
