package sds

import "github.com/robert-malhotra/go-sdsmask/internal/catalog"

// FileOption configures how a container is opened for writing.
type FileOption func(*fileOptions)

type fileOptions struct {
	lock bool
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{lock: true}
}

// WithoutLock disables the advisory writer lock.
func WithoutLock() FileOption {
	return func(o *fileOptions) {
		o.lock = false
	}
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	attributes catalog.Attrs
}

// WithAttribute adds an attribute to the dataset.
// Multiple WithAttribute options can be used to add multiple attributes.
func WithAttribute(a catalog.Attribute) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes.Set(a)
	}
}

// WithFillValue sets the _FillValue attribute.
func WithFillValue(v int64) DatasetOption {
	return WithAttribute(catalog.IntAttr(catalog.AttrFillValue, v))
}

// WithValidRange sets the valid_range attribute.
func WithValidRange(lo, hi int64) DatasetOption {
	return WithAttribute(catalog.IntAttr(catalog.AttrValidRange, lo, hi))
}
