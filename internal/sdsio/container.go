// Package sdsio implements mask.Container over SDS container files.
package sdsio

import (
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/catalog"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
	"github.com/robert-malhotra/go-sdsmask/mask"
	"github.com/robert-malhotra/go-sdsmask/sds"
)

// Container keeps one open sds.File per path for the duration of a run.
// Output files are created afresh the first time they are written to,
// unless the container appends to existing outputs.
type Container struct {
	files  map[string]*sds.File
	order  []string
	logger *logrus.Entry
	opts   []sds.FileOption

	appendOutputs bool
}

var _ mask.Container = (*Container)(nil)

// New returns an empty Container. opts apply to files opened for writing.
func New(logger *logrus.Entry, opts ...sds.FileOption) *Container {
	return &Container{
		files:  make(map[string]*sds.File),
		logger: logger,
		opts:   opts,
	}
}

// AppendOutputs makes the container add datasets to output files that
// already exist instead of truncating them.
func (c *Container) AppendOutputs() {
	c.appendOutputs = true
}

func (c *Container) readable(path string) (*sds.File, error) {
	key := filepath.Clean(path)
	if f, ok := c.files[key]; ok {
		return f, nil
	}
	f, err := sds.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	c.logger.Debugf("opened %s for reading", path)
	c.files[key] = f
	c.order = append(c.order, key)
	return f, nil
}

func (c *Container) writable(path string) (*sds.File, error) {
	key := filepath.Clean(path)
	if f, ok := c.files[key]; ok {
		if !f.IsWritable() {
			return nil, errors.Errorf("%s is open for reading and cannot be written", path)
		}
		return f, nil
	}
	create := sds.Create
	if c.appendOutputs {
		create = sds.CreateOrAppend
	}
	f, err := create(path, c.opts...)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	c.logger.Debugf("opened %s for writing", path)
	c.files[key] = f
	c.order = append(c.order, key)
	return f, nil
}

// Describe builds the descriptor of an open dataset.
func Describe(path string, ds *sds.Dataset) *mask.Descriptor {
	shape := ds.Shape()
	dims := make([]int, len(shape))
	for i, n := range shape {
		dims[i] = int(n)
	}

	d := &mask.Descriptor{
		Path:   path,
		Name:   ds.Name(),
		Rank:   len(dims),
		Dims:   dims,
		Kind:   ds.Kind(),
		Handle: ds,
	}
	d.Fill, d.HasFill = ds.FillValue()
	d.ValidMin, d.ValidMax, d.HasValidRange = ds.ValidRange()
	return d
}

func dataset(d *mask.Descriptor) (*sds.Dataset, error) {
	ds, ok := d.Handle.(*sds.Dataset)
	if !ok || ds == nil {
		return nil, errors.Errorf("%s:%s was not opened by this container", d.Path, d.Name)
	}
	return ds, nil
}

func (c *Container) OpenForRead(path, name string) (*mask.Descriptor, error) {
	f, err := c.readable(path)
	if err != nil {
		return nil, err
	}
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return Describe(path, ds), nil
}

func (c *Container) OpenForWrite(path, name string, like *mask.Descriptor) (*mask.Descriptor, error) {
	f, err := c.writable(path)
	if err != nil {
		return nil, err
	}

	dims := make([]uint64, len(like.Dims))
	for i, n := range like.Dims {
		dims[i] = uint64(n)
	}
	var opts []sds.DatasetOption
	if like.HasFill {
		opts = append(opts, sds.WithFillValue(like.Fill))
	}
	if like.HasValidRange {
		opts = append(opts, sds.WithValidRange(like.ValidMin, like.ValidMax))
	}

	ds, err := f.CreateDataset(name, like.Kind, dims, opts...)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return Describe(path, ds), nil
}

func (c *Container) ReadRow(d *mask.Descriptor, row int) ([]byte, error) {
	ds, err := dataset(d)
	if err != nil {
		return nil, err
	}
	buf, err := ds.ReadRow(row)
	return buf, errors.WithStackTrace(err)
}

func (c *Container) WriteRow(d *mask.Descriptor, row int, buf []byte) error {
	ds, err := dataset(d)
	if err != nil {
		return err
	}
	return errors.WithStackTrace(ds.WriteRow(row, buf))
}

func (c *Container) ReadAttribute(path, name string) (string, bool, error) {
	f, err := c.readable(path)
	if err != nil {
		return "", false, err
	}
	a, ok := f.Attr(name)
	if !ok {
		return "", false, nil
	}
	return a.String(), true, nil
}

// WriteAttribute stores integer-valued text as an integer attribute.
func (c *Container) WriteAttribute(d *mask.Descriptor, name, value string) error {
	ds, err := dataset(d)
	if err != nil {
		return err
	}
	a := catalog.StringAttr(name, value)
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		a = catalog.IntAttr(name, v)
	}
	return errors.WithStackTrace(ds.SetAttr(a))
}

func (c *Container) CopyFileAttributes(src, dst string) error {
	from, err := c.readable(src)
	if err != nil {
		return err
	}
	to, err := c.writable(dst)
	if err != nil {
		return err
	}
	for _, name := range from.Attrs() {
		a, _ := from.Attr(name)
		if err := to.SetAttr(a); err != nil {
			return errors.WithStackTrace(err)
		}
	}
	return nil
}

// Close flushes the file of a dataset that was written. Files themselves stay
// open until CloseAll.
func (c *Container) Close(d *mask.Descriptor) error {
	ds, err := dataset(d)
	if err != nil {
		return err
	}
	if ds.File().IsWritable() {
		return errors.WithStackTrace(ds.File().Flush())
	}
	return nil
}

// List describes every dataset of the file at path.
func (c *Container) List(path string) ([]*mask.Descriptor, error) {
	f, err := c.readable(path)
	if err != nil {
		return nil, err
	}
	var out []*mask.Descriptor
	err = sds.Walk(f, func(ds *sds.Dataset) error {
		out = append(out, Describe(path, ds))
		return nil
	})
	return out, err
}

// CloseAll closes every file in the order it was opened.
func (c *Container) CloseAll() error {
	var errs *errors.MultiError
	for _, key := range c.order {
		if err := c.files[key].Close(); err != nil {
			errs = errs.Append(errors.WithStackTraceAndPrefix(err, "closing %s", key))
		}
	}
	c.files = make(map[string]*sds.File)
	c.order = nil
	return errs.ErrorOrNil()
}
