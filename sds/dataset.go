package sds

import (
	"fmt"

	"github.com/robert-malhotra/go-sdsmask/internal/catalog"
	"github.com/robert-malhotra/go-sdsmask/internal/kind"
)

// Dataset represents a dataset inside an open container.
//
// Dimensions are ordered [layer...][row][column]. A stored row holds every
// layer of that row, layer-major, so one row read serves all layers. A rank-1
// dataset is a single row.
type Dataset struct {
	file  *File
	entry *catalog.Entry
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.entry.Name
}

// File returns the container holding the dataset.
func (d *Dataset) File() *File {
	return d.file
}

// Kind returns the element kind.
func (d *Dataset) Kind() kind.Kind {
	return d.entry.Kind
}

// Shape returns a copy of the dimensions.
func (d *Dataset) Shape() []uint64 {
	out := make([]uint64, len(d.entry.Dims))
	copy(out, d.entry.Dims)
	return out
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int {
	return len(d.entry.Dims)
}

// Rows returns the number of stored rows.
func (d *Dataset) Rows() int {
	return int(d.entry.Rows())
}

// RowElements returns the number of elements in one stored row.
func (d *Dataset) RowElements() int {
	return int(d.entry.RowElements())
}

// ReadRow reads stored row r.
func (d *Dataset) ReadRow(r int) ([]byte, error) {
	buf := make([]byte, d.entry.RowBytes())
	if err := d.ReadRowInto(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadRowInto reads stored row r into buf, which must be exactly one row long.
func (d *Dataset) ReadRowInto(r int, buf []byte) error {
	if d.file.closed {
		return ErrClosed
	}
	if r < 0 || uint64(r) >= d.entry.Rows() {
		return fmt.Errorf("%s row %d of %d: %w", d.entry.Name, r, d.entry.Rows(), ErrRowRange)
	}
	if uint64(len(buf)) != d.entry.RowBytes() {
		return fmt.Errorf("%s: %w (%d, want %d)", d.entry.Name, ErrRowSize, len(buf), d.entry.RowBytes())
	}
	off := int64(d.entry.Addr + uint64(r)*d.entry.RowBytes())
	if _, err := d.file.file.ReadAt(buf, off); err != nil {
		return fmt.Errorf("reading %s row %d: %w", d.entry.Name, r, err)
	}
	return nil
}

// WriteRow writes stored row r.
func (d *Dataset) WriteRow(r int, buf []byte) error {
	if d.file.closed {
		return ErrClosed
	}
	if !d.file.writable {
		return ErrReadOnly
	}
	if r < 0 || uint64(r) >= d.entry.Rows() {
		return fmt.Errorf("%s row %d of %d: %w", d.entry.Name, r, d.entry.Rows(), ErrRowRange)
	}
	if uint64(len(buf)) != d.entry.RowBytes() {
		return fmt.Errorf("%s: %w (%d, want %d)", d.entry.Name, ErrRowSize, len(buf), d.entry.RowBytes())
	}
	off := int64(d.entry.Addr + uint64(r)*d.entry.RowBytes())
	if _, err := d.file.file.WriteAt(buf, off); err != nil {
		return fmt.Errorf("writing %s row %d: %w", d.entry.Name, r, err)
	}
	return nil
}

// Attrs returns the attribute names.
func (d *Dataset) Attrs() []string {
	return d.entry.Attrs.Names()
}

// Attr returns an attribute by name.
func (d *Dataset) Attr(name string) (catalog.Attribute, bool) {
	return d.entry.Attrs.Get(name)
}

// SetAttr creates or replaces an attribute.
func (d *Dataset) SetAttr(a catalog.Attribute) error {
	if d.file.closed {
		return ErrClosed
	}
	if !d.file.writable {
		return ErrReadOnly
	}
	d.entry.Attrs.Set(a)
	d.file.dirty = true
	return nil
}

// FillValue returns the _FillValue attribute.
func (d *Dataset) FillValue() (int64, bool) {
	a, ok := d.entry.Attrs.Get(catalog.AttrFillValue)
	if !ok {
		return 0, false
	}
	return a.Int(0)
}

// ValidRange returns the valid_range attribute.
func (d *Dataset) ValidRange() (lo, hi int64, ok bool) {
	a, found := d.entry.Attrs.Get(catalog.AttrValidRange)
	if !found || a.Len() < 2 {
		return 0, 0, false
	}
	lo, ok1 := a.Int(0)
	hi, ok2 := a.Int(1)
	return lo, hi, ok1 && ok2
}

// CreateDataset creates a dataset of the given kind and dimensions. Its data
// region is allocated at once and zero-filled.
func (f *File) CreateDataset(name string, k kind.Kind, dims []uint64, opts ...DatasetOption) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if !f.writable {
		return nil, ErrReadOnly
	}
	if f.catalog.Lookup(name) != nil {
		return nil, fmt.Errorf("%q: %w", name, ErrExists)
	}
	if !k.Valid() {
		return nil, fmt.Errorf("%q: %w: element kind %v", name, ErrUnsupported, k)
	}
	if len(dims) == 0 || len(dims) > catalog.MaxRank {
		return nil, fmt.Errorf("%q: %w: rank %d", name, ErrUnsupported, len(dims))
	}

	options := &datasetOptions{}
	for _, opt := range opts {
		opt(options)
	}

	e := &catalog.Entry{
		Name:  name,
		Kind:  k,
		Dims:  append([]uint64(nil), dims...),
		Attrs: options.attributes,
	}
	e.Addr = f.allocator.AllocAligned(e.DataSize(), 8, name)

	if err := f.file.Truncate(int64(f.allocator.EOFAddr())); err != nil {
		return nil, fmt.Errorf("extending file for %q: %w", name, err)
	}

	f.catalog.Entries = append(f.catalog.Entries, e)
	f.dirty = true
	return &Dataset{file: f, entry: e}, nil
}
