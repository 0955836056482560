package sds

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/robert-malhotra/go-sdsmask/internal/alloc"
	binpkg "github.com/robert-malhotra/go-sdsmask/internal/binary"
	"github.com/robert-malhotra/go-sdsmask/internal/catalog"
)

// File represents an open SDS container.
type File struct {
	path    string
	file    *os.File
	catalog *catalog.Catalog
	closed  bool

	// Write support fields
	writable  bool
	dirty     bool
	lock      *flock.Flock
	allocator *alloc.Allocator

	// Region of the catalog block written by the last Flush.
	catalogAddr, catalogLen uint64
}

// Open opens an SDS container for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	_, cat, err := load(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{
		path:    path,
		file:    f,
		catalog: cat,
	}, nil
}

// Create creates a new, empty SDS container, truncating any existing file.
// The file is locked against other writers until Close.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	lock, err := acquire(path, options)
	if err != nil {
		return nil, err
	}

	osFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		release(lock)
		return nil, fmt.Errorf("creating file: %w", err)
	}

	f := &File{
		path:      path,
		file:      osFile,
		catalog:   &catalog.Catalog{},
		writable:  true,
		dirty:     true,
		lock:      lock,
		allocator: alloc.New(SuperblockSize),
	}

	// An empty superblock keeps the file recognizable until the first flush.
	if err := (&superblock{}).write(osFile); err != nil {
		f.abandon()
		return nil, err
	}
	return f, nil
}

// OpenReadWrite opens an existing container for appending datasets and
// updating attributes. Existing data regions are kept in place; the catalog
// is rewritten at the end of the file on Close.
func OpenReadWrite(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	lock, err := acquire(path, options)
	if err != nil {
		return nil, err
	}

	osFile, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		release(lock)
		return nil, fmt.Errorf("opening file: %w", err)
	}

	sb, cat, err := load(osFile)
	if err != nil {
		osFile.Close()
		release(lock)
		return nil, err
	}

	allocator := alloc.New(SuperblockSize)
	for _, e := range cat.Entries {
		allocator.Reserve(e.Addr, e.DataSize(), e.Name)
	}
	if sb.CatalogLength > 0 {
		allocator.Free(sb.CatalogAddress, sb.CatalogLength, "catalog")
	}

	return &File{
		path:      path,
		file:      osFile,
		catalog:   cat,
		writable:  true,
		lock:      lock,
		allocator: allocator,
	}, nil
}

// CreateOrAppend opens path for writing, creating it when it does not exist.
func CreateOrAppend(path string, opts ...FileOption) (*File, error) {
	if _, err := os.Stat(path); err == nil {
		return OpenReadWrite(path, opts...)
	}
	return Create(path, opts...)
}

func acquire(path string, options *fileOptions) (*flock.Flock, error) {
	if !options.lock {
		return nil, nil
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return lock, nil
}

func release(lock *flock.Flock) {
	if lock == nil {
		return
	}
	_ = lock.Unlock()
	_ = os.Remove(lock.Path())
}

// load reads the superblock and catalog of an open file.
func load(f *os.File) (*superblock, *catalog.Catalog, error) {
	sb, err := readSuperblock(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading superblock: %w", err)
	}
	if sb.CatalogLength == 0 {
		return sb, &catalog.Catalog{}, nil
	}

	block, err := binpkg.NewReader(f).At(int64(sb.CatalogAddress)).ReadBytes(int(sb.CatalogLength))
	if err != nil {
		return nil, nil, fmt.Errorf("reading catalog: %w", err)
	}
	if !binpkg.VerifyFletcher32(block, sb.CatalogChecksum) {
		return nil, nil, fmt.Errorf("catalog: %w", ErrChecksum)
	}
	raw, err := catalog.Decompress(block)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	cat, err := catalog.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	return sb, cat, nil
}

// Flush writes the catalog and superblock of a writable file.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable || !f.dirty {
		return nil
	}

	raw, err := f.catalog.Encode()
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	block, err := catalog.Compress(raw)
	if err != nil {
		return err
	}

	addr := f.allocator.AllocAligned(uint64(len(block)), 8, "catalog")
	if _, err := f.file.WriteAt(block, int64(addr)); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}

	sb := &superblock{
		CatalogAddress:  addr,
		CatalogLength:   uint64(len(block)),
		CatalogChecksum: binpkg.Fletcher32(block),
	}
	if err := sb.write(f.file); err != nil {
		return err
	}

	if f.catalogLen > 0 {
		f.allocator.Free(f.catalogAddr, f.catalogLen, "catalog")
	}
	f.catalogAddr, f.catalogLen = addr, uint64(len(block))
	f.dirty = false
	return f.file.Sync()
}

// Close flushes a writable file and releases it.
func (f *File) Close() error {
	if f.closed {
		return nil
	}

	var err error
	if f.writable {
		err = f.Flush()
	}
	f.closed = true

	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	release(f.lock)
	return err
}

// abandon closes and removes a file whose creation failed.
func (f *File) abandon() {
	f.closed = true
	f.file.Close()
	os.Remove(f.path)
	release(f.lock)
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// IsWritable reports whether the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// AllocStats returns the space allocation statistics of a writable file.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// Datasets returns the dataset names in creation order.
func (f *File) Datasets() []string {
	names := make([]string, len(f.catalog.Entries))
	for i, e := range f.catalog.Entries {
		names[i] = e.Name
	}
	return names
}

// OpenDataset opens a dataset by name.
func (f *File) OpenDataset(name string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	e := f.catalog.Lookup(name)
	if e == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return &Dataset{file: f, entry: e}, nil
}

// HasDataset reports whether a dataset with the given name exists.
func (f *File) HasDataset(name string) bool {
	return f.catalog.Lookup(name) != nil
}

// Attrs returns the file attribute names.
func (f *File) Attrs() []string {
	return f.catalog.Attrs.Names()
}

// Attr returns a file attribute by name.
func (f *File) Attr(name string) (catalog.Attribute, bool) {
	return f.catalog.Attrs.Get(name)
}

// SetAttr creates or replaces a file attribute.
func (f *File) SetAttr(a catalog.Attribute) error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	f.catalog.Attrs.Set(a)
	f.dirty = true
	return nil
}
