package mask

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// maxRowBytes caps a single row buffer.
const maxRowBytes = 1 << 30

type aliasKey struct {
	path string
	name string
}

// aliasEntry is one physical dataset and its decoded row.
type aliasEntry struct {
	key    aliasKey
	desc   *Descriptor
	row    int
	buf    []byte
	refs   int
	closed bool
}

// Ref is a reference to a dataset held by an AliasTracker. The first Ref
// for a dataset owns it; later ones share its descriptor and row buffer.
type Ref struct {
	tracker *AliasTracker
	entry   *aliasEntry
	owner   bool
}

// Descriptor returns the shared descriptor.
func (r *Ref) Descriptor() *Descriptor {
	return r.entry.desc
}

// Owner reports whether r is responsible for closing the dataset.
func (r *Ref) Owner() bool {
	return r.owner
}

// Row returns stored row n. The buffer is shared by every alias and stays
// valid until a different row of the same dataset is read.
func (r *Ref) Row(n int) ([]byte, error) {
	e := r.entry
	if e.closed {
		return nil, configErrorf("%s:%s read after release", e.key.path, e.key.name)
	}
	if e.buf != nil && e.row == n {
		return e.buf, nil
	}
	buf, err := r.tracker.ctr.ReadRow(e.desc, n)
	if err != nil {
		e.buf = nil
		return nil, ioError("read", e.key.path, e.key.name, err)
	}
	if uint64(len(buf)) != e.desc.RowBytes() {
		e.buf = nil
		return nil, ioError("read", e.key.path, e.key.name,
			errors.Errorf("row %d has %d bytes, want %d", n, len(buf), e.desc.RowBytes()))
	}
	e.row, e.buf = n, buf
	return buf, nil
}

// AliasTracker shares opened datasets between clauses and targets that refer
// to the same (file, dataset) pair, and closes each exactly once.
type AliasTracker struct {
	ctr     Container
	logger  *logrus.Entry
	entries []*aliasEntry
	index   map[aliasKey]*aliasEntry
}

// NewAliasTracker returns an empty tracker reading through ctr.
func NewAliasTracker(ctr Container, logger *logrus.Entry) *AliasTracker {
	return &AliasTracker{
		ctr:    ctr,
		logger: logger,
		index:  make(map[aliasKey]*aliasEntry),
	}
}

// Open returns a reference to dataset name of the file at path, opening it
// on first use. name must not carry a layer suffix.
func (t *AliasTracker) Open(path, name string) (*Ref, error) {
	key := aliasKey{path: filepath.Clean(path), name: name}
	if e, ok := t.index[key]; ok {
		e.refs++
		t.logger.Debugf("%s:%s shared by %d references", path, name, e.refs)
		return &Ref{tracker: t, entry: e}, nil
	}

	desc, err := t.ctr.OpenForRead(path, name)
	if err != nil {
		return nil, ioError("open", path, name, err)
	}
	if desc.RowBytes() > maxRowBytes {
		_ = t.ctr.Close(desc)
		return nil, errors.WithStackTrace(&AllocationError{Dataset: name, Bytes: desc.RowBytes()})
	}

	e := &aliasEntry{key: key, desc: desc, row: -1, refs: 1}
	t.entries = append(t.entries, e)
	t.index[key] = e
	return &Ref{tracker: t, entry: e, owner: true}, nil
}

// Len returns the number of physical datasets opened.
func (t *AliasTracker) Len() int {
	return len(t.entries)
}

// Release closes every dataset in the order it was first opened. It can be
// called more than once.
func (t *AliasTracker) Release() error {
	var errs *errors.MultiError
	for _, e := range t.entries {
		if e.closed {
			continue
		}
		e.closed = true
		e.buf = nil
		if err := t.ctr.Close(e.desc); err != nil {
			errs = errs.Append(ioError("close", e.key.path, e.key.name, err))
		}
	}
	return errs.ErrorOrNil()
}
