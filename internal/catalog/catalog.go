package catalog

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	binpkg "github.com/robert-malhotra/go-sdsmask/internal/binary"
	"github.com/robert-malhotra/go-sdsmask/internal/kind"
)

// Version is the catalog block version written by this package.
const Version = 1

// MaxRank is the largest supported dataset rank.
const MaxRank = 4

// Entry describes one dataset.
type Entry struct {
	Name  string
	Kind  kind.Kind
	Dims  []uint64
	Addr  uint64
	Attrs Attrs
}

// Rows returns the number of rows: the second-to-last dimension, or 1 for
// rank-1 datasets.
func (e *Entry) Rows() uint64 {
	if len(e.Dims) < 2 {
		return 1
	}
	return e.Dims[len(e.Dims)-2]
}

// RowElements returns the number of elements in one stored row. Rows hold
// every layer of a multi-layer dataset, layer-major.
func (e *Entry) RowElements() uint64 {
	switch len(e.Dims) {
	case 0:
		return 0
	case 1:
		return e.Dims[0]
	}
	n := e.Dims[len(e.Dims)-1]
	for _, d := range e.Dims[:len(e.Dims)-2] {
		n *= d
	}
	return n
}

// RowBytes returns the size of one stored row in bytes.
func (e *Entry) RowBytes() uint64 {
	return e.RowElements() * uint64(e.Kind.Size())
}

// DataSize returns the size of the dataset's data region.
func (e *Entry) DataSize() uint64 {
	return e.Rows() * e.RowBytes()
}

// Catalog lists the attributes and datasets of a container.
type Catalog struct {
	Attrs   Attrs
	Entries []*Entry
}

// Lookup returns the entry with the given name, or nil.
func (c *Catalog) Lookup(name string) *Entry {
	for _, e := range c.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Encode serializes the catalog into an uncompressed block.
func (c *Catalog) Encode() ([]byte, error) {
	var buf binpkg.Buffer
	w := binpkg.NewWriter(&buf)

	if err := w.WriteUint8(Version); err != nil {
		return nil, err
	}
	if err := writeAttrs(w, c.Attrs); err != nil {
		return nil, fmt.Errorf("file attributes: %w", err)
	}
	if err := w.WriteUint32(uint32(len(c.Entries))); err != nil {
		return nil, err
	}
	for _, e := range c.Entries {
		if err := writeEntry(w, e); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", e.Name, err)
		}
	}
	return buf.Bytes(), nil
}

func writeEntry(w *binpkg.Writer, e *Entry) error {
	if len(e.Dims) == 0 || len(e.Dims) > MaxRank {
		return fmt.Errorf("unsupported rank %d", len(e.Dims))
	}
	if err := w.WriteString(e.Name); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(e.Kind)); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(len(e.Dims))); err != nil {
		return err
	}
	for _, d := range e.Dims {
		if err := w.WriteUint64(d); err != nil {
			return err
		}
	}
	if err := w.WriteUint64(e.Addr); err != nil {
		return err
	}
	return writeAttrs(w, e.Attrs)
}

func writeAttrs(w *binpkg.Writer, attrs Attrs) error {
	if err := w.WriteUint16(uint16(len(attrs))); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := w.WriteString(a.Name); err != nil {
			return err
		}
		if err := w.WriteUint8(uint8(a.Class)); err != nil {
			return err
		}
		var err error
		switch a.Class {
		case ClassString:
			err = w.WriteString(a.Str)
		case ClassInt:
			if err = w.WriteUint32(uint32(len(a.Ints))); err == nil {
				for _, v := range a.Ints {
					if err = w.WriteInt64(v); err != nil {
						break
					}
				}
			}
		case ClassFloat:
			if err = w.WriteUint32(uint32(len(a.Floats))); err == nil {
				for _, v := range a.Floats {
					if err = w.WriteFloat64(v); err != nil {
						break
					}
				}
			}
		default:
			err = fmt.Errorf("attribute %q: unknown class %d", a.Name, a.Class)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Decode parses an uncompressed catalog block.
func Decode(data []byte) (*Catalog, error) {
	r := binpkg.NewReader(bytes.NewReader(data))

	version, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading catalog version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("unsupported catalog version: %d", version)
	}

	c := &Catalog{}
	if c.Attrs, err = readAttrs(r); err != nil {
		return nil, fmt.Errorf("file attributes: %w", err)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading dataset count: %w", err)
	}
	for i := uint32(0); i < n; i++ {
		e, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("dataset %d: %w", i, err)
		}
		c.Entries = append(c.Entries, e)
	}
	return c, nil
}

func readEntry(r *binpkg.Reader) (*Entry, error) {
	e := &Entry{}
	var err error
	if e.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	k, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	e.Kind = kind.Kind(k)
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("%q: unknown element kind %d", e.Name, k)
	}
	rank, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("%q: unsupported rank %d", e.Name, rank)
	}
	e.Dims = make([]uint64, rank)
	for i := range e.Dims {
		if e.Dims[i], err = r.ReadUint64(); err != nil {
			return nil, err
		}
	}
	if e.Addr, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if e.Attrs, err = readAttrs(r); err != nil {
		return nil, fmt.Errorf("%q: %w", e.Name, err)
	}
	return e, nil
}

func readAttrs(r *binpkg.Reader) (Attrs, error) {
	n, err := r.ReadUint16()
	if err != nil || n == 0 {
		return nil, err
	}
	attrs := make(Attrs, 0, n)
	for i := uint16(0); i < n; i++ {
		a := Attribute{}
		if a.Name, err = r.ReadString(); err != nil {
			return nil, err
		}
		class, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		a.Class = AttrClass(class)
		switch a.Class {
		case ClassString:
			a.Str, err = r.ReadString()
		case ClassInt:
			var count uint32
			if count, err = r.ReadUint32(); err == nil {
				a.Ints = make([]int64, count)
				for j := range a.Ints {
					if a.Ints[j], err = r.ReadInt64(); err != nil {
						break
					}
				}
			}
		case ClassFloat:
			var count uint32
			if count, err = r.ReadUint32(); err == nil {
				a.Floats = make([]float64, count)
				for j := range a.Floats {
					if a.Floats[j], err = r.ReadFloat64(); err != nil {
						break
					}
				}
			}
		default:
			err = fmt.Errorf("attribute %q: unknown class %d", a.Name, class)
		}
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// Compress deflates an encoded block.
func Compress(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return out.Bytes(), nil
}

// Decompress inflates a block produced by Compress.
func Decompress(block []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(block))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return raw, nil
}
