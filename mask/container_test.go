package mask

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/robert-malhotra/go-sdsmask/internal/kind"
)

// memDataset is a dataset held in memory by memContainer.
type memDataset struct {
	desc  Descriptor
	rows  [][]byte
	attrs map[string]string
}

type memFile struct {
	datasets map[string]*memDataset
	attrs    map[string]string
}

// memContainer is an in-memory Container that counts opens, closes, reads and
// attribute reads.
type memContainer struct {
	files     map[string]*memFile
	opens     map[string]int
	closes    map[string]int
	reads     map[string]int
	attrReads map[string]int
	writes    []string
}

func newMemContainer() *memContainer {
	return &memContainer{
		files:     make(map[string]*memFile),
		opens:     make(map[string]int),
		closes:    make(map[string]int),
		reads:     make(map[string]int),
		attrReads: make(map[string]int),
	}
}

func memKey(path, name string) string {
	return filepath.Clean(path) + ":" + name
}

func (m *memContainer) file(path string) *memFile {
	path = filepath.Clean(path)
	f, ok := m.files[path]
	if !ok {
		f = &memFile{datasets: make(map[string]*memDataset), attrs: make(map[string]string)}
		m.files[path] = f
	}
	return f
}

type gridOption func(*Descriptor)

func withFill(v int64) gridOption {
	return func(d *Descriptor) { d.Fill, d.HasFill = v, true }
}

func withValidRange(lo, hi int64) gridOption {
	return func(d *Descriptor) { d.ValidMin, d.ValidMax, d.HasValidRange = lo, hi, true }
}

// addRows stores a dataset given as stored rows of values.
func (m *memContainer) addRows(path, name string, k kind.Kind, dims []int, rows [][]int64, opts ...gridOption) {
	d := Descriptor{Path: path, Name: name, Rank: len(dims), Dims: dims, Kind: k}
	for _, opt := range opts {
		opt(&d)
	}
	ds := &memDataset{desc: d, attrs: make(map[string]string)}
	for _, values := range rows {
		if len(values) != d.RowElements() {
			panic(fmt.Sprintf("%s: row has %d values, want %d", name, len(values), d.RowElements()))
		}
		buf := make([]byte, d.RowBytes())
		for i, v := range values {
			k.Store(buf, i, v)
		}
		ds.rows = append(ds.rows, buf)
	}
	if len(ds.rows) != d.Rows() {
		panic(fmt.Sprintf("%s: %d rows, want %d", name, len(ds.rows), d.Rows()))
	}
	m.file(path).datasets[name] = ds
}

// add2D stores a rank-2 dataset.
func (m *memContainer) add2D(path, name string, k kind.Kind, rows [][]int64, opts ...gridOption) {
	m.addRows(path, name, k, []int{len(rows), len(rows[0])}, rows, opts...)
}

func (m *memContainer) setFileAttr(path, name, value string) {
	m.file(path).attrs[name] = value
}

func (m *memContainer) dataset(path, name string) *memDataset {
	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil
	}
	return f.datasets[name]
}

// values returns stored row r of a dataset decoded as int64.
func (m *memContainer) values(path, name string, r int) []int64 {
	ds := m.dataset(path, name)
	out := make([]int64, ds.desc.RowElements())
	for i := range out {
		out[i] = ds.desc.Kind.Load(ds.rows[r], i)
	}
	return out
}

func (m *memContainer) OpenForRead(path, name string) (*Descriptor, error) {
	ds := m.dataset(path, name)
	if ds == nil {
		return nil, fmt.Errorf("%s: no such dataset", memKey(path, name))
	}
	m.opens[memKey(path, name)]++
	d := ds.desc
	d.Dims = append([]int(nil), ds.desc.Dims...)
	d.Handle = ds
	return &d, nil
}

func (m *memContainer) OpenForWrite(path, name string, like *Descriptor) (*Descriptor, error) {
	f := m.file(path)
	if _, exists := f.datasets[name]; exists {
		return nil, fmt.Errorf("%s: dataset exists", memKey(path, name))
	}
	d := *like
	d.Path, d.Name = path, name
	d.Dims = append([]int(nil), like.Dims...)
	d.Handle = nil

	ds := &memDataset{desc: d, attrs: make(map[string]string)}
	for r := 0; r < d.Rows(); r++ {
		ds.rows = append(ds.rows, make([]byte, d.RowBytes()))
	}
	f.datasets[name] = ds
	m.opens[memKey(path, name)]++

	d.Handle = ds
	return &d, nil
}

func (m *memContainer) ReadRow(d *Descriptor, row int) ([]byte, error) {
	ds := d.Handle.(*memDataset)
	if row < 0 || row >= len(ds.rows) {
		return nil, fmt.Errorf("%s row %d out of range", d.Name, row)
	}
	m.reads[memKey(d.Path, d.Name)]++
	return append([]byte(nil), ds.rows[row]...), nil
}

func (m *memContainer) WriteRow(d *Descriptor, row int, buf []byte) error {
	ds := d.Handle.(*memDataset)
	if row < 0 || row >= len(ds.rows) {
		return fmt.Errorf("%s row %d out of range", d.Name, row)
	}
	ds.rows[row] = append([]byte(nil), buf...)
	m.writes = append(m.writes, fmt.Sprintf("%s/%d", d.Name, row))
	return nil
}

func (m *memContainer) ReadAttribute(path, name string) (string, bool, error) {
	m.attrReads[filepath.Clean(path)]++
	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return "", false, fmt.Errorf("%s: no such file", path)
	}
	v, ok := f.attrs[name]
	return v, ok, nil
}

func (m *memContainer) WriteAttribute(d *Descriptor, name, value string) error {
	d.Handle.(*memDataset).attrs[name] = value
	return nil
}

func (m *memContainer) CopyFileAttributes(src, dst string) error {
	from, ok := m.files[filepath.Clean(src)]
	if !ok {
		return fmt.Errorf("%s: no such file", src)
	}
	to := m.file(dst)
	names := make([]string, 0, len(from.attrs))
	for name := range from.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		to.attrs[name] = from.attrs[name]
	}
	return nil
}

func (m *memContainer) Close(d *Descriptor) error {
	m.closes[memKey(d.Path, d.Name)]++
	return nil
}
