// Package mask evaluates bit-field masking expressions over gridded datasets
// and applies the result, either as a new mask dataset or by blanking pixels
// of existing datasets.
//
// An expression is a chain of clauses joined by AND or OR:
//
//	source,dataset,bitspec[,AND|,OR,source,dataset,bitspec...]
//
// Each clause extracts a bit field from one dataset and compares it with a
// literal. Clauses may read different files and coarser grids than the
// output; a pixel whose input is fill in any clause is itself fill.
package mask

import (
	"github.com/robert-malhotra/go-sdsmask/internal/kind"
)

// Container is the physical I/O collaborator of the masking core.
//
// Rows are little-endian. A row of a dataset shaped [L][R][C] holds all L
// layers of that row, layer-major; a rank-1 dataset is a single row.
type Container interface {
	OpenForRead(path, name string) (*Descriptor, error)
	OpenForWrite(path, name string, like *Descriptor) (*Descriptor, error)
	ReadRow(d *Descriptor, row int) ([]byte, error)
	WriteRow(d *Descriptor, row int, buf []byte) error
	// ReadAttribute returns a file-level attribute rendered as text.
	ReadAttribute(path, name string) (string, bool, error)
	WriteAttribute(d *Descriptor, name, value string) error
	CopyFileAttributes(src, dst string) error
	Close(d *Descriptor) error
}

// Descriptor describes an opened dataset.
type Descriptor struct {
	Path string
	Name string
	Rank int
	Dims []int
	Kind kind.Kind

	Fill    int64
	HasFill bool

	ValidMin      int64
	ValidMax      int64
	HasValidRange bool

	// Handle is owned by the Container.
	Handle any
}

// Rows returns the number of stored rows.
func (d *Descriptor) Rows() int {
	if d.Rank < 2 {
		return 1
	}
	return d.Dims[d.Rank-2]
}

// Cols returns the length of the innermost dimension.
func (d *Descriptor) Cols() int {
	if d.Rank == 0 {
		return 0
	}
	return d.Dims[d.Rank-1]
}

// Layers returns the number of 2-D layers stacked in one stored row.
func (d *Descriptor) Layers() int {
	n := 1
	for i := 0; i < d.Rank-2; i++ {
		n *= d.Dims[i]
	}
	return n
}

// RowElements returns the number of elements in one stored row.
func (d *Descriptor) RowElements() int {
	return d.Layers() * d.Cols()
}

// RowBytes returns the size of one stored row.
func (d *Descriptor) RowBytes() uint64 {
	return uint64(d.RowElements()) * uint64(d.Kind.Size())
}
