package mask

import (
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
	"github.com/robert-malhotra/go-sdsmask/internal/kind"
)

// RaggedDecoder rebuilds dense rows of one stacked observation from the
// packed store of an aggregated container.
//
// The packed store is a [P][C] grid holding, for each grid row r, rowCounts[r]
// packed rows. Within them the extra observations of column 0 come first,
// then those of column 1, and so on; a cell with n observations contributes
// n-1 packed values since its first observation lives in the primary dataset.
type RaggedDecoder struct {
	packed    *Ref
	colCounts *Ref
	offsets   []int
	obs       int

	row     int
	dense   []byte
	missing []bool
}

// NewRaggedDecoder returns a decoder for observation obs (2 or greater).
// rowCounts is the rank-1 table of packed rows per grid row; colCounts holds
// the number of observations of every grid cell.
func NewRaggedDecoder(packed, rowCounts, colCounts *Ref, obs int) (*RaggedDecoder, error) {
	pd := packed.Descriptor()
	if pd.Rank != 2 {
		return nil, configErrorf("%s: packed store must be 2-D, has rank %d", pd.Name, pd.Rank)
	}
	rd := rowCounts.Descriptor()
	if rd.Rank != 1 || rd.Kind.Float() {
		return nil, configErrorf("%s: row count table must be a 1-D integer dataset", rd.Name)
	}
	cd := colCounts.Descriptor()
	if cd.Rank != 2 || cd.Kind.Float() {
		return nil, configErrorf("%s: observation count table must be a 2-D integer dataset", cd.Name)
	}
	if cd.Cols() != pd.Cols() {
		return nil, configErrorf("%s has %d columns, %s has %d", cd.Name, cd.Cols(), pd.Name, pd.Cols())
	}
	if rd.Cols() < cd.Rows() {
		return nil, configErrorf("%s has %d entries for %d rows", rd.Name, rd.Cols(), cd.Rows())
	}
	if obs < 2 {
		return nil, configErrorf("observation %d is not stored in %s", obs, pd.Name)
	}

	table, err := rowCounts.Row(0)
	if err != nil {
		return nil, err
	}
	offsets := make([]int, rd.Cols()+1)
	for r := 0; r < rd.Cols(); r++ {
		offsets[r+1] = offsets[r] + loadCount(rd.Kind, table, r)
	}

	cols := pd.Cols()
	return &RaggedDecoder{
		packed:    packed,
		colCounts: colCounts,
		offsets:   offsets,
		obs:       obs,
		row:       -1,
		dense:     make([]byte, cols*pd.Kind.Size()),
		missing:   make([]bool, cols),
	}, nil
}

// Descriptor returns the descriptor of the packed store.
func (d *RaggedDecoder) Descriptor() *Descriptor {
	return d.packed.Descriptor()
}

// Offset returns the first packed row belonging to grid row r.
func (d *RaggedDecoder) Offset(r int) int {
	return d.offsets[r]
}

// Row returns the dense values of grid row r. missing[c] is set where the
// cell has fewer observations than requested; those values hold the packed
// store's fill value.
func (d *RaggedDecoder) Row(r int) (dense []byte, missing []bool, err error) {
	if r == d.row {
		return d.dense, d.missing, nil
	}
	pd := d.packed.Descriptor()
	if r < 0 || r+1 >= len(d.offsets) {
		return nil, nil, ioError("decode", pd.Path, pd.Name, errors.Errorf("row %d outside count table", r))
	}

	counts, err := d.colCounts.Row(r)
	if err != nil {
		return nil, nil, err
	}
	ck := d.colCounts.Descriptor().Kind
	k := pd.Kind
	cols := pd.Cols()
	extent := pd.Rows() * cols
	base := d.offsets[r] * cols

	stacked := 0
	for c := 0; c < cols; c++ {
		n := loadCount(ck, counts, c)
		if n >= d.obs {
			flat := base + stacked + d.obs - 2
			if flat >= extent {
				d.row = -1
				return nil, nil, ioError("decode", pd.Path, pd.Name,
					errors.Errorf("row %d column %d: packed index %d beyond %d elements", r, c, flat, extent))
			}
			buf, err := d.packed.Row(flat / cols)
			if err != nil {
				d.row = -1
				return nil, nil, err
			}
			k.Copy(d.dense, c, buf, flat%cols)
			d.missing[c] = false
		} else {
			k.Store(d.dense, c, pd.Fill)
			d.missing[c] = true
		}
		if n > 1 {
			stacked += n - 1
		}
	}

	d.row = r
	return d.dense, d.missing, nil
}

// loadCount reads entry i of a count table.
func loadCount(k kind.Kind, buf []byte, i int) int {
	n := k.Load(buf, i)
	if n < 0 {
		return 0
	}
	return int(n)
}
