package mask

import (
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/config"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// State is the outcome of an expression at one pixel.
type State uint8

const (
	Off State = iota
	On
	Fill
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case On:
		return "on"
	case Fill:
		return "fill"
	default:
		return "state(?)"
	}
}

// Operand is a clause bound to the dataset it reads.
type Operand struct {
	Clause *Clause
	Ref    *Ref
	// Spec is the clause bit spec narrowed to the element width.
	Spec BitSpec

	decoder *RaggedDecoder
	// offset is the element index of the selected layer within a stored row.
	offset int
	rows   int
	cols   int
}

// Descriptor returns the dataset the operand reads values from.
func (o *Operand) Descriptor() *Descriptor {
	if o.decoder != nil {
		return o.decoder.Descriptor()
	}
	return o.Ref.Descriptor()
}

// Rows returns the number of grid rows of the operand.
func (o *Operand) Rows() int { return o.rows }

// Cols returns the number of grid columns of the operand.
func (o *Operand) Cols() int { return o.cols }

// Aggregated reports whether values come from a packed observation store.
func (o *Operand) Aggregated() bool { return o.decoder != nil }

// BindOperands opens the datasets of every clause through t.
func BindOperands(expr *Expr, t *AliasTracker, cfg config.Config) ([]*Operand, error) {
	ops := make([]*Operand, 0, len(expr.Clauses))
	for _, c := range expr.Clauses {
		op, err := bindOperand(c, t, cfg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func bindOperand(c *Clause, t *AliasTracker, cfg config.Config) (*Operand, error) {
	if c.Aggregated && c.Observation() > 1 {
		return bindRagged(c, t, cfg)
	}

	ref, err := t.Open(c.Source, c.Dataset)
	if err != nil {
		return nil, err
	}
	d := ref.Descriptor()
	if err := checkMaskable(c, d); err != nil {
		return nil, err
	}

	layers := c.Layers
	if c.Aggregated {
		if d.Rank != 2 {
			return nil, configErrorf("%s: aggregated dataset %s must be 2-D", c.Text, d.Name)
		}
		layers = layers[min(len(layers), 1):]
	}
	offset, err := layerOffset(c, d, layers)
	if err != nil {
		return nil, err
	}

	spec, err := narrow(c, d)
	if err != nil {
		return nil, err
	}
	return &Operand{Clause: c, Ref: ref, Spec: spec, offset: offset, rows: d.Rows(), cols: d.Cols()}, nil
}

func bindRagged(c *Clause, t *AliasTracker, cfg config.Config) (*Operand, error) {
	if len(c.Layers) > 1 {
		return nil, configErrorf("%s: aggregated dataset %s takes one observation index", c.Text, c.Dataset)
	}

	packed, err := t.Open(c.Source, c.Dataset+cfg.PackedSuffix)
	if err != nil {
		return nil, err
	}
	rowCounts, err := t.Open(c.Source, cfg.RowCountDataset)
	if err != nil {
		return nil, err
	}
	colCounts, err := t.Open(c.Source, cfg.ColCountDataset)
	if err != nil {
		return nil, err
	}

	d := packed.Descriptor()
	if err := checkMaskable(c, d); err != nil {
		return nil, err
	}
	spec, err := narrow(c, d)
	if err != nil {
		return nil, err
	}
	dec, err := NewRaggedDecoder(packed, rowCounts, colCounts, c.Observation())
	if err != nil {
		return nil, err
	}

	cd := colCounts.Descriptor()
	return &Operand{Clause: c, Ref: packed, Spec: spec, decoder: dec, rows: cd.Rows(), cols: cd.Cols()}, nil
}

func checkMaskable(c *Clause, d *Descriptor) error {
	if !d.Kind.Maskable() {
		return configErrorf("%s: dataset %s has element kind %s, which cannot be masked", c.Text, d.Name, d.Kind)
	}
	if d.Rank < 2 || d.Rank > 4 {
		return configErrorf("%s: dataset %s has rank %d, want 2 to 4", c.Text, d.Name, d.Rank)
	}
	return nil
}

// layerOffset locates the layer selected by the 1-based indices in layers.
// Missing indices select the first layer.
func layerOffset(c *Clause, d *Descriptor, layers []int) (int, error) {
	lead := d.Dims[:d.Rank-2]
	if len(layers) > len(lead) {
		return 0, configErrorf("%s: dataset %s has %d layer dimensions, %d indices given", c.Text, d.Name, len(lead), len(layers))
	}
	index := 0
	for i, size := range lead {
		l := 1
		if i < len(layers) {
			l = layers[i]
		}
		if l > size {
			return 0, configErrorf("%s: layer %d of %s is out of range 1..%d", c.Text, l, d.Name, size)
		}
		index = index*size + l - 1
	}
	return index * d.Cols(), nil
}

// narrow fits the clause bit spec to the element width of d.
func narrow(c *Clause, d *Descriptor) (BitSpec, error) {
	spec := c.Bits
	width := d.Kind.Width()
	if spec.FullWidth() {
		if width < 32 {
			spec.Mask = 1<<width - 1
		}
		if spec.Value&^spec.Mask != 0 {
			return BitSpec{}, configErrorf("%s: value %d does not fit %d-bit dataset %s", c.Text, spec.Value, width, d.Name)
		}
		return spec, nil
	}
	if spec.HighestBit() >= width {
		return BitSpec{}, configErrorf("%s: bit %d is beyond the %d-bit elements of %s", c.Text, spec.HighestBit(), width, d.Name)
	}
	return spec, nil
}

// FinestGrid returns the row and column counts of the operand with the most
// pixels; the first wins a tie.
func FinestGrid(ops []*Operand) (rows, cols int) {
	for _, op := range ops {
		if op.rows*op.cols > rows*cols {
			rows, cols = op.rows, op.cols
		}
	}
	return rows, cols
}

// Evaluator computes the mask state of successive rows of a target grid.
type Evaluator struct {
	ops    []*Operand
	aligns []Alignment
	rows   int
	cols   int
	next   int

	bufs    [][]byte
	missing [][]bool
	results []bool
}

// NewEvaluator aligns ops with a target grid of rows by cols pixels.
func NewEvaluator(ops []*Operand, rows, cols int, logger *logrus.Entry) (*Evaluator, error) {
	if len(ops) == 0 {
		return nil, configErrorf("no clauses to evaluate")
	}
	target := grid(rows, cols)
	aligns := make([]Alignment, len(ops))
	for i, op := range ops {
		a, err := resolveOperand(target, op.Descriptor().Name, grid(op.rows, op.cols), logger)
		if err != nil {
			return nil, err
		}
		if (rows-1)/a.RowRatio >= op.rows || (cols-1)/a.ColRatio >= op.cols {
			return nil, errors.WithStackTrace(&ResolutionError{
				Dataset: op.Descriptor().Name,
				Target:  target,
				Clause:  grid(op.rows, op.cols),
			})
		}
		aligns[i] = a
	}

	return &Evaluator{
		ops:     ops,
		aligns:  aligns,
		rows:    rows,
		cols:    cols,
		bufs:    make([][]byte, len(ops)),
		missing: make([][]bool, len(ops)),
		results: make([]bool, len(ops)),
	}, nil
}

// Alignment returns the alignment of operand i.
func (e *Evaluator) Alignment(i int) Alignment {
	return e.aligns[i]
}

// EvalRow fills out with the states of target row. Rows must be evaluated
// in increasing order.
func (e *Evaluator) EvalRow(row int, out []State) error {
	if row < e.next || row >= e.rows {
		return configErrorf("row %d requested out of order (next %d of %d)", row, e.next, e.rows)
	}
	if len(out) != e.cols {
		return configErrorf("state row has %d columns, want %d", len(out), e.cols)
	}

	for i, op := range e.ops {
		src := row / e.aligns[i].RowRatio
		var err error
		if op.decoder != nil {
			e.bufs[i], e.missing[i], err = op.decoder.Row(src)
		} else {
			e.bufs[i], err = op.Ref.Row(src)
		}
		if err != nil {
			return err
		}
	}

	for c := range out {
		out[c] = e.evalPixel(c)
	}
	e.next = row + 1
	return nil
}

func (e *Evaluator) evalPixel(c int) State {
	for i, op := range e.ops {
		col := c / e.aligns[i].ColRatio
		if e.missing[i] != nil && e.missing[i][col] {
			return Fill
		}
		d := op.Descriptor()
		idx := op.offset + col
		if d.HasFill && d.Kind.Equal(e.bufs[i], idx, d.Fill) {
			return Fill
		}
		e.results[i] = op.Spec.Test(d.Kind.Bits(e.bufs[i], idx))
	}

	acc := e.results[0]
	for i := 1; i < len(e.ops); i++ {
		if e.ops[i-1].Clause.Chain == ChainAnd {
			acc = acc && e.results[i]
		} else {
			acc = acc || e.results[i]
		}
	}
	if acc {
		return On
	}
	return Off
}
