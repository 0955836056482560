package mask

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// Grid is the 2-D extent of a dataset. Rows is the larger of the two
// trailing dimensions.
type Grid struct {
	Rows int
	Cols int
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Rows, g.Cols)
}

// GridOf returns the grid of d.
func GridOf(d *Descriptor) Grid {
	return grid(d.Rows(), d.Cols())
}

func grid(a, b int) Grid {
	if a < b {
		a, b = b, a
	}
	return Grid{Rows: a, Cols: b}
}

// Alignment maps target pixels onto a coarser clause grid.
type Alignment struct {
	RowRatio int
	ColRatio int
}

// Index returns the clause pixel covering target pixel (row, col).
func (a Alignment) Index(row, col int) (int, int) {
	return row / a.RowRatio, col / a.ColRatio
}

// Resolve computes the integer ratios between target and clause grids.
func Resolve(target, clause Grid) (Alignment, error) {
	if clause.Rows <= 0 || clause.Cols <= 0 {
		return Alignment{}, errors.WithStackTrace(&ResolutionError{Target: target, Clause: clause})
	}
	a := Alignment{
		RowRatio: target.Rows / clause.Rows,
		ColRatio: target.Cols / clause.Cols,
	}
	if a.RowRatio < 1 || a.ColRatio < 1 {
		return Alignment{}, errors.WithStackTrace(&ResolutionError{Target: target, Clause: clause})
	}
	return a, nil
}

// Exact reports whether the clause grid divides the target grid evenly.
func Exact(target, clause Grid) bool {
	return clause.Rows > 0 && clause.Cols > 0 &&
		target.Rows%clause.Rows == 0 && target.Cols%clause.Cols == 0
}

func resolveOperand(target Grid, name string, clause Grid, logger *logrus.Entry) (Alignment, error) {
	a, err := Resolve(target, clause)
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			re.Dataset = name
		}
		return Alignment{}, err
	}
	if !Exact(target, clause) {
		logger.Warnf("%s: grid %s does not divide target grid %s evenly, using ratios %d/%d",
			name, clause, target, a.RowRatio, a.ColRatio)
	}
	return a, nil
}
