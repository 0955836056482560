package mask

import (
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/config"
	"github.com/robert-malhotra/go-sdsmask/internal/kind"
)

// Names of the attributes written with every output dataset.
const (
	AttrOrigFillValue = "orig_fill_value"
	AttrMaskFillValue = "mask_fill_value"
	AttrMaskExpr      = "mask_expression"
	AttrMaskOnValue   = "mask_on_value"
	AttrMaskOffValue  = "mask_off_value"
)

// CreateMaskRequest describes a create_mask run.
type CreateMaskRequest struct {
	Output     string
	Expression string
	// Dataset names the mask dataset; empty means the configured default.
	Dataset string
	// On and Off override the configured mask bytes when set.
	On  *int
	Off *int
}

// MaskSDSRequest describes a mask_sds run.
type MaskSDSRequest struct {
	Input      string
	Output     string
	Datasets   []string
	Expression string
	// Fill overrides the derived mask fill value when set.
	Fill     *int64
	CopyMeta bool
}

// sessionRequest names what a pipeline reads and writes.
type sessionRequest struct {
	expression string
	output     string
	// inputs lists files read besides the expression sources.
	inputs []string
}

// session holds the state shared by both pipelines.
type session struct {
	ctr     Container
	cfg     config.Config
	logger  *logrus.Entry
	expr    *Expr
	tracker *AliasTracker
	ops     []*Operand
}

func openSession(ctr Container, req sessionRequest, cfg config.Config, logger *logrus.Entry) (*session, error) {
	if req.expression == "" {
		return nil, configErrorf("a mask expression is required")
	}

	expr, err := ParseExpr(req.expression, WithMaxClauses(cfg.MaxClauses))
	if err != nil {
		return nil, err
	}
	for _, dropped := range expr.Dropped.WrappedErrors() {
		logger.Warnf("skipping %v", dropped)
	}

	// Nothing is opened until the output is known not to clobber a source.
	if err := checkOutput(req.output, append(expr.Sources(), req.inputs...)); err != nil {
		return nil, err
	}

	if err := expr.Bind(ctr, cfg.AggregationAttribute, logger); err != nil {
		return nil, err
	}

	tracker := NewAliasTracker(ctr, logger)
	ops, err := BindOperands(expr, tracker, cfg)
	if err != nil {
		_ = tracker.Release()
		return nil, err
	}

	return &session{ctr: ctr, cfg: cfg, logger: logger, expr: expr, tracker: tracker, ops: ops}, nil
}

func (s *session) close(err error) error {
	if rerr := s.tracker.Release(); rerr != nil {
		if err == nil {
			return rerr
		}
		s.logger.WithError(rerr).Warn("releasing datasets")
	}
	return err
}

func checkOutput(output string, sources []string) error {
	if output == "" {
		return configErrorf("an output file is required")
	}
	clean := filepath.Clean(output)
	for _, in := range sources {
		if filepath.Clean(in) == clean {
			return configErrorf("output file %s is also an input", output)
		}
	}
	return nil
}

// CreateMask evaluates the request expression over the finest clause grid
// and writes the result as a uint8 mask dataset.
func CreateMask(ctr Container, req CreateMaskRequest, cfg config.Config, logger *logrus.Entry) (err error) {
	s, err := openSession(ctr, sessionRequest{expression: req.Expression, output: req.Output}, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = s.close(err) }()

	on, off := cfg.On(), cfg.Off()
	if req.On != nil {
		on = *req.On
	}
	if req.Off != nil {
		off = *req.Off
	}
	mv := NewMaskValues(on, off, cfg.FillByte(), logger)

	name := req.Dataset
	if name == "" {
		name = cfg.MaskDataset
	}

	rows, cols := FinestGrid(s.ops)
	ev, err := NewEvaluator(s.ops, rows, cols, logger)
	if err != nil {
		return err
	}

	like := &Descriptor{
		Name:    name,
		Rank:    2,
		Dims:    []int{rows, cols},
		Kind:    kind.Uint8,
		Fill:    int64(mv.Fill),
		HasFill: true,
	}
	out, err := ctr.OpenForWrite(req.Output, name, like)
	if err != nil {
		return ioError("create", req.Output, name, err)
	}
	defer func() {
		if cerr := ctr.Close(out); cerr != nil && err == nil {
			err = ioError("close", req.Output, name, cerr)
		}
	}()

	logger.Infof("writing %s:%s (%dx%d) from %d clauses", req.Output, name, rows, cols, len(s.ops))

	states := make([]State, cols)
	for r := 0; r < rows; r++ {
		if err := ev.EvalRow(r, states); err != nil {
			return err
		}
		if err := ctr.WriteRow(out, r, SynthesizeRow(states, mv)); err != nil {
			return ioError("write", req.Output, name, err)
		}
	}

	return writeAttributes(ctr, out, map[string]string{
		AttrMaskOnValue:  strconv.Itoa(int(mv.On)),
		AttrMaskOffValue: strconv.Itoa(int(mv.Off)),
		AttrMaskExpr:     req.Expression,
	})
}

// MaskSDS filters each requested dataset of the input file through the
// request expression into the output file.
func MaskSDS(ctr Container, req MaskSDSRequest, cfg config.Config, logger *logrus.Entry) (err error) {
	if req.Input == "" {
		return configErrorf("an input file is required")
	}
	if len(req.Datasets) == 0 {
		return configErrorf("no datasets to mask")
	}

	s, err := openSession(ctr, sessionRequest{
		expression: req.Expression,
		output:     req.Output,
		inputs:     []string{req.Input},
	}, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = s.close(err) }()

	if req.CopyMeta {
		if err := ctr.CopyFileAttributes(req.Input, req.Output); err != nil {
			return ioError("copy attributes", req.Input, "", err)
		}
	}

	for _, name := range req.Datasets {
		if err := s.filterDataset(req, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) filterDataset(req MaskSDSRequest, name string) (err error) {
	ref, err := s.tracker.Open(req.Input, name)
	if err != nil {
		return err
	}
	d := ref.Descriptor()
	if !d.Kind.Maskable() {
		return configErrorf("dataset %s has element kind %s, which cannot be masked", name, d.Kind)
	}
	if d.Rank < 2 || d.Rank > 4 {
		return configErrorf("dataset %s has rank %d, want 2 to 4", name, d.Rank)
	}

	maskFill := DeriveMaskFill(d, req.Fill, s.logger)
	ev, err := NewEvaluator(s.ops, d.Rows(), d.Cols(), s.logger)
	if err != nil {
		return err
	}

	like := *d
	like.Fill, like.HasFill = maskFill, true
	like.Handle = nil
	out, err := s.ctr.OpenForWrite(req.Output, name, &like)
	if err != nil {
		return ioError("create", req.Output, name, err)
	}
	defer func() {
		if cerr := s.ctr.Close(out); cerr != nil && err == nil {
			err = ioError("close", req.Output, name, cerr)
		}
	}()

	s.logger.Infof("masking %s:%s into %s with fill value %d", req.Input, name, req.Output, maskFill)

	states := make([]State, d.Cols())
	for r := 0; r < d.Rows(); r++ {
		if err := ev.EvalRow(r, states); err != nil {
			return err
		}
		raw, err := ref.Row(r)
		if err != nil {
			return err
		}
		if err := s.ctr.WriteRow(out, r, FilterRow(states, raw, d, maskFill)); err != nil {
			return ioError("write", req.Output, name, err)
		}
	}

	attrs := map[string]string{
		AttrMaskFillValue: strconv.FormatInt(maskFill, 10),
		AttrMaskExpr:      req.Expression,
	}
	if d.HasFill {
		attrs[AttrOrigFillValue] = strconv.FormatInt(d.Fill, 10)
	}
	return writeAttributes(s.ctr, out, attrs)
}

// attributeOrder fixes the order output attributes are written in.
var attributeOrder = []string{
	AttrOrigFillValue,
	AttrMaskFillValue,
	AttrMaskOnValue,
	AttrMaskOffValue,
	AttrMaskExpr,
}

func writeAttributes(ctr Container, d *Descriptor, attrs map[string]string) error {
	for _, name := range attributeOrder {
		value, ok := attrs[name]
		if !ok {
			continue
		}
		if err := ctr.WriteAttribute(d, name, value); err != nil {
			return ioError("write attribute "+name, d.Path, d.Name, err)
		}
	}
	return nil
}
