package mask

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// Chain joins a clause to the one after it.
type Chain uint8

const (
	ChainNone Chain = iota
	ChainAnd
	ChainOr
)

func (c Chain) String() string {
	switch c {
	case ChainAnd:
		return "AND"
	case ChainOr:
		return "OR"
	default:
		return ""
	}
}

// DefaultMaxClauses bounds expressions parsed without WithMaxClauses.
const DefaultMaxClauses = 32

// maxLayerIndices is the number of trailing ".n" components a dataset
// reference may carry.
const maxLayerIndices = 2

// Clause is one bit-field test of an expression.
type Clause struct {
	Source  string
	Dataset string
	// Layers holds the 1-based indices written after the dataset name.
	// For an aggregated source the first index selects the observation.
	Layers []int
	Bits   BitSpec
	// Chain joins this clause to the next; the last clause has ChainNone.
	Chain      Chain
	Aggregated bool
	Text       string
}

// Observation returns the observation an aggregated clause selects.
func (c *Clause) Observation() int {
	if len(c.Layers) == 0 {
		return 1
	}
	return c.Layers[0]
}

// Expr is a parsed mask expression.
type Expr struct {
	Text    string
	Clauses []*Clause
	// Dropped collects the ParseErrors of clauses that were skipped.
	Dropped *errors.MultiError
}

// ParseOption configures ParseExpr.
type ParseOption func(*parseOptions)

type parseOptions struct {
	maxClauses int
}

// WithMaxClauses sets the clause limit.
func WithMaxClauses(n int) ParseOption {
	return func(o *parseOptions) {
		o.maxClauses = n
	}
}

type rawClause struct {
	text  string
	chain Chain
}

// ParseExpr splits expr into clauses and compiles each bit spec.
//
// A "*" field repeats the same field of the previous clause. Clauses that
// cannot be parsed are dropped and recorded in Expr.Dropped; the clause
// before a dropped one takes over the operator that followed it.
func ParseExpr(expr string, opts ...ParseOption) (*Expr, error) {
	options := &parseOptions{maxClauses: DefaultMaxClauses}
	for _, opt := range opts {
		opt(options)
	}

	out := &Expr{Text: expr}
	var prev *Clause

	for _, raw := range splitClauses(expr) {
		c, err := parseClause(raw.text, prev)
		if err != nil {
			out.Dropped = out.Dropped.Append(err)
			if prev != nil {
				prev.Chain = raw.chain
			}
			continue
		}
		c.Chain = raw.chain
		out.Clauses = append(out.Clauses, c)
		prev = c
	}

	if len(out.Clauses) == 0 {
		if dropped := out.Dropped.ErrorOrNil(); dropped != nil {
			return nil, parseErrorf("", "no valid clauses: %v", dropped)
		}
		return nil, parseErrorf("", "no clauses")
	}
	out.Clauses[len(out.Clauses)-1].Chain = ChainNone

	if len(out.Clauses) > options.maxClauses {
		return nil, configErrorf("mask expression has %d clauses, limit is %d", len(out.Clauses), options.maxClauses)
	}
	return out, nil
}

// splitClauses cuts expr at each ",AND," or ",OR," token, leftmost first.
func splitClauses(expr string) []rawClause {
	var out []rawClause
	rest := expr
	for {
		at, chain, size := nextChain(rest)
		if at < 0 {
			out = append(out, rawClause{text: rest, chain: ChainNone})
			return out
		}
		out = append(out, rawClause{text: rest[:at], chain: chain})
		rest = rest[at+size:]
	}
}

func nextChain(s string) (int, Chain, int) {
	and := strings.Index(s, ",AND,")
	or := strings.Index(s, ",OR,")
	switch {
	case and < 0 && or < 0:
		return -1, ChainNone, 0
	case or < 0 || (and >= 0 && and < or):
		return and, ChainAnd, len(",AND,")
	default:
		return or, ChainOr, len(",OR,")
	}
}

func parseClause(text string, prev *Clause) (*Clause, error) {
	text = strings.TrimSpace(text)
	fields := strings.SplitN(text, ",", 3)
	if len(fields) < 3 {
		return nil, parseErrorf(text, "want source,dataset,bitspec")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	c := &Clause{Text: text}

	switch source := fields[0]; {
	case source == "*" && prev == nil:
		return nil, parseErrorf(text, "'*' source with no previous clause")
	case source == "*":
		c.Source = prev.Source
	case source == "":
		return nil, parseErrorf(text, "empty source")
	default:
		c.Source = source
	}

	switch dataset := fields[1]; {
	case dataset == "*" && prev == nil:
		return nil, parseErrorf(text, "'*' dataset with no previous clause")
	case dataset == "*":
		c.Dataset = prev.Dataset
		c.Layers = append([]int(nil), prev.Layers...)
	default:
		name, layers, err := splitLayers(dataset)
		if err != nil {
			return nil, parseErrorf(text, "%v", err)
		}
		c.Dataset, c.Layers = name, layers
	}

	switch spec := fields[2]; {
	case spec == "*" && prev == nil:
		return nil, parseErrorf(text, "'*' bit spec with no previous clause")
	case spec == "*":
		c.Bits = prev.Bits
	default:
		bs, err := CompileBitSpec(spec)
		if err != nil {
			return nil, err
		}
		c.Bits = bs
	}

	return c, nil
}

// splitLayers separates trailing all-digit ".n" components from a dataset
// reference. "sur_refl.b01" has no layer suffix.
func splitLayers(ref string) (string, []int, error) {
	name := ref
	var layers []int
	for len(layers) < maxLayerIndices {
		dot := strings.LastIndexByte(name, '.')
		if dot < 0 || !isDigits(name[dot+1:]) {
			break
		}
		n, err := strconv.Atoi(name[dot+1:])
		if err != nil {
			return "", nil, err
		}
		if n < 1 {
			return "", nil, errors.Errorf("layer index %d in %q must be 1 or greater", n, ref)
		}
		layers = append([]int{n}, layers...)
		name = name[:dot]
	}
	if name == "" {
		return "", nil, errors.Errorf("empty dataset name in %q", ref)
	}
	return name, layers, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// AttributeReader is the part of Container used to inspect sources.
type AttributeReader interface {
	ReadAttribute(path, name string) (string, bool, error)
}

// Bind marks the clauses whose source carries the aggregation attribute.
// A source without it is treated as a plain grid.
func (e *Expr) Bind(r AttributeReader, attribute string, logger *logrus.Entry) error {
	checked := make(map[string]bool)
	for _, c := range e.Clauses {
		aggregated, seen := checked[c.Source]
		if !seen {
			value, ok, err := r.ReadAttribute(c.Source, attribute)
			if err != nil {
				return ioError("read attributes", c.Source, "", err)
			}
			aggregated = ok
			if ok {
				logger.Debugf("%s is aggregated (%s=%s)", c.Source, attribute, value)
			} else {
				logger.Debugf("%s has no %s attribute, treating it as not aggregated", c.Source, attribute)
			}
			checked[c.Source] = aggregated
		}
		c.Aggregated = aggregated
	}
	return nil
}

// Sources returns the distinct clause sources in order of first use.
func (e *Expr) Sources() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range e.Clauses {
		if !seen[c.Source] {
			seen[c.Source] = true
			out = append(out, c.Source)
		}
	}
	return out
}
