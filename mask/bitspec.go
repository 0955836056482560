package mask

import (
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// Op is a relational operator.
type Op uint8

const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpGT
	OpLE
	OpGE
)

func (o Op) String() string {
	switch o {
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpGE:
		return ">="
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}

func (o Op) apply(a, b uint32) bool {
	switch o {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpGT:
		return a > b
	case OpLE:
		return a <= b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

// Two-character operators come first so "<=" is not read as "<".
var operators = []struct {
	token string
	op    Op
}{
	{"<=", OpLE},
	{">=", OpGE},
	{"!=", OpNE},
	{"==", OpEQ},
	{"<", OpLT},
	{">", OpGT},
	{"=", OpEQ},
}

// BitSpec is a compiled bit-field comparison.
//
// Mask and Value are positioned: Value holds the literal already shifted onto
// the listed bits, so a test is a single masked compare.
type BitSpec struct {
	// Bits lists the selected bit positions low to high. It is empty when
	// the bit spec had no bit list and the whole element is compared.
	Bits  []int
	Mask  uint32
	Op    Op
	Value uint32
	Text  string
}

// FullWidth reports whether s compares the whole element.
func (s BitSpec) FullWidth() bool {
	return len(s.Bits) == 0
}

// HighestBit returns the highest selected bit, or -1 for a full-width spec.
func (s BitSpec) HighestBit() int {
	if len(s.Bits) == 0 {
		return -1
	}
	return s.Bits[len(s.Bits)-1]
}

// Test reports whether the raw element bits v satisfy s.
func (s BitSpec) Test(v uint32) bool {
	return s.Op.apply(v&s.Mask, s.Value)
}

// CompileBitSpec compiles "bitlist op literal".
//
// The bit list is a comma separated list of positions and inclusive ranges.
// A literal made of 0 and 1 is binary: its digits, read right to left, give
// the values of the listed bits from the lowest up, so "3-5==001" sets bit 3
// and clears bits 4 and 5, and "3-5==10" sets bit 4 only. Listed bits beyond
// the last digit are 0; more digits than listed bits is an error. Any other
// literal is decimal and is shifted onto the lowest listed bit. Without a bit
// list the literal is decimal and compared against the whole element.
func CompileBitSpec(spec string) (BitSpec, error) {
	text := strings.TrimSpace(spec)
	out := BitSpec{Text: text, Mask: ^uint32(0)}

	at, op, token := findOperator(text)
	if at < 0 {
		return BitSpec{}, parseErrorf(text, "no relational operator")
	}
	out.Op = op

	list := strings.TrimSpace(text[:at])
	literal := strings.TrimSpace(text[at+len(token):])
	if literal == "" {
		return BitSpec{}, parseErrorf(text, "missing comparison value")
	}

	if list == "" {
		v, err := strconv.ParseUint(literal, 10, 32)
		if err != nil {
			return BitSpec{}, parseErrorf(text, "bad decimal value %q", literal)
		}
		out.Value = uint32(v)
		return out, nil
	}

	positions, err := parseBitList(text, list)
	if err != nil {
		return BitSpec{}, err
	}
	out.Bits = positions
	out.Mask = 0
	for _, b := range positions {
		out.Mask |= 1 << b
	}

	if isBinary(literal) {
		if len(literal) > len(positions) {
			return BitSpec{}, parseErrorf(text, "binary value %q has more digits than bits %s", literal, list)
		}
		for i := 0; i < len(literal); i++ {
			if literal[len(literal)-1-i] == '1' {
				out.Value |= 1 << positions[i]
			}
		}
		return out, nil
	}

	v, err := strconv.ParseUint(literal, 10, 32)
	if err != nil {
		return BitSpec{}, parseErrorf(text, "bad value %q", literal)
	}
	lo := positions[0]
	if bits.Len32(uint32(v))+lo > 32 || (uint32(v)<<lo)&^out.Mask != 0 {
		return BitSpec{}, parseErrorf(text, "value %d does not fit bits %s", v, list)
	}
	out.Value = uint32(v) << lo
	return out, nil
}

func findOperator(text string) (int, Op, string) {
	at := strings.IndexAny(text, "<>=!")
	if at < 0 {
		return -1, 0, ""
	}
	rest := text[at:]
	for _, o := range operators {
		if strings.HasPrefix(rest, o.token) {
			return at, o.op, o.token
		}
	}
	return -1, 0, ""
}

func parseBitList(text, list string) ([]int, error) {
	var positions []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, parseErrorf(text, "empty bit position")
		}

		lo, hi := part, part
		if i := strings.IndexByte(part, '-'); i > 0 {
			lo, hi = part[:i], part[i+1:]
		}
		a, err := parseBit(lo)
		if err != nil {
			return nil, parseErrorf(text, "%v", err)
		}
		b, err := parseBit(hi)
		if err != nil {
			return nil, parseErrorf(text, "%v", err)
		}
		if a > b {
			a, b = b, a
		}
		for i := a; i <= b; i++ {
			positions = append(positions, i)
		}
	}

	slices.Sort(positions)
	return slices.Compact(positions), nil
}

func parseBit(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &strconv.NumError{Func: "bit", Num: s, Err: strconv.ErrSyntax}
	}
	if v < 0 || v > 31 {
		return 0, &strconv.NumError{Func: "bit", Num: s, Err: strconv.ErrRange}
	}
	return v, nil
}

func isBinary(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}
	return true
}
