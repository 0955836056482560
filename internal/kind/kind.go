package kind

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Kind identifies the storage type of a dataset element.
type Kind uint8

// Element kinds. The numeric values are persisted in container catalogs.
const (
	Invalid Kind = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var names = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Parse returns the kind with the given name.
func Parse(name string) (Kind, error) {
	for k, n := range names {
		if k != int(Invalid) && strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return Invalid, fmt.Errorf("unknown element kind %q", name)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k > Invalid && k <= Float64
}

// Size returns the element size in bytes.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// Width returns the element size in bits.
func (k Kind) Width() int {
	return k.Size() * 8
}

// Signed reports whether k is a signed integer kind.
func (k Kind) Signed() bool {
	return k == Int8 || k == Int16 || k == Int32 || k == Int64
}

// Float reports whether k is a floating-point kind.
func (k Kind) Float() bool {
	return k == Float32 || k == Float64
}

// Maskable reports whether bit-field predicates can be evaluated over k.
func (k Kind) Maskable() bool {
	return k >= Int8 && k <= Uint32
}

// Range returns the representable range of an integer kind. 64-bit kinds
// are clamped to the int64 range.
func (k Kind) Range() (lo, hi int64) {
	switch k {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint32:
		return 0, math.MaxUint32
	case Int64:
		return math.MinInt64, math.MaxInt64
	case Uint64:
		return 0, math.MaxInt64
	default:
		return 0, 0
	}
}

// Fits reports whether v is representable in k.
func (k Kind) Fits(v int64) bool {
	lo, hi := k.Range()
	return v >= lo && v <= hi
}

// Load returns element i of buf widened to int64. Float kinds are truncated.
func (k Kind) Load(buf []byte, i int) int64 {
	off := i * k.Size()
	switch k {
	case Int8:
		return int64(int8(buf[off]))
	case Uint8:
		return int64(buf[off])
	case Int16:
		return int64(int16(binary.LittleEndian.Uint16(buf[off:])))
	case Uint16:
		return int64(binary.LittleEndian.Uint16(buf[off:]))
	case Int32:
		return int64(int32(binary.LittleEndian.Uint32(buf[off:])))
	case Uint32:
		return int64(binary.LittleEndian.Uint32(buf[off:]))
	case Int64, Uint64:
		return int64(binary.LittleEndian.Uint64(buf[off:]))
	case Float32:
		return int64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
	case Float64:
		return int64(math.Float64frombits(binary.LittleEndian.Uint64(buf[off:])))
	default:
		return 0
	}
}

// LoadFloat returns element i of buf as float64.
func (k Kind) LoadFloat(buf []byte, i int) float64 {
	off := i * k.Size()
	switch k {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	case Uint64:
		return float64(binary.LittleEndian.Uint64(buf[off:]))
	default:
		return float64(k.Load(buf, i))
	}
}

// Bits returns the raw storage bits of element i zero-extended to 32 bits.
func (k Kind) Bits(buf []byte, i int) uint32 {
	return k.BitsOf(k.Load(buf, i))
}

// BitsOf returns the storage bits v would have in k, zero-extended to 32 bits.
func (k Kind) BitsOf(v int64) uint32 {
	switch k.Size() {
	case 1:
		return uint32(uint8(v))
	case 2:
		return uint32(uint16(v))
	default:
		return uint32(v)
	}
}

// Store narrows v into element i of buf.
func (k Kind) Store(buf []byte, i int, v int64) {
	off := i * k.Size()
	switch k {
	case Int8, Uint8:
		buf[off] = byte(v)
	case Int16, Uint16:
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
	case Int32, Uint32:
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	case Int64, Uint64:
		binary.LittleEndian.PutUint64(buf[off:], uint64(v))
	case Float32:
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(float64(v)))
	}
}

// Copy copies element si of src into element di of dst without conversion.
func (k Kind) Copy(dst []byte, di int, src []byte, si int) {
	n := k.Size()
	copy(dst[di*n:di*n+n], src[si*n:si*n+n])
}

// Equal reports whether element i of buf holds v as stored in k.
func (k Kind) Equal(buf []byte, i int, v int64) bool {
	return k.Bits(buf, i) == k.BitsOf(v)
}

// Fill sets every element of buf to v.
func (k Kind) Fill(buf []byte, v int64) {
	n := len(buf) / k.Size()
	for i := 0; i < n; i++ {
		k.Store(buf, i, v)
	}
}
