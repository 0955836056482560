// Package kind describes the element types a container dataset can hold and
// provides one accessor set that is parametrized by kind instead of being
// duplicated per storage type.
//
// # Type Mapping
//
//	Kind     | Size | Go type  | Maskable
//	---------|------|----------|---------
//	Int8     | 1    | int8     | yes
//	Uint8    | 1    | uint8    | yes
//	Int16    | 2    | int16    | yes
//	Uint16   | 2    | uint16   | yes
//	Int32    | 4    | int32    | yes
//	Uint32   | 4    | uint32   | yes
//	Int64    | 8    | int64    | no
//	Uint64   | 8    | uint64   | no
//	Float32  | 4    | float32  | no
//	Float64  | 8    | float64  | no
//
// Rows are little-endian byte slices. [Kind.Load] widens an element to int64
// preserving its sign, [Kind.Bits] returns the raw storage bits zero-extended
// to 32 bits (the form bit masks are applied to), and [Kind.Store] narrows an
// int64 back into the buffer.
//
// Non-maskable kinds are recognized so that containers holding them can be
// listed, but the mask core rejects them.
package kind
