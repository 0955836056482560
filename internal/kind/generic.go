package kind

// Integer is the set of Go types backing the maskable kinds.
type Integer interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32
}

// Of returns the kind matching the Go type T.
func Of[T Integer]() Kind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	default:
		return Invalid
	}
}

// Encode packs values into a little-endian row.
func Encode[T Integer](values []T) []byte {
	k := Of[T]()
	buf := make([]byte, len(values)*k.Size())
	for i, v := range values {
		k.Store(buf, i, int64(v))
	}
	return buf
}

// Decode unpacks a little-endian row into values of T.
func Decode[T Integer](buf []byte) []T {
	k := Of[T]()
	out := make([]T, len(buf)/k.Size())
	for i := range out {
		out[i] = T(k.Load(buf, i))
	}
	return out
}
