package mask

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// Default bytes of a synthesized mask.
const (
	DefaultOn       = 255
	DefaultOff      = 0
	DefaultFillByte = 254
)

// MaskValues are the bytes written for each state of a synthesized mask.
type MaskValues struct {
	On   uint8
	Off  uint8
	Fill uint8
}

// NewMaskValues validates the requested bytes. On and Off must be distinct
// bytes, otherwise both fall back to their defaults. Fill moves to the
// nearest free byte when it collides with either. Each correction is logged
// as a warning.
func NewMaskValues(on, off, fill int, logger *logrus.Entry) MaskValues {
	switch {
	case !isByte(on) || !isByte(off):
		warnRange(logger, &RangeError{What: "mask on/off value", Value: int64(outOfByte(on, off)), Limit: "is outside 0..255"})
		on, off = DefaultOn, DefaultOff
	case on == off:
		warnRange(logger, &RangeError{What: "mask on and off value", Value: int64(on), Limit: "must differ"})
		on, off = DefaultOn, DefaultOff
	}

	if !isByte(fill) {
		warnRange(logger, &RangeError{What: "mask fill value", Value: int64(fill), Limit: "is outside 0..255"})
		fill = DefaultFillByte
	}
	if fill == on || fill == off {
		moved := nearestFree(fill, on, off)
		logger.Warnf("mask fill value %d collides with the on/off values, using %d", fill, moved)
		fill = moved
	}

	return MaskValues{On: uint8(on), Off: uint8(off), Fill: uint8(fill)}
}

func isByte(v int) bool {
	return v >= 0 && v <= 255
}

func outOfByte(on, off int) int {
	if !isByte(on) {
		return on
	}
	return off
}

func nearestFree(v, on, off int) int {
	for d := 1; d <= 255; d++ {
		for _, c := range []int{v - d, v + d} {
			if isByte(c) && c != on && c != off {
				return c
			}
		}
	}
	return v
}

func warnRange(logger *logrus.Entry, re *RangeError) {
	logger.WithError(errors.WithStackTrace(re)).Warn("using default value")
}

// SynthesizeRow maps states to mask bytes.
func SynthesizeRow(states []State, mv MaskValues) []byte {
	out := make([]byte, len(states))
	for i, s := range states {
		switch s {
		case On:
			out[i] = mv.On
		case Off:
			out[i] = mv.Off
		default:
			out[i] = mv.Fill
		}
	}
	return out
}

// FilterRow applies states to a stored row of target d. ON pixels keep their
// value, OFF pixels become maskFill, and FILL pixels become maskFill unless
// they already hold the target's own fill value. Every layer of the row is
// masked with the same states.
func FilterRow(states []State, raw []byte, d *Descriptor, maskFill int64) []byte {
	out := make([]byte, len(raw))
	k := d.Kind
	cols := len(states)
	n := len(raw) / k.Size()
	for i := 0; i < n; i++ {
		switch states[i%cols] {
		case On:
			k.Copy(out, i, raw, i)
		case Off:
			k.Store(out, i, maskFill)
		default:
			if d.HasFill && k.Equal(raw, i, d.Fill) {
				k.Copy(out, i, raw, i)
			} else {
				k.Store(out, i, maskFill)
			}
		}
	}
	return out
}

// DeriveMaskFill picks the value written to masked pixels of d.
//
// A user value is kept when the element kind can hold it and it lies outside
// the valid range. Otherwise the first of validMax+1, validMax-1 and
// validMin-1 that fits the kind and differs from the fill value is used. The
// kind's full range stands in for a missing valid range. With no candidate
// left the dataset's own fill value is used.
func DeriveMaskFill(d *Descriptor, user *int64, logger *logrus.Entry) int64 {
	lo, hi := d.Kind.Range()
	if d.HasValidRange {
		lo, hi = d.ValidMin, d.ValidMax
	}

	if user != nil {
		v := *user
		switch {
		case !d.Kind.Fits(v):
			warnRange(logger, &RangeError{What: "fill value", Value: v, Limit: "does not fit " + d.Kind.String() + " dataset " + d.Name})
		case d.HasValidRange && v >= lo && v <= hi:
			warnRange(logger, &RangeError{What: "fill value", Value: v, Limit: "is inside the valid range of " + d.Name})
		default:
			return v
		}
	}

	for _, v := range fillCandidates(lo, hi) {
		if d.Kind.Fits(v) && !(d.HasFill && v == d.Fill) {
			return v
		}
	}

	logger.Warnf("%s: no headroom for a mask fill value, using its fill value %d", d.Name, d.Fill)
	return d.Fill
}

func fillCandidates(lo, hi int64) []int64 {
	var out []int64
	if hi < math.MaxInt64 {
		out = append(out, hi+1)
	}
	if hi > math.MinInt64 {
		out = append(out, hi-1)
	}
	if lo > math.MinInt64 {
		out = append(out, lo-1)
	}
	return out
}
