package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileBitSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec  string
		bits  []int
		mask  uint32
		op    Op
		value uint32
	}{
		{"3-5==001", []int{3, 4, 5}, 0x38, OpEQ, 0x08},
		{"0-2,4==0101", []int{0, 1, 2, 4}, 0x17, OpEQ, 0x05},
		{"4-5==10", []int{4, 5}, 0x30, OpEQ, 0x20},
		{"5-3==100", []int{3, 4, 5}, 0x38, OpEQ, 0x20},
		{"0-3==10", []int{0, 1, 2, 3}, 0x0F, OpEQ, 0x02},
		{"3-5==10", []int{3, 4, 5}, 0x38, OpEQ, 0x10},
		{"3-5==1", []int{3, 4, 5}, 0x38, OpEQ, 0x08},
		{"3-5==11", []int{3, 4, 5}, 0x38, OpEQ, 0x18},
		{"0-7==0", []int{0, 1, 2, 3, 4, 5, 6, 7}, 0xFF, OpEQ, 0},
		{"0,4,8==11", []int{0, 4, 8}, 0x111, OpEQ, 0x11},
		{"0==1", []int{0}, 0x01, OpEQ, 0x01},
		{"0=1", []int{0}, 0x01, OpEQ, 0x01},
		{"3-5==5", []int{3, 4, 5}, 0x38, OpEQ, 5 << 3},
		{"0-7<=12", []int{0, 1, 2, 3, 4, 5, 6, 7}, 0xFF, OpLE, 12},
		{"8-15>=3", []int{8, 9, 10, 11, 12, 13, 14, 15}, 0xFF00, OpGE, 3 << 8},
		{"2,2,3!=01", []int{2, 3}, 0x0C, OpNE, 0x04},
		{"0-1<2", []int{0, 1}, 0x03, OpLT, 2},
		{"0-1>10", []int{0, 1}, 0x03, OpGT, 0x02},
		{"31==1", []int{31}, 1 << 31, OpEQ, 1 << 31},
		{"==250", nil, ^uint32(0), OpEQ, 250},
		{" > 7 ", nil, ^uint32(0), OpGT, 7},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			bs, err := CompileBitSpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.bits, bs.Bits)
			assert.Equal(t, tt.mask, bs.Mask, "mask")
			assert.Equal(t, tt.op, bs.Op)
			assert.Equal(t, tt.value, bs.Value, "value")
		})
	}
}

func TestCompileBitSpecErrors(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{
		"3-5",
		"3-5==",
		"3-5!1",
		"32==1",
		"-1==1",
		"a-b==1",
		"0,,1==01",
		"0==2",
		"3-5==9",
		"0==10",
		"0-1==101",
		"3-5==0001",
		"==x",
		"==4294967296",
	} {
		spec := spec
		t.Run(spec, func(t *testing.T) {
			t.Parallel()

			_, err := CompileBitSpec(spec)
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

// The literal is read right to left against the listed bits, so the last
// literal digit belongs to the lowest bit.
func TestBitSpecReversal(t *testing.T) {
	t.Parallel()

	bs, err := CompileBitSpec("3-5==001")
	require.NoError(t, err)

	// 40 = 0b00101000: bits 3,4,5 are 1,0,1.
	assert.False(t, bs.Test(40))
	// 8 = bit 3 only, matching the reversed literal "100".
	assert.True(t, bs.Test(8))
	// 32 = bit 5 only, which a non-reversed reading would accept.
	assert.False(t, bs.Test(32))
	// Bits outside the field are ignored.
	assert.True(t, bs.Test(8|0x7|0xC0))
}

// A binary literal shorter than the bit list still pairs its last digit with
// the lowest listed bit; it is never read as decimal.
func TestBitSpecShortBinaryLiteral(t *testing.T) {
	t.Parallel()

	bs, err := CompileBitSpec("0-3==10")
	require.NoError(t, err)

	assert.True(t, bs.Test(2))
	assert.True(t, bs.Test(2|0xF0))
	assert.False(t, bs.Test(10))
	assert.False(t, bs.Test(3))
}

func TestBitSpecEqualityProperty(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"3-5==001", "0-2,4==0101", "4-5==10", "0-3==10", "3-5==1", "0-15==40000", "7==1", "==17"} {
		bs, err := CompileBitSpec(spec)
		require.NoError(t, err, spec)

		for v := uint32(0); v < 1<<16; v += 7 {
			assert.Equal(t, v&bs.Mask == bs.Value, bs.Test(v), "%s value %d", spec, v)
		}
	}
}

func TestOpString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<=", OpLE.String())
	assert.Equal(t, "!=", OpNE.String())
	assert.Equal(t, "op(9)", Op(9).String())
}
