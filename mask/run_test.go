package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-sdsmask/internal/config"
	"github.com/robert-malhotra/go-sdsmask/internal/kind"
	"github.com/robert-malhotra/go-sdsmask/internal/logging"
)

func maskFixture() *memContainer {
	m := newMemContainer()
	m.setFileAttr("in", "ShortName", "MOD09GA")
	m.add2D("in", "QA", kind.Uint16, [][]int64{
		{0x0000, 0x0001, 0x0002, 0x0000},
		{0x0003, 0x0000, 0xFFFF, 0x0000},
	}, withFill(0xFFFF))
	m.add2D("in", "sur_refl", kind.Int16, [][]int64{
		{100, 200, 300, -28672},
		{500, 600, 700, 800},
	}, withFill(-28672), withValidRange(-100, 16000))
	m.add2D("geo", "land", kind.Uint8, [][]int64{{1, 0}})
	return m
}

func TestCreateMask(t *testing.T) {
	t.Parallel()

	m := maskFixture()
	expr := "in,QA,0-1==00,AND,geo,land,0==1"
	err := CreateMask(m, CreateMaskRequest{Output: "out", Expression: expr}, config.Default(), logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, []int64{255, 0, 0, 0}, m.values("out", "Mask", 0))
	assert.Equal(t, []int64{0, 255, 254, 0}, m.values("out", "Mask", 1))
	assert.Equal(t, []string{"Mask/0", "Mask/1"}, m.writes)

	ds := m.dataset("out", "Mask")
	assert.Equal(t, kind.Uint8, ds.desc.Kind)
	assert.Equal(t, int64(254), ds.desc.Fill)
	assert.Equal(t, map[string]string{
		AttrMaskOnValue:  "255",
		AttrMaskOffValue: "0",
		AttrMaskExpr:     expr,
	}, ds.attrs)

	assert.Equal(t, 1, m.opens["in:QA"])
	assert.Equal(t, 1, m.closes["in:QA"])
	assert.Equal(t, 1, m.closes["geo:land"])
	assert.Equal(t, 1, m.closes["out:Mask"])
}

func TestCreateMaskOptions(t *testing.T) {
	t.Parallel()

	m := maskFixture()
	on, off := 5, 5
	req := CreateMaskRequest{Output: "out", Expression: "in,QA,0==1", Dataset: "cloud", On: &on, Off: &off}
	require.NoError(t, CreateMask(m, req, config.Default(), logging.Discard()))

	assert.Equal(t, []int64{0, 255, 0, 0}, m.values("out", "cloud", 0))
	assert.Equal(t, "255", m.dataset("out", "cloud").attrs[AttrMaskOnValue])
}

func TestCreateMaskErrors(t *testing.T) {
	t.Parallel()

	var ce *ConfigError
	err := CreateMask(maskFixture(), CreateMaskRequest{Output: "out"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &ce)

	m := maskFixture()
	err = CreateMask(m, CreateMaskRequest{Output: "in", Expression: "in,QA,0==1"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, m.opens, "the output is checked before any source is opened")
	assert.Empty(t, m.attrReads)

	// Datasets bound before a later failure are released.
	m = maskFixture()
	err = CreateMask(m, CreateMaskRequest{Output: "out", Expression: "in,QA,0==1,AND,geo,land,0==1,AND,in,missing,0==1"}, config.Default(), logging.Discard())
	require.Error(t, err)
	assert.Equal(t, 1, m.opens["in:QA"])
	assert.Equal(t, 1, m.closes["in:QA"], "datasets are released on failure")
	assert.Equal(t, 1, m.closes["geo:land"])

	var pe *ParseError
	err = CreateMask(maskFixture(), CreateMaskRequest{Output: "out", Expression: "in,QA"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &pe)

	var ioe *IOError
	err = CreateMask(maskFixture(), CreateMaskRequest{Output: "out", Expression: "in,missing,0==1"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &ioe)
}

func TestMaskSDS(t *testing.T) {
	t.Parallel()

	m := maskFixture()
	expr := "in,QA,0-1==00"
	req := MaskSDSRequest{
		Input:      "in",
		Output:     "out",
		Datasets:   []string{"sur_refl", "QA"},
		Expression: expr,
		CopyMeta:   true,
	}
	require.NoError(t, MaskSDS(m, req, config.Default(), logging.Discard()))

	// sur_refl: fill derived from valid_range is 16001.
	assert.Equal(t, []int64{100, 16001, 16001, -28672}, m.values("out", "sur_refl", 0))
	assert.Equal(t, []int64{16001, 600, 16001, 800}, m.values("out", "sur_refl", 1))

	sr := m.dataset("out", "sur_refl")
	assert.Equal(t, int64(16001), sr.desc.Fill)
	assert.True(t, sr.desc.HasValidRange)
	assert.Equal(t, map[string]string{
		AttrOrigFillValue: "-28672",
		AttrMaskFillValue: "16001",
		AttrMaskExpr:      expr,
	}, sr.attrs)

	// QA has no valid range: 0xFFFE is the first value below the kind maximum.
	assert.Equal(t, []int64{0, 0xFFFE, 0xFFFE, 0}, m.values("out", "QA", 0))
	assert.Equal(t, []int64{0xFFFE, 0, 0xFFFF, 0}, m.values("out", "QA", 1))

	assert.Equal(t, "MOD09GA", m.files["out"].attrs["ShortName"])
	assert.Equal(t, 1, m.opens["in:QA"], "target and clause share one open")
	assert.Equal(t, 1, m.closes["in:QA"])
	assert.Equal(t, []string{"sur_refl/0", "sur_refl/1", "QA/0", "QA/1"}, m.writes)
}

func TestMaskSDSUserFill(t *testing.T) {
	t.Parallel()

	m := maskFixture()
	fill := int64(-200)
	req := MaskSDSRequest{Input: "in", Output: "out", Datasets: []string{"sur_refl"}, Expression: "in,QA,0==0", Fill: &fill}
	require.NoError(t, MaskSDS(m, req, config.Default(), logging.Discard()))
	assert.Equal(t, []int64{100, -200, 300, -28672}, m.values("out", "sur_refl", 0))
	assert.Empty(t, m.files["out"].attrs)
}

func TestMaskSDSErrors(t *testing.T) {
	t.Parallel()

	var ce *ConfigError
	err := MaskSDS(maskFixture(), MaskSDSRequest{Input: "in", Output: "out", Expression: "in,QA,0==0"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &ce)

	m := maskFixture()
	err = MaskSDS(m, MaskSDSRequest{Input: "in", Output: "in", Datasets: []string{"QA"}, Expression: "in,QA,0==0"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, m.opens)

	// The output collides with the input file only, not with a clause source.
	m = maskFixture()
	err = MaskSDS(m, MaskSDSRequest{Input: "geo", Output: "./geo", Datasets: []string{"land"}, Expression: "in,QA,0==0"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, m.opens)
	assert.Empty(t, m.attrReads)

	// The clause grid (2x4) is finer than the target (1x2).
	var re *ResolutionError
	m = maskFixture()
	err = MaskSDS(m, MaskSDSRequest{Input: "geo", Output: "out", Datasets: []string{"land"}, Expression: "in,QA,0==0"}, config.Default(), logging.Discard())
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, m.closes["geo:land"])
}
