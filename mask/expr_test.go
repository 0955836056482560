package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-sdsmask/internal/logging"
)

func TestParseExprCarryForward(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpr("f,S,0-2,4==0101,AND,*,*,4-5==10")
	require.NoError(t, err)
	require.Len(t, expr.Clauses, 2)

	c0, c1 := expr.Clauses[0], expr.Clauses[1]
	assert.Equal(t, "f", c0.Source)
	assert.Equal(t, "S", c0.Dataset)
	assert.Equal(t, ChainAnd, c0.Chain)
	assert.Equal(t, uint32(0x17), c0.Bits.Mask)
	assert.Equal(t, uint32(0x05), c0.Bits.Value)

	assert.Equal(t, "f", c1.Source)
	assert.Equal(t, "S", c1.Dataset)
	assert.Equal(t, ChainNone, c1.Chain)
	assert.Equal(t, uint32(0x30), c1.Bits.Mask)
	assert.Equal(t, uint32(0x20), c1.Bits.Value)
	assert.NoError(t, expr.Dropped.ErrorOrNil())
}

func TestParseExprChains(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpr("a.sds,QA,0-1==00,OR,b.sds,state,2==1,AND,*,*,3==0")
	require.NoError(t, err)
	require.Len(t, expr.Clauses, 3)
	assert.Equal(t, ChainOr, expr.Clauses[0].Chain)
	assert.Equal(t, ChainAnd, expr.Clauses[1].Chain)
	assert.Equal(t, ChainNone, expr.Clauses[2].Chain)
	assert.Equal(t, "b.sds", expr.Clauses[2].Source)
	assert.Equal(t, "state", expr.Clauses[2].Dataset)
	assert.Equal(t, []string{"a.sds", "b.sds"}, expr.Sources())
}

func TestParseExprCarryBitSpec(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpr("a,X,0-1==10,OR,b,*,*")
	require.NoError(t, err)
	require.Len(t, expr.Clauses, 2)
	assert.Equal(t, "b", expr.Clauses[1].Source)
	assert.Equal(t, "X", expr.Clauses[1].Dataset)
	assert.Equal(t, expr.Clauses[0].Bits, expr.Clauses[1].Bits)
}

func TestParseExprLayers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref    string
		name   string
		layers []int
	}{
		{"state_1km", "state_1km", nil},
		{"sur_refl.b01", "sur_refl.b01", nil},
		{"QC_500m.2", "QC_500m", []int{2}},
		{"cube.3.4", "cube", []int{3, 4}},
		{"v1.2.3.4", "v1.2", []int{3, 4}},
		{"band.x.7", "band.x", []int{7}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			expr, err := ParseExpr("f," + tt.ref + ",0==1")
			require.NoError(t, err)
			c := expr.Clauses[0]
			assert.Equal(t, tt.name, c.Dataset)
			assert.Equal(t, tt.layers, c.Layers)
		})
	}
}

func TestParseExprDropsMalformedClauses(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpr("a,X,0==1,AND,broken,OR,a,Y,1==1")
	require.NoError(t, err)
	require.Len(t, expr.Clauses, 2)
	assert.Equal(t, ChainOr, expr.Clauses[0].Chain, "operator after the dropped clause is kept")
	assert.Equal(t, "Y", expr.Clauses[1].Dataset)
	require.Equal(t, 1, expr.Dropped.Len())

	var pe *ParseError
	require.ErrorAs(t, expr.Dropped.WrappedErrors()[0], &pe)
	assert.Equal(t, "broken", pe.Text)
}

func TestParseExprDropsBadBitSpec(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpr("a,X,0==1,OR,a,Y,40==1,AND,a,Z,2==0")
	require.NoError(t, err)
	require.Len(t, expr.Clauses, 2)
	assert.Equal(t, ChainAnd, expr.Clauses[0].Chain)
	assert.Equal(t, "Z", expr.Clauses[1].Dataset)
}

func TestParseExprErrors(t *testing.T) {
	t.Parallel()

	var pe *ParseError
	_, err := ParseExpr("")
	assert.ErrorAs(t, err, &pe)

	_, err = ParseExpr("x,y")
	assert.ErrorAs(t, err, &pe)

	_, err = ParseExpr("*,Y,0==1")
	assert.ErrorAs(t, err, &pe)

	_, err = ParseExpr("a,Y.0,0==1")
	assert.ErrorAs(t, err, &pe)

	var ce *ConfigError
	_, err = ParseExpr("a,X,0==1,AND,a,Y,0==1,AND,a,Z,0==1", WithMaxClauses(2))
	assert.ErrorAs(t, err, &ce)
}

type attrTable map[string]map[string]string

func (p attrTable) ReadAttribute(path, name string) (string, bool, error) {
	v, ok := p[path][name]
	return v, ok, nil
}

func TestExprBindAggregation(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpr("agg.sds,state_1km.2,0-1==00,AND,plain.sds,QA,3==1,AND,agg.sds,QC,0==0")
	require.NoError(t, err)

	attrs := attrTable{
		"agg.sds":   {"NUMBER_OF_OVERLAP_GRANULES": "5"},
		"plain.sds": {},
	}
	require.NoError(t, expr.Bind(attrs, "NUMBER_OF_OVERLAP_GRANULES", logging.Discard()))

	assert.True(t, expr.Clauses[0].Aggregated)
	assert.Equal(t, 2, expr.Clauses[0].Observation())
	assert.False(t, expr.Clauses[1].Aggregated)
	assert.True(t, expr.Clauses[2].Aggregated)
	assert.Equal(t, 1, expr.Clauses[2].Observation())
}
