package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	a, err := Resolve(Grid{Rows: 4800, Cols: 4800}, Grid{Rows: 1200, Cols: 1200})
	require.NoError(t, err)
	assert.Equal(t, Alignment{RowRatio: 4, ColRatio: 4}, a)

	for _, c := range []int{0, 3, 4, 4799} {
		_, col := a.Index(0, c)
		assert.Equal(t, c/4, col)
	}

	a, err = Resolve(Grid{Rows: 2400, Cols: 2400}, Grid{Rows: 2400, Cols: 2400})
	require.NoError(t, err)
	assert.Equal(t, Alignment{RowRatio: 1, ColRatio: 1}, a)
}

func TestResolveFinerClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target Grid
		clause Grid
	}{
		{"both finer", Grid{1200, 1200}, Grid{2400, 2400}},
		{"columns finer", Grid{2400, 1200}, Grid{2400, 2400}},
		{"empty clause", Grid{1200, 1200}, Grid{0, 0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Resolve(tt.target, tt.clause)
			var re *ResolutionError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.clause, re.Clause)
		})
	}
}

func TestResolveNonIntegral(t *testing.T) {
	t.Parallel()

	target, clause := Grid{Rows: 2030, Cols: 1354}, Grid{Rows: 406, Cols: 270}
	a, err := Resolve(target, clause)
	require.NoError(t, err)
	assert.Equal(t, Alignment{RowRatio: 5, ColRatio: 5}, a)
	assert.False(t, Exact(target, clause))
	assert.True(t, Exact(Grid{4800, 4800}, Grid{1200, 1200}))
}

func TestGridOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Grid{Rows: 2030, Cols: 1354}, GridOf(&Descriptor{Rank: 2, Dims: []int{2030, 1354}}))
	assert.Equal(t, Grid{Rows: 2030, Cols: 1354}, GridOf(&Descriptor{Rank: 2, Dims: []int{1354, 2030}}))
	assert.Equal(t, Grid{Rows: 40, Cols: 20}, GridOf(&Descriptor{Rank: 3, Dims: []int{7, 40, 20}}))
}
