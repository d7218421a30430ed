package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lazySource(t *testing.T) *DataFrame {
	t.Helper()
	ids, err := FromInt64s("id", []int64{5, 3, 1, 4, 2}, nil)
	require.NoError(t, err)
	vals, err := FromFloat64s("val", []float64{0.5, 0.3, 0.1, 0.4, 0.2}, nil)
	require.NoError(t, err)
	df, err := NewDataFrame(ids, vals)
	require.NoError(t, err)
	return df
}

func TestLazyCollectReplaysPlan(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).
		Filter(Col("id").Gt(LitInt(1))).
		SortBy("id", false, false).
		Select([]string{"id"})
	defer lf.Release()

	out, err := lf.Collect()
	require.NoError(t, err)
	defer out.Release()

	ids, err := out.Column("id")
	require.NoError(t, err)
	want, err := FromInt64s("id", []int64{2, 3, 4, 5}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, ids.Equal(want))
	assert.Equal(t, []string{"id"}, out.Names())
}

func TestLazyDoesNotTouchSource(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).Head(1)
	defer lf.Release()

	out, err := lf.Collect()
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 1, out.NRows())
	assert.Equal(t, 5, src.NRows())
}

func TestLazyWithColumnsAndRename(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).
		WithColumns([]*Expr{Col("val").Mul(LitFloat(10)).Alias("scaled")}).
		Rename(map[string]string{"id": "key"})
	defer lf.Release()

	names, err := lf.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "val", "scaled"}, names)

	out, err := lf.Collect()
	require.NoError(t, err)
	defer out.Release()

	scaled, err := out.Column("scaled")
	require.NoError(t, err)
	want, err := FromFloat64s("scaled", []float64{5, 3, 1, 4, 2}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, scaled.Equal(want))
}

func TestLazyFetchCapsRowsBeforePlan(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).Filter(Col("id").Gt(LitInt(0)))
	defer lf.Release()

	out, err := lf.Fetch(2)
	require.NoError(t, err)
	defer out.Release()

	// The cap applies to the source, so only the leading rows are seen.
	ids, err := out.Column("id")
	require.NoError(t, err)
	want, err := FromInt64s("id", []int64{5, 3}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, ids.Equal(want))
}

func TestLazySchemaWithoutRows(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).WithColumns([]*Expr{Col("id").Gt(LitInt(3)).Alias("big")})
	defer lf.Release()

	dtypes, err := lf.DTypes()
	require.NoError(t, err)
	assert.Equal(t, []string{"int64", "float64", "bool"}, dtypes)
}

func TestLazyDescribePlan(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).Filter(Col("id").Gt(LitInt(1))).Head(10).Head(3)
	defer lf.Release()

	plan := lf.DescribePlan(false)
	assert.Contains(t, plan, "source [5 rows x 2 cols]")
	assert.Contains(t, plan, "filter gt(col(id), lit)")
	assert.Contains(t, plan, "head 10")
	assert.Contains(t, plan, "head 3")

	optimized := lf.DescribePlan(true)
	assert.Contains(t, optimized, "head 3")
	assert.NotContains(t, optimized, "head 10")
}

func TestLazyErrorSurfacesAtCollect(t *testing.T) {
	src := lazySource(t)
	defer src.Release()

	lf := Lazy(src).Select([]string{"missing"})
	defer lf.Release()

	_, err := lf.Collect()
	require.Error(t, err)
}
