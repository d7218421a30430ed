package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/pkg/errors"
)

func testFrame(t *testing.T) *DataFrame {
	t.Helper()
	ids, err := FromInt64s("id", []int64{3, 1, 2, 4}, nil)
	require.NoError(t, err)
	names, err := FromStrings("name", []string{"c", "a", "b", "d"}, []bool{true, true, false, true})
	require.NoError(t, err)
	scores, err := FromFloat64s("score", []float64{0.3, 0.1, 0.2, 0.4}, nil)
	require.NoError(t, err)

	df, err := NewDataFrame(ids, names, scores)
	require.NoError(t, err)
	return df
}

func TestNewDataFrameValidation(t *testing.T) {
	a, err := FromInt64s("x", []int64{1}, nil)
	require.NoError(t, err)
	b, err := FromInt64s("x", []int64{2}, nil)
	require.NoError(t, err)
	_, err = NewDataFrame(a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column name")
	a.Release()
	b.Release()

	c, err := FromInt64s("x", []int64{1, 2}, nil)
	require.NoError(t, err)
	d, err := FromInt64s("y", []int64{3}, nil)
	require.NoError(t, err)
	_, err = NewDataFrame(c, d)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	c.Release()
	d.Release()
}

func TestDataFrameMetadata(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	rows, cols := df.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"id", "name", "score"}, df.Names())
	assert.Equal(t, []string{"int64", "utf8", "float64"}, df.DTypes())
	assert.Equal(t, []int{0, 1, 0}, df.NullCounts())
}

func TestDataFrameSelectAndDrop(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	sel, err := df.Select([]string{"score", "id"})
	require.NoError(t, err)
	defer sel.Release()
	assert.Equal(t, []string{"score", "id"}, sel.Names())

	_, err = df.Select([]string{"missing"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	dropped, err := df.Drop([]string{"name"})
	require.NoError(t, err)
	defer dropped.Release()
	assert.Equal(t, []string{"id", "score"}, dropped.Names())
}

func TestDataFramePutColumnReplaceAndAppend(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	repl, err := FromInt64s("id", []int64{9, 9, 9, 9}, nil)
	require.NoError(t, err)
	require.NoError(t, df.PutColumn(repl))
	assert.Equal(t, 3, df.Width())

	extra, err := FromBools("flag", []bool{true, false, true, false}, nil)
	require.NoError(t, err)
	require.NoError(t, df.PutColumn(extra))
	assert.Equal(t, 4, df.Width())

	short, err := FromInt64s("short", []int64{1}, nil)
	require.NoError(t, err)
	defer short.Release()
	err = df.PutColumn(short)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDataFramePutColumnIsolatedFromClones(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	snap := df.Clone()
	defer snap.Release()

	repl, err := FromInt64s("id", []int64{9, 9, 9, 9}, nil)
	require.NoError(t, err)
	require.NoError(t, df.PutColumn(repl))

	orig, err := snap.Column("id")
	require.NoError(t, err)
	want, err := FromInt64s("id", []int64{3, 1, 2, 4}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, orig.Equal(want))
}

func TestDataFrameSortBy(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	sorted, err := df.SortBy("id", false, false)
	require.NoError(t, err)
	defer sorted.Release()

	ids, err := sorted.Column("id")
	require.NoError(t, err)
	want, err := FromInt64s("id", []int64{1, 2, 3, 4}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, ids.Equal(want))

	desc, err := df.SortBy("id", true, false)
	require.NoError(t, err)
	defer desc.Release()
	ids, err = desc.Column("id")
	require.NoError(t, err)
	wantDesc, err := FromInt64s("id", []int64{4, 3, 2, 1}, nil)
	require.NoError(t, err)
	defer wantDesc.Release()
	assert.True(t, ids.Equal(wantDesc))
}

func TestDataFrameSortByNullPlacement(t *testing.T) {
	vals, err := FromInt64s("v", []int64{2, 0, 1}, []bool{true, false, true})
	require.NoError(t, err)
	df, err := NewDataFrame(vals)
	require.NoError(t, err)
	defer df.Release()

	first, err := df.SortBy("v", false, false)
	require.NoError(t, err)
	defer first.Release()
	col, err := first.Column("v")
	require.NoError(t, err)
	assert.True(t, col.Array().IsNull(0))

	last, err := df.SortBy("v", false, true)
	require.NoError(t, err)
	defer last.Release()
	col, err = last.Column("v")
	require.NoError(t, err)
	assert.True(t, col.Array().IsNull(2))
}

func TestDataFrameMask(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	mask, err := FromBools("m", []bool{true, false, true, false}, nil)
	require.NoError(t, err)
	defer mask.Release()

	kept, err := df.Mask(mask)
	require.NoError(t, err)
	defer kept.Release()
	assert.Equal(t, 2, kept.NRows())
}

func TestDataFrameConcatColumns(t *testing.T) {
	df := testFrame(t)
	defer df.Release()

	extra, err := FromBools("flag", []bool{true, true, false, false}, nil)
	require.NoError(t, err)
	other, err := NewDataFrame(extra)
	require.NoError(t, err)
	defer other.Release()

	merged, err := df.ConcatColumns(other)
	require.NoError(t, err)
	defer merged.Release()
	assert.Equal(t, 4, merged.Width())

	// Self-concat collides on every name.
	_, err = df.ConcatColumns(df)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDataFramePull(t *testing.T) {
	df := testFrame(t)

	col, err := df.Pull("score")
	require.NoError(t, err)
	defer col.Release()

	df.Release()
	// The pulled series outlives the frame.
	assert.Equal(t, 4, col.Len())
}
