package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/pkg/errors"
)

func TestSeriesBasics(t *testing.T) {
	s, err := FromInt64s("n", []int64{1, 2, 3, 4}, []bool{true, false, true, true})
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, "n", s.Name())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 1, s.NullCount())
	assert.Equal(t, "int64", s.DataType().String())
}

func TestSeriesRenameSharesValues(t *testing.T) {
	s, err := FromStrings("a", []string{"x", "y"}, nil)
	require.NoError(t, err)
	defer s.Release()

	r := s.Rename("b")
	defer r.Release()

	assert.Equal(t, "b", r.Name())
	assert.Equal(t, "a", s.Name())
	assert.True(t, s.Equal(r))
}

func TestSeriesSlice(t *testing.T) {
	s, err := FromInt64s("n", []int64{10, 20, 30, 40, 50}, nil)
	require.NoError(t, err)
	defer s.Release()

	mid, err := s.Slice(1, 3)
	require.NoError(t, err)
	defer mid.Release()
	assert.Equal(t, 3, mid.Len())

	want, err := FromInt64s("n", []int64{20, 30, 40}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, mid.Equal(want))

	_, err = s.Slice(3, 5)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSeriesHeadTailClampToLength(t *testing.T) {
	s, err := FromInt64s("n", []int64{1, 2, 3}, nil)
	require.NoError(t, err)
	defer s.Release()

	head, err := s.Head(10)
	require.NoError(t, err)
	defer head.Release()
	assert.Equal(t, 3, head.Len())

	tail, err := s.Tail(2)
	require.NoError(t, err)
	defer tail.Release()

	want, err := FromInt64s("n", []int64{2, 3}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, tail.Equal(want))
}

func TestSeriesTakePreservesNullsAndOrder(t *testing.T) {
	s, err := FromStrings("s", []string{"a", "b", "c"}, []bool{true, false, true})
	require.NoError(t, err)
	defer s.Release()

	out, err := s.Take([]int{2, 1, 2, 0})
	require.NoError(t, err)
	defer out.Release()

	want, err := FromStrings("s", []string{"c", "b", "c", "a"}, []bool{true, false, true, true})
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, out.Equal(want))
}

func TestSeriesTakeOutOfBounds(t *testing.T) {
	s, err := FromBools("b", []bool{true}, nil)
	require.NoError(t, err)
	defer s.Release()

	_, err = s.Take([]int{0, 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSeriesTakeUnsupportedType(t *testing.T) {
	s, err := FromUint32Lists("l", [][]uint32{{1}}, nil)
	require.NoError(t, err)
	defer s.Release()

	_, err = s.Take([]int{0})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
	assert.Contains(t, err.Error(), "list")
}

func TestSeriesFilterDropsNullMaskEntries(t *testing.T) {
	s, err := FromInt64s("n", []int64{1, 2, 3}, nil)
	require.NoError(t, err)
	defer s.Release()

	mask, err := FromBools("m", []bool{true, true, false}, []bool{true, false, true})
	require.NoError(t, err)
	defer mask.Release()

	out, err := s.Filter(mask)
	require.NoError(t, err)
	defer out.Release()

	want, err := FromInt64s("n", []int64{1}, nil)
	require.NoError(t, err)
	defer want.Release()
	assert.True(t, out.Equal(want))
}

func TestSeriesFilterRejectsNonBoolMask(t *testing.T) {
	s, err := FromInt64s("n", []int64{1}, nil)
	require.NoError(t, err)
	defer s.Release()

	mask, err := FromInt64s("m", []int64{1}, nil)
	require.NoError(t, err)
	defer mask.Release()

	_, err = s.Filter(mask)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSeriesConcat(t *testing.T) {
	a, err := FromFloat64s("f", []float64{1.5}, nil)
	require.NoError(t, err)
	defer a.Release()
	b, err := FromFloat64s("f", []float64{2.5, 3.5}, nil)
	require.NoError(t, err)
	defer b.Release()

	out, err := a.Concat(b)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, 3, out.Len())

	c, err := FromStrings("s", []string{"x"}, nil)
	require.NoError(t, err)
	defer c.Release()
	_, err = a.Concat(c)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestFromTimeMicrosRejectsOutOfRange(t *testing.T) {
	_, err := FromTimeMicros("t", []int64{86_400_000_000}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = FromTimeMicros("t", []int64{-1}, nil)
	require.Error(t, err)
}

func TestFromUint32ListsNullVsEmpty(t *testing.T) {
	s, err := FromUint32Lists("l", [][]uint32{{1, 2}, nil, {}}, []bool{true, false, true})
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.NullCount())
}

func TestValidityMaskLengthMismatch(t *testing.T) {
	_, err := FromInt64s("n", []int64{1, 2}, []bool{true})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
