package encode

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/errors"
	"github.com/vireodata/vireo/pkg/temporal"
)

func TestSeriesNullsBecomeNil(t *testing.T) {
	s, err := engine.FromInt64s("n", []int64{1, 0, 3}, []bool{true, false, true})
	require.NoError(t, err)
	defer s.Release()

	out, err := Series(s)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, int64(3)}, out)
}

func TestSeriesScalarTypes(t *testing.T) {
	bools, err := engine.FromBools("b", []bool{true, false}, nil)
	require.NoError(t, err)
	defer bools.Release()
	out, err := Series(bools)
	require.NoError(t, err)
	assert.Equal(t, []any{true, false}, out)

	strs, err := engine.FromStrings("s", []string{"x", ""}, nil)
	require.NoError(t, err)
	defer strs.Release()
	out, err = Series(strs)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", ""}, out)

	floats, err := engine.FromFloat64s("f", []float64{1.5}, nil)
	require.NoError(t, err)
	defer floats.Release()
	out, err = Series(floats)
	require.NoError(t, err)
	assert.Equal(t, []any{1.5}, out)
}

func TestSeriesDates(t *testing.T) {
	s, err := engine.FromDays("d", []int32{0, 11016}, []bool{true, true})
	require.NoError(t, err)
	defer s.Release()

	out, err := Series(s)
	require.NoError(t, err)
	require.Len(t, out, 2)

	epoch := out[0].(temporal.Date)
	assert.Equal(t, 1970, epoch.Year)
	leap := out[1].(temporal.Date)
	assert.Equal(t, 2000, leap.Year)
	assert.Equal(t, 2, leap.Month)
	assert.Equal(t, 29, leap.Day)
}

func TestSeriesDatetimesFloorNegatives(t *testing.T) {
	s, err := engine.FromTimestampMicros("ts", []int64{-1}, nil)
	require.NoError(t, err)
	defer s.Release()

	out, err := Series(s)
	require.NoError(t, err)

	dt := out[0].(temporal.DateTime)
	assert.Equal(t, 1969, dt.Year)
	assert.Equal(t, 12, dt.Month)
	assert.Equal(t, 31, dt.Day)
	assert.Equal(t, 23, dt.Hour)
	assert.Equal(t, 59, dt.Minute)
	assert.Equal(t, 59, dt.Second)
	assert.Equal(t, 999_999, dt.Microsecond.Value)
}

func TestSeriesTimes(t *testing.T) {
	s, err := engine.FromTimeMicros("t", []int64{3_600_000_000}, nil)
	require.NoError(t, err)
	defer s.Release()

	out, err := Series(s)
	require.NoError(t, err)
	tm := out[0].(temporal.Time)
	assert.Equal(t, 1, tm.Hour)
	assert.Equal(t, 0, tm.Minute)
}

func TestSeriesNestedLists(t *testing.T) {
	s, err := engine.FromUint32Lists("l", [][]uint32{{1, 2}, nil, {3}}, []bool{true, false, true})
	require.NoError(t, err)
	defer s.Release()

	out, err := Series(s)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, []any{uint32(1), uint32(2)}, out[0])
	assert.Nil(t, out[1])
	assert.Equal(t, []any{uint32(3)}, out[2])
}

func TestSlicedListsWindowCorrectly(t *testing.T) {
	s, err := engine.FromUint32Lists("l",
		[][]uint32{{1, 2}, {3}, nil, {4, 5, 6}}, []bool{true, true, false, true})
	require.NoError(t, err)
	defer s.Release()

	mid, err := s.Slice(1, 2)
	require.NoError(t, err)
	defer mid.Release()

	out, err := Series(mid)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []any{uint32(3)}, out[0])
	assert.Nil(t, out[1])

	tail, err := s.Tail(1)
	require.NoError(t, err)
	defer tail.Release()

	out, err = Series(tail)
	require.NoError(t, err)
	assert.Equal(t, []any{uint32(4), uint32(5), uint32(6)}, out[0])
}

func TestSeriesEmptyListDistinctFromNull(t *testing.T) {
	s, err := engine.FromUint32Lists("l", [][]uint32{{}}, nil)
	require.NoError(t, err)
	defer s.Release()

	out, err := Series(s)
	require.NoError(t, err)
	assert.Equal(t, []any{}, out[0])
}

func TestFrameEncodesAllColumns(t *testing.T) {
	ids, err := engine.FromInt64s("id", []int64{1, 2}, nil)
	require.NoError(t, err)
	names, err := engine.FromStrings("name", []string{"a", "b"}, nil)
	require.NoError(t, err)
	df, err := engine.NewDataFrame(ids, names)
	require.NoError(t, err)
	defer df.Release()

	out, err := Frame(df)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, out["id"])
	assert.Equal(t, []any{"a", "b"}, out["name"])
}

func TestUnsupportedTypeFailsLoudly(t *testing.T) {
	// Millisecond timestamps have no encoding arm; the failure names the
	// type instead of degrading silently.
	b := array.NewTimestampBuilder(memory.DefaultAllocator, &arrow.TimestampType{Unit: arrow.Millisecond})
	defer b.Release()
	b.Append(1)
	arr := b.NewArray()
	defer arr.Release()

	_, err := Array(arr)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
	assert.Contains(t, err.Error(), "timestamp[ms")
}
