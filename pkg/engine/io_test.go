package engine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ioFrame(t *testing.T) *DataFrame {
	t.Helper()
	ids, err := FromInt64s("id", []int64{1, 2, 3}, nil)
	require.NoError(t, err)
	names, err := FromStrings("name", []string{"ada", "bob", "eve"}, nil)
	require.NoError(t, err)
	scores, err := FromFloat64s("score", []float64{0.9, 0.5, 0.7}, nil)
	require.NoError(t, err)
	df, err := NewDataFrame(ids, names, scores)
	require.NoError(t, err)
	return df
}

func requireFramesEqual(t *testing.T, want, got *DataFrame) {
	t.Helper()
	require.Equal(t, want.Names(), got.Names())
	require.Equal(t, want.NRows(), got.NRows())
	for _, name := range want.Names() {
		wc, err := want.Column(name)
		require.NoError(t, err)
		gc, err := got.Column(name)
		require.NoError(t, err)
		assert.True(t, wc.Equal(gc), "column %s differs", name)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	df := ioFrame(t)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(df, &buf, true))
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,score"))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, df.Names(), back.Names())
	assert.Equal(t, df.NRows(), back.NRows())
}

func TestReadCSVEmptyDocument(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	df := ioFrame(t)
	defer df.Release()

	for _, comp := range []ParquetCompression{
		ParquetUncompressed(),
		ParquetSnappy(),
		ParquetZstd(nil),
	} {
		var buf bytes.Buffer
		require.NoError(t, WriteParquet(df, &buf, comp), "compression %s", comp)

		back, err := ReadParquet(context.Background(), &buf)
		require.NoError(t, err, "compression %s", comp)
		requireFramesEqual(t, df, back)
		back.Release()
	}
}

func TestParquetWithLevel(t *testing.T) {
	df := ioFrame(t)
	defer df.Release()

	level, err := NewZstdLevel(9)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(df, &buf, ParquetZstd(&level)))

	back, err := ReadParquet(context.Background(), &buf)
	require.NoError(t, err)
	defer back.Release()
	requireFramesEqual(t, df, back)
}

func TestIPCFileRoundTripPreservesNullsAndTemporals(t *testing.T) {
	days, err := FromDays("d", []int32{0, 11016, -1}, []bool{true, true, false})
	require.NoError(t, err)
	ts, err := FromTimestampMicros("ts", []int64{0, -1, 1_000_000}, nil)
	require.NoError(t, err)
	df, err := NewDataFrame(days, ts)
	require.NoError(t, err)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteIPCFile(df, &buf))

	back, err := ReadIPCFile(&buf)
	require.NoError(t, err)
	defer back.Release()
	requireFramesEqual(t, df, back)
}

func TestIPCStreamRoundTrip(t *testing.T) {
	df := ioFrame(t)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteIPCStream(df, &buf))

	back, err := ReadIPCStream(&buf)
	require.NoError(t, err)
	defer back.Release()
	requireFramesEqual(t, df, back)
}

func TestNDJSONRoundTrip(t *testing.T) {
	ids, err := FromInt64s("id", []int64{1, 2, 3}, []bool{true, false, true})
	require.NoError(t, err)
	names, err := FromStrings("name", []string{"ada", "bob", "eve"}, nil)
	require.NoError(t, err)
	flags, err := FromBools("ok", []bool{true, false, true}, nil)
	require.NoError(t, err)
	df, err := NewDataFrame(ids, names, flags)
	require.NoError(t, err)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(df, &buf))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	back, err := ReadNDJSON(&buf)
	require.NoError(t, err)
	defer back.Release()

	require.ElementsMatch(t, df.Names(), back.Names())
	ids2, err := back.Column("id")
	require.NoError(t, err)
	assert.Equal(t, "int64", ids2.DataType().String())
	assert.Equal(t, 1, ids2.NullCount())
}

func TestNDJSONFloatInference(t *testing.T) {
	in := strings.NewReader(`{"x": 1}` + "\n" + `{"x": 2.5}` + "\n")
	df, err := ReadNDJSON(in)
	require.NoError(t, err)
	defer df.Release()

	col, err := df.Column("x")
	require.NoError(t, err)
	assert.Equal(t, "float64", col.DataType().String())
}

func TestNDJSONMixedTypesRejected(t *testing.T) {
	in := strings.NewReader(`{"x": 1}` + "\n" + `{"x": "two"}` + "\n")
	_, err := ReadNDJSON(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes")
}

func TestNDJSONTemporalRendering(t *testing.T) {
	days, err := FromDays("d", []int32{11016}, nil)
	require.NoError(t, err)
	df, err := NewDataFrame(days)
	require.NoError(t, err)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(df, &buf))
	assert.Contains(t, buf.String(), "2000-02-29")
}
