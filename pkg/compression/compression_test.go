package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/pkg/errors"
)

func intp(v int) *int { return &v }

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]Algorithm{
		"brotli":       Brotli,
		"Gzip":         Gzip,
		"lz4raw":       Lz4Raw,
		"lz4_raw":      Lz4Raw,
		"snappy":       Snappy,
		"uncompressed": Uncompressed,
		"zstd":         Zstd,
	} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseAlgorithm("deflate")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestToParquetAcceptsValidChoices(t *testing.T) {
	cases := []Choice{
		{Algorithm: Uncompressed},
		{Algorithm: Snappy},
		{Algorithm: Lz4Raw},
		{Algorithm: Brotli},
		{Algorithm: Brotli, Level: intp(11)},
		{Algorithm: Gzip, Level: intp(9)},
		{Algorithm: Zstd, Level: intp(22)},
	}
	for _, c := range cases {
		_, err := c.ToParquet()
		assert.NoError(t, err, "%s", c.Algorithm)
	}
}

func TestToParquetRejectsOutOfRangeLevels(t *testing.T) {
	cases := []struct {
		choice Choice
		want   []string
	}{
		{Choice{Algorithm: Gzip, Level: intp(10)}, []string{"Gzip", "10"}},
		{Choice{Algorithm: Brotli, Level: intp(12)}, []string{"Brotli", "12"}},
		{Choice{Algorithm: Zstd, Level: intp(0)}, []string{"Zstd", "0"}},
		{Choice{Algorithm: Zstd, Level: intp(23)}, []string{"Zstd", "23"}},
	}
	for _, tc := range cases {
		_, err := tc.choice.ToParquet()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		for _, frag := range tc.want {
			assert.Contains(t, err.Error(), frag)
		}
	}
}

func TestToParquetRejectsLevelOnLevellessAlgorithms(t *testing.T) {
	for _, algo := range []Algorithm{Uncompressed, Snappy, Lz4Raw} {
		c := Choice{Algorithm: algo, Level: intp(3)}
		_, err := c.ToParquet()
		require.Error(t, err, algo)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		assert.Contains(t, err.Error(), string(algo))
		assert.Contains(t, err.Error(), "3")
	}
}

func TestStreamRoundTrips(t *testing.T) {
	payload := bytes.Repeat([]byte("vireo columnar boundary "), 512)

	cases := []Choice{
		{Algorithm: Uncompressed},
		{Algorithm: Snappy},
		{Algorithm: Lz4Raw},
		{Algorithm: Gzip},
		{Algorithm: Gzip, Level: intp(1)},
		{Algorithm: Brotli},
		{Algorithm: Brotli, Level: intp(4)},
		{Algorithm: Zstd},
		{Algorithm: Zstd, Level: intp(3)},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		wc, err := c.WrapWriter(&buf)
		require.NoError(t, err, "%s", c.Algorithm)
		_, err = wc.Write(payload)
		require.NoError(t, err)
		require.NoError(t, wc.Close())

		if c.Algorithm != Uncompressed {
			assert.Less(t, buf.Len(), len(payload), "%s should compress", c.Algorithm)
		}

		rc, err := c.Algorithm.WrapReader(&buf)
		require.NoError(t, err)
		back, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, payload, back, "%s", c.Algorithm)
	}
}

func TestWrapWriterRejectsInvalidLevels(t *testing.T) {
	var buf bytes.Buffer

	_, err := Choice{Algorithm: Gzip, Level: intp(10)}.WrapWriter(&buf)
	require.Error(t, err)

	_, err = Choice{Algorithm: Snappy, Level: intp(1)}.WrapWriter(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Snappy")
}
