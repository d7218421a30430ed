package engine

import (
	"fmt"

	"github.com/andybalholm/brotli"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/klauspost/compress/gzip"

	"github.com/vireodata/vireo/pkg/errors"
)

// Zstd accepts a wider range than the klauspost encoder exposes by name;
// the bounds below are upstream zstd's documented compression levels.
const (
	zstdMinLevel = 1
	zstdMaxLevel = 22
)

// BrotliLevel is a validated Brotli quality setting.
type BrotliLevel int

// GzipLevel is a validated gzip compression level.
type GzipLevel int

// ZstdLevel is a validated zstd compression level.
type ZstdLevel int

// NewBrotliLevel validates a Brotli quality value against the codec's
// accepted range.
func NewBrotliLevel(level int) (BrotliLevel, error) {
	if level < brotli.BestSpeed || level > brotli.BestCompression {
		return 0, errors.Newf(errors.ErrorTypeConfig,
			"Brotli compression level %d out of range %d..%d",
			level, brotli.BestSpeed, brotli.BestCompression).
			WithDetail("algorithm", "Brotli").
			WithDetail("level", level)
	}
	return BrotliLevel(level), nil
}

// NewGzipLevel validates a gzip compression level against the codec's
// accepted range.
func NewGzipLevel(level int) (GzipLevel, error) {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		return 0, errors.Newf(errors.ErrorTypeConfig,
			"Gzip compression level %d out of range %d..%d",
			level, gzip.NoCompression, gzip.BestCompression).
			WithDetail("algorithm", "Gzip").
			WithDetail("level", level)
	}
	return GzipLevel(level), nil
}

// NewZstdLevel validates a zstd compression level against the codec's
// accepted range.
func NewZstdLevel(level int) (ZstdLevel, error) {
	if level < zstdMinLevel || level > zstdMaxLevel {
		return 0, errors.Newf(errors.ErrorTypeConfig,
			"Zstd compression level %d out of range %d..%d",
			level, zstdMinLevel, zstdMaxLevel).
			WithDetail("algorithm", "Zstd").
			WithDetail("level", level)
	}
	return ZstdLevel(level), nil
}

// ParquetCompression is a validated Parquet column compression setting:
// a codec plus, for the codecs that accept one, an optional level.
type ParquetCompression struct {
	name     string
	codec    compress.Compression
	level    int
	hasLevel bool
}

// ParquetUncompressed disables column compression.
func ParquetUncompressed() ParquetCompression {
	return ParquetCompression{name: "Uncompressed", codec: compress.Codecs.Uncompressed}
}

// ParquetSnappy selects Snappy, which takes no level.
func ParquetSnappy() ParquetCompression {
	return ParquetCompression{name: "Snappy", codec: compress.Codecs.Snappy}
}

// ParquetLz4Raw selects raw LZ4 block compression, which takes no level.
func ParquetLz4Raw() ParquetCompression {
	return ParquetCompression{name: "Lz4Raw", codec: compress.Codecs.Lz4Raw}
}

// ParquetBrotli selects Brotli with an optional validated quality.
func ParquetBrotli(level *BrotliLevel) ParquetCompression {
	c := ParquetCompression{name: "Brotli", codec: compress.Codecs.Brotli}
	if level != nil {
		c.level = int(*level)
		c.hasLevel = true
	}
	return c
}

// ParquetGzip selects gzip with an optional validated level.
func ParquetGzip(level *GzipLevel) ParquetCompression {
	c := ParquetCompression{name: "Gzip", codec: compress.Codecs.Gzip}
	if level != nil {
		c.level = int(*level)
		c.hasLevel = true
	}
	return c
}

// ParquetZstd selects zstd with an optional validated level.
func ParquetZstd(level *ZstdLevel) ParquetCompression {
	c := ParquetCompression{name: "Zstd", codec: compress.Codecs.Zstd}
	if level != nil {
		c.level = int(*level)
		c.hasLevel = true
	}
	return c
}

// Codec returns the Parquet codec.
func (c ParquetCompression) Codec() compress.Compression {
	return c.codec
}

// Level returns the configured level, if any.
func (c ParquetCompression) Level() (int, bool) {
	return c.level, c.hasLevel
}

func (c ParquetCompression) String() string {
	if c.hasLevel {
		return fmt.Sprintf("%s(%d)", c.name, c.level)
	}
	return c.name
}
