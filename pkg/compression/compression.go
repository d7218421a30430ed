// Package compression maps host-supplied compression choices onto the
// engine's validated settings and provides stream codecs for compressed
// file IO. Level ranges live with the engine codecs; this layer only
// routes.
package compression

import (
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/errors"
)

// Algorithm names a compression algorithm as the host spells it.
type Algorithm string

const (
	Brotli       Algorithm = "Brotli"
	Gzip         Algorithm = "Gzip"
	Lz4Raw       Algorithm = "Lz4Raw"
	Snappy       Algorithm = "Snappy"
	Uncompressed Algorithm = "Uncompressed"
	Zstd         Algorithm = "Zstd"
)

// ParseAlgorithm maps a host token onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "brotli", "Brotli":
		return Brotli, nil
	case "gzip", "Gzip":
		return Gzip, nil
	case "lz4raw", "lz4_raw", "Lz4Raw":
		return Lz4Raw, nil
	case "snappy", "Snappy":
		return Snappy, nil
	case "uncompressed", "Uncompressed":
		return Uncompressed, nil
	case "zstd", "Zstd":
		return Zstd, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown compression algorithm %q", s).
			WithDetail("algorithm", s)
	}
}

// Choice is a host-supplied compression setting: an algorithm plus an
// optional level. Whether a level is accepted, and its range, depends on
// the algorithm.
type Choice struct {
	Algorithm Algorithm
	Level     *int
}

func (c Choice) errNoLevel() error {
	return errors.Newf(errors.ErrorTypeConfig,
		"%s does not accept a compression level, got %d", c.Algorithm, *c.Level).
		WithDetail("algorithm", string(c.Algorithm)).
		WithDetail("level", *c.Level)
}

// ToParquet validates the choice against the engine's Parquet codecs. Every
// rejection names the algorithm and the offending level.
func (c Choice) ToParquet() (engine.ParquetCompression, error) {
	switch c.Algorithm {
	case Uncompressed:
		if c.Level != nil {
			return engine.ParquetCompression{}, c.errNoLevel()
		}
		return engine.ParquetUncompressed(), nil
	case Snappy:
		if c.Level != nil {
			return engine.ParquetCompression{}, c.errNoLevel()
		}
		return engine.ParquetSnappy(), nil
	case Lz4Raw:
		if c.Level != nil {
			return engine.ParquetCompression{}, c.errNoLevel()
		}
		return engine.ParquetLz4Raw(), nil
	case Brotli:
		if c.Level == nil {
			return engine.ParquetBrotli(nil), nil
		}
		level, err := engine.NewBrotliLevel(*c.Level)
		if err != nil {
			return engine.ParquetCompression{}, err
		}
		return engine.ParquetBrotli(&level), nil
	case Gzip:
		if c.Level == nil {
			return engine.ParquetGzip(nil), nil
		}
		level, err := engine.NewGzipLevel(*c.Level)
		if err != nil {
			return engine.ParquetCompression{}, err
		}
		return engine.ParquetGzip(&level), nil
	case Zstd:
		if c.Level == nil {
			return engine.ParquetZstd(nil), nil
		}
		level, err := engine.NewZstdLevel(*c.Level)
		if err != nil {
			return engine.ParquetCompression{}, err
		}
		return engine.ParquetZstd(&level), nil
	default:
		return engine.ParquetCompression{}, errors.Newf(errors.ErrorTypeConfig,
			"unknown compression algorithm %q", c.Algorithm).
			WithDetail("algorithm", string(c.Algorithm))
	}
}

// WrapWriter layers a compressing writer over w per the choice. The caller
// must close the returned writer to flush trailing frames; closing it does
// not close w. Lz4Raw is the block format inside Parquet; as a stream it
// maps onto the lz4 frame format, which takes no level.
func (c Choice) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	switch c.Algorithm {
	case Uncompressed:
		if c.Level != nil {
			return nil, c.errNoLevel()
		}
		return nopWriteCloser{w}, nil
	case Snappy:
		if c.Level != nil {
			return nil, c.errNoLevel()
		}
		return snappy.NewBufferedWriter(w), nil
	case Lz4Raw:
		if c.Level != nil {
			return nil, c.errNoLevel()
		}
		return lz4.NewWriter(w), nil
	case Gzip:
		if c.Level == nil {
			return gzip.NewWriter(w), nil
		}
		level, err := engine.NewGzipLevel(*c.Level)
		if err != nil {
			return nil, err
		}
		zw, err := gzip.NewWriterLevel(w, int(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create gzip writer")
		}
		return zw, nil
	case Brotli:
		if c.Level == nil {
			return brotli.NewWriter(w), nil
		}
		level, err := engine.NewBrotliLevel(*c.Level)
		if err != nil {
			return nil, err
		}
		return brotli.NewWriterLevel(w, int(level)), nil
	case Zstd:
		opts := []zstd.EOption{}
		if c.Level != nil {
			level, err := engine.NewZstdLevel(*c.Level)
			if err != nil {
				return nil, err
			}
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(int(level))))
		}
		zw, err := zstd.NewWriter(w, opts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd writer")
		}
		return zw, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"unknown compression algorithm %q", c.Algorithm).
			WithDetail("algorithm", string(c.Algorithm))
	}
}

// WrapReader layers a decompressing reader over r for the algorithm.
// Levels are a write-side setting; readers ignore them.
func (a Algorithm) WrapReader(r io.Reader) (io.ReadCloser, error) {
	switch a {
	case Uncompressed:
		return io.NopCloser(r), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case Lz4Raw:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open gzip stream")
		}
		return zr, nil
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open zstd stream")
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"unknown compression algorithm %q", a).
			WithDetail("algorithm", string(a))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
