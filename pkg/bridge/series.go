package bridge

import (
	"context"
	"time"

	"github.com/vireodata/vireo/pkg/encode"
	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/handle"
	"github.com/vireodata/vireo/pkg/metrics"
)

// Series constructors. Each takes host values plus a validity mask (nil
// means all valid) and returns a new series handle.

func seriesOp(op string, build func() (*engine.Series, error)) (*handle.Handle, error) {
	start := time.Now()
	s, err := build()
	metrics.ObserveCall(op, start, err)
	if err != nil {
		return nil, err
	}
	return handle.NewSeries(s), nil
}

// SeriesFromBools builds a boolean series handle.
func (b *Bridge) SeriesFromBools(name string, values, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_bools", func() (*engine.Series, error) {
		return engine.FromBools(name, values, valid)
	})
}

// SeriesFromStrings builds a utf8 series handle.
func (b *Bridge) SeriesFromStrings(name string, values []string, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_strings", func() (*engine.Series, error) {
		return engine.FromStrings(name, values, valid)
	})
}

// SeriesFromInt64s builds an int64 series handle.
func (b *Bridge) SeriesFromInt64s(name string, values []int64, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_int64s", func() (*engine.Series, error) {
		return engine.FromInt64s(name, values, valid)
	})
}

// SeriesFromInt32s builds an int32 series handle.
func (b *Bridge) SeriesFromInt32s(name string, values []int32, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_int32s", func() (*engine.Series, error) {
		return engine.FromInt32s(name, values, valid)
	})
}

// SeriesFromFloat64s builds a float64 series handle.
func (b *Bridge) SeriesFromFloat64s(name string, values []float64, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_float64s", func() (*engine.Series, error) {
		return engine.FromFloat64s(name, values, valid)
	})
}

// SeriesFromDays builds a date series handle from epoch day counts.
func (b *Bridge) SeriesFromDays(name string, values []int32, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_days", func() (*engine.Series, error) {
		return engine.FromDays(name, values, valid)
	})
}

// SeriesFromTimestampMicros builds a datetime series handle from epoch
// microsecond counts.
func (b *Bridge) SeriesFromTimestampMicros(name string, values []int64, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_timestamp_micros", func() (*engine.Series, error) {
		return engine.FromTimestampMicros(name, values, valid)
	})
}

// SeriesFromTimeMicros builds a time-of-day series handle from
// microseconds-since-midnight counts.
func (b *Bridge) SeriesFromTimeMicros(name string, values []int64, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_time_micros", func() (*engine.Series, error) {
		return engine.FromTimeMicros(name, values, valid)
	})
}

// SeriesFromUint32Lists builds a list<uint32> series handle.
func (b *Bridge) SeriesFromUint32Lists(name string, values [][]uint32, valid []bool) (*handle.Handle, error) {
	return seriesOp("series_from_uint32_lists", func() (*engine.Series, error) {
		return engine.FromUint32Lists(name, values, valid)
	})
}

// SeriesName returns the series name.
func (b *Bridge) SeriesName(h *handle.Handle) (name string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_name", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return "", err
	}
	return s.Name(), nil
}

// SeriesRename returns a renamed series handle sharing the same values.
func (b *Bridge) SeriesRename(h *handle.Handle, name string) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_rename", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return nil, err
	}
	return handle.NewSeries(s.Rename(name)), nil
}

// SeriesSize returns the number of entries, nulls included.
func (b *Bridge) SeriesSize(h *handle.Handle) (n int, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_size", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// SeriesNullCount returns the number of null entries.
func (b *Bridge) SeriesNullCount(h *handle.Handle) (n int, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_null_count", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return 0, err
	}
	return s.NullCount(), nil
}

// SeriesDType returns the series' logical type name.
func (b *Bridge) SeriesDType(h *handle.Handle) (dtype string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_dtype", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return "", err
	}
	return s.DataType().String(), nil
}

// SeriesSlice returns entries [offset, offset+length) as a new handle.
func (b *Bridge) SeriesSlice(h *handle.Handle, offset, length int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_slice", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return nil, err
	}
	sub, err := s.Slice(offset, length)
	if err != nil {
		return nil, err
	}
	return handle.NewSeries(sub), nil
}

// SeriesHead returns the first n entries as a new handle.
func (b *Bridge) SeriesHead(h *handle.Handle, n int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_head", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return nil, err
	}
	sub, err := s.Head(n)
	if err != nil {
		return nil, err
	}
	return handle.NewSeries(sub), nil
}

// SeriesTail returns the last n entries as a new handle.
func (b *Bridge) SeriesTail(h *handle.Handle, n int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_tail", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return nil, err
	}
	sub, err := s.Tail(n)
	if err != nil {
		return nil, err
	}
	return handle.NewSeries(sub), nil
}

// SeriesEqual reports whether two series hold the same values.
func (b *Bridge) SeriesEqual(h, other *handle.Handle) (eq bool, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_equal", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return false, err
	}
	o, err := other.Series()
	if err != nil {
		return false, err
	}
	return s.Equal(o), nil
}

// SeriesConcat appends the other series' values as a new handle.
func (b *Bridge) SeriesConcat(h, other *handle.Handle) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("series_concat", start, err) }(time.Now())
	s, err := h.Series()
	if err != nil {
		return nil, err
	}
	o, err := other.Series()
	if err != nil {
		return nil, err
	}
	merged, err := s.Concat(o)
	if err != nil {
		return nil, err
	}
	return handle.NewSeries(merged), nil
}

// SeriesToList materializes the series into host values, null entries as
// nil. Runs on the heavy pool.
func (b *Bridge) SeriesToList(ctx context.Context, h *handle.Handle) ([]any, error) {
	var err error
	defer func(start time.Time) { metrics.ObserveCall("series_to_list", start, err) }(time.Now())

	res, err := b.heavy.Submit(ctx, func() (any, error) {
		s, err := h.Series()
		if err != nil {
			return nil, err
		}
		return encode.Series(s)
	})
	if err != nil {
		return nil, err
	}
	return res.([]any), nil
}
