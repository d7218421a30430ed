package engine

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/vireodata/vireo/pkg/errors"
)

// Constructors for building series from host-supplied value lists. Each
// takes values paired with a validity mask; a nil mask means every entry is
// valid. The per-type builders mirror the encoder's dispatch table, so a
// value that can be encoded can also be built.

func checkValid(n int, valid []bool) error {
	if valid != nil && len(valid) != n {
		return errors.Newf(errors.ErrorTypeValidation,
			"validity mask length %d does not match value count %d", len(valid), n)
	}
	return nil
}

// FromBools builds a boolean series.
func FromBools(name string, values []bool, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewBooleanBuilder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromStrings builds a utf8 series.
func FromStrings(name string, values []string, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewStringBuilder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromInt8s builds an int8 series.
func FromInt8s(name string, values []int8, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewInt8Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromInt16s builds an int16 series.
func FromInt16s(name string, values []int16, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewInt16Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromInt32s builds an int32 series.
func FromInt32s(name string, values []int32, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewInt32Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromInt64s builds an int64 series.
func FromInt64s(name string, values []int64, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewInt64Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromUint8s builds a uint8 series.
func FromUint8s(name string, values []uint8, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewUint8Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromUint16s builds a uint16 series.
func FromUint16s(name string, values []uint16, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewUint16Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromUint32s builds a uint32 series.
func FromUint32s(name string, values []uint32, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewUint32Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromUint64s builds a uint64 series.
func FromUint64s(name string, values []uint64, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewUint64Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromFloat32s builds a float32 series.
func FromFloat32s(name string, values []float32, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewFloat32Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromFloat64s builds a float64 series.
func FromFloat64s(name string, values []float64, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewFloat64Builder(alloc)
	defer b.Release()
	b.AppendValues(values, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromDays builds a date series from signed day counts since the epoch.
func FromDays(name string, values []int32, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewDate32Builder(alloc)
	defer b.Release()
	days := make([]arrow.Date32, len(values))
	for i, v := range values {
		days[i] = arrow.Date32(v)
	}
	b.AppendValues(days, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromTimestampMicros builds a microsecond-resolution datetime series from
// signed microsecond counts since the epoch.
func FromTimestampMicros(name string, values []int64, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewTimestampBuilder(alloc, &arrow.TimestampType{Unit: arrow.Microsecond})
	defer b.Release()
	ts := make([]arrow.Timestamp, len(values))
	for i, v := range values {
		ts[i] = arrow.Timestamp(v)
	}
	b.AppendValues(ts, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromTimeMicros builds a time-of-day series from microsecond counts since
// midnight.
func FromTimeMicros(name string, values []int64, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	for _, v := range values {
		if v < 0 || v >= microsPerDay {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"time microseconds %d out of range [0, 86400000000)", v)
		}
	}
	b := array.NewTime64Builder(alloc, &arrow.Time64Type{Unit: arrow.Microsecond})
	defer b.Release()
	ts := make([]arrow.Time64, len(values))
	for i, v := range values {
		ts[i] = arrow.Time64(v)
	}
	b.AppendValues(ts, valid)
	return &Series{name: name, arr: b.NewArray()}, nil
}

// FromUint32Lists builds a list<uint32> series. A nil inner slice paired
// with a false validity entry is a null list, distinct from an empty one.
func FromUint32Lists(name string, values [][]uint32, valid []bool) (*Series, error) {
	if err := checkValid(len(values), valid); err != nil {
		return nil, err
	}
	b := array.NewListBuilder(alloc, arrow.PrimitiveTypes.Uint32)
	defer b.Release()
	vb := b.ValueBuilder().(*array.Uint32Builder)
	for i, inner := range values {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		b.Append(true)
		vb.AppendValues(inner, nil)
	}
	return &Series{name: name, arr: b.NewArray()}, nil
}

const microsPerDay = 86_400_000_000
