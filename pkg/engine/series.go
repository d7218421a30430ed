// Package engine is the columnar engine facade behind vireo's boundary
// layer. It narrows Apache Arrow to the surface the call layer consumes:
// named series, dataframes with in-place column mutation, a small
// expression algebra, lazily evaluated query plans, and CSV/Parquet/IPC/
// NDJSON codecs. Arrays are immutable once built; every derivation
// produces a new value and holds its own reference on the underlying
// Arrow buffers.
package engine

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/pkg/errors"
)

var alloc = memory.DefaultAllocator

// Series is a named, immutable column of values.
type Series struct {
	name string
	arr  arrow.Array
}

// NewSeries wraps an Arrow array as a named series, taking ownership of the
// caller's reference.
func NewSeries(name string, arr arrow.Array) *Series {
	return &Series{name: name, arr: arr}
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of entries, nulls included.
func (s *Series) Len() int { return s.arr.Len() }

// NullCount returns the number of null entries.
func (s *Series) NullCount() int { return s.arr.NullN() }

// DataType returns the logical type of the column.
func (s *Series) DataType() arrow.DataType { return s.arr.DataType() }

// Array borrows the underlying Arrow array. The caller must not release it.
func (s *Series) Array() arrow.Array { return s.arr }

// Rename returns a series with a new name sharing the same values.
func (s *Series) Rename(name string) *Series {
	s.arr.Retain()
	return &Series{name: name, arr: s.arr}
}

// clone returns a series holding its own reference on the same array.
func (s *Series) clone() *Series {
	s.arr.Retain()
	return &Series{name: s.name, arr: s.arr}
}

// Release drops this series' reference on the underlying buffers.
func (s *Series) Release() {
	s.arr.Release()
}

// Slice returns entries [offset, offset+length).
func (s *Series) Slice(offset, length int) (*Series, error) {
	if offset < 0 || length < 0 || offset+length > s.Len() {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"slice [%d, %d) out of bounds for series of length %d", offset, offset+length, s.Len())
	}
	return &Series{name: s.name, arr: array.NewSlice(s.arr, int64(offset), int64(offset+length))}, nil
}

// Head returns the first n entries (or fewer).
func (s *Series) Head(n int) (*Series, error) {
	if n > s.Len() {
		n = s.Len()
	}
	return s.Slice(0, n)
}

// Tail returns the last n entries (or fewer).
func (s *Series) Tail(n int) (*Series, error) {
	if n > s.Len() {
		n = s.Len()
	}
	return s.Slice(s.Len()-n, n)
}

// Equal reports whether two series hold the same values, nulls included.
// Names are not compared.
func (s *Series) Equal(other *Series) bool {
	return array.Equal(s.arr, other.arr)
}

// Concat appends the other series' values after this one. Types must match.
func (s *Series) Concat(other *Series) (*Series, error) {
	if !arrow.TypeEqual(s.DataType(), other.DataType()) {
		return nil, errors.Newf(errors.ErrorTypeData,
			"cannot concat %s series with %s series", s.DataType(), other.DataType())
	}
	out, err := array.Concatenate([]arrow.Array{s.arr, other.arr}, alloc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "concat failed")
	}
	return &Series{name: s.name, arr: out}, nil
}

// Take builds a new series from the rows at the given indices, in order.
// The dispatch is a closed switch over the supported logical types; a type
// without a branch is reported by name, never silently skipped.
func (s *Series) Take(indices []int) (*Series, error) {
	for _, i := range indices {
		if i < 0 || i >= s.Len() {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"take index %d out of bounds for series of length %d", i, s.Len())
		}
	}

	switch arr := s.arr.(type) {
	case *array.Boolean:
		b := array.NewBooleanBuilder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.String:
		b := array.NewStringBuilder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Int8:
		b := array.NewInt8Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Int16:
		b := array.NewInt16Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Int32:
		b := array.NewInt32Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Int64:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Uint8:
		b := array.NewUint8Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Uint16:
		b := array.NewUint16Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Uint32:
		b := array.NewUint32Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Uint64:
		b := array.NewUint64Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Float32:
		b := array.NewFloat32Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Float64:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Date32:
		b := array.NewDate32Builder(alloc)
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Timestamp:
		b := array.NewTimestampBuilder(alloc, arr.DataType().(*arrow.TimestampType))
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	case *array.Time64:
		b := array.NewTime64Builder(alloc, arr.DataType().(*arrow.Time64Type))
		defer b.Release()
		for _, i := range indices {
			if arr.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(arr.Value(i))
			}
		}
		return &Series{name: s.name, arr: b.NewArray()}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"take is not defined for logical type %s", s.DataType()).
			WithDetail("dtype", s.DataType().String())
	}
}

// Filter keeps the rows where mask is true. Null mask entries drop the row.
func (s *Series) Filter(mask *Series) (*Series, error) {
	indices, err := maskIndices(mask, s.Len())
	if err != nil {
		return nil, err
	}
	return s.Take(indices)
}

// maskIndices converts a boolean series into the kept row indices.
func maskIndices(mask *Series, length int) ([]int, error) {
	if mask.DataType().ID() != arrow.BOOL {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"mask must be a boolean series, got %s", mask.DataType())
	}
	if mask.Len() != length {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"mask length %d does not match length %d", mask.Len(), length)
	}
	bools := mask.arr.(*array.Boolean)
	indices := make([]int, 0, length)
	for i := 0; i < length; i++ {
		if bools.IsValid(i) && bools.Value(i) {
			indices = append(indices, i)
		}
	}
	return indices, nil
}
