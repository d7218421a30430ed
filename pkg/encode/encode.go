// Package encode materializes columnar values into host-shaped Go values.
// Every supported logical type has an explicit dispatch arm; an array whose
// type has no arm fails loudly with the type's name rather than producing a
// partial result.
package encode

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/errors"
	"github.com/vireodata/vireo/pkg/temporal"
)

// Series materializes all values of a series, null entries as nil.
func Series(s *engine.Series) ([]any, error) {
	return Array(s.Array())
}

// Array materializes an Arrow array into a []any. Dates, times and
// datetimes come back as calendar structs; lists recurse.
func Array(arr arrow.Array) ([]any, error) {
	out := make([]any, arr.Len())

	switch a := arr.(type) {
	case *array.Boolean:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.String:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.LargeString:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Int8:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Int16:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Int32:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Int64:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Uint8:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Uint16:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Uint32:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Uint64:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Float32:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Float64:
		for i := range out {
			if a.IsValid(i) {
				out[i] = a.Value(i)
			}
		}
	case *array.Date32:
		for i := range out {
			if a.IsValid(i) {
				out[i] = temporal.DaysToDate(int32(a.Value(i)))
			}
		}
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		if unit != arrow.Microsecond {
			return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
				"encoding is not defined for logical type %s", a.DataType()).
				WithDetail("dtype", a.DataType().String())
		}
		for i := range out {
			if a.IsValid(i) {
				out[i] = temporal.MicrosToDateTime(int64(a.Value(i)))
			}
		}
	case *array.Time64:
		unit := a.DataType().(*arrow.Time64Type).Unit
		if unit != arrow.Microsecond {
			return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
				"encoding is not defined for logical type %s", a.DataType()).
				WithDetail("dtype", a.DataType().String())
		}
		for i := range out {
			if a.IsValid(i) {
				t, err := temporal.MicrosToTime(int64(a.Value(i)))
				if err != nil {
					return nil, err
				}
				out[i] = t
			}
		}
	case *array.List:
		values := a.ListValues()
		for i := range out {
			if a.IsNull(i) {
				continue
			}
			// ValueOffsets accounts for the array's own offset, so sliced
			// list arrays window into the right inner values.
			start, end := a.ValueOffsets(i)
			inner := array.NewSlice(values, start, end)
			enc, err := Array(inner)
			inner.Release()
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"encoding is not defined for logical type %s", arr.DataType()).
			WithDetail("dtype", arr.DataType().String())
	}
	return out, nil
}

// Frame materializes a dataframe column by column, keyed by column name.
func Frame(df *engine.DataFrame) (map[string][]any, error) {
	out := make(map[string][]any, df.Width())
	for _, name := range df.Names() {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		values, err := Series(col)
		if err != nil {
			return nil, err
		}
		out[name] = values
	}
	return out, nil
}
