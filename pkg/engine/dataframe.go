package engine

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/vireodata/vireo/pkg/errors"
)

// DataFrame is an ordered collection of equal-length named series. Unlike
// series, a dataframe can be mutated in place (PutColumn); callers holding
// one across threads must serialize mutation externally — the handle layer
// does exactly that.
type DataFrame struct {
	cols []*Series
}

// NewDataFrame builds a dataframe from series, which it takes ownership of.
// Names must be unique and lengths equal.
func NewDataFrame(cols ...*Series) (*DataFrame, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name()]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate column name %q", c.Name())
		}
		seen[c.Name()] = struct{}{}
		if c.Len() != cols[0].Len() {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q has length %d, expected %d", c.Name(), c.Len(), cols[0].Len())
		}
	}
	return &DataFrame{cols: cols}, nil
}

// Clone returns a dataframe sharing the same immutable columns, each with
// its own reference.
func (df *DataFrame) Clone() *DataFrame {
	out := make([]*Series, len(df.cols))
	for i, c := range df.cols {
		out[i] = c.clone()
	}
	return &DataFrame{cols: out}
}

// Release drops the dataframe's references on its columns.
func (df *DataFrame) Release() {
	for _, c := range df.cols {
		c.Release()
	}
	df.cols = nil
}

// Width returns the number of columns.
func (df *DataFrame) Width() int { return len(df.cols) }

// NRows returns the number of rows.
func (df *DataFrame) NRows() int {
	if len(df.cols) == 0 {
		return 0
	}
	return df.cols[0].Len()
}

// Shape returns rows and columns.
func (df *DataFrame) Shape() (rows, cols int) {
	return df.NRows(), df.Width()
}

// Names returns the column names in order.
func (df *DataFrame) Names() []string {
	names := make([]string, len(df.cols))
	for i, c := range df.cols {
		names[i] = c.Name()
	}
	return names
}

// DTypes returns the logical type name of each column, in column order.
func (df *DataFrame) DTypes() []string {
	dtypes := make([]string, len(df.cols))
	for i, c := range df.cols {
		dtypes[i] = c.DataType().String()
	}
	return dtypes
}

// NullCounts returns the per-column null counts, in column order.
func (df *DataFrame) NullCounts() []int {
	counts := make([]int, len(df.cols))
	for i, c := range df.cols {
		counts[i] = c.NullCount()
	}
	return counts
}

// Column returns the named column without transferring ownership.
func (df *DataFrame) Column(name string) (*Series, error) {
	for _, c := range df.cols {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, errors.Newf(errors.ErrorTypeData, "no column named %q", name).
		WithDetail("column", name)
}

// ColumnAt returns the column at index i without transferring ownership.
func (df *DataFrame) ColumnAt(i int) (*Series, error) {
	if i < 0 || i >= len(df.cols) {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"column index %d out of range for width %d", i, len(df.cols))
	}
	return df.cols[i], nil
}

// Pull returns the named column as an independently owned series.
func (df *DataFrame) Pull(name string) (*Series, error) {
	c, err := df.Column(name)
	if err != nil {
		return nil, err
	}
	return c.clone(), nil
}

// Select returns a dataframe with only the named columns, in the given order.
func (df *DataFrame) Select(names []string) (*DataFrame, error) {
	out := make([]*Series, 0, len(names))
	for _, name := range names {
		c, err := df.Column(name)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, c.clone())
	}
	return &DataFrame{cols: out}, nil
}

// Drop returns a dataframe without the named columns.
func (df *DataFrame) Drop(names []string) (*DataFrame, error) {
	dropped := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, err := df.Column(name); err != nil {
			return nil, err
		}
		dropped[name] = struct{}{}
	}
	out := make([]*Series, 0, len(df.cols))
	for _, c := range df.cols {
		if _, skip := dropped[c.Name()]; !skip {
			out = append(out, c.clone())
		}
	}
	return &DataFrame{cols: out}, nil
}

// PutColumn mutates the dataframe in place: a column with the same name is
// replaced, otherwise the series is appended. Takes ownership of s.
func (df *DataFrame) PutColumn(s *Series) error {
	if len(df.cols) > 0 && s.Len() != df.NRows() {
		return errors.Newf(errors.ErrorTypeValidation,
			"column %q has length %d, dataframe has %d rows", s.Name(), s.Len(), df.NRows())
	}
	for i, c := range df.cols {
		if c.Name() == s.Name() {
			c.Release()
			df.cols[i] = s
			return nil
		}
	}
	df.cols = append(df.cols, s)
	return nil
}

// Slice returns rows [offset, offset+length).
func (df *DataFrame) Slice(offset, length int) (*DataFrame, error) {
	out := make([]*Series, 0, len(df.cols))
	for _, c := range df.cols {
		s, err := c.Slice(offset, length)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, s)
	}
	return &DataFrame{cols: out}, nil
}

// Head returns the first n rows (or fewer).
func (df *DataFrame) Head(n int) (*DataFrame, error) {
	if n > df.NRows() {
		n = df.NRows()
	}
	return df.Slice(0, n)
}

// Tail returns the last n rows (or fewer).
func (df *DataFrame) Tail(n int) (*DataFrame, error) {
	if n > df.NRows() {
		n = df.NRows()
	}
	return df.Slice(df.NRows()-n, n)
}

// Take returns the rows at the given indices, in order, duplicates allowed.
func (df *DataFrame) Take(indices []int) (*DataFrame, error) {
	out := make([]*Series, 0, len(df.cols))
	for _, c := range df.cols {
		s, err := c.Take(indices)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, s)
	}
	return &DataFrame{cols: out}, nil
}

// Mask keeps the rows where the boolean mask is true; null mask entries
// drop the row.
func (df *DataFrame) Mask(mask *Series) (*DataFrame, error) {
	indices, err := maskIndices(mask, df.NRows())
	if err != nil {
		return nil, err
	}
	return df.Take(indices)
}

// SortBy returns a dataframe sorted by one column. The sort is stable;
// nulls group first unless nullsLast is set.
func (df *DataFrame) SortBy(name string, descending, nullsLast bool) (*DataFrame, error) {
	col, err := df.Column(name)
	if err != nil {
		return nil, err
	}
	less, err := lessFunc(col)
	if err != nil {
		return nil, err
	}

	indices := make([]int, df.NRows())
	for i := range indices {
		indices[i] = i
	}
	arr := col.Array()
	sort.SliceStable(indices, func(a, b int) bool {
		i, j := indices[a], indices[b]
		in, jn := arr.IsNull(i), arr.IsNull(j)
		switch {
		case in && jn:
			return false
		case in:
			return !nullsLast
		case jn:
			return nullsLast
		}
		if descending {
			return less(j, i)
		}
		return less(i, j)
	})
	return df.Take(indices)
}

// ConcatColumns appends the other dataframe's columns. Row counts must match
// and names must stay unique.
func (df *DataFrame) ConcatColumns(other *DataFrame) (*DataFrame, error) {
	if df.NRows() != other.NRows() {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"cannot concat columns: %d rows vs %d rows", df.NRows(), other.NRows())
	}
	cols := make([]*Series, 0, len(df.cols)+len(other.cols))
	for _, c := range df.cols {
		cols = append(cols, c.clone())
	}
	for _, c := range other.cols {
		cols = append(cols, c.clone())
	}
	out, err := NewDataFrame(cols...)
	if err != nil {
		releaseAll(cols)
		return nil, err
	}
	return out, nil
}

// replaceColumn swaps the column named old for s, keeping its position.
// Takes ownership of s on success. The new name must not collide with
// another column.
func (df *DataFrame) replaceColumn(old string, s *Series) error {
	for _, c := range df.cols {
		if c.Name() != old && c.Name() == s.Name() {
			return errors.Newf(errors.ErrorTypeValidation, "duplicate column name %q", s.Name())
		}
	}
	for i, c := range df.cols {
		if c.Name() == old {
			c.Release()
			df.cols[i] = s
			return nil
		}
	}
	return errors.Newf(errors.ErrorTypeData, "no column named %q", old).
		WithDetail("column", old)
}

// lessFunc returns a strict value comparison for the column's logical type.
func lessFunc(col *Series) (func(i, j int) bool, error) {
	switch arr := col.Array().(type) {
	case *array.Boolean:
		return func(i, j int) bool { return !arr.Value(i) && arr.Value(j) }, nil
	case *array.String:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Int8:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Int16:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Int32:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Int64:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Uint8:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Uint16:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Uint32:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Uint64:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Float32:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Float64:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Date32:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Timestamp:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	case *array.Time64:
		return func(i, j int) bool { return arr.Value(i) < arr.Value(j) }, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"sort is not defined for logical type %s", col.DataType()).
			WithDetail("dtype", col.DataType().String())
	}
}

// schema builds the Arrow schema describing the dataframe.
func (df *DataFrame) schema() *arrow.Schema {
	fields := make([]arrow.Field, len(df.cols))
	for i, c := range df.cols {
		fields[i] = arrow.Field{Name: c.Name(), Type: c.DataType(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// record builds a single Arrow record over the dataframe's columns. The
// record borrows the column arrays.
func (df *DataFrame) record() arrow.Record {
	arrs := make([]arrow.Array, len(df.cols))
	for i, c := range df.cols {
		arrs[i] = c.Array()
	}
	return array.NewRecord(df.schema(), arrs, int64(df.NRows()))
}

func releaseAll(cols []*Series) {
	for _, c := range cols {
		c.Release()
	}
}
