package engine

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	json "github.com/goccy/go-json"

	"github.com/vireodata/vireo/pkg/errors"
)

// WriteCSV writes the dataframe as CSV.
func WriteCSV(df *DataFrame, w io.Writer, includeHeader bool) error {
	rec := df.record()
	defer rec.Release()

	cw := csv.NewWriter(w, rec.Schema(), csv.WithHeader(includeHeader), csv.WithComma(','))
	if err := cw.Write(rec); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "csv write failed")
	}
	if err := cw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "csv flush failed")
	}
	return nil
}

// ReadCSV reads a CSV document into a dataframe, inferring column types. The
// first row is taken as the header.
func ReadCSV(r io.Reader) (*DataFrame, error) {
	rdr := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithChunk(-1),
		csv.WithComma(','),
		csv.WithAllocator(alloc),
	)
	defer rdr.Release()

	if !rdr.Next() {
		if err := rdr.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "csv read failed")
		}
		return nil, errors.New(errors.ErrorTypeData, "csv document has no data rows")
	}
	df, err := recordToFrame(rdr.Record())
	if err != nil {
		return nil, err
	}
	if err := rdr.Err(); err != nil {
		df.Release()
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "csv read failed")
	}
	return df, nil
}

// WriteParquet writes the dataframe as a Parquet file with the given column
// compression.
func WriteParquet(df *DataFrame, w io.Writer, comp ParquetCompression) error {
	opts := []parquet.WriterProperty{parquet.WithCompression(comp.Codec())}
	if level, ok := comp.Level(); ok {
		opts = append(opts, parquet.WithCompressionLevel(level))
	}
	props := parquet.NewWriterProperties(opts...)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(alloc))

	fw, err := pqarrow.NewFileWriter(df.schema(), w, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to create parquet writer")
	}

	rec := df.record()
	defer rec.Release()
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return errors.Wrap(err, errors.ErrorTypeIO, "parquet write failed")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to close parquet writer")
	}
	return nil
}

// ReadParquet reads a Parquet file into a dataframe. Row groups are
// concatenated into single columns.
func ReadParquet(ctx context.Context, r io.Reader) (*DataFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read parquet data")
	}
	fr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open parquet data")
	}
	defer fr.Close()

	ar, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, alloc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to create parquet reader")
	}
	tbl, err := ar.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "parquet read failed")
	}
	defer tbl.Release()

	return tableToFrame(tbl)
}

// WriteIPCFile writes the dataframe in the Arrow IPC file format.
func WriteIPCFile(df *DataFrame, w io.Writer) error {
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(df.schema()), ipc.WithAllocator(alloc))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to create ipc writer")
	}
	rec := df.record()
	defer rec.Release()
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return errors.Wrap(err, errors.ErrorTypeIO, "ipc write failed")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to close ipc writer")
	}
	return nil
}

// ReadIPCFile reads an Arrow IPC file into a dataframe.
func ReadIPCFile(r io.Reader) (*DataFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read ipc data")
	}
	rdr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(alloc))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open ipc data")
	}
	defer rdr.Close()

	recs := make([]arrow.Record, 0, rdr.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < rdr.NumRecords(); i++ {
		rec, err := rdr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "ipc read failed")
		}
		rec.Retain()
		recs = append(recs, rec)
	}
	return recordsToFrame(rdr.Schema(), recs)
}

// WriteIPCStream writes the dataframe in the Arrow IPC streaming format.
func WriteIPCStream(df *DataFrame, w io.Writer) error {
	sw := ipc.NewWriter(w, ipc.WithSchema(df.schema()), ipc.WithAllocator(alloc))
	rec := df.record()
	defer rec.Release()
	if err := sw.Write(rec); err != nil {
		sw.Close()
		return errors.Wrap(err, errors.ErrorTypeIO, "ipc stream write failed")
	}
	if err := sw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to close ipc stream writer")
	}
	return nil
}

// ReadIPCStream reads an Arrow IPC stream into a dataframe.
func ReadIPCStream(r io.Reader) (*DataFrame, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(alloc))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open ipc stream")
	}
	defer rdr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "ipc stream read failed")
	}
	return recordsToFrame(rdr.Schema(), recs)
}

// WriteNDJSON writes the dataframe as newline-delimited JSON, one object per
// row. Temporal values render as ISO 8601 strings.
func WriteNDJSON(df *DataFrame, w io.Writer) error {
	names := df.Names()
	enc := json.NewEncoder(w)
	for row := 0; row < df.NRows(); row++ {
		obj := make(map[string]any, len(names))
		for i, c := range df.cols {
			v, err := jsonCell(c.Array(), row)
			if err != nil {
				return err
			}
			obj[names[i]] = v
		}
		if err := enc.Encode(obj); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "ndjson write failed")
		}
	}
	return nil
}

func jsonCell(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.Int8:
		return a.Value(i), nil
	case *array.Int16:
		return a.Value(i), nil
	case *array.Int32:
		return a.Value(i), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return a.Value(i), nil
	case *array.Uint16:
		return a.Value(i), nil
	case *array.Uint32:
		return a.Value(i), nil
	case *array.Uint64:
		return a.Value(i), nil
	case *array.Float32:
		return a.Value(i), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Date32:
		return a.Value(i).ToTime().Format("2006-01-02"), nil
	case *array.Timestamp:
		us := int64(a.Value(i))
		secs, rem := us/1_000_000, us%1_000_000
		if rem < 0 {
			secs--
			rem += 1_000_000
		}
		return time.Unix(secs, rem*1000).UTC().Format("2006-01-02T15:04:05.999999"), nil
	case *array.Time64:
		us := int64(a.Value(i))
		return time.Unix(us/1_000_000, (us%1_000_000)*1000).UTC().Format("15:04:05.999999"), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"ndjson is not defined for logical type %s", arr.DataType()).
			WithDetail("dtype", arr.DataType().String())
	}
}

// ReadNDJSON reads newline-delimited JSON into a dataframe. Columns take the
// order of first appearance; integral numbers become int64, the rest
// float64.
func ReadNDJSON(r io.Reader) (*DataFrame, error) {
	var (
		order []string
		raw   []map[string]any
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		obj := make(map[string]any)
		if err := dec.Decode(&obj); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "ndjson parse failed").
				WithDetail("row", len(raw))
		}
		for k := range obj {
			if !containsName(order, k) {
				order = append(order, k)
			}
		}
		raw = append(raw, obj)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "ndjson read failed")
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrorTypeData, "ndjson document has no rows")
	}

	cols := make([]*Series, 0, len(order))
	for _, name := range order {
		s, err := ndjsonColumn(name, raw)
		if err != nil {
			releaseAll(cols)
			return nil, err
		}
		cols = append(cols, s)
	}
	df, err := NewDataFrame(cols...)
	if err != nil {
		releaseAll(cols)
		return nil, err
	}
	return df, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ndjsonColumn infers one column's type across all rows and builds it. A
// missing key is a null. Numbers stay int64 when every entry parses as an
// integer.
func ndjsonColumn(name string, rows []map[string]any) (*Series, error) {
	var (
		kind    vecKind
		sawNum  bool
		allInts = true
	)
	for i, row := range rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		var k vecKind
		switch n := v.(type) {
		case bool:
			k = vecBool
		case string:
			k = vecString
		case json.Number:
			k = vecInt
			sawNum = true
			if _, err := n.Int64(); err != nil {
				allInts = false
			}
		default:
			return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
				"ndjson value of type %T is not supported", v).
				WithDetail("column", name).
				WithDetail("row", i)
		}
		if kind == 0 {
			kind = k
		} else if kind != k {
			return nil, errors.Newf(errors.ErrorTypeData,
				"ndjson column %q mixes %s and %s values", name, kind, k).
				WithDetail("column", name).
				WithDetail("row", i)
		}
	}
	if sawNum && !allInts {
		kind = vecFloat
	}
	if kind == 0 {
		kind = vecString // all-null column
	}

	n := len(rows)
	valid := make([]bool, n)
	switch kind {
	case vecBool:
		values := make([]bool, n)
		for i, row := range rows {
			if v, ok := row[name]; ok && v != nil {
				valid[i] = true
				values[i] = v.(bool)
			}
		}
		return FromBools(name, values, valid)
	case vecString:
		values := make([]string, n)
		for i, row := range rows {
			if v, ok := row[name]; ok && v != nil {
				valid[i] = true
				values[i] = v.(string)
			}
		}
		return FromStrings(name, values, valid)
	case vecInt:
		values := make([]int64, n)
		for i, row := range rows {
			v, ok := row[name]
			if !ok || v == nil {
				continue
			}
			x, err := v.(json.Number).Int64()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "ndjson integer parse failed").
					WithDetail("column", name).
					WithDetail("row", i)
			}
			valid[i] = true
			values[i] = x
		}
		return FromInt64s(name, values, valid)
	default:
		values := make([]float64, n)
		for i, row := range rows {
			v, ok := row[name]
			if !ok || v == nil {
				continue
			}
			x, err := v.(json.Number).Float64()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "ndjson number parse failed").
					WithDetail("column", name).
					WithDetail("row", i)
			}
			valid[i] = true
			values[i] = x
		}
		return FromFloat64s(name, values, valid)
	}
}

// recordToFrame copies a record's columns into an owned dataframe.
func recordToFrame(rec arrow.Record) (*DataFrame, error) {
	cols := make([]*Series, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		arr := rec.Column(i)
		arr.Retain()
		cols[i] = NewSeries(rec.Schema().Field(i).Name, arr)
	}
	df, err := NewDataFrame(cols...)
	if err != nil {
		releaseAll(cols)
		return nil, err
	}
	return df, nil
}

// recordsToFrame concatenates a batch sequence into single-chunk columns.
func recordsToFrame(schema *arrow.Schema, recs []arrow.Record) (*DataFrame, error) {
	cols := make([]*Series, len(schema.Fields()))
	for i, field := range schema.Fields() {
		chunks := make([]arrow.Array, len(recs))
		for j, rec := range recs {
			chunks[j] = rec.Column(i)
		}
		var arr arrow.Array
		switch len(chunks) {
		case 0:
			arr = array.MakeArrayOfNull(alloc, field.Type, 0)
		case 1:
			arr = chunks[0]
			arr.Retain()
		default:
			var err error
			arr, err = array.Concatenate(chunks, alloc)
			if err != nil {
				releaseAll(cols[:i])
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to merge record batches")
			}
		}
		cols[i] = NewSeries(field.Name, arr)
	}
	df, err := NewDataFrame(cols...)
	if err != nil {
		releaseAll(cols)
		return nil, err
	}
	return df, nil
}

// tableToFrame concatenates a chunked table into single-chunk columns.
func tableToFrame(tbl arrow.Table) (*DataFrame, error) {
	cols := make([]*Series, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		chunks := col.Data().Chunks()
		var arr arrow.Array
		switch len(chunks) {
		case 0:
			arr = array.MakeArrayOfNull(alloc, col.DataType(), 0)
		case 1:
			arr = chunks[0]
			arr.Retain()
		default:
			var err error
			arr, err = array.Concatenate(chunks, alloc)
			if err != nil {
				releaseAll(cols[:i])
				return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to merge column chunks")
			}
		}
		cols[i] = NewSeries(col.Name(), arr)
	}
	df, err := NewDataFrame(cols...)
	if err != nil {
		releaseAll(cols)
		return nil, err
	}
	return df, nil
}
