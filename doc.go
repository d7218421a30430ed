// Package vireo exposes a columnar dataframe engine behind a narrow,
// handle-based boundary, the way a dynamic host runtime would bind to it.
// Host code never touches engine types: it holds opaque handles, calls
// boundary operations, and gets back plain values or new handles.
//
// # Architecture
//
// The boundary is layered bottom-up:
//
//	pkg/engine      - Arrow-backed series, dataframes, expressions, lazy
//	                  plans and the CSV/Parquet/IPC/NDJSON codecs
//	pkg/temporal    - epoch-integer <-> calendar-field codecs for dates,
//	                  times and microsecond datetimes
//	pkg/encode      - columnar values -> host values, exhaustive per-type
//	                  dispatch with loud unsupported-type failures
//	pkg/compression - host compression choices -> validated engine
//	                  settings, plus stream codecs for compressed file IO
//	pkg/handle      - reference-managed opaque tokens; dataframe handles
//	                  serialize in-place mutation against readers
//	pkg/bridge      - the call surface: one method per boundary operation,
//	                  instrumented, with materializations on a heavy pool
//
// # Ownership
//
// Arrow buffers are reference counted. Every series owns exactly one
// reference; derivations take their own, so a derived frame outlives the
// release of its source. Handles release deterministically on request and
// are backstopped by finalizers.
//
// # Quick start
//
//	b := bridge.New(bridge.Config{})
//	defer b.Close()
//
//	ids, _ := b.SeriesFromInt64s("id", []int64{3, 1, 2}, nil)
//	df, _ := b.DFFromSeries([]*handle.Handle{ids})
//	sorted, _ := b.DFSortBy(df, "id", false, false)
//	cols, _ := b.DFToColumns(ctx, sorted)
//
// The vireo CLI (cmd/vireo) converts and inspects dataframe files through
// the same boundary operations.
package vireo
