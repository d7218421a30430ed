package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vireodata/vireo/pkg/encode"
	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/handle"
	"github.com/vireodata/vireo/pkg/metrics"
)

// DFFromSeries builds a dataframe handle from series handles. The series
// stay owned by their handles; the dataframe takes its own references.
func (b *Bridge) DFFromSeries(cols []*handle.Handle) (h *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_from_series", start, err) }(time.Now())

	series := make([]*engine.Series, 0, len(cols))
	for _, ch := range cols {
		s, err := ch.Series()
		if err != nil {
			releaseSeries(series)
			return nil, err
		}
		series = append(series, s.Rename(s.Name()))
	}
	df, err := engine.NewDataFrame(series...)
	if err != nil {
		releaseSeries(series)
		return nil, err
	}
	return handle.NewDataFrame(df), nil
}

func releaseSeries(series []*engine.Series) {
	for _, s := range series {
		s.Release()
	}
}

// DFNames returns the column names.
func (b *Bridge) DFNames(h *handle.Handle) (names []string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_names", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		names = df.Names()
		return nil
	})
	return names, err
}

// DFDTypes returns the column logical type names.
func (b *Bridge) DFDTypes(h *handle.Handle) (dtypes []string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_dtypes", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		dtypes = df.DTypes()
		return nil
	})
	return dtypes, err
}

// DFShape returns rows and columns.
func (b *Bridge) DFShape(h *handle.Handle) (rows, cols int, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_shape", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		rows, cols = df.Shape()
		return nil
	})
	return rows, cols, err
}

// DFNullCounts returns per-column null counts, in column order.
func (b *Bridge) DFNullCounts(h *handle.Handle) (counts []int, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_null_counts", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		counts = df.NullCounts()
		return nil
	})
	return counts, err
}

// DFSelect returns a new dataframe handle with only the named columns.
func (b *Bridge) DFSelect(h *handle.Handle, names []string) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_select", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		sel, err := df.Select(names)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(sel)
		return nil
	})
	return out, err
}

// DFDrop returns a new dataframe handle without the named columns.
func (b *Bridge) DFDrop(h *handle.Handle, names []string) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_drop", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		dropped, err := df.Drop(names)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(dropped)
		return nil
	})
	return out, err
}

// DFPull returns the named column as an independently owned series handle.
func (b *Bridge) DFPull(h *handle.Handle, name string) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_pull", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		s, err := df.Pull(name)
		if err != nil {
			return err
		}
		out = handle.NewSeries(s)
		return nil
	})
	return out, err
}

// DFPutColumn mutates the dataframe in place under the handle's write lock,
// replacing a same-named column or appending. The series handle keeps its
// own reference.
func (b *Bridge) DFPutColumn(h, col *handle.Handle) (err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_put_column", start, err) }(time.Now())
	s, err := col.Series()
	if err != nil {
		return err
	}
	owned := s.Rename(s.Name())
	err = h.Update(func(df *engine.DataFrame) error {
		return df.PutColumn(owned)
	})
	if err != nil {
		owned.Release()
	}
	return err
}

// DFMask returns a new handle keeping the rows where the boolean series is
// true.
func (b *Bridge) DFMask(h, mask *handle.Handle) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_mask", start, err) }(time.Now())
	ms, err := mask.Series()
	if err != nil {
		return nil, err
	}
	err = h.View(func(df *engine.DataFrame) error {
		kept, err := df.Mask(ms)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(kept)
		return nil
	})
	return out, err
}

// DFSlice returns rows [offset, offset+length) as a new handle.
func (b *Bridge) DFSlice(h *handle.Handle, offset, length int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_slice", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		sub, err := df.Slice(offset, length)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(sub)
		return nil
	})
	return out, err
}

// DFHead returns the first n rows as a new handle.
func (b *Bridge) DFHead(h *handle.Handle, n int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_head", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		sub, err := df.Head(n)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(sub)
		return nil
	})
	return out, err
}

// DFTail returns the last n rows as a new handle.
func (b *Bridge) DFTail(h *handle.Handle, n int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_tail", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		sub, err := df.Tail(n)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(sub)
		return nil
	})
	return out, err
}

// DFTake returns the rows at the given indices as a new handle.
func (b *Bridge) DFTake(h *handle.Handle, indices []int) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_take", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		sub, err := df.Take(indices)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(sub)
		return nil
	})
	return out, err
}

// DFSortBy returns a new handle sorted by one column.
func (b *Bridge) DFSortBy(h *handle.Handle, name string, descending, nullsLast bool) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_sort_by", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		sorted, err := df.SortBy(name, descending, nullsLast)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(sorted)
		return nil
	})
	return out, err
}

// DFConcatColumns returns a new handle with the other frame's columns
// appended.
func (b *Bridge) DFConcatColumns(h, other *handle.Handle) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("df_concat_columns", start, err) }(time.Now())

	snap, err := other.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	err = h.View(func(df *engine.DataFrame) error {
		merged, err := df.ConcatColumns(snap)
		if err != nil {
			return err
		}
		out = handle.NewDataFrame(merged)
		return nil
	})
	return out, err
}

// DFToColumns materializes the dataframe into host values keyed by column
// name. Runs on the heavy pool.
func (b *Bridge) DFToColumns(ctx context.Context, h *handle.Handle) (map[string][]any, error) {
	var err error
	defer func(start time.Time) { metrics.ObserveCall("df_to_columns", start, err) }(time.Now())

	res, err := b.heavy.Submit(ctx, func() (any, error) {
		snap, err := h.Snapshot()
		if err != nil {
			return nil, err
		}
		defer snap.Release()
		return encode.Frame(snap)
	})
	if err != nil {
		b.log.Debug("materialization failed", zap.String("handle", h.ID()), zap.Error(err))
		return nil, err
	}
	return res.(map[string][]any), nil
}
