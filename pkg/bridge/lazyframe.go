package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/handle"
	"github.com/vireodata/vireo/pkg/metrics"
)

// LazyFromDataFrame captures the dataframe's current state as a lazy frame
// handle with an empty plan. Later in-place updates to the source handle do
// not leak into the plan.
func (b *Bridge) LazyFromDataFrame(h *handle.Handle) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("lazy_from_df", start, err) }(time.Now())
	err = h.View(func(df *engine.DataFrame) error {
		out = handle.NewLazy(engine.Lazy(df))
		return nil
	})
	return out, err
}

func (b *Bridge) lazyStep(op string, h *handle.Handle,
	step func(*engine.LazyFrame) *engine.LazyFrame) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall(op, start, err) }(time.Now())
	lf, err := h.Lazy()
	if err != nil {
		return nil, err
	}
	return handle.NewLazy(step(lf)), nil
}

// LazySelect appends a projection step.
func (b *Bridge) LazySelect(h *handle.Handle, names []string) (*handle.Handle, error) {
	return b.lazyStep("lazy_select", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Select(names)
	})
}

// LazyDrop appends a column-removal step.
func (b *Bridge) LazyDrop(h *handle.Handle, names []string) (*handle.Handle, error) {
	return b.lazyStep("lazy_drop", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Drop(names)
	})
}

// LazyFilter appends a row-filter step with a boolean expression.
func (b *Bridge) LazyFilter(h, pred *handle.Handle) (*handle.Handle, error) {
	e, err := pred.Expression()
	if err != nil {
		return nil, err
	}
	return b.lazyStep("lazy_filter", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Filter(e)
	})
}

// LazyWithColumns appends a step that evaluates expressions and puts each
// result column.
func (b *Bridge) LazyWithColumns(h *handle.Handle, exprs []*handle.Handle) (*handle.Handle, error) {
	es := make([]*engine.Expr, len(exprs))
	for i, eh := range exprs {
		e, err := eh.Expression()
		if err != nil {
			return nil, err
		}
		es[i] = e
	}
	return b.lazyStep("lazy_with_columns", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.WithColumns(es)
	})
}

// LazyRename appends a column-rename step.
func (b *Bridge) LazyRename(h *handle.Handle, renames map[string]string) (*handle.Handle, error) {
	return b.lazyStep("lazy_rename", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Rename(renames)
	})
}

// LazyHead appends a head step.
func (b *Bridge) LazyHead(h *handle.Handle, n int) (*handle.Handle, error) {
	return b.lazyStep("lazy_head", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Head(n)
	})
}

// LazyTail appends a tail step.
func (b *Bridge) LazyTail(h *handle.Handle, n int) (*handle.Handle, error) {
	return b.lazyStep("lazy_tail", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Tail(n)
	})
}

// LazySlice appends a slice step.
func (b *Bridge) LazySlice(h *handle.Handle, offset, length int) (*handle.Handle, error) {
	return b.lazyStep("lazy_slice", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.Slice(offset, length)
	})
}

// LazySortBy appends a stable single-column sort step.
func (b *Bridge) LazySortBy(h *handle.Handle, name string, descending, nullsLast bool) (*handle.Handle, error) {
	return b.lazyStep("lazy_sort_by", h, func(lf *engine.LazyFrame) *engine.LazyFrame {
		return lf.SortBy(name, descending, nullsLast)
	})
}

// LazyNames returns the column names the plan produces, without
// materializing rows.
func (b *Bridge) LazyNames(h *handle.Handle) (names []string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("lazy_names", start, err) }(time.Now())
	lf, err := h.Lazy()
	if err != nil {
		return nil, err
	}
	return lf.Names()
}

// LazyDTypes returns the logical type names the plan produces.
func (b *Bridge) LazyDTypes(h *handle.Handle) (dtypes []string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("lazy_dtypes", start, err) }(time.Now())
	lf, err := h.Lazy()
	if err != nil {
		return nil, err
	}
	return lf.DTypes()
}

// LazyDescribePlan renders the plan, optionally after coalescing trivial
// steps.
func (b *Bridge) LazyDescribePlan(h *handle.Handle, optimized bool) (plan string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("lazy_describe_plan", start, err) }(time.Now())
	lf, err := h.Lazy()
	if err != nil {
		return "", err
	}
	return lf.DescribePlan(optimized), nil
}

// LazyCollect replays the plan on the heavy pool and returns the
// materialized dataframe as a new handle.
func (b *Bridge) LazyCollect(ctx context.Context, h *handle.Handle) (*handle.Handle, error) {
	var err error
	defer func(start time.Time) { metrics.ObserveCall("lazy_collect", start, err) }(time.Now())

	res, err := b.heavy.Submit(ctx, func() (any, error) {
		lf, err := h.Lazy()
		if err != nil {
			return nil, err
		}
		return lf.Collect()
	})
	if err != nil {
		b.log.Debug("collect failed", zap.String("handle", h.ID()), zap.Error(err))
		return nil, err
	}
	return handle.NewDataFrame(res.(*engine.DataFrame)), nil
}

// LazyFetch collects at most n rows on the heavy pool. The row cap applies
// before the plan runs.
func (b *Bridge) LazyFetch(ctx context.Context, h *handle.Handle, n int) (*handle.Handle, error) {
	var err error
	defer func(start time.Time) { metrics.ObserveCall("lazy_fetch", start, err) }(time.Now())

	res, err := b.heavy.Submit(ctx, func() (any, error) {
		lf, err := h.Lazy()
		if err != nil {
			return nil, err
		}
		return lf.Fetch(n)
	})
	if err != nil {
		return nil, err
	}
	return handle.NewDataFrame(res.(*engine.DataFrame)), nil
}
