package engine

import (
	"fmt"
	"strings"

	"github.com/vireodata/vireo/pkg/errors"
)

// LazyFrame is a deferred computation over a dataframe. Combinators record
// plan steps without touching data; Collect replays the plan. Each derived
// frame owns its own reference on the source columns, so frames release
// independently.
type LazyFrame struct {
	src *DataFrame
	ops []planOp
}

type planOp struct {
	kind       string
	names      []string
	renames    map[string]string
	exprs      []*Expr
	filter     *Expr
	offset     int
	length     int
	sortBy     string
	descending bool
	nullsLast  bool
}

// Lazy wraps a dataframe into a lazy frame with an empty plan. The lazy
// frame holds its own reference; the caller keeps theirs.
func Lazy(df *DataFrame) *LazyFrame {
	return &LazyFrame{src: df.Clone()}
}

// Release drops the lazy frame's reference on the source columns.
func (lf *LazyFrame) Release() {
	lf.src.Release()
}

func (lf *LazyFrame) with(op planOp) *LazyFrame {
	ops := make([]planOp, len(lf.ops), len(lf.ops)+1)
	copy(ops, lf.ops)
	return &LazyFrame{src: lf.src.Clone(), ops: append(ops, op)}
}

// Select narrows the plan's output to the named columns, in order.
func (lf *LazyFrame) Select(names []string) *LazyFrame {
	return lf.with(planOp{kind: "select", names: names})
}

// Drop removes the named columns from the plan's output.
func (lf *LazyFrame) Drop(names []string) *LazyFrame {
	return lf.with(planOp{kind: "drop", names: names})
}

// Filter keeps the rows where the boolean expression is true.
func (lf *LazyFrame) Filter(pred *Expr) *LazyFrame {
	return lf.with(planOp{kind: "filter", filter: pred})
}

// WithColumns evaluates expressions and puts each result column, replacing
// on name collision.
func (lf *LazyFrame) WithColumns(exprs []*Expr) *LazyFrame {
	return lf.with(planOp{kind: "with_columns", exprs: exprs})
}

// Rename renames columns per the old-to-new mapping.
func (lf *LazyFrame) Rename(renames map[string]string) *LazyFrame {
	return lf.with(planOp{kind: "rename", renames: renames})
}

// Head keeps the first n rows.
func (lf *LazyFrame) Head(n int) *LazyFrame {
	return lf.with(planOp{kind: "head", length: n})
}

// Tail keeps the last n rows.
func (lf *LazyFrame) Tail(n int) *LazyFrame {
	return lf.with(planOp{kind: "tail", length: n})
}

// Slice keeps rows [offset, offset+length).
func (lf *LazyFrame) Slice(offset, length int) *LazyFrame {
	return lf.with(planOp{kind: "slice", offset: offset, length: length})
}

// SortBy sorts by one column, stable.
func (lf *LazyFrame) SortBy(name string, descending, nullsLast bool) *LazyFrame {
	return lf.with(planOp{kind: "sort", sortBy: name, descending: descending, nullsLast: nullsLast})
}

// Collect replays the plan and returns the materialized dataframe.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	return lf.run(lf.ops)
}

// Fetch collects at most n rows. The row cap is applied before the plan
// runs, so a fetch over a large source touches only the leading rows; plans
// whose steps look at the full frame (sort, tail) can differ from a full
// collect followed by a head.
func (lf *LazyFrame) Fetch(n int) (*DataFrame, error) {
	ops := make([]planOp, 0, len(lf.ops)+1)
	ops = append(ops, planOp{kind: "head", length: n})
	ops = append(ops, lf.ops...)
	return lf.run(ops)
}

func (lf *LazyFrame) run(ops []planOp) (*DataFrame, error) {
	cur := lf.src.Clone()
	for _, op := range ops {
		next, err := applyOp(cur, op)
		cur.Release()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func applyOp(df *DataFrame, op planOp) (*DataFrame, error) {
	switch op.kind {
	case "select":
		return df.Select(op.names)
	case "drop":
		return df.Drop(op.names)
	case "filter":
		mask, err := op.filter.Eval(df)
		if err != nil {
			return nil, err
		}
		defer mask.Release()
		return df.Mask(mask)
	case "with_columns":
		out := df.Clone()
		for _, e := range op.exprs {
			col, err := e.Eval(out)
			if err != nil {
				out.Release()
				return nil, err
			}
			if err := out.PutColumn(col); err != nil {
				col.Release()
				out.Release()
				return nil, err
			}
		}
		return out, nil
	case "rename":
		out := df.Clone()
		for old, name := range op.renames {
			col, err := out.Column(old)
			if err != nil {
				out.Release()
				return nil, err
			}
			renamed := col.Rename(name)
			if err := out.replaceColumn(old, renamed); err != nil {
				renamed.Release()
				out.Release()
				return nil, err
			}
		}
		return out, nil
	case "head":
		return df.Head(op.length)
	case "tail":
		return df.Tail(op.length)
	case "slice":
		return df.Slice(op.offset, op.length)
	case "sort":
		return df.SortBy(op.sortBy, op.descending, op.nullsLast)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown plan step %q", op.kind)
	}
}

// Names returns the column names the plan produces, without materializing
// any rows.
func (lf *LazyFrame) Names() ([]string, error) {
	probe, err := lf.probe()
	if err != nil {
		return nil, err
	}
	defer probe.Release()
	return probe.Names(), nil
}

// DTypes returns the logical type names the plan produces, in column order.
func (lf *LazyFrame) DTypes() ([]string, error) {
	probe, err := lf.probe()
	if err != nil {
		return nil, err
	}
	defer probe.Release()
	return probe.DTypes(), nil
}

// probe runs the plan over an empty slice of the source to derive the
// output schema.
func (lf *LazyFrame) probe() (*DataFrame, error) {
	empty, err := lf.src.Head(0)
	if err != nil {
		return nil, err
	}
	cur := empty
	for _, op := range lf.ops {
		next, err := applyOp(cur, op)
		cur.Release()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// DescribePlan renders the plan bottom-up, source first. With optimized
// set, adjacent row-limit steps are coalesced before rendering.
func (lf *LazyFrame) DescribePlan(optimized bool) string {
	ops := lf.ops
	if optimized {
		ops = coalesce(ops)
	}

	var b strings.Builder
	rows, cols := lf.src.Shape()
	fmt.Fprintf(&b, "source [%d rows x %d cols]\n", rows, cols)
	for _, op := range ops {
		b.WriteString("  ")
		b.WriteString(describeOp(op))
		b.WriteByte('\n')
	}
	return b.String()
}

func describeOp(op planOp) string {
	switch op.kind {
	case "select":
		return "select [" + strings.Join(op.names, ", ") + "]"
	case "drop":
		return "drop [" + strings.Join(op.names, ", ") + "]"
	case "filter":
		return "filter " + op.filter.String()
	case "with_columns":
		parts := make([]string, len(op.exprs))
		for i, e := range op.exprs {
			parts[i] = e.String()
		}
		return "with_columns [" + strings.Join(parts, ", ") + "]"
	case "rename":
		parts := make([]string, 0, len(op.renames))
		for old, name := range op.renames {
			parts = append(parts, old+" -> "+name)
		}
		return "rename [" + strings.Join(parts, ", ") + "]"
	case "head":
		return fmt.Sprintf("head %d", op.length)
	case "tail":
		return fmt.Sprintf("tail %d", op.length)
	case "slice":
		return fmt.Sprintf("slice [%d, %d)", op.offset, op.offset+op.length)
	case "sort":
		dir := "asc"
		if op.descending {
			dir = "desc"
		}
		return fmt.Sprintf("sort by %s %s", op.sortBy, dir)
	default:
		return op.kind
	}
}

// coalesce folds consecutive head steps into the smaller limit.
func coalesce(ops []planOp) []planOp {
	out := make([]planOp, 0, len(ops))
	for _, op := range ops {
		if op.kind == "head" && len(out) > 0 && out[len(out)-1].kind == "head" {
			if op.length < out[len(out)-1].length {
				out[len(out)-1].length = op.length
			}
			continue
		}
		out = append(out, op)
	}
	return out
}
