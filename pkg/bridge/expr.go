package bridge

import (
	"time"

	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/handle"
	"github.com/vireodata/vireo/pkg/metrics"
)

// Expression constructors and combinators. Expressions are immutable plan
// fragments; handles to them never hold engine buffers, so these calls are
// cheap and lock-free.

func exprOp(op string, build func() (*engine.Expr, error)) (*handle.Handle, error) {
	start := time.Now()
	e, err := build()
	metrics.ObserveCall(op, start, err)
	if err != nil {
		return nil, err
	}
	return handle.NewExpression(e), nil
}

// ExprCol references a column by name.
func (b *Bridge) ExprCol(name string) (*handle.Handle, error) {
	return exprOp("expr_col", func() (*engine.Expr, error) {
		return engine.Col(name), nil
	})
}

// ExprLitInt builds a 64-bit integer literal. Date and datetime scalars
// cross as epoch integers through this constructor.
func (b *Bridge) ExprLitInt(v int64) (*handle.Handle, error) {
	return exprOp("expr_lit_int", func() (*engine.Expr, error) {
		return engine.LitInt(v), nil
	})
}

// ExprLitFloat builds a float literal.
func (b *Bridge) ExprLitFloat(v float64) (*handle.Handle, error) {
	return exprOp("expr_lit_float", func() (*engine.Expr, error) {
		return engine.LitFloat(v), nil
	})
}

// ExprLitBool builds a boolean literal.
func (b *Bridge) ExprLitBool(v bool) (*handle.Handle, error) {
	return exprOp("expr_lit_bool", func() (*engine.Expr, error) {
		return engine.LitBool(v), nil
	})
}

// ExprLitString builds a utf8 literal.
func (b *Bridge) ExprLitString(v string) (*handle.Handle, error) {
	return exprOp("expr_lit_string", func() (*engine.Expr, error) {
		return engine.LitString(v), nil
	})
}

func (b *Bridge) exprBinary(op string, l, r *handle.Handle,
	combine func(a, c *engine.Expr) *engine.Expr) (*handle.Handle, error) {
	return exprOp(op, func() (*engine.Expr, error) {
		le, err := l.Expression()
		if err != nil {
			return nil, err
		}
		re, err := r.Expression()
		if err != nil {
			return nil, err
		}
		return combine(le, re), nil
	})
}

// ExprEq builds an equality comparison.
func (b *Bridge) ExprEq(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_eq", l, r, (*engine.Expr).Eq)
}

// ExprNotEq builds an inequality comparison.
func (b *Bridge) ExprNotEq(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_not_eq", l, r, (*engine.Expr).NotEq)
}

// ExprGt builds a greater-than comparison.
func (b *Bridge) ExprGt(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_gt", l, r, (*engine.Expr).Gt)
}

// ExprGtEq builds a greater-or-equal comparison.
func (b *Bridge) ExprGtEq(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_gt_eq", l, r, (*engine.Expr).GtEq)
}

// ExprLt builds a less-than comparison.
func (b *Bridge) ExprLt(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_lt", l, r, (*engine.Expr).Lt)
}

// ExprLtEq builds a less-or-equal comparison.
func (b *Bridge) ExprLtEq(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_lt_eq", l, r, (*engine.Expr).LtEq)
}

// ExprAdd builds an addition.
func (b *Bridge) ExprAdd(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_add", l, r, (*engine.Expr).Add)
}

// ExprSub builds a subtraction.
func (b *Bridge) ExprSub(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_sub", l, r, (*engine.Expr).Sub)
}

// ExprMul builds a multiplication.
func (b *Bridge) ExprMul(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_mul", l, r, (*engine.Expr).Mul)
}

// ExprDiv builds a division.
func (b *Bridge) ExprDiv(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_div", l, r, (*engine.Expr).Div)
}

// ExprAnd builds a boolean conjunction.
func (b *Bridge) ExprAnd(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_and", l, r, (*engine.Expr).And)
}

// ExprOr builds a boolean disjunction.
func (b *Bridge) ExprOr(l, r *handle.Handle) (*handle.Handle, error) {
	return b.exprBinary("expr_or", l, r, (*engine.Expr).Or)
}

// ExprNot builds a boolean negation.
func (b *Bridge) ExprNot(h *handle.Handle) (*handle.Handle, error) {
	return exprOp("expr_not", func() (*engine.Expr, error) {
		e, err := h.Expression()
		if err != nil {
			return nil, err
		}
		return e.Not(), nil
	})
}

// ExprAlias renames the expression's output column.
func (b *Bridge) ExprAlias(h *handle.Handle, name string) (*handle.Handle, error) {
	return exprOp("expr_alias", func() (*engine.Expr, error) {
		e, err := h.Expression()
		if err != nil {
			return nil, err
		}
		return e.Alias(name), nil
	})
}

// ExprDescribe renders the expression for diagnostics.
func (b *Bridge) ExprDescribe(h *handle.Handle) (desc string, err error) {
	defer func(start time.Time) { metrics.ObserveCall("expr_describe", start, err) }(time.Now())
	e, err := h.Expression()
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

// ExprEval evaluates the expression against a dataframe, returning a series
// handle of the frame's row count.
func (b *Bridge) ExprEval(h, df *handle.Handle) (out *handle.Handle, err error) {
	defer func(start time.Time) { metrics.ObserveCall("expr_eval", start, err) }(time.Now())
	e, err := h.Expression()
	if err != nil {
		return nil, err
	}
	err = df.View(func(frame *engine.DataFrame) error {
		s, err := e.Eval(frame)
		if err != nil {
			return err
		}
		out = handle.NewSeries(s)
		return nil
	})
	return out, err
}
