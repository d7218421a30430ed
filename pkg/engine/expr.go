package engine

import (
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/vireodata/vireo/pkg/errors"
)

// Expr is an unevaluated expression over dataframe columns. Expressions are
// immutable; combinators return new nodes sharing the operands.
type Expr struct {
	kind  exprKind
	op    string
	name  string // column name, or alias override
	lit   literal
	left  *Expr
	right *Expr
}

type exprKind uint8

const (
	exprColumn exprKind = iota + 1
	exprLiteral
	exprBinary
	exprUnary
	exprAlias
)

type literal struct {
	kind vecKind
	b    bool
	i    int64
	f    float64
	s    string
}

// Col references a column by name.
func Col(name string) *Expr {
	return &Expr{kind: exprColumn, name: name}
}

// LitInt is a 64-bit integer literal. Date and datetime scalars cross the
// boundary as epoch integers and compare against their columns through this
// constructor.
func LitInt(v int64) *Expr {
	return &Expr{kind: exprLiteral, lit: literal{kind: vecInt, i: v}}
}

// LitFloat is a 64-bit float literal.
func LitFloat(v float64) *Expr {
	return &Expr{kind: exprLiteral, lit: literal{kind: vecFloat, f: v}}
}

// LitBool is a boolean literal.
func LitBool(v bool) *Expr {
	return &Expr{kind: exprLiteral, lit: literal{kind: vecBool, b: v}}
}

// LitString is a utf8 literal.
func LitString(v string) *Expr {
	return &Expr{kind: exprLiteral, lit: literal{kind: vecString, s: v}}
}

// Alias renames the expression's output column.
func (e *Expr) Alias(name string) *Expr {
	return &Expr{kind: exprAlias, name: name, left: e}
}

func binary(op string, l, r *Expr) *Expr {
	return &Expr{kind: exprBinary, op: op, left: l, right: r}
}

// Comparison combinators. Each yields a boolean column; a null in either
// operand yields a null result entry.

func (e *Expr) Eq(other *Expr) *Expr    { return binary("eq", e, other) }
func (e *Expr) NotEq(other *Expr) *Expr { return binary("neq", e, other) }
func (e *Expr) Gt(other *Expr) *Expr    { return binary("gt", e, other) }
func (e *Expr) GtEq(other *Expr) *Expr  { return binary("gte", e, other) }
func (e *Expr) Lt(other *Expr) *Expr    { return binary("lt", e, other) }
func (e *Expr) LtEq(other *Expr) *Expr  { return binary("lte", e, other) }

// Arithmetic combinators. Integer operands stay integral except Div, which
// yields null on a zero divisor; mixed operands promote to float.

func (e *Expr) Add(other *Expr) *Expr { return binary("add", e, other) }
func (e *Expr) Sub(other *Expr) *Expr { return binary("sub", e, other) }
func (e *Expr) Mul(other *Expr) *Expr { return binary("mul", e, other) }
func (e *Expr) Div(other *Expr) *Expr { return binary("div", e, other) }

// Boolean combinators.

func (e *Expr) And(other *Expr) *Expr { return binary("and", e, other) }
func (e *Expr) Or(other *Expr) *Expr  { return binary("or", e, other) }
func (e *Expr) Not() *Expr            { return &Expr{kind: exprUnary, op: "not", left: e} }

// OutName returns the column name the evaluated expression produces.
func (e *Expr) OutName() string {
	switch e.kind {
	case exprColumn:
		return e.name
	case exprAlias:
		return e.name
	case exprLiteral:
		return "literal"
	default:
		return e.op
	}
}

// String renders the expression for plan descriptions.
func (e *Expr) String() string {
	switch e.kind {
	case exprColumn:
		return "col(" + e.name + ")"
	case exprLiteral:
		return "lit"
	case exprAlias:
		return e.left.String() + " as " + e.name
	case exprUnary:
		return e.op + "(" + e.left.String() + ")"
	default:
		return e.op + "(" + e.left.String() + ", " + e.right.String() + ")"
	}
}

// Eval evaluates the expression against a dataframe, producing one column
// of the dataframe's row count.
func (e *Expr) Eval(df *DataFrame) (*Series, error) {
	v, err := e.eval(df)
	if err != nil {
		return nil, err
	}
	return v.toSeries(e.OutName())
}

func (e *Expr) eval(df *DataFrame) (*vector, error) {
	switch e.kind {
	case exprColumn:
		col, err := df.Column(e.name)
		if err != nil {
			return nil, err
		}
		return vectorize(col)
	case exprLiteral:
		return broadcast(e.lit, df.NRows()), nil
	case exprAlias:
		return e.left.eval(df)
	case exprUnary:
		v, err := e.left.eval(df)
		if err != nil {
			return nil, err
		}
		return evalNot(v)
	case exprBinary:
		l, err := e.left.eval(df)
		if err != nil {
			return nil, err
		}
		r, err := e.right.eval(df)
		if err != nil {
			return nil, err
		}
		return evalBinary(e.op, l, r)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown expression kind %d", e.kind)
	}
}

// vector is the evaluator's widened column representation.
type vecKind uint8

const (
	vecBool vecKind = iota + 1
	vecInt
	vecFloat
	vecString
)

func (k vecKind) String() string {
	switch k {
	case vecBool:
		return "bool"
	case vecInt:
		return "integer"
	case vecFloat:
		return "float"
	case vecString:
		return "string"
	default:
		return "unknown"
	}
}

type vector struct {
	kind   vecKind
	bools  []bool
	ints   []int64
	floats []float64
	strs   []string
	valid  []bool
}

func newVector(kind vecKind, n int) *vector {
	v := &vector{kind: kind, valid: make([]bool, n)}
	switch kind {
	case vecBool:
		v.bools = make([]bool, n)
	case vecInt:
		v.ints = make([]int64, n)
	case vecFloat:
		v.floats = make([]float64, n)
	case vecString:
		v.strs = make([]string, n)
	}
	return v
}

func (v *vector) len() int { return len(v.valid) }

func (v *vector) toSeries(name string) (*Series, error) {
	switch v.kind {
	case vecBool:
		return FromBools(name, v.bools, v.valid)
	case vecInt:
		return FromInt64s(name, v.ints, v.valid)
	case vecFloat:
		return FromFloat64s(name, v.floats, v.valid)
	case vecString:
		return FromStrings(name, v.strs, v.valid)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown vector kind %d", v.kind)
	}
}

// vectorize widens a series into the evaluator representation. Temporal
// columns widen to their epoch integers, matching the boundary convention.
func vectorize(s *Series) (*vector, error) {
	n := s.Len()
	switch arr := s.Array().(type) {
	case *array.Boolean:
		v := newVector(vecBool, n)
		for i := 0; i < n; i++ {
			v.valid[i] = arr.IsValid(i)
			if v.valid[i] {
				v.bools[i] = arr.Value(i)
			}
		}
		return v, nil
	case *array.String:
		v := newVector(vecString, n)
		for i := 0; i < n; i++ {
			v.valid[i] = arr.IsValid(i)
			if v.valid[i] {
				v.strs[i] = arr.Value(i)
			}
		}
		return v, nil
	case *array.Int8:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Int16:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Int32:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Int64:
		return intVector(n, arr.IsValid, arr.Value), nil
	case *array.Uint8:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Uint16:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Uint32:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Uint64:
		// Values above MaxInt64 are outside the evaluator's range.
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Float32:
		v := newVector(vecFloat, n)
		for i := 0; i < n; i++ {
			v.valid[i] = arr.IsValid(i)
			if v.valid[i] {
				v.floats[i] = float64(arr.Value(i))
			}
		}
		return v, nil
	case *array.Float64:
		v := newVector(vecFloat, n)
		for i := 0; i < n; i++ {
			v.valid[i] = arr.IsValid(i)
			if v.valid[i] {
				v.floats[i] = arr.Value(i)
			}
		}
		return v, nil
	case *array.Date32:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Timestamp:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	case *array.Time64:
		return intVector(n, arr.IsValid, func(i int) int64 { return int64(arr.Value(i)) }), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"expressions are not defined for logical type %s", s.DataType()).
			WithDetail("dtype", s.DataType().String())
	}
}

func intVector(n int, isValid func(int) bool, value func(int) int64) *vector {
	v := newVector(vecInt, n)
	for i := 0; i < n; i++ {
		v.valid[i] = isValid(i)
		if v.valid[i] {
			v.ints[i] = value(i)
		}
	}
	return v
}

func broadcast(lit literal, n int) *vector {
	v := newVector(lit.kind, n)
	for i := 0; i < n; i++ {
		v.valid[i] = true
		switch lit.kind {
		case vecBool:
			v.bools[i] = lit.b
		case vecInt:
			v.ints[i] = lit.i
		case vecFloat:
			v.floats[i] = lit.f
		case vecString:
			v.strs[i] = lit.s
		}
	}
	return v
}

func evalNot(v *vector) (*vector, error) {
	if v.kind != vecBool {
		return nil, errors.Newf(errors.ErrorTypeValidation, "not requires a boolean operand, got %s", v.kind)
	}
	out := newVector(vecBool, v.len())
	for i := range v.valid {
		out.valid[i] = v.valid[i]
		out.bools[i] = !v.bools[i]
	}
	return out, nil
}

func evalBinary(op string, l, r *vector) (*vector, error) {
	if l.len() != r.len() {
		return nil, errors.Newf(errors.ErrorTypeInternal,
			"operand lengths differ: %d vs %d", l.len(), r.len())
	}

	switch op {
	case "and", "or":
		return evalLogic(op, l, r)
	case "eq", "neq", "gt", "gte", "lt", "lte":
		return evalCompare(op, l, r)
	case "add", "sub", "mul", "div":
		return evalArith(op, l, r)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown operator %q", op)
	}
}

func evalLogic(op string, l, r *vector) (*vector, error) {
	if l.kind != vecBool || r.kind != vecBool {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"%s requires boolean operands, got %s and %s", op, l.kind, r.kind)
	}
	out := newVector(vecBool, l.len())
	for i := range out.valid {
		out.valid[i] = l.valid[i] && r.valid[i]
		if !out.valid[i] {
			continue
		}
		if op == "and" {
			out.bools[i] = l.bools[i] && r.bools[i]
		} else {
			out.bools[i] = l.bools[i] || r.bools[i]
		}
	}
	return out, nil
}

func evalCompare(op string, l, r *vector) (*vector, error) {
	out := newVector(vecBool, l.len())

	switch {
	case l.kind == vecString && r.kind == vecString:
		for i := range out.valid {
			out.valid[i] = l.valid[i] && r.valid[i]
			if out.valid[i] {
				out.bools[i] = compareOrdered(op, l.strs[i], r.strs[i])
			}
		}
	case l.kind == vecBool && r.kind == vecBool:
		if op != "eq" && op != "neq" {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"%s is not defined for boolean operands", op)
		}
		for i := range out.valid {
			out.valid[i] = l.valid[i] && r.valid[i]
			if out.valid[i] {
				out.bools[i] = (l.bools[i] == r.bools[i]) == (op == "eq")
			}
		}
	case l.kind == vecInt && r.kind == vecInt:
		for i := range out.valid {
			out.valid[i] = l.valid[i] && r.valid[i]
			if out.valid[i] {
				out.bools[i] = compareOrdered(op, l.ints[i], r.ints[i])
			}
		}
	case isNumeric(l.kind) && isNumeric(r.kind):
		lf, rf := l.asFloats(), r.asFloats()
		for i := range out.valid {
			out.valid[i] = l.valid[i] && r.valid[i]
			if out.valid[i] {
				out.bools[i] = compareOrdered(op, lf[i], rf[i])
			}
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"cannot compare %s with %s", l.kind, r.kind)
	}
	return out, nil
}

func evalArith(op string, l, r *vector) (*vector, error) {
	if !isNumeric(l.kind) || !isNumeric(r.kind) {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"%s requires numeric operands, got %s and %s", op, l.kind, r.kind)
	}

	if l.kind == vecInt && r.kind == vecInt {
		out := newVector(vecInt, l.len())
		for i := range out.valid {
			out.valid[i] = l.valid[i] && r.valid[i]
			if !out.valid[i] {
				continue
			}
			a, b := l.ints[i], r.ints[i]
			switch op {
			case "add":
				out.ints[i] = a + b
			case "sub":
				out.ints[i] = a - b
			case "mul":
				out.ints[i] = a * b
			case "div":
				if b == 0 {
					out.valid[i] = false
				} else {
					out.ints[i] = a / b
				}
			}
		}
		return out, nil
	}

	lf, rf := l.asFloats(), r.asFloats()
	out := newVector(vecFloat, l.len())
	for i := range out.valid {
		out.valid[i] = l.valid[i] && r.valid[i]
		if !out.valid[i] {
			continue
		}
		a, b := lf[i], rf[i]
		switch op {
		case "add":
			out.floats[i] = a + b
		case "sub":
			out.floats[i] = a - b
		case "mul":
			out.floats[i] = a * b
		case "div":
			out.floats[i] = a / b
		}
	}
	return out, nil
}

func isNumeric(k vecKind) bool { return k == vecInt || k == vecFloat }

func (v *vector) asFloats() []float64 {
	if v.kind == vecFloat {
		return v.floats
	}
	out := make([]float64, len(v.ints))
	for i, x := range v.ints {
		out[i] = float64(x)
	}
	return out
}

func compareOrdered[T interface {
	~int64 | ~float64 | ~string
}](op string, a, b T) bool {
	switch op {
	case "eq":
		return a == b
	case "neq":
		return a != b
	case "gt":
		return a > b
	case "gte":
		return a >= b
	case "lt":
		return a < b
	default:
		return a <= b
	}
}
