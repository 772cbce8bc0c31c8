// Package aggregate implements read-only descriptive statistics over an
// immutable, typed relation: scalar reductions, group-by, pivots, top-N,
// time buckets and five-number summaries.
//
// Every query is a pure function of the relation. A Relation never changes
// after New returns, so queries may run concurrently without locking.
package aggregate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Relation is an ordered, immutable collection of rows with a typed schema.
type Relation[R any] struct {
	schema *Schema[R]
	rows   []R
}

// New copies rows into a new Relation.
func New[R any](schema *Schema[R], rows []R) *Relation[R] {
	cp := make([]R, len(rows))
	copy(cp, rows)
	return &Relation[R]{schema: schema, rows: cp}
}

// Schema returns the relation's schema.
func (r *Relation[R]) Schema() *Schema[R] {
	return r.schema
}

// Len returns the number of rows.
func (r *Relation[R]) Len() int {
	return len(r.rows)
}

// Rows returns a copy of the rows in order.
func (r *Relation[R]) Rows() []R {
	cp := make([]R, len(r.rows))
	copy(cp, r.rows)
	return cp
}

// Where returns the sub-relation of rows matching pred.
func (r *Relation[R]) Where(pred func(R) bool) *Relation[R] {
	out := make([]R, 0, len(r.rows))
	for _, row := range r.rows {
		if pred(row) {
			out = append(out, row)
		}
	}
	return &Relation[R]{schema: r.schema, rows: out}
}

// DistinctBy keeps the first row of every distinct combination of fields.
// Missing values take part in the combination as their own value.
func (r *Relation[R]) DistinctBy(fields ...string) (*Relation[R], error) {
	keys := make([]func(R) (string, bool), len(fields))
	for i, f := range fields {
		fn, err := r.schema.keyField(f, "distinct by")
		if err != nil {
			return nil, err
		}
		keys[i] = fn
	}

	seen := make(map[string]struct{}, len(r.rows))
	out := make([]R, 0, len(r.rows))
	var sb strings.Builder
	for _, row := range r.rows {
		sb.Reset()
		for _, fn := range keys {
			v, ok := fn(row)
			if ok {
				sb.WriteByte('+')
				sb.WriteString(v)
			} else {
				sb.WriteByte('-')
			}
			sb.WriteByte(0)
		}
		k := sb.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return &Relation[R]{schema: r.schema, rows: out}, nil
}

// Sum adds the present values of field.
func (r *Relation[R]) Sum(field string) (decimal.Decimal, error) {
	acc, err := r.reduce(field, "sum")
	return acc.sum, err
}

// Mean averages the present values of field; zero when none are present.
func (r *Relation[R]) Mean(field string) (decimal.Decimal, error) {
	acc, err := r.reduce(field, "mean")
	return acc.result(OpMean), err
}

// Max returns the largest present value; zero when none are present.
func (r *Relation[R]) Max(field string) (decimal.Decimal, error) {
	acc, err := r.reduce(field, "max")
	return acc.max, err
}

// Min returns the smallest present value; zero when none are present.
func (r *Relation[R]) Min(field string) (decimal.Decimal, error) {
	acc, err := r.reduce(field, "min")
	return acc.min, err
}

// Count returns how many rows have a present value for field.
func (r *Relation[R]) Count(field string) (int, error) {
	acc, err := r.reduce(field, "count")
	return acc.count, err
}

// Describe computes every scalar statistic of field in one pass.
func (r *Relation[R]) Describe(field string) (Summary, error) {
	acc, err := r.reduce(field, "describe")
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Count: acc.count,
		Sum:   acc.sum,
		Mean:  acc.result(OpMean),
		Min:   acc.min,
		Max:   acc.max,
	}, nil
}

// DistinctCount counts distinct present values of a field of any kind.
func (r *Relation[R]) DistinctCount(field string) (int, error) {
	fn, err := r.schema.keyField(field, "distinct count")
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{})
	for _, row := range r.rows {
		if v, ok := fn(row); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen), nil
}

// Aggregate applies op to the whole relation.
func (r *Relation[R]) Aggregate(field string, op Op) (decimal.Decimal, error) {
	if err := checkOp(op, "aggregate"); err != nil {
		return decimal.Zero, err
	}
	acc, err := r.reduce(field, string(op))
	if err != nil {
		return decimal.Zero, err
	}
	return acc.result(op), nil
}

// Points returns the (x, y) pairs of rows where both values are present,
// labelled by the label field when one is given.
func (r *Relation[R]) Points(x, y, label string) ([]ScatterPoint, error) {
	xf, err := r.schema.numericField(x, "points")
	if err != nil {
		return nil, err
	}
	yf, err := r.schema.numericField(y, "points")
	if err != nil {
		return nil, err
	}
	var lf LabelFunc[R]
	if label != "" {
		if lf, err = r.schema.labelField(label, "points"); err != nil {
			return nil, err
		}
	}

	out := make([]ScatterPoint, 0, len(r.rows))
	for _, row := range r.rows {
		xv, xok := xf(row)
		yv, yok := yf(row)
		if !xok || !yok {
			continue
		}
		p := ScatterPoint{X: xv, Y: yv}
		if lf != nil {
			p.Label, _ = lf(row)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Relation[R]) reduce(field, op string) (accumulator, error) {
	fn, err := r.schema.numericField(field, op)
	if err != nil {
		return accumulator{}, err
	}
	var acc accumulator
	for _, row := range r.rows {
		if v, ok := fn(row); ok {
			acc.add(v)
		}
	}
	return acc, nil
}

// accumulator folds metric observations. Zero value is an empty fold.
type accumulator struct {
	count    int
	sum      decimal.Decimal
	min, max decimal.Decimal
}

func (a *accumulator) add(v decimal.Decimal) {
	if a.count == 0 {
		a.min, a.max = v, v
	} else {
		if v.LessThan(a.min) {
			a.min = v
		}
		if v.GreaterThan(a.max) {
			a.max = v
		}
	}
	a.sum = a.sum.Add(v)
	a.count++
}

func (a accumulator) result(op Op) decimal.Decimal {
	switch op {
	case OpSum:
		return a.sum
	case OpMean:
		if a.count == 0 {
			return decimal.Zero
		}
		return a.sum.Div(decimal.NewFromInt(int64(a.count)))
	case OpMin:
		return a.min
	case OpMax:
		return a.max
	case OpCount:
		return decimal.NewFromInt(int64(a.count))
	}
	return decimal.Zero
}
