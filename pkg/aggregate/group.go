package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
)

func checkOp(op Op, call string) error {
	switch op {
	case OpSum, OpMean, OpMin, OpMax, OpCount:
		return nil
	}
	return &AggregationError{Field: string(op), Op: call}
}

// GroupBy partitions rows by key and reduces metric with op in every group.
// The result is ordered ascending by key. Rows with a missing key are
// dropped; a group without metric observations reports Value 0, Count 0.
func (r *Relation[R]) GroupBy(key, metric string, op Op) (Series, error) {
	if err := checkOp(op, "group by"); err != nil {
		return nil, err
	}
	kf, err := r.schema.labelField(key, "group by")
	if err != nil {
		return nil, err
	}
	mf, err := r.schema.numericField(metric, "group by")
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*accumulator)
	for _, row := range r.rows {
		k, ok := kf(row)
		if !ok {
			continue
		}
		acc := groups[k]
		if acc == nil {
			acc = &accumulator{}
			groups[k] = acc
		}
		if v, ok := mf(row); ok {
			acc.add(v)
		}
	}

	out := make(Series, 0, len(groups))
	for k, acc := range groups {
		out = append(out, Point{Key: k, Value: acc.result(op), Count: acc.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Pivot groups by the composite (rowKey, colKey) and lays the result out as
// a dense matrix. Combinations that never occur are zero, never absent.
func (r *Relation[R]) Pivot(rowKey, colKey, metric string, op Op) (Matrix, error) {
	if err := checkOp(op, "pivot"); err != nil {
		return Matrix{}, err
	}
	rf, err := r.schema.labelField(rowKey, "pivot")
	if err != nil {
		return Matrix{}, err
	}
	cf, err := r.schema.labelField(colKey, "pivot")
	if err != nil {
		return Matrix{}, err
	}
	mf, err := r.schema.numericField(metric, "pivot")
	if err != nil {
		return Matrix{}, err
	}

	type cell struct{ row, col string }
	cells := make(map[cell]*accumulator)
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for _, row := range r.rows {
		rk, rok := rf(row)
		ck, cok := cf(row)
		if !rok || !cok {
			continue
		}
		rowSet[rk] = struct{}{}
		colSet[ck] = struct{}{}
		c := cell{rk, ck}
		acc := cells[c]
		if acc == nil {
			acc = &accumulator{}
			cells[c] = acc
		}
		if v, ok := mf(row); ok {
			acc.add(v)
		}
	}

	m := Matrix{
		RowKey: rowKey,
		ColKey: colKey,
		Rows:   sortedKeys(rowSet),
		Cols:   sortedKeys(colSet),
	}
	m.Values = make([][]decimal.Decimal, len(m.Rows))
	for i, rk := range m.Rows {
		m.Values[i] = make([]decimal.Decimal, len(m.Cols))
		for j, ck := range m.Cols {
			if acc := cells[cell{rk, ck}]; acc != nil {
				m.Values[i][j] = acc.result(op)
			} else {
				m.Values[i][j] = decimal.Zero
			}
		}
	}
	return m, nil
}

// TopN returns the n groups with the largest values, descending. Equal
// values are ordered by ascending key, so the selection is deterministic.
// n <= 0 yields an empty series.
func (r *Relation[R]) TopN(key, metric string, op Op, n int) (Series, error) {
	s, err := r.GroupBy(key, metric, op)
	if err != nil {
		return nil, err
	}
	SortDescending(s)
	if n <= 0 {
		return Series{}, nil
	}
	if n < len(s) {
		s = s[:n]
	}
	return s, nil
}

// SortDescending orders a series by value, largest first, ties by key.
func SortDescending(s Series) {
	sort.SliceStable(s, func(i, j int) bool {
		if c := s[i].Value.Cmp(s[j].Value); c != 0 {
			return c > 0
		}
		return s[i].Key < s[j].Key
	})
}

// ArgMax returns the point with the largest value (ties → smallest key).
func ArgMax(s Series) (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	best := s[0]
	for _, p := range s[1:] {
		if c := p.Value.Cmp(best.Value); c > 0 || (c == 0 && p.Key < best.Key) {
			best = p
		}
	}
	return best, true
}

// ArgMin returns the point with the smallest value (ties → smallest key).
func ArgMin(s Series) (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	best := s[0]
	for _, p := range s[1:] {
		if c := p.Value.Cmp(best.Value); c < 0 || (c == 0 && p.Key < best.Key) {
			best = p
		}
	}
	return best, true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
