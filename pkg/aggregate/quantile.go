package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Quantiles computes the five-number summary of metric for every group of
// key, ordered by key. Quartiles use linear interpolation between closest
// ranks, the method box plots conventionally draw with.
func (r *Relation[R]) Quantiles(key, metric string) ([]BoxStats, error) {
	kf, err := r.schema.labelField(key, "quantiles")
	if err != nil {
		return nil, err
	}
	mf, err := r.schema.numericField(metric, "quantiles")
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]decimal.Decimal)
	for _, row := range r.rows {
		k, ok := kf(row)
		if !ok {
			continue
		}
		v, ok := mf(row)
		if !ok {
			if _, seen := groups[k]; !seen {
				groups[k] = nil
			}
			continue
		}
		groups[k] = append(groups[k], v)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]BoxStats, 0, len(keys))
	for _, k := range keys {
		out = append(out, boxStats(k, groups[k]))
	}
	return out, nil
}

func boxStats(key string, vals []decimal.Decimal) BoxStats {
	b := BoxStats{Key: key, Count: len(vals)}
	if len(vals) == 0 {
		return b
	}
	sorted := make([]decimal.Decimal, len(vals))
	copy(sorted, vals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	b.Min = sorted[0]
	b.Max = sorted[len(sorted)-1]
	b.Q1 = Quantile(sorted, decimal.NewFromFloat(0.25))
	b.Median = Quantile(sorted, decimal.NewFromFloat(0.5))
	b.Q3 = Quantile(sorted, decimal.NewFromFloat(0.75))
	return b
}

// Quantile returns the q-th quantile (0 <= q <= 1) of an ascending slice,
// interpolating linearly at position q*(n-1).
func Quantile(sorted []decimal.Decimal, q decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q.Mul(decimal.NewFromInt(int64(n - 1)))
	lo := pos.Floor()
	loIdx := int(lo.IntPart())
	if loIdx >= n-1 {
		return sorted[n-1]
	}
	if loIdx < 0 {
		return sorted[0]
	}
	frac := pos.Sub(lo)
	return sorted[loIdx].Add(sorted[loIdx+1].Sub(sorted[loIdx]).Mul(frac))
}
