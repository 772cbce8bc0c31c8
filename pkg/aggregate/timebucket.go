package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BucketOption tunes TimeBucket.
type BucketOption func(*bucketConfig)

type bucketConfig struct {
	zeroFill bool
	loc      *time.Location
}

// WithZeroFill emits every period between the first and the last observed
// one, with Value 0 and Count 0 for empty periods. Without it empty periods
// are omitted.
func WithZeroFill() BucketOption {
	return func(c *bucketConfig) { c.zeroFill = true }
}

// InLocation buckets dates in loc instead of UTC.
func InLocation(loc *time.Location) BucketOption {
	return func(c *bucketConfig) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// TimeBucket groups rows by the calendar period of dateField and reduces
// metric with op. Rows without a date are dropped. The output is ascending
// by period with no duplicate periods.
func (r *Relation[R]) TimeBucket(dateField string, g Granularity, metric string, op Op, opts ...BucketOption) (TimeSeries, error) {
	if err := checkOp(op, "time bucket"); err != nil {
		return nil, err
	}
	switch g {
	case Day, Month, Quarter, Year:
	default:
		return nil, &AggregationError{Field: string(g), Op: "time bucket"}
	}
	df, err := r.schema.dateField(dateField, "time bucket")
	if err != nil {
		return nil, err
	}
	mf, err := r.schema.numericField(metric, "time bucket")
	if err != nil {
		return nil, err
	}

	cfg := bucketConfig{loc: time.UTC}
	for _, o := range opts {
		o(&cfg)
	}

	buckets := make(map[time.Time]*accumulator)
	for _, row := range r.rows {
		d, ok := df(row)
		if !ok {
			continue
		}
		p := g.Truncate(d.In(cfg.loc))
		acc := buckets[p]
		if acc == nil {
			acc = &accumulator{}
			buckets[p] = acc
		}
		if v, ok := mf(row); ok {
			acc.add(v)
		}
	}

	periods := make([]time.Time, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	if !cfg.zeroFill || len(periods) == 0 {
		out := make(TimeSeries, 0, len(periods))
		for _, p := range periods {
			acc := buckets[p]
			out = append(out, TimePoint{Period: p, Value: acc.result(op), Count: acc.count})
		}
		return out, nil
	}

	last := periods[len(periods)-1]
	var out TimeSeries
	for p := periods[0]; !p.After(last); p = g.Next(p) {
		if acc, ok := buckets[p]; ok {
			out = append(out, TimePoint{Period: p, Value: acc.result(op), Count: acc.count})
		} else {
			out = append(out, TimePoint{Period: p, Value: decimal.Zero})
		}
	}
	return out, nil
}
