package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Op is a reduction applied to the metric values of a group.
type Op string

const (
	OpSum   Op = "sum"
	OpMean  Op = "mean"
	OpMin   Op = "min"
	OpMax   Op = "max"
	OpCount Op = "count"
)

// ParseOp accepts the op names plus "avg" and "average" as aliases of mean.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return OpSum, nil
	case "mean", "avg", "average":
		return OpMean, nil
	case "min":
		return OpMin, nil
	case "max":
		return OpMax, nil
	case "count":
		return OpCount, nil
	}
	return "", &AggregationError{Field: s, Op: "parse op"}
}

// Granularity is the width of a time bucket.
type Granularity string

const (
	Day     Granularity = "day"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// ParseGranularity defaults to Month for an empty string.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month", "m":
		return Month, nil
	case "day", "d":
		return Day, nil
	case "quarter", "q":
		return Quarter, nil
	case "year", "y":
		return Year, nil
	}
	return "", &AggregationError{Field: s, Op: "parse granularity"}
}

// Truncate returns the start of the period containing t, in t's location.
func (g Granularity) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Quarter:
		q := (int(m)-1)/3*3 + 1
		return time.Date(y, time.Month(q), 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

// Next returns the start of the period after the one starting at t.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Day:
		return t.AddDate(0, 0, 1)
	case Quarter:
		return t.AddDate(0, 3, 0)
	case Year:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Point is one group of a Series.
type Point struct {
	Key   string          `json:"key"`
	Value decimal.Decimal `json:"value"`
	Count int             `json:"count"` // metric observations in the group
}

// Series is an ordered key/value sequence, ready for bar, pie or line charts.
type Series []Point

// Keys returns the keys in order.
func (s Series) Keys() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Key
	}
	return out
}

// Lookup finds the value of key.
func (s Series) Lookup(key string) (decimal.Decimal, bool) {
	for _, p := range s {
		if p.Key == key {
			return p.Value, true
		}
	}
	return decimal.Zero, false
}

// Mean averages the values of the series; zero when it is empty.
func (s Series) Mean() decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range s {
		sum = sum.Add(p.Value)
	}
	return sum.Div(decimal.NewFromInt(int64(len(s))))
}

// Matrix is a dense two-dimensional pivot. Values[i][j] belongs to Rows[i] × Cols[j].
type Matrix struct {
	RowKey string              `json:"row_key"`
	ColKey string              `json:"col_key"`
	Rows   []string            `json:"rows"`
	Cols   []string            `json:"cols"`
	Values [][]decimal.Decimal `json:"values"`
}

// At returns the cell for (row, col). Unknown labels read as zero.
func (m Matrix) At(row, col string) decimal.Decimal {
	ri, ci := indexOf(m.Rows, row), indexOf(m.Cols, col)
	if ri < 0 || ci < 0 {
		return decimal.Zero
	}
	return m.Values[ri][ci]
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// TimePoint is one period of a TimeSeries.
type TimePoint struct {
	Period time.Time       `json:"period"`
	Value  decimal.Decimal `json:"value"`
	Count  int             `json:"count"`
}

// TimeSeries is ordered ascending by Period with unique periods.
type TimeSeries []TimePoint

// Summary holds the descriptive statistics of one numeric field.
type Summary struct {
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
	Mean  decimal.Decimal `json:"mean"`
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
}

// BoxStats is the five-number summary of a group.
type BoxStats struct {
	Key    string          `json:"key"`
	Count  int             `json:"count"`
	Min    decimal.Decimal `json:"min"`
	Q1     decimal.Decimal `json:"q1"`
	Median decimal.Decimal `json:"median"`
	Q3     decimal.Decimal `json:"q3"`
	Max    decimal.Decimal `json:"max"`
}

// ScatterPoint is one (x, y) observation with an optional category label.
type ScatterPoint struct {
	X     decimal.Decimal `json:"x"`
	Y     decimal.Decimal `json:"y"`
	Label string          `json:"label,omitempty"`
}
