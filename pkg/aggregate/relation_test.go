package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staffRow struct {
	ID     int64
	Salary *decimal.Decimal
	Dept   string
	Title  string
	Joined time.Time
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func staffSchema() *Schema[staffRow] {
	return NewSchema[staffRow]("staff").
		Numeric("id", func(r staffRow) (decimal.Decimal, bool) {
			return decimal.NewFromInt(r.ID), true
		}).
		Numeric("salary", func(r staffRow) (decimal.Decimal, bool) {
			if r.Salary == nil {
				return decimal.Zero, false
			}
			return *r.Salary, true
		}).
		Label("department", func(r staffRow) (string, bool) {
			return r.Dept, r.Dept != ""
		}).
		Label("title", func(r staffRow) (string, bool) {
			return r.Title, r.Title != ""
		}).
		Date("joined", func(r staffRow) (time.Time, bool) {
			return r.Joined, !r.Joined.IsZero()
		})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleStaff() *Relation[staffRow] {
	return New(staffSchema(), []staffRow{
		{ID: 1, Salary: dec(100), Dept: "Eng", Title: "Manager", Joined: day(2021, 1, 15)},
		{ID: 2, Salary: dec(200), Dept: "Eng", Title: "Executive", Joined: day(2021, 1, 20)},
		{ID: 3, Salary: dec(300), Dept: "Admin", Title: "Manager", Joined: day(2021, 3, 2)},
		{ID: 4, Salary: nil, Dept: "HR", Title: "Lead", Joined: day(2021, 6, 1)},
		{ID: 5, Salary: dec(50), Dept: "", Title: "Lead"},
	})
}

func TestScalarReductions(t *testing.T) {
	rel := New(staffSchema(), []staffRow{
		{ID: 1, Salary: dec(100), Dept: "Eng"},
		{ID: 2, Salary: dec(200), Dept: "Eng"},
	})

	sum, err := rel.Sum("salary")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(300)))

	mean, err := rel.Mean("salary")
	require.NoError(t, err)
	assert.True(t, mean.Equal(decimal.NewFromInt(150)))

	s, err := rel.GroupBy("department", "salary", OpMean)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, "Eng", s[0].Key)
	assert.True(t, s[0].Value.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, s[0].Count)
}

func TestMissingValuesAreSkipped(t *testing.T) {
	rel := sampleStaff()

	summary, err := rel.Describe("salary")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.True(t, summary.Sum.Equal(decimal.NewFromInt(650)))
	assert.True(t, summary.Min.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.Max.Equal(decimal.NewFromInt(300)))
	assert.True(t, summary.Mean.Equal(decimal.RequireFromString("162.5")))

	n, err := rel.DistinctCount("department")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEmptyRelationReturnsZero(t *testing.T) {
	rel := New(staffSchema(), nil)

	for _, op := range []Op{OpSum, OpMean, OpMin, OpMax, OpCount} {
		v, err := rel.Aggregate("salary", op)
		require.NoError(t, err)
		assert.True(t, v.IsZero(), "op %s", op)
	}

	s, err := rel.GroupBy("department", "salary", OpSum)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestGroupBySumMatchesTotal(t *testing.T) {
	rel := sampleStaff()

	total, err := rel.Sum("salary")
	require.NoError(t, err)

	means, err := rel.GroupBy("department", "salary", OpMean)
	require.NoError(t, err)

	// the row without a department is dropped from the groups
	recombined := decimal.Zero
	for _, p := range means {
		recombined = recombined.Add(p.Value.Mul(decimal.NewFromInt(int64(p.Count))))
	}
	assert.True(t, recombined.Add(decimal.NewFromInt(50)).Equal(total))

	assert.Equal(t, []string{"Admin", "Eng", "HR"}, means.Keys())
	hr, ok := means.Lookup("HR")
	require.True(t, ok)
	assert.True(t, hr.IsZero())
	assert.Equal(t, 0, means[2].Count)
}

func TestPivotZeroFillsUnobservedCells(t *testing.T) {
	m, err := sampleStaff().Pivot("department", "title", "salary", OpMean)
	require.NoError(t, err)

	assert.Equal(t, []string{"Admin", "Eng", "HR"}, m.Rows)
	assert.Equal(t, []string{"Executive", "Lead", "Manager"}, m.Cols)
	require.Len(t, m.Values, 3)
	for _, row := range m.Values {
		require.Len(t, row, 3)
	}
	assert.True(t, m.At("Admin", "Manager").Equal(decimal.NewFromInt(300)))
	assert.True(t, m.At("Admin", "Executive").IsZero())
	assert.True(t, m.At("Eng", "Executive").Equal(decimal.NewFromInt(200)))
	assert.True(t, m.At("Nowhere", "Lead").IsZero())
}

func TestTopN(t *testing.T) {
	rel := New(staffSchema(), []staffRow{
		{ID: 1, Salary: dec(100), Dept: "B"},
		{ID: 2, Salary: dec(100), Dept: "A"},
		{ID: 3, Salary: dec(300), Dept: "C"},
		{ID: 4, Salary: dec(10), Dept: "D"},
	})

	top, err := rel.TopN("department", "salary", OpSum, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, top.Keys())

	all, err := rel.TopN("department", "salary", OpSum, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Value.GreaterThan(all[i-1].Value))
	}

	none, err := rel.TopN("department", "salary", OpSum, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTimeBucket(t *testing.T) {
	rel := sampleStaff()

	ts, err := rel.TimeBucket("joined", Month, "salary", OpSum)
	require.NoError(t, err)
	require.Len(t, ts, 3)
	assert.Equal(t, day(2021, 1, 1), ts[0].Period)
	assert.True(t, ts[0].Value.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, day(2021, 3, 1), ts[1].Period)
	assert.Equal(t, day(2021, 6, 1), ts[2].Period)
	assert.Equal(t, 0, ts[2].Count)

	for i := 1; i < len(ts); i++ {
		assert.True(t, ts[i].Period.After(ts[i-1].Period))
	}

	filled, err := rel.TimeBucket("joined", Month, "salary", OpSum, WithZeroFill())
	require.NoError(t, err)
	assert.Len(t, filled, 6)
	assert.True(t, filled[1].Value.IsZero())

	quarters, err := rel.TimeBucket("joined", Quarter, "salary", OpCount)
	require.NoError(t, err)
	require.Len(t, quarters, 2)
	assert.True(t, quarters[0].Value.Equal(decimal.NewFromInt(3)))
}

func TestQuantiles(t *testing.T) {
	rel := New(staffSchema(), []staffRow{
		{ID: 1, Salary: dec(1), Title: "A"},
		{ID: 2, Salary: dec(2), Title: "A"},
		{ID: 3, Salary: dec(3), Title: "A"},
		{ID: 4, Salary: dec(4), Title: "A"},
		{ID: 5, Salary: dec(7), Title: "B"},
	})

	stats, err := rel.Quantiles("title", "salary")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	a := stats[0]
	assert.Equal(t, "A", a.Key)
	assert.Equal(t, 4, a.Count)
	assert.True(t, a.Min.Equal(decimal.NewFromInt(1)))
	assert.True(t, a.Q1.Equal(decimal.RequireFromString("1.75")))
	assert.True(t, a.Median.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, a.Q3.Equal(decimal.RequireFromString("3.25")))
	assert.True(t, a.Max.Equal(decimal.NewFromInt(4)))

	b := stats[1]
	assert.True(t, b.Q1.Equal(decimal.NewFromInt(7)))
	assert.True(t, b.Median.Equal(decimal.NewFromInt(7)))
}

func TestDistinctByAndWhere(t *testing.T) {
	rel := New(staffSchema(), []staffRow{
		{ID: 1, Salary: dec(100), Dept: "Eng", Title: "A"},
		{ID: 1, Salary: dec(100), Dept: "Eng", Title: "B"},
		{ID: 2, Salary: dec(200), Dept: "Eng", Title: "A"},
	})

	dedup, err := rel.DistinctBy("id")
	require.NoError(t, err)
	assert.Equal(t, 2, dedup.Len())
	sum, err := dedup.Sum("salary")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "A", dedup.Rows()[0].Title)

	eng := rel.Where(func(r staffRow) bool { return r.Title == "B" })
	assert.Equal(t, 1, eng.Len())
}

func TestPoints(t *testing.T) {
	pts, err := sampleStaff().Points("id", "salary", "title")
	require.NoError(t, err)
	require.Len(t, pts, 4)
	assert.Equal(t, "Manager", pts[0].Label)
}

func TestAggregationErrors(t *testing.T) {
	rel := sampleStaff()

	_, err := rel.Sum("bonus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))

	var aerr *AggregationError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "staff", aerr.Relation)
	assert.Equal(t, "bonus", aerr.Field)

	_, err = rel.GroupBy("salary", "salary", OpSum)
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, KindNumeric, aerr.Have)
	assert.Equal(t, KindLabel, aerr.Want)
	assert.Contains(t, err.Error(), "want label")

	_, err = rel.GroupBy("department", "salary", Op("median"))
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = rel.TimeBucket("department", Month, "salary", OpSum)
	assert.ErrorIs(t, err, ErrUnknownField)

	// other calls on the same relation are unaffected
	_, err = rel.Sum("salary")
	assert.NoError(t, err)
}

func TestParseOpAndGranularity(t *testing.T) {
	op, err := ParseOp(" AVG ")
	require.NoError(t, err)
	assert.Equal(t, OpMean, op)

	_, err = ParseOp("median")
	assert.ErrorIs(t, err, ErrUnknownField)

	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, Month, g)

	g, err = ParseGranularity("q")
	require.NoError(t, err)
	assert.Equal(t, Quarter, g)
	assert.Equal(t, day(2021, 4, 1), g.Truncate(day(2021, 5, 31)))
	assert.Equal(t, day(2021, 7, 1), g.Next(day(2021, 4, 1)))

	_, err = ParseGranularity("week")
	assert.Error(t, err)
}

func TestSchemaPanicsOnDuplicateField(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema[staffRow]("dup").
			Label("x", func(staffRow) (string, bool) { return "", false }).
			Label("x", func(staffRow) (string, bool) { return "", false })
	})
}

func TestArgMaxArgMinTieBreak(t *testing.T) {
	s := Series{
		{Key: "b", Value: decimal.NewFromInt(5)},
		{Key: "a", Value: decimal.NewFromInt(5)},
		{Key: "c", Value: decimal.NewFromInt(1)},
	}
	hi, ok := ArgMax(s)
	require.True(t, ok)
	assert.Equal(t, "a", hi.Key)
	lo, _ := ArgMin(s)
	assert.Equal(t, "c", lo.Key)

	_, ok = ArgMax(nil)
	assert.False(t, ok)
}
