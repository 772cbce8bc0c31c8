// Package report turns dashboard views into workbook and CSV exports.
package report

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
	"github.com/locvowork/workforce_dashboard/pkg/simpleexcel"
)

//go:embed templates/dashboard.yaml
var defaultTemplate string

// ErrorsSheet lists views that failed to compute.
const ErrorsSheet = "Errors"

// LoadTemplate reads a workbook template; an empty path yields the embedded
// default.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read report template: %w", err)
	}
	return string(data), nil
}

type metricRow struct {
	Metric string
	Value  interface{}
}

type distributionRow struct {
	Group    string
	Subgroup string
	Value    decimal.Decimal
}

type monthlyRow struct {
	Period time.Time
	Salary decimal.Decimal
	Bonus  decimal.Decimal
}

type titleRow struct {
	Title      string
	MeanSalary decimal.Decimal
	MeanBonus  decimal.Decimal
}

type errorRow struct {
	View  string
	Error string
}

// NewWorkbook binds an Overview to the sections of tmpl (see LoadTemplate).
// Views missing from the overview leave their sections empty; their errors
// go to an extra sheet.
func NewWorkbook(ov *domain.Overview, tmpl string) (*simpleexcel.DataExporter, error) {
	exporter, err := simpleexcel.NewDataExporterFromYamlConfig(tmpl)
	if err != nil {
		return nil, err
	}
	exporter.
		RegisterFormatter("money", money).
		RegisterFormatter("month", month)

	for id, data := range sections(ov) {
		exporter.BindSectionData(id, data)
	}

	if len(ov.Errors) > 0 {
		rows := make([]errorRow, 0, len(ov.Errors))
		for view, msg := range ov.Errors {
			rows = append(rows, errorRow{View: view, Error: msg})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].View < rows[j].View })
		exporter.AddSheet(ErrorsSheet).AddSection(&simpleexcel.SectionConfig{
			Title:      "Failed Views",
			ShowHeader: true,
			Data:       rows,
			Columns: []simpleexcel.ColumnConfig{
				{FieldName: "View", Header: "View", Width: 16},
				{FieldName: "Error", Header: "Error", Width: 80},
			},
		})
	}
	return exporter, nil
}

// WriteXLSX writes the overview workbook to w.
func WriteXLSX(w io.Writer, ov *domain.Overview, tmpl string) error {
	exporter, err := NewWorkbook(ov, tmpl)
	if err != nil {
		return err
	}
	return exporter.ToWriter(w)
}

// WriteCSV writes the overview workbook as sectioned CSV to w.
func WriteCSV(w io.Writer, ov *domain.Overview, tmpl string) error {
	exporter, err := NewWorkbook(ov, tmpl)
	if err != nil {
		return err
	}
	return exporter.ToCSV(w)
}

func sections(ov *domain.Overview) map[string]interface{} {
	out := map[string]interface{}{}

	if km := ov.KeyMetrics; km != nil {
		out["km_summary"] = []metricRow{
			{"Total Salary", km.TotalSalary},
			{"Average Salary", km.AverageSalary},
			{"Highest Salary", km.HighestSalary},
			{"Lowest Salary", km.LowestSalary},
			{"Departments", km.Departments},
			{"Workers", km.Workers},
		}
		out["km_monthly"] = monthly(km.MonthlySalary, km.MonthlyBonus)
		out["km_scatter"] = km.SalaryVsBonus
	}

	if sv := ov.Salary; sv != nil {
		out["salary_summary"] = summaryRows(sv.Summary)
		out["salary_distribution"] = distribution(sv)
		out["salary_joining"] = sv.ByJoiningMonth
		out["salary_top_departments"] = sv.TopDepartments
		out["salary_top_titles"] = sv.TopTitles
	}

	if bv := ov.Bonus; bv != nil {
		out["bonus_summary"] = []metricRow{
			{"Total Bonus", bv.TotalBonus},
			{"Average Bonus per Worker", bv.AverageBonusPerWorker},
			{"Transactions", bv.Transactions},
		}
		out["bonus_share"] = bv.Share
		out["bonus_monthly"] = bv.Monthly
		out["bonus_top_titles"] = bv.TopTitles
		out["bonus_top_departments"] = bv.TopDepartments
	}

	if tv := ov.Titles; tv != nil {
		rows := []metricRow{{"Titles", tv.Titles}}
		if tv.HighestAvgSalary != nil {
			rows = append(rows, metricRow{"Highest Avg Salary: " + tv.HighestAvgSalary.Key, tv.HighestAvgSalary.Value})
		}
		if tv.LowestAvgSalary != nil {
			rows = append(rows, metricRow{"Lowest Avg Salary: " + tv.LowestAvgSalary.Key, tv.LowestAvgSalary.Value})
		}
		out["titles_summary"] = rows
		out["titles_means"] = titleMeans(tv)
		out["titles_box"] = tv.SalaryDistribution
	}
	return out
}

func summaryRows(s aggregate.Summary) []metricRow {
	return []metricRow{
		{"Workers", s.Count},
		{"Total", s.Sum},
		{"Mean", s.Mean},
		{"Min", s.Min},
		{"Max", s.Max},
	}
}

// distribution flattens whichever breakdown the view carries.
func distribution(sv *domain.SalaryBreakdownView) []distributionRow {
	var rows []distributionRow
	switch {
	case sv.Matrix != nil:
		for i, r := range sv.Matrix.Rows {
			for j, c := range sv.Matrix.Cols {
				rows = append(rows, distributionRow{Group: r, Subgroup: c, Value: sv.Matrix.Values[i][j]})
			}
		}
	case sv.ByTitle != nil:
		for _, p := range sv.ByTitle {
			rows = append(rows, distributionRow{Group: p.Key, Value: p.Value})
		}
	default:
		for _, p := range sv.ByDepartment {
			rows = append(rows, distributionRow{Group: p.Key, Value: p.Value})
		}
	}
	return rows
}

// monthly aligns two ascending series on their periods.
func monthly(salary, bonus aggregate.TimeSeries) []monthlyRow {
	byPeriod := make(map[time.Time]*monthlyRow)
	var rows []*monthlyRow
	row := func(t time.Time) *monthlyRow {
		if r, ok := byPeriod[t]; ok {
			return r
		}
		r := &monthlyRow{Period: t}
		byPeriod[t] = r
		rows = append(rows, r)
		return r
	}
	for _, p := range salary {
		row(p.Period).Salary = p.Value
	}
	for _, p := range bonus {
		row(p.Period).Bonus = p.Value
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period.Before(rows[j].Period) })

	out := make([]monthlyRow, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out
}

func titleMeans(tv *domain.TitleComparisonView) []titleRow {
	rows := make([]titleRow, 0, len(tv.MeanSalary))
	for _, p := range tv.MeanSalary {
		bonus, _ := tv.MeanBonus.Lookup(p.Key)
		rows = append(rows, titleRow{Title: p.Key, MeanSalary: p.Value, MeanBonus: bonus})
	}
	return rows
}

// money renders decimals as numbers so spreadsheet formulas work on them.
func money(v interface{}) interface{} {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.InexactFloat64()
	case *decimal.Decimal:
		if d == nil {
			return ""
		}
		return d.InexactFloat64()
	}
	return v
}

func month(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01")
	}
	return v
}
