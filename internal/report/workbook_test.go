package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/service"
	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
)

func overview(t *testing.T) *domain.Overview {
	t.Helper()
	d := decimal.NewFromInt
	day := func(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }
	ds := &domain.Dataset{
		Workers: []domain.Worker{
			{ID: 1, Salary: d(100000), JoiningDate: day(2014, 2, 20), Department: "HR"},
			{ID: 2, Salary: d(80000), JoiningDate: day(2014, 6, 11), Department: "Admin"},
			{ID: 3, Salary: d(300000), JoiningDate: day(2014, 2, 20), Department: "HR"},
			{ID: 4, Salary: d(500000), JoiningDate: day(2014, 2, 20), Department: "Admin"},
		},
		Bonuses: []domain.Bonus{
			{WorkerRefID: 1, Amount: d(5000), Date: day(2016, 2, 20)},
			{WorkerRefID: 2, Amount: d(3000), Date: day(2016, 6, 11)},
		},
		Titles: []domain.Title{
			{WorkerRefID: 1, Title: "Manager"},
			{WorkerRefID: 2, Title: "Executive"},
		},
	}
	svc := service.NewDashboardService(service.NewSnapshot(context.Background(), ds), 5, 2)
	ov, err := svc.Overview(context.Background(), domain.JoinRaw)
	require.NoError(t, err)
	require.Empty(t, ov.Errors)
	return ov
}

func TestWriteXLSX(t *testing.T) {
	tmpl, err := LoadTemplate("")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, overview(t), tmpl))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Key Metrics", "Salary", "Bonus", "Titles"}, f.GetSheetList())

	cell := func(sheet, axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Key Metrics", cell("Key Metrics", "A1"))
	assert.Equal(t, "Total Salary", cell("Key Metrics", "A3"))
	assert.Equal(t, "980000", cell("Key Metrics", "B3"))
	assert.Equal(t, "Workers", cell("Key Metrics", "A8"))
	assert.Equal(t, "4", cell("Key Metrics", "B8"))

	// monthly salary vs bonus sits right of the summary
	assert.Equal(t, "Month", cell("Key Metrics", "D2"))
	assert.Equal(t, "2016-02", cell("Key Metrics", "D3"))

	// department means, largest first
	assert.Equal(t, "Group", cell("Salary", "D2"))
	assert.Equal(t, "Admin", cell("Salary", "D3"))
	assert.Equal(t, "HR", cell("Salary", "D4"))
}

func TestNewWorkbookErrorsSheet(t *testing.T) {
	ov := &domain.Overview{
		Mode:   domain.JoinRaw,
		Titles: &domain.TitleComparisonView{MeanSalary: aggregate.Series{{Key: "Lead", Value: decimal.NewFromInt(10)}}},
		Errors: map[string]string{"salary": "boom", "bonus": "bang"},
	}
	exporter, err := NewWorkbook(ov, defaultTemplate)
	require.NoError(t, err)
	assert.Equal(t, []string{"Key Metrics", "Salary", "Bonus", "Titles", ErrorsSheet}, exporter.SheetNames())

	f, err := exporter.BuildExcel()
	require.NoError(t, err)
	defer f.Close()

	v, _ := f.GetCellValue(ErrorsSheet, "A3")
	assert.Equal(t, "bonus", v)
	v, _ = f.GetCellValue(ErrorsSheet, "B4")
	assert.Equal(t, "boom", v)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, overview(t), defaultTemplate))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Key Metrics\n"))
	assert.Contains(t, out, "Total Salary,980000\n")
	assert.Contains(t, out, "# Titles\n")
	assert.Contains(t, out, "Manager,100000,5000\n")
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	custom := "sheets:\n  - name: Only\n    sections:\n      - id: km_summary\n        show_header: true\n"
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	exporter, err := NewWorkbook(overview(t), tmpl)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, exporter.SheetNames())

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
