package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/report"
	"github.com/locvowork/workforce_dashboard/internal/service"
	"github.com/locvowork/workforce_dashboard/internal/telemetry"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*echo.Echo, *telemetry.Metric) {
	t.Helper()
	decimal.MarshalJSONWithoutQuotes = true

	d := decimal.NewFromInt
	day := func(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }
	ds := &domain.Dataset{
		Workers: []domain.Worker{
			{ID: 1, Salary: d(100000), JoiningDate: day(2014, 2, 20), Department: "HR"},
			{ID: 2, Salary: d(80000), JoiningDate: day(2014, 6, 11), Department: "Admin"},
			{ID: 3, Salary: d(300000), JoiningDate: day(2014, 2, 20), Department: "HR"},
		},
		Bonuses: []domain.Bonus{
			{WorkerRefID: 1, Amount: d(5000), Date: day(2016, 2, 20)},
			{WorkerRefID: 1, Amount: d(4500), Date: day(2016, 2, 21)},
		},
		Titles: []domain.Title{
			{WorkerRefID: 1, Title: "Manager"},
			{WorkerRefID: 2, Title: "Executive"},
		},
	}
	svc := service.NewDashboardService(service.NewSnapshot(context.Background(), ds), 5, 2)
	metric := telemetry.NewMetric("wf", true)
	tmpl, err := report.LoadTemplate("")
	require.NoError(t, err)

	dh := NewDashboardHandler(svc, metric, domain.JoinRaw, tmpl)
	qh := NewQueryHandler(svc, metric)

	e := echo.New()
	e.GET("/health", dh.HealthHandler)
	e.GET("/dashboard", dh.OverviewHandler)
	e.GET("/dashboard/salary", dh.ViewHandler(domain.ViewSalaryBreakdown))
	e.GET("/dashboard/key-metrics", dh.ViewHandler(domain.ViewKeyMetrics))
	e.GET("/dashboard/export.xlsx", dh.ExportXLSXHandler)
	e.GET("/dashboard/export.csv", dh.ExportCSVHandler)
	e.GET("/query", qh.QueryHandler)
	e.POST("/query", qh.QueryHandler)
	return e, metric
}

func do(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthHandler(t *testing.T) {
	e, _ := newTestServer(t)
	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"workers":3,"bonuses":2,"titles":2,"merged":4}`, string(env.Data))
}

func TestOverviewHandler(t *testing.T) {
	e, _ := newTestServer(t)
	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard?mode=dedup", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var ov struct {
		Mode       string `json:"mode"`
		KeyMetrics struct {
			TotalSalary json.Number `json:"total_salary"`
			Workers     int         `json:"workers"`
		} `json:"key_metrics"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Equal(t, "dedup", ov.Mode)
	assert.Equal(t, "480000", ov.KeyMetrics.TotalSalary.String())
	assert.Equal(t, 3, ov.KeyMetrics.Workers)
	assert.Empty(t, ov.Errors)
}

func TestViewHandler(t *testing.T) {
	e, metric := newTestServer(t)

	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard/salary?distribution=title", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sv struct {
		Distribution string `json:"distribution"`
		ByTitle      []struct {
			Key string `json:"key"`
		} `json:"by_title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sv))
	assert.Equal(t, "title", sv.Distribution)
	assert.NotEmpty(t, sv.ByTitle)

	rec, env = do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard/salary?distribution=region", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "region")

	rec, env = do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard/key-metrics?mode=weighted", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "weighted")

	scrape := httptest.NewRecorder()
	metric.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `wf_view_fail_total{view="salary"} 1`)
}

func TestExportHandlers(t *testing.T) {
	e, _ := newTestServer(t)

	rec, _ := do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="workforce_dashboard_raw.xlsx"`, rec.Header().Get(echo.HeaderContentDisposition))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Key Metrics", "Salary", "Bonus", "Titles"}, f.GetSheetList())

	rec, _ = do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard/export.csv?mode=dedup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="workforce_dashboard_dedup.csv"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Key Metrics\n"))

	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/dashboard/export.csv?mode=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestQueryHandler(t *testing.T) {
	e, _ := newTestServer(t)

	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/query?relation=workers&op=sum&field=salary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Value json.Number `json:"value"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "480000", res.Value.String())

	body := `{"relation":"merged","op":"group","key":"department","metric":"salary","agg":"sum","distinct_by":["worker_id","department"]}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec, env = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped struct {
		Value []struct {
			Key   string      `json:"key"`
			Value json.Number `json:"value"`
		} `json:"value"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &grouped))
	require.Len(t, grouped.Value, 2)
	assert.Equal(t, "Admin", grouped.Value[0].Key)
	assert.Equal(t, "80000", grouped.Value[0].Value.String())

	rec, env = do(t, e, httptest.NewRequest(http.MethodGet, "/query?relation=workers&op=sum&field=bonus_amount", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "bonus_amount")

	rec, _ = do(t, e, httptest.NewRequest(http.MethodGet, "/query?relation=workers", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
