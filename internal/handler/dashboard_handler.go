package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/internal/report"
	"github.com/locvowork/workforce_dashboard/internal/service"
	"github.com/locvowork/workforce_dashboard/internal/service/serviceutils"
	"github.com/locvowork/workforce_dashboard/internal/telemetry"
	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	svc         *service.DashboardService
	metric      *telemetry.Metric
	defaultMode domain.JoinMode
	template    string
}

// NewDashboardHandler creates the dashboard routes' handler. template is the
// workbook layout used by the export endpoints.
func NewDashboardHandler(svc *service.DashboardService, metric *telemetry.Metric, defaultMode domain.JoinMode, template string) *DashboardHandler {
	return &DashboardHandler{svc: svc, metric: metric, defaultMode: defaultMode, template: template}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var aggErr *aggregate.AggregationError
	switch {
	case errors.As(err, &aggErr), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *DashboardHandler) mode(c echo.Context) (domain.JoinMode, error) {
	raw := c.QueryParam("mode")
	if raw == "" {
		return h.defaultMode, nil
	}
	mode, ok := domain.ParseJoinMode(raw)
	if !ok {
		return "", fmt.Errorf("%w: join mode %q", domain.ErrInvalidArgument, raw)
	}
	return mode, nil
}

func (h *DashboardHandler) HealthHandler(c echo.Context) error {
	snap := h.svc.Snapshot()
	return serviceutils.ResponseSuccess(c, http.StatusOK, "OK", map[string]int{
		"workers": snap.Workers.Len(),
		"bonuses": snap.Bonuses.Len(),
		"titles":  snap.Titles.Len(),
		"merged":  snap.Merged.Len(),
	})
}

func (h *DashboardHandler) OverviewHandler(c echo.Context) error {
	mode, err := h.mode(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid parameters", err)
	}
	ov, err := h.overview(c.Request().Context(), mode)
	if err != nil {
		return serviceutils.ResponseError(c, statusFor(err), "Failed to compute dashboard", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Dashboard computed successfully", ov)
}

// ViewHandler serves one view; the distribution query parameter applies to
// the salary and bonus views.
func (h *DashboardHandler) ViewHandler(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		mode, err := h.mode(c)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid parameters", err)
		}

		ctx := c.Request().Context()
		start := time.Now()
		view, err := h.svc.View(ctx, name, c.QueryParam("distribution"), mode)
		h.metric.ObserveView(name, time.Since(start), err)
		if err != nil {
			logger.WarnLog(ctx, "View %s failed: %v", name, err)
			return serviceutils.ResponseError(c, statusFor(err), "Failed to compute view "+name, err)
		}
		return serviceutils.ResponseSuccess(c, http.StatusOK, "View computed successfully", view)
	}
}

func (h *DashboardHandler) ExportXLSXHandler(c echo.Context) error {
	return h.export(c, "xlsx", xlsxContentType, report.WriteXLSX)
}

func (h *DashboardHandler) ExportCSVHandler(c echo.Context) error {
	return h.export(c, "csv", "text/csv; charset=utf-8", report.WriteCSV)
}

func (h *DashboardHandler) export(c echo.Context, ext, contentType string, write func(w io.Writer, ov *domain.Overview, tmpl string) error) error {
	mode, err := h.mode(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid parameters", err)
	}
	ov, err := h.overview(c.Request().Context(), mode)
	if err != nil {
		return serviceutils.ResponseError(c, statusFor(err), "Failed to compute dashboard", err)
	}

	// render fully before writing headers so failures still get an envelope
	var buf bytes.Buffer
	if err := write(&buf, ov, h.template); err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate export", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="workforce_dashboard_%s.%s"`, mode, ext))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (h *DashboardHandler) overview(ctx context.Context, mode domain.JoinMode) (*domain.Overview, error) {
	start := time.Now()
	ov, err := h.svc.Overview(ctx, mode)
	h.metric.ObserveView("overview", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return ov, nil
}
