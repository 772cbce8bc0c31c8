package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/service"
	"github.com/locvowork/workforce_dashboard/internal/service/serviceutils"
	"github.com/locvowork/workforce_dashboard/internal/telemetry"
)

type QueryHandler struct {
	svc    *service.DashboardService
	metric *telemetry.Metric
}

func NewQueryHandler(svc *service.DashboardService, metric *telemetry.Metric) *QueryHandler {
	return &QueryHandler{svc: svc, metric: metric}
}

// QueryHandler runs an ad hoc aggregation. GET reads the request from the
// query string, POST from a JSON body.
func (h *QueryHandler) QueryHandler(c echo.Context) error {
	var req service.QueryRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	if req.Op == "" {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid parameters", fmt.Errorf("%w: op is required", domain.ErrInvalidArgument))
	}

	start := time.Now()
	res, err := h.svc.Query(c.Request().Context(), req)
	h.metric.ObserveView("query", time.Since(start), err)
	if err != nil {
		return serviceutils.ResponseError(c, statusFor(err), "Query failed", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Query executed successfully", res)
}
