package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricName is the suffix of a metric; the app name is the prefix.
type MetricName string

const (
	MetricHttpRequestsTotal   MetricName = "requests_total"
	MetricHttpRequestDuration MetricName = "request_duration_seconds"
	MetricViewDuration        MetricName = "view_duration_seconds"
	MetricViewFailTotal       MetricName = "view_fail_total"
)

// MetricLabelName names a metric label.
type MetricLabelName string

const (
	MetricLabelEndpoint MetricLabelName = "endpoint"
	MetricLabelStatus   MetricLabelName = "status"
	MetricLabelView     MetricLabelName = "view"
)

// Metric holds the prometheus collectors. A disabled Metric has nil
// collectors and every method is a no-op.
type Metric struct {
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
	ViewDuration        *prometheus.HistogramVec
	ViewFailTotal       *prometheus.CounterVec
	registry            *prometheus.Registry
}

// NewMetric registers the collectors on a fresh registry.
func NewMetric(appName string, enabled bool) *Metric {
	if !enabled {
		return &Metric{}
	}
	prefix := sanitize(appName) + "_"
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metric{
		registry: registry,
		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(MetricHttpRequestsTotal),
				Help: "Total received API requests",
			},
			labelNames(MetricLabelEndpoint, MetricLabelStatus),
		),
		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + string(MetricHttpRequestDuration),
				Help:    "API request duration (seconds)",
				Buckets: prometheus.DefBuckets,
			},
			labelNames(MetricLabelEndpoint),
		),
		ViewDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + string(MetricViewDuration),
				Help:    "Dashboard view computation time (seconds)",
				Buckets: prometheus.DefBuckets,
			},
			labelNames(MetricLabelView),
		),
		ViewFailTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(MetricViewFailTotal),
				Help: "Dashboard views that failed to compute",
			},
			labelNames(MetricLabelView),
		),
	}
}

// Enabled reports whether collectors are registered.
func (m *Metric) Enabled() bool {
	return m != nil && m.registry != nil
}

// Handler serves the registry in the prometheus text format.
func (m *Metric) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests and observes their duration per route.
func (m *Metric) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !m.Enabled() || strings.HasPrefix(c.Path(), "/metrics") {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
			}
			endpoint := c.Path()
			m.HttpRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
			m.HttpRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveView records one view computation.
func (m *Metric) ObserveView(view string, d time.Duration, err error) {
	if !m.Enabled() {
		return
	}
	m.ViewDuration.WithLabelValues(view).Observe(d.Seconds())
	if err != nil {
		m.ViewFailTotal.WithLabelValues(view).Inc()
	}
}

// labelNames helper: LabelName slice to []string
func labelNames(labels ...MetricLabelName) []string {
	strs := make([]string, len(labels))
	for i, l := range labels {
		strs[i] = string(l)
	}
	return strs
}

func sanitize(name string) string {
	if name == "" {
		return "app"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
