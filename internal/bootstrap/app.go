package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"github.com/locvowork/workforce_dashboard/internal/config"
	"github.com/locvowork/workforce_dashboard/internal/database"
	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/handler"
	"github.com/locvowork/workforce_dashboard/internal/loader"
	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/internal/report"
	"github.com/locvowork/workforce_dashboard/internal/repository"
	"github.com/locvowork/workforce_dashboard/internal/service"
	"github.com/locvowork/workforce_dashboard/internal/telemetry"
)

type App struct {
	Echo     *echo.Echo
	DB       *sql.DB
	Service  *service.DashboardService
	Metric   *telemetry.Metric
	JoinMode domain.JoinMode
	Template string
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// Initialize loads the dashboard and wires the HTTP server.
func (a *App) Initialize(ctx context.Context, envFiles ...string) error {
	if err := a.LoadDashboard(ctx, envFiles...); err != nil {
		return err
	}

	dashboardHandler := handler.NewDashboardHandler(a.Service, a.Metric, a.JoinMode, a.Template)
	queryHandler := handler.NewQueryHandler(a.Service, a.Metric)

	a.RegisterMiddlewares()
	a.RegisterRoutes(dashboardHandler, queryHandler)
	return nil
}

// LoadDashboard reads the configuration, loads the configured data source
// and builds the dashboard service. Command line tools stop here.
func (a *App) LoadDashboard(ctx context.Context, envFiles ...string) error {
	if err := config.LoadEnvConfig(envFiles...); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	// money is rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	mode, ok := domain.ParseJoinMode(cfg.JOIN_MODE)
	if !ok {
		return fmt.Errorf("%w: JOIN_MODE %q", domain.ErrInvalidArgument, cfg.JOIN_MODE)
	}
	a.JoinMode = mode

	tmpl, err := report.LoadTemplate(cfg.REPORT_TEMPLATE_PATH)
	if err != nil {
		return err
	}
	a.Template = tmpl

	src, err := a.newSource(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	snap, err := service.LoadSnapshot(ctx, src)
	if err != nil {
		a.Close()
		return fmt.Errorf("failed to load %s data: %w", cfg.DATA_SOURCE, err)
	}
	logger.InfoLog(ctx, "Loaded %d workers, %d bonuses, %d titles (%d merged rows) from %s in %s",
		snap.Workers.Len(), snap.Bonuses.Len(), snap.Titles.Len(), snap.Merged.Len(), cfg.DATA_SOURCE, time.Since(start))

	a.Service = service.NewDashboardService(snap, cfg.TOP_N, cfg.VIEW_WORKERS)
	a.Metric = telemetry.NewMetric(cfg.APP_NAME, cfg.METRICS_ENABLED)
	return nil
}

func (a *App) newSource(ctx context.Context) (domain.Source, error) {
	cfg := config.DefaultEnvConfig

	switch cfg.DATA_SOURCE {
	case "csv":
		return loader.NewCSVSource(cfg.WORKER_CSV_PATH, cfg.BONUS_CSV_PATH, cfg.TITLE_CSV_PATH, cfg.DATE_LAYOUTS...), nil
	case string(database.Postgres), string(database.SQLite):
		dialect := database.Dialect(cfg.DATA_SOURCE)
		db, err := database.Open(ctx, dialect, DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		return repository.NewWorkforceRepository(db, dialect), nil
	}
	return nil, fmt.Errorf("%w: DATA_SOURCE %q", domain.ErrInvalidArgument, cfg.DATA_SOURCE)
}

// DatabaseConfig maps the environment onto database.Config.
func DatabaseConfig() database.Config {
	cfg := config.DefaultEnvConfig
	return database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		Path:            cfg.SQLITE_PATH,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		ConnectRetries:  cfg.DB_CONNECT_RETRIES,
	}
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	a.Echo.Use(a.Metric.Middleware())
}

func (a *App) RegisterRoutes(dashboardHandler *handler.DashboardHandler, queryHandler *handler.QueryHandler) {
	a.Echo.GET("/health", dashboardHandler.HealthHandler)
	a.Echo.GET("/metrics", echo.WrapHandler(a.Metric.Handler()))

	dashboardGroup := a.Echo.Group("/dashboard")
	dashboardGroup.GET("", dashboardHandler.OverviewHandler)
	dashboardGroup.GET("/key-metrics", dashboardHandler.ViewHandler(domain.ViewKeyMetrics))
	dashboardGroup.GET("/salary", dashboardHandler.ViewHandler(domain.ViewSalaryBreakdown))
	dashboardGroup.GET("/bonus", dashboardHandler.ViewHandler(domain.ViewBonusAllocation))
	dashboardGroup.GET("/titles", dashboardHandler.ViewHandler(domain.ViewTitleComparison))

	exportGroup := a.Echo.Group("/export")
	exportGroup.GET("/xlsx", dashboardHandler.ExportXLSXHandler)
	exportGroup.GET("/csv", dashboardHandler.ExportCSVHandler)

	a.Echo.GET("/query", queryHandler.QueryHandler)
	a.Echo.POST("/query", queryHandler.QueryHandler)
}

// Run serves until SIGINT or SIGTERM, then shuts the server down.
func (a *App) Run() error {
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.InfoLog(ctx, "Shutting down server")
	return a.Echo.Shutdown(ctx)
}

// Close releases the database connection, if any.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}
