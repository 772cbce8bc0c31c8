package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/internal/repository/builder"
	"github.com/locvowork/workforce_dashboard/pkg/dataflow"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Placeholder returns the bind-marker style of the dialect.
func (d Dialect) Placeholder() builder.Placeholder {
	if d == SQLite {
		return builder.Question
	}
	return builder.Dollar
}

// Config holds connection settings. Path is only used by SQLite.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
}

// NewPostgresDB opens a PostgreSQL pool and pings it, retrying with
// exponential backoff.
func NewPostgresDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(ctx, db, cfg.ConnectRetries); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	logger.InfoLog(ctx, "Connected to postgres %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return db, nil
}

// NewSQLiteDB opens (or creates) a SQLite database file.
func NewSQLiteDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// a single writer avoids SQLITE_BUSY during seeding
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return db, nil
}

// Open connects to the backend named by dialect.
func Open(ctx context.Context, dialect Dialect, cfg Config) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		return NewPostgresDB(ctx, cfg)
	case SQLite:
		return NewSQLiteDB(ctx, cfg.Path)
	}
	return nil, fmt.Errorf("unsupported database dialect %q", dialect)
}

func pingWithRetry(ctx context.Context, db *sql.DB, retries int) error {
	attempts := dataflow.From(ctx, db)
	return dataflow.ForEach(ctx, attempts, func(ctx context.Context, db *sql.DB) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := db.PingContext(pingCtx)
		if err != nil {
			logger.WarnLog(ctx, "Database ping failed: %v", err)
		}
		return err
	}, dataflow.WithRetry(retries, dataflow.ExponentialBackoff(500*time.Millisecond, 10*time.Second)))
}
