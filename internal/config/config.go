package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	// app config
	APP_NAME  string
	APP_PORT  string
	LOG_LEVEL string
	// data source config
	DATA_SOURCE     string // csv, postgres or sqlite
	WORKER_CSV_PATH string
	BONUS_CSV_PATH  string
	TITLE_CSV_PATH  string
	DATE_LAYOUTS    []string
	SQLITE_PATH     string
	// dashboard config
	JOIN_MODE            string
	TOP_N                int
	VIEW_WORKERS         int
	METRICS_ENABLED      bool
	REPORT_TEMPLATE_PATH string
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	DB_CONNECT_RETRIES   int
	// logger config
	LOG_FILE_PATH string
}

// LoadEnvConfig reads .env files (when present) and the process environment
// into DefaultEnvConfig.
func LoadEnvConfig(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_NAME:  getEnvString("APP_NAME", "workforce-dashboard"),
		APP_PORT:  getEnvString("APP_PORT", "8080"),
		LOG_LEVEL: getEnvString("LOG_LEVEL", "info"),

		DATA_SOURCE:     strings.ToLower(getEnvString("DATA_SOURCE", "csv")),
		WORKER_CSV_PATH: getEnvString("WORKER_CSV_PATH", "./data/worker.csv"),
		BONUS_CSV_PATH:  getEnvString("BONUS_CSV_PATH", "./data/bonus.csv"),
		TITLE_CSV_PATH:  getEnvString("TITLE_CSV_PATH", "./data/title.csv"),
		DATE_LAYOUTS:    getEnvList("DATE_LAYOUTS", nil),
		SQLITE_PATH:     getEnvString("SQLITE_PATH", "./data/workforce.db"),

		JOIN_MODE:            strings.ToLower(getEnvString("JOIN_MODE", "raw")),
		TOP_N:                getEnvInt("TOP_N", 5),
		VIEW_WORKERS:         getEnvInt("VIEW_WORKERS", 4),
		METRICS_ENABLED:      getEnvBool("METRICS_ENABLED", true),
		REPORT_TEMPLATE_PATH: getEnvString("REPORT_TEMPLATE_PATH", ""),

		DB_HOST:              getEnvString("DB_HOST", "localhost"),
		DB_PORT:              getEnvInt("DB_PORT", 5432),
		DB_USER:              getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:          getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:              getEnvString("DB_NAME", "postgres"),
		DB_SSL_MODE:          getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		DB_CONNECT_RETRIES:   getEnvInt("DB_CONNECT_RETRIES", 3),

		LOG_FILE_PATH: getEnvString("LOG_FILE_PATH", ""),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a ';' separated value. Date layouts contain commas.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
