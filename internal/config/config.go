package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the on-disk format of measurement dates.
const DateLayout = "2006-01-02"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	DBDriver        string
	DBDSN           string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	// QueryFile is the optional YAML file the Query settings were read from.
	QueryFile string
	Query     Query
}

// Query holds the fixed filter bounds used by the listing endpoints.
type Query struct {
	PrecipitationSince string `yaml:"precipitation_since"`
	TobsSince          string `yaml:"tobs_since"`
	// TobsStation pins the station used by /tobs. Empty means the most
	// active station is looked up on every request.
	TobsStation string `yaml:"tobs_station"`
	StrictDates bool   `yaml:"strict_dates"`
}

func DefaultQuery() Query {
	return Query{
		PrecipitationSince: "2016-08-24",
		TobsSince:          "2016-08-23",
	}
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	switch driver {
	case "sqlite3":
	case "mysql", "postgres":
		if dsn == "" {
			return Config{}, fmt.Errorf("DB_DSN is required for DB_DRIVER %q", driver)
		}
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, mysql, postgres)", driver)
	}

	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "Resources/hawaii.sqlite"
	}

	maxOpenConns, err := intFromEnv("DB_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intFromEnv("DB_MAX_IDLE_CONNS", 4)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL := false
	if s := strings.TrimSpace(os.Getenv("DB_LOG_SQL")); s != "" {
		logSQL, err = strconv.ParseBool(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", s, err)
		}
	}

	queryFile := strings.TrimSpace(os.Getenv("QUERY_CONFIG"))
	query := DefaultQuery()
	if queryFile != "" {
		query, err = LoadQueryFile(queryFile)
		if err != nil {
			return Config{}, err
		}
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        httpAddr,
		DBDriver:        driver,
		DBDSN:           dsn,
		SQLitePath:      path,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		QueryFile:       queryFile,
		Query:           query,
	}, nil
}

// LoadQueryFile reads query settings from a YAML file. Keys missing from the
// file keep their defaults.
func LoadQueryFile(path string) (Query, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Query{}, fmt.Errorf("QUERY_CONFIG %q: %w", path, err)
	}
	return parseQuery(b)
}

func parseQuery(b []byte) (Query, error) {
	q := DefaultQuery()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		return Query{}, fmt.Errorf("parse query config: %w", err)
	}
	q.PrecipitationSince = strings.TrimSpace(q.PrecipitationSince)
	q.TobsSince = strings.TrimSpace(q.TobsSince)
	q.TobsStation = strings.TrimSpace(q.TobsStation)

	if _, err := time.Parse(DateLayout, q.PrecipitationSince); err != nil {
		return Query{}, fmt.Errorf("invalid precipitation_since %q (expected YYYY-MM-DD)", q.PrecipitationSince)
	}
	if _, err := time.Parse(DateLayout, q.TobsSince); err != nil {
		return Query{}, fmt.Errorf("invalid tobs_since %q (expected YYYY-MM-DD)", q.TobsSince)
	}
	return q, nil
}

func intFromEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
