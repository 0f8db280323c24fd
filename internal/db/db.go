package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"

	"climate-server/internal/config"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	pq "github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Open connects to the climate dataset described by cfg. The dataset is only
// ever read, so SQLite files are opened with mode=ro.
func Open(cfg config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var sqlDB *sql.DB
	if cfg.LogSQL {
		drv, err := driverFor(cfg.DBDriver)
		if err != nil {
			return nil, err
		}
		connector, err := NewLoggingConnector(drv, dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("db connector: %w", err)
		}
		sqlDB = sql.OpenDB(connector)
	} else {
		sqlDB, err = sql.Open(cfg.DBDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}
	db := sqlx.NewDb(sqlDB, cfg.DBDriver)

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func driverFor(name string) (driver.Driver, error) {
	switch name {
	case "sqlite3":
		return &sqlite3.SQLiteDriver{}, nil
	case "mysql":
		return &mysql.MySQLDriver{}, nil
	case "postgres":
		return &pq.Driver{}, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", name)
	}
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.DBDriver != "sqlite3" {
		if cfg.DBDSN == "" {
			return "", fmt.Errorf("db dsn is required for driver %q", cfg.DBDriver)
		}
		return cfg.DBDSN, nil
	}
	if cfg.DBDSN != "" {
		return cfg.DBDSN, nil
	}

	// - mode=ro: the dataset is never written and must already exist
	// - busy_timeout: tolerate an external writer holding the file briefly
	params := []string{
		"mode=ro",
		"_busy_timeout=5000",
	}

	path := cfg.SQLitePath
	if path == "" {
		return "", fmt.Errorf("sqlite path is empty")
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
