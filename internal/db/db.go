package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"reportdash/internal/config"
)

// Open connects the activity store. The embedded sqlite file is the
// default; deployments that already run Postgres point APP_DB_DRIVER
// and APP_DB_DSN at it instead.
func Open(cfg config.Config) (*sql.DB, error) {
	var (
		driver string
		dsn    string
	)
	switch cfg.DBDriver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
		driver = "sqlite"
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", cfg.DBPath)
	case "postgres":
		driver = "pgx"
		dsn = cfg.DBDSN
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
