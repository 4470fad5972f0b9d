package config

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/logging"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 5 * time.Second

// OpenDatabase opens the pool for the configured driver and pings it.
func OpenDatabase(ctx context.Context, cfg DatabaseConfig, log logging.Logger) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "certificate") {
			return nil, fmt.Errorf("%w: ssl verification failed: %v", customerrors.ErrDbUnreachable, err)
		}
		return nil, fmt.Errorf("%w: %v", customerrors.ErrDbUnreachable, err)
	}

	log.Info(ctx, "connected to database", "driver", cfg.Driver)
	return db, nil
}

// MigrationDialect maps a database/sql driver name to its goose dialect.
func MigrationDialect(driver string) string {
	if driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}
