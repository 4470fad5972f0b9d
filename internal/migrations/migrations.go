// Package migrations embeds the schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

var dirs = map[goose.Dialect]string{
	goose.DialectPostgres: "postgres",
	goose.DialectSQLite3:  "sqlite",
}

// Up applies every pending migration for the given goose dialect
// ("postgres" or "sqlite3") and returns how many ran.
func Up(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	dir, ok := dirs[goose.Dialect(dialect)]
	if !ok {
		return 0, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(FS, dir)
	if err != nil {
		return 0, err
	}

	provider, err := goose.NewProvider(goose.Dialect(dialect), db, sub)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: up: %w", err)
	}
	return len(results), nil
}
