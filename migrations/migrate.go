// Package migrations embeds the SQL schema of the contact cache and applies
// it with goose. Each supported dialect has its own directory because the
// column types differ (BLOB vs BYTEA).
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedMigrations embed.FS

// Supported dialect names, as understood by goose.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

var (
	ErrNilDB              = errors.New("migration error: db is nil")
	ErrUnsupportedDialect = errors.New("migration error: unsupported dialect")
)

// Migrate applies all pending migrations for dialect to db. Progress is
// reported to log; a nil log discards it.
func Migrate(db *sql.DB, dialect string, log goose.Logger) error {
	if db == nil {
		return ErrNilDB
	}

	dir, err := migrationsDir(dialect)
	if err != nil {
		return err
	}

	if log == nil {
		log = goose.NopLogger()
	}
	goose.SetLogger(log)
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

func migrationsDir(dialect string) (string, error) {
	switch dialect {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
}
