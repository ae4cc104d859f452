package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

// Dialect identifies the SQL backend behind a DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB is a connection pool bound to a single dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DialectFor picks the backend for a connection string. Anything that is not
// a postgres URL is treated as a SQLite file path.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// New creates a new database connection pool.
func New(dsn string) (*DB, error) {
	dialect := DialectFor(dsn)

	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case Postgres:
		conn, err = sql.Open("pgx", dsn)
	default:
		conn, err = sql.Open("sqlite", sqliteDSN(dsn))
	}
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		// SQLite allows one writer; a single connection keeps writes serialized.
		conn.SetMaxOpenConns(1)
	}
	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}
	return &DB{DB: conn, Dialect: dialect}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Builder returns a squirrel statement builder with the dialect's placeholders.
func (db *DB) Builder() squirrel.StatementBuilderType {
	if db.Dialect == Postgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// WithTx runs fn inside a transaction, committing on success and rolling back
// on any error.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Optimize refreshes planner statistics.
func (db *DB) Optimize(ctx context.Context) error {
	stmt := "PRAGMA optimize"
	if db.Dialect == Postgres {
		stmt = "ANALYZE"
	}
	_, err := db.ExecContext(ctx, stmt)
	return err
}
