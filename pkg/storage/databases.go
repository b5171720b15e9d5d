// Package storage provides functionality for persisting and retrieving mind-map backend data.
// This file handles the general SQL database interfaces and schemas.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
)

// DBDriver represents the type of database driver
type DBDriver string

const (
	SQLite     DBDriver = "sqlite"
	PostgreSQL DBDriver = "postgres"
)

// Querier runs statements either directly on the database or inside a transaction.
// Queries are written with '?' placeholders and rebound for the active driver.
type Querier interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
	// Insert runs an INSERT and returns the generated id column.
	Insert(ctx context.Context, query string, args ...interface{}) (int, error)
}

// Database interface defines common database operations
type Database interface {
	Querier
	Open(dataSourceName string) error
	Close() error
	Ping(ctx context.Context) error
	Driver() DBDriver
	InitSchema() error
	// Transact runs fn inside a transaction, committing when fn returns nil.
	Transact(ctx context.Context, fn func(q Querier) error) error
}

// NewDatabase creates a new Database instance based on the specified driver
func NewDatabase(driver DBDriver, logger *log.Logger) (Database, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	switch driver {
	case SQLite:
		return &SQLiteDatabase{BaseDatabase: BaseDatabase{driver: SQLite, logger: logger}}, nil
	case PostgreSQL:
		return &PostgresDatabase{BaseDatabase: BaseDatabase{driver: PostgreSQL, logger: logger}}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// sqlConn is the part of *sql.DB and *sql.Tx used by the queriers.
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// querier binds a connection to the placeholder style of a driver.
type querier struct {
	conn   sqlConn
	driver DBDriver
	logger *log.Logger
}

func (q querier) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	q.logger.Debug(ctx, "Executing query", log.Fields{"query": query, "args": len(args)})
	return q.conn.ExecContext(ctx, rebind(q.driver, query), args...)
}

func (q querier) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	q.logger.Debug(ctx, "Querying", log.Fields{"query": query, "args": len(args)})
	return q.conn.QueryContext(ctx, rebind(q.driver, query), args...)
}

func (q querier) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return q.conn.QueryRowContext(ctx, rebind(q.driver, query), args...)
}

func (q querier) Insert(ctx context.Context, query string, args ...interface{}) (int, error) {
	if q.driver == PostgreSQL {
		var id int
		if err := q.QueryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return int(id), nil
}

// rebind rewrites '?' placeholders to '$n' for PostgreSQL.
func rebind(driver DBDriver, query string) string {
	if driver != PostgreSQL || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BaseDatabase provides a base implementation of some Database methods
type BaseDatabase struct {
	db     *sql.DB
	driver DBDriver
	logger *log.Logger
}

func (b *BaseDatabase) root() querier {
	return querier{conn: b.db, driver: b.driver, logger: b.logger}
}

// Driver returns the driver the database was created for
func (b *BaseDatabase) Driver() DBDriver {
	return b.driver
}

// Ping verifies the connection is alive
func (b *BaseDatabase) Ping(ctx context.Context) error {
	if b.db == nil {
		return fmt.Errorf("database is not open")
	}
	return b.db.PingContext(ctx)
}

// Exec executes a query without returning any rows
func (b *BaseDatabase) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return b.root().Exec(ctx, query, args...)
}

// Query executes a query that returns rows
func (b *BaseDatabase) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return b.root().Query(ctx, query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (b *BaseDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return b.root().QueryRow(ctx, query, args...)
}

// Insert executes an INSERT and returns the new row id
func (b *BaseDatabase) Insert(ctx context.Context, query string, args ...interface{}) (int, error) {
	return b.root().Insert(ctx, query, args...)
}

// Transact runs fn in a transaction, rolling back on error or panic
func (b *BaseDatabase) Transact(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		b.logger.Error(ctx, "Failed to begin transaction", log.Fields{"error": err})
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				b.logger.Error(ctx, "Failed to rollback transaction", log.Fields{"error": rbErr})
			}
		}
	}()

	if err = fn(querier{conn: tx, driver: b.driver, logger: b.logger}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		b.logger.Error(ctx, "Failed to commit transaction", log.Fields{"error": err})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InitSchema initializes the database schema
func (b *BaseDatabase) InitSchema() error {
	ctx := context.Background()
	b.logger.Info(ctx, "Initializing database schema", log.Fields{"driver": string(b.driver)})

	for _, stmt := range schemaFor(b.driver) {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			b.logger.Error(ctx, "Failed to create tables", log.Fields{"error": err})
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	b.logger.Info(ctx, "Database schema initialized successfully", nil)
	return nil
}

func (b *BaseDatabase) close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// schemaFor returns the CREATE statements for the driver's column dialect.
func schemaFor(driver DBDriver) []string {
	serial, blob, stamp, boolTrue := "INTEGER PRIMARY KEY AUTOINCREMENT", "BLOB", "DATETIME", "1"
	if driver == PostgreSQL {
		serial, blob, stamp, boolTrue = "SERIAL PRIMARY KEY", "BYTEA", "TIMESTAMPTZ", "TRUE"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + serial + `,
			email TEXT UNIQUE NOT NULL,
			username TEXT NOT NULL,
			password_hash ` + blob + ` NOT NULL,
			active BOOLEAN NOT NULL DEFAULT ` + boolTrue + `,
			created ` + stamp + ` NOT NULL,
			updated ` + stamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mindmaps (
			id ` + serial + `,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			data TEXT NOT NULL,
			created ` + stamp + ` NOT NULL,
			updated ` + stamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mindmaps_user ON mindmaps (user_id)`,
		`CREATE TABLE IF NOT EXISTS credits (
			id ` + serial + `,
			user_id INTEGER UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount INTEGER NOT NULL DEFAULT 0,
			created ` + stamp + ` NOT NULL,
			updated ` + stamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id ` + serial + `,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			description TEXT NOT NULL,
			created ` + stamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, id)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated ` + stamp + ` NOT NULL
		)`,
	}
}

// validateDBDriver checks if the provided driver is supported
func validateDBDriver(driver string) (DBDriver, error) {
	switch DBDriver(driver) {
	case SQLite:
		return SQLite, nil
	case PostgreSQL:
		return PostgreSQL, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}
