package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB wraps the SQL connection together with the dialect it speaks
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Successfully connected to %s database", driver)
	return &DB{conn: conn, driver: driver}, nil
}

// sqliteDSN turns on foreign key enforcement so history rows cascade
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "./pricetrack.db"
	}
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Conn returns the underlying connection pool
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the driver name
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Rebind rewrites ? placeholders into the dialect's form ($1, $2, ... for postgres)
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
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

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables(ctx context.Context) error {
	queries := postgresSchema
	if db.driver == DriverSQLite {
		queries = sqliteSchema
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		website TEXT NOT NULL DEFAULT 'Unknown',
		tags TEXT NOT NULL DEFAULT '',
		price_selector TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		currency VARCHAR(3) NOT NULL DEFAULT 'BRL',
		checked_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history (product_id, checked_at, seq)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		website TEXT NOT NULL DEFAULT 'Unknown',
		tags TEXT NOT NULL DEFAULT '',
		price_selector TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		price REAL NOT NULL CHECK (price >= 0),
		currency TEXT NOT NULL DEFAULT 'BRL',
		checked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history (product_id, checked_at, seq)`,
}
