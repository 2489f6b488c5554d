package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect abstracts the differences between the supported databases so
// repositories can be written once with ? placeholders.
type Dialect interface {
	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN returns the data source name for the connection.
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (? to $1 for postgres).
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether the driver supports LastInsertId.
	SupportsLastInsertId() bool

	// ConfigureConnection applies database-specific connection settings.
	ConfigureConnection(db *sql.DB) error
}

// DialectConfig holds connection parameters.
type DialectConfig struct {
	// Path is used by SQLite.
	Path string

	// URL is used by PostgreSQL and MySQL.
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
}

// SQLiteDialect is the default, file-backed dialect.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string { return "sqlite3" }
func (d *SQLiteDialect) DSN(cfg DialectConfig) string { return cfg.Path }
func (d *SQLiteDialect) RewriteQuery(query string) string { return query }
func (d *SQLiteDialect) SupportsLastInsertId() bool { return true }

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	// WAL for concurrent readers during submissions.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}
	return nil
}

// PostgresDialect speaks lib/pq.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string { return "postgres" }
func (d *PostgresDialect) DSN(cfg DialectConfig) string { return cfg.URL }
func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}
func (d *PostgresDialect) SupportsLastInsertId() bool { return false }
func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	return nil
}

// MySQLDialect speaks go-sql-driver/mysql.
type MySQLDialect struct{}

func (d *MySQLDialect) DriverName() string { return "mysql" }
func (d *MySQLDialect) DSN(cfg DialectConfig) string { return cfg.URL }
func (d *MySQLDialect) RewriteQuery(query string) string { return query }
func (d *MySQLDialect) SupportsLastInsertId() bool { return true }
func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	return nil
}
