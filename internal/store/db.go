package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a database connection for the daemon-owned tables (customers,
// orders, print jobs). Driver is "sqlite3" for single-site installs or
// "postgres" for hosted databases.
type DB struct {
	*sql.DB
	driver string
}

// Open creates a database connection. For sqlite3 the DSN is a file path and
// WAL mode plus recommended pragmas are applied.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case "sqlite3":
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{DB: db, driver: driver}, nil
}

// rebind rewrites ?-style placeholders to the driver's dialect.
func (db *DB) rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}
	var b strings.Builder
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
