package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"card-flipper/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

func dbPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "cardflipper.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "cardflipper.db")
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open() (*DB, error) {
	path := dbPath()
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS listings (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				product_id  TEXT NOT NULL,
				price       REAL NOT NULL,
				status      TEXT NOT NULL CHECK (status IN ('sold', 'active')),
				source      TEXT NOT NULL,
				observed_at TEXT NOT NULL,
				fees        REAL NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_listings_product_observed
				ON listings(product_id, observed_at);

			CREATE TABLE IF NOT EXISTS holdings (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				product_id    TEXT NOT NULL,
				quantity      INTEGER NOT NULL,
				unit_cost     REAL NOT NULL,
				purchase_date TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS scan_history (
				id          TEXT PRIMARY KEY,
				timestamp   TEXT NOT NULL,
				scan_type   TEXT NOT NULL,
				price_range TEXT NOT NULL,
				time_period TEXT NOT NULL,
				count       INTEGER NOT NULL,
				top_metric  REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_scan_history_ts ON scan_history(timestamp);

			CREATE TABLE IF NOT EXISTS scan_results (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				scan_id    TEXT NOT NULL REFERENCES scan_history(id),
				product_id TEXT NOT NULL,
				price      REAL NOT NULL,
				metric     REAL NOT NULL,
				detail     TEXT NOT NULL
			);

			INSERT OR REPLACE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	return nil
}
