package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at path and applies migrations.
func Open(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000")
	if err != nil {
		return nil, err
	}

	// SQLite handles one writer and several readers in WAL mode.
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(0)

	// Some driver versions ignore DSN params; set them explicitly.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=30000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Schema lists the DDL statements applied by Migrate, in order.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0 CHECK(quantity >= 0),
		price REAL NOT NULL DEFAULT 0 CHECK(price >= 0),
		time TEXT NOT NULL DEFAULT ''
	)`,
	// No foreign key: usage history outlives deleted or renamed items.
	`CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_name TEXT NOT NULL,
		quantity_sold INTEGER NOT NULL CHECK(quantity_sold > 0),
		time_sold TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_item_time ON sales(item_name, time_sold)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL CHECK(type IN ('low_stock','high_demand')),
		severity TEXT NOT NULL DEFAULT 'warning',
		title TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		item_name TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		read_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		record_id TEXT NOT NULL,
		summary TEXT,
		created_at TEXT NOT NULL
	)`,
}

// Migrate creates any missing tables. It is safe to run repeatedly.
func Migrate(conn *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}
