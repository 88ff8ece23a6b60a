package testutil

import (
	"database/sql"
	"testing"

	"stockwatch/internal/db"

	_ "modernc.org/sqlite"
)

// SetupTestDB creates an in-memory SQLite database with the full schema.
// The pool is pinned to one connection because every :memory: connection
// is a separate database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if err := db.Migrate(testDB); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

// InsertItem inserts an item row directly, bypassing validation.
func InsertItem(t *testing.T, conn *sql.DB, name string, qty int, price float64) {
	t.Helper()
	_, err := conn.Exec("INSERT INTO items (name, description, quantity, price, time) VALUES (?, ?, ?, ?, ?)",
		name, "desc "+name, qty, price, "2024-01-01 09:00:00")
	if err != nil {
		t.Fatalf("Failed to insert item %s: %v", name, err)
	}
}

// InsertUsage appends a usage record directly.
func InsertUsage(t *testing.T, conn *sql.DB, name string, qty int, at string) {
	t.Helper()
	_, err := conn.Exec("INSERT INTO sales (item_name, quantity_sold, time_sold) VALUES (?, ?, ?)", name, qty, at)
	if err != nil {
		t.Fatalf("Failed to insert usage for %s: %v", name, err)
	}
}
