package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// TestMigrate verifies that the schema applies cleanly and is idempotent.
func TestMigrate(t *testing.T) {
	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	defer testDB.Close()
	testDB.SetMaxOpenConns(1)

	for i := 0; i < 2; i++ {
		if err := Migrate(testDB); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}

	for _, table := range []string{"items", "sales", "settings", "notifications", "audit_log"} {
		var name string
		err := testDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Required table %s missing: %v", table, err)
		}
	}
}

func TestSchemaConstraints(t *testing.T) {
	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer testDB.Close()
	testDB.SetMaxOpenConns(1)
	if err := Migrate(testDB); err != nil {
		t.Fatal(err)
	}

	bad := []string{
		"INSERT INTO items (name, quantity, price) VALUES ('a', -1, 1)",
		"INSERT INTO items (name, quantity, price) VALUES ('b', 1, -1)",
		"INSERT INTO sales (item_name, quantity_sold, time_sold) VALUES ('a', 0, '2024-01-01 00:00:00')",
		"INSERT INTO notifications (type, title, message, item_name, created_at) VALUES ('bogus', 't', 'm', 'a', 'now')",
	}
	for _, q := range bad {
		if _, err := testDB.Exec(q); err == nil {
			t.Errorf("expected constraint violation for %q", q)
		}
	}

	if _, err := testDB.Exec("INSERT INTO items (name, quantity, price) VALUES ('ok', 0, 0)"); err != nil {
		t.Errorf("valid insert failed: %v", err)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil || mode != "wal" {
		t.Errorf("journal_mode = %q, %v", mode, err)
	}
}
