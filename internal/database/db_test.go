package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestApplySchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := ApplySchema(db); err != nil {
		t.Fatalf("ApplySchema failed: %v", err)
	}

	tables := []string{"recipes", "planned_meals", "shopping_items", "shopping_checked", "cupboard_items", "execution_metrics"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table '%s' to exist: %v", table, err)
		}
	}

	// Re-applying is harmless.
	if err := ApplySchema(db); err != nil {
		t.Errorf("Expected schema to be re-appliable, got %v", err)
	}
}

func TestNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "planner.db")

	d, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer d.Close()

	if _, err := d.SQL.Exec(`INSERT INTO shopping_checked (key, checked, updated_at) VALUES ('milk-dl', 1, CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("Expected migrated schema to accept inserts, got %v", err)
	}
}
