package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Minimal schema matching internal/db/migrate/sql/0001_kv_store.sql for in-memory tests.
const testSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A single connection keeps the in-memory database alive across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(testSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
		t.Fatalf("exec schema: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	})
	return db
}

func TestNewRepository(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if repo == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestGet_Missing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	value, found, err := repo.Get(context.Background(), "savedCities")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Errorf("Get: found = true, value = %q; want not found", value)
	}
}

func TestPutThenGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, "savedCities", `[{"name":"London"}]`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, found, err := repo.Get(ctx, "savedCities")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || value != `[{"name":"London"}]` {
		t.Errorf("Get = %q, %v; want stored value", value, found)
	}
}

func TestPut_Overwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	if err := repo.Put(ctx, "k", "first"); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := repo.Put(ctx, "k", "second"); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	value, _, err := repo.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "second" {
		t.Errorf("value = %q; want second", value)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM kv_store`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d; want 1", n)
	}
}

func TestPut_EmptyKey(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if err := repo.Put(context.Background(), "", "v"); err == nil {
		t.Fatal("Put(\"\") = nil; want error")
	}
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "k"); found {
		t.Error("Get after Delete: found = true; want false")
	}
	if err := repo.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v; want nil", err)
	}
}

func TestGet_QueryError(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := NewRepository(db) // no schema

	if _, _, err := repo.Get(context.Background(), "k"); err == nil {
		t.Fatal("Get without table = nil error; want error")
	}
}
