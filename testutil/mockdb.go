package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const kvTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at INTEGER NOT NULL DEFAULT 0
)`

// CreateInMemoryDB creates an in-memory SQLite database with the kv table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(kvTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// CreateTestDB creates a database holding a token and a usage ledger
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	rows := []struct {
		key   string
		value string
	}{
		{key: "token", value: "token-alice"},
		{
			key: "taskAnalyzerStats",
			value: `{"totalTareas":2,"totalPasos":6,"promedioPasos":3,"totalAmbiguedades":3,"totalPreguntas":2,` +
				`"ultimasActividades":[{"tarea":"Plan the launch","pasos":4,"ambiguedades":2,"preguntas":1,"fecha":"2026-10-01T10:00:00Z"},` +
				`{"tarea":"Write report","pasos":2,"ambiguedades":1,"preguntas":1,"fecha":"2026-09-30T10:00:00Z"}]}`,
		},
	}

	stmt, err := db.Prepare("INSERT INTO kv (key, value) VALUES (?, ?)")
	if err != nil {
		t.Fatalf("Failed to prepare insert statement: %v", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.key, row.value); err != nil {
			t.Fatalf("Failed to insert %s: %v", row.key, err)
		}
	}

	return db
}

// CreateSQLiteFixture creates an on-disk database with the kv table
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(kvTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO kv (key, value) VALUES (?, ?)", "token", "token-fixture"); err != nil {
		t.Fatalf("Failed to insert token: %v", err)
	}
}

// InsertKV inserts a raw row into the kv table
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}
