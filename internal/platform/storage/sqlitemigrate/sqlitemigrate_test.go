package sqlitemigrate

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyMigrationsRecordsApplied(t *testing.T) {
	db := openInMemoryDB(t)

	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;"),
		},
	}

	if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	names, err := Applied(context.Background(), db)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"001_create.sql"}) {
		t.Fatalf("applied = %v", names)
	}
	if !tableExists(t, db, "items") {
		t.Fatal("expected applied table to exist")
	}
}

func TestApplyMigrationsSkipsAlreadyApplied(t *testing.T) {
	db := openInMemoryDB(t)

	first := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
	}
	if err := ApplyMigrations(context.Background(), db, first, ""); err != nil {
		t.Fatalf("apply initial migrations: %v", err)
	}

	// Re-running a recorded file must not execute it again; a non-idempotent
	// statement would fail if it did.
	second := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("INSERT INTO missing_table VALUES (1);")},
		"002_more.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE more_items(id TEXT PRIMARY KEY);")},
	}
	if err := ApplyMigrations(context.Background(), db, second, ""); err != nil {
		t.Fatalf("apply second migrations: %v", err)
	}
	if !tableExists(t, db, "more_items") {
		t.Fatal("expected new migration to run")
	}
}

func TestApplyMigrationsUsesRootPrefix(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"sql/001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY);")},
		"sql/README.md":      &fstest.MapFile{Data: []byte("ignored")},
	}
	if err := ApplyMigrations(context.Background(), db, migrations, "sql"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	names, err := Applied(context.Background(), db)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"sql/001_create.sql"}) {
		t.Fatalf("applied = %v", names)
	}
}

func TestApplyMigrationsRollsBackFailure(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY); INSERT INTO nope VALUES (1);")},
	}
	err := ApplyMigrations(context.Background(), db, migrations, "")
	if err == nil || !strings.Contains(err.Error(), "exec migration 001_bad.sql") {
		t.Fatalf("expected exec failure, got %v", err)
	}
	names, err := Applied(context.Background(), db)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no recorded migrations, got %v", names)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected nil db error")
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no markers", content: "CREATE TABLE a(id);", want: "CREATE TABLE a(id);"},
		{name: "up only", content: "-- +migrate Up\nCREATE TABLE a(id);", want: "\nCREATE TABLE a(id);"},
		{name: "up and down", content: "-- +migrate Up\nCREATE TABLE a(id);\n-- +migrate Down\nDROP TABLE a;", want: "\nCREATE TABLE a(id);\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractUpMigration(tt.content); got != tt.want {
				t.Fatalf("ExtractUpMigration = %q, want %q", got, tt.want)
			}
		})
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// A single connection keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func tableExists(t *testing.T, db *sql.DB, tableName string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tableName).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("check table exists: %v", err)
	}
	return name == tableName
}
