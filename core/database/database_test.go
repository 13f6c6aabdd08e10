package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3rciful/cardbot/migrations"
)

func TestNormalizeDefaultsToSQLite(t *testing.T) {
	cfg := Config{}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Driver != DriverSQLite || cfg.Path != "users.db" || cfg.MaxConnections != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.MigrateURL(); got != "sqlite3://users.db" {
		t.Fatalf("MigrateURL = %s", got)
	}
}

func TestNormalizePostgres(t *testing.T) {
	cfg := Config{Driver: "pg", Host: "db", Name: "cards", User: "bot", Password: "p@ss"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.MigrateURL(); got != "postgres://bot:p%40ss@db:5432/cards?sslmode=disable" {
		t.Fatalf("MigrateURL = %s", got)
	}
	if strings.Contains(cfg.Target(), "p@ss") {
		t.Fatalf("target leaks password: %s", cfg.Target())
	}

	if err := (&Config{Driver: "postgres"}).Normalize(); err == nil {
		t.Fatal("expected error for postgres without host")
	}
	if err := (&Config{Driver: "mysql"}).Normalize(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		files := listMigrationFiles(migrations.FS, driver)
		if len(files) == 0 || parseVersion(files[0]) != 1 {
			t.Fatalf("%s: unexpected migrations %v", driver, files)
		}
	}
	if got := countApplied([]string{"000001_a.up.sql", "000002_b.up.sql"}, 1, 2); got != 1 {
		t.Fatalf("countApplied = %d", got)
	}
}

func TestRunMigrationsSQLite(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "cards.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := RunMigrations(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run is a no-op
	if err := RunMigrations(cfg); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM users"); err != nil {
		t.Fatalf("query users: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty table, got %d rows", n)
	}
}

func TestConnectSQLiteAndWaitReady(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "ping.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.ConnectWait != 0 {
		t.Fatalf("sqlite should not wait, got %v", cfg.ConnectWait)
	}
	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := WaitReady(context.Background(), db, 0); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
}
