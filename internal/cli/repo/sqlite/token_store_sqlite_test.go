package sqlite

import (
	"SessionSync/internal/cli/auth"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) (*TokenStoreSQLite, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "db", "client.sqlite")
	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	if err := r.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return r, p
}

func TestOpen_And_Migrate(t *testing.T) {
	r, p := openTemp(t)
	// повторная миграция идемпотентна
	if err := r.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMigrations_OrderedAndApplied(t *testing.T) {
	names, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(names) == 0 || names[0] != "migrations/001_init.sql" {
		t.Fatalf("unexpected migrations: %v", names)
	}

	r, _ := openTemp(t)
	var n int
	err = r.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'auth_token'`).Scan(&n)
	if err != nil || n != 1 {
		t.Fatalf("auth_token table missing: n=%d err=%v", n, err)
	}
}

func TestTokenStoreSQLite_SaveLoadReplaceClear(t *testing.T) {
	r, _ := openTemp(t)
	ctx := context.Background()

	// пустая БД → (nil, nil)
	rec, err := r.Load(ctx)
	if err != nil || rec != nil {
		t.Fatalf("empty store must be (nil, nil), got %+v, %v", rec, err)
	}

	exp := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := r.Save(ctx, auth.TokenRecord{Token: "first", ExpiresAt: exp}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// вторая запись замещает первую
	if err := r.Save(ctx, auth.TokenRecord{Token: "second", ExpiresAt: exp.Add(time.Hour)}); err != nil {
		t.Fatalf("save replace: %v", err)
	}
	rec, err = r.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec == nil || rec.Token != "second" || !rec.ExpiresAt.Equal(exp.Add(time.Hour)) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := r.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	rec, err = r.Load(ctx)
	if err != nil || rec != nil {
		t.Fatalf("expected (nil, nil) after clear, got %+v, %v", rec, err)
	}
}

func TestTokenStoreSQLite_SaveRejectsInvalid(t *testing.T) {
	r, _ := openTemp(t)
	if err := r.Save(context.Background(), auth.TokenRecord{Token: "x"}); err == nil {
		t.Fatalf("expected error for record without expiry")
	}
}

func TestTokenStoreSQLite_PersistsAcrossReopen(t *testing.T) {
	r, p := openTemp(t)
	exp := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Save(context.Background(), auth.TokenRecord{Token: "keep", ExpiresAt: exp}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = r.Close()

	r2, err := Open(p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	rec, err := r2.Load(context.Background())
	if err != nil || rec == nil || rec.Token != "keep" {
		t.Fatalf("record lost after reopen: %+v, %v", rec, err)
	}
}
