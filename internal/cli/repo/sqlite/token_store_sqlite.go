package sqlite

import (
	"SessionSync/internal/cli/auth"
	"SessionSync/internal/cli/repo"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// TokenStoreSQLite — хранилище токена в локальной БД SQLite. В таблице не больше одной строки.
type TokenStoreSQLite struct {
	db *sql.DB
}

var _ repo.TokenStore = (*TokenStoreSQLite)(nil)

// Open открывает (и создаёт при необходимости) файл БД по пути dbPath.
func Open(dbPath string) (*TokenStoreSQLite, error) {
	if dbPath == "" {
		return nil, errors.New("empty client db path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// одна запись и редкие обращения: одного соединения хватает и нет гонок за блокировку
	db.SetMaxOpenConns(1)
	return &TokenStoreSQLite{db: db}, nil
}

// Close закрывает соединение с БД.
func (r *TokenStoreSQLite) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate гарантирует наличие необходимых таблиц.
func (r *TokenStoreSQLite) Migrate() error {
	return applyMigrations(context.Background(), r.db)
}

func (r *TokenStoreSQLite) Load(ctx context.Context) (*auth.TokenRecord, error) {
	var (
		token string
		exp   int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT token, expires_at FROM auth_token WHERE id = 1`).Scan(&token, &exp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.TokenRecord{Token: auth.Token(token), ExpiresAt: time.UnixMilli(exp).UTC()}, nil
}

func (r *TokenStoreSQLite) Save(ctx context.Context, rec auth.TokenRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO auth_token(id, token, expires_at, updated_at) VALUES(1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		string(rec.Token), rec.ExpiresAt.UnixMilli(), time.Now().UnixMilli(),
	)
	return err
}

func (r *TokenStoreSQLite) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_token WHERE id = 1`)
	return err
}
