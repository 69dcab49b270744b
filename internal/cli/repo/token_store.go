package repo

import (
	"SessionSync/internal/cli/auth"
	"context"
)

// TokenStore описывает абстракцию хранилища auth-токена на клиенте.
type TokenStore interface {
	// Load возвращает сохранённую запись или (nil, nil), если токена нет.
	Load(ctx context.Context) (*auth.TokenRecord, error)
	Save(ctx context.Context, rec auth.TokenRecord) error
	// Clear удаляет запись; отсутствие записи не ошибка.
	Clear(ctx context.Context) error
}
