package repo

import (
	"SessionSync/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// SessionRepository хранит выданные сессии.
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error

	// GetByID возвращает сессию или gorm.ErrRecordNotFound.
	GetByID(ctx context.Context, id string) (*model.Session, error)

	// Revoke помечает сессию отозванной. revoked=false, если сессия уже была отозвана
	// или не существует.
	Revoke(ctx context.Context, id string, at time.Time) (revoked bool, err error)

	// DeleteExpired удаляет сессии, истёкшие до before. Возвращает число удалённых.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepository создаёт gorm-реализацию SessionRepository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.Session{})
	return tx.RowsAffected, tx.Error
}
