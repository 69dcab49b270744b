package model

import "time"

// Session — серверная сессия, выданная при логине. ID совпадает с jti в JWT.
type Session struct {
	ID       string `gorm:"primaryKey;type:uuid"`
	UserID   int64  `gorm:"not null;index"` // ссылка на users.id
	User     *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	DeviceID string `gorm:"index"`

	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Active сообщает, действует ли сессия в момент now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
