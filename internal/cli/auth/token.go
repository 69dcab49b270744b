// Package auth описывает клиентские типы аутентификации: токен, его запись в хранилище,
// события смены токена и профиль сессии.
package auth

import (
	"fmt"
	"time"
)

// Token — непрозрачная строка учётных данных.
type Token string

// TokenRecord — токен вместе со сроком действия, как он лежит в хранилище.
// Значение неизменяемо: новое чтение даёт новую запись.
type TokenRecord struct {
	Token     Token     `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired сообщает, истёк ли токен к моменту now. Граница включительная:
// токен с ExpiresAt == now уже истёк.
func (r TokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Validate проверяет, что запись пригодна для сохранения.
func (r TokenRecord) Validate() error {
	if r.Token == "" {
		return fmt.Errorf("empty token")
	}
	if r.ExpiresAt.IsZero() {
		return fmt.Errorf("token without expiry")
	}
	return nil
}

// EventKind различает варианты ChangeEvent.
type EventKind int

const (
	TokenIssued EventKind = iota + 1
	TokenCleared
)

func (k EventKind) String() string {
	switch k {
	case TokenIssued:
		return "token_issued"
	case TokenCleared:
		return "token_cleared"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ChangeEvent — уведомление о смене токена из другого процесса.
// Record заполнен только для TokenIssued.
type ChangeEvent struct {
	Kind   EventKind
	Record TokenRecord
}

// Issued создаёт событие выдачи токена.
func Issued(rec TokenRecord) ChangeEvent {
	return ChangeEvent{Kind: TokenIssued, Record: rec}
}

// Cleared создаёт событие выхода.
func Cleared() ChangeEvent {
	return ChangeEvent{Kind: TokenCleared}
}

// Profile — данные сессии, которые сервер выводит из токена.
type Profile struct {
	UserID    int64     `json:"user_id"`
	Login     string    `json:"login"`
	DeviceID  string    `json:"device_id,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}
