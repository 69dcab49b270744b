// Package notify доставляет события смены токена подписанным устройствам.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Issued — полезная нагрузка события выдачи токена.
type Issued struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Event — событие смены токена. Issued == nil означает выход (токен очищен).
type Event struct {
	Issued *Issued
}

// TokenIssued создаёт событие выдачи нового токена.
func TokenIssued(token string, expiresAt time.Time) Event {
	return Event{Issued: &Issued{Token: token, ExpiresAt: expiresAt.UTC()}}
}

// TokenCleared создаёт событие выхода.
func TokenCleared() Event {
	return Event{}
}

// Cleared сообщает, что событие очищает токен.
func (e Event) Cleared() bool { return e.Issued == nil }

// MarshalJSON кодирует событие как null либо {"token","expiresAt"}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Issued)
}

// UnmarshalJSON разбирает null либо {"token","expiresAt"}.
func (e *Event) UnmarshalJSON(b []byte) error {
	var p *Issued
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p != nil && p.Token == "" {
		return fmt.Errorf("token event without token")
	}
	e.Issued = p
	return nil
}
