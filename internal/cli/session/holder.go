package session

import (
	"sync"

	"SessionSync/internal/cli/auth"
)

// Holder — единственный слот активного токена в памяти. Его передают по указателю
// всем, кому нужен токен для исходящих запросов. Писать в слот может только Synchronizer.
type Holder struct {
	mu     sync.RWMutex
	rec    auth.TokenRecord
	active bool
}

func NewHolder() *Holder {
	return &Holder{}
}

// Activate делает rec активным токеном, вытесняя прежний.
func (h *Holder) Activate(rec auth.TokenRecord) {
	h.mu.Lock()
	h.rec = rec
	h.active = true
	h.mu.Unlock()
}

// Clear оставляет слот пустым.
func (h *Holder) Clear() {
	h.mu.Lock()
	h.rec = auth.TokenRecord{}
	h.active = false
	h.mu.Unlock()
}

// Current возвращает активный токен.
func (h *Holder) Current() (auth.Token, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rec.Token, h.active
}

// Record возвращает активную запись целиком.
func (h *Holder) Record() (auth.TokenRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rec, h.active
}
