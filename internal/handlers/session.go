package handlers

import (
	"SessionSync/internal/middleware"
	"SessionSync/internal/service"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SessionHandler отвечает за проверку и завершение сессии по токену.
type SessionHandler struct {
	SessionService *service.SessionService
	Logger         *zap.SugaredLogger
}

func NewSessionHandler(sessionService *service.SessionService, logger *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{SessionService: sessionService, Logger: logger}
}

// ProfileResponse — данные сессии, которые видит клиент.
type ProfileResponse struct {
	UserID    int64     `json:"user_id"`
	Login     string    `json:"login"`
	DeviceID  string    `json:"device_id,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Get возвращает профиль текущей сессии или 401.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		UserID:    info.UserID,
		Login:     info.Login,
		DeviceID:  info.DeviceID,
		ExpiresAt: info.ExpiresAt,
	})
}

// SignOut отзывает серверную сессию токена запроса. Идемпотентен: без токена
// или с чужим токеном всё равно отвечает 200. Событие устройству не публикуется.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetTokenFromContext(r.Context())
	if ok {
		sess, err := h.SessionService.Revoke(r.Context(), token)
		switch {
		case err == nil:
			h.Logger.Infow("Session signed out", "session_id", sess.ID, "user_id", sess.UserID)
		case errors.Is(err, service.ErrInvalidToken):
			h.Logger.Debugw("SignOut: token not recognised", "error", err)
		default:
			h.Logger.Errorw("SignOut: revoke failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	middleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}
