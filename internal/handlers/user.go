package handlers

import (
	"SessionSync/internal/config"
	"SessionSync/internal/middleware"
	"SessionSync/internal/model"
	"SessionSync/internal/notify"
	"SessionSync/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UserHandler обрабатывает регистрацию, логин и выход.
type UserHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
	Broker         notify.Broker
	Logger         *zap.SugaredLogger
	Config         *config.Config
}

// NewUserHandler создаёт хендлер пользователей
func NewUserHandler(
	userService *service.UserService,
	sessionService *service.SessionService,
	broker notify.Broker,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *UserHandler {
	return &UserHandler{
		UserService:    userService,
		SessionService: sessionService,
		Broker:         broker,
		Logger:         logger,
		Config:         cfg,
	}
}

// CredentialsRequest — тело register/login.
type CredentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	DeviceID string `json:"device_id,omitempty"`
}

// TokenResponse — выданный токен и срок его действия.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register регистрирует пользователя и сразу выдаёт токен.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Register: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Login, req.Password)
	switch {
	case errors.Is(err, service.ErrEmptyCredentials):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrLoginTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.Logger.Errorw("Register: service error", "login", req.Login, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.issue(w, r, user, req.DeviceID)
}

// Login проверяет учётные данные и выдаёт токен.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Login(r.Context(), req.Login, req.Password)
	switch {
	case errors.Is(err, service.ErrEmptyCredentials):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		h.Logger.Errorw("Login: service error", "login", req.Login, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.issue(w, r, user, req.DeviceID)
}

// Logout отзывает сессию и сообщает устройству, что токен очищен.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetTokenFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sess, err := h.SessionService.Revoke(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.Logger.Errorw("Logout: revoke failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	middleware.ClearAuthCookie(w)
	if sess.DeviceID != "" {
		if err := h.Broker.Publish(r.Context(), sess.DeviceID, notify.TokenCleared()); err != nil {
			h.Logger.Warnw("Logout: publish token cleared failed", "device_id", sess.DeviceID, "error", err)
		}
	}
	h.Logger.Infow("User logged out", "user_id", sess.UserID, "session_id", sess.ID)
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) issue(w http.ResponseWriter, r *http.Request, user *model.User, deviceID string) {
	issued, err := h.SessionService.Issue(r.Context(), user, deviceID)
	if err != nil {
		h.Logger.Errorw("issue token failed", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if deviceID != "" {
		ev := notify.TokenIssued(issued.Token, issued.ExpiresAt)
		if err := h.Broker.Publish(r.Context(), deviceID, ev); err != nil {
			// клиент получит токен из ответа, событие — только для других процессов устройства
			h.Logger.Warnw("publish token issued failed", "device_id", deviceID, "error", err)
		}
	}

	middleware.SetAuthCookie(w, issued.Token, issued.ExpiresAt)
	h.Logger.Infow("Token issued", "user_id", user.ID, "session_id", issued.SessionID, "device_id", deviceID)
	writeJSON(w, http.StatusOK, TokenResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt})
}
