package handlers

import (
	"SessionSync/internal/config"
	"SessionSync/internal/middleware"
	"SessionSync/internal/notify"
	"SessionSync/internal/service"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	sessionService *service.SessionService,
	broker notify.Broker,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(sessionService))

	// Handlers
	userHandler := NewUserHandler(userService, sessionService, broker, logger, config)
	sessionHandler := NewSessionHandler(sessionService, logger)
	eventsHandler := NewEventsHandler(broker, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// User routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/logout", userHandler.Logout)

	// Session routes
	r.Get("/api/session", sessionHandler.Get)
	r.Post("/api/session/signout", sessionHandler.SignOut)

	// Token change stream
	r.Get("/api/token/events", eventsHandler.Stream)

	return &Handler{Router: r}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
