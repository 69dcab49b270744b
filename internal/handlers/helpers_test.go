package handlers_test

import (
	"SessionSync/internal/config"
	"SessionSync/internal/handlers"
	"SessionSync/internal/middleware"
	"SessionSync/internal/notify"
	"SessionSync/internal/repo"
	"SessionSync/internal/service"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	router   http.Handler
	broker   *notify.MemoryBroker
	sessions *service.SessionService
}

// newTestEnv поднимает роутер на реальных сервисах и in-memory SQLite.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)

	cfg := &config.Config{AuthSecret: "test-secret", TokenTTL: time.Hour}
	logger := zap.NewNop().Sugar()
	users := repo.NewUserRepository(db)
	userSvc := service.NewUserService(users)
	sessionSvc := service.NewSessionService(repo.NewSessionRepository(db), users, cfg.AuthSecret, cfg.TokenTTL, clockwork.NewRealClock())
	broker := notify.NewMemoryBroker()

	h := handlers.NewHandler(userSvc, sessionSvc, broker, logger, cfg)
	return &testEnv{router: h.Router, broker: broker, sessions: sessionSvc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// register создаёт пользователя и возвращает выданный токен.
func (e *testEnv) register(t *testing.T, login, password, device string) handlers.TokenResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/user/register", handlers.CredentialsRequest{Login: login, Password: password, DeviceID: device}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}
