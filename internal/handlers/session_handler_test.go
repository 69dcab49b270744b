package handlers_test

import (
	"SessionSync/internal/handlers"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Get(t *testing.T) {
	env := newTestEnv(t)
	tok := env.register(t, "dave", "pw", "dev-d")

	rr := env.do(t, http.MethodGet, "/api/session", nil, tok.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var p handlers.ProfileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "dave", p.Login)
	assert.Equal(t, "dev-d", p.DeviceID)
	assert.True(t, p.ExpiresAt.Equal(tok.ExpiresAt))

	rr = env.do(t, http.MethodGet, "/api/session", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/session", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSession_SignOutIsIdempotentAndSilent(t *testing.T) {
	env := newTestEnv(t)
	tok := env.register(t, "erin", "pw", "dev-e")

	events, cancel := env.broker.Subscribe("dev-e")
	defer cancel()

	rr := env.do(t, http.MethodPost, "/api/session/signout", nil, tok.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/session/signout", nil, tok.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/session/signout", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/session/signout", nil, "forged")
	assert.Equal(t, http.StatusOK, rr.Code)

	// сессия отозвана
	rr = env.do(t, http.MethodGet, "/api/session", nil, tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// signout не должен будить клиентов устройства
	select {
	case ev := <-events:
		t.Fatalf("unexpected event after signout: %+v", ev)
	default:
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
