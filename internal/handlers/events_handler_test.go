package handlers_test

import (
	"SessionSync/internal/handlers"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_RequiresDevice(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/token/events", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEvents_StreamsLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "frank", "pw", "")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/token/events?device=dev-f"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	body, _ := json.Marshal(handlers.CredentialsRequest{Login: "frank", Password: "pw", DeviceID: "dev-f"})
	resp, err := http.Post(srv.URL+"/api/user/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var tok handlers.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	_ = resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var issued struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(frame, &issued))
	assert.Equal(t, tok.Token, issued.Token)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/user/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, frame, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(frame)))
}
