package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SessionSync/internal/cli/auth"
)

// SessionClient обращается к auth-эндпоинтам сервера. Реализует session.Validator.
type SessionClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewSessionClient(baseURL string, timeout time.Duration) *SessionClient {
	return &SessionClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	DeviceID string `json:"device_id,omitempty"`
}

// Register создаёт пользователя и возвращает выданный токен.
func (c *SessionClient) Register(ctx context.Context, login, password, deviceID string) (auth.TokenRecord, error) {
	return c.credentialsCall(ctx, "/api/user/register", login, password, deviceID)
}

// Login проверяет учётные данные и возвращает выданный токен.
func (c *SessionClient) Login(ctx context.Context, login, password, deviceID string) (auth.TokenRecord, error) {
	return c.credentialsCall(ctx, "/api/user/login", login, password, deviceID)
}

func (c *SessionClient) credentialsCall(ctx context.Context, path, login, password, deviceID string) (auth.TokenRecord, error) {
	resp, body, err := PostJSON(ctx, c.HTTP, c.BaseURL+path, credentials{Login: login, Password: password, DeviceID: deviceID}, "")
	if err != nil {
		return auth.TokenRecord{}, fmt.Errorf("request %s: %w", path, err)
	}
	if err := checkStatus(resp, body); err != nil {
		return auth.TokenRecord{}, err
	}
	var rec auth.TokenRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return auth.TokenRecord{}, fmt.Errorf("decode token response: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return auth.TokenRecord{}, fmt.Errorf("bad token response: %w", err)
	}
	return rec, nil
}

// Logout отзывает сессию token; сервер сообщит остальным процессам устройства.
func (c *SessionClient) Logout(ctx context.Context, token auth.Token) error {
	resp, body, err := PostJSON(ctx, c.HTTP, c.BaseURL+"/api/user/logout", nil, string(token))
	if err != nil {
		return fmt.Errorf("request logout: %w", err)
	}
	return checkStatus(resp, body)
}

// RefetchSession запрашивает профиль сессии. Пустой токен означает отсутствие сессии,
// запрос в этом случае не отправляется.
func (c *SessionClient) RefetchSession(ctx context.Context, token auth.Token) (*auth.Profile, error) {
	if token == "" {
		return nil, nil
	}
	resp, body, err := GetJSON(ctx, c.HTTP, c.BaseURL+"/api/session", string(token))
	if err != nil {
		return nil, fmt.Errorf("request session: %w", err)
	}
	if err := checkStatus(resp, body); err != nil {
		return nil, err
	}
	var p auth.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &p, nil
}

// SignOut отзывает серверную сессию token без уведомления устройства.
// Пустой токен — нечего отзывать.
func (c *SessionClient) SignOut(ctx context.Context, token auth.Token) error {
	if token == "" {
		return nil
	}
	resp, body, err := PostJSON(ctx, c.HTTP, c.BaseURL+"/api/session/signout", nil, string(token))
	if err != nil {
		return fmt.Errorf("request signout: %w", err)
	}
	return checkStatus(resp, body)
}
