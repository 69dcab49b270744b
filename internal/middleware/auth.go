package middleware

import (
	"SessionSync/internal/service"
	"context"
	"net/http"
	"strings"
	"time"
)

// AuthCookieName — имя cookie с токеном сессии.
const AuthCookieName = "auth_token"

type contextKey string

const (
	sessionKey contextKey = "session"
	tokenKey   contextKey = "token"
)

// TokenValidator проверяет токен и возвращает сессию.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*service.SessionInfo, error)
}

// WithAuth кладёт проверенную сессию и исходный токен в контекст.
// Запросы без токена или с невалидным токеном проходят дальше анонимными:
// решение об отказе принимает хендлер.
func WithAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), tokenKey, token)
			info, err := v.Validate(r.Context(), token)
			if err != nil {
				sugar.Debugw("auth token rejected", "error", err)
			} else {
				ctx = context.WithValue(ctx, sessionKey, info)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest достаёт токен из cookie auth_token или заголовка Authorization: Bearer.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AuthCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// GetSessionFromContext возвращает сессию, если токен запроса прошёл проверку.
func GetSessionFromContext(ctx context.Context) (*service.SessionInfo, bool) {
	info, ok := ctx.Value(sessionKey).(*service.SessionInfo)
	return info, ok && info != nil
}

// GetTokenFromContext возвращает исходный токен запроса, даже если он не прошёл проверку.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok && tok != ""
}

// SetAuthCookie выставляет cookie с токеном до момента его истечения.
func SetAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookie удаляет cookie с токеном.
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
