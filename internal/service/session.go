package service

import (
	"SessionSync/internal/model"
	"SessionSync/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionRevoked = errors.New("session revoked")
)

// IssuedToken — токен, выданный при логине.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	SessionID string
	DeviceID  string
}

// SessionInfo — проверенная сессия, которую видят хендлеры.
type SessionInfo struct {
	SessionID string
	UserID    int64
	Login     string
	DeviceID  string
	ExpiresAt time.Time
}

// SessionService выдаёт, проверяет и отзывает токены сессий.
type SessionService struct {
	sessions repo.SessionRepository
	users    repo.UserRepository
	secret   []byte
	ttl      time.Duration
	clock    clockwork.Clock
}

func NewSessionService(sessions repo.SessionRepository, users repo.UserRepository, secret string, ttl time.Duration, clock clockwork.Clock) *SessionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		clock:    clock,
	}
}

// Issue создаёт сессию для пользователя и подписывает JWT (jti = ID сессии).
func (s *SessionService) Issue(ctx context.Context, user *model.User, deviceID string) (*IssuedToken, error) {
	now := s.clock.Now().UTC()
	// jwt хранит exp в секундах, держим ту же точность в БД
	expiresAt := now.Add(s.ttl).Truncate(time.Second)
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		DeviceID:  deviceID,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   fmt.Sprint(user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt, SessionID: sess.ID, DeviceID: deviceID}, nil
}

// Validate проверяет подпись, срок действия и состояние сессии.
func (s *SessionService) Validate(ctx context.Context, token string) (*SessionInfo, error) {
	claims, err := s.parse(token, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.RevokedAt != nil {
		return nil, ErrSessionRevoked
	}
	if !sess.Active(s.clock.Now()) {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &SessionInfo{
		SessionID: sess.ID,
		UserID:    user.ID,
		Login:     user.Login,
		DeviceID:  sess.DeviceID,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Revoke отзывает сессию токена. Истёкший, но корректно подписанный токен тоже можно отозвать.
// Повторный отзыв не считается ошибкой.
func (s *SessionService) Revoke(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if _, err := s.sessions.Revoke(ctx, sess.ID, s.clock.Now().UTC()); err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return sess, nil
}

// PurgeExpired удаляет из БД истёкшие сессии.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.clock.Now().UTC())
}

// RunPurge раз в every удаляет истёкшие сессии, пока ctx не отменён.
func (s *SessionService) RunPurge(ctx context.Context, every time.Duration, logger *zap.SugaredLogger) {
	ticker := s.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				logger.Warnw("Purge expired sessions failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Infow("Expired sessions purged", "count", n)
			}
		}
	}
}

func (s *SessionService) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
