package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"SessionSync/internal/cli/auth"
	"SessionSync/internal/notify"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	eventQueue = 16
)

// EventSubscriber слушает websocket-поток событий смены токена устройства.
// Реализует session.Notifier.
type EventSubscriber struct {
	WSBaseURL string
	DeviceID  string
	Dialer    *websocket.Dialer
	Logger    *zap.SugaredLogger
}

func NewEventSubscriber(wsBaseURL, deviceID string, logger *zap.SugaredLogger) *EventSubscriber {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EventSubscriber{
		WSBaseURL: strings.TrimRight(wsBaseURL, "/"),
		DeviceID:  deviceID,
		Dialer:    websocket.DefaultDialer,
		Logger:    logger,
	}
}

// Subscribe подключается к серверу и возвращает канал событий в порядке получения.
// Канал закрывается, когда соединение обрывается или ctx отменён.
func (s *EventSubscriber) Subscribe(ctx context.Context) (<-chan auth.ChangeEvent, error) {
	if s.DeviceID == "" {
		return nil, fmt.Errorf("subscribe: empty device id")
	}
	u := s.WSBaseURL + "/api/token/events?device=" + url.QueryEscape(s.DeviceID)

	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}

	out := make(chan auth.ChangeEvent, eventQueue)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	go s.readLoop(ctx, conn, out, stop)
	return out, nil
}

func (s *EventSubscriber) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- auth.ChangeEvent, stop chan struct{}) {
	defer close(out)
	defer close(stop)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.Logger.Debugw("Token event stream closed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := DecodeEvent(data)
		if err != nil {
			s.Logger.Warnw("Skipping malformed token event", "error", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// DecodeEvent разбирает фрейм: JSON null — выход, {"token","expiresAt"} — новый токен.
func DecodeEvent(data []byte) (auth.ChangeEvent, error) {
	var ev notify.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return auth.ChangeEvent{}, fmt.Errorf("decode token event: %w", err)
	}
	if ev.Cleared() {
		return auth.Cleared(), nil
	}
	return auth.Issued(auth.TokenRecord{
		Token:     auth.Token(ev.Issued.Token),
		ExpiresAt: ev.Issued.ExpiresAt,
	}), nil
}
