package handlers

import (
	"SessionSync/internal/notify"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// EventsHandler отдаёт события смены токена устройства по websocket.
type EventsHandler struct {
	Broker   notify.Broker
	Logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewEventsHandler(broker notify.Broker, logger *zap.SugaredLogger) *EventsHandler {
	return &EventsHandler{
		Broker: broker,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Stream: GET /api/token/events?device=<id>. Каждое событие — один текстовый фрейм
// с JSON null (выход) или {"token","expiresAt"}. Подтверждений нет.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device")
	if deviceID == "" {
		http.Error(w, "device is required", http.StatusBadRequest)
		return
	}

	// подписка до апгрейда: после рукопожатия клиент не должен терять события
	events, unsubscribe := h.Broker.Subscribe(deviceID)
	defer unsubscribe()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warnw("Events: upgrade failed", "device_id", deviceID, "error", err)
		return
	}
	defer ws.Close()

	h.Logger.Debugw("Events: subscriber connected", "device_id", deviceID)
	done := make(chan struct{})
	go readPump(ws, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Errorw("Events: encode failed", "error", err)
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				h.Logger.Debugw("Events: write failed", "device_id", deviceID, "error", err)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			h.Logger.Debugw("Events: subscriber disconnected", "device_id", deviceID)
			return
		}
	}
}

// readPump читает (и отбрасывает) входящие фреймы, чтобы обрабатывались pong и close.
func readPump(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
