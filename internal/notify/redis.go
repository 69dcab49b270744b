package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "token:"

// RedisBroker раздаёт события между инстансами сервера через Redis pub/sub.
// Локальные подписчики живут в MemoryBroker; Start пересылает в него всё, что пришло из Redis.
type RedisBroker struct {
	*MemoryBroker
	redis  *redis.Client
	logger *zap.SugaredLogger
}

func NewRedisBroker(client *redis.Client, logger *zap.SugaredLogger) *RedisBroker {
	return &RedisBroker{
		MemoryBroker: NewMemoryBroker(),
		redis:        client,
		logger:       logger,
	}
}

// Publish отправляет событие всем инстансам, включая текущий.
func (b *RedisBroker) Publish(ctx context.Context, deviceID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode token event: %w", err)
	}
	if err := b.redis.Publish(ctx, channelPrefix+deviceID, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish token event: %w", err)
	}
	return nil
}

// Start слушает Redis до отмены ctx.
func (b *RedisBroker) Start(ctx context.Context) {
	pubsub := b.redis.PSubscribe(ctx, channelPrefix+"*")
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			b.handleMessage(msg.Channel, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBroker) handleMessage(channel, payload string) {
	deviceID := strings.TrimPrefix(channel, channelPrefix)
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.logger.Warnw("Invalid token event in pub/sub message",
			"channel", channel,
			"error", err)
		return
	}
	n := b.deliver(deviceID, ev)
	b.logger.Debugw("Token event delivered via pub/sub",
		"device_id", deviceID,
		"cleared", ev.Cleared(),
		"subscribers", n)
}
