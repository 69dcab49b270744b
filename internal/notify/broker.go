package notify

import (
	"context"
	"sync"
)

// subscriberBuffer — сколько событий может ждать медленного подписчика.
// Доставка at-most-once: при переполнении событие для этого подписчика теряется.
const subscriberBuffer = 16

// Broker публикует события устройствам и раздаёт подписки.
type Broker interface {
	Publish(ctx context.Context, deviceID string, ev Event) error
	// Subscribe возвращает канал событий устройства и функцию отписки.
	// Канал закрывается после отписки.
	Subscribe(deviceID string) (<-chan Event, func())
}

// MemoryBroker — брокер в памяти одного процесса.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() { s.once.Do(func() { close(s.ch) }) }

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*subscriber]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, deviceID string, ev Event) error {
	b.deliver(deviceID, ev)
	return nil
}

// deliver раздаёт событие локальным подписчикам, не блокируясь на медленных.
func (b *MemoryBroker) deliver(deviceID string, ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for s := range b.subs[deviceID] {
		select {
		case s.ch <- ev:
			n++
		default:
		}
	}
	return n
}

func (b *MemoryBroker) Subscribe(deviceID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	set, ok := b.subs[deviceID]
	if !ok {
		set = make(map[*subscriber]struct{})
		b.subs[deviceID] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[deviceID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(b.subs, deviceID)
			}
		}
		b.mu.Unlock()
		s.close()
	}
	return s.ch, cancel
}

// Subscribers возвращает число подписок устройства.
func (b *MemoryBroker) Subscribers(deviceID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[deviceID])
}
