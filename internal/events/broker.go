package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/metorial/script-admin/internal/logging"
)

const (
	TypeOutput  = "output"
	TypeScripts = "scripts"
	TypeNotice  = "notice"
	TypeState   = "state"
)

type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Broker fans events out to subscribers. Slow subscribers miss events
// instead of blocking publishers.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
	buffer  int
	log     *zap.SugaredLogger
}

func NewBroker(buffer int, log *zap.SugaredLogger) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Broker{
		clients: make(map[chan Event]struct{}),
		buffer:  buffer,
		log:     log,
	}
}

func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.clients[ch] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()

	b.log.Debugw("event subscriber added", "total", total)
	return ch
}

func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
	total := len(b.clients)
	b.mu.Unlock()

	b.log.Debugw("event subscriber removed", "total", total)
}

func (b *Broker) Publish(eventType string, data interface{}) {
	evt := Event{Type: eventType, Data: data, Timestamp: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.clients {
		select {
		case ch <- evt:
		default:
			b.log.Warnw("dropping event for slow subscriber", "type", eventType)
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
