// Package events carries record notifications to listeners off the critical
// path: Publish never blocks and no listener can fail the publishing call.
package events

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	dom "Vault/internal/domain"

	"github.com/google/uuid"
)

type Type string

const (
	RecordAdded   Type = "recordAdded"
	RecordUpdated Type = "recordUpdated"
	RecordDeleted Type = "recordDeleted"
)

// Event is one notification about a record.
type Event struct {
	ID     string     `json:"id"`
	Type   Type       `json:"type"`
	Record dom.Record `json:"record"`
	At     time.Time  `json:"at"`
}

// New stamps a fresh event.
func New(t Type, rec dom.Record) Event {
	return Event{ID: uuid.NewString(), Type: t, Record: rec, At: time.Now().UTC()}
}

// Listener receives events on the dispatcher goroutine.
type Listener interface {
	Handle(ctx context.Context, ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev Event)

func (f ListenerFunc) Handle(ctx context.Context, ev Event) { f(ctx, ev) }

// Bus fans events out to listeners in publish order.
type Bus struct {
	logger *log.Logger
	queue  chan Event
	done   chan struct{}

	mu        sync.RWMutex
	listeners []Listener
	closed    bool
	closeOnce sync.Once
}

// NewBus starts the dispatcher. buffer bounds the number of queued events;
// beyond it events are dropped.
func NewBus(buffer int, logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.New(os.Stderr, "[events] ", log.LstdFlags)
	}
	if buffer <= 0 {
		buffer = 1
	}
	b := &Bus{
		logger: logger,
		queue:  make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish queues ev without waiting for listeners.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- ev:
	default:
		b.logger.Printf("events: queue full, dropped %s for record %s", ev.Type, ev.Record.ID)
	}
}

// Close delivers the events already queued and stops the dispatcher.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()
		<-b.done
	})
}

func (b *Bus) loop() {
	defer close(b.done)
	for ev := range b.queue {
		b.mu.RLock()
		listeners := append([]Listener(nil), b.listeners...)
		b.mu.RUnlock()
		for _, l := range listeners {
			b.deliver(l, ev)
		}
	}
}

func (b *Bus) deliver(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("events: listener panicked on %s: %v", ev.Type, r)
		}
	}()
	l.Handle(context.Background(), ev)
}
