// Package events implements the in-process publish/subscribe channel the
// catalog notifies after initialization and every mutation.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"go.uber.org/zap"
)

// Topic names a stream of catalog events.
type Topic string

const (
	TopicInitialized Topic = "catalog:initialized"
	TopicUpdated     Topic = "catalog:updated"

	// TopicAll subscribes to every topic.
	TopicAll Topic = ""
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Event carries a snapshot of the whole catalog.
type Event struct {
	Topic     Topic
	Catalog   domain.Aggregate
	Sequence  uint64
	Timestamp time.Time
}

// Handler receives events on the subscriber's own goroutine.
type Handler func(Event)

type subscriber struct {
	topic   Topic
	ch      chan Event
	handler Handler
	once    sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.ch) })
}

// Bus fans events out to subscribers. Publish never blocks: each subscriber
// drains its own buffered queue and a full queue drops the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
	wg     sync.WaitGroup

	sequence atomic.Uint64
	dropped  atomic.Uint64
	buffer   int
	logger   *zap.Logger
}

type Option func(*Bus)

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// NewBus creates a bus. A nil logger discards log output.
func NewBus(logger *zap.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		subs:   make(map[uint64]*subscriber),
		buffer: DefaultBuffer,
		logger: logger.Named("events"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic (TopicAll for every topic) and returns a
// function that removes the subscription. Subscribing to a closed bus is a
// no-op.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}

	id := b.nextID
	b.nextID++
	sub := &subscriber{topic: topic, ch: make(chan Event, b.buffer), handler: h}
	b.subs[id] = sub

	b.wg.Add(1)
	go b.run(sub)

	return func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			sub.stop()
		}
		b.mu.Unlock()
	}
}

func (b *Bus) run(sub *subscriber) {
	defer b.wg.Done()
	for ev := range sub.ch {
		b.deliver(sub, ev)
	}
}

func (b *Bus) deliver(sub *subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", string(ev.Topic)),
				zap.Uint64("sequence", ev.Sequence),
				zap.Any("panic", r),
			)
		}
	}()
	sub.handler(ev)
}

// Publish hands ev to every matching subscriber. Each subscriber receives
// its own deep copy of the catalog.
func (b *Bus) Publish(ev Event) {
	ev.Sequence = b.sequence.Add(1)
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.topic != TopicAll && sub.topic != ev.Topic {
			continue
		}
		delivery := ev
		delivery.Catalog = ev.Catalog.Clone()
		select {
		case sub.ch <- delivery:
		default:
			b.dropped.Add(1)
			b.logger.Warn("subscriber queue full, dropping event",
				zap.String("topic", string(ev.Topic)),
				zap.Uint64("sequence", ev.Sequence),
			)
		}
	}
}

// Dropped reports how many deliveries were discarded because a queue was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops delivery, lets subscribers drain what is already queued and
// waits for their goroutines to exit. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		for id, sub := range b.subs {
			delete(b.subs, id)
			sub.stop()
		}
	}
	b.mu.Unlock()
	b.wg.Wait()
}
