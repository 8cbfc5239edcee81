// Package bus is the in-process publish/subscribe bus used when the
// application runs without a native shell.
package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Topic names a message stream.
type Topic string

// Topics used by the command tree.
const (
	TopicAction   Topic = "action"
	TopicSnapshot Topic = "snapshot"
)

const defaultBuffer = 64

// Message is one published payload. ID is a bus-wide sequence number.
type Message struct {
	ID      uint64
	Topic   Topic
	Payload any
	At      time.Time
}

// Bus fans messages out to per-topic subscriber channels. Publish never
// blocks: a subscriber whose buffer is full misses the message.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Topic][]chan Message
	closed      bool
	buffer      int
	log         *zap.Logger

	sequence atomic.Uint64
	dropped  atomic.Uint64
}

// New returns a bus whose subscriber channels hold buffer messages.
func New(log *zap.Logger, buffer int) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		subscribers: make(map[Topic][]chan Message),
		buffer:      buffer,
		log:         log,
	}
}

// Subscribe returns a channel receiving every message published on topic.
// The channel is closed by Unsubscribe or Close. Subscribing to a closed bus
// returns a closed channel.
func (b *Bus) Subscribe(topic Topic) <-chan Message {
	ch := make(chan Message, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(topic Topic, ch <-chan Message) {
	if ch == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[topic]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Publish delivers payload to the current subscribers of topic and returns
// the message id, or 0 when the bus is closed.
func (b *Bus) Publish(topic Topic, payload any) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	msg := Message{
		ID:      b.sequence.Add(1),
		Topic:   topic,
		Payload: payload,
		At:      time.Now(),
	}
	for _, sub := range b.subscribers[topic] {
		select {
		case sub <- msg:
		default:
			b.dropped.Add(1)
			b.log.Warn("bus subscriber full; message dropped",
				zap.String("topic", string(topic)),
				zap.Uint64("id", msg.ID))
		}
	}
	return msg.ID
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for _, sub := range subs {
			close(sub)
		}
		delete(b.subscribers, topic)
	}
}

// Stats holds bus statistics.
type Stats struct {
	Closed      bool
	Subscribers int
	Published   uint64
	Dropped     uint64
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subscribers {
		n += len(subs)
	}
	return Stats{
		Closed:      b.closed,
		Subscribers: n,
		Published:   b.sequence.Load(),
		Dropped:     b.dropped.Load(),
	}
}
