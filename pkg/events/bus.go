// Package events provides an in-process publish/subscribe bus carrying
// change notifications between the correlation core's components.
package events

import (
	"context"
	"sync"
	"time"
)

// Well-known topics published by the core.
const (
	TopicEntityUpserted      = "graph.entity.upserted"
	TopicRelationshipAdded   = "graph.relationship.added"
	TopicAlertRaised         = "alert.raised"
	TopicAlertEscalated      = "alert.escalated"
	TopicAlertResolved       = "alert.resolved"
)

// ChangeEvent is the message type carried on every topic.
type ChangeEvent struct {
	Topic     string
	Subject   string // entity id, relationship id or alert id
	Module    string
	Payload   any
	Timestamp time.Time
}

// Bus provides topic-based fan-out for change events
type Bus struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic     string
	channel   chan ChangeEvent
	bus       *Bus
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once // Ensures channel is only closed once
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe creates a new subscription to a topic. A nil subscription is
// returned after the bus has shut down.
func (b *Bus) Subscribe(ctx context.Context, topic string) *Subscription {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan ChangeEvent, 100), // Buffer for messages
		bus:     b,
		ctx:     subCtx,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	// Monitor context cancellation
	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub
}

// Publish sends an event to all subscribers of its topic.
// Uses a snapshot copy to avoid holding the lock during channel sends.
func (b *Bus) Publish(event ChangeEvent) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	topicSubs := b.subscribers[event.Topic]
	if len(topicSubs) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	// Send outside the lock; a full subscriber buffer drops the event
	// rather than blocking the publisher.
	for _, sub := range subs {
		select {
		case sub.channel <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes the bus and all subscriptions
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	close(b.shutdown)
	b.shutdownMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
	}
	b.subscribers = make(map[string]map[*Subscription]bool)
}

// Events returns the channel events are delivered on
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.channel
}

// Unsubscribe removes the subscription from the bus and closes its channel
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.bus.mu.Unlock()

	s.cancel()
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
