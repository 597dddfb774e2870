// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logger "github.com/smplabs/warden/logging"
)

// Bus topics. Payload is always a model.AuthEvent.
const (
	TopicEventRecorded    = "auth.event.recorded"
	TopicCacheInvalidated = "auth.cache.invalidated"
	TopicUserSynced       = "auth.user.synced"
)

// Event is one published message on the bus.
type Event struct {
	Topic   string
	Payload interface{}
}

// EventHandler consumes a published event.
type EventHandler func(context.Context, Event) error

// EventBus is an in-process publish/subscribe fan-out. Handlers run on
// their own goroutines; publishing never blocks the hot path.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]EventHandler
	nextID      int
	errorChan   chan error
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string]map[int]EventHandler),
		errorChan:   make(chan error, 100),
	}
}

// Subscribe registers a handler for a topic and returns a function
// that removes the subscription.
func (eb *EventBus) Subscribe(topic string, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.subscribers[topic] == nil {
		eb.subscribers[topic] = make(map[int]EventHandler)
	}
	id := eb.nextID
	eb.nextID++
	eb.subscribers[topic][id] = handler

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.subscribers[topic], id)
	}
}

// Publish fans the payload out to every handler on the topic.
func (eb *EventBus) Publish(ctx context.Context, topic string, payload interface{}) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.subscribers[topic]))
	for _, h := range eb.subscribers[topic] {
		handlers = append(handlers, h)
	}
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{Topic: topic, Payload: payload}
	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(ctx, event); err != nil {
				select {
				case eb.errorChan <- fmt.Errorf("event handler error on %s: %w", topic, err):
				default:
					logger.Error("Event bus error channel full",
						zap.Error(err),
						zap.String("topic", topic))
				}
			}
		}(handler)
	}
}

// Start drains handler errors until the context ends.
func (eb *EventBus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case err := <-eb.errorChan:
				logger.Error("Event handler error", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()
}
