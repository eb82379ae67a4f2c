package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler handles a published event.
type Handler func(context.Context, Published) error

// Dispatcher fans committed audit events out to in-process subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Published) error
	// Subscribe registers a handler for every event type.
	Subscribe(handler Handler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners []Handler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{logger: logger}
}

// Publish synchronously invokes handlers for the given event. A failing
// handler is logged and does not stop the others.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Published) error {
	d.mu.RLock()
	handlers := append([]Handler{}, d.listeners...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Event.Type)),
				zap.String("ticket_id", event.Event.TicketID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Subscribe registers a handler for every event type.
func (d *inMemoryDispatcher) Subscribe(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, handler)
}
