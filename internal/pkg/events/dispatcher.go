// Package events decouples domain operations from notification and realtime
// delivery. Dispatch never blocks and never fails the caller: a domain
// transaction that already committed must not be rolled back or held up by a
// slow or broken delivery layer.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/changex/eduspace/internal/pkg/logger"
)

// Event types emitted by the domain services.
const (
	TypeEnrollmentChange  = "enrollment_change"
	TypeUserNotification  = "user_notification"
	TypeGradeUpdated      = "grade_updated"
	TypeWaitlistPromotion = "waitlist_promotion"
)

// Event is a fire-and-forget domain event.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	UserID     int64                  `json:"userId,omitempty"`
	OfferingID int64                  `json:"offeringId,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Dispatcher accepts events for asynchronous delivery.
type Dispatcher interface {
	Dispatch(event Event)
}

// Handler receives events from the dispatcher worker. Handler errors are
// logged and swallowed; delivery is at-least-once from the queue's view but
// an overflowing queue drops rather than blocks.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// AsyncDispatcher fans events out to registered handlers from a single
// worker goroutine over a buffered queue.
type AsyncDispatcher struct {
	queue    chan Event
	handlers []Handler
	mu       sync.RWMutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewAsyncDispatcher creates a dispatcher with the given queue capacity and
// starts its worker.
func NewAsyncDispatcher(queueSize int) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &AsyncDispatcher{
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Register adds a delivery handler. Handlers registered after events were
// dispatched only see subsequent events.
func (d *AsyncDispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Dispatch enqueues an event without blocking. When the queue is full the
// event is dropped with a warning; the originating operation is unaffected.
func (d *AsyncDispatcher) Dispatch(event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	select {
	case d.queue <- event:
	default:
		logger.Warn().
			Str("eventType", event.Type).
			Int64("userID", event.UserID).
			Msg("Event queue full, dropping event")
	}
}

// Stop drains the worker. Pending events already queued are still delivered.
func (d *AsyncDispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.mu.RLock()
		handlers := make([]Handler, len(d.handlers))
		copy(handlers, d.handlers)
		d.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		for _, h := range handlers {
			if err := h.Handle(ctx, event); err != nil {
				logger.Error().
					Err(err).
					Str("eventID", event.ID).
					Str("eventType", event.Type).
					Msg("Event handler failed")
			}
		}
		cancel()
	}
}

// NopDispatcher discards all events. Useful in tests and tooling.
type NopDispatcher struct{}

// Dispatch implements Dispatcher.
func (NopDispatcher) Dispatch(Event) {}
