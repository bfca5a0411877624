package events

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact dispatched through the bus. Events are never
// mutated after emission.
type Event interface {
	EventID() uuid.UUID
	OccurredAt() time.Time
	EventType() string
}

// HandlerError captures one handler's failure during a publish. The failure
// aborts that handler only; remaining handlers still run.
type HandlerError struct {
	// Index is the handler's position in subscription order.
	Index int
	Err   error
}

func (e HandlerError) Error() string {
	return fmt.Sprintf("handler %d: %v", e.Index, e.Err)
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// PublishResult reports the outcome of a single publish call.
type PublishResult struct {
	EventID  uuid.UUID
	Type     string
	Handlers int
	Errors   []HandlerError
}

// Ok reports whether every handler completed without error.
func (r PublishResult) Ok() bool {
	return len(r.Errors) == 0
}

// LogEntry is the observability record appended for every publish,
// successful or not.
type LogEntry struct {
	EventID      uuid.UUID
	EventType    string
	OccurredAt   time.Time
	HandlerCount int
}

// DefaultLogCapacity bounds the in-memory event log. The oldest entries are
// dropped once the bound is reached.
const DefaultLogCapacity = 4096

type handler struct {
	fn func(Event) error
}

// Bus is an explicitly constructed, owned dispatch instance. Create one at
// startup, pass it to the components that need it, and let it go at process
// end; there is no package-level singleton.
type Bus struct {
	mu          sync.Mutex
	handlers    map[reflect.Type][]handler
	log         []LogEntry
	logCapacity int
}

// NewBus returns a Bus with the default log capacity.
func NewBus() *Bus {
	return NewBusWithLogCapacity(DefaultLogCapacity)
}

// NewBusWithLogCapacity returns a Bus whose event log keeps at most capacity
// entries. A capacity of zero or less disables logging.
func NewBusWithLogCapacity(capacity int) *Bus {
	return &Bus{
		handlers:    make(map[reflect.Type][]handler),
		logCapacity: capacity,
	}
}

// Subscribe registers fn for events of the concrete type E. Handlers for the
// same type run in subscription order.
func Subscribe[E Event](bus *Bus, fn func(E) error) {
	var zero E
	eventType := reflect.TypeOf(zero)

	wrapped := handler{fn: func(event Event) error {
		typed, ok := event.(E)
		if !ok {
			return fmt.Errorf("event %T dispatched to handler for %v", event, eventType)
		}
		return fn(typed)
	}}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[eventType] = append(bus.handlers[eventType], wrapped)
}

// Publish dispatches event synchronously. Every handler registered for the
// event's exact type runs to completion in subscription order before Publish
// returns; a handler error or panic is captured in the result and does not
// stop the remaining handlers. Handlers may publish further events, which
// are drained depth-first through the same path.
func (b *Bus) Publish(event Event) PublishResult {
	eventType := reflect.TypeOf(event)

	b.mu.Lock()
	registered := b.handlers[eventType]
	handlers := make([]handler, len(registered))
	copy(handlers, registered)
	b.appendLogLocked(LogEntry{
		EventID:      event.EventID(),
		EventType:    event.EventType(),
		OccurredAt:   event.OccurredAt(),
		HandlerCount: len(handlers),
	})
	b.mu.Unlock()

	result := PublishResult{
		EventID:  event.EventID(),
		Type:     event.EventType(),
		Handlers: len(handlers),
	}

	for i, h := range handlers {
		if err := b.invoke(h, event); err != nil {
			result.Errors = append(result.Errors, HandlerError{Index: i, Err: err})
		}
	}
	return result
}

func (b *Bus) invoke(h handler, event Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return h.fn(event)
}

// SubscriberCount reports how many handlers are registered for event's type.
func (b *Bus) SubscriberCount(event Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[reflect.TypeOf(event)])
}

// Log returns a copy of the event log in publish order.
func (b *Bus) Log() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := make([]LogEntry, len(b.log))
	copy(entries, b.log)
	return entries
}

// ResetLog discards the event log.
func (b *Bus) ResetLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = nil
}

func (b *Bus) appendLogLocked(entry LogEntry) {
	if b.logCapacity <= 0 {
		return
	}
	if len(b.log) >= b.logCapacity {
		drop := len(b.log) - b.logCapacity + 1
		b.log = append(b.log[:0], b.log[drop:]...)
	}
	b.log = append(b.log, entry)
}
