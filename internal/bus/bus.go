// Package bus provides the synchronous publish/subscribe channel that keeps
// independent project views consistent without coupling them to the
// coordinator. Besides ephemeral delivery it keeps a message board: the last
// payload published per event type, readable by late subscribers.
package bus

import (
	"fmt"
	"log/slog"
	"sync"
)

// EventType identifies one event channel on the bus.
type EventType string

const (
	// OperationStarted signals that a create/load/save/exit went to the
	// worker; views show a busy indicator.
	OperationStarted EventType = "operation_started"

	// DataUpdated carries the replaced live project after a completed
	// operation. It is always published before OperationSettled.
	DataUpdated EventType = "data_updated"

	// OperationSettled follows every completed operation, success or failure,
	// so views can always clear the busy indicator.
	OperationSettled EventType = "operation_settled"

	// FlushEditableContent tells observers holding externally edited content
	// (a rich-text note body) to persist it before a save proceeds.
	FlushEditableContent EventType = "flush_editable_content"

	// Teardown tells the host shell to stop after a successful exit.
	Teardown EventType = "teardown"
)

// Event is one published occurrence.
type Event struct {
	Type    EventType
	Payload any
}

// Subscriber receives events it subscribed to. The same subscriber value may
// subscribe to several types; registration is idempotent per (subscriber,
// type) pair.
type Subscriber interface {
	OnEvent(Event)
}

// Bus is a synchronous typed publish/subscribe hub with a last-value message
// board. Publish dispatches over a snapshot of the subscriber set, so a
// handler may subscribe, unsubscribe, or publish re-entrantly. A panic in one
// handler is logged and never stops delivery to the rest.
type Bus struct {
	mu          sync.Mutex
	subscribers map[EventType][]Subscriber
	board       map[EventType]Event
	log         *slog.Logger
}

// New creates an empty bus. A nil logger falls back to slog.Default().
func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		subscribers: make(map[EventType][]Subscriber),
		board:       make(map[EventType]Event),
		log:         log,
	}
}

// Subscribe registers s for events of type t. Registering the same
// (subscriber, type) pair twice is a no-op.
func (b *Bus) Subscribe(s Subscriber, t EventType) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.subscribers[t] {
		if existing == s {
			return
		}
	}
	b.subscribers[t] = append(b.subscribers[t], s)
}

// Unsubscribe removes s from events of type t. Unknown pairs are a no-op.
func (b *Bus) Unsubscribe(s Subscriber, t EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subscribers[t]
	for i, existing := range list {
		if existing == s {
			b.subscribers[t] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers e synchronously to every current subscriber of e.Type, in
// subscription order, and records e on the message board. Each handler is
// isolated: a panic is caught and logged, and delivery continues.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.board[e.Type] = e
	snapshot := make([]Subscriber, len(b.subscribers[e.Type]))
	copy(snapshot, b.subscribers[e.Type])
	b.mu.Unlock()

	for _, s := range snapshot {
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s Subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				slog.String("event", string(e.Type)),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	s.OnEvent(e)
}

// Latest returns the last event published for t, if any. A subscriber
// registering after a publish can pull the current value here instead of
// waiting for the next publish.
func (b *Bus) Latest(t EventType) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.board[t]
	return e, ok
}

// SubscriberFunc adapts a plain function to the Subscriber interface. Note
// that each SubscriberFunc pointer has its own identity for idempotence and
// unsubscription.
type SubscriberFunc func(Event)

// OnEvent implements Subscriber.
func (f *SubscriberFunc) OnEvent(e Event) {
	(*f)(e)
}
