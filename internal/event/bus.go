// Package event implements the typed publish/subscribe queue that carries
// gameplay-observable events from simulation systems to presentation adapters.
package event

import (
	"github.com/simstage/bridge/pkg/core"
)

// Handler receives events during a flush.
type Handler func(core.Event)

// Subscription identifies a registered handler so it can be removed.
// Handlers are funcs and funcs are not comparable in Go, so removal goes
// through the token returned by Subscribe rather than handler identity.
type Subscription struct {
	eventType core.EventType
	id        uint64
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus queues events during a simulation tick and delivers them synchronously
// on Flush. It is not safe for concurrent use: pushes happen in the tick's
// producer phase, flushes between ticks, never interleaved.
type Bus struct {
	handlers map[core.EventType][]registration
	queue    []core.Event
	nextID   uint64
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[core.EventType][]registration),
	}
}

// Subscribe registers a handler for the given event type. core.EventTypeAny
// subscribes to every event. Handlers for the same type are invoked in
// subscription order.
func (b *Bus) Subscribe(eventType core.EventType, h Handler) Subscription {
	b.nextID++
	sub := Subscription{eventType: eventType, id: b.nextID}
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: sub.id, handler: h})
	return sub
}

// Unsubscribe removes a previously registered handler. Unknown subscriptions
// are a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	regs := b.handlers[sub.eventType]
	for i, reg := range regs {
		if reg.id == sub.id {
			b.handlers[sub.eventType] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Push queues an event for the next flush. Nil events are dropped.
func (b *Bus) Push(e core.Event) {
	if e == nil {
		return
	}
	b.queue = append(b.queue, e)
}

// Flush delivers every queued event in push order: first to handlers
// registered for the event's exact type, then to wildcard handlers. Events
// pushed by a handler during the flush are queued for the next Flush call,
// never delivered reentrantly.
func (b *Bus) Flush() {
	if len(b.queue) == 0 {
		return
	}

	// Swap the queue out so handler-produced events land in a fresh one.
	pending := b.queue
	b.queue = nil

	for _, e := range pending {
		for _, reg := range b.handlers[e.Type()] {
			reg.handler(e)
		}
		for _, reg := range b.handlers[core.EventTypeAny] {
			reg.handler(e)
		}
	}
}

// Clear discards all queued events without delivering them.
func (b *Bus) Clear() {
	b.queue = nil
}

// EventCount returns the number of queued, undelivered events.
func (b *Bus) EventCount() int {
	return len(b.queue)
}

// HandlerCount returns the number of handlers registered for the given type.
func (b *Bus) HandlerCount(eventType core.EventType) int {
	return len(b.handlers[eventType])
}
