// Package sim drives a complete game: the day scheduler state machine,
// trade execution against the shared market, the event log, and final
// resolution and settlement.
package sim

import "github.com/babylon/sim-engine/internal/model"

// Handler receives events as they are emitted. Handlers get value copies;
// they observe the run but cannot mutate market or agent state.
type Handler func(model.Event)

// Bus records every event in order and dispatches it synchronously to
// subscribers. It is owned by the game and accessed from the scheduler's
// single goroutine; subscription is additive and never alters the
// simulation's behavior or ordering.
type Bus struct {
	handlers map[model.EventType][]Handler
	any      []Handler
	log      []model.Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[model.EventType][]Handler)}
}

// On registers a handler for one event type.
func (b *Bus) On(t model.EventType, h Handler) {
	b.handlers[t] = append(b.handlers[t], h)
}

// OnAny registers a handler for every event type.
func (b *Bus) OnAny(h Handler) {
	b.any = append(b.any, h)
}

// Emit appends the event to the canonical log and dispatches it.
func (b *Bus) Emit(e model.Event) {
	b.log = append(b.log, e)
	for _, h := range b.any {
		h(e)
	}
	for _, h := range b.handlers[e.Type] {
		h(e)
	}
}

// Events returns a copy of the ordered event log.
func (b *Bus) Events() []model.Event {
	out := make([]model.Event, len(b.log))
	copy(out, b.log)
	return out
}

// Len returns the number of events emitted so far.
func (b *Bus) Len() int {
	return len(b.log)
}
