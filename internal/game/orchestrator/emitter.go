package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/game/events"
)

// Event is the envelope every orchestrator emission is wrapped in.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Type      events.Type `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data,omitempty"`
}

// Handler consumes one emitted event. Handlers run synchronously on the
// emitting goroutine while the orchestrator lock is held, so they must not
// call back into the orchestrator; hand work off to a channel instead.
type Handler func(Event)

// Emitter fans orchestrator events out to subscribers in subscription
// order, synchronously, so the UI observes the documented event ordering.
type Emitter struct {
	mu        sync.Mutex
	sessionID uuid.UUID
	clock     clockwork.Clock
	nextSub   int
	byType    map[events.Type]map[int]Handler
	all       map[int]Handler
}

// NewEmitter creates an emitter stamping events with the session ID.
func NewEmitter(sessionID uuid.UUID, clock clockwork.Clock) *Emitter {
	return &Emitter{
		sessionID: sessionID,
		clock:     clock,
		byType:    make(map[events.Type]map[int]Handler),
		all:       make(map[int]Handler),
	}
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (e *Emitter) Subscribe(t events.Type, fn Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.byType[t] == nil {
		e.byType[t] = make(map[int]Handler)
	}
	id := e.nextSub
	e.nextSub++
	e.byType[t][id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.byType[t], id)
	}
}

// SubscribeAll registers a handler for every event type.
func (e *Emitter) SubscribeAll(fn Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.all[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.all, id)
	}
}

// Emit delivers an event to all matching subscribers.
func (e *Emitter) Emit(t events.Type, data any) {
	e.mu.Lock()
	ev := Event{
		ID:        uuid.New(),
		SessionID: e.sessionID,
		Type:      t,
		Timestamp: e.clock.Now(),
		Data:      data,
	}
	handlers := make([]Handler, 0, len(e.byType[t])+len(e.all))
	for id := 0; id < e.nextSub; id++ {
		if fn, ok := e.byType[t][id]; ok {
			handlers = append(handlers, fn)
		}
		if fn, ok := e.all[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// RemoveAll drops every subscription. Called on orchestrator stop so no
// listeners leak across instances.
func (e *Emitter) RemoveAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byType = make(map[events.Type]map[int]Handler)
	e.all = make(map[int]Handler)
}
