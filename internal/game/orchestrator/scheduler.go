package orchestrator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Scheduler is a named-callback registry: scheduling under an existing key
// cancels the prior callback, and a generation counter makes a callback
// that already fired but has not yet run observable as stale. This is the
// race-elimination mechanism for auto-advance delays.
type Scheduler struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	timers  map[string]clockwork.Timer
	gens    map[string]uint64
	stopped bool
}

// NewScheduler creates a scheduler on the given clock.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		timers: make(map[string]clockwork.Timer),
		gens:   make(map[string]uint64),
	}
}

// Schedule arms fn to run after delay under the given key, superseding any
// callback previously scheduled under that key.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.gens[key]++
	gen := s.gens[key]
	s.timers[key] = s.clock.AfterFunc(delay, func() { s.fire(key, gen, fn) })
	log.Debug().Str("key", key).Dur("delay", delay).Msg("callback scheduled")
}

func (s *Scheduler) fire(key string, gen uint64, fn func()) {
	s.mu.Lock()
	if s.stopped || s.gens[key] != gen {
		s.mu.Unlock()
		log.Debug().Str("key", key).Msg("dropping stale scheduled callback")
		return
	}
	delete(s.timers, key)
	s.mu.Unlock()
	fn()
}

// Cancel drops the callback pending under key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	s.gens[key]++
}

// CancelAll drops every pending callback.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
		s.gens[key]++
	}
}

// Stop cancels everything and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
		s.gens[key]++
	}
}

// Pending reports whether a callback is armed under key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}
