package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Direction controls whether a timer accumulates elapsed time or counts
// remaining time toward zero.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DefaultTickInterval is the reporting granularity for all game timers.
const DefaultTickInterval = 100 * time.Millisecond

// Config describes one timer instance.
type Config struct {
	InitialTime  time.Duration
	Direction    Direction
	TickInterval time.Duration
}

// Timer is a cancellable countdown/count-up clock. Commands are
// Reset/Pause/Resume/Stop. A down timer invokes OnExpire exactly once when
// the remaining time reaches zero, then stops ticking. Pause freezes the
// reported value at its exact current reading; Resume continues from the
// frozen value with no catch-up.
type Timer struct {
	mu    sync.Mutex
	clock clockwork.Clock
	cfg   Config

	onTick   func(value time.Duration)
	onExpire func()

	accumulated time.Duration // frozen value while paused
	startedAt   time.Time     // resume instant while running
	running     bool
	stopped     bool
	expired     bool
	gen         uint64 // invalidates callbacks scheduled before the last command

	tickTimer   clockwork.Timer
	expireTimer clockwork.Timer
}

// New creates a timer. The clock is injected so tests can drive it with a
// fake; production callers pass clockwork.NewRealClock().
func New(cfg Config, clock clockwork.Clock) *Timer {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Direction == "" {
		cfg.Direction = DirectionUp
	}
	return &Timer{
		clock:       clock,
		cfg:         cfg,
		accumulated: cfg.InitialTime,
	}
}

// OnTick registers the per-tick callback. Must be set before Resume.
func (t *Timer) OnTick(fn func(value time.Duration)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// OnExpire registers the terminal callback for down timers.
func (t *Timer) OnExpire(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Value returns the current reading: elapsed time for up timers, remaining
// time for down timers.
func (t *Timer) Value() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valueLocked()
}

func (t *Timer) valueLocked() time.Duration {
	if !t.running {
		return t.accumulated
	}
	run := t.clock.Since(t.startedAt)
	if t.cfg.Direction == DirectionDown {
		v := t.accumulated - run
		if v < 0 {
			return 0
		}
		return v
	}
	return t.accumulated + run
}

// Running reports whether the timer is actively ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Reset reinitializes the value to InitialTime, cancels any pending
// terminal event, and leaves the timer paused.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.invalidateLocked()
	t.running = false
	t.expired = false
	t.accumulated = t.cfg.InitialTime
}

// Pause freezes the timer at its current reading. No-op if not running.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || !t.running {
		return
	}
	t.accumulated = t.valueLocked()
	t.invalidateLocked()
	t.running = false
}

// Resume continues from the frozen value. No-op if already running, stopped,
// or expired.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.running || t.expired {
		return
	}
	t.running = true
	t.startedAt = t.clock.Now()
	gen := t.gen
	t.tickTimer = t.clock.AfterFunc(t.cfg.TickInterval, func() { t.tick(gen) })
	if t.cfg.Direction == DirectionDown {
		t.expireTimer = t.clock.AfterFunc(t.accumulated, func() { t.expire(gen) })
	}
}

// Stop terminates the timer permanently. Used on orchestrator shutdown.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accumulated = t.valueLocked()
	t.invalidateLocked()
	t.running = false
	t.stopped = true
}

// invalidateLocked cancels pending callbacks by bumping the generation and
// stopping the underlying clock timers.
func (t *Timer) invalidateLocked() {
	t.gen++
	if t.tickTimer != nil {
		t.tickTimer.Stop()
		t.tickTimer = nil
	}
	if t.expireTimer != nil {
		t.expireTimer.Stop()
		t.expireTimer = nil
	}
}

func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	value := t.valueLocked()
	fn := t.onTick
	t.tickTimer = t.clock.AfterFunc(t.cfg.TickInterval, func() { t.tick(gen) })
	t.mu.Unlock()

	if fn != nil {
		fn(value)
	}
}

func (t *Timer) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.expired {
		t.mu.Unlock()
		return
	}
	t.expired = true
	t.accumulated = 0
	t.invalidateLocked()
	t.running = false
	fn := t.onExpire
	t.mu.Unlock()

	if fn == nil {
		log.Warn().Msg("down timer expired with no terminal callback registered")
		return
	}
	fn()
}
