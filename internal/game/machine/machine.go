package machine

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/timer"
	"github.com/rs/zerolog/log"
)

// SessionState is the top-level lifecycle phase of a play session.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionPlaying   SessionState = "playing"
	SessionPaused    SessionState = "paused"
	SessionCompleted SessionState = "completed"
)

// RoundState is the sub-phase within an active session. It is meaningful
// only while the session state is playing.
type RoundState string

const (
	RoundNone                RoundState = ""
	RoundWaitingInput        RoundState = "waiting_input"
	RoundProcessingGuess     RoundState = "processing_guess"
	RoundTimeoutIntermission RoundState = "timeout_intermission"
)

// EventType identifies a machine event.
type EventType string

const (
	EventStartGame      EventType = "START_GAME"
	EventMakeGuess      EventType = "MAKE_GUESS"
	EventCorrectGuess   EventType = "CORRECT_GUESS"
	EventIncorrectGuess EventType = "INCORRECT_GUESS"
	EventTimeout        EventType = "TIMEOUT"
	EventAdvanceRound   EventType = "ADVANCE_ROUND"
	EventPause          EventType = "PAUSE"
	EventResume         EventType = "RESUME"
	EventComplete       EventType = "COMPLETE"
	EventReset          EventType = "RESET"
	EventPlayAgain      EventType = "PLAY_AGAIN"
	EventSessionTimeout EventType = "SESSION_TIMEOUT"
)

// Event is one input to the machine. Guess is set for MAKE_GUESS only.
type Event struct {
	Type  EventType
	Guess string
}

// TimeoutFeedback is the fixed feedback set when a round times out. The
// orchestrator appends the missed answer before surfacing it to the UI.
const TimeoutFeedback = "Time's up!"

// Context holds all counters and round data owned by the machine. It is
// mutated only through transition actions.
type Context struct {
	CurrentNote     string                `json:"current_note"`
	UserGuess       string                `json:"user_guess"`
	CorrectCount    int                   `json:"correct_count"`
	TotalAttempts   int                   `json:"total_attempts"`
	CurrentStreak   int                   `json:"current_streak"`
	LongestStreak   int                   `json:"longest_streak"`
	ElapsedTime     time.Duration         `json:"elapsed_time"`
	SessionDuration time.Duration         `json:"session_duration"`
	FeedbackMessage string                `json:"feedback_message"`
	AttemptHistory  []events.GuessAttempt `json:"attempt_history"`
}

// Config describes the timers a machine runs for one session.
type Config struct {
	// SessionDuration > 0 with SessionDirection down gives the countdown
	// session (sandbox). Direction up gives an open-ended elapsed clock.
	SessionDuration  time.Duration
	SessionDirection timer.Direction
	RoundDuration    time.Duration
	TickInterval     time.Duration
}

// DefaultConfig is an open-ended session with the standard 3s round
// countdown.
func DefaultConfig() Config {
	return Config{
		SessionDirection: timer.DirectionUp,
		RoundDuration:    3 * time.Second,
		TickInterval:     timer.DefaultTickInterval,
	}
}

// Machine is the hierarchical session/round state machine. It is not
// self-synchronizing: the orchestrator serializes all access, including the
// timer callbacks it routes back in.
type Machine struct {
	session     SessionState
	round       RoundState
	pausedRound RoundState // history pseudostate: last round substate before PAUSE

	ctx Context

	sessionTimer *timer.Timer
	roundTimer   *timer.Timer

	// onTransition fires after every state change, including the
	// ADVANCE_ROUND self-transition whose entry actions re-fire.
	onTransition func(SessionState, RoundState)
}

// New builds an idle machine and its two timer children.
func New(cfg Config, clock clockwork.Clock) *Machine {
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = 3 * time.Second
	}
	if cfg.SessionDirection == "" {
		cfg.SessionDirection = timer.DirectionUp
	}
	m := &Machine{
		session: SessionIdle,
		ctx:     Context{SessionDuration: cfg.SessionDuration},
	}
	sessionInitial := time.Duration(0)
	if cfg.SessionDirection == timer.DirectionDown {
		sessionInitial = cfg.SessionDuration
	}
	m.sessionTimer = timer.New(timer.Config{
		InitialTime:  sessionInitial,
		Direction:    cfg.SessionDirection,
		TickInterval: cfg.TickInterval,
	}, clock)
	m.roundTimer = timer.New(timer.Config{
		InitialTime:  cfg.RoundDuration,
		Direction:    timer.DirectionDown,
		TickInterval: cfg.TickInterval,
	}, clock)
	return m
}

// OnTransition registers the transition observer.
func (m *Machine) OnTransition(fn func(SessionState, RoundState)) {
	m.onTransition = fn
}

// SessionTimer exposes the session clock so the orchestrator can attach
// tick and expiry callbacks.
func (m *Machine) SessionTimer() *timer.Timer { return m.sessionTimer }

// RoundTimer exposes the per-round countdown.
func (m *Machine) RoundTimer() *timer.Timer { return m.roundTimer }

// SessionState returns the current top-level state.
func (m *Machine) SessionState() SessionState { return m.session }

// RoundState returns the current round substate (empty unless playing).
func (m *Machine) RoundState() RoundState { return m.round }

// Snapshot returns a copy of the machine context.
func (m *Machine) Snapshot() Context {
	snap := m.ctx
	snap.AttemptHistory = append([]events.GuessAttempt(nil), m.ctx.AttemptHistory...)
	return snap
}

// SetCurrentNote records the label of the active challenge.
func (m *Machine) SetCurrentNote(label string) { m.ctx.CurrentNote = label }

// SetFeedback overwrites the feedback message.
func (m *Machine) SetFeedback(msg string) { m.ctx.FeedbackMessage = msg }

// SetElapsed records the session timer reading.
func (m *Machine) SetElapsed(d time.Duration) { m.ctx.ElapsedTime = d }

// RecordAttempt appends a guess attempt to the session history.
func (m *Machine) RecordAttempt(a events.GuessAttempt) {
	m.ctx.AttemptHistory = append(m.ctx.AttemptHistory, a)
}

// Dispatch applies an event. It returns true if the event caused a
// transition; events not defined for the current state are silently
// ignored.
func (m *Machine) Dispatch(ev Event) bool {
	switch m.session {
	case SessionIdle:
		if ev.Type == EventStartGame {
			m.startSession()
			return true
		}
	case SessionPlaying:
		return m.dispatchPlaying(ev)
	case SessionPaused:
		switch ev.Type {
		case EventResume:
			m.transition(SessionPlaying, m.pausedRound)
			m.sessionTimer.Resume()
			// Round timer was frozen on pause; it runs only while the
			// restored substate is waiting for input.
			if m.pausedRound == RoundWaitingInput {
				m.roundTimer.Resume()
			}
			return true
		case EventReset:
			m.resetToIdle()
			return true
		}
	case SessionCompleted:
		switch ev.Type {
		case EventReset:
			m.resetToIdle()
			return true
		case EventPlayAgain:
			m.startSession()
			return true
		}
	}
	log.Debug().
		Str("event", string(ev.Type)).
		Str("session_state", string(m.session)).
		Str("round_state", string(m.round)).
		Msg("ignored machine event")
	return false
}

func (m *Machine) dispatchPlaying(ev Event) bool {
	// Session-level events apply regardless of round substate.
	switch ev.Type {
	case EventPause:
		m.pausedRound = m.round
		m.sessionTimer.Pause()
		m.roundTimer.Pause()
		m.transition(SessionPaused, RoundNone)
		return true
	case EventComplete, EventSessionTimeout:
		m.sessionTimer.Pause()
		m.roundTimer.Pause()
		m.transition(SessionCompleted, RoundNone)
		return true
	}

	switch m.round {
	case RoundWaitingInput:
		switch ev.Type {
		case EventMakeGuess:
			m.ctx.UserGuess = ev.Guess
			m.roundTimer.Pause()
			m.transition(SessionPlaying, RoundProcessingGuess)
			return true
		case EventTimeout:
			m.ctx.TotalAttempts++
			m.ctx.CurrentStreak = 0
			m.ctx.FeedbackMessage = TimeoutFeedback
			m.ctx.UserGuess = ""
			m.transition(SessionPlaying, RoundTimeoutIntermission)
			return true
		case EventAdvanceRound:
			// Self-transition: re-enter with a fresh round timer.
			m.enterFreshRound()
			return true
		}
	case RoundProcessingGuess:
		switch ev.Type {
		case EventCorrectGuess:
			m.ctx.CorrectCount++
			m.ctx.TotalAttempts++
			m.ctx.CurrentStreak++
			if m.ctx.CurrentStreak > m.ctx.LongestStreak {
				m.ctx.LongestStreak = m.ctx.CurrentStreak
			}
			m.transition(SessionPlaying, RoundTimeoutIntermission)
			return true
		case EventIncorrectGuess:
			m.ctx.TotalAttempts++
			m.ctx.CurrentStreak = 0
			// Not a fresh round: the countdown resumes from where the
			// guess froze it.
			m.roundTimer.Resume()
			m.transition(SessionPlaying, RoundWaitingInput)
			return true
		}
	case RoundTimeoutIntermission:
		if ev.Type == EventAdvanceRound {
			m.enterFreshRound()
			return true
		}
	}

	log.Debug().
		Str("event", string(ev.Type)).
		Str("round_state", string(m.round)).
		Msg("ignored machine event in playing state")
	return false
}

// startSession implements the shared START_GAME / PLAY_AGAIN reset: every
// counter except the longest streak returns to zero and both timers restart.
func (m *Machine) startSession() {
	longest := m.ctx.LongestStreak
	duration := m.ctx.SessionDuration
	m.ctx = Context{
		LongestStreak:   longest,
		SessionDuration: duration,
	}
	m.sessionTimer.Reset()
	m.sessionTimer.Resume()
	m.roundTimer.Reset()
	m.roundTimer.Resume()
	m.transition(SessionPlaying, RoundWaitingInput)
}

// enterFreshRound re-enters waiting_input with round-scoped context cleared
// and the countdown restarted.
func (m *Machine) enterFreshRound() {
	m.ctx.CurrentNote = ""
	m.ctx.UserGuess = ""
	m.ctx.FeedbackMessage = ""
	m.roundTimer.Reset()
	m.roundTimer.Resume()
	m.transition(SessionPlaying, RoundWaitingInput)
}

func (m *Machine) resetToIdle() {
	m.sessionTimer.Reset()
	m.roundTimer.Reset()
	m.pausedRound = RoundNone
	m.transition(SessionIdle, RoundNone)
}

func (m *Machine) transition(session SessionState, round RoundState) {
	m.session = session
	m.round = round
	if m.onTransition != nil {
		m.onTransition(session, round)
	}
}
