package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/audio"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/machine"
	"github.com/mcdev12/pitchlab/internal/game/mode"
	"github.com/mcdev12/pitchlab/internal/game/strategy"
	"github.com/mcdev12/pitchlab/internal/game/timer"
	"github.com/mcdev12/pitchlab/internal/music"
	"github.com/rs/zerolog/log"
)

// autoAdvanceKey is the scheduler key for the bounded next-round delay.
// Scheduling under it supersedes any prior pending advance.
const autoAdvanceKey = "auto-advance"

// maxAutoAdvanceDelay caps the auto-advance delay after a timeout. Fixed
// policy, not configurable.
const maxAutoAdvanceDelay = 2 * time.Second

// Config tunes one orchestrator instance.
type Config struct {
	Machine            machine.Config
	AutoAdvanceSeconds float64
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() Config {
	return Config{
		Machine:            machine.DefaultConfig(),
		AutoAdvanceSeconds: 1.5,
	}
}

// Orchestrator bridges UI intent to machine transitions. It owns one state
// machine, one strategy, the named-callback scheduler and the event
// emitter. Every entry point (UI command, timer expiry, scheduled
// callback) is serialized through one mutex, which is what makes the
// guessAttempt -> stateChange* -> guessResult ordering deterministic.
//
// The orchestrator applies no state guarding of its own: every call is
// processed and the machine's transition table decides whether it has any
// effect. Duplicate submissions still emit guessAttempt/guessResult, but
// only the first changes the counters.
type Orchestrator struct {
	mu sync.Mutex

	id      uuid.UUID
	cfg     Config
	clock   clockwork.Clock
	machine *machine.Machine
	sched   *Scheduler
	emitter *Emitter
	player  audio.Player

	gameMode mode.GameMode
	strat    strategy.Strategy
	filter   *music.Filter

	round        *strategy.RoundContext
	sessionStart time.Time
	started      bool
}

// New builds an orchestrator. The clock is injected for deterministic
// tests; production callers pass clockwork.NewRealClock().
func New(cfg Config, player audio.Player, clock clockwork.Clock) *Orchestrator {
	id := uuid.New()
	o := &Orchestrator{
		id:      id,
		cfg:     cfg,
		clock:   clock,
		machine: machine.New(cfg.Machine, clock),
		sched:   NewScheduler(clock),
		emitter: NewEmitter(id, clock),
		player:  player,
	}
	return o
}

// ID returns the session ID events are stamped with.
func (o *Orchestrator) ID() uuid.UUID { return o.id }

// Emitter exposes the event emitter for subscribers (gateway, relay,
// history).
func (o *Orchestrator) Emitter() *Emitter { return o.emitter }

// Machine exposes the state machine for read-only inspection.
func (o *Orchestrator) Machine() *machine.Machine { return o.machine }

// Start wires the machine transition observer and timer callbacks. Must be
// called once before any game method.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}
	o.started = true

	o.machine.OnTransition(func(session machine.SessionState, round machine.RoundState) {
		payload := events.StateChangePayload{SessionState: string(session)}
		if session == machine.SessionPlaying {
			payload.RoundState = string(round)
		}
		o.emitter.Emit(events.TypeStateChange, payload)
	})

	o.machine.SessionTimer().OnTick(o.onSessionTick)
	o.machine.SessionTimer().OnExpire(o.onSessionTimeout)
	o.machine.RoundTimer().OnExpire(o.onRoundTimeout)

	log.Info().Str("session_id", o.id.String()).Msg("orchestrator started")
}

// Stop cancels every pending scheduled callback, stops both timers and
// removes all event listeners. The instance is not restartable; create a
// new one.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.Stop()
	o.machine.SessionTimer().Stop()
	o.machine.RoundTimer().Stop()
	o.emitter.RemoveAll()
	o.started = false
	log.Info().Str("session_id", o.id.String()).Msg("orchestrator stopped")
}

// SetGameMode configures the scoring collaborator. No side effects beyond
// storage.
func (o *Orchestrator) SetGameMode(m mode.GameMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gameMode = m
}

// SetStrategy configures the round-shape strategy for the session.
func (o *Orchestrator) SetStrategy(s strategy.Strategy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.strat = s
}

// SetNoteFilter configures the note filter. No side effects beyond storage.
func (o *Orchestrator) SetNoteFilter(f music.Filter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = &f
}

// GenerateNote delegates to the configured mode and filter. Returns nil
// (non-fatal) if either is unset.
func (o *Orchestrator) GenerateNote() *mode.Challenge {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gameMode == nil || o.filter == nil {
		log.Warn().Str("session_id", o.id.String()).Msg("generateNote called with mode or filter unset")
		return nil
	}
	challenge := o.gameMode.GenerateNote(*o.filter)
	return &challenge
}

// StartGame cancels all pending callbacks, then starts the session.
func (o *Orchestrator) StartGame() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startGameLocked()
}

func (o *Orchestrator) startGameLocked() {
	o.sched.CancelAll()
	if o.machine.Dispatch(machine.Event{Type: machine.EventStartGame}) {
		o.sessionStart = o.clock.Now()
	}
}

// Pause cancels all pending callbacks, then pauses the session. The frozen
// round substate is restored on Resume.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.CancelAll()
	if o.machine.Dispatch(machine.Event{Type: machine.EventPause}) {
		o.emitter.Emit(events.TypeGamePaused, nil)
	}
}

// Resume restores the round substate active before the pause. It does NOT
// re-arm any auto-advance callback that was pending when the pause hit;
// advancing out of an intermission after a pause requires an explicit
// AdvanceRound.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.CancelAll()
	if o.machine.Dispatch(machine.Event{Type: machine.EventResume}) {
		o.emitter.Emit(events.TypeGameResumed, nil)
	}
}

// Complete cancels all pending callbacks, then completes the session.
func (o *Orchestrator) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.CancelAll()
	o.machine.Dispatch(machine.Event{Type: machine.EventComplete})
}

// Reset cancels all pending callbacks, then returns the machine to idle.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.CancelAll()
	if o.machine.Dispatch(machine.Event{Type: machine.EventReset}) {
		o.round = nil
		o.emitter.Emit(events.TypeGameReset, nil)
	}
}

// PlayAgain restarts a completed session with the same reset semantics as
// StartGame. The scoring collaborator's internal target tracking is reset
// too, so a replayed session cannot complete after a single guess.
func (o *Orchestrator) PlayAgain() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.CancelAll()
	if o.machine.Dispatch(machine.Event{Type: machine.EventPlayAgain}) {
		if o.gameMode != nil {
			o.gameMode.Reset()
		}
		o.round = nil
		o.sessionStart = o.clock.Now()
	}
}

// AdvanceRound explicitly advances to the next round, e.g. after a manual
// chord round or after a pause-resume cycle swallowed the auto-advance.
func (o *Orchestrator) AdvanceRound() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanceRoundLocked()
}

// StartNewRound delegates challenge generation and audio start to the
// active strategy, replaces the round context, and emits roundStart. If
// the machine is idle it starts the session first.
func (o *Orchestrator) StartNewRound() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.machine.SessionState() == machine.SessionIdle {
		o.startGameLocked()
	}
	return o.startNewRoundLocked()
}

func (o *Orchestrator) startNewRoundLocked() error {
	if o.gameMode == nil || o.strat == nil {
		log.Warn().Str("session_id", o.id.String()).Msg("startNewRound called with mode or strategy unset")
		return fmt.Errorf("game mode and strategy must be configured before starting a round")
	}
	filter := music.DefaultFilter()
	if o.filter != nil {
		filter = *o.filter
	}

	ctx, err := o.strat.StartNewRound(o.gameMode, filter)
	if err != nil {
		return fmt.Errorf("failed to start round: %w", err)
	}
	o.round = ctx
	o.machine.SetCurrentNote(o.roundLabel())

	o.emitter.Emit(events.TypeRoundStart, events.RoundStartPayload{
		Note:     ctx.Note,
		Chord:    ctx.Chord,
		Feedback: o.machine.Snapshot().FeedbackMessage,
		Context:  ctx,
	})
	return nil
}

// HandlePianoKeyClick routes a piano key press through the strategy. For
// ear training the click is the submission and is validated immediately.
func (o *Orchestrator) HandlePianoKeyClick(n music.Note) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.round == nil || o.strat == nil {
		log.Warn().Str("session_id", o.id.String()).Str("note", n.String()).
			Msg("piano key click with no active round; ignoring")
		return nil
	}
	if err := o.strat.HandlePianoKeyClick(n, o.round); err != nil {
		return err
	}
	if o.strat.AutoSubmits() {
		o.submitGuessLocked(o.round.GuessedNote)
	}
	return nil
}

// SubmitGuess validates a guess against the active challenge. It never
// guards on machine state itself: duplicate or rapid submissions each emit
// guessAttempt/guessResult, but only the first changes any counter because
// the machine ignores MAKE_GUESS outside waiting_input.
func (o *Orchestrator) SubmitGuess(guess string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.round != nil {
		o.round.GuessedNote = guess
	}
	o.submitGuessLocked(guess)
}

// Submit performs the explicit submit action of chord training.
func (o *Orchestrator) Submit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.round == nil || o.strat == nil {
		log.Warn().Str("session_id", o.id.String()).Msg("submit with no active round; ignoring")
		return nil
	}
	if !o.strat.CanSubmit(o.round) {
		log.Warn().Str("session_id", o.id.String()).Msg("submit with nothing selected; ignoring")
		return nil
	}
	if err := o.strat.HandleSubmitClick(o.round); err != nil {
		return err
	}
	o.submitGuessLocked(o.round.GuessedChordName)
	return nil
}

func (o *Orchestrator) submitGuessLocked(guess string) {
	if o.round == nil || o.gameMode == nil || o.strat == nil {
		log.Warn().Str("session_id", o.id.String()).Msg("submitGuess with no active note or mode; ignoring")
		return
	}

	isCorrect := o.strat.Validate(o.round)
	attempt := events.GuessAttempt{
		ID:          uuid.New(),
		Timestamp:   o.clock.Now(),
		ActualNote:  o.roundLabel(),
		GuessedNote: &guess,
		IsCorrect:   isCorrect,
	}
	o.emitter.Emit(events.TypeGuessAttempt, attempt)

	accepted := o.machine.Dispatch(machine.Event{Type: machine.EventMakeGuess, Guess: guess})

	var result events.GuessResult
	if accepted {
		o.machine.RecordAttempt(attempt)
		if isCorrect {
			o.machine.Dispatch(machine.Event{Type: machine.EventCorrectGuess})
		} else {
			o.machine.Dispatch(machine.Event{Type: machine.EventIncorrectGuess})
		}
		outcome, err := o.strat.ValidateAndAdvance(o.round)
		if err != nil {
			log.Error().Err(err).Str("session_id", o.id.String()).Msg("guess validation failed")
			return
		}
		result = outcome
		o.machine.SetFeedback(result.Feedback)
	} else {
		// The machine ignored the guess (not waiting for input); report
		// the outcome without touching mode or counters.
		result = events.GuessResult{
			IsCorrect: isCorrect,
			Feedback:  o.machine.Snapshot().FeedbackMessage,
		}
	}

	o.emitter.Emit(events.TypeGuessResult, result)

	if !accepted {
		return
	}
	if result.GameCompleted {
		o.completeLocked(result.Stats)
		return
	}
	if result.ShouldAdvance && o.strat.ShouldAutoAdvance() {
		delay := time.Duration(o.cfg.AutoAdvanceSeconds * float64(time.Second))
		o.sched.Schedule(autoAdvanceKey, delay, o.autoAdvance)
	}
}

// HandleTimeout records the expired round as an attempt with no answer.
// The feedback surfaces the missed answer, and the auto-advance delay is
// capped at two seconds regardless of the configured speed.
func (o *Orchestrator) HandleTimeout(autoAdvanceSpeedSeconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.round == nil || o.gameMode == nil {
		log.Warn().Str("session_id", o.id.String()).Msg("timeout with no active round; ignoring")
		return
	}

	actual := o.roundLabel()
	attempt := events.GuessAttempt{
		ID:          uuid.New(),
		Timestamp:   o.clock.Now(),
		ActualNote:  actual,
		GuessedNote: nil,
		IsCorrect:   false,
	}
	o.emitter.Emit(events.TypeGuessAttempt, attempt)

	if !o.machine.Dispatch(machine.Event{Type: machine.EventTimeout}) {
		log.Debug().Str("session_id", o.id.String()).Msg("round timeout ignored by machine")
		return
	}
	o.machine.RecordAttempt(attempt)

	// The mode sees the timeout as an incorrect answer, so its counters and
	// any health damage stay in line with the machine's totals.
	outcome := o.gameMode.HandleIncorrectGuess()

	feedback := fmt.Sprintf("%s The answer was %s", machine.TimeoutFeedback, actual)
	o.machine.SetFeedback(feedback)

	o.emitter.Emit(events.TypeGuessResult, events.GuessResult{
		IsCorrect:     false,
		Feedback:      feedback,
		ShouldAdvance: true,
		GameCompleted: outcome.GameCompleted,
		Stats:         outcome.Stats,
	})
	o.emitter.Emit(events.TypeFeedbackUpdate, events.FeedbackPayload{Message: feedback})

	if outcome.GameCompleted {
		o.completeLocked(outcome.Stats)
		return
	}

	delay := time.Duration(autoAdvanceSpeedSeconds * float64(time.Second))
	if delay > maxAutoAdvanceDelay {
		delay = maxAutoAdvanceDelay
	}
	o.sched.Schedule(autoAdvanceKey, delay, o.autoAdvance)
}

// ReplayNote re-triggers audio for the active challenge. It is a pure side
// effect: it never emits events and never touches machine state, even when
// called repeatedly or while paused or completed.
func (o *Orchestrator) ReplayNote() {
	o.mu.Lock()
	round := o.round
	o.mu.Unlock()
	if round == nil {
		log.Warn().Str("session_id", o.id.String()).Msg("replayNote with no active note; ignoring")
		return
	}
	if round.Chord != nil {
		o.player.PlayChord(*round.Chord)
		return
	}
	if round.Note != nil {
		o.player.PlayNote(*round.Note, strategy.NoteDuration)
	}
}

// autoAdvance is the scheduled next-round callback. The machine's
// transition table is the backstop against staleness: if the session was
// paused or completed since scheduling, ADVANCE_ROUND is ignored and no
// round starts.
func (o *Orchestrator) autoAdvance() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanceRoundLocked()
}

func (o *Orchestrator) advanceRoundLocked() {
	if !o.machine.Dispatch(machine.Event{Type: machine.EventAdvanceRound}) {
		return
	}
	if err := o.startNewRoundLocked(); err != nil {
		log.Error().Err(err).Str("session_id", o.id.String()).Msg("failed to start next round")
	}
}

func (o *Orchestrator) completeLocked(stats *events.Stats) {
	o.sched.CancelAll()
	if !o.machine.Dispatch(machine.Event{Type: machine.EventComplete}) {
		return
	}
	o.emitSessionCompleteLocked(stats)
}

func (o *Orchestrator) emitSessionCompleteLocked(stats *events.Stats) {
	var finalStats events.Stats
	if stats != nil {
		finalStats = *stats
	} else if o.gameMode != nil {
		finalStats = o.gameMode.Stats()
	}

	snap := o.machine.Snapshot()
	accuracy := 0.0
	if snap.TotalAttempts > 0 {
		accuracy = float64(snap.CorrectCount) / float64(snap.TotalAttempts)
	}
	summary := events.SessionSummary{
		Timestamp:      o.clock.Now(),
		CompletionTime: o.clock.Since(o.sessionStart).Seconds(),
		Accuracy:       accuracy,
		TotalAttempts:  snap.TotalAttempts,
		Results:        snap.AttemptHistory,
	}
	if o.gameMode != nil {
		summary.Mode = o.gameMode.Mode()
		summary.Settings = o.gameMode.Settings()
	}

	o.emitter.Emit(events.TypeSessionComplete, events.SessionCompletePayload{
		Session: summary,
		Stats:   finalStats,
	})
}

// onSessionTick feeds the session clock into the machine context and any
// time-driven mode (survival drain). Drain depletion completes the session.
func (o *Orchestrator) onSessionTick(value time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	elapsed := value
	if o.cfg.Machine.SessionDirection == timer.DirectionDown {
		elapsed = o.cfg.Machine.SessionDuration - value
	}
	o.machine.SetElapsed(elapsed)
	td, ok := o.gameMode.(mode.TimeDriven)
	if !ok {
		return
	}
	dt := o.cfg.Machine.TickInterval
	if dt <= 0 {
		dt = timer.DefaultTickInterval
	}
	td.Tick(dt)
	if o.gameMode.IsGameComplete() && o.machine.SessionState() == machine.SessionPlaying {
		o.completeLocked(nil)
	}
}

// onSessionTimeout is the countdown-session completion path (sandbox
// duration expiry). It fires independently of round state.
func (o *Orchestrator) onSessionTimeout() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sched.CancelAll()
	if o.machine.Dispatch(machine.Event{Type: machine.EventSessionTimeout}) {
		o.emitSessionCompleteLocked(nil)
	}
}

// onRoundTimeout is the per-round countdown expiry.
func (o *Orchestrator) onRoundTimeout() {
	o.HandleTimeout(o.cfg.AutoAdvanceSeconds)
}

func (o *Orchestrator) roundLabel() string {
	if o.round == nil {
		return ""
	}
	if o.round.Chord != nil {
		return o.round.Chord.Name
	}
	if o.round.Note != nil {
		return o.round.Note.String()
	}
	return ""
}
