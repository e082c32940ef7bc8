package machine

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/game/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) (*Machine, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	return New(DefaultConfig(), fc), fc
}

func TestMachine_StartGameFromIdle(t *testing.T) {
	m, _ := newTestMachine(t)

	require.True(t, m.Dispatch(Event{Type: EventStartGame}))
	assert.Equal(t, SessionPlaying, m.SessionState())
	assert.Equal(t, RoundWaitingInput, m.RoundState())
	assert.True(t, m.SessionTimer().Running())
	assert.True(t, m.RoundTimer().Running())
}

func TestMachine_IgnoresUndefinedEvents(t *testing.T) {
	m, _ := newTestMachine(t)

	assert.False(t, m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"}))
	assert.False(t, m.Dispatch(Event{Type: EventPause}))
	assert.Equal(t, SessionIdle, m.SessionState())

	m.Dispatch(Event{Type: EventStartGame})
	// CORRECT_GUESS is only defined while a guess is being processed.
	assert.False(t, m.Dispatch(Event{Type: EventCorrectGuess}))
	assert.Equal(t, RoundWaitingInput, m.RoundState())
}

func TestMachine_CorrectGuessFlow(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})

	require.True(t, m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"}))
	assert.Equal(t, RoundProcessingGuess, m.RoundState())
	assert.False(t, m.RoundTimer().Running())
	assert.Equal(t, "C4", m.Snapshot().UserGuess)

	require.True(t, m.Dispatch(Event{Type: EventCorrectGuess}))
	assert.Equal(t, RoundTimeoutIntermission, m.RoundState())

	snap := m.Snapshot()
	assert.Equal(t, 1, snap.CorrectCount)
	assert.Equal(t, 1, snap.TotalAttempts)
	assert.Equal(t, 1, snap.CurrentStreak)
	assert.Equal(t, 1, snap.LongestStreak)
}

func TestMachine_IncorrectGuessResumesRoundTimer(t *testing.T) {
	m, fc := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})

	fc.Advance(time.Second)
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "D4"})
	assert.Equal(t, 2*time.Second, m.RoundTimer().Value())

	require.True(t, m.Dispatch(Event{Type: EventIncorrectGuess}))
	assert.Equal(t, RoundWaitingInput, m.RoundState())
	// Same round continues: the countdown picks up where the guess froze it.
	assert.True(t, m.RoundTimer().Running())
	assert.Equal(t, 2*time.Second, m.RoundTimer().Value())

	snap := m.Snapshot()
	assert.Equal(t, 0, snap.CorrectCount)
	assert.Equal(t, 1, snap.TotalAttempts)
	assert.Equal(t, 0, snap.CurrentStreak)
}

func TestMachine_TimeoutCountsAsMiss(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"})
	m.Dispatch(Event{Type: EventCorrectGuess})
	m.Dispatch(Event{Type: EventAdvanceRound})

	require.True(t, m.Dispatch(Event{Type: EventTimeout}))
	assert.Equal(t, RoundTimeoutIntermission, m.RoundState())

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.TotalAttempts)
	assert.Equal(t, 0, snap.CurrentStreak)
	assert.Equal(t, 1, snap.LongestStreak)
	assert.Equal(t, TimeoutFeedback, snap.FeedbackMessage)
	assert.Empty(t, snap.UserGuess)
}

func TestMachine_AdvanceRoundClearsRoundContext(t *testing.T) {
	m, fc := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	m.SetCurrentNote("E4")
	m.SetFeedback("Correct!")

	fc.Advance(2 * time.Second)
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "E4"})
	m.Dispatch(Event{Type: EventCorrectGuess})

	require.True(t, m.Dispatch(Event{Type: EventAdvanceRound}))
	assert.Equal(t, RoundWaitingInput, m.RoundState())

	snap := m.Snapshot()
	assert.Empty(t, snap.CurrentNote)
	assert.Empty(t, snap.UserGuess)
	assert.Empty(t, snap.FeedbackMessage)
	// Fresh round runs the full countdown again.
	assert.Equal(t, 3*time.Second, m.RoundTimer().Value())
	assert.True(t, m.RoundTimer().Running())
}

func TestMachine_AdvanceRoundSelfTransitionWhileWaiting(t *testing.T) {
	m, fc := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	fc.Advance(2 * time.Second)

	require.True(t, m.Dispatch(Event{Type: EventAdvanceRound}))
	assert.Equal(t, RoundWaitingInput, m.RoundState())
	assert.Equal(t, 3*time.Second, m.RoundTimer().Value())
}

func TestMachine_PauseResumeRestoresRoundSubstate(t *testing.T) {
	m, fc := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"})
	m.Dispatch(Event{Type: EventCorrectGuess})
	require.Equal(t, RoundTimeoutIntermission, m.RoundState())

	require.True(t, m.Dispatch(Event{Type: EventPause}))
	assert.Equal(t, SessionPaused, m.SessionState())
	assert.Equal(t, RoundNone, m.RoundState())
	assert.False(t, m.SessionTimer().Running())
	assert.False(t, m.RoundTimer().Running())

	fc.Advance(time.Minute)

	require.True(t, m.Dispatch(Event{Type: EventResume}))
	assert.Equal(t, SessionPlaying, m.SessionState())
	assert.Equal(t, RoundTimeoutIntermission, m.RoundState())
	assert.True(t, m.SessionTimer().Running())
	// The round countdown stays frozen outside waiting_input.
	assert.False(t, m.RoundTimer().Running())
}

func TestMachine_PauseResumeWhileWaitingRestartsCountdown(t *testing.T) {
	m, fc := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	fc.Advance(time.Second)

	m.Dispatch(Event{Type: EventPause})
	frozen := m.RoundTimer().Value()
	assert.Equal(t, 2*time.Second, frozen)

	fc.Advance(time.Hour)
	m.Dispatch(Event{Type: EventResume})
	assert.Equal(t, RoundWaitingInput, m.RoundState())
	assert.True(t, m.RoundTimer().Running())
	assert.Equal(t, frozen, m.RoundTimer().Value())
}

func TestMachine_CompleteFreezesTimers(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})

	require.True(t, m.Dispatch(Event{Type: EventComplete}))
	assert.Equal(t, SessionCompleted, m.SessionState())
	assert.Equal(t, RoundNone, m.RoundState())
	assert.False(t, m.SessionTimer().Running())
	assert.False(t, m.RoundTimer().Running())

	// Completed only accepts RESET and PLAY_AGAIN.
	assert.False(t, m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"}))
	assert.False(t, m.Dispatch(Event{Type: EventPause}))
}

func TestMachine_SessionTimeoutCompletes(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})

	require.True(t, m.Dispatch(Event{Type: EventSessionTimeout}))
	assert.Equal(t, SessionCompleted, m.SessionState())
}

func TestMachine_PlayAgainPreservesLongestStreak(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"})
	m.Dispatch(Event{Type: EventCorrectGuess})
	m.Dispatch(Event{Type: EventAdvanceRound})
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "D4"})
	m.Dispatch(Event{Type: EventCorrectGuess})
	m.Dispatch(Event{Type: EventComplete})

	require.True(t, m.Dispatch(Event{Type: EventPlayAgain}))
	assert.Equal(t, SessionPlaying, m.SessionState())
	assert.Equal(t, RoundWaitingInput, m.RoundState())

	snap := m.Snapshot()
	assert.Equal(t, 0, snap.CorrectCount)
	assert.Equal(t, 0, snap.TotalAttempts)
	assert.Equal(t, 0, snap.CurrentStreak)
	assert.Equal(t, 2, snap.LongestStreak)
	assert.Empty(t, snap.AttemptHistory)
}

func TestMachine_ResetReturnsToIdle(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Dispatch(Event{Type: EventStartGame})
	m.Dispatch(Event{Type: EventPause})

	require.True(t, m.Dispatch(Event{Type: EventReset}))
	assert.Equal(t, SessionIdle, m.SessionState())
	assert.Equal(t, RoundNone, m.RoundState())
	assert.False(t, m.SessionTimer().Running())
	assert.False(t, m.RoundTimer().Running())
}

func TestMachine_TransitionObserverSeesEveryChange(t *testing.T) {
	m, _ := newTestMachine(t)

	type change struct {
		session SessionState
		round   RoundState
	}
	var seen []change
	m.OnTransition(func(s SessionState, r RoundState) {
		seen = append(seen, change{s, r})
	})

	m.Dispatch(Event{Type: EventStartGame})
	m.Dispatch(Event{Type: EventMakeGuess, Guess: "C4"})
	m.Dispatch(Event{Type: EventCorrectGuess})
	m.Dispatch(Event{Type: EventAdvanceRound})

	assert.Equal(t, []change{
		{SessionPlaying, RoundWaitingInput},
		{SessionPlaying, RoundProcessingGuess},
		{SessionPlaying, RoundTimeoutIntermission},
		{SessionPlaying, RoundWaitingInput},
	}, seen)
}

func TestMachine_CountdownSessionConfig(t *testing.T) {
	fc := clockwork.NewFakeClock()
	m := New(Config{
		SessionDuration:  time.Minute,
		SessionDirection: timer.DirectionDown,
		RoundDuration:    5 * time.Second,
	}, fc)

	m.Dispatch(Event{Type: EventStartGame})
	assert.Equal(t, time.Minute, m.SessionTimer().Value())
	assert.Equal(t, 5*time.Second, m.RoundTimer().Value())

	fc.Advance(10 * time.Second)
	assert.Equal(t, 50*time.Second, m.SessionTimer().Value())
}
