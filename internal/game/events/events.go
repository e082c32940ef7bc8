package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchlab/internal/music"
)

// Event payload types shared between the orchestrator, gateway and relay
// packages. Keeping them here avoids cyclic imports.

// Type identifies a game event emitted by the orchestrator.
type Type string

const (
	TypeRoundStart      Type = "roundStart"
	TypeGuessAttempt    Type = "guessAttempt"
	TypeGuessResult     Type = "guessResult"
	TypeStateChange     Type = "stateChange"
	TypeSessionComplete Type = "sessionComplete"
	TypeFeedbackUpdate  Type = "feedbackUpdate"
	TypeGamePaused      Type = "gamePaused"
	TypeGameResumed     Type = "gameResumed"
	TypeGameReset       Type = "gameReset"
)

// GuessAttempt records one guess or timeout. GuessedNote is nil when the
// round timed out with no answer given.
type GuessAttempt struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ActualNote  string    `json:"actual_note"`
	GuessedNote *string   `json:"guessed_note"`
	IsCorrect   bool      `json:"is_correct"`
}

// Stats is the scoring snapshot attached to a completed session.
type Stats struct {
	CorrectCount  int  `json:"correct_count"`
	TotalAttempts int  `json:"total_attempts"`
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	Health        *int `json:"health,omitempty"` // survival only
}

// GuessResult is the outcome of validating one guess. Stats is set if and
// only if GameCompleted is true.
type GuessResult struct {
	IsCorrect     bool   `json:"is_correct"`
	Feedback      string `json:"feedback"`
	ShouldAdvance bool   `json:"should_advance"`
	GameCompleted bool   `json:"game_completed"`
	Stats         *Stats `json:"stats,omitempty"`
}

// RoundStartPayload announces a fresh round. Exactly one of Note or Chord
// is set depending on the active strategy.
type RoundStartPayload struct {
	Note     *music.Note  `json:"note,omitempty"`
	Chord    *music.Chord `json:"chord,omitempty"`
	Feedback string       `json:"feedback"`
	Context  any          `json:"context,omitempty"`
}

// StateChangePayload reports a machine transition. RoundState is present
// only while the session is playing.
type StateChangePayload struct {
	SessionState string `json:"session_state"`
	RoundState   string `json:"round_state,omitempty"`
}

// SessionSummary is the record handed to history storage when a session
// completes.
type SessionSummary struct {
	Mode           string         `json:"mode"`
	Timestamp      time.Time      `json:"timestamp"`
	CompletionTime float64        `json:"completion_time"`
	Accuracy       float64        `json:"accuracy"`
	TotalAttempts  int            `json:"total_attempts"`
	Settings       any            `json:"settings,omitempty"`
	Results        []GuessAttempt `json:"results"`
}

// SessionCompletePayload wraps the summary and final stats for the UI.
type SessionCompletePayload struct {
	Session SessionSummary `json:"session"`
	Stats   Stats          `json:"stats"`
}

// FeedbackPayload carries a transient feedback message.
type FeedbackPayload struct {
	Message string `json:"message"`
}
