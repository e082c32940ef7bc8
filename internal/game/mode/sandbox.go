package mode

import (
	"fmt"
	"time"

	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/music"
)

// SandboxSettings configures an open-ended session bounded only by the
// countdown session timer. Target counters are progress indicators, never
// completion conditions.
type SandboxSettings struct {
	TargetNotes     int           `json:"target_notes"`
	SessionDuration time.Duration `json:"session_duration"`
	ChordMode       bool          `json:"chord_mode"`
}

// Sandbox never completes on its own; session-timer expiry is the only
// completion trigger.
type Sandbox struct {
	base
	settings SandboxSettings
}

// NewSandbox creates a sandbox mode.
func NewSandbox(settings SandboxSettings, gen *music.Generator) *Sandbox {
	return &Sandbox{
		base:     newBase(gen, settings.ChordMode),
		settings: settings,
	}
}

func (s *Sandbox) Mode() string { return ModeSandbox }

func (s *Sandbox) HandleCorrectGuess() events.GuessResult {
	s.recordCorrect()
	feedback := "Correct!"
	if s.settings.TargetNotes > 0 {
		feedback = fmt.Sprintf("Correct! %d of %d", s.correct, s.settings.TargetNotes)
	}
	return events.GuessResult{
		IsCorrect:     true,
		Feedback:      feedback,
		ShouldAdvance: true,
	}
}

func (s *Sandbox) HandleIncorrectGuess() events.GuessResult {
	s.recordIncorrect()
	return events.GuessResult{
		IsCorrect: false,
		Feedback:  "Incorrect, try again",
	}
}

func (s *Sandbox) IsGameComplete() bool { return false }

func (s *Sandbox) Stats() events.Stats { return s.stats() }

func (s *Sandbox) Reset() { s.resetCounters() }

// Settings returns the session configuration for history records.
func (s *Sandbox) Settings() any { return s.settings }

var _ GameMode = (*Sandbox)(nil)
