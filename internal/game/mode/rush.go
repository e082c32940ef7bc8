package mode

import (
	"fmt"

	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/music"
)

// RushSettings configures a rush session: race to a target correct count.
// There is no lose condition.
type RushSettings struct {
	TargetNotes int  `json:"target_notes"`
	ChordMode   bool `json:"chord_mode"`
}

// Rush completes when the correct-guess count reaches the target.
type Rush struct {
	base
	settings RushSettings
}

// NewRush creates a rush mode.
func NewRush(settings RushSettings, gen *music.Generator) *Rush {
	if settings.TargetNotes <= 0 {
		settings.TargetNotes = 10
	}
	return &Rush{
		base:     newBase(gen, settings.ChordMode),
		settings: settings,
	}
}

func (r *Rush) Mode() string { return ModeRush }

func (r *Rush) HandleCorrectGuess() events.GuessResult {
	r.recordCorrect()
	completed := r.correct >= r.settings.TargetNotes
	result := events.GuessResult{
		IsCorrect:     true,
		Feedback:      fmt.Sprintf("Correct! %d of %d", r.correct, r.settings.TargetNotes),
		ShouldAdvance: true,
		GameCompleted: completed,
	}
	if completed {
		stats := r.Stats()
		result.Stats = &stats
	}
	return result
}

func (r *Rush) HandleIncorrectGuess() events.GuessResult {
	r.recordIncorrect()
	return events.GuessResult{
		IsCorrect: false,
		Feedback:  "Incorrect, try again",
	}
}

func (r *Rush) IsGameComplete() bool {
	return r.correct >= r.settings.TargetNotes
}

func (r *Rush) Stats() events.Stats { return r.stats() }

func (r *Rush) Reset() { r.resetCounters() }

// Settings returns the session configuration for history records.
func (r *Rush) Settings() any { return r.settings }

var _ GameMode = (*Rush)(nil)
