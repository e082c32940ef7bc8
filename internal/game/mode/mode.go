package mode

import (
	"time"

	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/music"
)

// Mode name constants.
const (
	ModeRush     = "RUSH"
	ModeSurvival = "SURVIVAL"
	ModeSandbox  = "SANDBOX"
)

// Challenge is one generated round target: a single note for ear training
// or a chord for chord training.
type Challenge struct {
	Note  *music.Note
	Chord *music.Chord
}

// Label is the display/answer name of the challenge, e.g. "C4" or "Dm7".
func (c Challenge) Label() string {
	if c.Chord != nil {
		return c.Chord.Name
	}
	if c.Note != nil {
		return c.Note.String()
	}
	return ""
}

// GameMode is the scoring collaborator behind a session. The orchestrator
// treats implementations as opaque: it asks them to generate challenges,
// validate guesses, and produce guess outcomes, and it consults
// IsGameComplete for win/lose conditions the mode owns.
type GameMode interface {
	Mode() string
	GenerateNote(f music.Filter) Challenge
	ValidateGuess(guess, actual string) bool
	HandleCorrectGuess() events.GuessResult
	HandleIncorrectGuess() events.GuessResult
	OnStartNewRound()
	IsGameComplete() bool
	Stats() events.Stats

	// Settings returns the session configuration for history records.
	Settings() any

	// Chord-selection tracking used by the chord-training strategy. The
	// selection is cleared by OnStartNewRound.
	ToggleNoteSelection(n music.Note)
	SelectedNotes() []music.Note

	// Reset clears all internal target/health tracking so a replayed
	// session starts from scratch.
	Reset()
}

// TimeDriven is implemented by modes whose state advances with the session
// clock (survival health drain). The orchestrator feeds it session ticks.
type TimeDriven interface {
	Tick(dt time.Duration)
}

// base holds the counters and chord-selection state shared by all modes.
type base struct {
	gen       *music.Generator
	chordMode bool

	correct  int
	attempts int
	streak   int
	longest  int

	selected []music.Note
}

func newBase(gen *music.Generator, chordMode bool) base {
	return base{gen: gen, chordMode: chordMode}
}

func (b *base) GenerateNote(f music.Filter) Challenge {
	if b.chordMode {
		chord := b.gen.RandomChord(f)
		return Challenge{Chord: &chord}
	}
	note := b.gen.RandomNote(f)
	return Challenge{Note: &note}
}

func (b *base) ValidateGuess(guess, actual string) bool {
	return guess != "" && guess == actual
}

func (b *base) OnStartNewRound() {
	b.selected = nil
}

func (b *base) ToggleNoteSelection(n music.Note) {
	for i, sel := range b.selected {
		if sel == n {
			b.selected = append(b.selected[:i], b.selected[i+1:]...)
			return
		}
	}
	b.selected = append(b.selected, n)
}

func (b *base) SelectedNotes() []music.Note {
	return append([]music.Note(nil), b.selected...)
}

func (b *base) recordCorrect() {
	b.correct++
	b.attempts++
	b.streak++
	if b.streak > b.longest {
		b.longest = b.streak
	}
}

func (b *base) recordIncorrect() {
	b.attempts++
	b.streak = 0
}

func (b *base) stats() events.Stats {
	return events.Stats{
		CorrectCount:  b.correct,
		TotalAttempts: b.attempts,
		CurrentStreak: b.streak,
		LongestStreak: b.longest,
	}
}

func (b *base) resetCounters() {
	b.correct = 0
	b.attempts = 0
	b.streak = 0
	b.selected = nil
}
