package strategy

import (
	"errors"
	"time"

	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/mode"
	"github.com/mcdev12/pitchlab/internal/music"
)

// ErrNotInitialized is returned when a strategy method is called before the
// first round has been started. This indicates a caller-side sequencing bug.
var ErrNotInitialized = errors.New("strategy not initialized: StartNewRound must be called first")

// HighlightKind classifies a visual piano-key marker.
type HighlightKind string

const (
	HighlightGuessed  HighlightKind = "guessed"
	HighlightSelected HighlightKind = "selected"
	HighlightCorrect  HighlightKind = "correct"
	HighlightMissed   HighlightKind = "missed"
)

// Highlight is one visual marker on the on-screen piano.
type Highlight struct {
	Note music.Note    `json:"note"`
	Kind HighlightKind `json:"kind"`
}

// RoundContext is the ephemeral per-round data bag. The orchestrator
// replaces it (never mutates in place) at the start of each round.
type RoundContext struct {
	StartTime time.Time     `json:"start_time"`
	Elapsed   time.Duration `json:"elapsed"`

	Note  *music.Note  `json:"note,omitempty"`
	Chord *music.Chord `json:"chord,omitempty"`

	SelectedNotes  []music.Note `json:"selected_notes,omitempty"`
	NoteHighlights []Highlight  `json:"note_highlights,omitempty"`

	GuessedNote      string `json:"guessed_note,omitempty"`
	GuessedChordName string `json:"guessed_chord_name,omitempty"`
}

// Strategy is the round-shape-specific behavior selected at session
// configuration time: single-note ear training or multi-note chord
// training. Implementations keep no per-round state of their own; all
// round data lives in the RoundContext they return.
type Strategy interface {
	// StartNewRound generates the next challenge, starts audio playback,
	// and returns a fresh round context.
	StartNewRound(gameMode mode.GameMode, filter music.Filter) (*RoundContext, error)

	// HandlePianoKeyClick reacts to a key press. For ear training the
	// click is the submission; for chord training it toggles selection.
	HandlePianoKeyClick(n music.Note, ctx *RoundContext) error

	// HandleSubmitClick reacts to the explicit submit action (chord
	// training only; a no-op for ear training).
	HandleSubmitClick(ctx *RoundContext) error

	// Validate is the pure correctness check for the current guess. It
	// never mutates the mode collaborator.
	Validate(ctx *RoundContext) bool

	// ValidateAndAdvance validates the current guess against the active
	// challenge and asks the mode collaborator for the outcome.
	ValidateAndAdvance(ctx *RoundContext) (events.GuessResult, error)

	// CanSubmit reports whether the current context holds a submittable
	// guess.
	CanSubmit(ctx *RoundContext) bool

	// ShouldAutoAdvance reports whether correct answers schedule an
	// automatic advance to the next round.
	ShouldAutoAdvance() bool

	// AutoSubmits reports whether a piano click is itself the submission.
	AutoSubmits() bool
}
