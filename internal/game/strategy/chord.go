package strategy

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchlab/internal/audio"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/mcdev12/pitchlab/internal/game/mode"
	"github.com/mcdev12/pitchlab/internal/music"
)

// ChordTraining is the multi-note strategy: a chord per round, piano clicks
// toggle selection, and an explicit submit is required. Manual advance
// only, even after a correct answer.
type ChordTraining struct {
	player      audio.Player
	clock       clockwork.Clock
	gameMode    mode.GameMode
	initialized bool
}

// NewChordTraining creates the chord-training strategy.
func NewChordTraining(player audio.Player, clock clockwork.Clock) *ChordTraining {
	return &ChordTraining{player: player, clock: clock}
}

var _ Strategy = (*ChordTraining)(nil)

func (c *ChordTraining) StartNewRound(gameMode mode.GameMode, filter music.Filter) (*RoundContext, error) {
	challenge := gameMode.GenerateNote(filter)
	if challenge.Chord == nil {
		if challenge.Note == nil {
			return nil, fmt.Errorf("mode %s generated an empty challenge", gameMode.Mode())
		}
		// Note-configured mode behind the chord strategy; build a major
		// triad on the note.
		chord := music.NewChord(*challenge.Note, music.QualityMajor)
		challenge = mode.Challenge{Chord: &chord}
	}
	gameMode.OnStartNewRound()
	c.gameMode = gameMode
	c.initialized = true

	c.player.PlayChord(*challenge.Chord)

	return &RoundContext{
		StartTime: c.clock.Now(),
		Chord:     challenge.Chord,
	}, nil
}

// HandlePianoKeyClick toggles the note's membership in the selection,
// which the mode collaborator tracks.
func (c *ChordTraining) HandlePianoKeyClick(n music.Note, ctx *RoundContext) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	c.gameMode.ToggleNoteSelection(n)
	ctx.SelectedNotes = c.gameMode.SelectedNotes()
	ctx.NoteHighlights = rebuildSelectionHighlights(ctx.SelectedNotes)
	return nil
}

// HandleSubmitClick freezes the selection into a guessed chord name.
func (c *ChordTraining) HandleSubmitClick(ctx *RoundContext) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	ctx.GuessedChordName = selectionLabel(ctx.SelectedNotes)
	return nil
}

// Validate reports whether the selection matches the challenge chord.
func (c *ChordTraining) Validate(ctx *RoundContext) bool {
	if !c.initialized || ctx == nil || ctx.Chord == nil || len(ctx.SelectedNotes) == 0 {
		return false
	}
	return selectionMatchesChord(ctx.SelectedNotes, *ctx.Chord)
}

func (c *ChordTraining) ValidateAndAdvance(ctx *RoundContext) (events.GuessResult, error) {
	if !c.initialized {
		return events.GuessResult{}, ErrNotInitialized
	}
	if ctx == nil || ctx.Chord == nil || len(ctx.SelectedNotes) == 0 {
		return events.GuessResult{Feedback: "No notes selected"}, nil
	}

	if selectionMatchesChord(ctx.SelectedNotes, *ctx.Chord) {
		return c.gameMode.HandleCorrectGuess(), nil
	}
	return c.gameMode.HandleIncorrectGuess(), nil
}

// CanSubmit is true iff at least one note is selected.
func (c *ChordTraining) CanSubmit(ctx *RoundContext) bool {
	return ctx != nil && len(ctx.SelectedNotes) > 0
}

// ShouldAutoAdvance is always false: chord rounds advance manually.
func (c *ChordTraining) ShouldAutoAdvance() bool { return false }

// AutoSubmits is always false: an explicit submit action is required.
func (c *ChordTraining) AutoSubmits() bool { return false }

// selectionMatchesChord reports whether the selected pitch classes are
// exactly the chord's pitch classes, ignoring octave and order.
func selectionMatchesChord(selected []music.Note, chord music.Chord) bool {
	want := make(map[music.NoteName]bool, len(chord.Notes))
	for _, n := range chord.Notes {
		want[n.Name] = true
	}
	got := make(map[music.NoteName]bool, len(selected))
	for _, n := range selected {
		if !want[n.Name] {
			return false
		}
		got[n.Name] = true
	}
	return len(got) == len(want)
}

func rebuildSelectionHighlights(selected []music.Note) []Highlight {
	highlights := make([]Highlight, 0, len(selected))
	for _, n := range selected {
		highlights = append(highlights, Highlight{Note: n, Kind: HighlightSelected})
	}
	return highlights
}

func selectionLabel(selected []music.Note) string {
	label := ""
	for i, n := range selected {
		if i > 0 {
			label += "+"
		}
		label += n.String()
	}
	return label
}
